package adduct

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/ChrisMcGann/LipidKey/pkg/core"
	"github.com/ChrisMcGann/LipidKey/pkg/logging"
)

const (
	// DefaultBaseTolerance is the absolute m/z window (Da) used to find the base peak.
	DefaultBaseTolerance = 0.01
	// DefaultPPMTolerance is the maximum ppm error accepted for a partner peak.
	DefaultPPMTolerance = 10
)

// Match describes the adduct pair that explained two grouped peaks.
type Match struct {
	Adduct      Adduct // assigned to the annotation
	Partner     Adduct // explains the partner peak
	BasePeak    core.Peak
	PartnerPeak core.Peak
	NeutralMass float64
	PPM         int
}

// Detector infers adducts from grouped peaks.
type Detector struct {
	catalogs      Catalogs
	baseTolerance float64
	ppmTolerance  int
	logger        *slog.Logger
}

// Option configures a Detector.
type Option func(*Detector)

// WithBaseTolerance sets the base peak m/z window in Da.
func WithBaseTolerance(tol float64) Option {
	return func(d *Detector) {
		if tol > 0 {
			d.baseTolerance = tol
		}
	}
}

// WithPPMTolerance sets the partner peak tolerance in ppm.
func WithPPMTolerance(ppm int) Option {
	return func(d *Detector) {
		if ppm >= 0 {
			d.ppmTolerance = ppm
		}
	}
}

// WithLogger sets the logger used for inference misses and matches.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Detector) {
		d.logger = logging.OrNoop(logger)
	}
}

// NewDetector creates a detector over explicit catalogs.
func NewDetector(catalogs Catalogs, opts ...Option) *Detector {
	d := &Detector{
		catalogs:      catalogs,
		baseTolerance: DefaultBaseTolerance,
		ppmTolerance:  DefaultPPMTolerance,
		logger:        logging.Noop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Catalogs returns the catalogs the detector matches against.
func (d *Detector) Catalogs() Catalogs {
	return d.catalogs
}

// Detect finds the first base/partner peak pair explained by two distinct adducts
// of the annotation's polarity. Peers are tried in ascending m/z, then adduct pairs
// in catalog order.
func (d *Detector) Detect(a *core.Annotation) (Match, bool) {
	peaks := a.GroupedSignals()

	baseIdx := -1
	for i, p := range peaks {
		if math.Abs(p.MZ-a.MZ) < d.baseTolerance {
			baseIdx = i
			break
		}
	}
	if baseIdx < 0 {
		d.logger.Debug("no base peak for annotation", "mz", a.MZ, "peaks", len(peaks))
		return Match{}, false
	}
	base := peaks[baseIdx]

	catalog := d.catalogs.For(a.IonizationMode)
	if catalog == nil || catalog.Len() < 2 {
		d.logger.Debug("no catalog for ionization mode", "mode", a.IonizationMode.String())
		return Match{}, false
	}
	adducts := catalog.Entries()

	for i, partner := range peaks {
		if i == baseIdx {
			continue
		}
		for _, a1 := range adducts {
			neutral := MassFromMZ(base.MZ, a1)
			for _, a2 := range adducts {
				if a1.Notation == a2.Notation {
					continue
				}
				predicted := MZFromMass(neutral, a2)
				if predicted <= 0 || math.IsNaN(predicted) || math.IsInf(predicted, 0) {
					continue
				}
				ppm := PPMError(partner.MZ, predicted)
				if ppm <= d.ppmTolerance {
					d.logger.Debug("adduct pair detected",
						"mz", a.MZ,
						"adduct", a1.Notation,
						"partner_adduct", a2.Notation,
						"partner_mz", partner.MZ,
						"neutral_mass", neutral,
						"ppm", ppm,
					)
					return Match{
						Adduct:      a1,
						Partner:     a2,
						BasePeak:    base,
						PartnerPeak: partner,
						NeutralMass: neutral,
						PPM:         ppm,
					}, true
				}
			}
		}
	}

	d.logger.Debug("no adduct detected for annotation", "mz", a.MZ)
	return Match{}, false
}

// Apply detects the adduct and stores it on the annotation. Annotations that
// already carry an adduct are left untouched and report false.
func (d *Detector) Apply(a *core.Annotation) (bool, error) {
	if a == nil {
		return false, fmt.Errorf("nil annotation")
	}
	if a.HasAdduct() {
		return false, nil
	}
	match, ok := d.Detect(a)
	if !ok {
		return false, nil
	}
	if err := a.SetAdduct(match.Adduct.Notation); err != nil {
		if errors.Is(err, core.ErrAdductAlreadySet) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ApplyAll runs Apply over every annotation using up to workers goroutines
// (0 means GOMAXPROCS) and returns how many annotations were labelled.
func (d *Detector) ApplyAll(ctx context.Context, annotations []*core.Annotation, workers int) (int, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	var labelled atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, a := range annotations {
		if err := gctx.Err(); err != nil {
			break
		}
		i, a := i, a
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ok, err := d.Apply(a)
			if err != nil {
				return fmt.Errorf("annotation %d: %w", i, err)
			}
			if ok {
				labelled.Add(1)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return int(labelled.Load()), err
	}
	if err := ctx.Err(); err != nil {
		return int(labelled.Load()), err
	}

	d.logger.Info("adduct inference complete",
		"annotations", len(annotations),
		"labelled", labelled.Load(),
	)
	return int(labelled.Load()), nil
}
