package core

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// ErrAdductAlreadySet is returned when an annotation's adduct is assigned twice.
var ErrAdductAlreadySet = errors.New("adduct already set")

// IonizationMode is the polarity of the acquisition.
type IonizationMode int

const (
	Positive IonizationMode = iota
	Negative
)

func (m IonizationMode) String() string {
	switch m {
	case Positive:
		return "POSITIVE"
	case Negative:
		return "NEGATIVE"
	default:
		return fmt.Sprintf("IonizationMode(%d)", int(m))
	}
}

// Polarity returns the sign character used in adduct notation.
func (m IonizationMode) Polarity() string {
	if m == Negative {
		return "-"
	}
	return "+"
}

// ParseIonizationMode accepts POSITIVE/POS/+ and NEGATIVE/NEG/- in any case.
func ParseIonizationMode(s string) (IonizationMode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "POSITIVE", "POS", "+":
		return Positive, nil
	case "NEGATIVE", "NEG", "-":
		return Negative, nil
	default:
		return 0, fmt.Errorf("invalid ionization mode '%s', expected POSITIVE or NEGATIVE", s)
	}
}

// Peak represents a single m/z, intensity pair.
type Peak struct {
	MZ        float64
	Intensity float64
}

// Annotation is one candidate lipid identification for a grouped feature.
type Annotation struct {
	Lipid          *Lipid // shared, not owned
	MZ             float64
	Intensity      float64
	RTMin          float64 // retention time in minutes
	IonizationMode IonizationMode

	adduct             string
	groupedSignals     []Peak
	score              int
	comparisonsApplied int
}

// NewAnnotation creates an annotation. Grouped signals are sorted by m/z and
// peaks with an m/z already present are dropped.
func NewAnnotation(lipid *Lipid, mz, intensity, rtMin float64, mode IonizationMode, groupedSignals ...Peak) *Annotation {
	return &Annotation{
		Lipid:          lipid,
		MZ:             mz,
		Intensity:      intensity,
		RTMin:          rtMin,
		IonizationMode: mode,
		groupedSignals: normalizePeaks(groupedSignals),
	}
}

// normalizePeaks returns a sorted copy with duplicate m/z values collapsed to the first occurrence.
func normalizePeaks(peaks []Peak) []Peak {
	if len(peaks) == 0 {
		return nil
	}

	sorted := make([]Peak, len(peaks))
	copy(sorted, peaks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MZ < sorted[j].MZ
	})

	out := sorted[:1]
	for _, p := range sorted[1:] {
		if p.MZ == out[len(out)-1].MZ {
			continue
		}
		out = append(out, p)
	}
	return out
}

// GroupedSignals returns a copy of the grouped peaks in ascending m/z order.
func (a *Annotation) GroupedSignals() []Peak {
	out := make([]Peak, len(a.groupedSignals))
	copy(out, a.groupedSignals)
	return out
}

// ReplaceGroupedSignals swaps the grouped peaks, keeping them sorted and unique.
func (a *Annotation) ReplaceGroupedSignals(peaks []Peak) {
	a.groupedSignals = normalizePeaks(peaks)
}

// MostIntensePeak returns the most abundant grouped peak.
func (a *Annotation) MostIntensePeak() (Peak, bool) {
	if len(a.groupedSignals) == 0 {
		return Peak{}, false
	}
	best := a.groupedSignals[0]
	for _, p := range a.groupedSignals[1:] {
		if p.Intensity > best.Intensity {
			best = p
		}
	}
	return best, true
}

// Adduct returns the assigned adduct notation, or "" when unset.
func (a *Annotation) Adduct() string {
	return a.adduct
}

// HasAdduct reports whether an adduct has been assigned.
func (a *Annotation) HasAdduct() bool {
	return a.adduct != ""
}

// SetAdduct assigns the adduct notation. It can only be done once.
func (a *Annotation) SetAdduct(notation string) error {
	if notation == "" {
		return fmt.Errorf("empty adduct notation")
	}
	if a.adduct != "" {
		return fmt.Errorf("%w: %s", ErrAdductAlreadySet, a.adduct)
	}
	a.adduct = notation
	return nil
}

// Score returns the accumulated rule score.
func (a *Annotation) Score() int {
	return a.score
}

// ComparisonsApplied returns how many rule matches contributed to the score.
func (a *Annotation) ComparisonsApplied() int {
	return a.comparisonsApplied
}

// AddScore applies one rule match to the accumulator.
func (a *Annotation) AddScore(delta int) {
	a.score += delta
	a.comparisonsApplied++
}

// AddScores folds several rule matches into the accumulator at once.
func (a *Annotation) AddScores(delta, comparisons int) {
	a.score += delta
	a.comparisonsApplied += comparisons
}

// NormalizedScore returns score / comparisonsApplied, or 0 if never compared.
func (a *Annotation) NormalizedScore() float64 {
	if a.comparisonsApplied == 0 {
		return 0
	}
	return float64(a.score) / float64(a.comparisonsApplied)
}

// Equal reports whether two annotations propose the same lipid at the same m/z and RT.
func (a *Annotation) Equal(other *Annotation) bool {
	if a == other {
		return true
	}
	if a == nil || other == nil {
		return false
	}
	if a.MZ != other.MZ || a.RTMin != other.RTMin {
		return false
	}
	if a.Lipid == nil || other.Lipid == nil {
		return a.Lipid == other.Lipid
	}
	return *a.Lipid == *other.Lipid
}

func (a *Annotation) String() string {
	name := "<nil>"
	if a.Lipid != nil {
		name = a.Lipid.String()
	}
	adduct := a.adduct
	if adduct == "" {
		adduct = "unset"
	}
	return fmt.Sprintf("Annotation(%s, mz=%.4f, RT=%.2f, adduct=%s, intensity=%.1f, score=%d)",
		name, a.MZ, a.RTMin, adduct, a.Intensity, a.score)
}

// ValidationError represents an error found during annotation validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", e.Field, e.Message)
}

// Validate checks that an annotation carries everything scoring and inference need.
func (a *Annotation) Validate() error {
	var errs []string

	if a.Lipid == nil {
		errs = append(errs, "lipid is required")
	} else {
		if a.Lipid.Type < PG || a.Lipid.Type > TG {
			errs = append(errs, fmt.Sprintf("unknown lipid type %d", int(a.Lipid.Type)))
		}
		if a.Lipid.CarbonCount < 0 {
			errs = append(errs, "carbon count must be non-negative")
		}
		if a.Lipid.DoubleBondsCount < 0 {
			errs = append(errs, "double bond count must be non-negative")
		}
	}
	if math.IsNaN(a.MZ) || math.IsInf(a.MZ, 0) || a.MZ <= 0 {
		errs = append(errs, "m/z must be a positive number")
	}
	if math.IsNaN(a.RTMin) || math.IsInf(a.RTMin, 0) {
		errs = append(errs, "retention time is invalid")
	}
	if math.IsNaN(a.Intensity) || math.IsInf(a.Intensity, 0) || a.Intensity < 0 {
		errs = append(errs, "intensity must be non-negative")
	}

	for i, peak := range a.groupedSignals {
		if math.IsNaN(peak.MZ) || math.IsInf(peak.MZ, 0) || peak.MZ <= 0 {
			errs = append(errs, fmt.Sprintf("peak %d has invalid m/z", i))
		}
		if math.IsNaN(peak.Intensity) || math.IsInf(peak.Intensity, 0) || peak.Intensity < 0 {
			errs = append(errs, fmt.Sprintf("peak %d has invalid intensity", i))
		}
	}

	if len(errs) > 0 {
		return &ValidationError{
			Field:   "Annotation",
			Message: strings.Join(errs, "; "),
		}
	}

	return nil
}
