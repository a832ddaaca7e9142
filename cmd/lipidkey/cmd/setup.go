package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/LipidKey/pkg/adduct"
	"github.com/ChrisMcGann/LipidKey/pkg/config"
	"github.com/ChrisMcGann/LipidKey/pkg/core"
	"github.com/ChrisMcGann/LipidKey/pkg/logging"
	"github.com/ChrisMcGann/LipidKey/pkg/scoring"
)

// session bundles what every command needs after flags and config are merged
type session struct {
	cfg      *config.Config
	logger   *slog.Logger
	detector *adduct.Detector
	scorer   *scoring.Scorer
}

// loadConfig reads the config file and lets explicitly set flags win
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, _, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Logging.Level = logLevel
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format = logFormat
	}
	if flags.Changed("workers") {
		cfg.Scoring.Workers = workers
	}
	if flags.Changed("ppm") {
		cfg.Inference.PPMTolerance = ppmTolerance
	}
	if flags.Changed("positive-catalog") {
		cfg.Inference.PositiveCatalog = positiveCatalog
	}
	if flags.Changed("negative-catalog") {
		cfg.Inference.NegativeCatalog = negativeCatalog
	}
	if flags.Changed("top-n") {
		cfg.Filter.TopN = topN
	}
	if flags.Changed("cutoff") {
		cfg.Filter.IntensityCutoff = cutoffPercent
	}
	if flags.Changed("min-mz") {
		cfg.Filter.MinMZ = minMZ
	}
	if flags.Changed("max-mz") {
		cfg.Filter.MaxMZ = maxMZ
	}
	if flags.Changed("overwrite") {
		cfg.Output.Overwrite = overwrite
	}
	if flags.Changed("addr") {
		cfg.Server.Addr = listenAddr
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newSession(cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: os.Stderr,
	})
	if err != nil {
		return nil, err
	}

	catalogs, err := loadCatalogs(cfg.Inference)
	if err != nil {
		return nil, err
	}

	detector := adduct.NewDetector(catalogs,
		adduct.WithBaseTolerance(cfg.Inference.BaseTolerance),
		adduct.WithPPMTolerance(cfg.Inference.PPMTolerance),
		adduct.WithLogger(logger),
	)
	scorer := scoring.NewScorer(
		scoring.WithWorkers(cfg.Scoring.Workers),
		scoring.WithLogger(logger),
	)

	return &session{cfg: cfg, logger: logger, detector: detector, scorer: scorer}, nil
}

// loadCatalogs returns the built-in catalogs, replacing either polarity from CSV when configured
func loadCatalogs(cfg config.Inference) (adduct.Catalogs, error) {
	catalogs := adduct.DefaultCatalogs()

	var err error
	if cfg.PositiveCatalog != "" {
		if catalogs.Positive, err = loadCatalogCSV(cfg.PositiveCatalog, core.Positive); err != nil {
			return catalogs, err
		}
	}
	if cfg.NegativeCatalog != "" {
		if catalogs.Negative, err = loadCatalogCSV(cfg.NegativeCatalog, core.Negative); err != nil {
			return catalogs, err
		}
	}
	return catalogs, nil
}

func loadCatalogCSV(path string, mode core.IonizationMode) (*adduct.Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s catalog: %w", mode, err)
	}
	defer f.Close()

	catalog := adduct.NewCatalog(mode)
	if err := catalog.LoadFromCSV(f); err != nil {
		return nil, fmt.Errorf("failed to load %s catalog %s: %w", mode, path, err)
	}
	if catalog.Len() < 2 {
		return nil, fmt.Errorf("%s catalog %s needs at least two adducts", mode, path)
	}
	return catalog, nil
}
