// Package cmd provides CLI command implementations
package cmd

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	logLevel   string
	logFormat  string

	// Flags shared by score and serve
	workers         int
	ppmTolerance    int
	positiveCatalog string
	negativeCatalog string

	// Flags for score command
	inputFile     string
	outputFile    string
	overwrite     bool
	topN          int
	cutoffPercent float64
	minMZ         float64
	maxMZ         float64

	// Flags for serve command
	listenAddr string
)

var rootCmd = &cobra.Command{
	Use:   "lipidkey",
	Short: "LipidKey - Adduct inference and elution-order scoring for lipid annotations",
	Long: `LipidKey labels lipid annotations with the ion adduct that explains their
grouped peaks and scores every annotation against reversed-phase elution rules.

Supported workflows:
- Adduct inference from co-eluting peak pairs (positive and negative mode)
- Pairwise elution-order scoring by carbon count, double bonds and class
- Grouped-peak filtering (top-N, intensity cutoff, m/z range)
- SQLite result export and an HTTP scoring API`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to lipidkey.toml (default: ./lipidkey.toml if present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: auto, console, json")

	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(adductsCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)

	for _, c := range []*cobra.Command{scoreCmd, serveCmd} {
		c.Flags().IntVarP(&workers, "workers", "w", 0, "Worker goroutines (0 = one per CPU)")
		c.Flags().IntVar(&ppmTolerance, "ppm", 0, "Partner peak tolerance in ppm (default 10)")
		c.Flags().StringVar(&positiveCatalog, "positive-catalog", "", "CSV file replacing the built-in positive adduct catalog")
		c.Flags().StringVar(&negativeCatalog, "negative-catalog", "", "CSV file replacing the built-in negative adduct catalog")
	}

	// Score command flags
	scoreCmd.Flags().StringVarP(&inputFile, "in", "i", "", "Input annotation file (MSP format, required)")
	scoreCmd.Flags().StringVarP(&outputFile, "out", "o", "", "Output SQLite database (optional)")
	scoreCmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing output database")
	scoreCmd.Flags().IntVar(&topN, "top-n", 0, "Keep only top N most intense grouped peaks (0 = no limit)")
	scoreCmd.Flags().Float64Var(&cutoffPercent, "cutoff", 0, "Intensity cutoff as % of the most intense grouped peak (0 = no cutoff)")
	scoreCmd.Flags().Float64Var(&minMZ, "min-mz", 0, "Drop grouped peaks below this m/z (0 = no bound)")
	scoreCmd.Flags().Float64Var(&maxMZ, "max-mz", 0, "Drop grouped peaks above this m/z (0 = no bound)")
	scoreCmd.MarkFlagRequired("in")

	// Serve command flags
	serveCmd.Flags().StringVar(&listenAddr, "addr", "", "Listen address (default 127.0.0.1:8087)")
}
