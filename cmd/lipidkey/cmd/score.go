package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/LipidKey/pkg/core"
	"github.com/ChrisMcGann/LipidKey/pkg/filter"
	"github.com/ChrisMcGann/LipidKey/pkg/reader/msp"
	"github.com/ChrisMcGann/LipidKey/pkg/scoring"
	"github.com/ChrisMcGann/LipidKey/pkg/writer/sqlite"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Infer adducts and score annotations by elution order",
	Long: `Read lipid annotations from an MSP file, infer the adduct of each annotation
from its grouped peaks, then score every annotation against the elution-order
rules. Results are printed as a table and optionally written to SQLite.

Examples:
  # Score a file and print the results
  lipidkey score --in annotations.msp

  # Keep the 20 most intense grouped peaks and write a result database
  lipidkey score --in annotations.msp --top-n 20 --out results.db

  # Use a custom negative-mode adduct table and a tighter tolerance
  lipidkey score --in annotations.msp --negative-catalog neg.csv --ppm 5`,
	RunE: runScore,
}

func runScore(cmd *cobra.Command, args []string) error {
	// Validate input file exists
	if _, err := os.Stat(inputFile); os.IsNotExist(err) {
		return fmt.Errorf("input file does not exist: %s", inputFile)
	}

	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	anns, skipped, err := readAnnotations(inputFile, filter.Config{
		TopN:            s.cfg.Filter.TopN,
		IntensityCutoff: s.cfg.Filter.IntensityCutoff,
		MinMZ:           s.cfg.Filter.MinMZ,
		MaxMZ:           s.cfg.Filter.MaxMZ,
		KeepTolerance:   s.cfg.Inference.BaseTolerance,
	})
	if err != nil {
		return err
	}
	s.logger.Info("annotations loaded",
		"file", inputFile,
		"annotations", len(anns),
		"skipped", skipped,
	)

	labelled, err := s.detector.ApplyAll(ctx, anns, s.cfg.Scoring.Workers)
	if err != nil {
		return fmt.Errorf("adduct inference: %w", err)
	}

	summary, err := s.scorer.Score(ctx, anns)
	if err != nil {
		return fmt.Errorf("scoring: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderAnnotations(anns))
	fmt.Fprintln(out, renderRuleHits(summary))
	fmt.Fprintf(out, "Annotations: %d  Adducts inferred: %d  Pairs: %d  Rule matches: %d\n",
		summary.Annotations, labelled, summary.Pairs, summary.Matches)

	if outputFile == "" {
		return nil
	}
	return writeResults(ctx, s, anns, summary)
}

// readAnnotations streams the input, filters grouped peaks and drops invalid annotations
func readAnnotations(path string, fc filter.Config) ([]*core.Annotation, int, error) {
	inFile, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open input file: %w", err)
	}
	defer inFile.Close()

	reader := msp.NewReader(inFile)

	var anns []*core.Annotation
	skipped := 0
	for reader.Next() {
		ann := reader.Annotation()

		// Remove zero intensity peaks
		filter.RemoveZeroIntensityPeaks(ann)

		// Apply filters
		if fc.Active() {
			if err := fc.Apply(ann); err != nil {
				return nil, 0, fmt.Errorf("filter: %w", err)
			}
		}

		// Validate annotation
		if err := ann.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: invalid annotation %s: %v\n", ann, err)
			skipped++
			continue
		}

		anns = append(anns, ann)
	}

	if err := reader.Err(); err != nil {
		return nil, 0, fmt.Errorf("error reading input file: %w", err)
	}
	return anns, skipped, nil
}

func writeResults(ctx context.Context, s *session, anns []*core.Annotation, summary scoring.Summary) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	writer, err := sqlite.NewWriter(outputFile, s.cfg.Output.Overwrite)
	if err != nil {
		return fmt.Errorf("failed to create output database: %w", err)
	}
	defer writer.Close()

	if err := writer.WriteAll(anns); err != nil {
		return fmt.Errorf("failed to write annotations: %w", err)
	}
	writer.RecordSummary(summary)

	// Finalize database
	if err := writer.Finalize(); err != nil {
		return fmt.Errorf("failed to finalize database: %w", err)
	}

	s.logger.Info("results written",
		"output", outputFile,
		"run_id", writer.RunID(),
		"driver", sqlite.BuildMode,
	)
	return nil
}

func renderAnnotations(anns []*core.Annotation) string {
	headers := []string{"#", "Lipid", "m/z", "RT (min)", "Adduct", "Score", "Compared", "Normalized"}
	aligns := []columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignLeft, alignRight, alignRight, alignRight}

	rows := make([][]string, 0, len(anns))
	for i, a := range anns {
		adduct := a.Adduct()
		if adduct == "" {
			adduct = "-"
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			a.Lipid.String(),
			strconv.FormatFloat(a.MZ, 'f', 4, 64),
			strconv.FormatFloat(a.RTMin, 'f', 2, 64),
			adduct,
			strconv.Itoa(a.Score()),
			strconv.Itoa(a.ComparisonsApplied()),
			strconv.FormatFloat(a.NormalizedScore(), 'f', 3, 64),
		})
	}
	return renderTable(headers, rows, aligns)
}

func renderRuleHits(summary scoring.Summary) string {
	names := make([]string, 0, len(summary.RuleHits))
	for name := range summary.RuleHits {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		rows = append(rows, []string{name, strconv.Itoa(summary.RuleHits[name])})
	}
	return renderTable([]string{"Rule", "Hits"}, rows, []columnAlignment{alignLeft, alignRight})
}
