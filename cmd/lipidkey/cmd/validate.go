package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/LipidKey/pkg/reader/msp"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate annotation file format and contents",
	Long:  `Validate that an MSP annotation file parses and that every annotation can be scored.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inFile, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open input file: %w", err)
		}
		defer inFile.Close()

		out := cmd.OutOrStdout()
		reader := msp.NewReader(inFile)

		count, invalid, withAdduct := 0, 0, 0
		for reader.Next() {
			ann := reader.Annotation()
			count++
			if ann.HasAdduct() {
				withAdduct++
			}
			if err := ann.Validate(); err != nil {
				invalid++
				fmt.Fprintf(out, "annotation %d (%s): %v\n", count, ann.Lipid, err)
			}
		}
		if err := reader.Err(); err != nil {
			return fmt.Errorf("error reading input file: %w", err)
		}

		fmt.Fprintf(out, "Annotations: %d\n", count)
		fmt.Fprintf(out, "Lipid species: %d\n", reader.Lipids())
		fmt.Fprintf(out, "Pre-assigned adducts: %d\n", withAdduct)
		if invalid > 0 {
			return fmt.Errorf("%d of %d annotations are invalid", invalid, count)
		}
		fmt.Fprintln(out, "OK")
		return nil
	},
}
