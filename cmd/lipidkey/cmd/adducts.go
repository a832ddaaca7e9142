package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/LipidKey/pkg/adduct"
	"github.com/ChrisMcGann/LipidKey/pkg/config"
	"github.com/ChrisMcGann/LipidKey/pkg/core"
)

var adductsCmd = &cobra.Command{
	Use:   "adducts [positive|negative]",
	Short: "List the adduct catalogs used for inference",
	Long: `Print the ordered adduct catalog for one or both polarities. Catalog order is
match priority: the first adduct pair that explains two grouped peaks wins.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		catalogs, err := loadCatalogs(cfg.Inference)
		if err != nil {
			return err
		}

		modes := []core.IonizationMode{core.Positive, core.Negative}
		if len(args) == 1 {
			mode, err := core.ParseIonizationMode(args[0])
			if err != nil {
				return err
			}
			modes = []core.IonizationMode{mode}
		}

		out := cmd.OutOrStdout()
		for _, mode := range modes {
			fmt.Fprintf(out, "%s (%s)\n", mode, catalogSource(cfg.Inference, mode))
			fmt.Fprintln(out, renderCatalog(catalogs.For(mode)))
		}
		return nil
	},
}

func catalogSource(cfg config.Inference, mode core.IonizationMode) string {
	path := cfg.PositiveCatalog
	if mode == core.Negative {
		path = cfg.NegativeCatalog
	}
	if path == "" {
		return "built-in"
	}
	return path
}

func renderCatalog(catalog *adduct.Catalog) string {
	headers := []string{"#", "Adduct", "Mass shift", "Multimer", "Charge"}
	aligns := []columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight}

	var rows [][]string
	for i, a := range catalog.Entries() {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			a.Notation,
			strconv.FormatFloat(a.MassShift, 'f', 6, 64),
			strconv.Itoa(a.Multimer()),
			strconv.Itoa(a.Charge()),
		})
	}
	return renderTable(headers, rows, aligns)
}
