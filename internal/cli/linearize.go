package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/mro/internal/hierarchy"
)

func newLinearizeCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "linearize CLASS [CLASS...]",
		Short: "Print the resolution order of one or more classes",
		Long: `Compute the C3 linearization of each named class.

The command fails with a nonzero exit status when the hierarchy file is
malformed (unknown base, cycle) or when no consistent order exists.`,
		Example: `  # Diamond: D(B, C) with B(A) and C(A)
  mro linearize -f diamond.yaml D
  D -> B -> C -> A -> object

  # JSON output
  mro linearize -f diamond.yaml D -o json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := loadGraph(opts)
			if err != nil {
				return err
			}
			orders := make([]hierarchy.Linearization, 0, len(args))
			for _, class := range args {
				l, err := g.Linearize(class)
				if err != nil {
					return err
				}
				orders = append(orders, l)
			}
			if opts.output == outputJSON {
				return writeOrdersJSON(cmd.OutOrStdout(), args, orders)
			}
			for _, l := range orders {
				printOrder(cmd.OutOrStdout(), l)
			}
			return nil
		},
	}
}

type orderJSON struct {
	Class string                  `json:"class"`
	MRO   hierarchy.Linearization `json:"mro"`
}

func writeOrdersJSON(w io.Writer, classes []string, orders []hierarchy.Linearization) error {
	out := make([]orderJSON, len(orders))
	for i := range orders {
		out[i] = orderJSON{Class: classes[i], MRO: orders[i]}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// printOrder writes "D -> B -> C -> A" with the class itself highlighted.
func printOrder(w io.Writer, l hierarchy.Linearization) {
	if len(l) == 0 {
		return
	}
	head := color.New(color.FgCyan, color.Bold).Sprint(l[0])
	if len(l) == 1 {
		fmt.Fprintln(w, head)
		return
	}
	fmt.Fprintf(w, "%s -> %s\n", head, l[1:].String())
}
