package cli

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newCheckCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Linearize every class in the hierarchy",
		Long: `Validate the hierarchy file and compute the resolution order of every
class. Exits nonzero if any class has no consistent order.`,
		Example: `  mro check -f hierarchy.yaml`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, err := loadGraph(opts)
			if err != nil {
				return err
			}
			ok, failed := g.LinearizeAll()
			out := cmd.OutOrStdout()

			if opts.output == outputJSON {
				failures := make(map[string]string, len(failed))
				for _, f := range failed {
					failures[f.Class] = f.Err.Error()
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(map[string]interface{}{"orders": ok, "failures": failures}); err != nil {
					return err
				}
			} else {
				for _, name := range g.Names() {
					if l, found := ok[name]; found {
						printOrder(out, l)
					}
				}
				bad := color.New(color.FgRed).SprintFunc()
				for _, f := range failed {
					fmt.Fprintf(out, "%s %s\n", bad("✗"), f.Error())
				}
			}

			if len(failed) > 0 {
				return fmt.Errorf("%d of %d classes have no consistent order: %w",
					len(failed), g.ClassCount(), failed[0].Err)
			}
			return nil
		},
	}
}
