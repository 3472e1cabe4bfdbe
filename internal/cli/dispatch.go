package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/mro/internal/dispatch"
)

func newDispatchCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "dispatch CLASS METHOD",
		Short: "Resolve a method and run its declared chain",
		Long: `Resolve METHOD for an instance of CLASS and run the implementations
declared in the hierarchy file.

The provider is the first class in CLASS's resolution order that declares
METHOD. An implementation marked "super: true" forwards to the next class
in that same order; one without it ends the chain.`,
		Example: `  mro dispatch -f diamond.yaml D greet
  provider: D
  calls:    D -> B -> C -> A`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := loadGraph(opts)
			if err != nil {
				return err
			}
			tbl, err := dispatch.FromGraph(g)
			if err != nil {
				return err
			}
			p, err := tbl.Resolve(args[0], args[1])
			if err != nil {
				return err
			}
			call, err := tbl.Invoke(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.output == outputJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]interface{}{
					"class":    args[0],
					"method":   args[1],
					"provider": p.Class,
					"mro":      p.MRO,
					"trace":    call.Trace(),
				})
			}
			fmt.Fprintf(out, "provider: %s\n", p.Class)
			fmt.Fprintf(out, "calls:    %s\n", strings.Join(call.Trace(), " -> "))
			return nil
		},
	}
}
