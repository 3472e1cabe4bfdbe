// Package cli provides the mro command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/mro/internal/config"
	"github.com/gyaneshwarpardhi/mro/internal/dispatch"
	"github.com/gyaneshwarpardhi/mro/internal/hierarchy"
)

// Version information (set at build time).
var Version = "0.1.0"

// Exit codes.
const (
	ExitOK           = 0
	ExitError        = 1
	ExitInvalid      = 2
	ExitInconsistent = 3
	ExitNotFound     = 4
)

const (
	outputText = "text"
	outputJSON = "json"
)

type options struct {
	file   string
	output string
}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:   "mro",
		Short: "Compute C3 method resolution orders",
		Long: `mro computes C3 linearizations over a class hierarchy described in YAML.

Each class lists its direct bases in declaration order. The resolution order
of a class is the class itself followed by every ancestor exactly once,
keeping each class's bases in their declared order.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if opts.output != outputText && opts.output != outputJSON {
				return fmt.Errorf("unknown output format %q (want text or json)", opts.output)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.file, "file", "f", "hierarchy.yaml", "hierarchy file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVarP(&opts.output, "output", "o", outputText, "output format (text|json)")
	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{outputText, outputJSON}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newLinearizeCommand(opts))
	rootCmd.AddCommand(newDispatchCommand(opts))
	rootCmd.AddCommand(newCheckCommand(opts))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// Execute runs the root command with args and returns the process exit code.
func Execute(args []string, stdout, stderr io.Writer) int {
	rootCmd := NewRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(stderr, "%s %v\n", color.New(color.FgRed, color.Bold).Sprint("error:"), err)
		return ExitCode(err)
	}
	return ExitOK
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, hierarchy.ErrInconsistentHierarchy):
		return ExitInconsistent
	case errors.Is(err, hierarchy.ErrInvalidHierarchy):
		return ExitInvalid
	case errors.Is(err, hierarchy.ErrClassNotFound), errors.Is(err, dispatch.ErrMethodNotFound):
		return ExitNotFound
	default:
		return ExitError
	}
}

// loadGraph reads, validates and builds the hierarchy in opts.file.
func loadGraph(opts *options) (*hierarchy.Graph, error) {
	cfg, err := config.Load(opts.file)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", hierarchy.ErrInvalidHierarchy, err)
	}
	return hierarchy.Build(cfg)
}
