package cli

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

// version can be overridden at build time via:
// go build -ldflags "-X github.com/Aleph-Alpha/vecsearch/internal/cli.version=1.2.3"
var version = "0.1.0"

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	backend    string
}

// NewRootCmd builds the vecsearch command tree. Extra fx options are appended
// to every application a subcommand starts.
func NewRootCmd(extra ...fx.Option) *cobra.Command {
	flags := &globalFlags{}
	r := &runner{flags: flags, extra: extra}

	rootCmd := &cobra.Command{
		Use:           "vecsearch",
		Short:         "Semantic text and image search over a vector store",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&flags.backend, "backend", "", "override store.backend (qdrant, pgvector, memory)")

	rootCmd.AddCommand(newTextCmd(r))
	rootCmd.AddCommand(newImageCmd(r))
	return rootCmd
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}
