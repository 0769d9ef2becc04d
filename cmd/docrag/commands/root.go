// Package commands defines all Cobra CLI commands for the docrag binary.
package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/54b3r/docrag/internal/audit"
	"github.com/54b3r/docrag/internal/config"
	"github.com/54b3r/docrag/internal/logging"
)

// ErrGuardedFailure is returned under --strict when a load or query failure
// was caught and reported instead of aborting the command.
var ErrGuardedFailure = errors.New("completed with errors")

// rootOptions holds the global flags and the state resolved from them.
type rootOptions struct {
	configPath string
	backend    string
	strict     bool

	// cfg is resolved in PersistentPreRunE and shared by every subcommand.
	cfg *config.Config
}

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "docrag",
		Short: "docrag: ask questions about your documents",
		Long: `docrag loads a PDF, CSV, JSON, or XLSX document, splits it into chunks,
stores them in a vector store (local SQLite, Weaviate, or Qdrant), and answers
questions about it with an LLM. Answers are written back into the store.

Configuration is read from a YAML or TOML file (~/.docrag/config.yaml,
./docrag.yaml, ./docrag.toml, or --config) and overridden by environment
variables such as OPENAI_API_KEY, DOCRAG_BACKEND, and MODEL_PROVIDER.
See 'docrag --help' for available commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("backend") {
				cfg.Backend = opts.backend
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			opts.cfg = cfg

			log := logging.New(cfg.Logging.Level, cfg.Logging.Format)
			ctx := logging.WithLogger(cmd.Context(), log)
			cmd.SetContext(ctx)

			audit.LogCommandStart(ctx, log, cmd.Name(), cfg)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to a YAML or TOML config file (default: ~/.docrag/config.yaml)")
	root.PersistentFlags().StringVar(&opts.backend, "backend", "", "Vector store backend: local, weaviate, qdrant (overrides config)")
	root.PersistentFlags().BoolVar(&opts.strict, "strict", false, "Exit non-zero when a load or query failure is caught")

	root.AddCommand(
		NewRunCmd(opts),
		NewIngestCmd(opts),
		NewAskCmd(opts),
		NewSearchCmd(opts),
		NewServeCmd(opts),
		NewVersionCmd(),
	)

	return root
}

// guarded converts a caught failure into an error under --strict.
func (o *rootOptions) guarded(err error) error {
	if err == nil || !o.strict {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrGuardedFailure, err)
}
