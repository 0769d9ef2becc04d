package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewAskCmd constructs the `docrag ask` command, which answers a question
// against documents already in the vector store.
func NewAskCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer a question from the documents already in the store",
		Long: `Answer a question using the documents previously ingested into the
configured vector store. The answer is written back into the store unless
feedback.disabled is set.

Examples:
  docrag ask "What does Acme sell?"
  docrag ask --backend qdrant "Summarise the Q3 numbers"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			c, err := build(ctx, opts.cfg, buildOptions{answer: true, out: cmd.OutOrStdout()})
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			defer c.Close()

			report, err := c.pipeline.Ask(ctx, strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			return opts.guarded(report.QueryErr)
		},
	}
}
