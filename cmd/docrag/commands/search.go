package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/54b3r/docrag/internal/pipeline"
	"github.com/54b3r/docrag/internal/rag"
)

// NewSearchCmd constructs the `docrag search` command, which prints the
// stored items most similar to a query without calling the chat model.
func NewSearchCmd(opts *rootOptions) *cobra.Command {
	var k int

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Print the stored chunks most similar to a query",
		Long: `Run a similarity search against the configured vector store and print
each result's metadata and content.

Examples:
  docrag search "widgets"
  docrag search -k 10 "llm_response"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			c, err := build(ctx, opts.cfg, buildOptions{out: cmd.OutOrStdout()})
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}
			defer c.Close()

			items, err := c.pipeline.Search(ctx, strings.Join(args, " "), k)
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No documents found.")
				return nil
			}
			pipeline.WriteItems(cmd.OutOrStdout(), items)
			return nil
		},
	}

	cmd.Flags().IntVarP(&k, "top-k", "k", rag.DefaultTopK, "Number of results")

	return cmd
}
