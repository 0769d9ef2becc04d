package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRunCmd constructs the `docrag run` command, which ingests one document
// and answers one question about it.
func NewRunCmd(opts *rootOptions) *cobra.Command {
	var file, question string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Ingest a document and answer a question about it",
		Long: `Load a document, split it into chunks, store them in the vector store,
answer a question, write the answer back into the store, and print what a
similarity search for the stored answer returns.

A document that cannot be loaded, or a question that cannot be answered, is
reported and the command still exits 0 unless --strict is set.

Examples:
  docrag run --file report.pdf --question "What are the key findings?"
  docrag run --file doc.json --backend weaviate
  OPENAI_API_KEY=sk-... docrag run --file sales.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := opts.cfg
			if question == "" {
				question = cfg.Answer.Question
			}

			c, err := build(ctx, cfg, buildOptions{answer: true, out: cmd.OutOrStdout()})
			if err != nil {
				return fmt.Errorf("run: %w", err)
			}
			defer c.Close()

			report, err := c.pipeline.Run(ctx, file, question)
			if err != nil {
				return fmt.Errorf("run: %w", err)
			}
			if report.LoadErr != nil {
				return opts.guarded(report.LoadErr)
			}
			return opts.guarded(report.QueryErr)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Document to ingest (.pdf, .csv, .json, .xlsx)")
	cmd.Flags().StringVarP(&question, "question", "q", "", "Question to ask (default: answer.question from config)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
