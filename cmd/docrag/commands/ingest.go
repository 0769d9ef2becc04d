package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/54b3r/docrag/internal/loader"
	"github.com/54b3r/docrag/internal/logging"
	"github.com/54b3r/docrag/internal/pipeline"
	"github.com/54b3r/docrag/internal/watch"
)

// NewIngestCmd constructs the `docrag ingest` command.
func NewIngestCmd(opts *rootOptions) *cobra.Command {
	var (
		file      string
		dir       string
		match     string
		watchFlag bool
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load documents into the vector store without asking a question",
		Long: `Load one document, or every supported document under a directory, split
it into chunks, embed the chunks, and store them in the configured vector
store.

With --watch the command keeps running and re-ingests files as they are
written.

Examples:
  docrag ingest --file report.pdf
  docrag ingest --dir ./docs --match "**.json"
  docrag ingest --dir ./docs --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			log := logging.FromContext(ctx)
			if (file == "") == (dir == "") {
				return errors.New("ingest: exactly one of --file or --dir is required")
			}
			if match == "" {
				match = opts.cfg.Loader.Match
			}

			c, err := build(ctx, opts.cfg, buildOptions{out: cmd.OutOrStdout()})
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			defer c.Close()

			root := file
			if file != "" {
				if _, err := c.pipeline.Ingest(ctx, file); err != nil {
					if loaderErr(err) == nil {
						return fmt.Errorf("ingest: %w", err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Error loading document: %v\n", err)
					if err := opts.guarded(err); err != nil || !watchFlag {
						return err
					}
				}
			} else {
				root = dir
				if err := ingestDir(ctx, c.pipeline, dir, match); err != nil {
					return fmt.Errorf("ingest: %w", err)
				}
			}

			if !watchFlag {
				return nil
			}
			w, err := watch.New(root, watch.Options{Match: match}, func(ctx context.Context, paths []string) {
				for _, p := range paths {
					if _, err := c.pipeline.Ingest(ctx, p); err != nil {
						log.Error("re-ingest failed", slog.String("path", p), slog.String("error", err.Error()))
					}
				}
			})
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			log.Info("watching for changes", slog.String("path", root))
			return w.Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Single document to ingest")
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Directory to ingest recursively")
	cmd.Flags().StringVar(&match, "match", "", `Glob filter relative to --dir, e.g. "**.pdf" (default: loader.match from config)`)
	cmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Keep running and re-ingest files as they change")

	return cmd
}

// ingestDir ingests every supported file under dir. Files the loader
// rejects are logged and skipped; any other error stops the walk.
func ingestDir(ctx context.Context, p *pipeline.Pipeline, dir, match string) error {
	log := logging.FromContext(ctx)
	files, err := loader.Walk(ctx, dir, match)
	if err != nil {
		return err
	}
	log.Info("ingesting directory", slog.String("dir", dir), slog.Int("files", len(files)))

	var stored int
	for _, f := range files {
		rep, err := p.Ingest(ctx, f)
		if err != nil {
			if loaderErr(err) != nil {
				log.Warn("skipping document", slog.String("path", f), slog.String("error", err.Error()))
				continue
			}
			return err
		}
		stored += rep.Stored
	}
	log.Info("directory ingested", slog.String("dir", dir), slog.Int("chunks", stored))
	return nil
}

// loaderErr returns err when it came from the loader, nil otherwise.
func loaderErr(err error) error {
	if errors.Is(err, loader.ErrUnsupportedFormat) || errors.Is(err, loader.ErrIO) || errors.Is(err, loader.ErrParse) {
		return err
	}
	return nil
}
