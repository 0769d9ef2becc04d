package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/cloudwego/eino/callbacks"

	"github.com/54b3r/docrag/internal/answer"
	"github.com/54b3r/docrag/internal/config"
	"github.com/54b3r/docrag/internal/embedder"
	"github.com/54b3r/docrag/internal/feedback"
	"github.com/54b3r/docrag/internal/loader"
	"github.com/54b3r/docrag/internal/logging"
	"github.com/54b3r/docrag/internal/pipeline"
	"github.com/54b3r/docrag/internal/provider"
	"github.com/54b3r/docrag/internal/rag"
	"github.com/54b3r/docrag/internal/splitter"
	"github.com/54b3r/docrag/internal/tracing"
	"github.com/54b3r/docrag/internal/vectorstore"
)

// buildOptions selects which parts of the pipeline a command needs.
type buildOptions struct {
	// answer builds the chat model, answerer, and feedback writer.
	answer bool
	// out receives progress lines.
	out io.Writer
	// metrics is optional; the pipeline uses a private registry when nil.
	metrics *pipeline.Metrics
}

// components holds everything a command built, so it can be closed and
// pinged after use.
type components struct {
	store    rag.VectorStore
	provider *provider.Config
	pipeline *pipeline.Pipeline
	flush    func()
}

// Close flushes traces and releases the store.
func (c *components) Close() {
	if c.flush != nil {
		c.flush()
	}
	if c.store != nil {
		_ = c.store.Close()
	}
}

// build wires the pipeline from cfg.
func build(ctx context.Context, cfg *config.Config, opts buildOptions) (*components, error) {
	log := logging.FromContext(ctx)
	c := &components{}

	var emb rag.Embedder
	if vectorstore.NeedsEmbedder(cfg) {
		if err := embedder.Validate(log, cfg.Embedding); err != nil {
			return nil, err
		}
		var err error
		emb, err = embedder.New(ctx, cfg.Embedding)
		if err != nil {
			return nil, err
		}
		log.Info("embedder initialised",
			slog.String("provider", cfg.Embedding.Provider),
			slog.String("model", cfg.Embedding.Model),
		)
	}

	store, err := vectorstore.New(cfg, emb)
	if err != nil {
		return nil, err
	}
	c.store = store
	log.Info("vector store selected", slog.String("backend", store.Name()))

	sp, err := splitter.New(cfg.Chunking.Size, cfg.Chunking.Overlap)
	if err != nil {
		c.Close()
		return nil, err
	}

	pcfg := pipeline.Config{
		Loader:    loader.New(loader.Options{JSONPath: cfg.Loader.JSONPath}),
		Splitter:  sp,
		Embedder:  emb,
		Store:     store,
		BatchSize: cfg.Embedding.BatchSize,
		Out:       opts.out,
		Metrics:   opts.metrics,
	}

	if opts.answer {
		c.flush = setupTracing(log, cfg.Tracing)

		ans, provCfg, err := buildAnswerer(ctx, cfg, store)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.provider = provCfg
		pcfg.Answerer = ans

		if !cfg.Feedback.Disabled {
			fb, err := feedback.New(store, emb, cfg.Feedback.TopK)
			if err != nil {
				c.Close()
				return nil, err
			}
			pcfg.Feedback = fb
		}
	}

	p, err := pipeline.New(pcfg)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.pipeline = p
	return c, nil
}

// buildAnswerer builds the chat model and the answerer for the configured
// or backend-default mode.
func buildAnswerer(ctx context.Context, cfg *config.Config, store rag.VectorStore) (*answer.Answerer, *provider.Config, error) {
	log := logging.FromContext(ctx)

	provCfg := provider.FromConfig(cfg.Model)
	chatModel, err := provider.New(ctx, provCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialise model provider: %w", err)
	}
	log.Info("provider initialised", slog.String("provider", string(provCfg.Backend)))

	mode, implicit := answer.ResolveMode(cfg.Answer.Mode, cfg.Backend)
	if implicit && mode == answer.ModeDirect {
		log.Warn("answering without retrieved context; set answer.mode=retrieval to ground answers in the store",
			slog.String("backend", cfg.Backend),
		)
	}

	acfg := answer.Config{
		Model:            chatModel,
		Mode:             mode,
		TopK:             cfg.Answer.TopK,
		MaxContextTokens: cfg.Answer.MaxContextTokens,
	}
	if mode == answer.ModeRetrieval {
		r, err := rag.NewRetriever(store, cfg.Answer.TopK)
		if err != nil {
			return nil, nil, err
		}
		acfg.Retriever = r
	}

	ans, err := answer.New(ctx, acfg)
	if err != nil {
		return nil, nil, err
	}
	return ans, provCfg, nil
}

// setupTracing registers the Langfuse handler globally when configured and
// returns its flush function.
func setupTracing(log *slog.Logger, cfg config.TracingConfig) func() {
	handler, flush, ok := tracing.Setup(cfg)
	if !ok {
		log.Debug("langfuse tracing disabled", slog.String("reason", "langfuse keys not set"))
		return nil
	}
	callbacks.AppendGlobalHandlers(handler)
	log.Info("langfuse tracing enabled")
	return flush
}
