// Package pipeline implements the ingest-then-query workflow.
// A run loads one document, splits it into chunks, embeds and stores the
// chunks, answers a question against the store, writes the answer back, and
// verifies the write with a similarity search. Progress is printed to an
// output writer as human-readable lines; diagnostics go to the context logger.
//
// Two failure boundaries are guarded: a load failure ends the run early and a
// failure while answering or storing the answer is reported without undoing
// ingestion. Everything else is returned to the caller.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/54b3r/docrag/internal/feedback"
	"github.com/54b3r/docrag/internal/logging"
	"github.com/54b3r/docrag/internal/rag"
)

// DefaultPreviewRunes is the length of the document preview printed after
// loading.
const DefaultPreviewRunes = 500

// DefaultBatchSize is the number of chunks embedded and upserted together.
const DefaultBatchSize = 100

// Loader turns a file into records.
type Loader interface {
	Load(ctx context.Context, path string) ([]rag.Record, error)
}

// Splitter turns records into chunks.
type Splitter interface {
	Split(records []rag.Record) []rag.Chunk
}

// Answerer answers a question.
type Answerer interface {
	Answer(ctx context.Context, question string) (rag.Answer, error)
	Mode() string
}

// FeedbackWriter stores an answer and verifies it.
type FeedbackWriter interface {
	Write(ctx context.Context, ans rag.Answer) (feedback.Result, error)
}

// Config holds the dependencies of a Pipeline.
type Config struct {
	Loader   Loader
	Splitter Splitter

	// Embedder may be nil when Store vectorizes server-side.
	Embedder rag.Embedder
	Store    rag.VectorStore

	// Answerer is required by Run and Ask only.
	Answerer Answerer

	// Feedback is optional. When nil the answer is not written back.
	Feedback FeedbackWriter

	// BatchSize is the number of chunks per embedding request and upsert.
	// Defaults to DefaultBatchSize if zero.
	BatchSize int

	// PreviewRunes is the preview length. Defaults to DefaultPreviewRunes if
	// zero; negative disables the preview.
	PreviewRunes int

	// Out receives progress lines. Defaults to io.Discard.
	Out io.Writer

	// Metrics defaults to metrics registered on a private registry.
	Metrics *Metrics
}

// IngestReport summarises one ingestion.
type IngestReport struct {
	Path    string
	Records int
	Chunks  int
	Stored  int
}

// Report summarises one run. LoadErr and QueryErr hold the errors caught at
// the guarded boundaries.
type Report struct {
	Ingest   IngestReport
	Answer   rag.Answer
	Feedback *feedback.Result
	LoadErr  error
	QueryErr error
}

// Failed reports whether a guarded boundary caught an error.
func (r *Report) Failed() bool {
	return r.LoadErr != nil || r.QueryErr != nil
}

// Pipeline orchestrates the load → split → embed → upsert → answer → feedback
// flow. It is safe for concurrent use when its dependencies are.
type Pipeline struct {
	cfg     Config
	metrics *Metrics
	ready   atomic.Bool
}

// New constructs a Pipeline from the provided dependencies.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Loader == nil {
		return nil, fmt.Errorf("pipeline: loader must not be nil")
	}
	if cfg.Splitter == nil {
		return nil, fmt.Errorf("pipeline: splitter must not be nil")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("pipeline: store must not be nil")
	}
	if cfg.Embedder == nil && rag.NeedsEmbeddings(cfg.Store) {
		return nil, fmt.Errorf("pipeline: store %s needs an embedder", cfg.Store.Name())
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.PreviewRunes == 0 {
		cfg.PreviewRunes = DefaultPreviewRunes
	}
	if cfg.Out == nil {
		cfg.Out = io.Discard
	}
	m := cfg.Metrics
	if m == nil {
		m = NewMetrics(prometheus.NewRegistry())
	}
	return &Pipeline{cfg: cfg, metrics: m}, nil
}

// Backend returns the name of the underlying store.
func (p *Pipeline) Backend() string { return p.cfg.Store.Name() }

// Ingest loads path and stores its chunks. Every error is returned; the load
// error wraps the loader's sentinel.
func (p *Pipeline) Ingest(ctx context.Context, path string) (IngestReport, error) {
	ctx = logging.With(ctx, slog.String("path", path))
	records, err := p.load(ctx, path)
	if err != nil {
		return IngestReport{Path: path}, err
	}
	return p.index(ctx, path, records)
}

// Run ingests path and answers question against the store.
// A load failure is reported in Report.LoadErr and nothing downstream runs.
// An answer or feedback failure is reported in Report.QueryErr.
// Schema, embedding, and upsert failures are returned as errors.
func (p *Pipeline) Run(ctx context.Context, path, question string) (*Report, error) {
	ctx = logging.With(ctx, slog.String("path", path))
	log := logging.FromContext(ctx)
	report := &Report{Ingest: IngestReport{Path: path}}

	records, err := p.load(ctx, path)
	if err != nil {
		report.LoadErr = err
		fmt.Fprintf(p.cfg.Out, "Error loading document: %v\n", err)
		log.Error("pipeline: load failed", slog.String("error", err.Error()))
		return report, nil
	}

	ing, err := p.index(ctx, path, records)
	report.Ingest = ing
	if err != nil {
		return report, err
	}

	p.query(ctx, question, report)
	return report, nil
}

// Ask answers question against whatever the store already holds, with the
// same query boundary as Run.
func (p *Pipeline) Ask(ctx context.Context, question string) (*Report, error) {
	if err := p.ensureSchema(ctx); err != nil {
		return nil, err
	}
	report := &Report{}
	p.query(ctx, question, report)
	return report, nil
}

// Search returns up to k items similar to query. k <= 0 means
// rag.DefaultTopK.
func (p *Pipeline) Search(ctx context.Context, query string, k int) ([]rag.StoredItem, error) {
	if err := p.ensureSchema(ctx); err != nil {
		return nil, err
	}
	items, err := p.cfg.Store.SimilaritySearch(ctx, query, k)
	if err != nil {
		return nil, fmt.Errorf("pipeline: search: %w", err)
	}
	return items, nil
}

func (p *Pipeline) load(ctx context.Context, path string) ([]rag.Record, error) {
	start := time.Now()
	records, err := p.cfg.Loader.Load(ctx, path)
	p.metrics.observe(stageLoad, start)
	if err != nil {
		return nil, err
	}
	p.metrics.recordsLoadedTotal.Add(float64(len(records)))

	fmt.Fprintf(p.cfg.Out, "Loaded %d document(s) from %s.\n", len(records), path)
	if p.cfg.PreviewRunes > 0 && len(records) > 0 {
		fmt.Fprintf(p.cfg.Out, "Document preview: %s\n", preview(records[0].Content, p.cfg.PreviewRunes))
	}
	return records, nil
}

// index splits, embeds, and upserts records.
func (p *Pipeline) index(ctx context.Context, path string, records []rag.Record) (IngestReport, error) {
	log := logging.FromContext(ctx)
	report := IngestReport{Path: path, Records: len(records)}

	start := time.Now()
	chunks := p.cfg.Splitter.Split(records)
	p.metrics.observe(stageSplit, start)
	report.Chunks = len(chunks)
	fmt.Fprintf(p.cfg.Out, "Split documents into %d chunks.\n", len(chunks))

	if err := p.ensureSchema(ctx); err != nil {
		return report, err
	}

	for lo := 0; lo < len(chunks); lo += p.cfg.BatchSize {
		hi := min(lo+p.cfg.BatchSize, len(chunks))
		items, err := p.embed(ctx, chunks[lo:hi])
		if err != nil {
			return report, err
		}

		start := time.Now()
		if err := p.cfg.Store.Upsert(ctx, items); err != nil {
			return report, fmt.Errorf("pipeline: upsert into %s: %w", p.Backend(), err)
		}
		p.metrics.observe(stageUpsert, start)
		p.metrics.chunksStoredTotal.WithLabelValues(p.Backend()).Add(float64(len(items)))
		report.Stored += len(items)
	}

	fmt.Fprintf(p.cfg.Out, "Added %d chunks to %s.\n", report.Stored, p.Backend())
	log.Info("pipeline: ingested",
		slog.Int("records", report.Records),
		slog.Int("chunks", report.Chunks),
		slog.String("backend", p.Backend()),
	)
	return report, nil
}

// embed converts a batch of chunks into stored items, computing vectors only
// when the store needs them.
func (p *Pipeline) embed(ctx context.Context, chunks []rag.Chunk) ([]rag.StoredItem, error) {
	var vecs [][]float32
	if rag.NeedsEmbeddings(p.cfg.Store) {
		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Content
		}

		start := time.Now()
		var err error
		vecs, err = p.cfg.Embedder.Embed(ctx, texts)
		p.metrics.observe(stageEmbed, start)
		if err != nil {
			return nil, fmt.Errorf("pipeline: embed: %w", err)
		}
		if len(vecs) != len(chunks) {
			return nil, fmt.Errorf("pipeline: embed: got %d vectors for %d chunks", len(vecs), len(chunks))
		}
	}

	items := make([]rag.StoredItem, len(chunks))
	for i, c := range chunks {
		var vec []float32
		if vecs != nil {
			vec = vecs[i]
		}
		items[i] = rag.NewItem(c.Content, c.Metadata, vec)
	}
	return items, nil
}

// query answers question and writes the answer back. Errors are recorded on
// report rather than returned.
func (p *Pipeline) query(ctx context.Context, question string, report *Report) {
	log := logging.FromContext(ctx)

	fail := func(err error) {
		report.QueryErr = err
		fmt.Fprintf(p.cfg.Out, "Error during chat: %v\n", err)
		log.Error("pipeline: query failed", slog.String("error", err.Error()))
	}

	if p.cfg.Answerer == nil {
		fail(fmt.Errorf("pipeline: no answerer configured"))
		return
	}

	start := time.Now()
	ans, err := p.cfg.Answerer.Answer(ctx, question)
	p.metrics.observe(stageAnswer, start)
	if err != nil {
		p.metrics.answersTotal.WithLabelValues(p.cfg.Answerer.Mode(), "error").Inc()
		fail(err)
		return
	}
	p.metrics.answersTotal.WithLabelValues(ans.Mode, "ok").Inc()
	report.Answer = ans
	fmt.Fprintf(p.cfg.Out, "Question: %s\nAnswer: %s\n", ans.Question, ans.Text)

	if p.cfg.Feedback == nil {
		return
	}

	start = time.Now()
	res, err := p.cfg.Feedback.Write(ctx, ans)
	p.metrics.observe(stageFeedback, start)
	if err != nil {
		fail(err)
		return
	}
	report.Feedback = &res
	fmt.Fprintf(p.cfg.Out, "Stored LLM response in %s.\n", p.Backend())
	fmt.Fprintln(p.cfg.Out, "Retrieved documents:")
	WriteItems(p.cfg.Out, res.Retrieved)
	if !res.Verified {
		log.Warn("pipeline: stored answer not found by verification search", slog.Int("retrieved", len(res.Retrieved)))
	}
}

func (p *Pipeline) ensureSchema(ctx context.Context) error {
	if p.ready.Load() {
		return nil
	}
	if err := p.cfg.Store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("pipeline: ensure schema on %s: %w", p.Backend(), err)
	}
	p.ready.Store(true)
	return nil
}
