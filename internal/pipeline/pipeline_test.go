package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/54b3r/docrag/internal/feedback"
	"github.com/54b3r/docrag/internal/loader"
	"github.com/54b3r/docrag/internal/rag"
	"github.com/54b3r/docrag/internal/splitter"
	"github.com/54b3r/docrag/internal/vectorstore"
)

// countingEmbedder returns a fixed vector per text and records batch sizes.
type countingEmbedder struct {
	batches []int
	err     error
}

func (e *countingEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.batches = append(e.batches, len(texts))
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1, float32(len(texts[i]))}
	}
	return out, nil
}

// fakeAnswerer returns a canned answer.
type fakeAnswerer struct {
	text string
	err  error
}

func (f *fakeAnswerer) Mode() string { return "retrieval" }

func (f *fakeAnswerer) Answer(_ context.Context, q string) (rag.Answer, error) {
	if f.err != nil {
		return rag.Answer{}, f.err
	}
	return rag.Answer{Question: q, Text: f.text, Mode: "retrieval"}, nil
}

// serverSideStore records upserts and vectorizes server-side.
type serverSideStore struct {
	upserts [][]rag.StoredItem
}

func (s *serverSideStore) Name() string                       { return "remote" }
func (s *serverSideStore) EnsureSchema(context.Context) error { return nil }
func (s *serverSideStore) Ping(context.Context) error         { return nil }
func (s *serverSideStore) Close() error                       { return nil }
func (s *serverSideStore) VectorizesServerSide() bool         { return true }
func (s *serverSideStore) Upsert(_ context.Context, items []rag.StoredItem) error {
	s.upserts = append(s.upserts, items)
	return nil
}
func (s *serverSideStore) SimilaritySearch(context.Context, string, int) ([]rag.StoredItem, error) {
	return nil, nil
}

type fixture struct {
	p     *Pipeline
	store *vectorstore.LocalStore
	emb   *countingEmbedder
	out   *bytes.Buffer
	reg   *prometheus.Registry
	m     *Metrics
}

// newFixture wires a pipeline over an in-memory local store.
func newFixture(t *testing.T, ans Answerer, chunkSize, overlap, batch int) *fixture {
	t.Helper()
	emb := &countingEmbedder{}
	store, err := vectorstore.NewLocalStore(":memory:", emb)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })

	sp, err := splitter.New(chunkSize, overlap)
	if err != nil {
		t.Fatal(err)
	}
	fb, err := feedback.New(store, emb, 4)
	if err != nil {
		t.Fatal(err)
	}

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	out := &bytes.Buffer{}
	p, err := New(Config{
		Loader:    loader.New(loader.Options{}),
		Splitter:  sp,
		Embedder:  emb,
		Store:     store,
		Answerer:  ans,
		Feedback:  fb,
		BatchSize: batch,
		Out:       out,
		Metrics:   m,
	})
	if err != nil {
		t.Fatal(err)
	}
	return &fixture{p: p, store: store, emb: emb, out: out, reg: reg, m: m}
}

func writeDoc(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun_DocJSONScenario(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &fakeAnswerer{text: "Acme sells widgets."}, 1000, 200, 0)
	path := writeDoc(t, "doc.json", `"Acme sells widgets."`)
	ctx := context.Background()

	report, err := f.p.Run(ctx, path, "What does Acme sell?")
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if report.Failed() {
		t.Fatalf("unexpected guarded failure: load=%v query=%v", report.LoadErr, report.QueryErr)
	}
	if report.Ingest.Records != 1 || report.Ingest.Chunks != 1 || report.Ingest.Stored != 1 {
		t.Errorf("ingest report = %+v", report.Ingest)
	}
	if len(f.emb.batches) == 0 || f.emb.batches[0] != 1 {
		t.Errorf("embed batches = %v", f.emb.batches)
	}
	if report.Answer.Text == "" {
		t.Error("want non-empty answer")
	}
	if report.Feedback == nil || !report.Feedback.Verified {
		t.Fatal("want verified feedback")
	}
	found := false
	for _, it := range report.Feedback.Retrieved {
		if it.Metadata[rag.MetaSource] == rag.SourceLLMResponse {
			found = true
		}
	}
	if !found {
		t.Error("verification search should return the stored answer")
	}

	n, err := f.store.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("want 2 stored items (chunk + answer), got %d", n)
	}

	out := f.out.String()
	for _, want := range []string{
		"Loaded 1 document(s) from " + path + ".",
		"Document preview: Acme sells widgets.",
		"Split documents into 1 chunks.",
		"Added 1 chunks to local.",
		"Question: What does Acme sell?\nAnswer: Acme sells widgets.",
		"Stored LLM response in local.",
		"Retrieved documents:",
		"Metadata: {",
		"source: llm_response",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	if got := testutil.ToFloat64(f.m.recordsLoadedTotal); got != 1 {
		t.Errorf("records_loaded_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(f.m.chunksStoredTotal.WithLabelValues("local")); got != 1 {
		t.Errorf("chunks_stored_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(f.m.answersTotal.WithLabelValues("retrieval", "ok")); got != 1 {
		t.Errorf("answers_total = %v, want 1", got)
	}
}

func TestRun_LoadFailureStopsEarly(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &fakeAnswerer{text: "x"}, 1000, 200, 0)
	path := writeDoc(t, "notes.txt", "plain text")

	report, err := f.p.Run(context.Background(), path, "q")
	if err != nil {
		t.Fatalf("load failure must not be returned, got %v", err)
	}
	if !errors.Is(report.LoadErr, loader.ErrUnsupportedFormat) {
		t.Errorf("LoadErr = %v", report.LoadErr)
	}
	if !report.Failed() {
		t.Error("Failed() should be true")
	}
	if len(f.emb.batches) != 0 {
		t.Error("nothing downstream of the loader should run")
	}
	if !strings.Contains(f.out.String(), "Error loading document: ") {
		t.Errorf("output = %q", f.out.String())
	}
	if strings.Contains(f.out.String(), "Question:") {
		t.Error("question must not be asked after a load failure")
	}
}

func TestRun_QueryFailureKeepsIngestion(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &fakeAnswerer{err: errors.New("model unavailable")}, 1000, 200, 0)
	path := writeDoc(t, "doc.json", `["a", "b"]`)
	ctx := context.Background()

	report, err := f.p.Run(ctx, path, "q")
	if err != nil {
		t.Fatalf("query failure must not be returned, got %v", err)
	}
	if report.QueryErr == nil || report.LoadErr != nil {
		t.Fatalf("report = %+v", report)
	}
	if n, _ := f.store.Count(ctx); n != 2 {
		t.Errorf("ingested chunks should stay, count = %d", n)
	}
	if !strings.Contains(f.out.String(), "Error during chat: model unavailable") {
		t.Errorf("output = %q", f.out.String())
	}
	if got := testutil.ToFloat64(f.m.answersTotal.WithLabelValues("retrieval", "error")); got != 1 {
		t.Errorf("answers_total{outcome=error} = %v, want 1", got)
	}
}

func TestIngest_EmbedErrorIsReturned(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, 1000, 200, 0)
	f.emb.err = errors.New("quota exceeded")
	path := writeDoc(t, "doc.json", `"text"`)

	if _, err := f.p.Ingest(context.Background(), path); err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("want embed error, got %v", err)
	}
}

func TestIngest_Batches(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, 1000, 200, 2)
	path := writeDoc(t, "doc.json", `["a", "b", "c", "d", "e"]`)

	report, err := f.p.Ingest(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if report.Stored != 5 {
		t.Errorf("stored = %d, want 5", report.Stored)
	}
	want := []int{2, 2, 1}
	if len(f.emb.batches) != len(want) {
		t.Fatalf("batches = %v, want %v", f.emb.batches, want)
	}
	for i := range want {
		if f.emb.batches[i] != want[i] {
			t.Errorf("batches = %v, want %v", f.emb.batches, want)
		}
	}
}

func TestIngest_ServerSideVectorizerSkipsEmbedding(t *testing.T) {
	t.Parallel()

	store := &serverSideStore{}
	sp, _ := splitter.New(1000, 200)
	p, err := New(Config{Loader: loader.New(loader.Options{}), Splitter: sp, Store: store})
	if err != nil {
		t.Fatal(err)
	}

	report, err := p.Ingest(context.Background(), writeDoc(t, "doc.json", `"Acme"`))
	if err != nil {
		t.Fatal(err)
	}
	if report.Stored != 1 || len(store.upserts) != 1 {
		t.Fatalf("report = %+v, upserts = %d", report, len(store.upserts))
	}
	if store.upserts[0][0].Embedding != nil {
		t.Error("server-side store should receive no vector")
	}
}

func TestAsk_AgainstExistingStore(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &fakeAnswerer{text: "Widgets."}, 1000, 200, 0)
	report, err := f.p.Ask(context.Background(), "What does Acme sell?")
	if err != nil {
		t.Fatal(err)
	}
	if report.Failed() || report.Feedback == nil || !report.Feedback.Verified {
		t.Errorf("report = %+v", report)
	}
}

func TestSearch(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, 1000, 200, 0)
	ctx := context.Background()
	if _, err := f.p.Ingest(ctx, writeDoc(t, "doc.json", `["one", "two", "three"]`)); err != nil {
		t.Fatal(err)
	}

	items, err := f.p.Search(ctx, "one", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Errorf("want 2 items, got %d", len(items))
	}
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	sp, _ := splitter.New(10, 0)
	ld := loader.New(loader.Options{})
	local, err := vectorstore.NewLocalStore(":memory:", &countingEmbedder{})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = local.Close() })

	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "no loader", cfg: Config{Splitter: sp, Store: local, Embedder: &countingEmbedder{}}},
		{name: "no splitter", cfg: Config{Loader: ld, Store: local, Embedder: &countingEmbedder{}}},
		{name: "no store", cfg: Config{Loader: ld, Splitter: sp}},
		{name: "client-side store without embedder", cfg: Config{Loader: ld, Splitter: sp, Store: local}},
	}
	for _, tc := range tests {
		if _, err := New(tc.cfg); err == nil {
			t.Errorf("%s: want error", tc.name)
		}
	}
}

func TestWriteItems(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	WriteItems(&buf, []rag.StoredItem{{
		Content:  "Acme sells widgets.",
		Metadata: map[string]string{rag.MetaSource: "doc.json", rag.MetaChunkIndex: "0"},
	}})
	want := "Metadata: {chunk_index: 0, source: doc.json}\nContent: Acme sells widgets.\n\n"
	if buf.String() != want {
		t.Errorf("WriteItems() = %q, want %q", buf.String(), want)
	}
}

func TestPreview(t *testing.T) {
	t.Parallel()

	if got := preview("héllo", 2); got != "hé" {
		t.Errorf("preview = %q", got)
	}
	if got := preview("hi", 10); got != "hi" {
		t.Errorf("preview = %q", got)
	}
}
