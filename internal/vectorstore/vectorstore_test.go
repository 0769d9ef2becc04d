package vectorstore

import (
	"testing"

	"github.com/54b3r/docrag/internal/config"
)

func TestNeedsEmbedder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		backend string
		search  string
		want    bool
	}{
		{config.BackendLocal, "", true},
		{config.BackendQdrant, "", true},
		{config.BackendWeaviate, SearchNearText, false},
		{config.BackendWeaviate, SearchNearVector, true},
	}
	for _, tc := range tests {
		cfg := config.Default()
		cfg.Backend = tc.backend
		cfg.Weaviate.Search = tc.search
		if got := NeedsEmbedder(cfg); got != tc.want {
			t.Errorf("NeedsEmbedder(%s/%s) = %v, want %v", tc.backend, tc.search, got, tc.want)
		}
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("local", func(t *testing.T) {
		t.Parallel()
		cfg := config.Default()
		cfg.Local.Dir = t.TempDir()
		s, err := New(cfg, &letterEmbedder{})
		if err != nil {
			t.Fatalf("New() error: %v", err)
		}
		defer s.Close()
		if s.Name() != "local" {
			t.Errorf("Name() = %q", s.Name())
		}
	})

	t.Run("weaviate", func(t *testing.T) {
		t.Parallel()
		cfg := config.Default()
		cfg.Backend = config.BackendWeaviate
		s, err := New(cfg, nil)
		if err != nil {
			t.Fatalf("New() error: %v", err)
		}
		if s.Name() != "weaviate" {
			t.Errorf("Name() = %q", s.Name())
		}
	})

	t.Run("local without embedder", func(t *testing.T) {
		t.Parallel()
		cfg := config.Default()
		cfg.Local.Dir = t.TempDir()
		if _, err := New(cfg, nil); err == nil {
			t.Error("expected error without embedder")
		}
	})

	t.Run("unknown", func(t *testing.T) {
		t.Parallel()
		cfg := config.Default()
		cfg.Backend = "chroma"
		if _, err := New(cfg, nil); err == nil {
			t.Error("expected error for unknown backend")
		}
	})
}
