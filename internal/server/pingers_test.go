package server

import (
	"context"
	"errors"
	"testing"

	"github.com/54b3r/docrag/internal/rag"
)

// pingStore is a minimal rag.VectorStore whose Ping result is configurable.
type pingStore struct {
	rag.VectorStore
	err error
}

func (p *pingStore) Name() string                 { return "local" }
func (p *pingStore) Ping(_ context.Context) error { return p.err }

type fakeHealth struct{ err error }

func (f *fakeHealth) Ping(context.Context) error { return f.err }

func TestStorePinger(t *testing.T) {
	t.Parallel()

	ok := NewStorePinger(&pingStore{})
	if ok.Name() != "local" || ok.Ping(context.Background()) != nil {
		t.Error("healthy store should ping cleanly")
	}
	down := NewStorePinger(&pingStore{err: errors.New("locked")})
	if err := down.Ping(context.Background()); err == nil {
		t.Error("expected store ping error")
	}
}

func TestModelPinger(t *testing.T) {
	t.Parallel()

	if p := NewModelPinger(nil, "azure"); p != nil {
		t.Error("nil health check should yield no pinger")
	}
	p := NewModelPinger(&fakeHealth{err: errors.New("401")}, "openai")
	if p.Name() != "openai" {
		t.Errorf("Name() = %q", p.Name())
	}
	if err := p.Ping(context.Background()); err == nil {
		t.Error("expected health check error")
	}
}
