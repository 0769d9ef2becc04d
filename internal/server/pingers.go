package server

import (
	"context"
	"fmt"

	"github.com/54b3r/docrag/internal/provider"
	"github.com/54b3r/docrag/internal/rag"
)

// StorePinger checks the vector store backend. It satisfies the Pinger
// interface and is used by GET /api/ready.
type StorePinger struct {
	store rag.VectorStore
}

// NewStorePinger constructs a StorePinger for store.
func NewStorePinger(store rag.VectorStore) *StorePinger {
	return &StorePinger{store: store}
}

// Name returns the backend label (e.g. "local", "weaviate").
func (p *StorePinger) Name() string { return p.store.Name() }

// Ping calls the store's own reachability check.
func (p *StorePinger) Ping(ctx context.Context) error {
	if err := p.store.Ping(ctx); err != nil {
		return fmt.Errorf("store ping failed: %w", err)
	}
	return nil
}

// ModelPinger checks a chat model backend through a zero-cost health check
// (model listing or heartbeat) rather than a generate call.
type ModelPinger struct {
	check provider.HealthChecker
	name  string
}

// NewModelPinger constructs a ModelPinger. It returns nil when check is nil,
// which happens for backends without a cheap health endpoint.
func NewModelPinger(check provider.HealthChecker, name string) *ModelPinger {
	if check == nil {
		return nil
	}
	return &ModelPinger{check: check, name: name}
}

// Name returns the backend label used in readiness responses.
func (p *ModelPinger) Name() string { return p.name }

// Ping runs the health check.
func (p *ModelPinger) Ping(ctx context.Context) error {
	if err := p.check.Ping(ctx); err != nil {
		return fmt.Errorf("%s health check failed: %w", p.name, err)
	}
	return nil
}
