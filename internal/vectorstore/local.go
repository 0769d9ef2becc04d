package vectorstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite" // register "sqlite" driver

	"github.com/54b3r/docrag/internal/rag"
)

// LocalDBName is the database file created inside the persistence directory.
const LocalDBName = "docrag.db"

// ErrMissingEmbedding is returned by LocalStore.Upsert for items without a vector.
var ErrMissingEmbedding = errors.New("vectorstore: item has no embedding")

// LocalStore is a rag.VectorStore backed by a SQLite database in a local
// directory. Similarity is brute-force cosine over every stored vector, which
// is adequate for the document counts a single-file pipeline produces.
type LocalStore struct {
	// db is the underlying database connection pool.
	db *sql.DB
	// embedder embeds search queries.
	embedder rag.Embedder
	// ready is set once EnsureSchema has succeeded.
	ready atomic.Bool
}

// NewLocalStore opens (or creates) the store under dir. Use ":memory:" for an
// in-memory database in tests. The schema is not created until EnsureSchema.
func NewLocalStore(dir string, embedder rag.Embedder) (*LocalStore, error) {
	if embedder == nil {
		return nil, fmt.Errorf("vectorstore: local store requires an embedder")
	}

	path := dir
	if dir != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("vectorstore: create %s: %w", dir, err)
		}
		path = filepath.Join(dir, LocalDBName)
	}

	// WAL mode improves concurrent read performance and is safe for single-host use.
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: open %s: %w", path, err)
	}
	// Limit to a single writer connection to avoid SQLITE_BUSY under concurrent writes.
	db.SetMaxOpenConns(1)

	return &LocalStore{db: db, embedder: embedder}, nil
}

// Name returns "local".
func (s *LocalStore) Name() string { return "local" }

// EnsureSchema creates the items table if it does not already exist.
func (s *LocalStore) EnsureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS items (
    seq          INTEGER PRIMARY KEY AUTOINCREMENT,
    id           TEXT    NOT NULL UNIQUE,
    content      TEXT    NOT NULL,
    metadata     TEXT    NOT NULL,  -- JSON object of string values
    embedding    BLOB    NOT NULL,  -- little-endian float32
    created_at   INTEGER NOT NULL   -- Unix timestamp (seconds)
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("vectorstore: local: ensure schema: %w", err)
	}
	s.ready.Store(true)
	return nil
}

// Upsert appends items in a single transaction. Every item must carry an
// embedding.
func (s *LocalStore) Upsert(ctx context.Context, items []rag.StoredItem) error {
	if !s.ready.Load() {
		return rag.ErrStoreNotReady
	}
	if len(items) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("vectorstore: local: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const q = `INSERT INTO items (id, content, metadata, embedding, created_at) VALUES (?, ?, ?, ?, ?)`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		return fmt.Errorf("vectorstore: local: prepare: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, it := range items {
		if len(it.Embedding) == 0 {
			return fmt.Errorf("%w: %s", ErrMissingEmbedding, it.ID)
		}
		meta := it.Metadata
		if meta == nil {
			meta = map[string]string{}
		}
		metaJSON, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("vectorstore: local: marshal metadata: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, it.ID, it.Content, string(metaJSON), encodeVector(it.Embedding), now); err != nil {
			return fmt.Errorf("vectorstore: local: insert %s: %w", it.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("vectorstore: local: commit: %w", err)
	}
	return nil
}

// SimilaritySearch embeds query and returns the k stored items with the
// highest cosine similarity. Ties keep insertion order.
func (s *LocalStore) SimilaritySearch(ctx context.Context, query string, k int) ([]rag.StoredItem, error) {
	if !s.ready.Load() {
		return nil, rag.ErrStoreNotReady
	}
	if k <= 0 {
		k = rag.DefaultTopK
	}

	qvec, err := rag.EmbedText(ctx, s.embedder, query)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: local: embed query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, content, metadata, embedding FROM items ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: local: search: %w", err)
	}
	defer rows.Close()

	var items []rag.StoredItem
	for rows.Next() {
		var (
			it       rag.StoredItem
			metaJSON string
			blob     []byte
		)
		if err := rows.Scan(&it.ID, &it.Content, &metaJSON, &blob); err != nil {
			return nil, fmt.Errorf("vectorstore: local: search scan: %w", err)
		}
		if err := json.Unmarshal([]byte(metaJSON), &it.Metadata); err != nil {
			return nil, fmt.Errorf("vectorstore: local: decode metadata of %s: %w", it.ID, err)
		}
		it.Embedding = decodeVector(blob)
		it.Score = cosine(qvec, it.Embedding)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("vectorstore: local: search rows: %w", err)
	}

	// Stable sort keeps insertion order among equal scores.
	slices.SortStableFunc(items, func(a, b rag.StoredItem) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})
	if len(items) > k {
		items = items[:k]
	}
	return items, nil
}

// Count returns the number of stored items.
func (s *LocalStore) Count(ctx context.Context) (int, error) {
	if !s.ready.Load() {
		return 0, rag.ErrStoreNotReady
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&n); err != nil {
		return 0, fmt.Errorf("vectorstore: local: count: %w", err)
	}
	return n, nil
}

// Ping verifies the database is reachable.
func (s *LocalStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("vectorstore: local: ping: %w", err)
	}
	return nil
}

// Close releases the database connection pool.
func (s *LocalStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("vectorstore: local: close: %w", err)
	}
	return nil
}
