package repository

import (
	"context"
	"database/sql"
	"encoding/binary"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/kioku-ai/kioku/pkg/model"
	"github.com/kioku-ai/kioku/pkg/utils/logging"
)

const schema = `
CREATE TABLE IF NOT EXISTS memories (
	id         TEXT PRIMARY KEY,
	content    TEXT NOT NULL,
	embedding  BLOB NOT NULL,
	space      TEXT NOT NULL,
	modality   TEXT NOT NULL,
	source     TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_memories_space ON memories(space);
`

// SQLite implements Repository on a single durable database file.
//
// Similarity search loads candidate rows and computes cosine similarity in
// Go rather than in SQL, because modernc.org/sqlite cannot register custom
// C functions. At the expected scale (a personal vault, thousands of
// records) a brute-force scan is fast enough.
//
// Search and Insert may run concurrently; Delete and Clear take the write
// lock so a reader never observes a partially removed state.
type SQLite struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLite opens or creates the database at path. A damaged on-disk
// structure fails here with model.ErrStoreCorruption instead of silently
// presenting an empty store.
func NewSQLite(path string) (*SQLite, error) {
	if path == "" {
		return nil, goerr.Wrap(model.ErrConfiguration, "store path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open database", goerr.V("path", path))
	}

	// SQLite is single-writer. One shared connection serializes writers
	// through database/sql instead of tripping over file locks.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, goerr.Wrap(model.ErrStoreCorruption, "failed to set pragma",
				goerr.V("pragma", pragma), goerr.V("cause", err.Error()))
		}
	}

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil || result != "ok" {
		db.Close()
		return nil, goerr.Wrap(model.ErrStoreCorruption, "integrity check failed",
			goerr.V("path", path), goerr.V("result", result))
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, goerr.Wrap(model.ErrStoreCorruption, "failed to prepare schema",
			goerr.V("cause", err.Error()))
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Insert(ctx context.Context, records []*model.MemoryRecord) ([]model.MemoryID, []InsertFailure, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		ids    []model.MemoryID
		failed []InsertFailure
	)

	for i, rec := range records {
		if err := s.insertOne(ctx, rec); err != nil {
			failed = append(failed, InsertFailure{Index: i, Err: err})
			continue
		}
		ids = append(ids, rec.ID)
	}

	return ids, failed, nil
}

func (s *SQLite) insertOne(ctx context.Context, rec *model.MemoryRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	rec.ID = model.NewMemoryID()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO memories (id, content, embedding, space, modality, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(rec.ID),
		rec.Content,
		encodeEmbedding(rec.Embedding.Values),
		string(rec.Embedding.Space),
		string(rec.Modality),
		rec.SourceFilename,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to insert record", goerr.V("id", rec.ID))
	}

	return nil
}

func (s *SQLite) Search(ctx context.Context, query model.Vector, limit int) ([]*Hit, error) {
	if limit <= 0 {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "search limit must be positive", goerr.V("limit", limit))
	}
	if err := query.Validate(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, content, embedding, space, modality, source, created_at
		FROM memories WHERE space = ?`,
		string(query.Space),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query records")
	}
	defer rows.Close()

	logger := logging.From(ctx)

	var hits []*Hit
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}

		if !rec.Embedding.Comparable(query) {
			// Same space tag but a different backend dimensionality means
			// the distance would be meaningless. Skip loudly.
			logger.Warn("skipping record with incompatible embedding",
				"id", rec.ID, "dim", rec.Embedding.Dim(), "query_dim", query.Dim())
			continue
		}

		hits = append(hits, &Hit{
			Record:     rec,
			Similarity: cosineSimilarity(query.Values, rec.Embedding.Values),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate rows")
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})

	if limit < len(hits) {
		hits = hits[:limit]
	}
	return hits, nil
}

func (s *SQLite) ListAll(ctx context.Context) ([]*model.MemoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, content, embedding, space, modality, source, created_at
		FROM memories ORDER BY created_at, id`)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list records")
	}
	defer rows.Close()

	var records []*model.MemoryRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate rows")
	}

	return records, nil
}

func (s *SQLite) Delete(ctx context.Context, id model.MemoryID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM memories WHERE id = ?`, string(id)); err != nil {
		return goerr.Wrap(err, "failed to delete record", goerr.V("id", id))
	}
	return nil
}

func (s *SQLite) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM memories`); err != nil {
		return goerr.Wrap(err, "failed to clear store")
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func scanRecord(rows *sql.Rows) (*model.MemoryRecord, error) {
	var (
		rec       model.MemoryRecord
		blob      []byte
		space     string
		modality  string
		createdAt string
	)

	if err := rows.Scan(&rec.ID, &rec.Content, &blob, &space, &modality, &rec.SourceFilename, &createdAt); err != nil {
		return nil, goerr.Wrap(err, "failed to scan row")
	}

	values, err := decodeEmbedding(blob)
	if err != nil {
		return nil, goerr.Wrap(model.ErrStoreCorruption, "malformed embedding blob",
			goerr.V("id", rec.ID), goerr.V("cause", err.Error()))
	}
	rec.Embedding = model.Vector{Space: model.EmbeddingSpace(space), Values: values}
	rec.Modality = model.Modality(modality)

	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, goerr.Wrap(model.ErrStoreCorruption, "malformed created_at",
			goerr.V("id", rec.ID), goerr.V("value", createdAt))
	}
	rec.CreatedAt = t

	return &rec, nil
}

// encodeEmbedding packs float32 values as a little-endian IEEE 754 sequence.
// The length is derived from the blob size on decode.
func encodeEmbedding(values []float32) []byte {
	b := make([]byte, len(values)*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(v))
	}
	return b
}

func decodeEmbedding(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, goerr.New("blob length is not a multiple of 4", goerr.V("len", len(b)))
	}
	values := make([]float32, len(b)/4)
	for i := range values {
		values[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return values, nil
}

func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

var _ Repository = (*SQLite)(nil)
