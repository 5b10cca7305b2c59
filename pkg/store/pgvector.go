package store

import (
	"context"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/ouagalab/fasotour/internal/models"
	"github.com/ouagalab/fasotour/internal/types"
)

type PgVectorConfig struct {
	ConnString string
	TableName  string
	VectorDim  int
	BatchSize  int
}

// PgVectorIndex is a durable cosine-space vector index on Postgres with the
// pgvector extension. The `<=>` operator returns cosine distance in [0,2],
// so similarity = 1 - distance holds for every hit.
type PgVectorIndex struct {
	config PgVectorConfig
	pool   *pgxpool.Pool
}

var _ types.VectorIndex = (*PgVectorIndex)(nil)

func NewPgVectorIndex(ctx context.Context, config PgVectorConfig) (*PgVectorIndex, error) {
	if config.TableName == "" {
		config.TableName = "documents"
	}
	if config.VectorDim == 0 {
		config.VectorDim = 768
	}
	if config.BatchSize == 0 {
		config.BatchSize = 100
	}

	pool, err := pgxpool.New(ctx, config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	idx := &PgVectorIndex{
		config: config,
		pool:   pool,
	}

	if err := idx.initialize(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return idx, nil
}

func (idx *PgVectorIndex) initialize(ctx context.Context) error {
	if _, err := idx.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	if _, err := idx.pool.Exec(ctx, idx.createTableSQL()); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	if _, err := idx.pool.Exec(ctx, idx.createIndexSQL()); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	return nil
}

func (idx *PgVectorIndex) createTableSQL() string {
	// The vector dimension is baked into the DDL; switching embedding models
	// therefore forces a Reset before any upsert can succeed.
	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			metadata JSONB,
			embedding vector(%d)
		)`, idx.config.TableName, idx.config.VectorDim)
}

func (idx *PgVectorIndex) createIndexSQL() string {
	return fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_embedding_idx
		ON %s
		USING ivfflat (embedding vector_cosine_ops)
		WITH (lists = 100)`,
		idx.config.TableName, idx.config.TableName)
}

// Upsert adds or overwrites entries keyed by id. All four slices must have
// equal length.
func (idx *PgVectorIndex) Upsert(ctx context.Context, ids []string, vectors [][]float32, metadatas []models.Metadata, texts []string) error {
	if len(ids) != len(vectors) || len(ids) != len(metadatas) || len(ids) != len(texts) {
		return fmt.Errorf("upsert length mismatch: %d ids, %d vectors, %d metadatas, %d texts",
			len(ids), len(vectors), len(metadatas), len(texts))
	}
	for i, id := range ids {
		if id == "" {
			return fmt.Errorf("upsert entry %d has an empty id", i)
		}
	}

	tx, err := idx.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	stmt := fmt.Sprintf(`
		INSERT INTO %s (id, content, metadata, embedding)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			metadata = EXCLUDED.metadata,
			embedding = EXCLUDED.embedding`,
		idx.config.TableName)

	for i := range ids {
		meta, err := json.Marshal(metadatas[i])
		if err != nil {
			return fmt.Errorf("failed to marshal metadata for %s: %w", ids[i], err)
		}

		_, err = tx.Exec(ctx, stmt,
			ids[i],
			sanitizeUTF8(texts[i]),
			meta,
			pgvector.NewVector(vectors[i]),
		)
		if err != nil {
			return fmt.Errorf("failed to insert document %s: %w", ids[i], err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Query returns up to k nearest neighbors ordered by ascending cosine
// distance.
func (idx *PgVectorIndex) Query(ctx context.Context, vector []float32, k int) ([]types.SearchHit, error) {
	if k <= 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT id, content, metadata, embedding <=> $1 AS distance
		FROM %s
		ORDER BY distance
		LIMIT $2`,
		idx.config.TableName)

	rows, err := idx.pool.Query(ctx, query, pgvector.NewVector(vector), k)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var hits []types.SearchHit
	for rows.Next() {
		var hit types.SearchHit
		var meta []byte
		if err := rows.Scan(&hit.ID, &hit.Text, &meta, &hit.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &hit.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode metadata for %s: %w", hit.ID, err)
			}
		}
		hits = append(hits, hit)
	}

	return hits, rows.Err()
}

// Reset discards all entries and recreates the empty table in one
// transaction, keeping the same cosine configuration.
func (idx *PgVectorIndex) Reset(ctx context.Context) error {
	tx, err := idx.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", idx.config.TableName)); err != nil {
		return fmt.Errorf("failed to drop table: %w", err)
	}
	if _, err := tx.Exec(ctx, idx.createTableSQL()); err != nil {
		return fmt.Errorf("failed to recreate table: %w", err)
	}
	if _, err := tx.Exec(ctx, idx.createIndexSQL()); err != nil {
		return fmt.Errorf("failed to recreate index: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit reset: %w", err)
	}

	return nil
}

// Count reports the number of stored entries.
func (idx *PgVectorIndex) Count(ctx context.Context) (int, error) {
	var count int
	err := idx.pool.QueryRow(ctx, fmt.Sprintf("SELECT count(*) FROM %s", idx.config.TableName)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}

func (idx *PgVectorIndex) Close() {
	if idx.pool != nil {
		idx.pool.Close()
	}
}

func sanitizeUTF8(s string) string {
	if !utf8.ValidString(s) {
		v := make([]rune, 0, len(s))
		for i, r := range s {
			if r == utf8.RuneError {
				_, size := utf8.DecodeRuneInString(s[i:])
				if size == 1 {
					continue
				}
			}
			v = append(v, r)
		}
		return string(v)
	}
	return s
}
