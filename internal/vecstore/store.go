// Package vecstore persists chunk embeddings in SQLite and runs
// nearest-neighbour queries through the sqlite-vec extension.
package vecstore

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
)

func init() {
	sqlite_vec.Auto()
}

// ErrDimension is returned when vectors in one call disagree in length.
var ErrDimension = errors.New("vecstore: inconsistent vector dimension")

// Neighbor is one KNN result: the position of the vector in the searched
// set and its cosine similarity to the query.
type Neighbor struct {
	Index      int
	Similarity float64
}

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB

	mu        sync.Mutex // serialises KNN scratch-table use
	vecTables map[int]bool
}

// Open opens (or creates) a store at dbPath. ":memory:" gives a private
// in-memory database.
func Open(dbPath string) (*Store, error) {
	memory := dbPath == ":memory:" || dbPath == ""
	dsn := "file::memory:?cache=private"
	if !memory {
		dir := filepath.Dir(dbPath)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("creating db directory: %w", err)
			}
		}
		dsn = dbPath + "?_journal_mode=WAL&_busy_timeout=30000&_txlock=immediate"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if memory {
		// Every pooled connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db, vecTables: make(map[int]bool)}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// CacheKey identifies an embedding of text by model.
func CacheKey(model, text string) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// GetEmbeddings returns the cached vectors for the keys that are present.
func (s *Store) GetEmbeddings(ctx context.Context, keys []string) (map[string][]float32, error) {
	out := make(map[string][]float32, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	// SQLite caps bound parameters, so look keys up in slices.
	const batch = 500
	for start := 0; start < len(keys); start += batch {
		part := keys[start:min(start+batch, len(keys))]
		args := make([]any, len(part))
		for i, k := range part {
			args[i] = k
		}
		rows, err := s.db.QueryContext(ctx,
			"SELECT key, vector FROM embeddings WHERE key IN (?"+repeatPlaceholders(len(part)-1)+")",
			args...)
		if err != nil {
			return nil, fmt.Errorf("query embeddings: %w", err)
		}
		for rows.Next() {
			var key string
			var blob []byte
			if err := rows.Scan(&key, &blob); err != nil {
				rows.Close()
				return nil, err
			}
			out[key] = deserializeFloat32(blob)
		}
		if err := rows.Close(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// PutEmbeddings stores vectors for model under their keys.
func (s *Store) PutEmbeddings(ctx context.Context, model string, vecs map[string][]float32) error {
	if len(vecs) == 0 {
		return nil
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			"INSERT OR REPLACE INTO embeddings (key, model, dim, vector) VALUES (?, ?, ?, ?)")
		if err != nil {
			return err
		}
		defer stmt.Close()
		for key, v := range vecs {
			if _, err := stmt.ExecContext(ctx, key, model, len(v), serializeFloat32(v)); err != nil {
				return fmt.Errorf("insert embedding: %w", err)
			}
		}
		return nil
	})
}

// CountEmbeddings returns the number of cached vectors.
func (s *Store) CountEmbeddings(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM embeddings").Scan(&n)
	return n, err
}

// KNN returns the k vectors most similar to query, most similar first.
// Vectors are loaded into a vec0 table inside a transaction that is rolled
// back afterwards, so nothing persists between calls.
func (s *Store) KNN(ctx context.Context, query []float32, vectors [][]float32, k int) ([]Neighbor, error) {
	if len(vectors) == 0 || k <= 0 {
		return []Neighbor{}, nil
	}
	dim := len(query)
	for _, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: query %d, vector %d", ErrDimension, dim, len(v))
		}
	}
	k = min(k, len(vectors))

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureVecTable(ctx, dim); err != nil {
		return nil, err
	}
	table := vecTableName(dim)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO "+table+" (item_id, embedding) VALUES (?, ?)")
	if err != nil {
		return nil, err
	}
	for i, v := range vectors {
		if _, err := stmt.ExecContext(ctx, int64(i+1), serializeFloat32(v)); err != nil {
			stmt.Close()
			return nil, fmt.Errorf("insert vector: %w", err)
		}
	}
	stmt.Close()

	rows, err := tx.QueryContext(ctx,
		"SELECT item_id, distance FROM "+table+" WHERE embedding MATCH ? AND k = ? ORDER BY distance",
		serializeFloat32(query), k)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer rows.Close()

	out := make([]Neighbor, 0, k)
	for rows.Next() {
		var id int64
		var distance sql.NullFloat64 // NULL for zero vectors
		if err := rows.Scan(&id, &distance); err != nil {
			return nil, err
		}
		sim := 0.0
		if distance.Valid {
			sim = 1 - distance.Float64
		}
		out = append(out, Neighbor{Index: int(id - 1), Similarity: sim})
	}
	return out, rows.Err()
}

func (s *Store) ensureVecTable(ctx context.Context, dim int) error {
	if s.vecTables[dim] {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, vecTableSQL(dim)); err != nil {
		return fmt.Errorf("creating vec table: %w", err)
	}
	s.vecTables[dim] = true
	return nil
}

// --- helpers ---

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func repeatPlaceholders(n int) string {
	return strings.Repeat(", ?", n)
}

// serializeFloat32 converts a float32 slice to little-endian bytes for sqlite-vec.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func deserializeFloat32(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
