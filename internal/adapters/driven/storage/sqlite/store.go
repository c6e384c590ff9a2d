package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/vector"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.CorpusStore = (*Store)(nil)

// Store is a SQLite-backed corpus store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (or creates) the corpus database in dataDir.
// If dataDir is empty, defaults to ~/.docqa/data/corpus.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".docqa", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("%w: creating data directory: %w", domain.ErrStorage, err)
	}

	dbPath := filepath.Join(dataDir, "corpus.db")

	// WAL lets searches run while an ingestion transaction is open.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %w", domain.ErrStorage, err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: running migrations: %w", domain.ErrStorage, err)
	}

	logger.Debug("sqlite: corpus database at %s", dbPath)
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations, each in its own transaction.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_corpus.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(string(content)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %s: %w", name, err)
		}
	}

	return nil
}

// SchemaVersion returns the highest applied migration version.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	return version, err
}

// ReplaceCollection deletes the collection and inserts records in one transaction.
func (s *Store) ReplaceCollection(ctx context.Context, collectionID string, records []domain.CorpusRecord) error {
	if strings.TrimSpace(collectionID) == "" {
		return fmt.Errorf("%w: empty collection id", domain.ErrInvalidArgument)
	}

	dims, err := recordDimensions(records)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %w", domain.ErrStorage, err)
	}
	defer func() { _ = tx.Rollback() }()

	s.dropPrevious(ctx, tx, collectionID)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO collections (id, dimensions) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET dimensions = excluded.dimensions
	`, collectionID, dims)
	if err != nil {
		return fmt.Errorf("%w: creating collection %q: %w", domain.ErrStorage, collectionID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (collection_id, chunk_id, text, source_page, position,
			start_offset, size, overlap_with_previous, metadata, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("%w: preparing insert: %w", domain.ErrStorage, err)
	}
	defer stmt.Close()

	for i, r := range records {
		metadata, err := json.Marshal(r.Chunk.Metadata)
		if err != nil {
			return fmt.Errorf("%w: marshalling metadata of record %d: %w", domain.ErrStorage, i, err)
		}

		c := r.Chunk
		if _, err := stmt.ExecContext(ctx, collectionID, c.ID, c.Text, c.SourcePage, c.Position,
			c.Start, c.Size, c.OverlapWithPrevious, string(metadata), vector.Encode(r.Embedding)); err != nil {
			return fmt.Errorf("%w: inserting record %d: %w", domain.ErrStorage, i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing collection %q: %w", domain.ErrStorage, collectionID, err)
	}

	logger.Debug("sqlite: stored %d records in collection %q", len(records), collectionID)
	return nil
}

// dropPrevious deletes the collection inside tx. A failure is logged and
// rolled back to a savepoint so the insert can still proceed.
func (s *Store) dropPrevious(ctx context.Context, tx *sql.Tx, collectionID string) {
	if _, err := tx.ExecContext(ctx, "SAVEPOINT drop_previous"); err != nil {
		logger.Warn("sqlite: could not delete previous collection %q: %v", collectionID, err)
		return
	}

	_, err := tx.ExecContext(ctx, "DELETE FROM records WHERE collection_id = ?", collectionID)
	if err == nil {
		_, err = tx.ExecContext(ctx, "DELETE FROM collections WHERE id = ?", collectionID)
	}
	if err != nil {
		logger.Warn("sqlite: could not delete previous collection %q: %v", collectionID, err)
		_, _ = tx.ExecContext(ctx, "ROLLBACK TO drop_previous")
	}
	_, _ = tx.ExecContext(ctx, "RELEASE drop_previous")
}

// DeleteCollection removes the collection and its records.
func (s *Store) DeleteCollection(ctx context.Context, collectionID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %w", domain.ErrStorage, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM records WHERE collection_id = ?", collectionID); err != nil {
		return fmt.Errorf("%w: deleting records: %w", domain.ErrStorage, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM collections WHERE id = ?", collectionID); err != nil {
		return fmt.Errorf("%w: deleting collection: %w", domain.ErrStorage, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing delete: %w", domain.ErrStorage, err)
	}
	return nil
}

// SimilaritySearch scans the collection and returns the k most similar records.
func (s *Store) SimilaritySearch(
	ctx context.Context, collectionID string, vec []float32, k int,
) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidArgument, k)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT chunk_id, text, source_page, position, start_offset, size,
			overlap_with_previous, metadata, embedding
		FROM records
		WHERE collection_id = ?
		ORDER BY seq
	`, collectionID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying records: %w", domain.ErrStorage, err)
	}
	defer rows.Close()

	hits := make([]domain.ScoredChunk, 0)
	for rows.Next() {
		chunk, embedding, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}

		score, err := vector.Cosine(vec, embedding)
		if errors.Is(err, vector.ErrDimensionMismatch) {
			return nil, fmt.Errorf("%w: query has %d dimensions, collection %q has %d",
				domain.ErrInvalidArgument, len(vec), collectionID, len(embedding))
		}
		hits = append(hits, domain.ScoredChunk{Chunk: chunk, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading records: %w", domain.ErrStorage, err)
	}

	return vector.TopK(hits, k), nil
}

// Count returns the number of records in the collection.
func (s *Store) Count(ctx context.Context, collectionID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records WHERE collection_id = ?", collectionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%w: counting records: %w", domain.ErrStorage, err)
	}
	return n, nil
}

// recordDimensions returns the shared embedding size of records.
func recordDimensions(records []domain.CorpusRecord) (int, error) {
	dims := 0
	for i, r := range records {
		if len(r.Embedding) == 0 {
			return 0, fmt.Errorf("%w: record %d has no embedding", domain.ErrStorage, i)
		}
		if i > 0 && len(r.Embedding) != dims {
			return 0, fmt.Errorf("%w: record %d has %d dimensions, expected %d",
				domain.ErrStorage, i, len(r.Embedding), dims)
		}
		dims = len(r.Embedding)
	}
	return dims, nil
}

func scanRecord(rows *sql.Rows) (domain.Chunk, []float32, error) {
	var c domain.Chunk
	var metadataJSON string
	var blob []byte

	if err := rows.Scan(&c.ID, &c.Text, &c.SourcePage, &c.Position, &c.Start, &c.Size,
		&c.OverlapWithPrevious, &metadataJSON, &blob); err != nil {
		return c, nil, fmt.Errorf("%w: scanning record: %w", domain.ErrStorage, err)
	}

	metadata, err := decodeMetadata(metadataJSON)
	if err != nil {
		return c, nil, fmt.Errorf("%w: decoding metadata of chunk %s: %w", domain.ErrStorage, c.ID, err)
	}
	c.Metadata = metadata

	return c, vector.Decode(blob), nil
}

// decodeMetadata restores metadata written by json.Marshal, keeping
// integral numbers as int.
func decodeMetadata(raw string) (map[string]any, error) {
	if raw == "" || raw == "null" {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()

	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	for k, v := range m {
		n, ok := v.(json.Number)
		if !ok {
			continue
		}
		if i, err := n.Int64(); err == nil {
			m[k] = int(i)
		} else if f, err := n.Float64(); err == nil {
			m[k] = f
		}
	}
	return m, nil
}
