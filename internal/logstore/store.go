package logstore

import (
	"bytes"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"lina/internal/embedding"
	"lina/internal/logging"
)

// ErrUnavailable is returned by Insert and Search when the store is
// degraded: the database could not be opened or initialized. Callers
// treat this as recoverable and proceed without retrieval context.
var ErrUnavailable = errors.New("log store unavailable")

// Store persists canonical log records with their embeddings and
// serves cosine-distance similarity search. When the sqlite-vec
// extension is present, distance is computed in SQL; otherwise the
// store falls back to scanning candidates and ranking in Go.
type Store struct {
	db        *sql.DB
	path      string
	dim       int
	vectorExt bool
	mu        sync.RWMutex
}

// Open opens (or creates) the log store database. Open never fails
// hard: on any connection or initialization error it returns a
// degraded store whose Insert and Search report ErrUnavailable.
func Open(path string, dim int) *Store {
	timer := logging.StartTimer(logging.CategoryStore, "Open")
	defer timer.Stop()

	store := &Store{path: path, dim: dim}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		logging.StoreError("Failed to create store directory: %v", err)
		return store
	}

	// WAL mode and a busy timeout so concurrent readers do not block
	// ingestion batches.
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		logging.StoreError("Failed to open log store database: %v", err)
		return store
	}
	if err := db.Ping(); err != nil {
		logging.StoreError("Failed to ping log store database: %v", err)
		db.Close()
		return store
	}

	if err := initSchema(db); err != nil {
		logging.StoreError("Failed to initialize log store schema: %v", err)
		db.Close()
		return store
	}

	store.db = db
	store.detectVecExtension()
	if store.vectorExt {
		logging.Store("sqlite-vec extension detected, SQL distance path enabled")
	} else {
		logging.Get(logging.CategoryStore).Warn("sqlite-vec extension not available, ranking in Go")
	}

	logging.Store("Log store opened: path=%s dim=%d", path, dim)
	return store
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		log_id INTEGER NOT NULL,
		message TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		source TEXT NOT NULL DEFAULT 'unknown',
		severity TEXT NOT NULL DEFAULT 'Information',
		anomaly_flag INTEGER NOT NULL DEFAULT 0,
		anomaly_reason TEXT NOT NULL DEFAULT '',
		target_label TEXT NOT NULL DEFAULT 'normal',
		embedding BLOB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_logs_anomaly ON logs(anomaly_flag);
	CREATE INDEX IF NOT EXISTS idx_logs_severity ON logs(severity);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create logs table: %w", err)
	}
	return nil
}

// detectVecExtension probes for sqlite-vec by creating a throwaway
// vec0 virtual table.
func (s *Store) detectVecExtension() {
	if s.db == nil {
		return
	}
	if _, err := s.db.Exec("CREATE VIRTUAL TABLE IF NOT EXISTS vec_probe USING vec0(embedding float[4])"); err == nil {
		s.vectorExt = true
		_, _ = s.db.Exec("DROP TABLE IF EXISTS vec_probe")
		return
	}
	s.vectorExt = false
}

// Available reports whether the store is usable.
func (s *Store) Available() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db != nil
}

// Insert persists a batch of records. Records without an embedding are
// skipped, not treated as a batch error. Embeddings are normalized to
// the configured dimension before insertion. Returns the count
// actually inserted so partial failures can be retried at the batch
// level; this is a best-effort counter, not a transactional guarantee.
func (s *Store) Insert(records []Record) (int, error) {
	timer := logging.StartTimer(logging.CategoryStore, "Insert")
	defer timer.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return 0, ErrUnavailable
	}

	stmt, err := s.db.Prepare(`
		INSERT INTO logs (log_id, message, timestamp, source, severity, anomaly_flag, anomaly_reason, target_label, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	skipped := 0
	for _, rec := range records {
		if rec.Embedding == nil {
			skipped++
			continue
		}
		vec := embedding.NormalizeDim(rec.Embedding, s.dim)
		if _, err := stmt.Exec(
			rec.ID,
			rec.Message,
			rec.Timestamp,
			rec.Source,
			rec.Severity,
			boolToInt(rec.AnomalyFlag),
			rec.AnomalyReason,
			rec.TargetLabel,
			encodeEmbedding(vec),
		); err != nil {
			logging.StoreError("Insert failed after %d records: %v", inserted, err)
			return inserted, fmt.Errorf("failed to insert record %d: %w", rec.ID, err)
		}
		inserted++
	}

	if skipped > 0 {
		logging.StoreDebug("Skipped %d records without embeddings", skipped)
	}
	logging.Store("Inserted %d/%d records", inserted, len(records))
	return inserted, nil
}

// Search returns the topK records closest to queryVec by cosine
// distance, ascending. The query vector is normalized to the store
// dimension exactly as at ingestion. When onlyAnomalies is set, only
// records with the anomaly flag are candidates, applied before the
// topK cut. An empty store or filter yields an empty result, not an
// error.
func (s *Store) Search(queryVec []float32, topK int, onlyAnomalies bool) ([]ScoredRecord, error) {
	timer := logging.StartTimer(logging.CategoryStore, "Search")
	defer timer.Stop()

	if topK <= 0 {
		topK = 10
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, ErrUnavailable
	}

	query := embedding.NormalizeDim(queryVec, s.dim)
	logging.StoreDebug("Searching: topK=%d onlyAnomalies=%v dim=%d", topK, onlyAnomalies, len(query))

	if s.vectorExt {
		return s.searchVec(query, topK, onlyAnomalies)
	}
	return s.searchScan(query, topK, onlyAnomalies)
}

// searchVec computes distances in SQL via sqlite-vec's
// vec_distance_cosine scalar function.
func (s *Store) searchVec(query []float32, topK int, onlyAnomalies bool) ([]ScoredRecord, error) {
	sqlQuery := `
		SELECT
			log_id, message, timestamp, source, severity,
			anomaly_flag, anomaly_reason, target_label,
			vec_distance_cosine(embedding, ?) AS distance
		FROM logs
	`
	args := []interface{}{encodeEmbedding(query)}
	if onlyAnomalies {
		sqlQuery += " WHERE anomaly_flag = 1"
	}
	sqlQuery += " ORDER BY distance ASC LIMIT ?"
	args = append(args, topK)

	rows, err := s.db.Query(sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	defer rows.Close()

	var results []ScoredRecord
	rank := 1
	for rows.Next() {
		var hit ScoredRecord
		var anomaly int
		if err := rows.Scan(
			&hit.ID, &hit.Message, &hit.Timestamp, &hit.Source, &hit.Severity,
			&anomaly, &hit.AnomalyReason, &hit.TargetLabel, &hit.Distance,
		); err != nil {
			logging.StoreWarn("Failed to scan search row: %v", err)
			continue
		}
		hit.AnomalyFlag = anomaly != 0
		hit.Rank = rank
		rank++
		results = append(results, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating search results: %w", err)
	}

	logging.StoreDebug("Vector search returned %d results", len(results))
	return results, nil
}

// searchScan loads candidates and ranks them in Go. The anomaly filter
// still runs in SQL so candidates are restricted before ranking.
func (s *Store) searchScan(query []float32, topK int, onlyAnomalies bool) ([]ScoredRecord, error) {
	sqlQuery := `
		SELECT log_id, message, timestamp, source, severity,
		       anomaly_flag, anomaly_reason, target_label, embedding
		FROM logs
	`
	if onlyAnomalies {
		sqlQuery += " WHERE anomaly_flag = 1"
	}

	rows, err := s.db.Query(sqlQuery)
	if err != nil {
		return nil, fmt.Errorf("search scan failed: %w", err)
	}
	defer rows.Close()

	var results []ScoredRecord
	for rows.Next() {
		var hit ScoredRecord
		var anomaly int
		var blob []byte
		if err := rows.Scan(
			&hit.ID, &hit.Message, &hit.Timestamp, &hit.Source, &hit.Severity,
			&anomaly, &hit.AnomalyReason, &hit.TargetLabel, &blob,
		); err != nil {
			logging.StoreWarn("Failed to scan candidate row: %v", err)
			continue
		}
		hit.AnomalyFlag = anomaly != 0

		stored := decodeEmbedding(blob)
		distance, err := embedding.CosineDistance(query, stored)
		if err != nil {
			logging.StoreWarn("Skipping record %d with bad embedding: %v", hit.ID, err)
			continue
		}
		hit.Distance = distance
		results = append(results, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating candidates: %w", err)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})
	if len(results) > topK {
		results = results[:topK]
	}
	for i := range results {
		results[i].Rank = i + 1
	}

	logging.StoreDebug("Scan search returned %d results", len(results))
	return results, nil
}

// Count reports the number of persisted records.
func (s *Store) Count() (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return 0, ErrUnavailable
	}
	var count int64
	if err := s.db.QueryRow("SELECT COUNT(*) FROM logs").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

// Dimensions returns the store's configured embedding dimension.
func (s *Store) Dimensions() int {
	return s.dim
}

// Close releases the database handle. Safe to call on a degraded
// store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	logging.Store("Log store closed")
	return err
}

// =============================================================================
// EMBEDDING SERIALIZATION
// =============================================================================

// encodeEmbedding packs a vector as little-endian float32 bytes, the
// layout sqlite-vec expects.
func encodeEmbedding(vec []float32) []byte {
	buf := &bytes.Buffer{}
	if err := binary.Write(buf, binary.LittleEndian, vec); err != nil {
		return nil
	}
	return buf.Bytes()
}

// decodeEmbedding unpacks little-endian float32 bytes.
func decodeEmbedding(blob []byte) []float32 {
	if len(blob)%4 != 0 {
		return nil
	}
	vec := make([]float32, len(blob)/4)
	if err := binary.Read(bytes.NewReader(blob), binary.LittleEndian, &vec); err != nil {
		return nil
	}
	return vec
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
