package logstore

import (
	"errors"
	"path/filepath"
	"testing"
)

const testDim = 4

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store := Open(filepath.Join(t.TempDir(), "logs.db"), testDim)
	if !store.Available() {
		t.Fatal("Test store should be available")
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testRecord(id int64, message string, anomaly bool, vec []float32) Record {
	return Record{
		ID:          id,
		Message:     message,
		Timestamp:   "2026-03-01T12:00:00Z",
		Source:      "test",
		Severity:    DefaultSeverity,
		AnomalyFlag: anomaly,
		TargetLabel: DefaultTargetLabel,
		Embedding:   vec,
	}
}

func TestInsertReportsCount(t *testing.T) {
	store := newTestStore(t)

	inserted, err := store.Insert([]Record{
		testRecord(1, "first", false, []float32{1, 0, 0, 0}),
		testRecord(2, "second", false, []float32{0, 1, 0, 0}),
	})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if inserted != 2 {
		t.Errorf("Expected 2 inserted, got %d", inserted)
	}

	count, err := store.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected count 2, got %d", count)
	}
}

func TestInsertSkipsRecordsWithoutEmbeddings(t *testing.T) {
	store := newTestStore(t)

	inserted, err := store.Insert([]Record{
		testRecord(1, "embedded", false, []float32{1, 0, 0, 0}),
		testRecord(2, "no embedding", false, nil),
	})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if inserted != 1 {
		t.Errorf("Expected 1 inserted (nil embedding skipped), got %d", inserted)
	}
}

func TestInsertNormalizesEmbeddingDimension(t *testing.T) {
	store := newTestStore(t)

	// Shorter than D gets zero-padded, longer gets truncated.
	inserted, err := store.Insert([]Record{
		testRecord(1, "short vector", false, []float32{1, 0}),
		testRecord(2, "long vector", false, []float32{0, 1, 0, 0, 0.5, 0.5}),
	})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if inserted != 2 {
		t.Fatalf("Expected 2 inserted, got %d", inserted)
	}

	results, err := store.Search([]float32{1, 0, 0, 0}, 5, false)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	// The padded [1,0,0,0] matches the query exactly.
	if results[0].Message != "short vector" {
		t.Errorf("Expected padded short vector to rank first, got %q", results[0].Message)
	}
}

func TestSearchOrdersByAscendingDistance(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Insert([]Record{
		testRecord(1, "orthogonal", false, []float32{0, 1, 0, 0}),
		testRecord(2, "exact", false, []float32{1, 0, 0, 0}),
		testRecord(3, "close", false, []float32{0.9, 0.1, 0, 0}),
	})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	results, err := store.Search([]float32{1, 0, 0, 0}, 3, false)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}

	expected := []string{"exact", "close", "orthogonal"}
	for i, msg := range expected {
		if results[i].Message != msg {
			t.Errorf("Rank %d: expected %q, got %q (distance %f)", i+1, msg, results[i].Message, results[i].Distance)
		}
		if results[i].Rank != i+1 {
			t.Errorf("Expected rank %d, got %d", i+1, results[i].Rank)
		}
	}
	for i := 1; i < len(results); i++ {
		if results[i].Distance < results[i-1].Distance {
			t.Errorf("Results not in ascending distance order at index %d", i)
		}
	}
}

func TestSearchTopKBoundsResults(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Insert([]Record{
		testRecord(1, "a", false, []float32{1, 0, 0, 0}),
		testRecord(2, "b", false, []float32{0, 1, 0, 0}),
		testRecord(3, "c", false, []float32{0, 0, 1, 0}),
	})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	results, err := store.Search([]float32{1, 0, 0, 0}, 2, false)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("Expected topK=2 results, got %d", len(results))
	}
}

func TestSearchAnomalyPreFilter(t *testing.T) {
	store := newTestStore(t)

	// The closest record overall is not an anomaly. With the
	// pre-filter, topK=1 must return the closest anomaly, not an
	// empty set after filtering the overall winner.
	_, err := store.Insert([]Record{
		testRecord(1, "normal close", false, []float32{1, 0, 0, 0}),
		testRecord(2, "anomaly far", true, []float32{0, 1, 0, 0}),
		testRecord(3, "anomaly farther", true, []float32{0, 0, 1, 0}),
	})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	results, err := store.Search([]float32{1, 0, 0, 0}, 1, true)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	if results[0].Message != "anomaly far" {
		t.Errorf("Expected closest anomaly, got %q", results[0].Message)
	}
	if !results[0].AnomalyFlag {
		t.Error("Filtered result should carry the anomaly flag")
	}
}

func TestSearchEmptyStoreReturnsEmpty(t *testing.T) {
	store := newTestStore(t)

	results, err := store.Search([]float32{1, 0, 0, 0}, 5, false)
	if err != nil {
		t.Fatalf("Search on empty store should not error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Expected empty results, got %d", len(results))
	}

	results, err = store.Search([]float32{1, 0, 0, 0}, 5, true)
	if err != nil {
		t.Fatalf("Filtered search on empty store should not error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Expected empty filtered results, got %d", len(results))
	}
}

func TestDegradedStoreReportsUnavailable(t *testing.T) {
	// /dev/null is not a directory, so the store cannot initialize.
	store := Open("/dev/null/nope/logs.db", testDim)
	if store.Available() {
		t.Fatal("Store should be degraded")
	}

	if _, err := store.Insert([]Record{testRecord(1, "x", false, []float32{1, 0, 0, 0})}); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable from Insert, got %v", err)
	}
	if _, err := store.Search([]float32{1, 0, 0, 0}, 5, false); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable from Search, got %v", err)
	}
	if _, err := store.Count(); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable from Count, got %v", err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("Close on degraded store should be a no-op: %v", err)
	}
}

func TestEmbeddingBlobRoundTrip(t *testing.T) {
	vec := []float32{0.25, -1.5, 3.0, 0}
	blob := encodeEmbedding(vec)
	if len(blob) != len(vec)*4 {
		t.Fatalf("Expected %d bytes, got %d", len(vec)*4, len(blob))
	}
	decoded := decodeEmbedding(blob)
	if len(decoded) != len(vec) {
		t.Fatalf("Expected %d elements, got %d", len(vec), len(decoded))
	}
	for i := range vec {
		if decoded[i] != vec[i] {
			t.Errorf("Element %d: expected %f, got %f", i, vec[i], decoded[i])
		}
	}

	if decodeEmbedding([]byte{1, 2, 3}) != nil {
		t.Error("Misaligned blob should decode to nil")
	}
}
