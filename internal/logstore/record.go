// Package logstore implements the vector log store: normalization of
// heterogeneous log sources into canonical records, batched embedding
// attachment, SQLite persistence, and cosine-distance similarity search.
package logstore

// Record is the canonical log record. Every persisted record carries
// exactly these eight logical fields, whatever the source format called
// them. Embedding is nil until the embedding engine has processed the
// record's message.
type Record struct {
	ID            int64     `json:"id"`
	Message       string    `json:"message"`
	Timestamp     string    `json:"timestamp"`
	Source        string    `json:"source"`
	Severity      string    `json:"severity"`
	AnomalyFlag   bool      `json:"anomaly_flag"`
	AnomalyReason string    `json:"anomaly_reason"`
	TargetLabel   string    `json:"target_label"`
	Embedding     []float32 `json:"embedding,omitempty"`
}

// ScoredRecord is a search hit: the stored record plus its cosine
// distance from the query vector (0 = identical direction) and 1-based
// rank in the result set.
type ScoredRecord struct {
	Record
	Distance float64 `json:"distance"`
	Rank     int     `json:"rank"`
}

// Default field values applied during normalization when a source
// column is absent.
const (
	DefaultSource      = "unknown"
	DefaultSeverity    = "Information"
	DefaultTargetLabel = "normal"
)
