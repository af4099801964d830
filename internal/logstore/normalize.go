package logstore

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"lina/internal/logging"
)

// =============================================================================
// FIELD NORMALIZATION
// =============================================================================

// fieldSynonyms maps alternate source column names to canonical field
// names. Lookup is case-insensitive. The canonical name maps to itself
// so normalizing already-canonical input is a no-op.
var fieldSynonyms = map[string]string{
	"message": "message",
	"msg":     "message",
	"text":    "message",
	"content": "message",
	"log":     "message",

	"timestamp":  "timestamp",
	"time":       "timestamp",
	"datetime":   "timestamp",
	"date":       "timestamp",
	"created_at": "timestamp",
	"log_time":   "timestamp",

	"source":    "source",
	"logger":    "source",
	"component": "source",
	"service":   "source",
	"module":    "source",

	"severity":  "severity",
	"level":     "severity",
	"loglevel":  "severity",
	"log_level": "severity",

	"anomaly_flag": "anomaly_flag",
	"anomaly":      "anomaly_flag",
	"is_anomaly":   "anomaly_flag",

	"anomaly_reason": "anomaly_reason",
	"reason":         "anomaly_reason",

	"target_label": "target_label",
	"label":        "target_label",

	"id":     "id",
	"log_id": "id",
	"index":  "id",
}

// canonicalFields collapses a raw record's keys onto the canonical
// field names. When several synonyms are present the canonical name
// wins, otherwise first synonym seen is kept.
func canonicalFields(raw map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(raw))
	for key, value := range raw {
		canonical, ok := fieldSynonyms[strings.ToLower(strings.TrimSpace(key))]
		if !ok {
			continue
		}
		if _, exists := out[canonical]; exists && strings.ToLower(key) != canonical {
			continue
		}
		out[canonical] = value
	}
	return out
}

// Normalize converts heterogeneous raw records into canonical log
// records. Missing fields receive documented defaults, ids are coerced
// (0 on parse failure) and renumbered sequentially only when absent
// entirely, and records with an empty message are discarded. Returns
// the canonical records and the count retained.
func Normalize(rawRecords []map[string]interface{}) ([]Record, int) {
	timer := logging.StartTimer(logging.CategoryIngest, "Normalize")
	defer timer.Stop()

	now := time.Now().UTC().Format(time.RFC3339)
	records := make([]Record, 0, len(rawRecords))
	nextID := int64(1)

	for _, raw := range rawRecords {
		fields := canonicalFields(raw)

		message := strings.TrimSpace(coerceString(fields["message"]))
		if message == "" {
			logging.IngestDebug("Dropping record with empty message")
			continue
		}

		rec := Record{
			Message:       message,
			Timestamp:     coerceString(fields["timestamp"]),
			Source:        coerceString(fields["source"]),
			Severity:      coerceString(fields["severity"]),
			AnomalyFlag:   coerceBool(fields["anomaly_flag"]),
			AnomalyReason: coerceString(fields["anomaly_reason"]),
			TargetLabel:   coerceString(fields["target_label"]),
		}

		if _, present := fields["id"]; present {
			rec.ID = coerceID(fields["id"])
		} else {
			rec.ID = nextID
		}
		nextID++

		if rec.Timestamp == "" {
			rec.Timestamp = now
		}
		if rec.Source == "" {
			rec.Source = DefaultSource
		}
		if rec.Severity == "" {
			rec.Severity = DefaultSeverity
		}
		if rec.TargetLabel == "" {
			rec.TargetLabel = DefaultTargetLabel
		}

		records = append(records, rec)
	}

	logging.Ingest("Normalized %d raw records: %d retained", len(rawRecords), len(records))
	return records, len(records)
}

// coerceID converts an id value of any supported type to int64,
// defaulting to 0 when the value cannot be parsed.
func coerceID(value interface{}) int64 {
	switch v := value.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case string:
		id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			logging.IngestDebug("Unparseable id %q, defaulting to 0", v)
			return 0
		}
		return id
	default:
		return 0
	}
}

func coerceString(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func coerceBool(value interface{}) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false
		}
		return b
	case float64:
		return v != 0
	case int:
		return v != 0
	case int64:
		return v != 0
	default:
		return false
	}
}
