package logstore

import (
	"reflect"
	"testing"
)

func TestNormalizeSynonymMapping(t *testing.T) {
	raw := []map[string]interface{}{
		{
			"msg":        "disk failure on sda",
			"created_at": "2026-01-15T10:00:00Z",
			"logger":     "kernel",
			"loglevel":   "Error",
			"is_anomaly": true,
			"reason":     "io error burst",
			"label":      "disk_fault",
			"log_id":     "42",
		},
	}

	records, retained := Normalize(raw)
	if retained != 1 {
		t.Fatalf("Expected 1 retained record, got %d", retained)
	}

	rec := records[0]
	if rec.ID != 42 {
		t.Errorf("Expected id 42, got %d", rec.ID)
	}
	if rec.Message != "disk failure on sda" {
		t.Errorf("Message not mapped from msg: %q", rec.Message)
	}
	if rec.Timestamp != "2026-01-15T10:00:00Z" {
		t.Errorf("Timestamp not mapped from created_at: %q", rec.Timestamp)
	}
	if rec.Source != "kernel" {
		t.Errorf("Source not mapped from logger: %q", rec.Source)
	}
	if rec.Severity != "Error" {
		t.Errorf("Severity not mapped from loglevel: %q", rec.Severity)
	}
	if !rec.AnomalyFlag {
		t.Error("AnomalyFlag not mapped from is_anomaly")
	}
	if rec.AnomalyReason != "io error burst" {
		t.Errorf("AnomalyReason not mapped from reason: %q", rec.AnomalyReason)
	}
	if rec.TargetLabel != "disk_fault" {
		t.Errorf("TargetLabel not mapped from label: %q", rec.TargetLabel)
	}
}

func TestNormalizeDefaults(t *testing.T) {
	records, retained := Normalize([]map[string]interface{}{
		{"message": "plain line with nothing else"},
	})
	if retained != 1 {
		t.Fatalf("Expected 1 retained record, got %d", retained)
	}

	rec := records[0]
	if rec.ID != 1 {
		t.Errorf("Expected sequential id 1 for record without id, got %d", rec.ID)
	}
	if rec.Timestamp == "" {
		t.Error("Timestamp should default to ingestion time, got empty")
	}
	if rec.Source != DefaultSource {
		t.Errorf("Expected default source %q, got %q", DefaultSource, rec.Source)
	}
	if rec.Severity != DefaultSeverity {
		t.Errorf("Expected default severity %q, got %q", DefaultSeverity, rec.Severity)
	}
	if rec.AnomalyFlag {
		t.Error("AnomalyFlag should default to false")
	}
	if rec.AnomalyReason != "" {
		t.Errorf("AnomalyReason should default to empty, got %q", rec.AnomalyReason)
	}
	if rec.TargetLabel != DefaultTargetLabel {
		t.Errorf("Expected default label %q, got %q", DefaultTargetLabel, rec.TargetLabel)
	}
}

func TestNormalizeDropsEmptyMessages(t *testing.T) {
	records, retained := Normalize([]map[string]interface{}{
		{"message": "keep me"},
		{"message": ""},
		{"message": "   "},
		{"severity": "Error"}, // no message field at all
		{"message": "keep me too"},
	})
	if retained != 2 {
		t.Fatalf("Expected 2 retained records, got %d", retained)
	}
	if records[0].Message != "keep me" || records[1].Message != "keep me too" {
		t.Errorf("Wrong records retained: %+v", records)
	}
}

func TestNormalizeIDCoercion(t *testing.T) {
	records, retained := Normalize([]map[string]interface{}{
		{"id": "7", "message": "string id"},
		{"id": "not-a-number", "message": "bad id"},
		{"id": float64(13), "message": "float id"},
	})
	if retained != 3 {
		t.Fatalf("Expected 3 retained records, got %d", retained)
	}
	if records[0].ID != 7 {
		t.Errorf("Expected coerced id 7, got %d", records[0].ID)
	}
	if records[1].ID != 0 {
		t.Errorf("Unparseable id should coerce to 0, got %d", records[1].ID)
	}
	if records[2].ID != 13 {
		t.Errorf("Expected coerced id 13, got %d", records[2].ID)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	raw := []map[string]interface{}{
		{
			"id":             int64(5),
			"message":        "already canonical",
			"timestamp":      "2026-02-01T00:00:00Z",
			"source":         "syslog",
			"severity":       "Warning",
			"anomaly_flag":   true,
			"anomaly_reason": "spike",
			"target_label":   "cpu_spike",
		},
	}

	first, _ := Normalize(raw)

	// Feed the canonical output back through as raw records.
	roundTrip := []map[string]interface{}{
		{
			"id":             first[0].ID,
			"message":        first[0].Message,
			"timestamp":      first[0].Timestamp,
			"source":         first[0].Source,
			"severity":       first[0].Severity,
			"anomaly_flag":   first[0].AnomalyFlag,
			"anomaly_reason": first[0].AnomalyReason,
			"target_label":   first[0].TargetLabel,
		},
	}
	second, retained := Normalize(roundTrip)
	if retained != 1 {
		t.Fatalf("Expected 1 retained record, got %d", retained)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Normalization not idempotent:\nfirst:  %+v\nsecond: %+v", first[0], second[0])
	}
}

func TestNormalizeCanonicalNameWinsOverSynonym(t *testing.T) {
	records, retained := Normalize([]map[string]interface{}{
		{"message": "canonical", "msg": "synonym"},
	})
	if retained != 1 {
		t.Fatalf("Expected 1 retained record, got %d", retained)
	}
	if records[0].Message != "canonical" {
		t.Errorf("Canonical field should win over synonym, got %q", records[0].Message)
	}
}
