package logstore

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"lina/internal/logging"
)

// =============================================================================
// RAW LOG FILE LOADING
// =============================================================================

// LoadFile reads a log file into raw records keyed by source column
// name, ready for Normalize. The format is chosen by extension:
// .csv for delimited rows, .json for an array of objects or a keyed
// object of objects, anything else is treated as plain text with one
// record per line.
func LoadFile(path string) ([]map[string]interface{}, error) {
	timer := logging.StartTimer(logging.CategoryIngest, "LoadFile")
	defer timer.Stop()

	logging.Ingest("Loading log file: %s", path)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return loadCSV(path)
	case ".json":
		return loadJSON(path)
	default:
		return loadLines(path)
	}
}

// loadCSV parses a delimited-row file. The first row supplies the
// column names for every subsequent row.
func loadCSV(path string) ([]map[string]interface{}, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv file: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := rows[0]
	records := make([]map[string]interface{}, 0, len(rows)-1)
	for _, row := range rows[1:] {
		record := make(map[string]interface{}, len(header))
		for i, col := range header {
			if i < len(row) {
				record[col] = row[i]
			}
		}
		records = append(records, record)
	}

	logging.IngestDebug("Parsed %d csv rows from %s", len(records), path)
	return records, nil
}

// loadJSON parses a structured-record file: either a top-level array
// of objects, or a keyed object whose values are the records.
func loadJSON(path string) ([]map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read json file: %w", err)
	}

	var asArray []map[string]interface{}
	if err := json.Unmarshal(data, &asArray); err == nil {
		logging.IngestDebug("Parsed %d json array records from %s", len(asArray), path)
		return asArray, nil
	}

	var asObject map[string]map[string]interface{}
	if err := json.Unmarshal(data, &asObject); err != nil {
		return nil, fmt.Errorf("failed to parse json file: %w", err)
	}

	// Keyed-object form: the key becomes the id when the record does
	// not carry one itself.
	records := make([]map[string]interface{}, 0, len(asObject))
	for key, record := range asObject {
		if _, ok := record["id"]; !ok {
			record["id"] = key
		}
		records = append(records, record)
	}

	logging.IngestDebug("Parsed %d keyed json records from %s", len(records), path)
	return records, nil
}

// loadLines treats each non-empty line as a record message with all
// other fields defaulted.
func loadLines(path string) ([]map[string]interface{}, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	var records []map[string]interface{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		records = append(records, map[string]interface{}{"message": line})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan log file: %w", err)
	}

	logging.IngestDebug("Parsed %d plain text lines from %s", len(records), path)
	return records, nil
}
