// Package handlers implements the four handler kinds dispatched by the
// engine: log analysis, network design, server management, and chat.
// Each handler merges its structured result into the session state and
// returns the turn's output text.
package handlers

import (
	"encoding/json"
	"fmt"
	"strings"
)

// decodeStrict parses the model's JSON output into out, first checking
// that every required field is present. A missing field or malformed
// JSON is a shape mismatch the caller reports as a generation failure;
// values are never coerced or defaulted.
func decodeStrict(raw string, required []string, out interface{}) error {
	cleaned := stripCodeFences(raw)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		return fmt.Errorf("output is not a JSON object: %w", err)
	}
	for _, name := range required {
		if _, ok := fields[name]; !ok {
			return fmt.Errorf("output missing required field %q", name)
		}
	}
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return fmt.Errorf("output does not match expected shape: %w", err)
	}
	return nil
}

// stripCodeFences removes a surrounding markdown code fence if the
// model wrapped its JSON in one.
func stripCodeFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Drop a language tag like "json" or "bash" on the fence line.
	if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsAny(s[:nl], " \t{[") {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// objectSchema builds a Gemini response_schema for an object whose
// properties are all required.
func objectSchema(props map[string]interface{}, required []string) map[string]interface{} {
	return map[string]interface{}{
		"type":       "OBJECT",
		"properties": props,
		"required":   required,
	}
}

func stringProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "STRING", "description": description}
}

func stringArrayProp(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "ARRAY",
		"items":       map[string]interface{}{"type": "STRING"},
		"description": description,
	}
}
