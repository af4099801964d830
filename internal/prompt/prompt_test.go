package prompt

import (
	"strings"
	"testing"
)

func TestFormatLogContextEmpty(t *testing.T) {
	got := FormatLogContext(nil)
	if got != "No logs retrieved from storage." {
		t.Errorf("empty context = %q", got)
	}
}

func TestFormatLogContextNumbersLines(t *testing.T) {
	got := FormatLogContext([]string{"first", "second"})
	if !strings.Contains(got, "1. first\n") || !strings.Contains(got, "2. second\n") {
		t.Errorf("context missing numbered lines:\n%s", got)
	}
}

func TestAnalyzerUserCombines(t *testing.T) {
	got := AnalyzerUser("why did nginx crash?", "No logs retrieved from storage.")
	if !strings.Contains(got, "why did nginx crash?") {
		t.Errorf("query missing from prompt:\n%s", got)
	}
	if !strings.Contains(got, "No logs retrieved from storage.") {
		t.Errorf("context missing from prompt:\n%s", got)
	}
}

func TestHistoryBlock(t *testing.T) {
	if got := HistoryBlock(nil); got != "" {
		t.Errorf("empty history = %q", got)
	}
	got := HistoryBlock([]string{"user: hi", "assistant: hello"})
	if !strings.Contains(got, "user: hi\nassistant: hello") {
		t.Errorf("history block = %q", got)
	}
}
