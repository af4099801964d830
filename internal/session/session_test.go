package session

import (
	"context"
	"path/filepath"
	"testing"
)

func TestAppendTurnIsAppendOnly(t *testing.T) {
	state := NewState("s1")
	state.AppendTurn(RoleUser, "first question")
	state.AppendTurn(RoleAssistant, "first answer")
	state.AppendTurn(RoleUser, "second question")
	state.AppendTurn(RoleAssistant, "second answer")

	if len(state.Turns) != 4 {
		t.Fatalf("Expected 4 turns, got %d", len(state.Turns))
	}
	if state.Turns[0].Content != "first question" || state.Turns[3].Content != "second answer" {
		t.Errorf("Turn order not preserved: %+v", state.Turns)
	}
	if state.Turns[0].Role != RoleUser || state.Turns[1].Role != RoleAssistant {
		t.Errorf("Turn roles wrong: %+v", state.Turns[:2])
	}
}

func TestCloneIsDeep(t *testing.T) {
	state := NewState("s1")
	state.AppendTurn(RoleUser, "hello")
	state.Analysis = &LogAnalysis{Summary: "all quiet"}

	clone := state.Clone()
	clone.AppendTurn(RoleAssistant, "hi")
	clone.Analysis.Summary = "changed"

	if len(state.Turns) != 1 {
		t.Errorf("Clone mutation leaked into original turns: %d", len(state.Turns))
	}
	if state.Analysis.Summary != "all quiet" {
		t.Errorf("Clone mutation leaked into original analysis: %q", state.Analysis.Summary)
	}
}

func testStores(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := NewSQLiteStore(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("Failed to open sqlite session store: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqlite,
	}
}

func TestStoreLoadCreatesFreshState(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			state, err := store.Load(context.Background(), "new-session")
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if state.ID != "new-session" {
				t.Errorf("Expected id new-session, got %q", state.ID)
			}
			if len(state.Turns) != 0 {
				t.Errorf("Fresh state should have no turns, got %d", len(state.Turns))
			}
		})
	}
}

func TestStoreRoundTrip(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			state := NewState("s1")
			state.AppendTurn(RoleUser, "analyze my logs")
			state.AppendTurn(RoleAssistant, "two anomalies found")
			state.Analysis = &LogAnalysis{Summary: "two anomalies", Severity: "high"}
			state.Output = "two anomalies found"

			if err := store.Save(ctx, state); err != nil {
				t.Fatalf("Save failed: %v", err)
			}

			loaded, err := store.Load(ctx, "s1")
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if len(loaded.Turns) != 2 {
				t.Fatalf("Expected 2 turns, got %d", len(loaded.Turns))
			}
			if loaded.Analysis == nil || loaded.Analysis.Severity != "high" {
				t.Errorf("Structured result not persisted: %+v", loaded.Analysis)
			}
			if loaded.Output != "two anomalies found" {
				t.Errorf("Output not persisted: %q", loaded.Output)
			}

			// Saving again after more turns must extend, not replace,
			// the history seen by the next load.
			loaded.AppendTurn(RoleUser, "and the root cause?")
			loaded.AppendTurn(RoleAssistant, "failing disk on sda")
			if err := store.Save(ctx, loaded); err != nil {
				t.Fatalf("Second save failed: %v", err)
			}
			again, err := store.Load(ctx, "s1")
			if err != nil {
				t.Fatalf("Second load failed: %v", err)
			}
			if len(again.Turns) != 4 {
				t.Errorf("Expected 4 turns after second save, got %d", len(again.Turns))
			}
		})
	}
}

func TestMemoryStoreIsolation(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	state := NewState("s1")
	state.AppendTurn(RoleUser, "hello")
	if err := store.Save(ctx, state); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Mutating the caller's copy after save must not affect the store.
	state.AppendTurn(RoleUser, "mutation after save")

	loaded, err := store.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded.Turns) != 1 {
		t.Errorf("Store should hold a copy, got %d turns", len(loaded.Turns))
	}
}
