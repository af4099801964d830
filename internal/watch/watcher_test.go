package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"lina/internal/logstore"
)

type fixedEmbedder struct{}

func (fixedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0, 0, 0}, nil
}

func (f fixedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0, 0}
	}
	return out, nil
}

func (fixedEmbedder) Dimensions() int { return 4 }
func (fixedEmbedder) Name() string    { return "fixed" }

func TestIsWatchedFile(t *testing.T) {
	cases := map[string]bool{
		"app.log":    true,
		"data.CSV":   true,
		"logs.json":  true,
		"notes.txt":  true,
		"binary.db":  false,
		"noext":      false,
		"image.png":  false,
	}
	for path, want := range cases {
		if got := isWatchedFile(path); got != want {
			t.Errorf("isWatchedFile(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestWatcherIngestsNewFile(t *testing.T) {
	dir := t.TempDir()

	store := logstore.Open(filepath.Join(t.TempDir(), "logs.db"), 4)
	defer store.Close()
	pipeline := logstore.NewPipeline(store, fixedEmbedder{}, 100)

	w, err := New(pipeline)
	if err != nil {
		t.Fatalf("Failed to create watcher: %v", err)
	}
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, dir) }()

	// Give the watcher a moment to register before writing.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "app.log"), []byte("line one\nline two\n"), 0644); err != nil {
		t.Fatalf("Failed to write log file: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		count, err := store.Count()
		if err != nil {
			t.Fatalf("Count failed: %v", err)
		}
		if count >= 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("Watcher did not ingest file in time, count=%d", count)
		case <-time.After(50 * time.Millisecond):
		}
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled from Run, got %v", err)
	}
}
