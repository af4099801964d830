package logstore

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"lina/internal/embedding"
	"lina/internal/logging"
)

// embedConcurrency bounds the number of embedding batches in flight.
const embedConcurrency = 4

// Pipeline wires the normalization layer, the embedding engine, and
// the store into a batched ingestion path.
type Pipeline struct {
	store     *Store
	engine    embedding.Engine
	batchSize int
}

// NewPipeline creates an ingestion pipeline. batchSize controls how
// many records are embedded and inserted per batch.
func NewPipeline(store *Store, engine embedding.Engine, batchSize int) *Pipeline {
	if batchSize <= 0 {
		batchSize = 1000
	}
	return &Pipeline{store: store, engine: engine, batchSize: batchSize}
}

// IngestFile loads, normalizes, embeds, and persists a log file.
// Returns the number of records actually inserted.
func (p *Pipeline) IngestFile(ctx context.Context, path string) (int, error) {
	timer := logging.StartTimer(logging.CategoryIngest, "IngestFile")
	defer timer.StopWithInfo()

	raw, err := LoadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to load %s: %w", path, err)
	}

	records, retained := Normalize(raw)
	if retained == 0 {
		logging.Ingest("No records retained from %s", path)
		return 0, nil
	}

	return p.IngestRecords(ctx, records)
}

// IngestRecords embeds and persists canonical records in batches.
// Batches are embedded concurrently; per-record embedding failures
// leave the record without an embedding and it is skipped at insert
// time rather than failing the batch.
func (p *Pipeline) IngestRecords(ctx context.Context, records []Record) (int, error) {
	logging.Ingest("Ingesting %d records in batches of %d", len(records), p.batchSize)

	var inserted atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)

	for start := 0; start < len(records); start += p.batchSize {
		end := start + p.batchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]

		g.Go(func() error {
			texts := make([]string, len(batch))
			for i, rec := range batch {
				texts[i] = rec.Message
			}

			vectors, err := p.engine.EmbedBatch(ctx, texts)
			if err != nil {
				return fmt.Errorf("embedding batch failed: %w", err)
			}
			for i := range batch {
				if vectors[i] != nil {
					batch[i].Embedding = embedding.NormalizeDim(vectors[i], p.store.Dimensions())
				}
			}

			n, err := p.store.Insert(batch)
			inserted.Add(int64(n))
			if err != nil {
				return fmt.Errorf("insert batch failed: %w", err)
			}
			return nil
		})
	}

	err := g.Wait()
	total := int(inserted.Load())
	logging.Ingest("Ingestion complete: %d records inserted", total)
	return total, err
}
