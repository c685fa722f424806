// Package ingest loads raw CSV listing files from object storage,
// normalizes each row, embeds the combined text, and writes the result
// to the vector index.
package ingest

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"

	"propchat/internal/model"
	"propchat/internal/normalize"
)

// ObjectReader reads raw source files from object storage
type ObjectReader interface {
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)
}

// Embedder turns text into a fixed-length vector
type Embedder interface {
	CreateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// Indexer stores a canonical document with its embedding
type Indexer interface {
	IndexListing(ctx context.Context, doc *model.Listing, embedding []float32) error
}

// Pipeline runs the ingestion flow for one object
type Pipeline struct {
	objects  ObjectReader
	embedder Embedder
	index    Indexer
}

// NewPipeline creates a new ingestion pipeline
func NewPipeline(objects ObjectReader, embedder Embedder, index Indexer) *Pipeline {
	return &Pipeline{
		objects:  objects,
		embedder: embedder,
		index:    index,
	}
}

// ProcessObject ingests one CSV object. Rows are processed strictly
// sequentially: one embedding call and one index write per row. Rows
// without a listing_id are skipped before any embedding call; per-row
// failures are counted and the batch continues. An unreadable source
// object aborts the whole invocation.
func (p *Pipeline) ProcessObject(ctx context.Context, bucket, key string) (*model.IngestSummary, error) {
	log.Printf("Processing object %s/%s", bucket, key)

	data, err := p.objects.GetObject(ctx, bucket, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read source object: %w", err)
	}

	rows, err := readCSVRows(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}

	log.Printf("Found %d rows", len(rows))

	summary := &model.IngestSummary{Total: len(rows)}

	for _, row := range rows {
		doc := normalize.ParseRow(row)
		if doc == nil {
			// No identifier: rejected before any remote call
			continue
		}

		doc.CombinedText = normalize.CombinedText(row)

		embedding, err := p.embedder.CreateEmbedding(ctx, doc.CombinedText)
		if err != nil {
			log.Printf("Embedding error for listing %s: %v", doc.ListingID, err)
			summary.Failed++
			continue
		}

		if err := p.index.IndexListing(ctx, doc, embedding); err != nil {
			log.Printf("Index error for listing %s: %v", doc.ListingID, err)
			summary.Failed++
			continue
		}

		summary.Processed++
		if summary.Processed%25 == 0 {
			log.Printf("Processed %d documents...", summary.Processed)
		}
	}

	log.Printf("Complete: %d processed, %d failed, %d total", summary.Processed, summary.Failed, summary.Total)
	return summary, nil
}

// readCSVRows parses a CSV file with a header row into column maps
func readCSVRows(data []byte) ([]map[string]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("empty file")
		}
		return nil, err
	}

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
