package ingest

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
	"go.uber.org/zap"

	"spanmark/internal/annotation"
	"spanmark/internal/store"
	"spanmark/internal/workspace"
)

// Store is the part of store.Store a sync needs.
type Store interface {
	EnsureSchema(ctx context.Context) error
	GetDocumentHashes(ctx context.Context) (map[string]string, error)
	ReplaceDocument(ctx context.Context, doc store.DocumentInput) (string, error)
	RemoveStaleDocuments(ctx context.Context, currentFilenames []string) (int64, error)
}

type Result struct {
	DocumentsStored  int
	DocumentsSkipped int
	DocumentsRemoved int
	EntitiesStored   int
	RelationsStored  int
	Errors           []error
}

type Options struct {
	// Full re-stores every document even when its hash is unchanged.
	Full   bool
	Logger *zap.Logger
}

// Run syncs docs into db. Unchanged documents are skipped by content hash,
// and stored documents no longer in docs are removed. Per document failures
// are collected in Result.Errors; only setup failures abort the run.
func Run(ctx context.Context, docs []*annotation.Document, db Store, options Options) (*Result, error) {
	log := options.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if err := db.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	var existing map[string]string
	if !options.Full {
		var err error
		existing, err = db.GetDocumentHashes(ctx)
		if err != nil {
			return nil, fmt.Errorf("get document hashes: %w", err)
		}
	}

	result := &Result{}
	current := make([]string, 0, len(docs))
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		current = append(current, doc.Filename)

		hash, err := Hash(doc)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("hashing %s: %w", doc.Filename, err))
			continue
		}
		if prev, ok := existing[doc.Filename]; ok && prev == hash {
			result.DocumentsSkipped++
			continue
		}

		input := Input(doc, hash)
		if _, err := db.ReplaceDocument(ctx, input); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("storing %s: %w", doc.Filename, err))
			continue
		}
		result.DocumentsStored++
		result.EntitiesStored += len(input.Entities)
		result.RelationsStored += len(input.Relations)
		log.Debug("ingested document", zap.String("file", doc.Filename),
			zap.Int("entities", len(input.Entities)), zap.Int("relations", len(input.Relations)))
	}

	removed, err := db.RemoveStaleDocuments(ctx, current)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Errorf("removing stale documents: %w", err))
	} else {
		result.DocumentsRemoved = int(removed)
	}

	return result, nil
}

// Hash is the blake3 digest of the document as it is written to disk, so any
// change to content, spans or attributes changes it.
func Hash(doc *annotation.Document) (string, error) {
	data, err := workspace.Encode(doc)
	if err != nil {
		return "", err
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Input flattens a document into the rows a store keeps: one per entity with
// its covered text, one per relation with both endpoint snapshots.
func Input(doc *annotation.Document, hash string) store.DocumentInput {
	units := annotation.Units(doc.Content)
	input := store.DocumentInput{
		Filename:    doc.Filename,
		Content:     doc.Content,
		ContentHash: hash,
		CharCount:   len(units),
		TokenCount:  doc.TokenCount(),
	}
	for _, entry := range doc.Indexes.Entities() {
		e := entry.Entity
		input.Entities = append(input.Entities, store.EntityInput{
			SpanID:    e.ID,
			OffsetKey: entry.OffsetKey,
			Semantic:  e.Semantic,
			Begin:     e.Begin,
			End:       e.End,
			Text:      annotation.SliceUnits(units, e.Begin, e.End),
			Attrs:     attrValues(e.Attrs),
		})
	}
	for _, entry := range doc.Indexes.Relations() {
		r := entry.Relation
		input.Relations = append(input.Relations, store.RelationInput{
			RelationID: r.ID,
			OffsetKey:  entry.OffsetKey,
			Semantic:   r.Semantic,
			From:       spanRef(units, r.From),
			To:         spanRef(units, r.To),
			Attrs:      attrValues(r.Attrs),
		})
	}
	return input
}

func spanRef(units []uint16, ref annotation.EntityRef) store.SpanRef {
	return store.SpanRef{
		Begin:    ref.Begin,
		End:      ref.End,
		Semantic: ref.Semantic,
		Text:     annotation.SliceUnits(units, ref.Begin, ref.End),
	}
}

func attrValues(attrs map[string]*annotation.Attribute) map[string]string {
	values := make(map[string]string, len(attrs))
	for name, attr := range attrs {
		if attr != nil {
			values[name] = attr.Value
		}
	}
	return values
}
