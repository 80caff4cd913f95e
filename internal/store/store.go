package store

import (
	"context"
)

// Store holds synced annotation documents for search and ad hoc queries.
// Documents are keyed by filename; a document's entities and relations are
// always replaced together.
type Store interface {
	Close(ctx context.Context) error
	EnsureSchema(ctx context.Context) error

	ReplaceDocument(ctx context.Context, doc DocumentInput) (string, error)
	RemoveStaleDocuments(ctx context.Context, currentFilenames []string) (int64, error)
	GetDocumentHashes(ctx context.Context) (map[string]string, error)

	ListDocuments(ctx context.Context) ([]DocumentSummary, error)
	ListEntities(ctx context.Context, filename, semantic string) ([]EntityRecord, error)
	ListRelations(ctx context.Context, filename, semantic string) ([]RelationRecord, error)
	Search(ctx context.Context, query, semantic string) ([]SearchResult, error)

	// RunSQL runs an ad hoc read query. Writes are rejected.
	RunSQL(ctx context.Context, query string, args ...any) (*Table, error)
}
