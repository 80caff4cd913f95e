//go:build integration

package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"spanmark/internal/store"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	ctx := context.Background()
	dsn := "sqlite://" + filepath.Join(t.TempDir(), "spanmark.db")
	client, err := New(ctx, dsn, nil)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { client.Close(ctx) })
	if err := client.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensuring schema: %v", err)
	}
	return client
}

func newsDocument(hash string) store.DocumentInput {
	return store.DocumentInput{
		Filename:    "news.json",
		Content:     "Alice works at Acme.",
		ContentHash: hash,
		CharCount:   20,
		TokenCount:  4,
		Entities: []store.EntityInput{
			{SpanID: "1", OffsetKey: "0", Semantic: "PERSON", Begin: 0, End: 5, Text: "Alice", Attrs: map[string]string{"role": "author"}},
			{SpanID: "2", OffsetKey: "15", Semantic: "ORG", Begin: 15, End: 19, Text: "Acme"},
		},
		Relations: []store.RelationInput{
			{RelationID: "3", OffsetKey: "0", Semantic: "WORKS_FOR",
				From: store.SpanRef{Begin: 0, End: 5, Semantic: "PERSON", Text: "Alice"},
				To:   store.SpanRef{Begin: 15, End: 19, Semantic: "ORG", Text: "Acme"}},
		},
	}
}

func TestReplaceDocument(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	id, err := client.ReplaceDocument(ctx, newsDocument("h1"))
	if err != nil {
		t.Fatalf("storing document: %v", err)
	}

	again := newsDocument("h2")
	again.Entities = again.Entities[:1]
	again.Relations = nil
	id2, err := client.ReplaceDocument(ctx, again)
	if err != nil {
		t.Fatalf("replacing document: %v", err)
	}
	if id != id2 {
		t.Fatalf("expected stable document id, got %s then %s", id, id2)
	}

	docs, err := client.ListDocuments(ctx)
	if err != nil {
		t.Fatalf("listing documents: %v", err)
	}
	if len(docs) != 1 || docs[0].EntityCount != 1 || docs[0].RelationCount != 0 || docs[0].ContentHash != "h2" {
		t.Fatalf("unexpected documents: %+v", docs)
	}

	hashes, err := client.GetDocumentHashes(ctx)
	if err != nil || hashes["news.json"] != "h2" {
		t.Fatalf("unexpected hashes: %v %v", hashes, err)
	}
}

func TestQueries(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	if _, err := client.ReplaceDocument(ctx, newsDocument("h1")); err != nil {
		t.Fatalf("storing document: %v", err)
	}

	t.Run("entities", func(t *testing.T) {
		entities, err := client.ListEntities(ctx, "", "PERSON")
		if err != nil {
			t.Fatalf("listing entities: %v", err)
		}
		if len(entities) != 1 || entities[0].Text != "Alice" || entities[0].Attrs["role"] != "author" {
			t.Fatalf("unexpected entities: %+v", entities)
		}
	})

	t.Run("relations carry endpoint text", func(t *testing.T) {
		relations, err := client.ListRelations(ctx, "news.json", "")
		if err != nil {
			t.Fatalf("listing relations: %v", err)
		}
		if len(relations) != 1 || relations[0].From.Text != "Alice" || relations[0].To.Text != "Acme" {
			t.Fatalf("unexpected relations: %+v", relations)
		}
	})

	t.Run("search", func(t *testing.T) {
		results, err := client.Search(ctx, "author", "")
		if err != nil {
			t.Fatalf("searching: %v", err)
		}
		if len(results) != 1 || results[0].SpanID != "1" {
			t.Fatalf("unexpected results: %+v", results)
		}
	})

	t.Run("run sql", func(t *testing.T) {
		table, err := client.RunSQL(ctx, "SELECT text, begin_offset FROM spans WHERE semantic = ?", "ORG")
		if err != nil {
			t.Fatalf("running sql: %v", err)
		}
		if len(table.Columns) != 2 || table.Columns[0] != "text" {
			t.Fatalf("unexpected columns: %v", table.Columns)
		}
		if texts := table.Column("text"); len(texts) != 1 || texts[0] != "Acme" {
			t.Fatalf("unexpected rows: %+v", table.Rows)
		}
	})

	t.Run("run sql rejects writes", func(t *testing.T) {
		if _, err := client.RunSQL(ctx, "DELETE FROM spans"); err == nil {
			t.Fatalf("expected write to be rejected")
		}
		entities, err := client.ListEntities(ctx, "", "")
		if err != nil || len(entities) != 2 {
			t.Fatalf("expected spans untouched, got %d (%v)", len(entities), err)
		}
	})

	t.Run("stale documents", func(t *testing.T) {
		removed, err := client.RemoveStaleDocuments(ctx, []string{"other.json"})
		if err != nil || removed != 1 {
			t.Fatalf("expected 1 removed, got %d (%v)", removed, err)
		}
		entities, err := client.ListEntities(ctx, "", "")
		if err != nil || len(entities) != 0 {
			t.Fatalf("expected spans removed with document: %+v %v", entities, err)
		}
	})
}
