//go:build integration

package postgres

import (
	"context"
	"os"
	"testing"

	"spanmark/internal/store"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	dsn := os.Getenv("SPANMARK_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("SPANMARK_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	client, err := New(ctx, dsn, nil)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { client.Close(ctx) })
	if err := client.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensuring schema: %v", err)
	}
	if _, err := client.pool.Exec(ctx, "TRUNCATE documents CASCADE"); err != nil {
		t.Fatalf("truncating: %v", err)
	}
	return client
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	doc := store.DocumentInput{
		Filename:    "news.json",
		Content:     "Alice works at Acme.",
		ContentHash: "h1",
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
	if _, err := client.ReplaceDocument(ctx, doc); err != nil {
		t.Fatalf("storing document: %v", err)
	}

	relations, err := client.ListRelations(ctx, "", "WORKS_FOR")
	if err != nil || len(relations) != 1 || relations[0].To.Text != "Acme" {
		t.Fatalf("unexpected relations: %+v %v", relations, err)
	}

	results, err := client.Search(ctx, "alice", "")
	if err != nil || len(results) != 1 || results[0].SpanID != "1" {
		t.Fatalf("unexpected results: %+v %v", results, err)
	}

	table, err := client.RunSQL(ctx, "SELECT text FROM spans WHERE semantic = $1", "ORG")
	if err != nil || len(table.Rows) != 1 || table.Rows[0][0] != "Acme" {
		t.Fatalf("unexpected sql result: %+v %v", table, err)
	}
	if _, err := client.RunSQL(ctx, "DELETE FROM spans"); err == nil {
		t.Fatalf("expected write to be rejected")
	}

	removed, err := client.RemoveStaleDocuments(ctx, []string{"other.json"})
	if err != nil || removed != 1 {
		t.Fatalf("expected 1 removed, got %d (%v)", removed, err)
	}
}
