//go:build integration

package graph

import (
	"context"
	"os"
	"testing"
)

func testClient(t *testing.T) *Client {
	t.Helper()
	uri := os.Getenv("SPANMARK_TEST_NEO4J_URI")
	if uri == "" {
		uri = "bolt://localhost:7687"
	}
	ctx := context.Background()
	client, err := NewClient(ctx, uri, "neo4j", "changeme", "neo4j", nil)
	if err != nil {
		t.Fatalf("connecting to test neo4j: %v", err)
	}
	t.Cleanup(func() { _ = client.Close(ctx) })
	if err := client.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	if _, err := client.RemoveStaleDocuments(ctx, []string{"__none__"}); err != nil {
		t.Fatalf("clearing documents: %v", err)
	}
	return client
}

func TestReplaceDocument(t *testing.T) {
	ctx := context.Background()
	client := testClient(t)

	doc := testDocument()
	doc.ContentHash = "h1"
	id, err := client.ReplaceDocument(ctx, doc)
	if err != nil {
		t.Fatalf("replace document: %v", err)
	}
	doc.ContentHash = "h2"
	id2, err := client.ReplaceDocument(ctx, doc)
	if err != nil {
		t.Fatalf("replace document again: %v", err)
	}
	if id == "" || id != id2 {
		t.Fatalf("expected stable id, got %q then %q", id, id2)
	}

	table, err := client.RunCypher(ctx, `MATCH (:Document {filename: $f})-[:CONTAINS]->(s:Span) RETURN count(s) AS spans`, map[string]any{"f": "news.json"})
	if err != nil || len(table.Rows) != 1 || table.Rows[0][0] != int64(3) {
		t.Fatalf("unexpected span count: %v %v", table, err)
	}
	table, err = client.RunCypher(ctx, `MATCH (a:PERSON)-[r:WORKS_FOR]->(b:ORG_UNIT) RETURN a.text AS from, b.text AS to, r.attr_since AS since`, nil)
	if err != nil || len(table.Rows) != 1 {
		t.Fatalf("unexpected edge: %v %v", table, err)
	}
	if edge := table.Records()[0]; edge["from"] != "Alice" || edge["since"] != "2020" {
		t.Fatalf("unexpected edge: %v", edge)
	}

	hashes, err := client.GetDocumentHashes(ctx)
	if err != nil || hashes["news.json"] != "h2" {
		t.Fatalf("unexpected hashes: %v %v", hashes, err)
	}

	removed, err := client.RemoveStaleDocuments(ctx, []string{"other.json"})
	if err != nil || removed != 1 {
		t.Fatalf("expected 1 removed, got %d (%v)", removed, err)
	}
}
