package graph

import (
	"testing"

	"spanmark/internal/store"
)

func testDocument() store.DocumentInput {
	return store.DocumentInput{
		Filename: "news.json",
		Entities: []store.EntityInput{
			{SpanID: "1", OffsetKey: "0", Semantic: "PERSON", Begin: 0, End: 5, Text: "Alice", Attrs: map[string]string{"role": "author"}},
			{SpanID: "2", OffsetKey: "10", Semantic: "PERSON", Begin: 10, End: 13, Text: "Bob"},
			{SpanID: "3", OffsetKey: "20", Semantic: "org unit", Begin: 20, End: 24, Text: "Acme"},
		},
		Relations: []store.RelationInput{
			{RelationID: "4", OffsetKey: "0", Semantic: "works for",
				From: store.SpanRef{Begin: 0, End: 5, Semantic: "PERSON"},
				To:   store.SpanRef{Begin: 20, End: 24, Semantic: "org unit"},
				Attrs: map[string]string{"since": "2020"}},
		},
	}
}

func TestSpanRows(t *testing.T) {
	rows := spanRows(testDocument())
	if len(rows) != 2 || len(rows["PERSON"]) != 2 || len(rows["ORG_UNIT"]) != 1 {
		t.Fatalf("unexpected grouping: %v", rows)
	}
	props := rows["PERSON"][0]["props"].(map[string]any)
	if props["document"] != "news.json" || props["text"] != "Alice" || props["attr_role"] != "author" {
		t.Fatalf("unexpected props: %v", props)
	}
	if props["begin_offset"] != int64(0) || props["end_offset"] != int64(5) || props["attrs_text"] != "role author" {
		t.Fatalf("unexpected offsets: %v", props)
	}
}

func TestEdgeRows(t *testing.T) {
	rows := edgeRows(testDocument())
	edges := rows["WORKS_FOR"]
	if len(rows) != 1 || len(edges) != 1 {
		t.Fatalf("unexpected grouping: %v", rows)
	}
	edge := edges[0]
	if edge["from_begin"] != int64(0) || edge["to_semantic"] != "org unit" {
		t.Fatalf("unexpected endpoints: %v", edge)
	}
	props := edge["props"].(map[string]any)
	if props["relation_id"] != "4" || props["attr_since"] != "2020" {
		t.Fatalf("unexpected props: %v", props)
	}
}
