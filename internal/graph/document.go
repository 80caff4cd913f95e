package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"spanmark/internal/store"
)

// ReplaceDocument writes doc's node, spans and relation edges in one
// transaction, dropping whatever the document held before. The returned id
// is assigned when the Document node is first created.
func (c *Client) ReplaceDocument(ctx context.Context, doc store.DocumentInput) (string, error) {
	newID, err := store.NewDocumentID()
	if err != nil {
		return "", err
	}

	session := c.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MERGE (d:Document {filename: $filename})
ON CREATE SET d.id = $id
SET d.content_hash = $hash,
    d.char_count = $char_count,
    d.token_count = $token_count,
    d.last_ingested = datetime()
WITH d
OPTIONAL MATCH (d)-[:CONTAINS]->(old:Span)
DETACH DELETE old
RETURN DISTINCT d.id AS id
`, map[string]any{
			"filename":    doc.Filename,
			"id":          newID,
			"hash":        doc.ContentHash,
			"char_count":  doc.CharCount,
			"token_count": doc.TokenCount,
		})
		if err != nil {
			return nil, err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		id, _ := record.Get("id")

		for label, rows := range spanRows(doc) {
			query := fmt.Sprintf(`
MATCH (d:Document {filename: $filename})
UNWIND $rows AS row
CREATE (d)-[:CONTAINS]->(s:Span:%s)
SET s = row.props
`, label)
			if _, err := tx.Run(ctx, query, map[string]any{"filename": doc.Filename, "rows": rows}); err != nil {
				return nil, fmt.Errorf("creating %s spans: %w", label, err)
			}
		}

		for relType, rows := range edgeRows(doc) {
			query := fmt.Sprintf(`
UNWIND $rows AS row
MATCH (a:Span {document: $filename, begin_offset: row.from_begin, end_offset: row.from_end, semantic: row.from_semantic})
MATCH (b:Span {document: $filename, begin_offset: row.to_begin, end_offset: row.to_end, semantic: row.to_semantic})
CREATE (a)-[r:%s]->(b)
SET r = row.props
`, relType)
			if _, err := tx.Run(ctx, query, map[string]any{"filename": doc.Filename, "rows": rows}); err != nil {
				return nil, fmt.Errorf("creating %s edges: %w", relType, err)
			}
		}

		idStr, _ := id.(string)
		return idStr, nil
	})
	if err != nil {
		return "", fmt.Errorf("replacing document %s: %w", doc.Filename, err)
	}

	c.log.Debug("exported document", zap.String("file", doc.Filename),
		zap.Int("spans", len(doc.Entities)), zap.Int("edges", len(doc.Relations)))
	return result.(string), nil
}

// spanRows groups span property maps by node label. Attributes become
// attr_<name> properties.
func spanRows(doc store.DocumentInput) map[string][]map[string]any {
	rows := make(map[string][]map[string]any)
	for _, e := range doc.Entities {
		props := map[string]any{
			"document":     doc.Filename,
			"span_id":      e.SpanID,
			"offset_key":   e.OffsetKey,
			"semantic":     e.Semantic,
			"begin_offset": int64(e.Begin),
			"end_offset":   int64(e.End),
			"text":         e.Text,
			"attrs_text":   store.AttrsText(e.Attrs),
		}
		for name, value := range e.Attrs {
			props["attr_"+name] = value
		}
		label := TypeName(e.Semantic)
		rows[label] = append(rows[label], map[string]any{"props": props})
	}
	return rows
}

// edgeRows groups relation rows by relationship type. Endpoints are matched
// by span triple, the same identity relations snapshot.
func edgeRows(doc store.DocumentInput) map[string][]map[string]any {
	rows := make(map[string][]map[string]any)
	for _, r := range doc.Relations {
		props := map[string]any{
			"relation_id": r.RelationID,
			"semantic":    r.Semantic,
			"offset_key":  r.OffsetKey,
		}
		for name, value := range r.Attrs {
			props["attr_"+name] = value
		}
		relType := TypeName(r.Semantic)
		rows[relType] = append(rows[relType], map[string]any{
			"from_begin":    int64(r.From.Begin),
			"from_end":      int64(r.From.End),
			"from_semantic": r.From.Semantic,
			"to_begin":      int64(r.To.Begin),
			"to_end":        int64(r.To.End),
			"to_semantic":   r.To.Semantic,
			"props":         props,
		})
	}
	return rows
}

func (c *Client) GetDocumentHashes(ctx context.Context) (map[string]string, error) {
	if c == nil {
		return nil, fmt.Errorf("graph client is nil")
	}
	session := c.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `MATCH (d:Document) RETURN d.filename AS filename, d.content_hash AS hash`, nil)
		if err != nil {
			return nil, err
		}
		values := make(map[string]string)
		for res.Next(ctx) {
			record := res.Record()
			filenameValue, _ := record.Get("filename")
			filename, ok := filenameValue.(string)
			if !ok || filename == "" {
				continue
			}
			hashValue, _ := record.Get("hash")
			hash, _ := hashValue.(string)
			values[filename] = hash
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return values, nil
	})
	if err != nil {
		return nil, fmt.Errorf("query document hashes: %w", err)
	}
	return result.(map[string]string), nil
}
