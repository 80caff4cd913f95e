package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"spanmark/internal/store"
)

func (c *Client) ReplaceDocument(ctx context.Context, doc store.DocumentInput) (string, error) {
	newID, err := store.NewDocumentID()
	if err != nil {
		return "", err
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var id string
	err = tx.QueryRowContext(ctx, `
	INSERT INTO documents (id, filename, content, content_hash, char_count, token_count, ingested_at)
	VALUES (?, ?, ?, ?, ?, ?, datetime('now'))
	ON CONFLICT (filename) DO UPDATE SET
		content = excluded.content,
		content_hash = excluded.content_hash,
		char_count = excluded.char_count,
		token_count = excluded.token_count,
		ingested_at = datetime('now')
	RETURNING id
	`, newID, doc.Filename, doc.Content, doc.ContentHash, doc.CharCount, doc.TokenCount).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("upserting document %s: %w", doc.Filename, err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM spans WHERE document_id = ?", id); err != nil {
		return "", fmt.Errorf("clearing spans of %s: %w", doc.Filename, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM links WHERE document_id = ?", id); err != nil {
		return "", fmt.Errorf("clearing links of %s: %w", doc.Filename, err)
	}

	if err := insertSpans(ctx, tx, id, doc.Entities); err != nil {
		return "", fmt.Errorf("storing spans of %s: %w", doc.Filename, err)
	}
	if err := insertLinks(ctx, tx, id, doc.Relations); err != nil {
		return "", fmt.Errorf("storing links of %s: %w", doc.Filename, err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing document %s: %w", doc.Filename, err)
	}
	c.log.Debug("stored document", zap.String("file", doc.Filename), zap.String("id", id),
		zap.Int("entities", len(doc.Entities)), zap.Int("relations", len(doc.Relations)))
	return id, nil
}

func insertSpans(ctx context.Context, tx *sql.Tx, documentID string, entities []store.EntityInput) error {
	if len(entities) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO spans (document_id, span_id, offset_key, semantic, begin_offset, end_offset, text, attrs, attrs_text)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing span insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entities {
		attrs, err := store.EncodeAttrs(e.Attrs)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, documentID, e.SpanID, e.OffsetKey, e.Semantic, e.Begin, e.End, e.Text, string(attrs), store.AttrsText(e.Attrs)); err != nil {
			return fmt.Errorf("inserting span %s: %w", e.SpanID, err)
		}
	}
	return nil
}

func insertLinks(ctx context.Context, tx *sql.Tx, documentID string, relations []store.RelationInput) error {
	if len(relations) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO links (document_id, relation_id, offset_key, semantic,
		from_begin, from_end, from_semantic, from_text, to_begin, to_end, to_semantic, to_text, attrs)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing link insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range relations {
		attrs, err := store.EncodeAttrs(r.Attrs)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, documentID, r.RelationID, r.OffsetKey, r.Semantic,
			r.From.Begin, r.From.End, r.From.Semantic, r.From.Text,
			r.To.Begin, r.To.End, r.To.Semantic, r.To.Text, string(attrs)); err != nil {
			return fmt.Errorf("inserting link %s: %w", r.RelationID, err)
		}
	}
	return nil
}

func (c *Client) ListDocuments(ctx context.Context) ([]store.DocumentSummary, error) {
	rows, err := c.db.QueryContext(ctx, `
	SELECT d.id, d.filename, d.content_hash, d.char_count, d.token_count,
		(SELECT COUNT(*) FROM spans s WHERE s.document_id = d.id),
		(SELECT COUNT(*) FROM links l WHERE l.document_id = d.id)
	FROM documents d
	ORDER BY d.filename ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	results := []store.DocumentSummary{}
	for rows.Next() {
		var d store.DocumentSummary
		if err := rows.Scan(&d.ID, &d.Filename, &d.ContentHash, &d.CharCount, &d.TokenCount, &d.EntityCount, &d.RelationCount); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		results = append(results, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return results, nil
}

func (c *Client) ListEntities(ctx context.Context, filename, semantic string) ([]store.EntityRecord, error) {
	rows, err := c.db.QueryContext(ctx, `
	SELECT d.filename, s.span_id, s.semantic, s.begin_offset, s.end_offset, s.text, s.attrs
	FROM spans s
	JOIN documents d ON d.id = s.document_id
	WHERE (? = '' OR d.filename = ?)
	  AND (? = '' OR s.semantic = ?)
	ORDER BY d.filename ASC, s.begin_offset ASC, s.id ASC
	`, filename, filename, semantic, semantic)
	if err != nil {
		return nil, fmt.Errorf("listing entities: %w", err)
	}
	defer rows.Close()

	results := []store.EntityRecord{}
	for rows.Next() {
		var r store.EntityRecord
		var attrs []byte
		if err := rows.Scan(&r.Filename, &r.SpanID, &r.Semantic, &r.Begin, &r.End, &r.Text, &attrs); err != nil {
			return nil, fmt.Errorf("scanning entity: %w", err)
		}
		if r.Attrs, err = store.DecodeAttrs(attrs); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entities: %w", err)
	}
	return results, nil
}

func (c *Client) ListRelations(ctx context.Context, filename, semantic string) ([]store.RelationRecord, error) {
	rows, err := c.db.QueryContext(ctx, `
	SELECT d.filename, l.relation_id, l.semantic,
		l.from_begin, l.from_end, l.from_semantic, l.from_text,
		l.to_begin, l.to_end, l.to_semantic, l.to_text,
		l.attrs
	FROM links l
	JOIN documents d ON d.id = l.document_id
	WHERE (? = '' OR d.filename = ?)
	  AND (? = '' OR l.semantic = ?)
	ORDER BY d.filename ASC, l.from_begin ASC, l.id ASC
	`, filename, filename, semantic, semantic)
	if err != nil {
		return nil, fmt.Errorf("listing relations: %w", err)
	}
	defer rows.Close()

	results := []store.RelationRecord{}
	for rows.Next() {
		var r store.RelationRecord
		var attrs []byte
		if err := rows.Scan(&r.Filename, &r.RelationID, &r.Semantic,
			&r.From.Begin, &r.From.End, &r.From.Semantic, &r.From.Text,
			&r.To.Begin, &r.To.End, &r.To.Semantic, &r.To.Text, &attrs); err != nil {
			return nil, fmt.Errorf("scanning relation: %w", err)
		}
		if r.Attrs, err = store.DecodeAttrs(attrs); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating relations: %w", err)
	}
	return results, nil
}
