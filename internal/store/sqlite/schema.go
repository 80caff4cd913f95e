package sqlite

import (
	"context"
	"fmt"
	"strings"
)

const ddl = `
CREATE TABLE IF NOT EXISTS documents (
	id           TEXT PRIMARY KEY,
	filename     TEXT NOT NULL UNIQUE,
	content      TEXT NOT NULL DEFAULT '',
	content_hash TEXT NOT NULL DEFAULT '',
	char_count   INTEGER NOT NULL DEFAULT 0,
	token_count  INTEGER NOT NULL DEFAULT 0,
	ingested_at  TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS spans (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	document_id  TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	span_id      TEXT NOT NULL,
	offset_key   TEXT NOT NULL,
	semantic     TEXT NOT NULL,
	begin_offset INTEGER NOT NULL,
	end_offset   INTEGER NOT NULL,
	text         TEXT NOT NULL DEFAULT '',
	attrs        TEXT NOT NULL DEFAULT '{}',
	attrs_text   TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS links (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	document_id   TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	relation_id   TEXT NOT NULL,
	offset_key    TEXT NOT NULL,
	semantic      TEXT NOT NULL,
	from_begin    INTEGER NOT NULL,
	from_end      INTEGER NOT NULL,
	from_semantic TEXT NOT NULL,
	from_text     TEXT NOT NULL DEFAULT '',
	to_begin      INTEGER NOT NULL,
	to_end        INTEGER NOT NULL,
	to_semantic   TEXT NOT NULL,
	to_text       TEXT NOT NULL DEFAULT '',
	attrs         TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_spans_document ON spans (document_id);
CREATE INDEX IF NOT EXISTS idx_spans_semantic ON spans (semantic);
CREATE INDEX IF NOT EXISTS idx_spans_document_begin ON spans (document_id, begin_offset);
CREATE INDEX IF NOT EXISTS idx_links_document ON links (document_id);
CREATE INDEX IF NOT EXISTS idx_links_semantic ON links (semantic);

CREATE VIRTUAL TABLE IF NOT EXISTS spans_fts USING fts5(
	text,
	semantic,
	attrs_text,
	content=spans,
	content_rowid=id
);

CREATE TRIGGER IF NOT EXISTS spans_ai AFTER INSERT ON spans BEGIN
	INSERT INTO spans_fts(rowid, text, semantic, attrs_text)
	VALUES (new.id, new.text, new.semantic, new.attrs_text);
END;

CREATE TRIGGER IF NOT EXISTS spans_ad AFTER DELETE ON spans BEGIN
	INSERT INTO spans_fts(spans_fts, rowid, text, semantic, attrs_text)
	VALUES ('delete', old.id, old.text, old.semantic, old.attrs_text);
END;

CREATE TRIGGER IF NOT EXISTS spans_au AFTER UPDATE ON spans BEGIN
	INSERT INTO spans_fts(spans_fts, rowid, text, semantic, attrs_text)
	VALUES ('delete', old.id, old.text, old.semantic, old.attrs_text);
	INSERT INTO spans_fts(rowid, text, semantic, attrs_text)
	VALUES (new.id, new.text, new.semantic, new.attrs_text);
END;
`

func (c *Client) EnsureSchema(ctx context.Context) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range splitStatements(ddl) {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing DDL: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schema transaction: %w", err)
	}
	return nil
}

// splitStatements cuts a DDL script at semicolons that end a line, keeping
// trigger bodies (BEGIN ... END;) in one statement.
func splitStatements(script string) []string {
	var statements []string
	var current strings.Builder
	inTrigger := false

	for _, line := range strings.Split(script, "\n") {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")

		upper := strings.ToUpper(stripped)
		if strings.HasPrefix(upper, "CREATE TRIGGER") {
			inTrigger = true
		}
		if !strings.HasSuffix(stripped, ";") {
			continue
		}
		if inTrigger && upper != "END;" {
			continue
		}
		inTrigger = false
		statements = append(statements, current.String())
		current.Reset()
	}

	if strings.TrimSpace(current.String()) != "" {
		statements = append(statements, current.String())
	}
	return statements
}
