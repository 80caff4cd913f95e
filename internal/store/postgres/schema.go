package postgres

import (
	"context"
	"fmt"
)

// Postgres runs a multi-statement Exec in one implicit transaction, so the
// whole script applies or none of it does.
const ddl = `
CREATE TABLE IF NOT EXISTS documents (
    id           UUID PRIMARY KEY,
    filename     TEXT NOT NULL UNIQUE,
    content      TEXT NOT NULL DEFAULT '',
    content_hash TEXT NOT NULL DEFAULT '',
    char_count   INTEGER NOT NULL DEFAULT 0,
    token_count  INTEGER NOT NULL DEFAULT 0,
    ingested_at  TIMESTAMPTZ DEFAULT now()
);

CREATE TABLE IF NOT EXISTS spans (
    id            BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    document_id   UUID NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    span_id       TEXT NOT NULL,
    offset_key    TEXT NOT NULL,
    semantic      TEXT NOT NULL,
    begin_offset  INTEGER NOT NULL,
    end_offset    INTEGER NOT NULL,
    text          TEXT NOT NULL DEFAULT '',
    attrs         JSONB NOT NULL DEFAULT '{}',
    search_vector TSVECTOR
);

CREATE TABLE IF NOT EXISTS links (
    id            BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    document_id   UUID NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
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
    attrs         JSONB NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_spans_search ON spans USING GIN (search_vector);
CREATE INDEX IF NOT EXISTS idx_spans_document ON spans (document_id);
CREATE INDEX IF NOT EXISTS idx_spans_semantic ON spans (semantic);
CREATE INDEX IF NOT EXISTS idx_spans_document_begin ON spans (document_id, begin_offset);
CREATE INDEX IF NOT EXISTS idx_links_document ON links (document_id);
CREATE INDEX IF NOT EXISTS idx_links_semantic ON links (semantic);
`

func (c *Client) EnsureSchema(ctx context.Context) error {
	if _, err := c.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}
