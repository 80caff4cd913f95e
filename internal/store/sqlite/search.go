package sqlite

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"spanmark/internal/store"
)

func (c *Client) Search(ctx context.Context, query, semantic string) ([]store.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query must not be empty")
	}
	ftsQuery := convertWebsearchToFTS5(query)
	if ftsQuery == "" {
		return []store.SearchResult{}, nil
	}

	sqlQuery := `
	SELECT d.filename, s.span_id, s.semantic, s.begin_offset, s.end_offset, s.text,
		   -bm25(spans_fts, 10.0, 4.0, 1.0) AS score,
		   snippet(spans_fts, 2, '**', '**', '...', 16) AS snippet
	FROM spans_fts
	JOIN spans s ON spans_fts.rowid = s.id
	JOIN documents d ON d.id = s.document_id
	WHERE spans_fts MATCH ?
	  AND (? = '' OR s.semantic = ?)
	ORDER BY score DESC, d.filename ASC, s.begin_offset ASC
	LIMIT 50
	`

	rows, err := c.db.QueryContext(ctx, sqlQuery, ftsQuery, semantic, semantic)
	if err != nil {
		return nil, fmt.Errorf("searching spans: %w", err)
	}
	defer rows.Close()

	results := []store.SearchResult{}
	for rows.Next() {
		var r store.SearchResult
		if err := rows.Scan(&r.Filename, &r.SpanID, &r.Semantic, &r.Begin, &r.End, &r.Text, &r.Score, &r.Snippet); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search results: %w", err)
	}
	return results, nil
}

// convertWebsearchToFTS5 rewrites websearch style input (bare terms, quoted
// phrases, -negation, OR) into an FTS5 MATCH expression. Terms are joined
// with AND unless an operator sits between them. Terms holding characters
// FTS5 treats as syntax are quoted.
func convertWebsearchToFTS5(query string) string {
	var out []string
	pendingOp := ""

	emit := func(term string) {
		if len(out) > 0 {
			if pendingOp == "" {
				pendingOp = "AND"
			}
			out = append(out, pendingOp)
		}
		out = append(out, term)
		pendingOp = ""
	}

	for _, tok := range tokenize(query) {
		if tok.phrase {
			emit(`"` + strings.ReplaceAll(tok.text, `"`, `""`) + `"`)
			continue
		}
		switch upper := strings.ToUpper(tok.text); upper {
		case "AND", "OR":
			if len(out) > 0 {
				pendingOp = upper
			}
			continue
		case "NOT":
			if len(out) > 0 {
				pendingOp = "NOT"
			}
			continue
		}
		if strings.HasPrefix(tok.text, "-") && len(tok.text) > 1 {
			term := ftsTerm(tok.text[1:])
			if len(out) == 0 {
				// FTS5 has no unary NOT
				continue
			}
			pendingOp = "NOT"
			emit(term)
			continue
		}
		emit(ftsTerm(tok.text))
	}

	return strings.Join(out, " ")
}

type token struct {
	text   string
	phrase bool
}

func tokenize(query string) []token {
	var tokens []token
	var current strings.Builder
	inQuote := false

	flush := func(phrase bool) {
		if current.Len() > 0 {
			tokens = append(tokens, token{text: current.String(), phrase: phrase})
		}
		current.Reset()
	}

	for _, r := range query {
		switch {
		case r == '"':
			flush(inQuote)
			inQuote = !inQuote
		case inQuote:
			current.WriteRune(r)
		case unicode.IsSpace(r):
			flush(false)
		default:
			current.WriteRune(r)
		}
	}
	flush(inQuote)
	return tokens
}

func ftsTerm(term string) string {
	prefix := strings.HasSuffix(term, "*")
	body := strings.TrimSuffix(term, "*")
	plain := body != ""
	for _, r := range body {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			plain = false
			break
		}
	}
	if plain {
		return term
	}
	quoted := `"` + strings.ReplaceAll(body, `"`, `""`) + `"`
	if prefix {
		return quoted + " *"
	}
	return quoted
}
