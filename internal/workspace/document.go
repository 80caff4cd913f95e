package workspace

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"spanmark/internal/annotation"
)

var textNormalizer = strings.NewReplacer("\t", " ", "\r\n", "\n")

// JSONName maps a text or annotation filename to the annotation file it is
// stored as.
func JSONName(name string) string {
	base := filepath.Base(name)
	ext := filepath.Ext(base)
	if strings.EqualFold(ext, ".txt") || strings.EqualFold(ext, ".json") {
		base = strings.TrimSuffix(base, ext)
	}
	return base + ".json"
}

// FromText bootstraps an empty annotation document from a plain text file.
// Tabs become single spaces and CRLF line endings become LF, so offsets are
// stable across platforms.
func FromText(name string, text []byte) *annotation.Document {
	return annotation.NewDocument(JSONName(name), textNormalizer.Replace(string(text)))
}

// Decode parses a persisted annotation document. The top level must carry a
// string filename, a string content and an object of indexes; anything else
// is ErrInvalidDocument.
func Decode(data []byte) (*annotation.Document, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: not an object", ErrInvalidDocument)
	}

	var doc annotation.Document
	if err := decodeField(raw, "filename", '"', &doc.Filename); err != nil {
		return nil, err
	}
	if err := decodeField(raw, "content", '"', &doc.Content); err != nil {
		return nil, err
	}
	if err := decodeField(raw, "indexes", '{', &doc.Indexes); err != nil {
		return nil, err
	}
	doc.Indexes.Compact()
	return &doc, nil
}

func decodeField(raw map[string]json.RawMessage, name string, kind byte, out any) error {
	value, ok := raw[name]
	trimmed := bytes.TrimSpace(value)
	if !ok || len(trimmed) == 0 || trimmed[0] != kind {
		return fmt.Errorf("%w: missing or mistyped %q", ErrInvalidDocument, name)
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return fmt.Errorf("%w: decoding %q: %v", ErrInvalidDocument, name, err)
	}
	return nil
}

// Encode renders a document the way it is written to disk: indented JSON
// without the dirty flag.
func Encode(doc *annotation.Document) ([]byte, error) {
	out := *doc
	if out.Indexes == nil {
		out.Indexes = annotation.Index{}
	}
	data, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", doc.Filename, err)
	}
	return append(data, '\n'), nil
}
