package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

type DocumentInput struct {
	Filename    string
	Content     string
	ContentHash string
	CharCount   int
	TokenCount  int
	Entities    []EntityInput
	Relations   []RelationInput
}

type EntityInput struct {
	SpanID    string
	OffsetKey string
	Semantic  string
	Begin     int
	End       int
	Text      string
	Attrs     map[string]string
}

type RelationInput struct {
	RelationID string
	OffsetKey  string
	Semantic   string
	From       SpanRef
	To         SpanRef
	Attrs      map[string]string
}

// SpanRef is one endpoint of a relation. Text is sliced at ingest time so
// stores never have to index into content themselves.
type SpanRef struct {
	Begin    int
	End      int
	Semantic string
	Text     string
}

type DocumentSummary struct {
	ID            string
	Filename      string
	ContentHash   string
	CharCount     int
	TokenCount    int
	EntityCount   int
	RelationCount int
}

type EntityRecord struct {
	Filename string
	SpanID   string
	Semantic string
	Begin    int
	End      int
	Text     string
	Attrs    map[string]string
}

type RelationRecord struct {
	Filename   string
	RelationID string
	Semantic   string
	From       SpanRef
	To         SpanRef
	Attrs      map[string]string
}

type SearchResult struct {
	Filename string
	SpanID   string
	Semantic string
	Begin    int
	End      int
	Text     string
	Score    float64
	Snippet  string
}

// NewDocumentID returns a time ordered id for a newly stored document.
func NewDocumentID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generating document id: %w", err)
	}
	return id.String(), nil
}

func EncodeAttrs(attrs map[string]string) ([]byte, error) {
	if attrs == nil {
		attrs = map[string]string{}
	}
	data, err := json.Marshal(attrs)
	if err != nil {
		return nil, fmt.Errorf("marshaling attrs: %w", err)
	}
	return data, nil
}

func DecodeAttrs(data []byte) (map[string]string, error) {
	attrs := map[string]string{}
	if len(data) == 0 {
		return attrs, nil
	}
	if err := json.Unmarshal(data, &attrs); err != nil {
		return nil, fmt.Errorf("unmarshaling attrs: %w", err)
	}
	return attrs, nil
}

// AttrsText flattens attributes into "key value" pairs in key order for
// full-text indexing.
func AttrsText(attrs map[string]string) string {
	keys := make([]string, 0, len(attrs))
	for key := range attrs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		if value := attrs[key]; value != "" {
			parts = append(parts, key+" "+value)
		}
	}
	return strings.Join(parts, " ")
}

// PositionalArgs orders query parameters keyed "1".."n". A gap in the
// numbering is an error.
func PositionalArgs(params map[string]any) ([]any, error) {
	args := make([]any, 0, len(params))
	for i := 1; i <= len(params); i++ {
		val, ok := params[strconv.Itoa(i)]
		if !ok {
			return nil, fmt.Errorf("missing sql parameter %d", i)
		}
		args = append(args, val)
	}
	return args, nil
}
