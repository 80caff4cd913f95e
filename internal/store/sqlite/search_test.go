package sqlite

import (
	"strings"
	"testing"
)

func TestConvertWebsearchToFTS5(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "simple term", input: "acme", expected: "acme"},
		{name: "multiple terms", input: "acme corp", expected: "acme AND corp"},
		{name: "explicit AND", input: "acme AND alice", expected: "acme AND alice"},
		{name: "explicit OR", input: "acme OR alice", expected: "acme OR alice"},
		{name: "negation", input: "acme -corp", expected: "acme NOT corp"},
		{name: "leading negation dropped", input: "-corp acme", expected: "acme"},
		{name: "phrase", input: `"acme corp"`, expected: `"acme corp"`},
		{name: "phrase with other term", input: `"acme corp" london`, expected: `"acme corp" AND london`},
		{name: "prefix search", input: "acm*", expected: "acm*"},
		{name: "complex query", input: `"acme corp" -fire london OR paris`, expected: `"acme corp" NOT fire AND london OR paris`},
		{name: "NOT operator", input: "acme NOT corp", expected: "acme NOT corp"},
		{name: "punctuation is quoted", input: "co-founder", expected: `"co-founder"`},
		{name: "quoted prefix", input: "o'brien*", expected: `"o'brien" *`},
		{name: "unicode term", input: "ñandú", expected: "ñandú"},
		{name: "unterminated phrase", input: `"acme corp`, expected: `"acme corp"`},
		{name: "dangling operator", input: "OR acme", expected: "acme"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := convertWebsearchToFTS5(tt.input)
			if result != tt.expected {
				t.Errorf("convertWebsearchToFTS5(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestParseDSN(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		wantErr  bool
	}{
		{input: "sqlite://:memory:", expected: ":memory:"},
		{input: "sqlite:///tmp/spanmark.db", expected: "/tmp/spanmark.db"},
		{input: "sqlite://./spanmark.db", expected: "./spanmark.db"},
		{input: "sqlite://data/my%20db.sqlite", expected: "./data/my db.sqlite"},
		{input: "sqlite://spanmark.db?_pragma=foreign_keys(1)", expected: "./spanmark.db?_pragma=foreign_keys(1)"},
		{input: "postgres://localhost/db", wantErr: true},
		{input: "sqlite://", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseDSN(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Fatalf("parseDSN(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSplitStatementsKeepsTriggers(t *testing.T) {
	var triggers int
	for _, stmt := range splitStatements(ddl) {
		upper := strings.ToUpper(stmt)
		if !strings.Contains(upper, "CREATE TRIGGER") {
			continue
		}
		triggers++
		if !strings.HasSuffix(strings.TrimSpace(upper), "END;") {
			t.Fatalf("trigger split early: %q", stmt)
		}
	}
	if triggers != 3 {
		t.Fatalf("expected 3 trigger statements, got %d", triggers)
	}
}
