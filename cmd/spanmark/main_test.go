package main

import (
	"bytes"
	"strings"
	"testing"

	"spanmark/internal/store"
)

func TestParseParamPairs(t *testing.T) {
	params, err := parseParamPairs([]string{"1=PERSON", " 2 = acme ", ""})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if params["1"] != "PERSON" || params["2"] != "acme" || len(params) != 2 {
		t.Fatalf("unexpected params: %v", params)
	}
	for _, bad := range []string{"novalue", "=x"} {
		if _, err := parseParamPairs([]string{bad}); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestParseSpan(t *testing.T) {
	start, end, err := parseSpan("4:7")
	if err != nil || start != 4 || end != 7 {
		t.Fatalf("unexpected span: %d %d %v", start, end, err)
	}
	for _, bad := range []string{"4", "a:7", "4:b"} {
		if _, _, err := parseSpan(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestParseLocator(t *testing.T) {
	tests := []struct {
		input   string
		key     string
		pos     int
		wantErr bool
	}{
		{input: "15", key: "15"},
		{input: "15/2", key: "15", pos: 2},
		{input: "/1", wantErr: true},
		{input: "15/x", wantErr: true},
		{input: "15/-1", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			key, pos, err := parseLocator(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil || key != tt.key || pos != tt.pos {
				t.Fatalf("got %q/%d (%v), want %q/%d", key, pos, err, tt.key, tt.pos)
			}
		})
	}
}

func TestWriteTable(t *testing.T) {
	table := store.NewTable([]string{"text", "begin", "attrs"})
	table.Append([]any{[]byte("Acme"), int64(15), map[string]any{"role": "org"}})
	table.Append([]any{"Alice", int64(0), nil})

	var buf bytes.Buffer
	if err := writeTable(&buf, table); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header, 2 rows and a footer, got %q", buf.String())
	}
	if fields := strings.Fields(lines[0]); len(fields) != 3 || fields[0] != "TEXT" || fields[2] != "ATTRS" {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	if !strings.Contains(lines[1], `{"role":"org"}`) || !strings.HasPrefix(lines[1], "Acme") {
		t.Fatalf("unexpected first row: %q", lines[1])
	}
	if !strings.HasSuffix(strings.TrimSpace(lines[2]), "NULL") || lines[3] != "(2 rows)" {
		t.Fatalf("unexpected tail: %q", lines[2:])
	}
}
