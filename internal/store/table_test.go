package store

import "testing"

func TestTable(t *testing.T) {
	table := NewTable([]string{"text", "begin"})
	if table.Rows == nil || len(table.Records()) != 0 {
		t.Fatalf("expected an empty, non-nil table")
	}
	table.Append([]any{[]byte("Acme"), int64(15)})
	table.Append([]any{"Alice", int64(0)})

	t.Run("bytes become strings", func(t *testing.T) {
		if table.Rows[0][0] != "Acme" {
			t.Fatalf("expected string cell, got %#v", table.Rows[0][0])
		}
	})

	t.Run("records key by column", func(t *testing.T) {
		records := table.Records()
		if len(records) != 2 || records[1]["text"] != "Alice" || records[0]["begin"] != int64(15) {
			t.Fatalf("unexpected records: %v", records)
		}
	})

	t.Run("column", func(t *testing.T) {
		if got := table.Column("text"); len(got) != 2 || got[1] != "Alice" {
			t.Fatalf("unexpected column: %v", got)
		}
		if table.Column("missing") != nil {
			t.Fatalf("expected nil for unknown column")
		}
	})
}
