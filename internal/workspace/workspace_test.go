package workspace

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"spanmark/internal/annotation"
)

const annotatedDoc = `{
  "filename": "story.json",
  "content": "Alice met Bob.",
  "indexes": {
    "0": {"Entity": [{"id": "1", "semantic": "PERSON", "begin": 0, "end": 5, "type": "Entity", "attrs": {}}]},
    "10": {"Entity": [], "Relation": []}
  }
}`

func TestDecode(t *testing.T) {
	t.Run("valid document is compacted", func(t *testing.T) {
		doc, err := Decode([]byte(annotatedDoc))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if doc.Filename != "story.json" || doc.Content != "Alice met Bob." {
			t.Fatalf("unexpected document: %+v", doc)
		}
		if _, ok := doc.Indexes["10"]; ok {
			t.Fatalf("expected empty bucket to be pruned")
		}
		if doc.Indexes.EntityCount() != 1 || doc.Dirty() {
			t.Fatalf("unexpected state: entities=%d dirty=%v", doc.Indexes.EntityCount(), doc.Dirty())
		}
	})

	cases := map[string]string{
		"invalid json":       `{"filename": `,
		"not an object":      `[1, 2]`,
		"null":               `null`,
		"missing filename":   `{"content": "x", "indexes": {}}`,
		"numeric content":    `{"filename": "a.json", "content": 3, "indexes": {}}`,
		"indexes array":      `{"filename": "a.json", "content": "x", "indexes": []}`,
		"indexes null":       `{"filename": "a.json", "content": "x", "indexes": null}`,
		"bucket wrong shape": `{"filename": "a.json", "content": "x", "indexes": {"0": 5}}`,
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(input))
			if !errors.Is(err, ErrInvalidDocument) {
				t.Fatalf("expected ErrInvalidDocument, got %v", err)
			}
		})
	}
}

func TestFromText(t *testing.T) {
	doc := FromText("notes.txt", []byte("a\tb\r\nc"))
	if doc.Filename != "notes.json" {
		t.Fatalf("expected notes.json, got %q", doc.Filename)
	}
	if doc.Content != "a b\nc" {
		t.Fatalf("unexpected content: %q", doc.Content)
	}
	if doc.Indexes == nil || len(doc.Indexes) != 0 {
		t.Fatalf("expected empty index")
	}
}

func TestJSONName(t *testing.T) {
	cases := map[string]string{
		"a.txt":         "a.json",
		"A.TXT":         "A.json",
		"dir/b.json":    "b.json",
		"c":             "c.json",
		"d.tar.txt":     "d.tar.json",
		"e.annotations": "e.annotations.json",
	}
	for in, want := range cases {
		if got := JSONName(in); got != want {
			t.Fatalf("JSONName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "story.json", annotatedDoc)
	writeFile(t, dir, "draft.txt", "one\ttwo\r\n")
	writeFile(t, dir, "broken.json", `{"filename": 1}`)
	writeFile(t, dir, "readme.md", "ignored")
	if err := os.Mkdir(filepath.Join(dir, "sub.json"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	ws, err := Open(dir, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("loads valid documents and converts text", func(t *testing.T) {
		if ws.Len() != 2 {
			t.Fatalf("expected 2 documents, got %d", ws.Len())
		}
		if ws.ActiveIndex() != 0 || ws.Active() == nil {
			t.Fatalf("expected first document active")
		}
		i, ok := ws.Find("draft.txt")
		if !ok {
			t.Fatalf("expected converted document")
		}
		doc, _ := ws.File(i)
		if doc.Content != "one two\n" || doc.Dirty() {
			t.Fatalf("unexpected converted document: %+v", doc)
		}
	})

	t.Run("text file replaced by annotation file", func(t *testing.T) {
		if _, err := os.Stat(filepath.Join(dir, "draft.txt")); !os.IsNotExist(err) {
			t.Fatalf("expected draft.txt removed, got %v", err)
		}
		data, err := os.ReadFile(filepath.Join(dir, "draft.json"))
		if err != nil {
			t.Fatalf("expected draft.json: %v", err)
		}
		doc, err := Decode(data)
		if err != nil || doc.Content != "one two\n" {
			t.Fatalf("unexpected draft.json: %v %+v", err, doc)
		}
	})

	t.Run("missing directory", func(t *testing.T) {
		if _, err := Open(filepath.Join(dir, "missing"), Options{}); err == nil {
			t.Fatalf("expected error")
		}
	})
}

func TestLoadKeepsExistingAnnotations(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "story.json", annotatedDoc)
	writeFile(t, dir, "story.txt", "replacement text")

	ws, err := Open(dir, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ws.Len() != 1 || ws.Active().Indexes.EntityCount() != 1 {
		t.Fatalf("expected annotated document to survive")
	}
	if _, err := os.Stat(filepath.Join(dir, "story.txt")); err != nil {
		t.Fatalf("expected story.txt left in place: %v", err)
	}
}

func TestSaveAndDump(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "alpha")
	writeFile(t, dir, "b.txt", "beta")

	ws, err := Open(dir, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("save active", func(t *testing.T) {
		doc := ws.Active()
		doc.Indexes.AddEntity(&annotation.Entity{ID: "1", Semantic: "X", Begin: 0, End: 5, Type: annotation.KindEntity})
		if err := ws.MarkActiveDirty(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ws.DirtyCount() != 1 {
			t.Fatalf("expected one dirty document")
		}
		if err := ws.SaveActive(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if doc.Dirty() {
			t.Fatalf("expected document clean after save")
		}
		data, err := os.ReadFile(filepath.Join(dir, JSONName(doc.Filename)))
		if err != nil {
			t.Fatalf("reading saved file: %v", err)
		}
		if strings.Contains(string(data), "dirty") || !strings.Contains(string(data), `"semantic": "X"`) {
			t.Fatalf("unexpected saved file: %s", data)
		}
	})

	t.Run("dump writes only dirty documents", func(t *testing.T) {
		if err := ws.MarkDirty(1); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		saved, err := ws.DumpAll()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if saved != 1 || ws.DirtyCount() != 0 {
			t.Fatalf("expected 1 saved and none dirty, got %d and %d", saved, ws.DirtyCount())
		}
	})

	t.Run("out of range is ignored", func(t *testing.T) {
		if err := ws.MarkDirty(9); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := ws.SaveFile(-1); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("no directory", func(t *testing.T) {
		empty := New(Options{})
		if _, err := empty.DumpAll(); !errors.Is(err, ErrNoDirectory) {
			t.Fatalf("expected ErrNoDirectory, got %v", err)
		}
		if err := empty.SaveFile(0); !errors.Is(err, ErrNoDirectory) {
			t.Fatalf("expected ErrNoDirectory, got %v", err)
		}
	})
}

func TestAutosave(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "alpha")

	ws, err := Open(dir, Options{Autosave: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	doc := ws.Active()
	doc.Indexes.AddEntity(&annotation.Entity{ID: "7", Semantic: "X", Begin: 0, End: 2})
	if err := ws.MarkActiveDirty(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Dirty() {
		t.Fatalf("expected autosave to clear dirty flag")
	}
	data, err := os.ReadFile(filepath.Join(dir, "a.json"))
	if err != nil || !strings.Contains(string(data), `"id": "7"`) {
		t.Fatalf("expected entity persisted: %v %s", err, data)
	}
}

func TestDeleteAndActive(t *testing.T) {
	ws := New(Options{})
	ws.files = []*annotation.Document{
		annotation.NewDocument("a.json", "a"),
		annotation.NewDocument("b.json", "b"),
	}
	ws.active = 1

	if ws.SetActive(5) || ws.ActiveIndex() != 1 {
		t.Fatalf("expected out of range SetActive to be ignored")
	}
	if !ws.Delete(1) || ws.ActiveIndex() != 0 {
		t.Fatalf("expected active to move to last document, got %d", ws.ActiveIndex())
	}
	if !ws.Delete(0) || ws.ActiveIndex() != -1 || ws.Active() != nil {
		t.Fatalf("expected no active document")
	}
	if ws.Delete(0) {
		t.Fatalf("expected delete on empty list to fail")
	}
}

func TestSorted(t *testing.T) {
	ws := New(Options{})
	ws.files = []*annotation.Document{
		annotation.NewDocument("doc10.json", "b"),
		annotation.NewDocument("doc2.json", "c"),
		annotation.NewDocument("doc1.json", "a"),
	}

	names := func(docs []*annotation.Document) string {
		var out []string
		for _, doc := range docs {
			out = append(out, doc.Filename)
		}
		return strings.Join(out, ",")
	}

	if got := names(ws.Sorted()); got != "doc1.json,doc2.json,doc10.json" {
		t.Fatalf("unexpected natural order: %s", got)
	}
	ws.SetSorting(SortByFilename, SortDesc)
	if got := names(ws.Sorted()); got != "doc10.json,doc2.json,doc1.json" {
		t.Fatalf("unexpected descending order: %s", got)
	}
	ws.SetSorting(SortByContent, SortAsc)
	if got := names(ws.Sorted()); got != "doc1.json,doc10.json,doc2.json" {
		t.Fatalf("unexpected content order: %s", got)
	}
	ws.SetSorting("size", "sideways")
	if got := names(ws.Sorted()); got != "doc1.json,doc2.json,doc10.json" {
		t.Fatalf("expected fallback to filename asc: %s", got)
	}
	if ws.files[0].Filename != "doc10.json" {
		t.Fatalf("expected load order untouched")
	}
}

func writeFile(t *testing.T, dir, name, contents string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o600); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
}
