package annotation

import (
	"testing"
)

func newTestAnnotator(t *testing.T, content string) (*Annotator, *Document) {
	t.Helper()
	doc := NewDocument("test.json", content)
	a := NewAnnotator(NewIDAllocator(100), nil)
	a.SetDocument(doc)
	return a, doc
}

func mustCreate(t *testing.T, a *Annotator, begin, end int, semantic string) *Entity {
	t.Helper()
	if _, ok := a.Select(begin, end); !ok {
		t.Fatalf("selecting [%d,%d): expected selection", begin, end)
	}
	e := a.CreateEntity(semantic, nil)
	if e == nil {
		t.Fatalf("creating %s: expected entity", semantic)
	}
	return e
}

func TestSelect(t *testing.T) {
	t.Run("no active document", func(t *testing.T) {
		a := NewAnnotator(NewIDAllocator(0), nil)
		if _, ok := a.Select(0, 3); ok {
			t.Fatalf("expected no-op without document")
		}
	})

	t.Run("rejects invalid ranges", func(t *testing.T) {
		a, _ := newTestAnnotator(t, "The cat sat.")
		cases := [][2]int{{-1, 3}, {3, -1}, {3, 3}, {5, 2}, {0, 13}}
		for _, c := range cases {
			if _, ok := a.Select(c[0], c[1]); ok {
				t.Fatalf("expected [%d,%d) to be rejected", c[0], c[1])
			}
		}
		if _, ok := a.PendingSelection(); ok {
			t.Fatalf("expected no pending selection")
		}
	})

	t.Run("rejects blank text", func(t *testing.T) {
		a, _ := newTestAnnotator(t, "The cat sat.")
		if _, ok := a.Select(3, 4); ok {
			t.Fatalf("expected whitespace selection to be dropped")
		}
	})

	t.Run("takes text from content in code units", func(t *testing.T) {
		a, _ := newTestAnnotator(t, "día de gatos")
		sel, ok := a.Select(0, 3)
		if !ok {
			t.Fatalf("expected selection")
		}
		if sel.Text != "día" {
			t.Fatalf("expected día, got %q", sel.Text)
		}
	})

	t.Run("surrogate pairs are two units wide", func(t *testing.T) {
		a, _ := newTestAnnotator(t, "😀 cat")
		sel, ok := a.Select(3, 6)
		if !ok || sel.Text != "cat" {
			t.Fatalf("expected cat, got %+v %v", sel, ok)
		}
		if _, ok := a.Select(3, 7); ok {
			t.Fatalf("expected selection past the end to be rejected")
		}
	})
}

func TestCreateEntity(t *testing.T) {
	t.Run("no pending selection", func(t *testing.T) {
		a, doc := newTestAnnotator(t, "The cat sat.")
		if e := a.CreateEntity("ANIMAL", nil); e != nil {
			t.Fatalf("expected nil entity")
		}
		if len(doc.Indexes) != 0 || doc.Dirty() {
			t.Fatalf("expected untouched document")
		}
	})

	t.Run("no active document", func(t *testing.T) {
		a, _ := newTestAnnotator(t, "The cat sat.")
		a.Select(4, 7)
		a.SetDocument(nil)
		if e := a.CreateEntity("ANIMAL", nil); e != nil {
			t.Fatalf("expected nil entity")
		}
	})

	t.Run("appends to begin bucket and clears selection", func(t *testing.T) {
		a, doc := newTestAnnotator(t, "The cat sat.")
		e := mustCreate(t, a, 4, 7, "ANIMAL")
		if e.Begin != 4 || e.End != 7 || e.Semantic != "ANIMAL" || e.Type != KindEntity {
			t.Fatalf("unexpected entity: %+v", e)
		}
		got, ok := doc.Indexes.Entity("4", 0)
		if !ok || got != e {
			t.Fatalf("expected entity in bucket 4")
		}
		if !doc.Dirty() {
			t.Fatalf("expected document marked dirty")
		}
		if _, ok := a.PendingSelection(); ok {
			t.Fatalf("expected selection cleared")
		}
	})

	t.Run("seeds attributes from definitions", func(t *testing.T) {
		a, _ := newTestAnnotator(t, "The cat sat.")
		a.Select(4, 7)
		e := a.CreateEntity("ANIMAL", []AttrDef{
			{Name: "species", ValueType: "enum", Default: "felis"},
			{Name: "note"},
		})
		species := e.Attrs["species"]
		if species == nil || species.Value != "felis" || species.Type != "enum" || species.Key != "species" {
			t.Fatalf("unexpected species attr: %+v", species)
		}
		note := e.Attrs["note"]
		if note == nil || note.Value != "" || note.Type != "text" {
			t.Fatalf("unexpected note attr: %+v", note)
		}
		if species.ID == note.ID || species.ID == e.ID {
			t.Fatalf("expected distinct ids")
		}
	})

	t.Run("ids stay unique after deletions", func(t *testing.T) {
		a, _ := newTestAnnotator(t, "The cat sat.")
		first := mustCreate(t, a, 4, 7, "ANIMAL")
		a.DeleteEntity("4", 0)
		second := mustCreate(t, a, 4, 7, "ANIMAL")
		if first.ID == second.ID {
			t.Fatalf("expected fresh id, got %s twice", first.ID)
		}
		if first.ID != "101" || second.ID != "102" {
			t.Fatalf("expected deterministic ids 101, 102; got %s, %s", first.ID, second.ID)
		}
	})
}

func TestDeleteEntity(t *testing.T) {
	t.Run("missing bucket or position is a no-op", func(t *testing.T) {
		a, doc := newTestAnnotator(t, "The cat sat.")
		mustCreate(t, a, 4, 7, "ANIMAL")
		doc.MarkClean()
		a.DeleteEntity("0", 0)
		a.DeleteEntity("4", 3)
		a.DeleteEntity("4", -1)
		if doc.Indexes.EntityCount() != 1 || doc.Dirty() {
			t.Fatalf("expected untouched index")
		}
	})

	t.Run("cascade removes relations and empty bucket", func(t *testing.T) {
		a, doc := newTestAnnotator(t, "Alice met Bob and Carol.")
		alice := mustCreate(t, a, 0, 5, "PERSON")
		bob := mustCreate(t, a, 10, 13, "PERSON")
		carol := mustCreate(t, a, 18, 23, "PERSON")

		a.StartRelation("MET", bob, "10")
		a.CommitRelation(alice)
		a.StartRelation("KNOWS", carol, "18")
		a.CommitRelation(alice)
		a.StartRelation("KNOWS", bob, "10")
		a.CommitRelation(carol)
		if doc.Indexes.RelationCount() != 3 {
			t.Fatalf("expected 3 relations, got %d", doc.Indexes.RelationCount())
		}

		a.DeleteEntity("0", 0)

		if _, ok := doc.Indexes["0"]; ok {
			t.Fatalf("expected bucket 0 removed")
		}
		for _, entry := range doc.Indexes.Relations() {
			if entry.Relation.References(alice) {
				t.Fatalf("relation %s still references deleted entity", entry.Relation.ID)
			}
		}
		if doc.Indexes.RelationCount() != 1 {
			t.Fatalf("expected 1 surviving relation, got %d", doc.Indexes.RelationCount())
		}
		if !doc.Indexes.Sparse() {
			t.Fatalf("expected sparse index")
		}
	})

	t.Run("bucket holding only cascaded relations is removed", func(t *testing.T) {
		a, doc := newTestAnnotator(t, "Alice met Bob.")
		alice := mustCreate(t, a, 0, 5, "PERSON")
		bob := mustCreate(t, a, 10, 13, "PERSON")
		a.StartRelation("MET", bob, "10")
		a.CommitRelation(alice)
		a.StartRelation("SAW", bob, "10")
		a.CommitRelation(alice)

		// Bucket 10 now anchors relations only.
		doc.Indexes["10"].Entities = nil

		a.DeleteEntity("0", 0)

		if _, ok := doc.Indexes["10"]; ok {
			t.Fatalf("expected bucket 10 removed, got %+v", doc.Indexes["10"])
		}
		if len(doc.Indexes) != 0 {
			t.Fatalf("expected empty index, got %d buckets", len(doc.Indexes))
		}
	})
}

func TestAttributes(t *testing.T) {
	a, doc := newTestAnnotator(t, "The cat sat.")
	e := mustCreate(t, a, 4, 7, "ANIMAL")

	t.Run("update creates text attribute", func(t *testing.T) {
		a.UpdateAttribute("4", 0, "color", "black")
		attr := e.Attrs["color"]
		if attr == nil || attr.Value != "black" || attr.Type != "text" || attr.ID == "" {
			t.Fatalf("unexpected attr: %+v", attr)
		}
	})

	t.Run("update overwrites value and keeps id", func(t *testing.T) {
		id := e.Attrs["color"].ID
		a.UpdateAttribute("4", 0, "color", "white")
		if e.Attrs["color"].Value != "white" || e.Attrs["color"].ID != id {
			t.Fatalf("unexpected attr: %+v", e.Attrs["color"])
		}
	})

	t.Run("remove deletes and absent is a no-op", func(t *testing.T) {
		a.RemoveAttribute("4", 0, "color")
		if _, ok := e.Attrs["color"]; ok {
			t.Fatalf("expected attribute removed")
		}
		doc.MarkClean()
		a.RemoveAttribute("4", 0, "color")
		if doc.Dirty() {
			t.Fatalf("expected no-op for absent attribute")
		}
	})

	t.Run("missing entity is a no-op", func(t *testing.T) {
		a.UpdateAttribute("9", 0, "color", "red")
		if doc.Dirty() {
			t.Fatalf("expected no-op")
		}
	})
}

func TestRelationWorkflow(t *testing.T) {
	t.Run("commit snapshots endpoints", func(t *testing.T) {
		a, doc := newTestAnnotator(t, "Alice met Bob.")
		alice := mustCreate(t, a, 0, 5, "PERSON")
		bob := mustCreate(t, a, 10, 13, "PERSON")

		a.StartRelation("MET", alice, "0")
		if _, ok := a.PendingRelation(); !ok {
			t.Fatalf("expected pending relation")
		}
		rel := a.CommitRelation(bob)
		if rel == nil {
			t.Fatalf("expected relation")
		}
		if _, ok := a.PendingRelation(); ok {
			t.Fatalf("expected idle after commit")
		}
		if rel.Begin != 0 || rel.End != 5 || rel.Type != KindRelation {
			t.Fatalf("unexpected anchor: %+v", rel)
		}
		if rel.From != alice.Ref() || rel.To != bob.Ref() {
			t.Fatalf("unexpected snapshots: %+v -> %+v", rel.From, rel.To)
		}
		got, ok := doc.Indexes.Relation("0", 0)
		if !ok || got != rel {
			t.Fatalf("expected relation anchored at 0")
		}

		a.UpdateAttribute("0", 0, "age", "30")
		if len(rel.Attrs) != 0 {
			t.Fatalf("expected relation attrs untouched by entity edits")
		}
		if !doc.Indexes.IsLinked(alice) || !doc.Indexes.IsLinked(bob) {
			t.Fatalf("expected both entities linked")
		}
	})

	t.Run("commit without start is a no-op", func(t *testing.T) {
		a, doc := newTestAnnotator(t, "Alice met Bob.")
		bob := mustCreate(t, a, 10, 13, "PERSON")
		if rel := a.CommitRelation(bob); rel != nil {
			t.Fatalf("expected nil relation")
		}
		if doc.Indexes.RelationCount() != 0 {
			t.Fatalf("expected no relations")
		}
	})

	t.Run("cancel discards source", func(t *testing.T) {
		a, doc := newTestAnnotator(t, "Alice met Bob.")
		alice := mustCreate(t, a, 0, 5, "PERSON")
		bob := mustCreate(t, a, 10, 13, "PERSON")
		a.StartRelation("MET", alice, "0")
		a.CancelRelation()
		if rel := a.CommitRelation(bob); rel != nil {
			t.Fatalf("expected nil relation after cancel")
		}
		if doc.Indexes.RelationCount() != 0 {
			t.Fatalf("expected no relations")
		}
	})

	t.Run("self relation is allowed", func(t *testing.T) {
		a, _ := newTestAnnotator(t, "Alice met Bob.")
		alice := mustCreate(t, a, 0, 5, "PERSON")
		a.StartRelation("SELF", alice, "0")
		if rel := a.CommitRelation(alice); rel == nil {
			t.Fatalf("expected self relation")
		}
	})

	t.Run("delete relation prunes", func(t *testing.T) {
		a, doc := newTestAnnotator(t, "Alice met Bob.")
		alice := mustCreate(t, a, 0, 5, "PERSON")
		bob := mustCreate(t, a, 10, 13, "PERSON")
		a.StartRelation("MET", alice, "0")
		a.CommitRelation(bob)

		a.DeleteRelation("0", 0)
		if doc.Indexes["0"].Relations != nil {
			t.Fatalf("expected relation array pruned")
		}
		if doc.Indexes.EntityCount() != 2 || !doc.Indexes.Sparse() {
			t.Fatalf("expected entities kept and index sparse")
		}
		a.DeleteRelation("0", 0)
	})
}

func TestDocumentStats(t *testing.T) {
	doc := NewDocument("a.json", "  one two\tthree\n")
	if doc.TokenCount() != 3 {
		t.Fatalf("expected 3 tokens, got %d", doc.TokenCount())
	}
	if doc.CharCount() != 16 {
		t.Fatalf("expected 16 chars, got %d", doc.CharCount())
	}
	if n := NewDocument("b.json", "😀 cat").CharCount(); n != 6 {
		t.Fatalf("expected 6 code units, got %d", n)
	}
}
