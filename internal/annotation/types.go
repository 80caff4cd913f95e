package annotation

import (
	"fmt"
	"strings"
	"unicode/utf16"
)

const (
	KindEntity   = "Entity"
	KindRelation = "Relation"
)

type Attribute struct {
	ID              string `json:"id"`
	Key             string `json:"attrKey"`
	Value           string `json:"attrValue"`
	Type            string `json:"attrType"`
	AnnotationValue string `json:"annotationValue"`
	Icon            string `json:"attrIcon"`
}

type Entity struct {
	ID       string                `json:"id"`
	Semantic string                `json:"semantic"`
	Begin    int                   `json:"begin"`
	End      int                   `json:"end"`
	Type     string                `json:"type,omitempty"`
	Attrs    map[string]*Attribute `json:"attrs"`
}

// Ref returns the value snapshot used to link relations to e.
func (e *Entity) Ref() EntityRef {
	return EntityRef{Begin: e.Begin, End: e.End, Semantic: e.Semantic, Type: KindEntity}
}

// EntityRef is a denormalized copy of an entity's span and label.
type EntityRef struct {
	Begin    int    `json:"begin"`
	End      int    `json:"end"`
	Semantic string `json:"semantic"`
	Type     string `json:"type,omitempty"`
}

// Key is the span identity shared by an entity and every relation snapshot of it.
func (r EntityRef) Key() string {
	return fmt.Sprintf("%d-%d-%s", r.Begin, r.End, r.Semantic)
}

// Matches reports whether r snapshots e.
func (r EntityRef) Matches(e *Entity) bool {
	return r.Begin == e.Begin && r.End == e.End && r.Semantic == e.Semantic
}

type Relation struct {
	ID       string                `json:"id"`
	Semantic string                `json:"semantic"`
	Type     string                `json:"type,omitempty"`
	Begin    int                   `json:"begin"`
	End      int                   `json:"end"`
	From     EntityRef             `json:"fromEnt"`
	To       EntityRef             `json:"toEnt"`
	Attrs    map[string]*Attribute `json:"attrs"`
}

// References reports whether either endpoint of r snapshots e.
func (r *Relation) References(e *Entity) bool {
	return r.From.Matches(e) || r.To.Matches(e)
}

type Bucket struct {
	Entities  []*Entity   `json:"Entity,omitempty"`
	Relations []*Relation `json:"Relation,omitempty"`
}

func (b *Bucket) empty() bool {
	return len(b.Entities) == 0 && len(b.Relations) == 0
}

// Document is the persisted annotation file: an immutable text buffer and the
// span index over it.
type Document struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
	Indexes  Index  `json:"indexes"`

	dirty bool
}

func NewDocument(filename, content string) *Document {
	return &Document{Filename: filename, Content: content, Indexes: Index{}}
}

func (d *Document) Dirty() bool { return d.dirty }

func (d *Document) MarkDirty() { d.dirty = true }

func (d *Document) MarkClean() { d.dirty = false }

// CharCount is the buffer length in UTF-16 code units, the unit every offset
// is counted in. Characters outside the Basic Multilingual Plane count twice.
func (d *Document) CharCount() int {
	return len(Units(d.Content))
}

func (d *Document) TokenCount() int {
	return len(strings.Fields(d.Content))
}

// Slice returns content[start:end] counted in code units. Out of range bounds
// are clamped.
func (d *Document) Slice(start, end int) string {
	return SliceUnits(Units(d.Content), start, end)
}

// Units encodes s as UTF-16, the indexing a browser text node uses.
func Units(s string) []uint16 {
	return utf16.Encode([]rune(s))
}

// SliceUnits decodes units[start:end]. A bound that splits a surrogate pair
// leaves U+FFFD in place of the broken half.
func SliceUnits(units []uint16, start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(units) {
		end = len(units)
	}
	if start >= end {
		return ""
	}
	return string(utf16.Decode(units[start:end]))
}

// Selection is a committed but not yet labeled text range.
type Selection struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}
