package annotation

import (
	"strings"

	"go.uber.org/zap"
)

const defaultAttrType = "text"

// AttrDef is the part of a schema attribute definition used to seed a new
// entity's attribute records.
type AttrDef struct {
	Name      string
	ValueType string
	Default   string
}

// Annotator is one editing session over the active document: it owns the
// pending selection, the relation state machine and the id allocator, and is
// the only writer of the document's index. Every method leaves the index
// pruned. Operations without an active document, pending selection or
// existing target are no-ops.
type Annotator struct {
	ids       *IDAllocator
	doc       *Document
	selection *Selection
	relations RelationManager
	log       *zap.Logger
}

func NewAnnotator(ids *IDAllocator, log *zap.Logger) *Annotator {
	if ids == nil {
		ids = NewSessionIDAllocator()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Annotator{ids: ids, log: log}
}

// SetDocument switches the active document and drops any pending selection
// or relation, both of which refer to offsets in the previous one.
func (a *Annotator) SetDocument(doc *Document) {
	if doc != nil && doc.Indexes == nil {
		doc.Indexes = Index{}
	}
	a.doc = doc
	a.selection = nil
	a.relations.Cancel()
}

func (a *Annotator) Document() *Document {
	return a.doc
}

// Select commits a resolved selection, taking its text from the document.
func (a *Annotator) Select(start, end int) (Selection, bool) {
	if a.doc == nil {
		return Selection{}, false
	}
	return a.SelectText(start, end, a.doc.Slice(start, end))
}

// SelectText commits a resolved selection with caller supplied text. Invalid
// or blank selections are dropped.
func (a *Annotator) SelectText(start, end int, text string) (Selection, bool) {
	if a.doc == nil {
		return Selection{}, false
	}
	if start < 0 || end < 0 || start >= end || end > a.doc.CharCount() {
		return Selection{}, false
	}
	if strings.TrimSpace(text) == "" {
		return Selection{}, false
	}
	a.selection = &Selection{Start: start, End: end, Text: text}
	return *a.selection, true
}

func (a *Annotator) PendingSelection() (Selection, bool) {
	if a.selection == nil {
		return Selection{}, false
	}
	return *a.selection, true
}

func (a *Annotator) ClearSelection() {
	a.selection = nil
}

// CreateEntity labels the pending selection.
func (a *Annotator) CreateEntity(semantic string, defs []AttrDef) *Entity {
	if a.selection == nil || a.doc == nil {
		return nil
	}
	sel := a.selection

	attrs := make(map[string]*Attribute, len(defs))
	for _, def := range defs {
		attrType := def.ValueType
		if attrType == "" {
			attrType = defaultAttrType
		}
		attrs[def.Name] = &Attribute{
			ID:    a.ids.Next(),
			Key:   def.Name,
			Value: def.Default,
			Type:  attrType,
		}
	}

	entity := &Entity{
		ID:       a.ids.Next(),
		Semantic: semantic,
		Begin:    sel.Start,
		End:      sel.End,
		Type:     KindEntity,
		Attrs:    attrs,
	}
	key := a.doc.Indexes.AddEntity(entity)
	a.doc.MarkDirty()
	a.selection = nil

	a.log.Debug("entity created",
		zap.String("id", entity.ID),
		zap.String("semantic", semantic),
		zap.String("offset_key", key),
		zap.Int("begin", entity.Begin),
		zap.Int("end", entity.End))
	return entity
}

// DeleteEntity removes the entity and every relation referencing it.
func (a *Annotator) DeleteEntity(key string, i int) {
	if a.doc == nil {
		return
	}
	entity, cascaded, ok := a.doc.Indexes.RemoveEntity(key, i)
	if !ok {
		return
	}
	a.doc.MarkDirty()
	a.log.Debug("entity deleted",
		zap.String("id", entity.ID),
		zap.String("offset_key", key),
		zap.Int("relations_removed", cascaded))
}

// UpdateAttribute sets name to value, creating a text attribute when absent.
func (a *Annotator) UpdateAttribute(key string, i int, name, value string) {
	entity := a.entity(key, i)
	if entity == nil {
		return
	}
	if entity.Attrs == nil {
		entity.Attrs = map[string]*Attribute{}
	}
	if attr, ok := entity.Attrs[name]; ok && attr != nil {
		attr.Value = value
	} else {
		entity.Attrs[name] = &Attribute{
			ID:    a.ids.Next(),
			Key:   name,
			Value: value,
			Type:  defaultAttrType,
		}
	}
	a.doc.MarkDirty()
}

func (a *Annotator) RemoveAttribute(key string, i int, name string) {
	entity := a.entity(key, i)
	if entity == nil {
		return
	}
	if _, ok := entity.Attrs[name]; !ok {
		return
	}
	delete(entity.Attrs, name)
	a.doc.MarkDirty()
}

func (a *Annotator) StartRelation(relationType string, from *Entity, fromKey string) {
	a.relations.Start(relationType, from, fromKey)
}

func (a *Annotator) PendingRelation() (PendingRelation, bool) {
	return a.relations.Pending()
}

func (a *Annotator) CancelRelation() {
	a.relations.Cancel()
}

// CommitRelation links the pending source to to and stores the relation.
func (a *Annotator) CommitRelation(to *Entity) *Relation {
	if a.doc == nil {
		return nil
	}
	key, rel, ok := a.relations.Commit(a.ids, to)
	if !ok {
		return nil
	}
	a.doc.Indexes.AddRelation(key, rel)
	a.doc.MarkDirty()
	a.log.Debug("relation created",
		zap.String("id", rel.ID),
		zap.String("semantic", rel.Semantic),
		zap.String("from", rel.From.Key()),
		zap.String("to", rel.To.Key()))
	return rel
}

func (a *Annotator) DeleteRelation(key string, i int) {
	if a.doc == nil {
		return
	}
	rel, ok := a.doc.Indexes.RemoveRelation(key, i)
	if !ok {
		return
	}
	a.doc.MarkDirty()
	a.log.Debug("relation deleted", zap.String("id", rel.ID), zap.String("offset_key", key))
}

func (a *Annotator) entity(key string, i int) *Entity {
	if a.doc == nil {
		return nil
	}
	entity, ok := a.doc.Indexes.Entity(key, i)
	if !ok {
		return nil
	}
	return entity
}
