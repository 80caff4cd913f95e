package workspace

import (
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"spanmark/internal/annotation"
	"spanmark/internal/config"
	"spanmark/internal/render"
)

var (
	ErrNoActiveDocument = errors.New("no active document")
	ErrDocumentNotFound = errors.New("document not found")
	ErrInvalidSpan      = errors.New("invalid span")
	ErrUnknownType      = errors.New("unknown annotation type")
	ErrNotFound         = errors.New("annotation not found")

	// ErrAutosave wraps a failed autosave. The edit itself was applied and
	// the document stays dirty.
	ErrAutosave = errors.New("autosave failed")
)

// Session drives one annotator over a workspace. Every mutation goes through
// the workspace so autosave applies. A nil schema accepts any label.
type Session struct {
	ws     *Workspace
	ann    *annotation.Annotator
	schema *config.Schema
	memos  map[string]*render.Memo
	log    *zap.Logger
}

func NewSession(ws *Workspace, schema *config.Schema, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	ids := annotation.NewIDAllocator(idSeed(ws.Files()))
	s := &Session{
		ws:     ws,
		ann:    annotation.NewAnnotator(ids, log),
		schema: schema,
		memos:  map[string]*render.Memo{},
		log:    log,
	}
	if doc := ws.Active(); doc != nil {
		s.ann.SetDocument(doc)
	}
	return s
}

// idSeed starts the session after both the wall clock and every numeric id
// already present, so back to back sessions never reuse an id.
func idSeed(docs []*annotation.Document) int64 {
	seed := annotation.NewSessionIDAllocator().Last()
	bump := func(id string) {
		if n, err := strconv.ParseInt(id, 10, 64); err == nil && n > seed {
			seed = n
		}
	}
	bumpAttrs := func(attrs map[string]*annotation.Attribute) {
		for _, attr := range attrs {
			if attr != nil {
				bump(attr.ID)
			}
		}
	}
	for _, doc := range docs {
		for _, entry := range doc.Indexes.Entities() {
			bump(entry.Entity.ID)
			bumpAttrs(entry.Entity.Attrs)
		}
		for _, entry := range doc.Indexes.Relations() {
			bump(entry.Relation.ID)
			bumpAttrs(entry.Relation.Attrs)
		}
	}
	return seed
}

func (s *Session) Workspace() *Workspace { return s.ws }

func (s *Session) Schema() *config.Schema { return s.schema }

// Open makes the named document active. Pending selections and relations
// are dropped.
func (s *Session) Open(name string) (*annotation.Document, error) {
	i, ok := s.ws.Find(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, name)
	}
	s.ws.SetActive(i)
	doc := s.ws.Active()
	s.ann.SetDocument(doc)
	return doc, nil
}

// Document returns the active document or ErrNoActiveDocument.
func (s *Session) Document() (*annotation.Document, error) {
	doc := s.ann.Document()
	if doc == nil {
		doc = s.ws.Active()
		if doc == nil {
			return nil, ErrNoActiveDocument
		}
		s.ann.SetDocument(doc)
	}
	return doc, nil
}

// AddEntity labels [start, end) of the active document with semantic and
// returns the entity and the offset key it was stored under. On ErrAutosave
// the entity is returned too.
func (s *Session) AddEntity(start, end int, semantic string) (*annotation.Entity, string, error) {
	doc, err := s.Document()
	if err != nil {
		return nil, "", err
	}
	if s.schema != nil && !s.schema.IsValidEntityType(semantic) {
		return nil, "", fmt.Errorf("%w: entity %q", ErrUnknownType, semantic)
	}
	if _, ok := s.ann.Select(start, end); !ok {
		return nil, "", fmt.Errorf("%w: [%d, %d) in %s", ErrInvalidSpan, start, end, doc.Filename)
	}
	entity := s.ann.CreateEntity(semantic, s.schema.EntityAttrs(semantic))
	if entity == nil {
		return nil, "", fmt.Errorf("%w: [%d, %d) in %s", ErrInvalidSpan, start, end, doc.Filename)
	}
	return entity, annotation.OffsetKey(entity.Begin), s.touch(doc)
}

// RemoveEntity deletes the entity at key/i together with its relations.
func (s *Session) RemoveEntity(key string, i int) error {
	doc, err := s.Document()
	if err != nil {
		return err
	}
	if _, ok := doc.Indexes.Entity(key, i); !ok {
		return fmt.Errorf("%w: entity %s/%d", ErrNotFound, key, i)
	}
	s.ann.DeleteEntity(key, i)
	return s.touch(doc)
}

func (s *Session) SetAttribute(key string, i int, name, value string) error {
	doc, err := s.Document()
	if err != nil {
		return err
	}
	if _, ok := doc.Indexes.Entity(key, i); !ok {
		return fmt.Errorf("%w: entity %s/%d", ErrNotFound, key, i)
	}
	s.ann.UpdateAttribute(key, i, name, value)
	return s.touch(doc)
}

func (s *Session) RemoveAttribute(key string, i int, name string) error {
	doc, err := s.Document()
	if err != nil {
		return err
	}
	entity, ok := doc.Indexes.Entity(key, i)
	if !ok {
		return fmt.Errorf("%w: entity %s/%d", ErrNotFound, key, i)
	}
	if _, ok := entity.Attrs[name]; !ok {
		return fmt.Errorf("%w: attribute %q", ErrNotFound, name)
	}
	s.ann.RemoveAttribute(key, i, name)
	return s.touch(doc)
}

// AddRelation links the entity at fromKey/fromPos to the one at toKey/toPos
// through the two step relation flow.
func (s *Session) AddRelation(relationType, fromKey string, fromPos int, toKey string, toPos int) (*annotation.Relation, error) {
	doc, err := s.Document()
	if err != nil {
		return nil, err
	}
	if s.schema != nil && !s.schema.IsValidRelationType(relationType) {
		return nil, fmt.Errorf("%w: relation %q", ErrUnknownType, relationType)
	}
	from, ok := doc.Indexes.Entity(fromKey, fromPos)
	if !ok {
		return nil, fmt.Errorf("%w: source entity %s/%d", ErrNotFound, fromKey, fromPos)
	}
	to, ok := doc.Indexes.Entity(toKey, toPos)
	if !ok {
		return nil, fmt.Errorf("%w: target entity %s/%d", ErrNotFound, toKey, toPos)
	}
	s.ann.StartRelation(relationType, from, fromKey)
	rel := s.ann.CommitRelation(to)
	if rel == nil {
		s.ann.CancelRelation()
		return nil, fmt.Errorf("%w: relation from %s/%d", ErrNotFound, fromKey, fromPos)
	}
	return rel, s.touch(doc)
}

func (s *Session) RemoveRelation(key string, i int) error {
	doc, err := s.Document()
	if err != nil {
		return err
	}
	if _, ok := doc.Indexes.Relation(key, i); !ok {
		return fmt.Errorf("%w: relation %s/%d", ErrNotFound, key, i)
	}
	s.ann.DeleteRelation(key, i)
	return s.touch(doc)
}

// Segments renders the named document, or the active one when name is
// empty, reusing the previous result while the index is unchanged.
func (s *Session) Segments(name string) ([]render.Segment, error) {
	doc, memo, err := s.render(name)
	if err != nil {
		return nil, err
	}
	return memo.Segments(doc.Content, doc.Indexes), nil
}

func (s *Session) Blocks(name string) ([]render.Block, error) {
	doc, memo, err := s.render(name)
	if err != nil {
		return nil, err
	}
	return memo.Blocks(doc.Content, doc.Indexes), nil
}

func (s *Session) render(name string) (*annotation.Document, *render.Memo, error) {
	var doc *annotation.Document
	if name == "" {
		active, err := s.Document()
		if err != nil {
			return nil, nil, err
		}
		doc = active
	} else {
		i, ok := s.ws.Find(name)
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, name)
		}
		doc, _ = s.ws.File(i)
	}
	memo, ok := s.memos[doc.Filename]
	if !ok {
		memo = &render.Memo{}
		s.memos[doc.Filename] = memo
	}
	return doc, memo, nil
}

// touch routes the annotator's change through the workspace for autosave.
func (s *Session) touch(doc *annotation.Document) error {
	i, ok := s.ws.Find(doc.Filename)
	if !ok {
		return nil
	}
	if err := s.ws.MarkDirty(i); err != nil {
		return fmt.Errorf("%w: saving %s: %w", ErrAutosave, doc.Filename, err)
	}
	return nil
}
