package annotation

// PendingRelation is the source half of a relation awaiting its target.
type PendingRelation struct {
	RelationType string
	From         *Entity
	FromKey      string
}

// RelationManager is the idle/pending state machine behind two-step relation
// creation. The zero value is idle.
type RelationManager struct {
	pending *PendingRelation
}

// Start records the relation type and source span, replacing any pending source.
func (m *RelationManager) Start(relationType string, from *Entity, fromKey string) {
	if from == nil {
		return
	}
	m.pending = &PendingRelation{RelationType: relationType, From: from, FromKey: fromKey}
}

func (m *RelationManager) Active() bool {
	return m.pending != nil
}

func (m *RelationManager) Pending() (PendingRelation, bool) {
	if m.pending == nil {
		return PendingRelation{}, false
	}
	return *m.pending, true
}

func (m *RelationManager) Cancel() {
	m.pending = nil
}

// Commit builds the relation from the pending source to to and returns to
// idle. The returned key is the offset key the relation must be anchored at.
// Endpoints are copied by value; later attribute edits on either entity do
// not reach the relation.
func (m *RelationManager) Commit(ids *IDAllocator, to *Entity) (string, *Relation, bool) {
	if m.pending == nil || to == nil {
		return "", nil, false
	}
	p := m.pending
	m.pending = nil

	rel := &Relation{
		ID:       ids.Next(),
		Semantic: p.RelationType,
		Type:     KindRelation,
		Begin:    p.From.Begin,
		End:      p.From.End,
		From:     p.From.Ref(),
		To:       to.Ref(),
		Attrs:    map[string]*Attribute{},
	}
	return p.FromKey, rel, true
}
