package annotation

// EntityEntry is an entity tagged with its location in the index.
type EntityEntry struct {
	Entity    *Entity
	OffsetKey string
	Position  int
}

// RelationEntry is a relation tagged with its location in the index.
type RelationEntry struct {
	Relation  *Relation
	OffsetKey string
	Position  int
}

func (ix Index) Entities() []EntityEntry {
	var entries []EntityEntry
	for _, key := range ix.Keys() {
		b := ix[key]
		if b == nil {
			continue
		}
		for i, e := range b.Entities {
			if e == nil {
				continue
			}
			entries = append(entries, EntityEntry{Entity: e, OffsetKey: key, Position: i})
		}
	}
	return entries
}

func (ix Index) Relations() []RelationEntry {
	var entries []RelationEntry
	for _, key := range ix.Keys() {
		b := ix[key]
		if b == nil {
			continue
		}
		for i, r := range b.Relations {
			if r == nil {
				continue
			}
			entries = append(entries, RelationEntry{Relation: r, OffsetKey: key, Position: i})
		}
	}
	return entries
}

func (ix Index) EntityCount() int {
	n := 0
	for _, b := range ix {
		if b != nil {
			n += len(b.Entities)
		}
	}
	return n
}

func (ix Index) RelationCount() int {
	n := 0
	for _, b := range ix {
		if b != nil {
			n += len(b.Relations)
		}
	}
	return n
}

// LinkedKeys returns the span identities (see EntityRef.Key) that appear at
// either end of at least one relation.
func (ix Index) LinkedKeys() map[string]struct{} {
	keys := make(map[string]struct{})
	for _, b := range ix {
		if b == nil {
			continue
		}
		for _, r := range b.Relations {
			if r == nil {
				continue
			}
			keys[r.From.Key()] = struct{}{}
			keys[r.To.Key()] = struct{}{}
		}
	}
	return keys
}

func (ix Index) IsLinked(e *Entity) bool {
	_, ok := ix.LinkedKeys()[e.Ref().Key()]
	return ok
}
