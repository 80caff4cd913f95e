package annotation

import (
	"sort"
	"strconv"
)

// Index is the sparse span index: offset key -> bucket of the entities that
// begin there and the relations anchored at them. Buckets and arrays are
// pruned as soon as they become empty.
type Index map[string]*Bucket

func OffsetKey(begin int) string {
	return strconv.Itoa(begin)
}

// Keys returns the bucket keys in iteration order: canonical non-negative
// integer keys ascending, then any other key lexicographically.
func (ix Index) Keys() []string {
	keys := make([]string, 0, len(ix))
	for key := range ix {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, aok := integerKey(keys[i])
		b, bok := integerKey(keys[j])
		switch {
		case aok && bok:
			return a < b
		case aok != bok:
			return aok
		default:
			return keys[i] < keys[j]
		}
	})
	return keys
}

func integerKey(key string) (int, bool) {
	n, err := strconv.Atoi(key)
	if err != nil || n < 0 || strconv.Itoa(n) != key {
		return 0, false
	}
	return n, true
}

func (ix Index) Entity(key string, i int) (*Entity, bool) {
	b := ix[key]
	if b == nil || i < 0 || i >= len(b.Entities) || b.Entities[i] == nil {
		return nil, false
	}
	return b.Entities[i], true
}

func (ix Index) Relation(key string, i int) (*Relation, bool) {
	b := ix[key]
	if b == nil || i < 0 || i >= len(b.Relations) || b.Relations[i] == nil {
		return nil, false
	}
	return b.Relations[i], true
}

// AddEntity appends e to the bucket keyed by its begin offset and returns that key.
func (ix Index) AddEntity(e *Entity) string {
	key := OffsetKey(e.Begin)
	b := ix.ensure(key)
	b.Entities = append(b.Entities, e)
	return key
}

func (ix Index) AddRelation(key string, r *Relation) {
	b := ix.ensure(key)
	b.Relations = append(b.Relations, r)
}

// RemoveEntity deletes the entity at key/i together with every relation in the
// index whose endpoint snapshots it. It returns the removed entity and the
// number of relations dropped with it.
func (ix Index) RemoveEntity(key string, i int) (*Entity, int, bool) {
	entity, ok := ix.Entity(key, i)
	if !ok {
		return nil, 0, false
	}

	removed := 0
	for _, k := range ix.Keys() {
		b := ix[k]
		if b == nil || len(b.Relations) == 0 {
			continue
		}
		kept := b.Relations[:0]
		for _, rel := range b.Relations {
			if rel != nil && rel.References(entity) {
				removed++
				continue
			}
			kept = append(kept, rel)
		}
		clear(b.Relations[len(kept):])
		b.Relations = kept
		ix.prune(k)
	}

	b := ix[key]
	b.Entities = append(b.Entities[:i], b.Entities[i+1:]...)
	ix.prune(key)
	return entity, removed, true
}

func (ix Index) RemoveRelation(key string, i int) (*Relation, bool) {
	rel, ok := ix.Relation(key, i)
	if !ok {
		return nil, false
	}
	b := ix[key]
	b.Relations = append(b.Relations[:i], b.Relations[i+1:]...)
	ix.prune(key)
	return rel, true
}

// Sparse reports whether no bucket is empty and no bucket holds an empty array.
func (ix Index) Sparse() bool {
	for _, b := range ix {
		if b == nil || b.empty() {
			return false
		}
		if b.Entities != nil && len(b.Entities) == 0 {
			return false
		}
		if b.Relations != nil && len(b.Relations) == 0 {
			return false
		}
	}
	return true
}

// Compact prunes every bucket; used after decoding documents written by other tools.
func (ix Index) Compact() {
	for _, key := range ix.Keys() {
		ix.prune(key)
	}
}

func (ix Index) ensure(key string) *Bucket {
	b := ix[key]
	if b == nil {
		b = &Bucket{}
		ix[key] = b
	}
	return b
}

func (ix Index) prune(key string) {
	b := ix[key]
	if b == nil {
		delete(ix, key)
		return
	}
	if len(b.Entities) == 0 {
		b.Entities = nil
	}
	if len(b.Relations) == 0 {
		b.Relations = nil
	}
	if b.empty() {
		delete(ix, key)
	}
}
