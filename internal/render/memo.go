package render

import (
	"strconv"

	"github.com/zeebo/blake3"

	"spanmark/internal/annotation"
)

// Signature hashes everything segmentation depends on: the content and, in
// index order, each entity's location, id, label and span.
func Signature(content string, ix annotation.Index) [32]byte {
	h := blake3.New()
	writeField(h, content)
	for _, entry := range ix.Entities() {
		e := entry.Entity
		writeField(h, entry.OffsetKey)
		writeField(h, strconv.Itoa(entry.Position))
		writeField(h, e.ID)
		writeField(h, e.Semantic)
		writeField(h, strconv.Itoa(e.Begin))
		writeField(h, strconv.Itoa(e.End))
	}
	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

func writeField(h *blake3.Hasher, s string) {
	_, _ = h.WriteString(strconv.Itoa(len(s)))
	_, _ = h.WriteString(":")
	_, _ = h.WriteString(s)
}

// Memo caches the last segmentation keyed by Signature. It is not safe for
// concurrent use; each editing session keeps its own.
type Memo struct {
	signature [32]byte
	valid     bool
	segments  []Segment
	blocks    []Block
	hits      int
}

func (m *Memo) Segments(content string, ix annotation.Index) []Segment {
	m.refresh(content, ix)
	return m.segments
}

func (m *Memo) Blocks(content string, ix annotation.Index) []Block {
	m.refresh(content, ix)
	return m.blocks
}

// Hits counts lookups answered from the cache.
func (m *Memo) Hits() int {
	return m.hits
}

func (m *Memo) Invalidate() {
	m.valid = false
	m.segments = nil
	m.blocks = nil
}

func (m *Memo) refresh(content string, ix annotation.Index) {
	sig := Signature(content, ix)
	if m.valid && sig == m.signature {
		m.hits++
		return
	}
	m.signature = sig
	m.segments = Segments(content, ix)
	m.blocks = MergeBlocks(m.segments)
	m.valid = true
}
