package render

import (
	"sort"
	"strconv"

	"spanmark/internal/annotation"
)

// Span is an entity as seen from a segment: the entity plus where it lives in the index.
type Span struct {
	Entity    *annotation.Entity `json:"entity"`
	OffsetKey string             `json:"offsetKey"`
	Position  int                `json:"entityIndex"`
}

func (s Span) Begin() int { return s.Entity.Begin }

func (s Span) End() int { return s.Entity.End }

// Identity is the entity id, or key-position for entities written without one.
func (s Span) Identity() string {
	if s.Entity.ID != "" {
		return s.Entity.ID
	}
	return s.OffsetKey + "-" + strconv.Itoa(s.Position)
}

// Segment is a minimal slice [Start, End) between two consecutive boundaries
// together with every span covering it.
type Segment struct {
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Spans []Span `json:"entities"`
}

func (s Segment) Annotated() bool {
	return len(s.Spans) > 0
}

// Segments partitions content at every entity boundary. Offsets count UTF-16
// code units. Relations do not introduce boundaries. Covering spans are listed in
// index order.
func Segments(content string, ix annotation.Index) []Segment {
	if content == "" {
		return nil
	}
	units := annotation.Units(content)

	boundaries := map[int]struct{}{0: {}, len(units): {}}
	var spans []Span
	for _, entry := range ix.Entities() {
		boundaries[entry.Entity.Begin] = struct{}{}
		boundaries[entry.Entity.End] = struct{}{}
		spans = append(spans, Span{Entity: entry.Entity, OffsetKey: entry.OffsetKey, Position: entry.Position})
	}

	sorted := make([]int, 0, len(boundaries))
	for b := range boundaries {
		sorted = append(sorted, b)
	}
	sort.Ints(sorted)

	segments := make([]Segment, 0, len(sorted)-1)
	for i := 0; i < len(sorted)-1; i++ {
		start, end := sorted[i], sorted[i+1]
		var covering []Span
		for _, span := range spans {
			if span.Begin() <= start && span.End() >= end {
				covering = append(covering, span)
			}
		}
		segments = append(segments, Segment{
			Text:  annotation.SliceUnits(units, start, end),
			Start: start,
			End:   end,
			Spans: covering,
		})
	}
	return segments
}
