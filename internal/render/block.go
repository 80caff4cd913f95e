package render

import (
	"strings"

	"spanmark/internal/annotation"
)

type BlockKind string

const (
	BlockPlain     BlockKind = "plain"
	BlockAnnotated BlockKind = "annotated"
)

// Block is one renderable unit: a plain segment, or a run of connected
// annotated segments with the deduplicated spans found in them.
type Block struct {
	Kind     BlockKind `json:"type"`
	Text     string    `json:"text,omitempty"`
	Start    int       `json:"start"`
	End      int       `json:"end"`
	Segments []Segment `json:"segments,omitempty"`
	Spans    []Span    `json:"entities,omitempty"`
}

// Content returns the text covered by the block.
func (b Block) Content() string {
	if b.Kind == BlockPlain {
		return b.Text
	}
	var sb strings.Builder
	for _, seg := range b.Segments {
		sb.WriteString(seg.Text)
	}
	return sb.String()
}

// Blocks runs Segments and MergeBlocks.
func Blocks(content string, ix annotation.Index) []Block {
	return MergeBlocks(Segments(content, ix))
}

// MergeBlocks coalesces segments left to right. An annotated segment joins the
// open block when it shares a span identity with the block, or when one of
// its spans began before the segment and overlaps the block's range. There is
// no matching rule for spans that only extend past the block's end.
func MergeBlocks(segments []Segment) []Block {
	if len(segments) == 0 {
		return nil
	}

	var blocks []Block
	i := 0
	for i < len(segments) {
		seg := segments[i]
		if !seg.Annotated() {
			blocks = append(blocks, Block{Kind: BlockPlain, Text: seg.Text, Start: seg.Start, End: seg.End})
			i++
			continue
		}

		members := []Segment{seg}
		seen := make(map[string]struct{}, len(seg.Spans))
		for _, span := range seg.Spans {
			seen[span.Identity()] = struct{}{}
		}
		blockStart, blockEnd := seg.Start, seg.End

		j := i + 1
		for j < len(segments) && segments[j].Annotated() {
			next := segments[j]
			if !connected(next, seen, blockStart, blockEnd) {
				break
			}
			members = append(members, next)
			for _, span := range next.Spans {
				seen[span.Identity()] = struct{}{}
			}
			blockEnd = max(blockEnd, next.End)
			j++
		}

		blocks = append(blocks, Block{
			Kind:     BlockAnnotated,
			Start:    members[0].Start,
			End:      members[len(members)-1].End,
			Segments: members,
			Spans:    uniqueSpans(members),
		})
		i = j
	}
	return blocks
}

func connected(next Segment, seen map[string]struct{}, blockStart, blockEnd int) bool {
	for _, span := range next.Spans {
		if _, ok := seen[span.Identity()]; ok {
			return true
		}
	}
	for _, span := range next.Spans {
		if span.Begin() < next.Start && span.Begin() < blockEnd && span.End() > blockStart {
			return true
		}
	}
	return false
}

func uniqueSpans(segments []Segment) []Span {
	seen := make(map[string]struct{})
	var spans []Span
	for _, seg := range segments {
		for _, span := range seg.Spans {
			id := span.Identity()
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			spans = append(spans, span)
		}
	}
	return spans
}
