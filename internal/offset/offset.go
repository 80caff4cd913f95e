// Package offset maps positions inside a rendered view back to absolute text
// offsets. The view is modeled as a tree of elements and character-data
// nodes; elements that start a run of document text record its base offset.
package offset

import (
	"strings"

	"spanmark/internal/annotation"
	"spanmark/internal/render"
)

// Unresolved is returned when no ancestor carries a base offset.
const Unresolved = -1

type Node struct {
	parent   *Node
	children []*Node
	text     bool
	data     string
	base     int
	hasBase  bool
}

func NewElement(parent *Node) *Node {
	return attach(parent, &Node{})
}

// NewAnchor creates an element whose text begins at base.
func NewAnchor(parent *Node, base int) *Node {
	return attach(parent, &Node{base: base, hasBase: true})
}

func NewText(parent *Node, data string) *Node {
	return attach(parent, &Node{text: true, data: data})
}

func attach(parent, n *Node) *Node {
	if parent != nil {
		n.parent = parent
		parent.children = append(parent.children, n)
	}
	return n
}

func (n *Node) Parent() *Node { return n.parent }

func (n *Node) Children() []*Node { return n.children }

func (n *Node) IsText() bool { return n.text }

func (n *Node) Data() string { return n.data }

// Resolve converts a position (node plus delta within it) to an absolute
// offset. Character data resolves to its nearest anchored ancestor's base plus
// delta; an element resolves to the base of itself or its nearest anchored
// ancestor.
func Resolve(n *Node, delta int) int {
	if n == nil {
		return Unresolved
	}
	el := n
	if n.text {
		el = n.parent
	}
	for el != nil && !el.hasBase {
		el = el.parent
	}
	if el == nil {
		return Unresolved
	}
	if n.text {
		return el.base + delta
	}
	return el.base
}

// Selection resolves both ends of a raw selection. It reports false when
// either end is unresolvable, the range is empty or reversed, or the selected
// text is blank; such selections are dropped silently.
func Selection(startNode *Node, startDelta int, endNode *Node, endDelta int, text string) (int, int, bool) {
	start := Resolve(startNode, startDelta)
	end := Resolve(endNode, endDelta)
	if start < 0 || end < 0 || start >= end {
		return 0, 0, false
	}
	if strings.TrimSpace(text) == "" {
		return 0, 0, false
	}
	return start, end, true
}

// Layout builds the tree a renderer produces for blocks: every plain block
// and every segment of an annotated block becomes an anchor holding its text.
// Annotated blocks get an unanchored wrapper element.
func Layout(blocks []render.Block) *Node {
	root := NewElement(nil)
	for _, b := range blocks {
		if b.Kind == render.BlockPlain {
			NewText(NewAnchor(root, b.Start), b.Text)
			continue
		}
		wrapper := NewElement(root)
		for _, seg := range b.Segments {
			NewText(NewAnchor(wrapper, seg.Start), seg.Text)
		}
	}
	return root
}

// Point is a position in the view: a node and a UTF-16 code unit delta
// within it.
type Point struct {
	Node  *Node
	Delta int
}

// TextNodes returns the character-data nodes under root in document order.
func TextNodes(root *Node) []*Node {
	var out []*Node
	var walk func(n *Node)
	walk = func(n *Node) {
		if n.text {
			out = append(out, n)
			return
		}
		for _, c := range n.children {
			walk(c)
		}
	}
	if root != nil {
		walk(root)
	}
	return out
}

// Find locates the nth (zero based) occurrence of text in the character data
// under root, read as one string, and returns the view points bounding it. A
// match may cross node boundaries.
func Find(root *Node, text string, nth int) (Point, Point, bool) {
	needle := annotation.Units(text)
	if len(needle) == 0 || nth < 0 {
		return Point{}, Point{}, false
	}
	nodes := TextNodes(root)
	starts := make([]int, len(nodes))
	sizes := make([]int, len(nodes))
	var hay []uint16
	for i, n := range nodes {
		units := annotation.Units(n.data)
		starts[i], sizes[i] = len(hay), len(units)
		hay = append(hay, units...)
	}

	seen := 0
	for pos := 0; pos+len(needle) <= len(hay); pos++ {
		if !hasPrefix(hay[pos:], needle) {
			continue
		}
		if seen < nth {
			seen++
			continue
		}
		end := pos + len(needle)
		var start, stop Point
		for i, n := range nodes {
			size := sizes[i]
			if pos >= starts[i] && pos < starts[i]+size {
				start = Point{Node: n, Delta: pos - starts[i]}
			}
			if end > starts[i] && end <= starts[i]+size {
				stop = Point{Node: n, Delta: end - starts[i]}
			}
		}
		return start, stop, start.Node != nil && stop.Node != nil
	}
	return Point{}, Point{}, false
}

func hasPrefix(s, prefix []uint16) bool {
	for i, u := range prefix {
		if s[i] != u {
			return false
		}
	}
	return true
}
