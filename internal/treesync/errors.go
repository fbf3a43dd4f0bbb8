package treesync

import (
	sitter "github.com/smacker/go-tree-sitter"

	"sigtrack/internal/text"
)

// HasErrorIn reports whether the buffer's cached tree has an ERROR or
// MISSING node intersecting r. Meaningful only on a committed tree.
func (s *Synchronizer) HasErrorIn(buf *text.Buffer, r text.Range) bool {
	st, ok := s.states[buf]
	if !ok || st.tree == nil {
		return false
	}
	return hasErrorIn(st.tree.RootNode(), r)
}

func hasErrorIn(node *sitter.Node, r text.Range) bool {
	if node == nil {
		return false
	}
	nodeRange := text.Range{Start: node.StartByte(), End: node.EndByte()}
	if !nodeRange.Intersects(r) {
		return false
	}
	if node.IsMissing() || node.Type() == "ERROR" {
		return true
	}
	// Error subtrees are rare; only descend where the parser reports
	// one at all.
	if !node.HasError() {
		return false
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		if hasErrorIn(node.Child(i), r) {
			return true
		}
	}
	return false
}

// pointAt converts a byte offset into a tree-sitter row/column point.
func pointAt(content []byte, off uint32) sitter.Point {
	if off > uint32(len(content)) {
		off = uint32(len(content))
	}
	var point sitter.Point
	for i := uint32(0); i < off; i++ {
		if content[i] == '\n' {
			point.Row++
			point.Column = 0
		} else {
			point.Column++
		}
	}
	return point
}
