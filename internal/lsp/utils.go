package lsp

import (
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// positionToOffset converts an LSP line/character position to a byte
// offset, clamped to the content.
func positionToOffset(content []byte, pos protocol.Position) uint32 {
	var offset uint32
	var line uint32

	for offset < uint32(len(content)) && line < pos.Line {
		if content[offset] == '\n' {
			line++
		}
		offset++
	}

	offset += pos.Character
	if offset > uint32(len(content)) {
		offset = uint32(len(content))
	}
	return offset
}
