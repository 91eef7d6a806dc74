package extraction

import (
	"strings"

	"github.com/a3tai/mcp-notice-extractor/internal/textract"
)

// ResolveText returns the plain text a block represents.
//
// Word children contribute their text and selection-element children a
// bracketed status token such as "[SELECTED]", in relationship order. Child ids
// missing from the index are skipped. When the children yield nothing, the
// block's own text is used.
func ResolveText(block textract.Block, idx *textract.Index) string {
	var b strings.Builder

	for _, id := range block.RelatedIDs(textract.RelationshipTypeChild) {
		child, err := idx.Get(id)
		if err != nil {
			continue
		}

		switch child.Type {
		case textract.BlockTypeWord:
			b.WriteString(child.Text)
			b.WriteByte(' ')
		case textract.BlockTypeSelectionElement:
			b.WriteByte('[')
			b.WriteString(string(child.SelectionStatusOrDefault()))
			b.WriteString("] ")
		}
	}

	text := b.String()
	if strings.TrimSpace(text) == "" && block.Text != "" {
		text = block.Text
	}

	return strings.TrimSpace(text)
}
