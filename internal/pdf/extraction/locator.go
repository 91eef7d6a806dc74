package extraction

import (
	"strings"

	"github.com/a3tai/mcp-notice-extractor/internal/textract"
)

// LocateValue follows a key block's VALUE relationships and returns the text of
// the linked value blocks, joined in encounter order. An empty string means the
// form has no value written for the key.
func LocateValue(key textract.Block, idx *textract.Index) string {
	var b strings.Builder

	for _, id := range key.RelatedIDs(textract.RelationshipTypeValue) {
		value, err := idx.Get(id)
		if err != nil {
			continue
		}
		b.WriteString(ResolveText(value, idx))
		b.WriteByte(' ')
	}

	return strings.TrimSpace(b.String())
}
