package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/a3tai/mcp-notice-extractor/internal/textract"
)

func word(id, text string) textract.Block {
	return textract.Block{ID: id, Type: textract.BlockTypeWord, Text: text}
}

func checkbox(id string, status textract.SelectionStatus) textract.Block {
	return textract.Block{ID: id, Type: textract.BlockTypeSelectionElement, SelectionStatus: status}
}

func children(ids ...string) textract.Relationship {
	return textract.Relationship{Type: textract.RelationshipTypeChild, IDs: ids}
}

func values(ids ...string) textract.Relationship {
	return textract.Relationship{Type: textract.RelationshipTypeValue, IDs: ids}
}

func keyBlock(id string, rels ...textract.Relationship) textract.Block {
	return textract.Block{
		ID:            id,
		Type:          textract.BlockTypeKeyValueSet,
		EntityTypes:   []textract.EntityType{textract.EntityTypeKey},
		Relationships: rels,
	}
}

func valueBlock(id string, rels ...textract.Relationship) textract.Block {
	return textract.Block{
		ID:            id,
		Type:          textract.BlockTypeKeyValueSet,
		EntityTypes:   []textract.EntityType{textract.EntityTypeValue},
		Relationships: rels,
	}
}

func TestResolveText(t *testing.T) {
	blocks := []textract.Block{
		word("w1", "June"),
		word("w2", "15,"),
		word("w3", "2024"),
		checkbox("c1", textract.SelectionStatusSelected),
		checkbox("c2", ""),
		{ID: "l1", Type: textract.BlockTypeLine, Text: "June 15, 2024"},
	}
	idx := textract.NewIndex(blocks, nil)

	tests := []struct {
		name  string
		block textract.Block
		want  string
	}{
		{
			name:  "words_in_order",
			block: valueBlock("v", children("w1", "w2", "w3")),
			want:  "June 15, 2024",
		},
		{
			name:  "multiple_child_relationships",
			block: valueBlock("v", children("w1"), children("w2", "w3")),
			want:  "June 15, 2024",
		},
		{
			name:  "selection_elements",
			block: valueBlock("v", children("c1", "w1", "c2")),
			want:  "[SELECTED] June [NOT_SELECTED]",
		},
		{
			name:  "missing_child_skipped",
			block: valueBlock("v", children("w1", "ghost", "w3")),
			want:  "June 2024",
		},
		{
			name:  "non_word_children_ignored",
			block: valueBlock("v", children("l1")),
			want:  "",
		},
		{
			name:  "fallback_to_own_text",
			block: textract.Block{ID: "x", Type: textract.BlockTypeLine, Text: "  Annual  "},
			want:  "Annual",
		},
		{
			name: "children_take_precedence_over_own_text",
			block: textract.Block{
				ID: "x", Type: textract.BlockTypeKeyValueSet, Text: "ignored",
				Relationships: []textract.Relationship{children("w3")},
			},
			want: "2024",
		},
		{
			name: "fallback_when_children_all_missing",
			block: textract.Block{
				ID: "x", Type: textract.BlockTypeKeyValueSet, Text: "Special",
				Relationships: []textract.Relationship{children("ghost")},
			},
			want: "Special",
		},
		{
			name:  "value_relationship_not_followed",
			block: keyBlock("k", values("w1")),
			want:  "",
		},
		{
			name:  "no_relationships_no_text",
			block: textract.Block{ID: "x", Type: textract.BlockTypeKeyValueSet},
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveText(tt.block, idx))
		})
	}
}

func TestLocateValue(t *testing.T) {
	blocks := []textract.Block{
		word("w1", "June"),
		word("w2", "15,"),
		word("w3", "2024"),
		word("w4", "Annual"),
		valueBlock("v1", children("w1", "w2", "w3")),
		valueBlock("v2", children("w4")),
		valueBlock("empty"),
	}
	idx := textract.NewIndex(blocks, nil)

	tests := []struct {
		name string
		key  textract.Block
		want string
	}{
		{name: "single_value", key: keyBlock("k", values("v1")), want: "June 15, 2024"},
		{name: "multiple_values_in_order", key: keyBlock("k", values("v2", "v1")), want: "Annual June 15, 2024"},
		{name: "multiple_value_relationships", key: keyBlock("k", values("v1"), values("v2")), want: "June 15, 2024 Annual"},
		{name: "missing_value_block", key: keyBlock("k", values("ghost")), want: ""},
		{name: "empty_value_block", key: keyBlock("k", values("empty", "v2")), want: "Annual"},
		{name: "no_value_relationship", key: keyBlock("k", children("w1")), want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LocateValue(tt.key, idx))
		})
	}
}
