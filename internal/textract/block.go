package textract

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"
)

// BlockType identifies the kind of region a Block describes
type BlockType string

const (
	BlockTypeKeyValueSet      BlockType = "KEY_VALUE_SET"
	BlockTypeWord             BlockType = "WORD"
	BlockTypeSelectionElement BlockType = "SELECTION_ELEMENT"
	BlockTypeLine             BlockType = "LINE"
	BlockTypePage             BlockType = "PAGE"
)

// EntityType marks a KEY_VALUE_SET block as the key or the value side of a pair
type EntityType string

const (
	EntityTypeKey   EntityType = "KEY"
	EntityTypeValue EntityType = "VALUE"
)

// RelationshipType is the link type between two blocks
type RelationshipType string

const (
	RelationshipTypeChild RelationshipType = "CHILD"
	RelationshipTypeValue RelationshipType = "VALUE"
)

// SelectionStatus is the state of a checkbox or radio element
type SelectionStatus string

const (
	SelectionStatusSelected    SelectionStatus = "SELECTED"
	SelectionStatusNotSelected SelectionStatus = "NOT_SELECTED"
)

// Relationship links a block to other blocks by id, in response order
type Relationship struct {
	Type RelationshipType `json:"type"`
	IDs  []string         `json:"ids"`
}

// Block is one region returned by document analysis.
//
// Optional attributes are represented by their zero value: an absent Text is "",
// an absent SelectionStatus is "". Page and Confidence are informational only.
type Block struct {
	ID              string          `json:"id"`
	Type            BlockType       `json:"type"`
	Text            string          `json:"text,omitempty"`
	EntityTypes     []EntityType    `json:"entity_types,omitempty"`
	Relationships   []Relationship  `json:"relationships,omitempty"`
	SelectionStatus SelectionStatus `json:"selection_status,omitempty"`
	Page            int             `json:"page,omitempty"`
	Confidence      float64         `json:"confidence,omitempty"`
}

// HasEntityType reports whether the block carries the given entity role
func (b Block) HasEntityType(entity EntityType) bool {
	for _, e := range b.EntityTypes {
		if e == entity {
			return true
		}
	}
	return false
}

// IsKey reports whether the block is the key side of a form key-value pair
func (b Block) IsKey() bool {
	return b.Type == BlockTypeKeyValueSet && b.HasEntityType(EntityTypeKey)
}

// RelatedIDs returns the ids of every relationship of the given type, in order
func (b Block) RelatedIDs(relType RelationshipType) []string {
	var ids []string
	for _, rel := range b.Relationships {
		if rel.Type == relType {
			ids = append(ids, rel.IDs...)
		}
	}
	return ids
}

// SelectionStatusOrDefault returns the selection status, NOT_SELECTED when absent
func (b Block) SelectionStatusOrDefault() SelectionStatus {
	if b.SelectionStatus == "" {
		return SelectionStatusNotSelected
	}
	return b.SelectionStatus
}

// FromSDKBlock converts a Textract SDK block into a Block.
// A block without an id or a type cannot be indexed and is rejected.
func FromSDKBlock(sdk types.Block) (Block, error) {
	id := aws.ToString(sdk.Id)
	if id == "" {
		return Block{}, fmt.Errorf("block of type %q has no id", sdk.BlockType)
	}
	if sdk.BlockType == "" {
		return Block{}, fmt.Errorf("block %s has no type", id)
	}

	b := Block{
		ID:              id,
		Type:            BlockType(sdk.BlockType),
		Text:            aws.ToString(sdk.Text),
		SelectionStatus: SelectionStatus(sdk.SelectionStatus),
		Page:            int(aws.ToInt32(sdk.Page)),
		Confidence:      float64(aws.ToFloat32(sdk.Confidence)),
	}

	if len(sdk.EntityTypes) > 0 {
		b.EntityTypes = make([]EntityType, 0, len(sdk.EntityTypes))
		for _, e := range sdk.EntityTypes {
			b.EntityTypes = append(b.EntityTypes, EntityType(e))
		}
	}

	if len(sdk.Relationships) > 0 {
		b.Relationships = make([]Relationship, 0, len(sdk.Relationships))
		for _, rel := range sdk.Relationships {
			ids := make([]string, len(rel.Ids))
			copy(ids, rel.Ids)
			b.Relationships = append(b.Relationships, Relationship{
				Type: RelationshipType(rel.Type),
				IDs:  ids,
			})
		}
	}

	return b, nil
}

// FromSDKBlocks converts a full response, preserving order
func FromSDKBlocks(sdk []types.Block) ([]Block, error) {
	blocks := make([]Block, 0, len(sdk))
	for i, b := range sdk {
		block, err := FromSDKBlock(b)
		if err != nil {
			return nil, fmt.Errorf("malformed block at position %d: %w", i, err)
		}
		blocks = append(blocks, block)
	}
	return blocks, nil
}
