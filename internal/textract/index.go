package textract

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrBlockNotFound is returned by Index.Get for ids absent from the response.
// It is recoverable: callers skip the reference and continue.
var ErrBlockNotFound = errors.New("block not found")

// Index maps block ids to blocks for one analysis response.
// An Index belongs to a single extraction pass and is not safe for concurrent use.
type Index struct {
	blocks  map[string]Block
	missing int
	logger  *zap.Logger
}

// NewIndex builds an index over blocks. When ids repeat, the later block wins.
func NewIndex(blocks []Block, logger *zap.Logger) *Index {
	if logger == nil {
		logger = zap.NewNop()
	}

	idx := &Index{
		blocks: make(map[string]Block, len(blocks)),
		logger: logger,
	}
	for _, b := range blocks {
		if _, dup := idx.blocks[b.ID]; dup {
			logger.Debug("duplicate block id in response", zap.String("block_id", b.ID))
		}
		idx.blocks[b.ID] = b
	}
	return idx
}

// Get returns the block with the given id, or an error wrapping ErrBlockNotFound
func (i *Index) Get(id string) (Block, error) {
	b, ok := i.blocks[id]
	if !ok {
		i.missing++
		i.logger.Debug("skipping unresolved block reference", zap.String("block_id", id))
		return Block{}, fmt.Errorf("%w: %s", ErrBlockNotFound, id)
	}
	return b, nil
}

// Len returns the number of indexed blocks
func (i *Index) Len() int {
	return len(i.blocks)
}

// Missing returns how many lookups referenced an absent id
func (i *Index) Missing() int {
	return i.missing
}
