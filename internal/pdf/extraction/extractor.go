package extraction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/a3tai/mcp-notice-extractor/internal/textract"
)

// NotFound is the value reported for a field that a successful pass did not locate
const NotFound = "Not Found"

// Analyzer runs form analysis on a single-page document
type Analyzer interface {
	AnalyzeDocument(ctx context.Context, document []byte) ([]textract.Block, error)
}

// Status is the terminal state of a successful pass
type Status string

const (
	// StatusDone means the document was scanned; every field is present
	StatusDone Status = "done"
	// StatusEmpty means analysis returned no blocks; no fields are present
	StatusEmpty Status = "empty"
)

// FieldValue is one canonical field of a result
type FieldValue struct {
	Name  string `json:"field"`
	Value string `json:"value"`
	Found bool   `json:"found"`
}

// Result is the outcome of one extraction pass
type Result struct {
	PassID            string        `json:"pass_id"`
	Status            Status        `json:"status"`
	Fields            []FieldValue  `json:"fields"`
	BlockCount        int           `json:"block_count"`
	KeyBlockCount     int           `json:"key_block_count"`
	MissingReferences int           `json:"missing_references"`
	Duration          time.Duration `json:"duration"`
}

// IsEmpty reports whether analysis found nothing in the document
func (r *Result) IsEmpty() bool {
	return r.Status == StatusEmpty
}

// Get returns the value for a canonical field
func (r *Result) Get(name string) (string, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Map returns the result as canonical name -> value. It is empty for an empty pass.
func (r *Result) Map() map[string]string {
	m := make(map[string]string, len(r.Fields))
	for _, f := range r.Fields {
		m[f.Name] = f.Value
	}
	return m
}

// FoundCount returns how many fields were located
func (r *Result) FoundCount() int {
	n := 0
	for _, f := range r.Fields {
		if f.Found {
			n++
		}
	}
	return n
}

// Extractor drives extraction passes. It holds no per-pass state and may be
// shared between goroutines as long as its Analyzer can.
type Extractor struct {
	analyzer Analyzer
	logger   *zap.Logger
}

// NewExtractor creates an extractor that analyzes documents with analyzer
func NewExtractor(analyzer Analyzer, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		analyzer: analyzer,
		logger:   logger,
	}
}

// Extract runs one pass over document. On failure it returns a
// *textract.AnalysisError and no result.
func (e *Extractor) Extract(ctx context.Context, document []byte, vocabulary *Vocabulary) (result *Result, err error) {
	if vocabulary == nil {
		return nil, errors.New("vocabulary cannot be nil")
	}

	start := time.Now()
	passID := uuid.NewString()
	log := e.logger.With(zap.String("pass_id", passID))

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = textract.NewAnalysisError(textract.ErrorKindUnexpected,
				fmt.Sprintf("panic during extraction: %v", r), nil)
			log.Error("extraction pass panicked", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()

	blocks, err := e.analyzer.AnalyzeDocument(ctx, document)
	if err != nil {
		ae := textract.Classify(err)
		log.Warn("document analysis failed", zap.String("kind", ae.Kind.String()), zap.Error(err))
		return nil, ae
	}

	if len(blocks) == 0 {
		log.Info("analysis returned no blocks")
		return &Result{
			PassID:   passID,
			Status:   StatusEmpty,
			Fields:   []FieldValue{},
			Duration: time.Since(start),
		}, nil
	}

	idx := textract.NewIndex(blocks, log)
	matcher := NewMatcher(vocabulary)
	recorded := make(map[string]string, vocabulary.Len())
	keyBlocks := 0

	for _, block := range blocks {
		if !block.IsKey() {
			continue
		}
		keyBlocks++

		canonical, ok := matcher.Match(ResolveText(block, idx))
		if !ok {
			continue
		}
		if _, seen := recorded[canonical]; seen {
			continue
		}
		recorded[canonical] = LocateValue(block, idx)
	}

	fields := make([]FieldValue, 0, vocabulary.Len())
	for _, name := range vocabulary.FieldNames() {
		value, found := recorded[name]
		if !found {
			value = NotFound
		}
		fields = append(fields, FieldValue{Name: name, Value: value, Found: found})
	}

	result = &Result{
		PassID:            passID,
		Status:            StatusDone,
		Fields:            fields,
		BlockCount:        len(blocks),
		KeyBlockCount:     keyBlocks,
		MissingReferences: idx.Missing(),
		Duration:          time.Since(start),
	}

	log.Info("extraction pass complete",
		zap.Int("blocks", result.BlockCount),
		zap.Int("key_blocks", keyBlocks),
		zap.Int("matched", len(recorded)),
		zap.Int("missing_refs", result.MissingReferences),
		zap.Duration("duration", result.Duration),
	)

	return result, nil
}
