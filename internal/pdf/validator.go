package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// MaxAnalyzablePages is the page limit of synchronous form analysis
const MaxAnalyzablePages = 1

// ErrInvalidDocument marks documents rejected before analysis
var ErrInvalidDocument = errors.New("invalid document")

var pdfHeader = []byte("%PDF-")

// Validator handles PDF file validation operations
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a new PDF validator with the specified constraints
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{
		maxFileSize: maxFileSize,
	}
}

// ValidateFile performs comprehensive validation on a PDF file
func (v *Validator) ValidateFile(req PDFValidateFileRequest) (*PDFValidateFileResult, error) {
	result := &PDFValidateFileResult{
		Path:  req.Path,
		Valid: false,
	}

	info, err := v.validatePDFFile(req.Path)
	if err != nil {
		result.Message = err.Error()
		return result, nil //nolint:nilerr // Return result with validation error, not a processing error
	}

	result.Valid = true
	result.Pages = info.Pages
	return result, nil
}

// ReadFile validates a PDF file and returns its contents for analysis
func (v *Validator) ReadFile(filePath string) ([]byte, *DocumentInfo, error) {
	fileInfo, err := v.statFile(filePath)
	if err != nil {
		return nil, nil, err
	}
	if err := v.ValidateFileInfo(filePath, fileInfo); err != nil {
		return nil, nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot read file: %w", err)
	}

	info, err := v.ValidateDocument(fileInfo.Name(), data)
	if err != nil {
		return nil, nil, err
	}
	return data, info, nil
}

// validatePDFFile performs detailed validation on a PDF file
func (v *Validator) validatePDFFile(filePath string) (*DocumentInfo, error) {
	_, info, err := v.ReadFile(filePath)
	return info, err
}

func (v *Validator) statFile(filePath string) (os.FileInfo, error) {
	if filePath == "" {
		return nil, fmt.Errorf("path cannot be empty")
	}

	fileInfo, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("file does not exist: %s", filePath)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot access file: %w", err)
	}
	return fileInfo, nil
}

// ValidateDocument checks that in-memory bytes are a single-page PDF within
// the size limit. Errors wrap ErrInvalidDocument.
func (v *Validator) ValidateDocument(name string, data []byte) (*DocumentInfo, error) {
	size := int64(len(data))
	if size == 0 {
		return nil, fmt.Errorf("%w: document is empty: %s", ErrInvalidDocument, name)
	}
	if size > v.maxFileSize {
		return nil, fmt.Errorf("%w: document too large: %d bytes (max: %d bytes)",
			ErrInvalidDocument, size, v.maxFileSize)
	}
	if !bytes.HasPrefix(data, pdfHeader) {
		return nil, fmt.Errorf("%w: not a PDF document: %s", ErrInvalidDocument, name)
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read PDF: %v", ErrInvalidDocument, err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("%w: failed to count pages: %v", ErrInvalidDocument, err)
	}

	if ctx.PageCount < 1 {
		return nil, fmt.Errorf("%w: document has no pages: %s", ErrInvalidDocument, name)
	}
	if ctx.PageCount > MaxAnalyzablePages {
		return nil, fmt.Errorf("%w: document has %d pages, only single-page notices can be analyzed",
			ErrInvalidDocument, ctx.PageCount)
	}

	return &DocumentInfo{
		Name:       name,
		Size:       size,
		Pages:      ctx.PageCount,
		PDFVersion: ctx.VersionString(),
	}, nil
}

// IsValidPDF performs a quick check to see if a file is an analyzable PDF
func (v *Validator) IsValidPDF(filePath string) bool {
	_, err := v.validatePDFFile(filePath)
	return err == nil
}

// ValidateFileInfo performs basic validation on file info without opening the PDF
func (v *Validator) ValidateFileInfo(filePath string, fileInfo os.FileInfo) error {
	if fileInfo.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", filePath)
	}

	if !strings.HasSuffix(strings.ToLower(filePath), ".pdf") {
		return fmt.Errorf("file is not a PDF: %s", filePath)
	}

	if fileInfo.Size() == 0 {
		return fmt.Errorf("file is empty: %s", filePath)
	}

	if fileInfo.Size() > v.maxFileSize {
		return fmt.Errorf("file too large: %d bytes (max: %d bytes)",
			fileInfo.Size(), v.maxFileSize)
	}

	return nil
}
