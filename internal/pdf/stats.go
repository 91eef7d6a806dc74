package pdf

import (
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Stats handles PDF statistics operations
type Stats struct {
	maxFileSize int64
	validator   *Validator
}

// NewStats creates a new PDF stats analyzer with the specified constraints
func NewStats(maxFileSize int64) *Stats {
	return &Stats{
		maxFileSize: maxFileSize,
		validator:   NewValidator(maxFileSize),
	}
}

// GetFileStats returns detailed statistics about a single PDF file
func (s *Stats) GetFileStats(req PDFStatsFileRequest) (*PDFStatsFileResult, error) {
	fileInfo, err := s.validator.statFile(req.Path)
	if err != nil {
		return nil, err
	}

	if err := s.validator.ValidateFileInfo(req.Path, fileInfo); err != nil {
		return nil, err
	}

	f, r, err := pdf.Open(req.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	result := &PDFStatsFileResult{
		Path:         req.Path,
		Size:         fileInfo.Size(),
		Pages:        r.NumPage(),
		ModifiedDate: fileInfo.ModTime().Format("2006-01-02 15:04:05"),
	}

	s.extractMetadata(r, result)
	result.HasTextLayer = s.hasTextLayer(r)

	return result, nil
}

// hasTextLayer reports whether any page carries extractable text. Scanned
// notices usually have none, which is why they go through OCR analysis.
func (s *Stats) hasTextLayer(r *pdf.Reader) (found bool) {
	defer func() {
		if recover() != nil {
			found = false
		}
	}()

	for pageNum := 1; pageNum <= r.NumPage(); pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if strings.TrimSpace(text) != "" {
			return true
		}
	}
	return false
}

// extractMetadata safely extracts metadata from PDF reader
func (s *Stats) extractMetadata(r *pdf.Reader, result *PDFStatsFileResult) {
	defer func() {
		// Metadata is optional; basic stats are still returned
		_ = recover()
	}()

	trailer := r.Trailer()
	if trailer.IsNull() {
		return
	}

	info := trailer.Key("Info")
	if info.IsNull() {
		return
	}

	result.Title = infoString(info, "Title")
	result.Author = infoString(info, "Author")
	result.Subject = infoString(info, "Subject")
	result.Producer = infoString(info, "Producer")
	result.CreatedDate = infoString(info, "CreationDate")
}

func infoString(info pdf.Value, key string) string {
	v := info.Key(key)
	if v.IsNull() {
		return ""
	}
	return strings.TrimSpace(v.Text())
}

// statDirectory checks that a directory exists
func statDirectory(directory string) error {
	if directory == "" {
		return fmt.Errorf("directory cannot be empty")
	}
	info, err := os.Stat(directory)
	if os.IsNotExist(err) {
		return fmt.Errorf("directory does not exist: %s", directory)
	}
	if err != nil {
		return fmt.Errorf("cannot access directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", directory)
	}
	return nil
}
