package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Search handles discovery of notice PDFs in a directory
type Search struct {
	maxFileSize int64
	validator   *Validator
}

// NewSearch creates a new PDF search handler with the specified constraints
func NewSearch(maxFileSize int64) *Search {
	return &Search{
		maxFileSize: maxFileSize,
		validator:   NewValidator(maxFileSize),
	}
}

// SearchDirectory searches for PDF files in the specified directory
func (s *Search) SearchDirectory(req PDFSearchDirectoryRequest) (*PDFSearchDirectoryResult, error) {
	if err := statDirectory(req.Directory); err != nil {
		return nil, err
	}

	absDirectory, err := filepath.Abs(req.Directory)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory path: %w", err)
	}

	query := strings.ToLower(strings.TrimSpace(req.Query))
	files, err := s.walk(absDirectory, 0, func(name string) bool {
		return query == "" || matchesQuery(name, query)
	})
	if err != nil {
		return nil, err
	}

	return &PDFSearchDirectoryResult{
		Files:       files,
		TotalCount:  len(files),
		Directory:   absDirectory,
		SearchQuery: req.Query,
	}, nil
}

// FindPDFsInDirectoryLimited returns up to limit PDFs in a directory; limit <= 0 means no limit
func (s *Search) FindPDFsInDirectoryLimited(directory string, limit int) ([]FileInfo, error) {
	if err := statDirectory(directory); err != nil {
		return nil, err
	}
	return s.walk(directory, limit, func(string) bool { return true })
}

func (s *Search) walk(directory string, limit int, keep func(name string) bool) ([]FileInfo, error) {
	files := []FileInfo{}

	err := filepath.Walk(directory, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil //nolint:nilerr // Intentionally continue on file errors
		}
		if info.Mode()&os.ModeSymlink != 0 {
			return nil
		}
		if info.IsDir() || !isPDFFile(info.Name()) {
			return nil
		}
		if s.validator.ValidateFileInfo(path, info) != nil {
			return nil
		}
		if !keep(info.Name()) {
			return nil
		}

		files = append(files, FileInfo{
			Path:         path,
			Name:         info.Name(),
			Size:         info.Size(),
			ModifiedTime: info.ModTime().Format("2006-01-02 15:04:05"),
		})
		if limit > 0 && len(files) >= limit {
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking directory: %w", err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func isPDFFile(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".pdf")
}

// matchesQuery performs fuzzy matching on the filename: a substring match, or
// every query word contained in some filename word.
func matchesQuery(filename, query string) bool {
	name := strings.TrimSuffix(strings.ToLower(filename), ".pdf")
	if strings.Contains(name, query) {
		return true
	}

	words := splitIntoWords(name)
	for _, queryWord := range splitIntoWords(query) {
		found := false
		for _, word := range words {
			if strings.Contains(word, queryWord) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// splitIntoWords splits a string into words using common filename separators
func splitIntoWords(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		switch r {
		case ' ', '_', '-', '.', '(', ')', '[', ']':
			return true
		}
		return false
	})
}
