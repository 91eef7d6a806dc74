package pdf

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/a3tai/mcp-notice-extractor/internal/pdf/extraction"
	"github.com/a3tai/mcp-notice-extractor/internal/pdf/security"
)

// Service handles notice PDF operations by orchestrating the PDF components
// and the field extractor.
type Service struct {
	maxFileSize   int64
	region        string
	timeout       time.Duration
	validator     *Validator
	stats         *Stats
	search        *Search
	extractor     *extraction.Extractor
	vocabulary    *extraction.Vocabulary
	pathValidator *security.PathValidator
	logger        *zap.Logger
}

// Option configures a Service
type Option func(*Service)

// WithTimeout bounds each analysis pass; zero disables the bound
func WithTimeout(timeout time.Duration) Option {
	return func(s *Service) { s.timeout = timeout }
}

// WithRegion records the analysis region reported by ServerInfo
func WithRegion(region string) Option {
	return func(s *Service) { s.region = region }
}

// WithLogger sets the service logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates a new notice service with all components
func NewService(maxFileSize int64, configuredDirectory string, extractor *extraction.Extractor,
	vocabulary *extraction.Vocabulary, opts ...Option,
) (*Service, error) {
	if extractor == nil {
		return nil, fmt.Errorf("extractor cannot be nil")
	}
	if vocabulary == nil {
		return nil, fmt.Errorf("vocabulary cannot be nil")
	}

	pathValidator, err := security.NewPathValidator(configuredDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to create path validator: %w", err)
	}

	s := &Service{
		maxFileSize:   maxFileSize,
		validator:     NewValidator(maxFileSize),
		stats:         NewStats(maxFileSize),
		search:        NewSearch(maxFileSize),
		extractor:     extractor,
		vocabulary:    vocabulary,
		pathValidator: pathValidator,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NoticeExtractFile runs a field extraction pass over a notice PDF inside the
// configured directory.
func (s *Service) NoticeExtractFile(ctx context.Context, req NoticeExtractFileRequest) (*NoticeExtractResult, error) {
	path, err := s.pathValidator.ResolvePath(req.Path)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}

	data, info, err := s.validator.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return s.extract(ctx, *info, data)
}

// NoticeExtractDocument runs a field extraction pass over in-memory PDF bytes
func (s *Service) NoticeExtractDocument(ctx context.Context, name string, data []byte) (*NoticeExtractResult, error) {
	info, err := s.validator.ValidateDocument(name, data)
	if err != nil {
		return nil, err
	}
	return s.extract(ctx, *info, data)
}

func (s *Service) extract(ctx context.Context, info DocumentInfo, data []byte) (*NoticeExtractResult, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	result, err := s.extractor.Extract(ctx, data, s.vocabulary)
	if err != nil {
		s.logger.Warn("notice extraction failed",
			zap.String("document", info.Name),
			zap.Error(err))
		return nil, err
	}

	return &NoticeExtractResult{Document: info, Result: result}, nil
}

// NoticeListFields returns the canonical fields in output order
func (s *Service) NoticeListFields() *NoticeFieldsResult {
	return &NoticeFieldsResult{Fields: s.vocabulary.Fields()}
}

// PDFValidateFile checks whether a file can be submitted for analysis
func (s *Service) PDFValidateFile(req PDFValidateFileRequest) (*PDFValidateFileResult, error) {
	path, err := s.pathValidator.ResolvePath(req.Path)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	req.Path = path
	return s.validator.ValidateFile(req)
}

// PDFStatsFile returns detailed statistics about a single PDF file
func (s *Service) PDFStatsFile(req PDFStatsFileRequest) (*PDFStatsFileResult, error) {
	path, err := s.pathValidator.ResolvePath(req.Path)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	req.Path = path
	return s.stats.GetFileStats(req)
}

// PDFSearchDirectory searches for PDF files in a directory
func (s *Service) PDFSearchDirectory(req PDFSearchDirectoryRequest) (*PDFSearchDirectoryResult, error) {
	if req.Directory == "" {
		req.Directory = s.pathValidator.GetConfiguredDirectory()
	}

	if err := s.pathValidator.ValidateDirectory(req.Directory); err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}

	return s.search.SearchDirectory(req)
}

// GetMaxFileSize returns the maximum file size limit
func (s *Service) GetMaxFileSize() int64 {
	return s.maxFileSize
}

// Vocabulary returns the vocabulary used by extraction passes
func (s *Service) Vocabulary() *extraction.Vocabulary {
	return s.vocabulary
}

// ServerInfo returns server information and usage guidance
func (s *Service) ServerInfo(serverName, version string) *ServerInfoResult {
	dir := s.pathValidator.GetConfiguredDirectory()

	contents := []FileInfo{}
	resultChan := make(chan []FileInfo, 1)
	go func() {
		files, err := s.search.FindPDFsInDirectoryLimited(dir, 100)
		if err != nil {
			files = []FileInfo{}
		}
		resultChan <- files
	}()

	select {
	case files := <-resultChan:
		contents = files
	case <-time.After(5 * time.Second):
	}

	return &ServerInfoResult{
		ServerName:        serverName,
		Version:           version,
		DefaultDirectory:  dir,
		MaxFileSize:       s.maxFileSize,
		Region:            s.region,
		Fields:            s.vocabulary.FieldNames(),
		AvailableTools:    availableTools(),
		DirectoryContents: contents,
		UsageGuidance: "Use pdf_search_directory to find notices, then notice_extract_fields on a " +
			"single-page PDF. Fields that are absent from the form are reported as \"Not Found\". " +
			"A document with no detectable content returns status \"empty\" and no fields.",
	}
}

func availableTools() []ToolInfo {
	return []ToolInfo{
		{
			Name:        "notice_extract_fields",
			Description: "Extract the canonical meeting-notice fields from a single-page PDF",
			Usage:       "Run this on a scanned or digital notice to get every canonical field in order.",
			Parameters:  "path (required): Path to the PDF file, absolute or relative to the default directory",
		},
		{
			Name:        "notice_list_fields",
			Description: "List the canonical fields and the label variants recognized for each",
			Usage:       "Use this to see which form labels map to which output field.",
			Parameters:  "none",
		},
		{
			Name:        "pdf_validate_file",
			Description: "Check whether a file can be submitted for field extraction",
			Usage:       "Use this before extraction to catch multi-page, oversized or corrupt files.",
			Parameters:  "path (required): Path to the PDF file",
		},
		{
			Name:        "pdf_stats_file",
			Description: "Get metadata, page count and text-layer presence of a PDF",
			Usage:       "Use this to inspect a notice before extraction.",
			Parameters:  "path (required): Path to the PDF file",
		},
		{
			Name:        "pdf_search_directory",
			Description: "Search for PDF files in a directory with optional fuzzy search",
			Usage:       "Use this to find notices in the default directory or a subdirectory of it.",
			Parameters: "directory (optional): Directory path to search (uses default if empty), " +
				"query (optional): Search query for fuzzy matching",
		},
		{
			Name:        "notice_server_info",
			Description: "Get server configuration, available tools and directory contents",
			Usage:       "Use this first to discover what the server can do.",
			Parameters:  "none",
		},
	}
}
