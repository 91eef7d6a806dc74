package pdf

import (
	"github.com/a3tai/mcp-notice-extractor/internal/pdf/extraction"
)

// FileInfo represents information about a PDF file
type FileInfo struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
}

// DocumentInfo describes a document accepted for analysis
type DocumentInfo struct {
	Name       string `json:"name"`
	Size       int64  `json:"size"`
	Pages      int    `json:"pages"`
	PDFVersion string `json:"pdf_version,omitempty"`
}

// Request Types

// NoticeExtractFileRequest represents a request to extract notice fields from a PDF file
type NoticeExtractFileRequest struct {
	Path string `json:"path"`
}

// PDFValidateFileRequest represents a request to validate a PDF file
type PDFValidateFileRequest struct {
	Path string `json:"path"`
}

// PDFStatsFileRequest represents a request to get stats about a PDF file
type PDFStatsFileRequest struct {
	Path string `json:"path"`
}

// PDFSearchDirectoryRequest represents a request to search for PDF files in a directory
type PDFSearchDirectoryRequest struct {
	Directory string `json:"directory"`
	Query     string `json:"query"`
}

// Response Types

// NoticeExtractResult is the outcome of extracting notice fields from one document
type NoticeExtractResult struct {
	Document DocumentInfo       `json:"document"`
	Result   *extraction.Result `json:"result"`
}

// NoticeFieldsResult lists the canonical fields the service extracts
type NoticeFieldsResult struct {
	Fields []extraction.Field `json:"fields"`
}

// PDFValidateFileResult represents the result of PDF validation
type PDFValidateFileResult struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
	Path    string `json:"path"`
	Pages   int    `json:"pages,omitempty"`
}

// PDFStatsFileResult represents detailed statistics about a single PDF file
type PDFStatsFileResult struct {
	Path         string `json:"path"`
	Size         int64  `json:"size"`
	Pages        int    `json:"pages"`
	CreatedDate  string `json:"created_date,omitempty"`
	ModifiedDate string `json:"modified_date"`
	Title        string `json:"title,omitempty"`
	Author       string `json:"author,omitempty"`
	Subject      string `json:"subject,omitempty"`
	Producer     string `json:"producer,omitempty"`
	HasTextLayer bool   `json:"has_text_layer"`
}

// PDFSearchDirectoryResult represents the result of searching for PDF files
type PDFSearchDirectoryResult struct {
	Files       []FileInfo `json:"files"`
	TotalCount  int        `json:"total_count"`
	Directory   string     `json:"directory"`
	SearchQuery string     `json:"search_query,omitempty"`
}

// ToolInfo represents information about an available tool
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Usage       string `json:"usage"`
	Parameters  string `json:"parameters"`
}

// ServerInfoResult represents server information and usage guidance
type ServerInfoResult struct {
	ServerName        string     `json:"server_name"`
	Version           string     `json:"version"`
	DefaultDirectory  string     `json:"default_directory"`
	MaxFileSize       int64      `json:"max_file_size"`
	Region            string     `json:"region"`
	Fields            []string   `json:"fields"`
	AvailableTools    []ToolInfo `json:"available_tools"`
	DirectoryContents []FileInfo `json:"directory_contents"`
	UsageGuidance     string     `json:"usage_guidance"`
}
