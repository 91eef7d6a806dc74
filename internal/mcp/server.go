package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/a3tai/mcp-notice-extractor/internal/api"
	"github.com/a3tai/mcp-notice-extractor/internal/config"
	"github.com/a3tai/mcp-notice-extractor/internal/pdf"
	"github.com/a3tai/mcp-notice-extractor/internal/textract"
)

// Server represents the MCP server instance
type Server struct {
	config     *config.Config
	pdfService *pdf.Service
	mcpServer  *server.MCPServer
	logger     *zap.Logger
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, pdfService *pdf.Service, logger *zap.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if pdfService == nil {
		return nil, fmt.Errorf("pdfService cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		config:     cfg,
		pdfService: pdfService,
		mcpServer:  mcpServer,
		logger:     logger,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(
		"notice_extract_fields",
		mcp.WithDescription("Extract the canonical meeting notice fields from a single-page PDF form"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file, absolute or relative to the notice directory"),
		),
	), s.handleNoticeExtractFields)

	s.mcpServer.AddTool(mcp.NewTool(
		"notice_list_fields",
		mcp.WithDescription("List the canonical notice fields and the labels recognized for each"),
	), s.handleNoticeListFields)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_validate_file",
		mcp.WithDescription("Check whether a PDF can be submitted for field extraction"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file"),
		),
	), s.handlePDFValidateFile)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_stats_file",
		mcp.WithDescription("Get page count, metadata and text-layer presence of a PDF"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file"),
		),
	), s.handlePDFStatsFile)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_search_directory",
		mcp.WithDescription("Search for PDF files in a directory with optional fuzzy search"),
		mcp.WithString("directory",
			mcp.Description("Directory path to search (uses default if empty)"),
		),
		mcp.WithString("query",
			mcp.Description("Optional search query for fuzzy matching"),
		),
	), s.handlePDFSearchDirectory)

	s.mcpServer.AddTool(mcp.NewTool(
		"notice_server_info",
		mcp.WithDescription("Get server information, available tools, directory contents, and usage guidance"),
	), s.handleServerInfo)
}

// Handler functions
func (s *Server) handleNoticeExtractFields(ctx context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.NoticeExtractFile(ctx, pdf.NoticeExtractFileRequest{Path: path})
	if err != nil {
		return mcp.NewToolResultError(describeExtractError(err)), nil
	}

	return mcp.NewToolResultText(s.formatNoticeExtractResult(result)), nil
}

func (s *Server) handleNoticeListFields(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s.formatNoticeFieldsResult(s.pdfService.NoticeListFields())), nil
}

func (s *Server) handlePDFValidateFile(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.PDFValidateFile(pdf.PDFValidateFileRequest{Path: path})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var responseText string
	if result.Valid {
		responseText = fmt.Sprintf("PDF file %s is valid and can be analyzed (%d page)", result.Path, result.Pages)
	} else {
		responseText = fmt.Sprintf("PDF validation failed for %s: %s", result.Path, result.Message)
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handlePDFStatsFile(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.PDFStatsFile(pdf.PDFStatsFileRequest{Path: path})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatPDFStatsFileResult(result)), nil
}

func (s *Server) handlePDFSearchDirectory(_ context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	args := request.GetArguments()

	directory := s.config.PDFDirectory // default
	if dir, ok := args["directory"].(string); ok && dir != "" {
		directory = dir
	}

	query := ""
	if q, ok := args["query"].(string); ok {
		query = q
	}

	result, err := s.pdfService.PDFSearchDirectory(pdf.PDFSearchDirectoryRequest{
		Directory: directory,
		Query:     query,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var responseText string
	if result.TotalCount == 0 {
		responseText = fmt.Sprintf("No PDF files found in directory: %s", result.Directory)
		if result.SearchQuery != "" {
			responseText += fmt.Sprintf(" (searched for: %s)", result.SearchQuery)
		}
	} else {
		responseText = s.formatPDFSearchDirectoryResult(result)
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleServerInfo(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result := s.pdfService.ServerInfo(s.config.ServerName, s.config.Version)
	return mcp.NewToolResultText(s.formatServerInfoResult(result)), nil
}

// describeExtractError renders extraction failures with their category so
// callers can tell configuration problems from document problems.
func describeExtractError(err error) string {
	if textract.IsKind(err, textract.ErrorKindCredentials) {
		return err.Error() + ". Configure AWS credentials (environment, shared config or instance role) and retry."
	}
	return err.Error()
}

// Formatting methods
func (s *Server) formatNoticeExtractResult(result *pdf.NoticeExtractResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Notice fields for: %s\n", result.Document.Name)
	fmt.Fprintf(&b, "Pass: %s\n", result.Result.PassID)

	if result.Result.IsEmpty() {
		b.WriteString("\nNo content was detected in the document. No fields were extracted.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "Found %d of %d fields\n\n", result.Result.FoundCount(), len(result.Result.Fields))
	for _, f := range result.Result.Fields {
		fmt.Fprintf(&b, "%s: %s\n", f.Name, f.Value)
	}
	return b.String()
}

func (s *Server) formatNoticeFieldsResult(result *pdf.NoticeFieldsResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d canonical fields, in output order:\n", len(result.Fields))
	for i, f := range result.Fields {
		fmt.Fprintf(&b, "%d. %s\n", i+1, f.Name)
		for _, v := range f.Variants {
			fmt.Fprintf(&b, "   also matches: %q\n", v)
		}
	}
	return b.String()
}

func (s *Server) formatPDFSearchDirectoryResult(result *pdf.PDFSearchDirectoryResult) string {
	text := fmt.Sprintf("Found %d PDF file(s) in directory: %s\n", result.TotalCount, result.Directory)
	if result.SearchQuery != "" {
		text += fmt.Sprintf("Search query: %s\n", result.SearchQuery)
	}
	text += "\nFiles:\n"

	for i, file := range result.Files {
		text += fmt.Sprintf("%d. %s\n", i+1, file.Name)
		text += fmt.Sprintf("   Path: %s\n", file.Path)
		text += fmt.Sprintf("   Size: %d bytes\n", file.Size)
		text += fmt.Sprintf("   Modified: %s\n", file.ModifiedTime)
		if i < len(result.Files)-1 {
			text += "\n"
		}
	}

	return text
}

func (s *Server) formatPDFStatsFileResult(result *pdf.PDFStatsFileResult) string {
	text := "PDF File Statistics\n"
	text += fmt.Sprintf("File: %s\n", result.Path)
	text += fmt.Sprintf("Size: %d bytes\n", result.Size)
	text += fmt.Sprintf("Pages: %d\n", result.Pages)
	text += fmt.Sprintf("Modified: %s\n", result.ModifiedDate)
	text += fmt.Sprintf("Text layer: %t\n", result.HasTextLayer)

	if result.Title != "" {
		text += fmt.Sprintf("Title: %s\n", result.Title)
	}
	if result.Author != "" {
		text += fmt.Sprintf("Author: %s\n", result.Author)
	}
	if result.Subject != "" {
		text += fmt.Sprintf("Subject: %s\n", result.Subject)
	}
	if result.Producer != "" {
		text += fmt.Sprintf("Producer: %s\n", result.Producer)
	}
	if result.CreatedDate != "" {
		text += fmt.Sprintf("Created: %s\n", result.CreatedDate)
	}
	if result.Pages > pdf.MaxAnalyzablePages {
		text += "Note: only single-page notices can be analyzed\n"
	}

	return text
}

func (s *Server) formatServerInfoResult(result *pdf.ServerInfoResult) string {
	text := fmt.Sprintf("%s v%s - Server Information\n", result.ServerName, result.Version)
	text += fmt.Sprintf("Default Directory: %s\n", result.DefaultDirectory)
	text += fmt.Sprintf("Max File Size: %d MB\n", result.MaxFileSize/(1024*1024))
	text += fmt.Sprintf("Analysis Region: %s\n\n", result.Region)

	text += fmt.Sprintf("Fields (%d):\n", len(result.Fields))
	for _, name := range result.Fields {
		text += fmt.Sprintf("  - %s\n", name)
	}
	text += "\n"

	if len(result.DirectoryContents) > 0 {
		text += fmt.Sprintf("Directory Contents (%d PDF files found):\n", len(result.DirectoryContents))
		for i, file := range result.DirectoryContents {
			if i >= 10 {
				text += fmt.Sprintf("   ... and %d more files\n", len(result.DirectoryContents)-10)
				break
			}
			text += fmt.Sprintf("   %d. %s (%d bytes)\n", i+1, file.Name, file.Size)
		}
		text += "\n"
	} else {
		text += "Directory Contents: No PDF files found in default directory\n\n"
	}

	text += "Available Tools:\n"
	for _, tool := range result.AvailableTools {
		text += fmt.Sprintf("\n- %s\n", tool.Name)
		text += fmt.Sprintf("  Description: %s\n", tool.Description)
		text += fmt.Sprintf("  Usage: %s\n", tool.Usage)
		text += fmt.Sprintf("  Parameters: %s\n", tool.Parameters)
	}

	text += "\n" + result.UsageGuidance

	return text
}

// Run starts the MCP server in the configured mode
func (s *Server) Run(ctx context.Context) error {
	if s.config.IsServerMode() {
		return s.runServerMode(ctx)
	}
	return s.runStdioMode(ctx)
}

// runStdioMode runs the server in stdio mode
func (s *Server) runStdioMode(_ context.Context) error {
	s.logger.Debug("starting notice MCP server in stdio mode",
		zap.String("dir", s.config.PDFDirectory),
		zap.String("region", s.config.Region))

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode serves the HTTP API, with MCP available over SSE on the same listener
func (s *Server) runServerMode(ctx context.Context) error {
	httpServer := api.NewServer(s.pdfService, s.logger, api.Options{
		APIKey:      s.config.APIKey,
		MaxFileSize: s.config.MaxFileSize,
		MCPHandler:  server.NewSSEServer(s.mcpServer),
	})

	s.logger.Info("starting notice extractor in server mode",
		zap.String("addr", s.config.Address()),
		zap.String("dir", s.config.PDFDirectory),
		zap.String("region", s.config.Region),
		zap.Bool("auth", s.config.APIKey != ""))

	return httpServer.ListenAndServe(ctx, s.config.Address())
}
