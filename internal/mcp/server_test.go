package mcp

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-notice-extractor/internal/config"
	"github.com/a3tai/mcp-notice-extractor/internal/pdf"
	"github.com/a3tai/mcp-notice-extractor/internal/pdf/extraction"
	"github.com/a3tai/mcp-notice-extractor/internal/textract"
)

type stubAnalyzer struct {
	blocks []textract.Block
	err    error
}

func (s *stubAnalyzer) AnalyzeDocument(context.Context, []byte) ([]textract.Block, error) {
	return s.blocks, s.err
}

func singlePagePDF() []byte {
	var buf bytes.Buffer
	var offsets []int
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>",
	}

	buf.WriteString("%PDF-1.4\n")
	for i, obj := range objects {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func noticeAccessBlocks() []textract.Block {
	return []textract.Block{
		{
			ID:          "key",
			Type:        textract.BlockTypeKeyValueSet,
			EntityTypes: []textract.EntityType{textract.EntityTypeKey},
			Relationships: []textract.Relationship{
				{Type: textract.RelationshipTypeChild, IDs: []string{"k1", "k2", "k3"}},
				{Type: textract.RelationshipTypeValue, IDs: []string{"val"}},
			},
		},
		{ID: "k1", Type: textract.BlockTypeWord, Text: "Notice"},
		{ID: "k2", Type: textract.BlockTypeWord, Text: "and"},
		{ID: "k3", Type: textract.BlockTypeWord, Text: "Access:"},
		{
			ID:            "val",
			Type:          textract.BlockTypeKeyValueSet,
			EntityTypes:   []textract.EntityType{textract.EntityTypeValue},
			Relationships: []textract.Relationship{{Type: textract.RelationshipTypeChild, IDs: []string{"box"}}},
		},
		{
			ID:              "box",
			Type:            textract.BlockTypeSelectionElement,
			SelectionStatus: textract.SelectionStatusSelected,
		},
	}
}

func newTestServer(t *testing.T, analyzer *stubAnalyzer) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		Mode:         config.ModeStdio,
		Host:         "127.0.0.1",
		Port:         8080,
		PDFDirectory: dir,
		Version:      "1.0.0",
		ServerName:   "test-server",
		LogLevel:     "info",
		MaxFileSize:  1024 * 1024,
		Region:       "us-east-1",
	}

	svc, err := pdf.NewService(cfg.MaxFileSize, dir, extraction.NewExtractor(analyzer, nil),
		extraction.DefaultVocabulary(), pdf.WithRegion(cfg.Region))
	require.NoError(t, err)

	server, err := NewServer(cfg, svc, nil)
	require.NoError(t, err)
	return server, dir
}

func callRequest(args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func writePDF(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestNewServer(t *testing.T) {
	server, _ := newTestServer(t, &stubAnalyzer{})
	assert.NotNil(t, server.mcpServer)
	assert.NotNil(t, server.logger)

	_, err := NewServer(nil, server.pdfService, nil)
	assert.Error(t, err)

	_, err = NewServer(server.config, nil, nil)
	assert.Error(t, err)
}

func TestServer_HandleNoticeExtractFields(t *testing.T) {
	server, dir := newTestServer(t, &stubAnalyzer{blocks: noticeAccessBlocks()})
	path := writePDF(t, dir, "notice.pdf", singlePagePDF())

	result, err := server.handleNoticeExtractFields(context.Background(), callRequest(map[string]interface{}{
		"path": path,
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, extractTextFromResult(result))

	text := extractTextFromResult(result)
	assert.Contains(t, text, "Notice fields for: notice.pdf")
	assert.Contains(t, text, "Found 1 of 10 fields")
	assert.Contains(t, text, "Notice and Access: [SELECTED]")
	assert.Contains(t, text, "Meeting Date: Not Found")
}

func TestServer_HandleNoticeExtractFields_Empty(t *testing.T) {
	server, dir := newTestServer(t, &stubAnalyzer{})
	writePDF(t, dir, "blank.pdf", singlePagePDF())

	result, err := server.handleNoticeExtractFields(context.Background(), callRequest(map[string]interface{}{
		"path": "blank.pdf",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := extractTextFromResult(result)
	assert.Contains(t, text, "No content was detected")
	assert.NotContains(t, text, extraction.NotFound)
}

func TestServer_HandleNoticeExtractFields_Errors(t *testing.T) {
	credsErr := textract.NewAnalysisError(textract.ErrorKindCredentials, "AWS credentials not found or incomplete", nil)
	server, dir := newTestServer(t, &stubAnalyzer{err: credsErr})
	writePDF(t, dir, "notice.pdf", singlePagePDF())

	tests := []struct {
		name     string
		args     map[string]interface{}
		contains string
	}{
		{name: "missing path", args: map[string]interface{}{}, contains: "path"},
		{name: "outside directory", args: map[string]interface{}{"path": "/etc/passwd"}, contains: "security validation failed"},
		{name: "credentials", args: map[string]interface{}{"path": "notice.pdf"}, contains: "Configure AWS credentials"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := server.handleNoticeExtractFields(context.Background(), callRequest(tt.args))
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Contains(t, extractTextFromResult(result), tt.contains)
		})
	}
}

func TestServer_HandleNoticeListFields(t *testing.T) {
	server, _ := newTestServer(t, &stubAnalyzer{})

	result, err := server.handleNoticeListFields(context.Background(), callRequest(nil))
	require.NoError(t, err)

	text := extractTextFromResult(result)
	assert.Contains(t, text, "10 canonical fields")
	assert.Contains(t, text, "1. Meeting Date")
	assert.Contains(t, text, `also matches: "Issuer to pay for sending proxy-related materials to OBOs\nby proximate intermediary"`)
}

func TestServer_HandlePDFValidateFile(t *testing.T) {
	server, dir := newTestServer(t, &stubAnalyzer{})
	valid := writePDF(t, dir, "notice.pdf", singlePagePDF())
	invalid := writePDF(t, dir, "broken.pdf", make([]byte, 1024))

	result, err := server.handlePDFValidateFile(context.Background(), callRequest(map[string]interface{}{"path": valid}))
	require.NoError(t, err)
	assert.Contains(t, extractTextFromResult(result), "is valid and can be analyzed")

	result, err = server.handlePDFValidateFile(context.Background(), callRequest(map[string]interface{}{"path": invalid}))
	require.NoError(t, err)
	assert.Contains(t, extractTextFromResult(result), "PDF validation failed")
}

func TestServer_HandlePDFStatsFile(t *testing.T) {
	server, dir := newTestServer(t, &stubAnalyzer{})
	path := writePDF(t, dir, "notice.pdf", singlePagePDF())

	result, err := server.handlePDFStatsFile(context.Background(), callRequest(map[string]interface{}{"path": path}))
	require.NoError(t, err)
	require.False(t, result.IsError, extractTextFromResult(result))

	text := extractTextFromResult(result)
	assert.Contains(t, text, "Pages: 1")
	assert.Contains(t, text, "Text layer: false")
}

func TestServer_HandlePDFSearchDirectory(t *testing.T) {
	server, dir := newTestServer(t, &stubAnalyzer{})
	writePDF(t, dir, "board_notice.pdf", make([]byte, 512))
	writePDF(t, dir, "proxy_form.pdf", make([]byte, 512))

	tests := []struct {
		name     string
		args     map[string]interface{}
		contains string
	}{
		{name: "default directory", args: map[string]interface{}{}, contains: "Found 2 PDF file(s)"},
		{name: "query", args: map[string]interface{}{"query": "board"}, contains: "Found 1 PDF file(s)"},
		{name: "no match", args: map[string]interface{}{"query": "agenda"}, contains: "No PDF files found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := server.handlePDFSearchDirectory(context.Background(), callRequest(tt.args))
			require.NoError(t, err)
			assert.Contains(t, extractTextFromResult(result), tt.contains)
		})
	}

	result, err := server.handlePDFSearchDirectory(context.Background(), callRequest(map[string]interface{}{
		"directory": t.TempDir(),
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestServer_HandleServerInfo(t *testing.T) {
	server, dir := newTestServer(t, &stubAnalyzer{})
	writePDF(t, dir, "notice.pdf", singlePagePDF())

	result, err := server.handleServerInfo(context.Background(), callRequest(nil))
	require.NoError(t, err)

	text := extractTextFromResult(result)
	assert.Contains(t, text, "test-server v1.0.0")
	assert.Contains(t, text, "Analysis Region: us-east-1")
	assert.Contains(t, text, "Fields (10)")
	assert.Contains(t, text, "1. notice.pdf")
	assert.Contains(t, text, "notice_extract_fields")
}

func TestServer_RunServerMode(t *testing.T) {
	server, _ := newTestServer(t, &stubAnalyzer{})
	server.config.Mode = config.ModeServer
	server.config.Port = 0

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, server.Run(ctx))
}

// extractTextFromResult returns the first text content of a tool result
func extractTextFromResult(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}

	for _, content := range result.Content {
		if textContent, ok := content.(mcp.TextContent); ok {
			return textContent.Text
		}
		if textContentPtr, ok := content.(*mcp.TextContent); ok {
			return textContentPtr.Text
		}
	}

	return ""
}
