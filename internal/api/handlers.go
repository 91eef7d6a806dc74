package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/a3tai/mcp-notice-extractor/internal/pdf"
	"github.com/a3tai/mcp-notice-extractor/internal/textract"
)

const defaultUploadName = "upload.pdf"

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleFields(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.NoticeListFields())
}

// handleExtract accepts a notice as a multipart "file" field or as a raw
// application/pdf body.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	// extra 1MB for form overhead
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxFileSize+1024*1024)

	name, body, cleanup, err := s.documentReader(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer cleanup()

	data, err := io.ReadAll(io.LimitReader(body, s.opts.MaxFileSize+1))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.opts.MaxFileSize),
				http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, "failed to read document", http.StatusBadRequest)
		return
	}
	if int64(len(data)) > s.opts.MaxFileSize {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.opts.MaxFileSize),
			http.StatusRequestEntityTooLarge)
		return
	}

	result, err := s.service.NoticeExtractDocument(r.Context(), name, data)
	if err != nil {
		s.writeExtractError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) documentReader(r *http.Request) (string, io.Reader, func(), error) {
	noop := func() {}

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return "", nil, noop, fmt.Errorf("invalid content type: %w", err)
	}

	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			return "", nil, noop, fmt.Errorf("invalid multipart form: %w", err)
		}
		cleanup := func() { _ = r.MultipartForm.RemoveAll() }

		file, header, err := r.FormFile("file")
		if err != nil {
			cleanup()
			return "", nil, noop, fmt.Errorf("file is required: %w", err)
		}
		return sanitizeFilename(header.Filename), file, func() {
			_ = file.Close()
			cleanup()
		}, nil

	case "application/pdf", "application/octet-stream":
		name := r.URL.Query().Get("name")
		if name == "" {
			name = defaultUploadName
		}
		return sanitizeFilename(name), r.Body, noop, nil

	default:
		return "", nil, noop, fmt.Errorf("unsupported content type: %s", mediaType)
	}
}

type errorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind,omitempty"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *Server) writeExtractError(w http.ResponseWriter, err error) {
	if errors.Is(err, pdf.ErrInvalidDocument) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Kind: "InvalidDocument"})
		return
	}

	analysisErr := textract.Classify(err)

	status := http.StatusInternalServerError
	switch analysisErr.Kind {
	case textract.ErrorKindClient, textract.ErrorKindTransport:
		status = http.StatusBadGateway
	case textract.ErrorKindCredentials:
		status = http.StatusServiceUnavailable
	case textract.ErrorKindUnexpected:
		s.log.Error("unexpected extraction failure",
			zap.Error(err),
			zap.String("stack", analysisErr.StackTrace))
	}

	writeJSON(w, status, errorResponse{
		Error:     analysisErr.Message,
		Kind:      analysisErr.Kind.String(),
		Code:      analysisErr.Code,
		RequestID: analysisErr.RequestID,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, errorResponse{Error: msg})
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = defaultUploadName
	}
	return name
}
