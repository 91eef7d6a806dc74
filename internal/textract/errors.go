package textract

import (
	"context"
	"errors"
	"fmt"
	"net"
	"runtime/debug"
	"strings"
	"time"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/smithy-go"
)

// ErrorKind classifies a failed analysis call
type ErrorKind int

const (
	ErrorKindUnexpected ErrorKind = iota
	ErrorKindCredentials
	ErrorKindClient
	ErrorKindTransport
)

// String returns the name of the error kind
func (k ErrorKind) String() string {
	switch k {
	case ErrorKindCredentials:
		return "CredentialsError"
	case ErrorKindClient:
		return "ClientError"
	case ErrorKindTransport:
		return "TransportError"
	default:
		return "UnexpectedError"
	}
}

// AnalysisError is the single failure signal of an extraction pass.
// No partial result accompanies it.
type AnalysisError struct {
	Kind       ErrorKind `json:"kind"`
	Code       string    `json:"code,omitempty"`
	Message    string    `json:"message"`
	RequestID  string    `json:"request_id,omitempty"`
	StackTrace string    `json:"stack_trace,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Err        error     `json:"-"`
}

// Error implements the error interface
func (e *AnalysisError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Code != "" {
		fmt.Fprintf(&b, " (%s)", e.Code)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.RequestID != "" {
		fmt.Fprintf(&b, " [request id: %s]", e.RequestID)
	}
	return b.String()
}

// Unwrap returns the underlying cause
func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// NewAnalysisError creates an error of the given kind wrapping err.
// Unexpected errors capture the current stack.
func NewAnalysisError(kind ErrorKind, message string, err error) *AnalysisError {
	ae := &AnalysisError{
		Kind:      kind,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
	if kind == ErrorKindUnexpected {
		ae.StackTrace = string(debug.Stack())
	}
	return ae
}

// IsKind reports whether err is an AnalysisError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	var ae *AnalysisError
	return errors.As(err, &ae) && ae.Kind == kind
}

// Classify maps an error from the analysis call onto the error taxonomy.
// An error that is already an AnalysisError is returned unchanged.
func Classify(err error) *AnalysisError {
	if err == nil {
		return nil
	}

	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae
	}

	if isCredentialsFailure(err) {
		return NewAnalysisError(ErrorKindCredentials,
			"AWS credentials not found or incomplete", err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		ce := NewAnalysisError(ErrorKindClient, apiErr.ErrorMessage(), err)
		ce.Code = apiErr.ErrorCode()
		if ce.Message == "" {
			ce.Message = err.Error()
		}
		var respErr *awshttp.ResponseError
		if errors.As(err, &respErr) {
			ce.RequestID = respErr.ServiceRequestID()
		}
		return ce
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return NewAnalysisError(ErrorKindTransport, err.Error(), err)
	}

	var opErr *smithy.OperationError
	if errors.As(err, &opErr) {
		return NewAnalysisError(ErrorKindTransport, err.Error(), err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return NewAnalysisError(ErrorKindTransport, err.Error(), err)
	}

	return NewAnalysisError(ErrorKindUnexpected, err.Error(), err)
}

// isCredentialsFailure recognizes credential retrieval failures surfaced by the
// SDK signer, which carry no exported error type.
func isCredentialsFailure(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "failed to retrieve credentials") ||
		strings.Contains(msg, "get credentials") ||
		strings.Contains(msg, "get identity")
}
