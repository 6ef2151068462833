package rpcconform

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeInvalidType   = "invalid_type"
	CodeRequired      = "required"
	CodeUnknownKey    = "unknown_key"
	CodeTooSmall      = "too_small"
	CodeTooBig        = "too_big"
	CodeTooShort      = "too_short"
	CodeTooLong       = "too_long"
	CodePattern       = "pattern"
	CodeInvalidEnum   = "invalid_enum"
	CodeInvalidConst  = "invalid_const"
	CodeInvalidFormat = "invalid_format"
	CodeUnionMismatch = "union_mismatch"
	CodeParseError    = "parse_error"
	// Conformance-run findings.
	CodeArityMismatch  = "arity_mismatch"
	CodeSchemaError    = "schema_error"
	CodeTransportError = "transport_error"
	CodeExactMismatch  = "exact_mismatch"
)

// Issue represents a single conformance finding.
type Issue struct {
	Path    string `json:"path"`   // JSON Pointer into the validated value (for example: /versions/2/updated).
	Code    string `json:"code"`   // One of the codes listed above.
	Message string `json:"reason"` // Human-readable reason.
	// Params carries structured parameters (e.g., {"expected":"object", "got":"array"})
	// for i18n and observability.
	Params map[string]any `json:"params,omitempty"`
	Cause  error          `json:"-"` // Optional: underlying error.
}

// Issues is a collection of findings that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. invalid_type at /result
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// MalformedDocumentError reports a structural defect in the input document.
// It is the only error kind that aborts a run; every other finding surfaces as
// data in the Report.
type MalformedDocumentError struct {
	Path   string // JSON Pointer into the raw document.
	Reason string
	Cause  error
}

func (e *MalformedDocumentError) Error() string {
	return fmt.Sprintf("rpcconform: malformed document at %s: %s", e.Path, e.Reason)
}

func (e *MalformedDocumentError) Unwrap() error { return e.Cause }

// TransportError reports a failed live call. The Live Conformance Runner
// records it as a finding and continues with the remaining examples.
type TransportError struct {
	Code    string `json:"code"` // e.g. "unavailable", "timeout", "method_not_found".
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("rpcconform: transport error (%s): %s", e.Code, e.Message)
}
