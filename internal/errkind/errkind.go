// Package errkind defines the error taxonomy shared by the fetcher, extractors,
// ingester, embedder, and graph builder (spec §7). Callers use errors.As to
// recover the Kind and decide whether to retry, skip, or abort.
package errkind

import "fmt"

// Kind is a coarse error category, not a specific error value.
type Kind int

const (
	// Network covers connection refused, DNS failures, and TCP resets.
	Network Kind = iota
	// Timeout covers a per-call deadline elapsing.
	Timeout
	// Blocked covers a recognized challenge page or a PoW redirect.
	Blocked
	// ParseError covers HTML/PDF extraction producing text below the minimum
	// length, or failing structurally.
	ParseError
	// SchemaViolation covers an extractor producing a record missing a required field.
	SchemaViolation
	// Duplicate covers an INSERT OR IGNORE that suppressed a row. Not a failure;
	// callers tally it separately from real errors.
	Duplicate
	// StoreError covers a relational or vector store operation failing outright.
	StoreError
	// ResolutionAmbiguity covers a citation with multiple resolution candidates.
	// Not a failure; callers store every candidate rather than raising.
	ResolutionAmbiguity
	// HTTPStatus covers a non-2xx response that retries did not resolve.
	HTTPStatus
)

func (k Kind) String() string {
	switch k {
	case Network:
		return "network"
	case Timeout:
		return "timeout"
	case Blocked:
		return "blocked"
	case ParseError:
		return "parse_error"
	case SchemaViolation:
		return "schema_violation"
	case Duplicate:
		return "duplicate"
	case StoreError:
		return "store_error"
	case ResolutionAmbiguity:
		return "resolution_ambiguity"
	case HTTPStatus:
		return "http_status"
	default:
		return "unknown"
	}
}

// Error wraps an underlying error with a Kind so callers can branch on
// category without string-matching messages.
type Error struct {
	Kind Kind
	Code int // HTTP status, when Kind == HTTPStatus
	Err  error
}

func (e *Error) Error() string {
	if e.Kind == HTTPStatus {
		return fmt.Sprintf("%s(%d): %v", e.Kind, e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err with the given Kind.
func New(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// Status wraps err as an HTTPStatus error carrying the response code.
func Status(code int, err error) *Error {
	return &Error{Kind: HTTPStatus, Code: code, Err: err}
}

// Retriable reports whether an error of this kind should be retried by the
// fetcher's retry combinator (spec §4.1, §7).
func (k Kind) Retriable() bool {
	switch k {
	case Network, Timeout, Blocked, HTTPStatus:
		return true
	default:
		return false
	}
}
