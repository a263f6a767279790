// Package verr defines VelesDB's stable, coded error taxonomy.
//
// Every fallible operation in the engine returns an error built with one of
// the constructors below instead of an ad hoc errors.New. The resulting
// *Error carries a stable code (VELES-001..VELES-018) that binding layers
// (the REPL, the REST server, the language bindings — all outside this
// repository) can switch on without parsing the message string.
//
// Example:
//
//	if len(vec) != dim {
//		return verr.DimensionMismatch("upsert", dim, len(vec))
//	}
package verr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for programmatic handling and surface routing.
type Kind int

const (
	KindUnknown Kind = iota
	KindCollectionExists
	KindCollectionNotFound
	KindPointNotFound
	KindDimensionMismatch
	KindInvalidVector
	KindStorage
	KindIndex
	KindIndexCorrupted
	KindConfig
	KindQuery
	KindIO
	KindSerialization
	KindInternal
	KindVectorNotAllowed
	KindSearchNotSupported
	KindVectorRequired
	KindSchemaValidation
	KindGraphNotSupported
)

// Surface describes who should see an error: the calling user, an
// operator/admin, or a bug report.
type Surface int

const (
	SurfaceUser Surface = iota
	SurfaceAdmin
	SurfaceBug
)

var kindMeta = map[Kind]struct {
	code        string
	surface     Surface
	recoverable bool
}{
	KindCollectionExists:   {"VELES-001", SurfaceUser, true},
	KindCollectionNotFound: {"VELES-002", SurfaceUser, true},
	KindPointNotFound:      {"VELES-003", SurfaceUser, true},
	KindDimensionMismatch:  {"VELES-004", SurfaceUser, true},
	KindInvalidVector:      {"VELES-005", SurfaceUser, true},
	KindStorage:            {"VELES-006", SurfaceAdmin, false},
	KindIndex:              {"VELES-007", SurfaceAdmin, false},
	KindIndexCorrupted:     {"VELES-008", SurfaceAdmin, false},
	KindConfig:             {"VELES-009", SurfaceUser, true},
	KindQuery:              {"VELES-010", SurfaceUser, true},
	KindIO:                 {"VELES-011", SurfaceAdmin, false},
	KindSerialization:      {"VELES-012", SurfaceAdmin, false},
	KindInternal:           {"VELES-013", SurfaceBug, false},
	KindVectorNotAllowed:   {"VELES-014", SurfaceUser, true},
	KindSearchNotSupported: {"VELES-015", SurfaceUser, true},
	KindVectorRequired:     {"VELES-016", SurfaceUser, true},
	KindSchemaValidation:   {"VELES-017", SurfaceUser, true},
	KindGraphNotSupported:  {"VELES-018", SurfaceUser, true},
}

// Position locates a parse error within the original query text.
type Position struct {
	Offset int
	Line   int
	Column int
}

// Error is VelesDB's canonical error type. It always carries a Kind and,
// for parse errors, a Position and the offending source Fragment.
type Error struct {
	Kind     Kind
	Message  string
	Fragment string
	Position Position
	wrapped  error
}

func (e *Error) Error() string {
	code, _ := Code(e.Kind)
	if e.Fragment != "" {
		return fmt.Sprintf("%s: %s (near %q, offset %d)", code, e.Message, e.Fragment, e.Position.Offset)
	}
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", code, e.Message, e.wrapped)
	}
	return fmt.Sprintf("%s: %s", code, e.Message)
}

// Unwrap allows errors.Is/errors.As to see through to a wrapped cause.
func (e *Error) Unwrap() error { return e.wrapped }

// Code returns the stable VELES-NNN code for a Kind.
func Code(k Kind) (string, bool) {
	m, ok := kindMeta[k]
	if !ok {
		return "VELES-013", false
	}
	return m.code, true
}

// Recoverable reports whether the error kind is user-recoverable.
func Recoverable(k Kind) bool {
	return kindMeta[k].recoverable
}

// SurfaceOf reports who an error should be shown to.
func SurfaceOf(k Kind) Surface {
	return kindMeta[k].surface
}

// New builds a plain *Error of the given kind with a formatted message.
func New(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error of the given kind that chains an underlying cause.
func Wrap(k Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: k, Message: fmt.Sprintf(format, args...), wrapped: cause}
}

// DimensionMismatch builds the standard error for a vector whose length
// does not equal the collection's configured dimension.
func DimensionMismatch(op string, want, got int) *Error {
	return New(KindDimensionMismatch, "%s: expected dimension %d, got %d", op, want, got)
}

// Parse builds a query parse error carrying position and source fragment.
func Parse(pos Position, fragment, format string, args ...any) *Error {
	return &Error{
		Kind:     KindQuery,
		Message:  fmt.Sprintf(format, args...),
		Fragment: fragment,
		Position: pos,
	}
}

// MissingParameter builds the typed error for a VelesQL $name that was not
// supplied in the bind map (never a panic).
func MissingParameter(name string) *Error {
	return New(KindQuery, "missing bound parameter $%s", name)
}

// Is reports whether err (or any error it wraps) is a *Error of kind k.
func Is(err error, k Kind) bool {
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Kind == k
	}
	return false
}
