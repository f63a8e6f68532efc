package codegen

import "fmt"

// ErrorKind categorizes code generation errors. Unlike the parse phase,
// code generation fails fast: the first error aborts compilation.
type ErrorKind int

// Code generation error kinds.
const (
	// ErrDuplicateImport indicates two imports share a name.
	ErrDuplicateImport ErrorKind = iota

	// ErrGoalImportConflict indicates a relation that is both imported
	// and derived by a rule.
	ErrGoalImportConflict

	// ErrUnknownProtocol indicates an import URI with an unrecognized or
	// missing scheme.
	ErrUnknownProtocol

	// ErrDuplicateVariable indicates a binding that redefines a name
	// already in scope.
	ErrDuplicateVariable

	// ErrUnknownAggregate indicates an aggregate operator outside the
	// supported set.
	ErrUnknownAggregate

	// ErrCircularReference indicates an aggregate subquery reading a
	// relation derived by the same program.
	ErrCircularReference

	// ErrUndefinedVariable indicates a failed context lookup. From a
	// parsed program it is reached when a goal field or binding value
	// names a variable that no preceding clause binds, as in ground rules
	// with free goal identifiers; the parser does not check this.
	ErrUndefinedVariable
)

// Error is a code generation error with a machine-readable kind.
type Error struct {
	Kind    ErrorKind
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}
