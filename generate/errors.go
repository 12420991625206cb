package generate

import (
	"fmt"

	"tlog.app/go/errors"

	"acc/ast"
	"acc/report"
)

// Enumeration of the kinds of lowering failure.  Every *LowerError unwraps to
// exactly one of these so callers can test them with errors.Is.
var (
	// ErrUnresolvedSymbol indicates a name with no binding in scope.
	ErrUnresolvedSymbol = errors.New("unresolved symbol")

	// ErrUnknownFunction indicates a call to a function that is not declared
	// in the module.
	ErrUnknownFunction = errors.New("unknown function")

	// ErrUnsupported indicates a well-formed node that has no lowering.
	ErrUnsupported = errors.New("unsupported construct")

	// ErrVoidCall indicates a call whose result is used but which returns no
	// value.
	ErrVoidCall = errors.New("call to function without result")

	// ErrArityMismatch indicates a call or declaration whose argument count
	// disagrees with the function's signature.
	ErrArityMismatch = errors.New("arity mismatch")

	// ErrDuplicateFunction indicates a function which is lowered twice.
	ErrDuplicateFunction = errors.New("duplicate function")

	// ErrVerification indicates a function which failed structural
	// verification.
	ErrVerification = errors.New("verification failed")
)

// LowerError is a failure to lower a single function.
type LowerError struct {
	// Kind is one of the enumerated lowering failures.
	Kind error

	// Func is the name of the function being lowered.
	Func ast.Name

	// Name is the offending symbol, if any.
	Name ast.Name

	// Detail gives additional information about the failure.
	Detail string

	// Span is the location of the offending node.  It may be nil for
	// synthesized ASTs.
	Span *report.TextSpan
}

func (le *LowerError) Error() string {
	msg := le.Kind.Error()
	if le.Name != "" {
		msg += fmt.Sprintf(" `%s`", le.Name)
	}

	if le.Detail != "" {
		msg += ": " + le.Detail
	}

	if le.Func != "" {
		msg = fmt.Sprintf("func %s: %s", le.Func, msg)
	}

	return msg
}

func (le *LowerError) Unwrap() error {
	return le.Kind
}

// lowerErrorf creates a lowering error of the given kind located at node.
func lowerErrorf(kind error, node ast.ASTNode, name ast.Name, detail string, args ...interface{}) *LowerError {
	le := &LowerError{
		Kind:   kind,
		Name:   name,
		Detail: fmt.Sprintf(detail, args...),
	}

	if node != nil {
		le.Span = node.Span()
	}

	return le
}
