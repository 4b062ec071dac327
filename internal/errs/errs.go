// Package errs defines the typed errors surfaced by reflection queries.
package errs

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type Code string

const (
	CodeNotFound            Code = "NOT_FOUND"
	CodeAmbiguous           Code = "AMBIGUOUS"
	CodeUnreadable          Code = "UNREADABLE"
	CodeCycle               Code = "CYCLE"
	CodeUnsupported         Code = "UNSUPPORTED"
	CodeNoEvaluationContext Code = "NO_EVALUATION_CONTEXT"
	CodeEvaluation          Code = "EVALUATION"
	CodeInvalidConfig       Code = "INVALID_CONFIG"
)

// Context keys.
const (
	CtxSymbol  = "symbol"
	CtxPath    = "path"
	CtxColumns = "columns"
)

// Error carries a Code alongside the message so callers can branch on the
// failure kind without matching strings.
type Error struct {
	Code    Code
	Message string
	Err     error
	Context map[string]any
}

func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

// IsCode reports whether any error in err's chain has the given code.
func IsCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Describer is satisfied by symbol identifiers.
type Describer interface {
	Describe() string
}

func NotFound(symbol Describer) *Error {
	return Newf(CodeNotFound, "%s not found", symbol.Describe()).
		WithContext(CtxSymbol, symbol.Describe())
}

// Ambiguous reports an anonymous class lookup that matched several columns.
// Columns are listed in ascending order.
func Ambiguous(symbol Describer, columns []int) *Error {
	sorted := append([]int(nil), columns...)
	sort.Ints(sorted)
	parts := make([]string, len(sorted))
	for i, c := range sorted {
		parts[i] = strconv.Itoa(c)
	}
	return Newf(CodeAmbiguous, "cannot reflect %s, because %d anonymous classes are declared at columns %s",
		symbol.Describe(), len(sorted), strings.Join(parts, ", ")).
		WithContext(CtxSymbol, symbol.Describe()).
		WithContext(CtxColumns, sorted)
}

func Unreadable(path string, err error) *Error {
	return Wrap(err, CodeUnreadable, fmt.Sprintf("cannot read %s", path)).
		WithContext(CtxPath, path)
}

func Cycle(symbol Describer) *Error {
	return Newf(CodeCycle, "%s depends on itself", symbol.Describe()).
		WithContext(CtxSymbol, symbol.Describe())
}

func Unsupported(format string, args ...any) *Error {
	return Newf(CodeUnsupported, "unsupported "+format, args...)
}

func NoEvaluationContext(symbol Describer) *Error {
	return Newf(CodeNoEvaluationContext, "%s cannot be evaluated without evaluation context", symbol.Describe()).
		WithContext(CtxSymbol, symbol.Describe())
}

func Evaluation(format string, args ...any) *Error {
	return Newf(CodeEvaluation, format, args...)
}
