package phpreflect

import "github.com/jward/phpreflect/internal/errs"

func IsNotFound(err error) bool    { return errs.IsCode(err, errs.CodeNotFound) }
func IsAmbiguous(err error) bool   { return errs.IsCode(err, errs.CodeAmbiguous) }
func IsUnreadable(err error) bool  { return errs.IsCode(err, errs.CodeUnreadable) }
func IsCycle(err error) bool       { return errs.IsCode(err, errs.CodeCycle) }
func IsUnsupported(err error) bool { return errs.IsCode(err, errs.CodeUnsupported) }

// IsEvaluation reports a runtime failure while evaluating a constant
// expression, such as division by zero.
func IsEvaluation(err error) bool { return errs.IsCode(err, errs.CodeEvaluation) }
