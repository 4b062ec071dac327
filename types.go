package phpreflect

import (
	"github.com/jward/phpreflect/internal/expr"
	"github.com/jward/phpreflect/internal/model"
	"github.com/jward/phpreflect/internal/observability"
)

// Aliases of the internal model types returned by the Reflector.

type Class = model.Class
type ClassConstant = model.ClassConstant
type Property = model.Property
type Method = model.Method
type Parameter = model.Parameter
type Function = model.Function
type Constant = model.Constant

type Value = expr.Value
type EvaluationContext = expr.EvaluationContext

type Metrics = observability.Metrics
