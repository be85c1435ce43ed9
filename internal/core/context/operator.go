// Package context carries request-scoped values (trace ids, operator) through
// the domain layer without coupling it to HTTP.
package context

import (
	"context"
)

// Operator identifies who issued a mutating request. Authentication is not
// performed by this service; the value is taken from a trusted upstream header
// and only recorded on transfers and audit entries.
type Operator struct {
	ID   string
	Name string
}

type operatorKey struct{}

// WithOperator adds Operator to context.
func WithOperator(ctx context.Context, op *Operator) context.Context {
	return context.WithValue(ctx, operatorKey{}, op)
}

// GetOperator returns Operator from context or nil.
func GetOperator(ctx context.Context) *Operator {
	if v, ok := ctx.Value(operatorKey{}).(*Operator); ok {
		return v
	}
	return nil
}

// GetOperatorID returns the operator id or "system" when none is set.
func GetOperatorID(ctx context.Context) string {
	if op := GetOperator(ctx); op != nil && op.ID != "" {
		return op.ID
	}
	return "system"
}
