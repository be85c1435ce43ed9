// Package diag collects non-fatal findings produced while reconciling a period.
// Unlike apperror, an Issue never aborts the operation: it travels next to the
// computed data so the caller can see which inputs were skipped or degraded.
package diag

import (
	"context"
	"fmt"

	"estoque/pkg/logger"
)

// Kind classifies an Issue.
type Kind string

const (
	// KindConfigurationFault: the period's batch setup is ambiguous or broken.
	// The affected dimension is treated as empty.
	KindConfigurationFault Kind = "configuration_fault"

	// KindDataIntegrity: a single record was excluded (duplicate, orphan, foreign batch).
	KindDataIntegrity Kind = "data_integrity"

	// KindArithmeticDegradation: a derived value could not be computed (zero denominator).
	KindArithmeticDegradation Kind = "arithmetic_degradation"

	// KindDecision: the resolver applied a fallback or honoured a caller hint.
	KindDecision Kind = "decision"

	// KindPolicy: an operation was allowed under a relaxed policy.
	KindPolicy Kind = "policy"
)

// Issue codes.
const (
	CodeMultipleBaseBatches  = "MULTIPLE_BASE_BATCHES"
	CodeAmbiguousLedger      = "AMBIGUOUS_LEDGER_BATCH"
	CodeLedgerFallback       = "LEDGER_SINGLE_BATCH_FALLBACK"
	CodeNoBaseBatch          = "NO_BASE_BATCH"
	CodeBatchPeriodMismatch  = "BATCH_PERIOD_MISMATCH"
	CodeBatchHintApplied     = "BATCH_HINT_APPLIED"
	CodeDuplicateLine        = "DUPLICATE_LINE"
	CodeOrphanLine           = "ORPHAN_LINE"
	CodeMissingLineID        = "MISSING_LINE_ID"
	CodeForeignBatchLine     = "FOREIGN_BATCH_LINE"
	CodeInvalidLineCode      = "INVALID_LINE_CODE"
	CodeAmbiguousConversion  = "AMBIGUOUS_CONVERSION"
	CodeUndefinedAverageCost = "UNDEFINED_AVERAGE_COST"
	CodeOverdrawUnitsDiffer  = "OVERDRAW_UNITS_DIFFER"
	CodeOverdrawAllowed      = "OVERDRAW_ALLOWED"
)

// Issue is a single finding.
type Issue struct {
	Kind    Kind           `json:"kind"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// New creates an Issue with a formatted message.
func New(kind Kind, code, format string, args ...any) Issue {
	return Issue{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

// With returns a copy of the issue with an extra detail.
func (i Issue) With(key string, value any) Issue {
	details := make(map[string]any, len(i.Details)+1)
	for k, v := range i.Details {
		details[k] = v
	}
	details[key] = value
	i.Details = details
	return i
}

// Report accumulates issues. The zero value is ready to use.
type Report struct {
	Issues []Issue
}

// Add appends an issue and logs it.
// Policy notes and arithmetic degradations go to info, everything else
// (resolver decisions included) to warn.
func (r *Report) Add(ctx context.Context, issue Issue) {
	r.Issues = append(r.Issues, issue)

	kv := []any{"kind", issue.Kind, "code", issue.Code}
	for k, v := range issue.Details {
		kv = append(kv, k, v)
	}
	switch issue.Kind {
	case KindPolicy, KindArithmeticDegradation:
		logger.Info(ctx, issue.Message, kv...)
	default:
		logger.Warn(ctx, issue.Message, kv...)
	}
}

// Merge appends issues collected elsewhere without logging them again.
func (r *Report) Merge(issues []Issue) {
	r.Issues = append(r.Issues, issues...)
}

// Has reports whether an issue with the given code was recorded.
func Has(issues []Issue, code string) bool {
	for _, i := range issues {
		if i.Code == code {
			return true
		}
	}
	return false
}
