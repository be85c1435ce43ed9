package period

import (
	"context"
	"fmt"
	"slices"

	"estoque/internal/core/apperror"
	"estoque/internal/core/diag"
	"estoque/internal/core/id"
)

// Dimension is one input of the consolidation that can be degraded.
type Dimension string

const (
	DimensionStock    Dimension = "stock"
	DimensionLedger   Dimension = "ledger"
	DimensionInvoices Dimension = "invoices"
)

// Hints lets review tooling pin a specific stock or ledger batch.
// A hinted batch from another period is replaced by the period's base.
type Hints struct {
	StockBatchID  *id.ID
	LedgerBatchID *id.ID
}

// Resolution is the set of batches that feed one consolidation.
type Resolution struct {
	PeriodID        id.ID        `json:"periodId"`
	StockBatchID    *id.ID       `json:"stockBatchId,omitempty"`
	LedgerBatchID   *id.ID       `json:"ledgerBatchId,omitempty"`
	InvoiceBatchIDs []id.ID      `json:"invoiceBatchIds"`
	Degraded        []Dimension  `json:"degraded,omitempty"`
	Issues          []diag.Issue `json:"issues,omitempty"`
}

// IsDegraded reports whether d could not be resolved.
func (r *Resolution) IsDegraded(d Dimension) bool {
	return slices.Contains(r.Degraded, d)
}

func (r *Resolution) degrade(d Dimension) {
	if !r.IsDegraded(d) {
		r.Degraded = append(r.Degraded, d)
	}
}

func (r *Resolution) recover(d Dimension) {
	r.Degraded = slices.DeleteFunc(r.Degraded, func(x Dimension) bool { return x == d })
}

// Resolver determines the base batches of a period.
// It never consults the active-period flag: the period is always explicit.
type Resolver struct {
	repo Repository
}

// NewResolver creates a resolver.
func NewResolver(repo Repository) *Resolver {
	return &Resolver{repo: repo}
}

// Resolve returns the base stock batch, the ledger batch and the invoice
// batches of periodID. Configuration problems do not fail the call: the
// affected dimension is marked degraded and an issue is attached.
func (r *Resolver) Resolve(ctx context.Context, periodID id.ID, hints Hints) (*Resolution, error) {
	if _, err := r.repo.GetPeriod(ctx, periodID); err != nil {
		return nil, err
	}

	batches, err := r.repo.ListBatches(ctx, BatchFilter{PeriodID: &periodID})
	if err != nil {
		return nil, fmt.Errorf("list batches of period %s: %w", periodID, err)
	}

	var (
		report = &diag.Report{}
		res    = &Resolution{PeriodID: periodID, InvoiceBatchIDs: []id.ID{}}
	)

	stocks, ledgers, invoices := splitByType(batches)

	res.StockBatchID = r.resolveSingleBase(ctx, report, res, SourceStock, DimensionStock, stocks)
	res.LedgerBatchID = r.resolveLedger(ctx, report, res, ledgers)
	for _, b := range invoices {
		if b.IsBase {
			res.InvoiceBatchIDs = append(res.InvoiceBatchIDs, b.ID)
		}
	}

	if hints.StockBatchID != nil {
		if res.StockBatchID, err = r.applyHint(ctx, report, res, SourceStock, DimensionStock, *hints.StockBatchID, res.StockBatchID); err != nil {
			return nil, err
		}
	}
	if hints.LedgerBatchID != nil {
		if res.LedgerBatchID, err = r.applyHint(ctx, report, res, SourceLedger, DimensionLedger, *hints.LedgerBatchID, res.LedgerBatchID); err != nil {
			return nil, err
		}
	}

	res.Issues = report.Issues
	return res, nil
}

func splitByType(batches []Batch) (stocks, ledgers, invoices []Batch) {
	for _, b := range batches {
		switch b.Type {
		case SourceStock:
			stocks = append(stocks, b)
		case SourceLedger:
			ledgers = append(ledgers, b)
		case SourceInvoice:
			invoices = append(invoices, b)
		}
	}
	return stocks, ledgers, invoices
}

func baseIDs(batches []Batch) []id.ID {
	var out []id.ID
	for _, b := range batches {
		if b.IsBase {
			out = append(out, b.ID)
		}
	}
	return out
}

func (r *Resolver) resolveSingleBase(
	ctx context.Context,
	report *diag.Report,
	res *Resolution,
	t SourceType,
	dim Dimension,
	batches []Batch,
) *id.ID {
	bases := baseIDs(batches)
	switch len(bases) {
	case 0:
		report.Add(ctx, diag.New(diag.KindDecision, diag.CodeNoBaseBatch,
			"no base %s batch for period, dimension is empty", t).
			With("period_id", res.PeriodID))
		return nil
	case 1:
		return &bases[0]
	default:
		res.degrade(dim)
		report.Add(ctx, diag.New(diag.KindConfigurationFault, diag.CodeMultipleBaseBatches,
			"%d base %s batches flagged for period", len(bases), t).
			With("period_id", res.PeriodID).
			With("batch_ids", bases))
		return nil
	}
}

func (r *Resolver) resolveLedger(ctx context.Context, report *diag.Report, res *Resolution, ledgers []Batch) *id.ID {
	if len(baseIDs(ledgers)) > 0 || len(ledgers) == 0 {
		return r.resolveSingleBase(ctx, report, res, SourceLedger, DimensionLedger, ledgers)
	}

	if len(ledgers) == 1 {
		only := ledgers[0].ID
		report.Add(ctx, diag.New(diag.KindDecision, diag.CodeLedgerFallback,
			"no base ledger batch flagged, using the only ledger batch of the period").
			With("period_id", res.PeriodID).
			With("batch_id", only))
		return &only
	}

	ids := make([]id.ID, 0, len(ledgers))
	for _, b := range ledgers {
		ids = append(ids, b.ID)
	}
	res.degrade(DimensionLedger)
	report.Add(ctx, diag.New(diag.KindConfigurationFault, diag.CodeAmbiguousLedger,
		"%d ledger batches linked to period and none is base", len(ledgers)).
		With("period_id", res.PeriodID).
		With("batch_ids", ids))
	return nil
}

// applyHint honours a caller supplied batch only when it is a batch of the
// right type in the same period; otherwise the resolved base is kept. Store
// failures other than a missing batch are returned.
func (r *Resolver) applyHint(
	ctx context.Context,
	report *diag.Report,
	res *Resolution,
	t SourceType,
	dim Dimension,
	hint id.ID,
	resolved *id.ID,
) (*id.ID, error) {
	b, err := r.repo.GetBatch(ctx, hint)
	if err != nil && !apperror.IsNotFound(err) {
		return nil, fmt.Errorf("load %s batch hint: %w", t, err)
	}
	if err != nil || b.Type != t || !b.BelongsTo(res.PeriodID) {
		report.Add(ctx, diag.New(diag.KindDataIntegrity, diag.CodeBatchPeriodMismatch,
			"requested %s batch does not belong to the period, substituted with period base", t).
			With("period_id", res.PeriodID).
			With("requested_batch_id", hint).
			With("substituted_batch_id", resolved))
		return resolved, nil
	}

	if resolved == nil || *resolved != hint {
		report.Add(ctx, diag.New(diag.KindDecision, diag.CodeBatchHintApplied,
			"using requested %s batch instead of period base", t).
			With("period_id", res.PeriodID).
			With("batch_id", hint))
	}
	res.recover(dim)
	return &hint, nil
}
