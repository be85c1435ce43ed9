package adjustment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"estoque/internal/core/apperror"
	appctx "estoque/internal/core/context"
	"estoque/internal/core/diag"
	"estoque/internal/core/id"
	"estoque/internal/core/itemcode"
	"estoque/internal/core/tx"
	"estoque/internal/domain"
	"estoque/internal/domain/catalogs/product"
	"estoque/pkg/logger"
)

// Service creates, deletes and lists transfers.
type Service struct {
	repo      Repository
	balances  Snapshotter
	txManager tx.Manager
	policy    OverdrawPolicy
	hooks     *domain.HookRegistry[*Transfer]
}

// NewService creates an adjustment service.
func NewService(repo Repository, balances Snapshotter, txManager tx.Manager, policy OverdrawPolicy) *Service {
	if policy == "" {
		policy = DefaultOverdrawPolicy
	}
	return &Service{
		repo:      repo,
		balances:  balances,
		txManager: txManager,
		policy:    policy,
		hooks:     domain.NewHookRegistry[*Transfer](),
	}
}

// Hooks returns the hook registry. AfterCreate and AfterDelete hooks run
// inside the mutation's transaction.
func (s *Service) Hooks() *domain.HookRegistry[*Transfer] {
	return s.hooks
}

// Policy returns the configured overdraw policy.
func (s *Service) Policy() OverdrawPolicy {
	return s.policy
}

// CreateInput is a transfer request with raw, unnormalized codes.
type CreateInput struct {
	PeriodID      id.ID
	LedgerBatchID *id.ID
	NegativeCode  string
	PositiveCode  string
	Quantity      decimal.Decimal
	UnitCost      decimal.Decimal
	Note          string
}

// CreateResult carries the stored transfer and any policy warnings.
type CreateResult struct {
	Transfer *Transfer
	Warnings []diag.Issue
}

// Create validates and stores a transfer. Availability of the donor code is
// checked against a freshly computed consolidation.
func (s *Service) Create(ctx context.Context, in CreateInput) (*CreateResult, error) {
	negative, positive, err := validateInput(in)
	if err != nil {
		return nil, err
	}

	snap, err := s.balances.Snapshot(ctx, in.PeriodID, in.LedgerBatchID)
	if err != nil {
		return nil, err
	}
	if snap.LedgerDegraded {
		return nil, apperror.NewConfiguration("ledger batch of the period is ambiguous, transfers cannot be scoped").
			WithDetail("periodId", in.PeriodID)
	}

	receiver, ok := snap.Positions[negative]
	if !ok {
		return nil, apperror.NewUnknownItemCode("codNegativo", negative.String())
	}
	donor, ok := snap.Positions[positive]
	if !ok {
		return nil, apperror.NewUnknownItemCode("codPositivo", positive.String())
	}

	var report diag.Report
	overdraw := in.Quantity.GreaterThan(donor.Quantity)
	if overdraw {
		if err := s.checkOverdraw(ctx, &report, positive, in.Quantity, donor, receiver); err != nil {
			return nil, err
		}
	}

	t := &Transfer{
		ID:            id.New(),
		PeriodID:      in.PeriodID,
		LedgerBatchID: snap.LedgerBatchID,
		NegativeCode:  negative,
		PositiveCode:  positive,
		Quantity:      in.Quantity,
		UnitCost:      in.UnitCost,
		TotalValue:    in.Quantity.Mul(in.UnitCost),
		Overdraw:      overdraw,
		Note:          strings.TrimSpace(in.Note),
		CreatedBy:     appctx.GetOperatorID(ctx),
		CreatedAt:     time.Now().UTC(),
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, t); err != nil {
			return fmt.Errorf("create transfer: %w", err)
		}
		return s.hooks.Run(ctx, domain.AfterCreate, t)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "transfer created",
		"transfer_id", t.ID,
		"period_id", t.PeriodID,
		"cod_negativo", t.NegativeCode,
		"cod_positivo", t.PositiveCode,
		"quantity", t.Quantity.String(),
		"overdraw", t.Overdraw,
	)

	return &CreateResult{Transfer: t, Warnings: report.Issues}, nil
}

func validateInput(in CreateInput) (negative, positive itemcode.Code, err error) {
	negative, nerr := itemcode.Normalize(in.NegativeCode)
	if nerr != nil {
		return "", "", apperror.NewInvalidItemCode("codNegativo", in.NegativeCode)
	}
	positive, perr := itemcode.Normalize(in.PositiveCode)
	if perr != nil {
		return "", "", apperror.NewInvalidItemCode("codPositivo", in.PositiveCode)
	}
	if negative == positive {
		return "", "", apperror.NewValidation("codNegativo and codPositivo must differ").
			WithDetail("code", negative)
	}
	if !in.Quantity.IsPositive() {
		return "", "", apperror.NewValidation("quantity must be positive").
			WithDetail("quantity", in.Quantity.String())
	}
	if in.UnitCost.IsNegative() {
		return "", "", apperror.NewValidation("unitCost must not be negative").
			WithDetail("unitCost", in.UnitCost.String())
	}
	return negative, positive, nil
}

func (s *Service) checkOverdraw(
	ctx context.Context,
	report *diag.Report,
	donorCode itemcode.Code,
	requested decimal.Decimal,
	donor, receiver Position,
) error {
	unitsDiffer := product.NormalizeUnit(donor.Unit) != product.NormalizeUnit(receiver.Unit)
	reject := apperror.NewOverdraw(donorCode.String(), requested.String(), donor.Quantity.String())

	switch s.policy {
	case OverdrawReject:
		return reject
	case OverdrawAllowUnitMismatch:
		if !unitsDiffer {
			return reject
		}
		report.Add(ctx, diag.New(diag.KindPolicy, diag.CodeOverdrawUnitsDiffer,
			"transfer exceeds donor balance; allowed because the codes use different units").
			With("code", donorCode).
			With("requested", requested.String()).
			With("available", donor.Quantity.String()).
			With("donor_unit", donor.Unit).
			With("receiver_unit", receiver.Unit))
		return nil
	default:
		report.Add(ctx, diag.New(diag.KindPolicy, diag.CodeOverdrawAllowed,
			"transfer exceeds donor balance; allowed by policy").
			With("code", donorCode).
			With("requested", requested.String()).
			With("available", donor.Quantity.String()))
		return nil
	}
}

// Delete removes a transfer. Consolidation reverts to its pre-transfer state.
func (s *Service) Delete(ctx context.Context, transferID id.ID) error {
	t, err := s.repo.Get(ctx, transferID)
	if err != nil {
		return err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Delete(ctx, transferID); err != nil {
			return err
		}
		return s.hooks.Run(ctx, domain.AfterDelete, t)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "transfer deleted",
		"transfer_id", transferID,
		"cod_negativo", t.NegativeCode,
		"cod_positivo", t.PositiveCode,
	)
	return nil
}

// List returns the transfers of a scope.
func (s *Service) List(ctx context.Context, scope Scope) ([]Transfer, error) {
	transfers, err := s.repo.List(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	return transfers, nil
}
