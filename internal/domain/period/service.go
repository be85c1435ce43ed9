package period

import (
	"context"
	"fmt"
	"strings"
	"time"

	"estoque/internal/core/apperror"
	"estoque/internal/core/id"
	"estoque/internal/core/tx"
	"estoque/pkg/logger"
)

// Service manages periods and the batch registry.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new period service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{repo: repo, txManager: txManager}
}

// CreatePeriod registers a new accounting month.
func (s *Service) CreatePeriod(ctx context.Context, year, month int, label string) (*Period, error) {
	p := &Period{
		ID:        id.New(),
		Year:      year,
		Month:     month,
		Label:     strings.TrimSpace(label),
		CreatedAt: time.Now().UTC(),
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Label == "" {
		p.Label = p.DefaultLabel()
	}

	if err := s.repo.CreatePeriod(ctx, p); err != nil {
		return nil, fmt.Errorf("create period: %w", err)
	}

	logger.Info(ctx, "period created", "period_id", p.ID, "label", p.Label)
	return p, nil
}

// Get returns one period.
func (s *Service) Get(ctx context.Context, periodID id.ID) (*Period, error) {
	return s.repo.GetPeriod(ctx, periodID)
}

// List returns all periods, newest first.
func (s *Service) List(ctx context.Context) ([]Period, error) {
	return s.repo.ListPeriods(ctx)
}

// Active returns the period flagged active, or NotFound.
// The flag is a UI default only; reconciliation always takes an explicit period id.
func (s *Service) Active(ctx context.Context) (*Period, error) {
	p, err := s.repo.GetActivePeriod(ctx)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperror.NewNotFound("active period", nil)
	}
	return p, nil
}

// Activate makes periodID the only active period.
func (s *Service) Activate(ctx context.Context, periodID id.ID) error {
	if _, err := s.repo.GetPeriod(ctx, periodID); err != nil {
		return err
	}
	if err := s.repo.SetActivePeriod(ctx, periodID); err != nil {
		return fmt.Errorf("activate period: %w", err)
	}
	logger.Info(ctx, "period activated", "period_id", periodID)
	return nil
}

// RegisterBatchInput describes a batch produced by an importer.
type RegisterBatchInput struct {
	PeriodID *id.ID
	Type     SourceType
	Name     string
}

// RegisterBatch records a new import batch. New batches are never base.
func (s *Service) RegisterBatch(ctx context.Context, in RegisterBatchInput) (*Batch, error) {
	b := &Batch{
		ID:         id.New(),
		PeriodID:   in.PeriodID,
		Type:       in.Type,
		Name:       strings.TrimSpace(in.Name),
		ImportedAt: time.Now().UTC(),
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if b.PeriodID != nil {
		if _, err := s.repo.GetPeriod(ctx, *b.PeriodID); err != nil {
			return nil, err
		}
	}

	if err := s.repo.CreateBatch(ctx, b); err != nil {
		return nil, fmt.Errorf("create batch: %w", err)
	}

	logger.Info(ctx, "batch registered", "batch_id", b.ID, "source_type", b.Type, "period_id", b.PeriodID)
	return b, nil
}

// ListBatches returns batches matching the filter.
func (s *Service) ListBatches(ctx context.Context, filter BatchFilter) ([]Batch, error) {
	return s.repo.ListBatches(ctx, filter)
}

// SetBase toggles the base flag of a batch. For stock and ledger batches,
// marking one as base clears the flag on its siblings in the same transaction,
// keeping at most one base per (period, type).
func (s *Service) SetBase(ctx context.Context, batchID id.ID, isBase bool) (*Batch, error) {
	var result *Batch

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		b, err := s.repo.GetBatch(ctx, batchID)
		if err != nil {
			return err
		}
		if isBase && b.PeriodID == nil {
			return apperror.NewBusinessRule(apperror.CodeBusinessRule,
				"batch must be linked to a period before it can be base").
				WithDetail("batchId", batchID)
		}

		if isBase && b.Type.SingleBase() {
			if err := s.repo.ClearBase(ctx, *b.PeriodID, b.Type); err != nil {
				return fmt.Errorf("clear sibling base flags: %w", err)
			}
		}
		if err := s.repo.SetBatchBase(ctx, batchID, isBase); err != nil {
			return fmt.Errorf("set base flag: %w", err)
		}

		b.IsBase = isBase
		result = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "batch base flag changed",
		"batch_id", batchID,
		"source_type", result.Type,
		"is_base", isBase,
	)
	return result, nil
}

// Link attaches a batch to a period (nil detaches it). The base flag is reset.
func (s *Service) Link(ctx context.Context, batchID id.ID, periodID *id.ID) error {
	if _, err := s.repo.GetBatch(ctx, batchID); err != nil {
		return err
	}
	if periodID != nil {
		if _, err := s.repo.GetPeriod(ctx, *periodID); err != nil {
			return err
		}
	}
	if err := s.repo.LinkBatch(ctx, batchID, periodID); err != nil {
		return fmt.Errorf("link batch: %w", err)
	}
	logger.Info(ctx, "batch linked", "batch_id", batchID, "period_id", periodID)
	return nil
}
