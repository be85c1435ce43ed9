package memory

import (
	"context"
	"sort"

	"estoque/internal/core/apperror"
	"estoque/internal/core/id"
	"estoque/internal/domain/period"
)

func (s *Store) CreatePeriod(_ context.Context, p *period.Period) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.periods {
		if existing.Year == p.Year && existing.Month == p.Month {
			return apperror.NewDuplicate("period", "year/month", p.DefaultLabel())
		}
	}
	s.periods[p.ID] = *p
	return nil
}

func (s *Store) GetPeriod(_ context.Context, periodID id.ID) (*period.Period, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.periods[periodID]
	if !ok {
		return nil, apperror.NewNotFound("period", periodID)
	}
	return &p, nil
}

func (s *Store) ListPeriods(_ context.Context) ([]period.Period, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]period.Period, 0, len(s.periods))
	for _, p := range s.periods {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		return out[i].Month > out[j].Month
	})
	return out, nil
}

func (s *Store) GetActivePeriod(_ context.Context) (*period.Period, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.periods {
		if p.IsActive {
			return &p, nil
		}
	}
	return nil, nil
}

func (s *Store) SetActivePeriod(_ context.Context, periodID id.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.periods[periodID]; !ok {
		return apperror.NewNotFound("period", periodID)
	}
	for pid, p := range s.periods {
		p.IsActive = pid == periodID
		s.periods[pid] = p
	}
	return nil
}

func (s *Store) CreateBatch(_ context.Context, b *period.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.batches[b.ID] = *b
	return nil
}

func (s *Store) GetBatch(_ context.Context, batchID id.ID) (*period.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.batches[batchID]
	if !ok {
		return nil, apperror.NewNotFound("batch", batchID)
	}
	return &b, nil
}

func (s *Store) ListBatches(_ context.Context, filter period.BatchFilter) ([]period.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []period.Batch
	for _, b := range s.batches {
		if filter.PeriodID != nil && !b.BelongsTo(*filter.PeriodID) {
			continue
		}
		if filter.Type != "" && b.Type != filter.Type {
			continue
		}
		if filter.BaseOnly && !b.IsBase {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (s *Store) SetBatchBase(_ context.Context, batchID id.ID, isBase bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.batches[batchID]
	if !ok {
		return apperror.NewNotFound("batch", batchID)
	}
	b.IsBase = isBase
	s.batches[batchID] = b
	return nil
}

func (s *Store) ClearBase(_ context.Context, periodID id.ID, t period.SourceType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for bid, b := range s.batches {
		if b.Type == t && b.BelongsTo(periodID) && b.IsBase {
			b.IsBase = false
			s.batches[bid] = b
		}
	}
	return nil
}

func (s *Store) LinkBatch(_ context.Context, batchID id.ID, periodID *id.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.batches[batchID]
	if !ok {
		return apperror.NewNotFound("batch", batchID)
	}
	b.PeriodID = periodID
	b.IsBase = false
	s.batches[batchID] = b
	return nil
}
