package memory

import (
	"context"
	"sort"

	"estoque/internal/core/apperror"
	"estoque/internal/core/id"
	"estoque/internal/domain/adjustment"
	"estoque/internal/domain/audit"
)

func (s *Store) Create(_ context.Context, t *adjustment.Transfer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transfers[t.ID] = *t
	return nil
}

func (s *Store) Get(_ context.Context, transferID id.ID) (*adjustment.Transfer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.transfers[transferID]
	if !ok {
		return nil, apperror.NewNotFound("transfer", transferID)
	}
	return &t, nil
}

func (s *Store) Delete(_ context.Context, transferID id.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.transfers[transferID]; !ok {
		return apperror.NewNotFound("transfer", transferID)
	}
	delete(s.transfers, transferID)
	return nil
}

func (s *Store) List(_ context.Context, scope adjustment.Scope) ([]adjustment.Transfer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []adjustment.Transfer
	for _, t := range s.transfers {
		if scope.Matches(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) Log(_ context.Context, entry audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.audit = append(s.audit, entry)
	return nil
}

func (s *Store) History(_ context.Context, entityType string, entityID id.ID, limit int) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []audit.Entry
	for i := len(s.audit) - 1; i >= 0; i-- {
		e := s.audit[i]
		if e.EntityType == entityType && e.EntityID == entityID {
			out = append(out, e)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}
