package memory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"estoque/internal/core/apperror"
	"estoque/internal/core/id"
	"estoque/internal/domain"
	"estoque/internal/domain/records"
)

// page returns rows after req.After in (line id, seq) order, comparing line
// ids bytewise like the postgres store's "C" collation.
func page[T interface{ Cursor() domain.Cursor }](rows []T, req domain.PageRequest) []T {
	sorted := make([]T, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Cursor().Less(sorted[j].Cursor()) })

	limit := req.Limit
	if limit <= 0 {
		limit = domain.DefaultPageSize
	}

	out := make([]T, 0, limit)
	for _, r := range sorted {
		if !req.After.Less(r.Cursor()) {
			continue
		}
		out = append(out, r)
		if len(out) == limit {
			break
		}
	}
	return out
}

// nextSeq stamps a row id on an inserted line. Callers hold the write lock.
func (s *Store) nextSeq() int64 {
	s.seq++
	return s.seq
}

func (s *Store) ListStockLines(_ context.Context, batchID id.ID, req domain.PageRequest) ([]records.InitialStockLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []records.InitialStockLine
	for _, l := range s.stock {
		if l.BatchID == batchID {
			rows = append(rows, l)
		}
	}
	return page(rows, req), nil
}

func (s *Store) ListDocuments(_ context.Context, batchID id.ID) ([]records.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []records.Document
	for _, d := range s.documents {
		if d.BatchID == batchID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *Store) ListEntryLines(_ context.Context, batchID id.ID, req domain.PageRequest) ([]records.EntryLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []records.EntryLine
	for _, l := range s.entries {
		if l.BatchID != batchID {
			continue
		}
		if o, ok := s.overrides[lineKey{l.BatchID, l.ID}]; ok {
			l.AdjustedQuantity = decimal.NewNullDecimal(o.Quantity)
		}
		rows = append(rows, l)
	}
	return page(rows, req), nil
}

func (s *Store) ListExitLines(_ context.Context, batchIDs []id.ID, req domain.PageRequest) ([]records.ExitLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[id.ID]struct{}, len(batchIDs))
	for _, b := range batchIDs {
		wanted[b] = struct{}{}
	}

	var rows []records.ExitLine
	for _, l := range s.exits {
		if _, ok := wanted[l.BatchID]; ok {
			rows = append(rows, l)
		}
	}
	return page(rows, req), nil
}

func (s *Store) GetEntryLine(_ context.Context, batchID id.ID, lineID string) (*records.EntryLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, l := range s.entries {
		if l.BatchID == batchID && l.ID == lineID {
			if o, ok := s.overrides[lineKey{batchID, lineID}]; ok {
				l.AdjustedQuantity = decimal.NewNullDecimal(o.Quantity)
			}
			return &l, nil
		}
	}
	return nil, apperror.NewNotFound("entry line", lineID).WithDetail("batchId", batchID)
}

func (s *Store) SetEntryOverride(_ context.Context, o records.EntryOverride) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.overrides[lineKey{o.BatchID, o.LineID}] = o
	return nil
}

func (s *Store) ClearEntryOverride(_ context.Context, batchID id.ID, lineID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.overrides, lineKey{batchID, lineID})
	return nil
}

func (s *Store) InsertStockLines(_ context.Context, lines []records.InitialStockLine) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, l := range lines {
		l.Seq = s.nextSeq()
		s.stock = append(s.stock, l)
	}
	return int64(len(lines)), nil
}

func (s *Store) InsertDocuments(_ context.Context, docs []records.Document) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range docs {
		s.documents[d.ID] = d
	}
	return int64(len(docs)), nil
}

func (s *Store) InsertEntryLines(_ context.Context, lines []records.EntryLine) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, l := range lines {
		l.Seq = s.nextSeq()
		s.entries = append(s.entries, l)
	}
	return int64(len(lines)), nil
}

func (s *Store) InsertExitLines(_ context.Context, lines []records.ExitLine) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, l := range lines {
		l.Seq = s.nextSeq()
		s.exits = append(s.exits, l)
	}
	return int64(len(lines)), nil
}
