package memory

import (
	"context"
	"sort"

	"estoque/internal/core/apperror"
	"estoque/internal/core/id"
	"estoque/internal/core/itemcode"
	"estoque/internal/domain/catalogs/product"
)

func (s *Store) ListLedgerProducts(_ context.Context, batchID id.ID) ([]product.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []product.Product
	for _, p := range s.ledgerProducts {
		if p.BatchID != nil && *p.BatchID == batchID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) ListCatalogProducts(_ context.Context, codes []itemcode.Code) ([]product.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []product.Product
	if len(codes) == 0 {
		for _, p := range s.catalogProducts {
			out = append(out, p)
		}
	} else {
		for _, c := range codes {
			if p, ok := s.catalogProducts[c]; ok {
				out = append(out, p)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (s *Store) UpsertCatalogProduct(_ context.Context, p *product.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.catalogProducts[p.Code] = *p
	return nil
}

func (s *Store) InsertLedgerProducts(_ context.Context, products []product.Product) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ledgerProducts = append(s.ledgerProducts, products...)
	return int64(len(products)), nil
}

func (s *Store) ListConversions(_ context.Context, code *itemcode.Code) ([]product.Conversion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []product.Conversion
	for _, c := range s.conversions {
		if code == nil || c.Code == *code {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (s *Store) CreateConversion(_ context.Context, c *product.Conversion) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conversions[c.ID] = *c
	return nil
}

func (s *Store) DeleteConversion(_ context.Context, conversionID id.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversions[conversionID]; !ok {
		return apperror.NewNotFound("conversion", conversionID)
	}
	delete(s.conversions, conversionID)
	return nil
}
