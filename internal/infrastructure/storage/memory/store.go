// Package memory is an in-process implementation of every repository the
// reconciliation needs. It backs the server when no DATABASE_URL is set and
// serves as the fixture store of the domain tests.
package memory

import (
	"context"
	"sync"

	"estoque/internal/core/id"
	"estoque/internal/core/itemcode"
	"estoque/internal/core/tx"
	"estoque/internal/domain/adjustment"
	"estoque/internal/domain/audit"
	"estoque/internal/domain/catalogs/product"
	"estoque/internal/domain/period"
	"estoque/internal/domain/records"
)

// Store holds all data behind one RWMutex.
type Store struct {
	mu sync.RWMutex

	periods   map[id.ID]period.Period
	batches   map[id.ID]period.Batch
	stock     []records.InitialStockLine
	documents map[id.ID]records.Document
	entries   []records.EntryLine
	exits     []records.ExitLine
	overrides map[lineKey]records.EntryOverride
	seq       int64

	ledgerProducts  []product.Product
	catalogProducts map[itemcode.Code]product.Product
	conversions     map[id.ID]product.Conversion

	transfers map[id.ID]adjustment.Transfer
	audit     []audit.Entry
}

// lineKey identifies a line inside its batch.
type lineKey struct {
	batchID id.ID
	lineID  string
}

// New creates an empty store.
func New() *Store {
	return &Store{
		periods:         make(map[id.ID]period.Period),
		batches:         make(map[id.ID]period.Batch),
		documents:       make(map[id.ID]records.Document),
		overrides:       make(map[lineKey]records.EntryOverride),
		catalogProducts: make(map[itemcode.Code]product.Product),
		conversions:     make(map[id.ID]product.Conversion),
		transfers:       make(map[id.ID]adjustment.Transfer),
	}
}

var (
	_ period.Repository     = (*Store)(nil)
	_ records.Source        = (*Store)(nil)
	_ records.OverrideStore = (*Store)(nil)
	_ records.Importer      = (*Store)(nil)
	_ product.Repository    = (*Store)(nil)
	_ adjustment.Repository = (*Store)(nil)
	_ audit.Sink            = (*Store)(nil)
	_ tx.ReadOnlyManager    = (*Store)(nil)
)

// RunInTransaction runs fn directly. Each repository call locks on its own,
// so there is no rollback: callers in memory mode validate before writing.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// ReadOnly runs fn directly.
func (s *Store) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
