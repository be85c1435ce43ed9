package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"estoque/internal/core/id"
	"estoque/internal/core/itemcode"
	"estoque/internal/domain/catalogs/product"
	"estoque/internal/domain/period"
	"estoque/internal/domain/records"
)

// Fixture writes records straight into a Store, bypassing services.
// Used by tests and by the demo dataset of the server's memory mode.
type Fixture struct {
	s   *Store
	seq int
}

// NewFixture creates a fixture writer for s.
func NewFixture(s *Store) *Fixture {
	return &Fixture{s: s}
}

func (f *Fixture) nextLineID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%06d", prefix, f.seq)
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

// Period creates a period and returns its id.
func (f *Fixture) Period(year, month int) id.ID {
	p := period.Period{ID: id.New(), Year: year, Month: month, CreatedAt: time.Now().UTC()}
	p.Label = p.DefaultLabel()
	_ = f.s.CreatePeriod(context.Background(), &p)
	return p.ID
}

// Batch creates a batch linked to periodID (nil for unlinked).
func (f *Fixture) Batch(periodID *id.ID, t period.SourceType, base bool) id.ID {
	b := period.Batch{
		ID:         id.New(),
		PeriodID:   periodID,
		Type:       t,
		Name:       string(t),
		IsBase:     base,
		ImportedAt: time.Now().UTC(),
	}
	_ = f.s.CreateBatch(context.Background(), &b)
	return b.ID
}

// Stock adds an initial stock line.
func (f *Fixture) Stock(batchID id.ID, code, qty, unitCost, description, unit string) {
	_, _ = f.s.InsertStockLines(context.Background(), []records.InitialStockLine{{
		ID:          f.nextLineID("S"),
		BatchID:     batchID,
		Code:        itemcode.MustNormalize(code),
		Description: description,
		Unit:        unit,
		Quantity:    dec(qty),
		UnitCost:    dec(unitCost),
	}})
}

// Document adds a ledger document and returns its id.
func (f *Fixture) Document(batchID id.ID) id.ID {
	d := records.Document{ID: id.New(), BatchID: batchID, Number: f.nextLineID("NF"), IssuedAt: time.Now().UTC()}
	_, _ = f.s.InsertDocuments(context.Background(), []records.Document{d})
	return d.ID
}

// Entry adds an entry line with an explicit line id and returns the id.
func (f *Fixture) Entry(batchID, documentID id.ID, lineID, code, qty, value, unit string) string {
	if lineID == "" {
		lineID = f.nextLineID("E")
	}
	_, _ = f.s.InsertEntryLines(context.Background(), []records.EntryLine{{
		ID:         lineID,
		BatchID:    batchID,
		DocumentID: documentID,
		Code:       itemcode.MustNormalize(code),
		Unit:       unit,
		Quantity:   dec(qty),
		ValueTotal: dec(value),
	}})
	return lineID
}

// Exit adds an exit line and returns its id.
func (f *Fixture) Exit(batchID id.ID, lineID, code, qty, value, description, unit string) string {
	if lineID == "" {
		lineID = f.nextLineID("X")
	}
	_, _ = f.s.InsertExitLines(context.Background(), []records.ExitLine{{
		ID:          lineID,
		BatchID:     batchID,
		Code:        itemcode.MustNormalize(code),
		Description: description,
		Unit:        unit,
		Quantity:    dec(qty),
		ValueTotal:  dec(value),
	}})
	return lineID
}

// Override sets a manual quantity on an entry line of batchID.
func (f *Fixture) Override(batchID id.ID, lineID, qty string) {
	_ = f.s.SetEntryOverride(context.Background(), records.EntryOverride{
		BatchID:   batchID,
		LineID:    lineID,
		Quantity:  dec(qty),
		UpdatedBy: "fixture",
		UpdatedAt: time.Now().UTC(),
	})
}

// Conversion adds a unit conversion.
func (f *Fixture) Conversion(code, from, to, factor string) {
	_ = f.s.CreateConversion(context.Background(), &product.Conversion{
		ID:        id.New(),
		Code:      itemcode.MustNormalize(code),
		FromUnit:  product.NormalizeUnit(from),
		ToUnit:    product.NormalizeUnit(to),
		Factor:    dec(factor),
		CreatedAt: time.Now().UTC(),
	})
}

// LedgerProduct adds a product to the registry of a ledger batch.
func (f *Fixture) LedgerProduct(batchID id.ID, code, description, unit string) {
	_, _ = f.s.InsertLedgerProducts(context.Background(), []product.Product{{
		Code:        itemcode.MustNormalize(code),
		BatchID:     &batchID,
		Origin:      product.OriginLedger,
		Description: description,
		Unit:        unit,
		UpdatedAt:   time.Now().UTC(),
	}})
}

// CatalogProduct adds a secondary catalog entry.
func (f *Fixture) CatalogProduct(code, description, unit string) {
	_ = f.s.UpsertCatalogProduct(context.Background(), &product.Product{
		Code:        itemcode.MustNormalize(code),
		Origin:      product.OriginCatalog,
		Description: description,
		Unit:        unit,
		UpdatedAt:   time.Now().UTC(),
	})
}

// Demo loads a small, self-consistent period used by the memory-mode server.
func (f *Fixture) Demo() id.ID {
	p := f.Period(2024, 1)
	_ = f.s.SetActivePeriod(context.Background(), p)

	stock := f.Batch(&p, period.SourceStock, true)
	ledger := f.Batch(&p, period.SourceLedger, true)
	invoices := f.Batch(&p, period.SourceInvoice, true)

	f.Stock(stock, "1", "100", "2.50", "PARAFUSO 3MM", "UN")
	f.Stock(stock, "2", "40", "10", "CAIXA PARAFUSO 3MM", "CX")
	f.Stock(stock, "3", "12", "7.90", "ARRUELA LISA", "UN")

	doc := f.Document(ledger)
	f.Entry(ledger, doc, "", "1", "50", "125", "UN")
	f.Entry(ledger, doc, "", "3", "2", "150", "CX")
	f.Conversion("3", "CX", "UN", "50")
	f.LedgerProduct(ledger, "3", "ARRUELA LISA 1/4", "UN")

	f.Exit(invoices, "", "1", "130", "455", "PARAFUSO 3MM", "UN")
	f.Exit(invoices, "", "4", "5", "60", "PORCA SEXTAVADA", "UN")
	f.CatalogProduct("4", "PORCA SEXTAVADA M6", "UN")
	return p
}
