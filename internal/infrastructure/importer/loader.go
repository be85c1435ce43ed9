package importer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"estoque/internal/core/id"
	"estoque/internal/core/itemcode"
	"estoque/internal/core/tx"
	"estoque/internal/domain/catalogs/product"
	"estoque/internal/domain/period"
	"estoque/internal/domain/records"
	"estoque/pkg/logger"
)

// Summary counts what one bundle import wrote.
type Summary struct {
	Batches      int   `json:"batches"`
	PeriodsAdded int   `json:"periodsAdded"`
	StockLines   int64 `json:"stockLines"`
	Documents    int64 `json:"documents"`
	EntryLines   int64 `json:"entryLines"`
	ExitLines    int64 `json:"exitLines"`
	Products     int64 `json:"products"`
	// Skipped counts lines dropped because their code could not be normalized.
	Skipped int `json:"skipped"`
}

// Loader writes bundles through the domain services and store interfaces.
type Loader struct {
	periods   *period.Service
	records   records.Importer
	products  product.Repository
	txManager tx.Manager
}

// NewLoader creates a loader.
func NewLoader(periods *period.Service, rec records.Importer, products product.Repository, txManager tx.Manager) *Loader {
	return &Loader{
		periods:   periods,
		records:   rec,
		products:  products,
		txManager: txManager,
	}
}

// Load imports every batch of b in a single transaction.
func (l *Loader) Load(ctx context.Context, b *Bundle) (*Summary, error) {
	sum := &Summary{}

	err := l.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		periods, err := l.existingPeriods(ctx)
		if err != nil {
			return err
		}
		for i := range b.Batches {
			if err := l.loadBatch(ctx, &b.Batches[i], periods, sum); err != nil {
				return fmt.Errorf("batch %d (%s): %w", i, b.Batches[i].Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "bundle imported",
		"batches", sum.Batches,
		"stock_lines", sum.StockLines,
		"entry_lines", sum.EntryLines,
		"exit_lines", sum.ExitLines,
		"skipped", sum.Skipped,
	)
	return sum, nil
}

func (l *Loader) existingPeriods(ctx context.Context) (map[string]id.ID, error) {
	list, err := l.periods.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list periods: %w", err)
	}
	out := make(map[string]id.ID, len(list))
	for _, p := range list {
		out[fmt.Sprintf("%04d-%02d", p.Year, p.Month)] = p.ID
	}
	return out, nil
}

// periodFor returns the period of key, creating it when missing.
func (l *Loader) periodFor(ctx context.Context, key string, known map[string]id.ID, sum *Summary) (*id.ID, error) {
	if key == "" {
		return nil, nil
	}
	if pid, ok := known[key]; ok {
		return &pid, nil
	}
	year, month, err := ParsePeriod(key)
	if err != nil {
		return nil, err
	}
	p, err := l.periods.CreatePeriod(ctx, year, month, "")
	if err != nil {
		return nil, err
	}
	known[key] = p.ID
	sum.PeriodsAdded++
	return &p.ID, nil
}

func (l *Loader) loadBatch(ctx context.Context, in *BatchBundle, periods map[string]id.ID, sum *Summary) error {
	periodID, err := l.periodFor(ctx, in.Period, periods, sum)
	if err != nil {
		return err
	}

	batch, err := l.periods.RegisterBatch(ctx, period.RegisterBatchInput{
		PeriodID: periodID,
		Type:     in.SourceType,
		Name:     in.Name,
	})
	if err != nil {
		return err
	}
	sum.Batches++

	n := &normalizer{ctx: ctx, batch: batch.ID}

	stocked, err := l.records.InsertStockLines(ctx, n.stock(in.StockLines))
	if err != nil {
		return fmt.Errorf("insert stock lines: %w", err)
	}
	sum.StockLines += stocked

	docs, keys := n.documents(in.Documents)
	documented, err := l.records.InsertDocuments(ctx, docs)
	if err != nil {
		return fmt.Errorf("insert documents: %w", err)
	}
	sum.Documents += documented

	entered, err := l.records.InsertEntryLines(ctx, n.entries(in.EntryLines, keys))
	if err != nil {
		return fmt.Errorf("insert entry lines: %w", err)
	}
	sum.EntryLines += entered

	exited, err := l.records.InsertExitLines(ctx, n.exits(in.ExitLines))
	if err != nil {
		return fmt.Errorf("insert exit lines: %w", err)
	}
	sum.ExitLines += exited

	added, err := l.products.InsertLedgerProducts(ctx, n.products(in.Products))
	if err != nil {
		return fmt.Errorf("insert products: %w", err)
	}
	sum.Products += added
	sum.Skipped += n.skipped

	if in.Base {
		if _, err := l.periods.SetBase(ctx, batch.ID, true); err != nil {
			return err
		}
	}
	return nil
}

// normalizer converts bundle lines of one batch into records. Lines without
// an id get a positional one prefixed with the batch id, so generated ids
// never repeat across batches.
type normalizer struct {
	ctx     context.Context
	batch   id.ID
	skipped int
}

func (n *normalizer) lineID(kind, raw string, i int) string {
	if s := strings.TrimSpace(raw); s != "" {
		return s
	}
	return fmt.Sprintf("%s-%s-%06d", kind, n.batch, i+1)
}

func (n *normalizer) code(kind, lineID, raw string) (itemcode.Code, bool) {
	c, err := itemcode.Normalize(raw)
	if err != nil {
		n.skipped++
		logger.Warn(n.ctx, "line skipped: invalid item code",
			"batch_id", n.batch, "kind", kind, "line_id", lineID, "code", raw)
		return "", false
	}
	return c, true
}

func (n *normalizer) stock(in []StockLine) []records.InitialStockLine {
	out := make([]records.InitialStockLine, 0, len(in))
	for i, l := range in {
		lineID := n.lineID("S", l.ID, i)
		code, ok := n.code("stock", lineID, l.Code)
		if !ok {
			continue
		}
		out = append(out, records.InitialStockLine{
			ID:          lineID,
			BatchID:     n.batch,
			Code:        code,
			Description: strings.TrimSpace(l.Description),
			Unit:        product.NormalizeUnit(l.Unit),
			Quantity:    l.Quantity.Decimal,
			UnitCost:    l.UnitCost.Decimal,
		})
	}
	return out
}

func (n *normalizer) documents(in []DocumentEntry) ([]records.Document, map[string]id.ID) {
	out := make([]records.Document, 0, len(in))
	keys := make(map[string]id.ID, len(in))
	for _, d := range in {
		docID := id.New()
		keys[d.Key] = docID
		issued := d.IssuedAt
		if issued.IsZero() {
			issued = time.Now().UTC()
		}
		out = append(out, records.Document{
			ID:       docID,
			BatchID:  n.batch,
			Number:   strings.TrimSpace(d.Number),
			IssuedAt: issued,
		})
	}
	return out, keys
}

// entries keeps lines whose document key is unknown; they are stored with a
// nil document id and excluded by the aggregation as orphans.
func (n *normalizer) entries(in []EntryLine, docs map[string]id.ID) []records.EntryLine {
	out := make([]records.EntryLine, 0, len(in))
	for i, l := range in {
		lineID := n.lineID("E", l.ID, i)
		code, ok := n.code("entry", lineID, l.Code)
		if !ok {
			continue
		}
		docID, found := docs[l.Document]
		if !found {
			logger.Warn(n.ctx, "entry line references an unknown document",
				"batch_id", n.batch, "line_id", lineID, "document", l.Document)
		}
		out = append(out, records.EntryLine{
			ID:          lineID,
			BatchID:     n.batch,
			DocumentID:  docID,
			Code:        code,
			Description: strings.TrimSpace(l.Description),
			Unit:        product.NormalizeUnit(l.Unit),
			Quantity:    l.Quantity.Decimal,
			ValueTotal:  l.ValueTotal.Decimal,
		})
	}
	return out
}

func (n *normalizer) exits(in []ExitLine) []records.ExitLine {
	out := make([]records.ExitLine, 0, len(in))
	for i, l := range in {
		lineID := n.lineID("X", l.ID, i)
		code, ok := n.code("exit", lineID, l.Code)
		if !ok {
			continue
		}
		out = append(out, records.ExitLine{
			ID:          lineID,
			BatchID:     n.batch,
			Code:        code,
			Description: strings.TrimSpace(l.Description),
			Unit:        product.NormalizeUnit(l.Unit),
			Quantity:    l.Quantity.Decimal,
			ValueTotal:  l.ValueTotal.Decimal,
		})
	}
	return out
}

func (n *normalizer) products(in []Product) []product.Product {
	out := make([]product.Product, 0, len(in))
	now := time.Now().UTC()
	for i, p := range in {
		code, ok := n.code("product", fmt.Sprintf("P-%06d", i+1), p.Code)
		if !ok {
			continue
		}
		batchID := n.batch
		out = append(out, product.Product{
			Code:        code,
			BatchID:     &batchID,
			Origin:      product.OriginLedger,
			Description: strings.TrimSpace(p.Description),
			Unit:        product.NormalizeUnit(p.Unit),
			UpdatedAt:   now,
		})
	}
	return out
}
