// Package xlsx renders consolidation results as Excel workbooks.
package xlsx

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"estoque/internal/domain/consolidation"
)

// ContentType is the MIME type of the produced workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	rowsSheet   = "Consolidacao"
	issuesSheet = "Ocorrencias"
)

var rowHeadings = []string{
	"Codigo", "Descricao", "Unidade",
	"Qtd Inicial", "Valor Inicial",
	"Qtd Entradas", "Valor Entradas",
	"Qtd Saidas", "Valor Saidas",
	"Qtd Teorica", "Custo Medio",
	"Recebido", "Cedido",
	"Qtd Final", "Valor Final",
	"Somente Saida",
}

var issueHeadings = []string{"Tipo", "Codigo", "Mensagem"}

// Filename returns the download name of a consolidation workbook.
func Filename(res *consolidation.Result) string {
	return fmt.Sprintf("consolidacao-%s.xlsx", res.PeriodID)
}

// WriteConsolidation writes res as a workbook with one sheet of rows (plus a
// totals line) and one sheet of issues.
func WriteConsolidation(w io.Writer, res *consolidation.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", rowsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(issuesSheet); err != nil {
		return fmt.Errorf("create issues sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	if err := writeHeader(f, rowsSheet, rowHeadings, bold); err != nil {
		return err
	}
	for i, r := range res.Rows {
		if err := setRow(f, rowsSheet, i+2, rowValues(r)); err != nil {
			return err
		}
	}

	totalsAt := len(res.Rows) + 2
	t := res.Totals
	totals := []any{
		"TOTAL", "", "",
		nil, num(t.InitialValue),
		nil, num(t.EntriesValue),
		nil, num(t.ExitsValue),
		nil, nil,
		num(t.Received), num(t.Given),
		nil, num(t.FinalValue),
	}
	if err := setRow(f, rowsSheet, totalsAt, totals); err != nil {
		return err
	}
	if err := f.SetRowStyle(rowsSheet, totalsAt, totalsAt, bold); err != nil {
		return fmt.Errorf("style totals: %w", err)
	}

	if err := writeHeader(f, issuesSheet, issueHeadings, bold); err != nil {
		return err
	}
	for i, is := range res.Issues {
		if err := setRow(f, issuesSheet, i+2, []any{string(is.Kind), is.Code, is.Message}); err != nil {
			return err
		}
	}

	if err := f.SetPanes(rowsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string, headings []string, style int) error {
	values := make([]any, len(headings))
	for i, h := range headings {
		values[i] = h
	}
	if err := setRow(f, sheet, 1, values); err != nil {
		return err
	}
	if err := f.SetRowStyle(sheet, 1, 1, style); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func rowValues(r consolidation.Row) []any {
	var avg any
	if r.AverageCost.Valid {
		avg = num(r.AverageCost.Decimal)
	}
	exitOnly := ""
	if r.ExitOnly {
		exitOnly = "SIM"
	}
	return []any{
		r.Code.String(), r.Description, r.Unit,
		num(r.InitialQty), num(r.InitialValue),
		num(r.EntriesQty), num(r.EntriesValue),
		num(r.ExitsQty), num(r.ExitsValue),
		num(r.TheoreticalQty), avg,
		num(r.Received), num(r.Given),
		num(r.FinalQty), num(r.FinalValue),
		exitOnly,
	}
}

// num converts to float64 for the spreadsheet only; computation stays decimal.
func num(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}
