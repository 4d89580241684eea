package reporting

import (
	"fmt"
	"os"
	"path/filepath"

	"cryptosim/internal/models"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

const (
	tradesSheet    = "Trades"
	portfolioSheet = "Portfolio"
)

// ExportTrades пишет журнал сделок и текущие позиции в xlsx.
func ExportTrades(path string, trades []models.Trade, v models.Valuation, positions []models.Position) (err error) {
	defer func() {
		if err != nil {
			err = errors.Wrapf(err, "export %s", path)
		}
	}()

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	fx := excelize.NewFile()
	defer fx.Close()

	if err := fx.SetSheetName(fx.GetSheetName(0), tradesSheet); err != nil {
		return err
	}
	if _, err := fx.NewSheet(portfolioSheet); err != nil {
		return err
	}

	header, err := fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"2F4F4F"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	if err := writeRows(fx, tradesSheet, header,
		[]any{"Time", "Type", "Asset", "Symbol", "Amount", "Price", "Total", "ID"},
		tradeRows(trades)); err != nil {
		return err
	}
	if err := writeRows(fx, portfolioSheet, header,
		[]any{"Asset", "Symbol", "Amount", "Avg price", "Updated"},
		positionRows(positions, v)); err != nil {
		return err
	}

	return fx.SaveAs(path)
}

func tradeRows(trades []models.Trade) [][]any {
	rows := make([][]any, 0, len(trades))
	for _, t := range trades {
		rows = append(rows, []any{
			t.Timestamp.Format("2006-01-02 15:04:05"),
			string(t.Type),
			t.AssetID,
			t.Symbol,
			t.Amount,
			t.Price,
			t.Total,
			t.ID,
		})
	}
	return rows
}

func positionRows(positions []models.Position, v models.Valuation) [][]any {
	rows := make([][]any, 0, len(positions)+4)
	for _, p := range positions {
		rows = append(rows, []any{p.AssetID, p.Symbol, p.Amount, p.AverageBuyPrice, p.LastUpdated.Format("2006-01-02 15:04:05")})
	}
	rows = append(rows,
		[]any{},
		[]any{"Credits", v.Credits},
		[]any{"Holdings value", v.TotalValue},
		[]any{"Unrealized P&L", v.UnrealizedProfit},
	)
	return rows
}

func writeRows(fx *excelize.File, sheet string, headerStyle int, header []any, rows [][]any) error {
	if err := fx.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := fx.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return err
	}
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		row := row
		if err := fx.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return err
		}
	}
	return nil
}
