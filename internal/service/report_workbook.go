package service

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	executionSheet = "Ejecucion"
	monthlySheet   = "Mensual"
)

var (
	executionHeader = []interface{}{"OI", "Nombre", "Presupuesto USD", "Real USD", "Real GTQ", "% Ejecución", "Disponible USD"}
	monthlyHeader   = []interface{}{"Mes", "Presupuesto USD", "Real USD"}
)

// BudgetExecutionWorkbook renders the dashboard for the filters as an XLSX
// workbook: one row per OI plus totals, and a monthly sheet.
func (s *ReportService) BudgetExecutionWorkbook(ctx context.Context, filters DashboardFilters) ([]byte, error) {
	dashboard, err := s.dashboard.Dashboard(ctx, filters)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), executionSheet); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}
	if _, err := f.NewSheet(monthlySheet); err != nil {
		return nil, fmt.Errorf("create monthly sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#1F4E78"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	totalStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create total style: %w", err)
	}

	if err := f.SetSheetRow(executionSheet, "A1", &executionHeader); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	if err := f.SetCellStyle(executionSheet, "A1", "G1", headerStyle); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}

	row := 2
	for _, r := range dashboard.Rows {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		values := []interface{}{
			r.OICode,
			r.OIName,
			r.BudgetUSD.InexactFloat64(),
			r.ActualUSD.InexactFloat64(),
			r.ActualGTQ.InexactFloat64(),
			r.ExecutionPct.InexactFloat64(),
			r.AvailableUSD.InexactFloat64(),
		}
		if err := f.SetSheetRow(executionSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", row, err)
		}
		row++
	}

	t := dashboard.Totals
	totalCell, _ := excelize.CoordinatesToCellName(1, row)
	totals := []interface{}{
		"TOTAL",
		"",
		t.BudgetUSD.InexactFloat64(),
		t.ActualUSD.InexactFloat64(),
		t.ActualGTQ.InexactFloat64(),
		t.ExecutionPct.InexactFloat64(),
		t.AvailableUSD.InexactFloat64(),
	}
	if err := f.SetSheetRow(executionSheet, totalCell, &totals); err != nil {
		return nil, fmt.Errorf("write totals: %w", err)
	}
	lastCell, _ := excelize.CoordinatesToCellName(len(totals), row)
	if err := f.SetCellStyle(executionSheet, totalCell, lastCell, totalStyle); err != nil {
		return nil, fmt.Errorf("style totals: %w", err)
	}
	if err := f.SetColWidth(executionSheet, "A", "A", 14); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(executionSheet, "B", "B", 36); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(executionSheet, "C", "G", 16); err != nil {
		return nil, err
	}

	if err := f.SetSheetRow(monthlySheet, "A1", &monthlyHeader); err != nil {
		return nil, fmt.Errorf("write monthly header: %w", err)
	}
	if err := f.SetCellStyle(monthlySheet, "A1", "C1", headerStyle); err != nil {
		return nil, fmt.Errorf("style monthly header: %w", err)
	}
	for i, m := range dashboard.Monthly {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := []interface{}{m.Month, m.BudgetUSD.InexactFloat64(), m.ActualUSD.InexactFloat64()}
		if err := f.SetSheetRow(monthlySheet, cell, &values); err != nil {
			return nil, fmt.Errorf("write month %d: %w", m.Month, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
