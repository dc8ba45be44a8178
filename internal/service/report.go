package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const reportSheet = "Cab Expenses"

var reportHeader = []any{"Cab Number", "Trips", "Fuel", "FastTag", "Tyre Puncture", "Other Problems", "Total Expense"}

// CabExpenseReport renders ComputeCabExpenses as an xlsx workbook with one
// row per cab.
func (s *AggregatorService) CabExpenseReport(ctx context.Context) ([]byte, error) {
	rows, err := s.ComputeCabExpenses(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.log.WithError(err).Warn("failed to close report workbook")
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), reportSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(reportSheet, "A1", &reportHeader); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := []any{
			r.CabNumber,
			r.TripCount,
			r.Breakdown.Fuel,
			r.Breakdown.FastTag,
			r.Breakdown.TyrePuncture,
			r.Breakdown.OtherProblems,
			r.TotalExpense,
		}
		if err := f.SetSheetRow(reportSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}
