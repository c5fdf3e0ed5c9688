package subtitle

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/example/legendas/pkg/models"
)

var exportHeader = []string{"ID", "Portuguese", "English", "Context", "Start (ms)", "End (ms)"}

// WritePhrasesCSV writes phrases as CSV with a header row.
func WritePhrasesCSV(w io.Writer, phrases []models.Phrase) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, p := range phrases {
		record := []string{
			strconv.FormatInt(p.ID, 10),
			p.Portuguese,
			p.English,
			p.Context,
			strconv.FormatInt(p.StartMs, 10),
			strconv.FormatInt(p.EndMs, 10),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WritePhrasesXLSX writes phrases as an Excel workbook with a single
// "Phrases" sheet.
func WritePhrasesXLSX(w io.Writer, phrases []models.Phrase) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Phrases"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to remove default sheet: %w", err)
	}

	for col, title := range exportHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return fmt.Errorf("failed to write header cell: %w", err)
		}
	}

	for row, p := range phrases {
		values := []interface{}{p.ID, p.Portuguese, p.English, p.Context, p.StartMs, p.EndMs}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("failed to write cell: %w", err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
