package subtitle

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/example/legendas/pkg/models"
)

func TestWritePhrasesCSV(t *testing.T) {
	phrases := []models.Phrase{
		{ID: 1, Portuguese: "tudo bem", English: "all good", Context: "Olá, tudo bem?", StartMs: 1000, EndMs: 3500},
		{ID: 2, Portuguese: "até já", English: "see you soon", StartMs: 7250, EndMs: 9000},
	}

	var buf bytes.Buffer
	if err := WritePhrasesCSV(&buf, phrases); err != nil {
		t.Fatalf("WritePhrasesCSV: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reading back CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(records))
	}
	if records[0][1] != "Portuguese" {
		t.Errorf("header = %v", records[0])
	}
	if records[1][1] != "tudo bem" || records[1][4] != "1000" {
		t.Errorf("row 1 = %v", records[1])
	}
	if records[2][2] != "see you soon" {
		t.Errorf("row 2 = %v", records[2])
	}
}

func TestWritePhrasesXLSX(t *testing.T) {
	phrases := []models.Phrase{
		{ID: 1, Portuguese: "obrigado", English: "thank you", StartMs: 0, EndMs: 500},
	}
	var buf bytes.Buffer
	if err := WritePhrasesXLSX(&buf, phrases); err != nil {
		t.Fatalf("WritePhrasesXLSX: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("workbook is empty")
	}
}
