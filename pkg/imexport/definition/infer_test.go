package definition

import (
	"bytes"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/gui-xie/import-export/pkg/imexport/models"
)

func workbookBytes(t *testing.T, fill func(f *excelize.File, sheet string)) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	fill(f, "Sheet1")
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("Failed to write test workbook: %v", err)
	}
	return buf.Bytes()
}

func TestInfer(t *testing.T) {
	buf := workbookBytes(t, func(f *excelize.File, sheet string) {
		f.SetCellValue(sheet, "B2", "Orders")
		f.SetCellValue(sheet, "B3", "Order ID")
		f.SetCellValue(sheet, "C3", "Placed On")
		f.SetCellValue(sheet, "D3", "Customer")
		f.SetCellValue(sheet, "E3", "Customer")
		f.SetCellValue(sheet, "B4", 100)
		f.SetCellValue(sheet, "C4", "2024-01-02")
		f.SetCellValue(sheet, "D4", "Ann")
		f.SetCellValue(sheet, "B5", 200.5)
		f.SetCellValue(sheet, "C5", "2024-02-03")
		f.SetCellValue(sheet, "D5", "Bob")
		f.SetCellValue(sheet, "E5", 7)
	})

	def, err := Infer(buf, DefaultInferOptions())
	if err != nil {
		t.Fatalf("Infer() error = %v", err)
	}

	if def.Name != "Sheet1" || def.SheetName != "Sheet1" {
		t.Errorf("Expected Sheet1/Sheet1, got %s/%s", def.Name, def.SheetName)
	}
	if def.Title != "Orders" {
		t.Errorf("Expected title 'Orders', got %q", def.Title)
	}
	if def.Dx != 1 || def.Dy != 1 {
		t.Errorf("Expected offset (1, 1), got (%d, %d)", def.Dx, def.Dy)
	}

	want := []struct {
		key      string
		name     string
		dataType models.DataType
	}{
		{"order_id", "Order ID", models.DataTypeNumber},
		{"placed_on", "Placed On", models.DataTypeDate},
		{"customer", "Customer", models.DataTypeText},
		{"customer_2", "Customer", models.DataTypeNumber},
	}
	if len(def.Columns) != len(want) {
		t.Fatalf("Expected %d columns, got %d", len(want), len(def.Columns))
	}
	for i, w := range want {
		c := def.Columns[i]
		if c.Key != w.key || c.Name != w.name || c.DataType != w.dataType {
			t.Errorf("Column %d: expected %+v, got key=%q name=%q type=%q", i, w, c.Key, c.Name, c.DataType)
		}
	}
}

func TestInferNoTitle(t *testing.T) {
	buf := workbookBytes(t, func(f *excelize.File, sheet string) {
		f.SetCellValue(sheet, "A1", "Name")
		f.SetCellValue(sheet, "B1", "!!")
		f.SetCellValue(sheet, "A2", "Ann")
	})

	opts := DefaultInferOptions()
	opts.Name = "people"
	def, err := Infer(buf, opts)
	if err != nil {
		t.Fatalf("Infer() error = %v", err)
	}
	if def.Name != "people" || def.Title != "" {
		t.Errorf("Expected name people without title, got %q / %q", def.Name, def.Title)
	}
	if def.Columns[1].Key != "col_b" {
		t.Errorf("Expected fallback key col_b, got %q", def.Columns[1].Key)
	}
	if def.Columns[1].DataType != models.DataTypeText {
		t.Errorf("Expected text for empty column, got %q", def.Columns[1].DataType)
	}
}

func TestInferZeroOptions(t *testing.T) {
	buf := workbookBytes(t, func(f *excelize.File, sheet string) {
		f.SetCellValue(sheet, "A1", "Name")
		f.SetCellValue(sheet, "B1", "Score")
		f.SetCellValue(sheet, "C1", "Flag")
		f.SetCellValue(sheet, "A2", "Ann")
		f.SetCellValue(sheet, "B2", 10)
		f.SetCellValue(sheet, "C2", "inf")
		f.SetCellValue(sheet, "A3", "Bob")
		f.SetCellValue(sheet, "B3", 12.5)
		f.SetCellValue(sheet, "C3", "nan")
	})

	def, err := Infer(buf, InferOptions{})
	if err != nil {
		t.Fatalf("Infer() error = %v", err)
	}
	if def.Name != "Sheet1" {
		t.Errorf("Expected name Sheet1, got %q", def.Name)
	}
	if len(def.Columns) != 3 {
		t.Fatalf("Expected 3 columns, got %d", len(def.Columns))
	}
	if def.Columns[1].DataType != models.DataTypeNumber {
		t.Errorf("Expected number for score, got %q", def.Columns[1].DataType)
	}
	if def.Columns[2].DataType != models.DataTypeText {
		t.Errorf("Expected text for flag, got %q", def.Columns[2].DataType)
	}
}

func TestInferErrors(t *testing.T) {
	empty := workbookBytes(t, func(f *excelize.File, sheet string) {})
	if _, err := Infer(empty, DefaultInferOptions()); !errors.Is(err, ErrNoTable) {
		t.Errorf("Expected ErrNoTable, got %v", err)
	}

	if _, err := Infer([]byte("not a workbook"), DefaultInferOptions()); err == nil {
		t.Error("Expected error for invalid workbook")
	}

	opts := DefaultInferOptions()
	opts.SheetName = "Missing"
	if _, err := Infer(empty, opts); err == nil {
		t.Error("Expected error for missing sheet")
	}
}

func TestKeyFromHeader(t *testing.T) {
	tests := []struct {
		header string
		col    int
		want   string
	}{
		{"Order ID", 0, "order_id"},
		{"  Unit-Price ($) ", 0, "unit_price"},
		{"", 2, "col_c"},
		{"数量", 0, "数量"},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			if got := keyFromHeader(tt.header, tt.col); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}
