package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"stockroom/internal/models"
)

// Header is the column row shared by every export format.
var Header = []string{"ID", "Name", "Category", "SKU", "Price", "Quantity"}

const sheetName = "Products"

func record(p models.ProductRow) []string {
	return []string{
		strconv.FormatInt(p.ID, 10),
		p.Name,
		p.CategoryName(),
		p.SKU,
		strconv.FormatFloat(p.Price, 'f', -1, 64),
		strconv.Itoa(p.Quantity),
	}
}

// WriteCSV writes the header row and one row per product.
func WriteCSV(w io.Writer, rows []models.ProductRow) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, p := range rows {
		if err := writer.Write(record(p)); err != nil {
			return fmt.Errorf("write csv row %d: %w", p.ID, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteXLSX writes the same columns as WriteCSV to a single-sheet workbook.
// Low-stock rows are highlighted.
func WriteXLSX(w io.Writer, rows []models.ProductRow) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("delete default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D3D3D3"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	lowStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#F8D7DA"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create low stock style: %w", err)
	}

	if err := f.SetSheetRow(sheetName, "A1", &Header); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(Header), 1)
	if err := f.SetCellStyle(sheetName, "A1", last, headerStyle); err != nil {
		return err
	}

	for i, p := range rows {
		rowNum := i + 2
		start, _ := excelize.CoordinatesToCellName(1, rowNum)
		values := []interface{}{p.ID, p.Name, p.CategoryName(), p.SKU, p.Price, p.Quantity}
		if err := f.SetSheetRow(sheetName, start, &values); err != nil {
			return err
		}
		if p.LowStock {
			end, _ := excelize.CoordinatesToCellName(len(Header), rowNum)
			if err := f.SetCellStyle(sheetName, start, end, lowStyle); err != nil {
				return err
			}
		}
	}

	if err := f.SetColWidth(sheetName, "A", "F", 15); err != nil {
		return err
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
