package export

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/unlockify/contentgen/pkg/models"
)

// ExcelContentType is the response content type for workbook downloads.
const ExcelContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// HistoryWorkbook renders the user's generation history as an Excel workbook
// for the history export download.
func HistoryWorkbook(items []models.HistoryItem) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "History"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}

	headers := []string{
		"ID", "Date", "Feature", "Business", "Language", "Topic", "Content",
	}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for rowIdx, item := range items {
		row := rowIdx + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), item.ID)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), item.Timestamp.Format("2006-01-02 15:04"))
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), string(item.Feature))
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), item.Input.BusinessName)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), item.Input.Language)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), item.Input.OfferDetails)
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), contentSummary(item.Output))
	}

	for i := range headers {
		col := string(rune('A' + i))
		width := 18.0
		if col == "G" {
			width = 80.0
		}
		f.SetColWidth(sheetName, col, col, width)
	}

	f.SetActiveSheet(index)

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf, nil
}

// contentSummary flattens the generated payload into one spreadsheet cell.
func contentSummary(out models.ResponseEnvelope) string {
	if out.IsError() {
		return fmt.Sprintf("[%s] %s", out.Code, out.Message)
	}
	data, err := json.MarshalIndent(out.Data, "", "  ")
	if err != nil {
		return ""
	}
	const cellLimit = 8000
	if len(data) > cellLimit {
		data = data[:cellLimit]
	}
	return string(data)
}
