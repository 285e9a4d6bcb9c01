// Package spreadsheet 扁平交易记录与 CSV / XLSX 文件之间的转换
package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"fintrack/ledger"

	"github.com/xuri/excelize/v2"
)

// 支持的文件格式
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

const sheetName = "交易记录"

var utf8BOM = []byte("\xEF\xBB\xBF")

// ErrUnsupportedFormat 不支持的文件格式
var ErrUnsupportedFormat = errors.New("不支持的文件格式，仅支持 csv 和 xlsx")

// 表头别名，统一转成小写比较
var headerAliases = map[string]int{
	"date": 0, "日期": 0,
	"description": 1, "描述": 1, "备注": 1,
	"amount": 2, "金额": 2,
	"type": 3, "类型": 3,
	"category": 4, "类别": 4,
	"account": 5, "账户": 5,
}

// FormatOf 根据文件名判断格式
func FormatOf(filename string) (string, error) {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), ".")) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", ErrUnsupportedFormat
	}
}

// ContentType 下载时使用的 MIME 类型
func ContentType(format string) string {
	if format == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Read 按格式读取导入文件
func Read(format string, r io.Reader) ([]ledger.ImportRow, error) {
	switch format {
	case FormatCSV:
		return ReadCSV(r)
	case FormatXLSX:
		return ReadXLSX(r)
	default:
		return nil, ErrUnsupportedFormat
	}
}

// Write 按格式写出导出文件
func Write(format string, w io.Writer, records []ledger.Record) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, records)
	case FormatXLSX:
		return WriteXLSX(w, records)
	default:
		return ErrUnsupportedFormat
	}
}

// ReadCSV 读取 CSV，第一行为表头，兼容带 BOM 的文件
func ReadCSV(r io.Reader) ([]ledger.ImportRow, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("读取文件失败: %w", err)
	}
	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("解析 CSV 失败: %w", err)
	}
	return toImportRows(rows)
}

// ReadXLSX 读取第一个工作表，第一行为表头
func ReadXLSX(r io.Reader) ([]ledger.ImportRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("解析 Excel 失败: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("Excel 文件中没有工作表")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("读取工作表失败: %w", err)
	}
	return toImportRows(rows)
}

func toImportRows(rows [][]string) ([]ledger.ImportRow, error) {
	if len(rows) == 0 {
		return nil, errors.New("文件为空")
	}
	columns, err := mapHeader(rows[0])
	if err != nil {
		return nil, err
	}

	var out []ledger.ImportRow
	for i, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		cell := func(field int) string {
			idx := columns[field]
			if idx < len(row) {
				return strings.TrimSpace(row[idx])
			}
			return ""
		}
		out = append(out, ledger.ImportRow{
			Line:        i + 2,
			Date:        cell(0),
			Description: cell(1),
			Amount:      cell(2),
			Type:        cell(3),
			Category:    cell(4),
			Account:     cell(5),
		})
	}
	return out, nil
}

// mapHeader 返回每个字段所在的列号
func mapHeader(header []string) ([]int, error) {
	columns := []int{-1, -1, -1, -1, -1, -1}
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if field, ok := headerAliases[key]; ok && columns[field] < 0 {
			columns[field] = i
		}
	}
	var missing []string
	for field, idx := range columns {
		if idx < 0 {
			missing = append(missing, ledger.RecordHeader[field])
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("缺少表头: %s", strings.Join(missing, ", "))
	}
	return columns, nil
}

func blankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// WriteCSV 写出 CSV，带 BOM 以便 Excel 正确显示中文
func WriteCSV(w io.Writer, records []ledger.Record) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}
	writer := csv.NewWriter(w)
	if err := writer.Write(ledger.RecordHeader); err != nil {
		return err
	}
	for _, rec := range records {
		if err := writer.Write(rec.Fields()); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteXLSX 写出 Excel：第一个工作表为记录，第二个为收支合计
func WriteXLSX(w io.Writer, records []ledger.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorder(),
	})
	if err != nil {
		return err
	}
	dataStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Vertical: "center"},
		Border:    thinBorder(),
	})
	if err != nil {
		return err
	}

	widths := []float64{14, 30, 12, 10, 16, 16}
	for i, width := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheetName, col, col, width); err != nil {
			return err
		}
	}

	for i, header := range ledger.RecordHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}
	f.SetCellStyle(sheetName, "A1", "F1", headerStyle)

	var income, expense float64
	for i, rec := range records {
		row := i + 2
		amount, _ := rec.Amount.Float64()
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), rec.Date.Format("2006-01-02"))
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), rec.Description)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), amount)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), rec.Type)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), rec.Category)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), rec.Account)
		f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("F%d", row), dataStyle)
		if rec.Type == "INCOME" {
			income += amount
		} else {
			expense += amount
		}
	}

	const summary = "合计"
	if _, err := f.NewSheet(summary); err != nil {
		return err
	}
	f.SetCellValue(summary, "A1", "记录数")
	f.SetCellValue(summary, "B1", len(records))
	f.SetCellValue(summary, "A2", "收入")
	f.SetCellValue(summary, "B2", income)
	f.SetCellValue(summary, "A3", "支出")
	f.SetCellValue(summary, "B3", expense)
	f.SetCellStyle(summary, "A1", "A3", headerStyle)

	f.SetActiveSheet(0)
	return f.Write(w)
}

func thinBorder() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
	}
}
