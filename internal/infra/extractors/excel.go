// internal/infra/extractors/excel.go
package extractors

import (
	"context"
	"fmt"
	"strings"

	"payment_recovery/internal/domain/extraction"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

// ExcelExtractor reads the first sheet of a workbook, treating the first row
// as headers and matching invoice fields by header name.
type ExcelExtractor struct {
	logger *logrus.Entry
}

func NewExcelExtractor(logger *logrus.Entry) *ExcelExtractor {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &ExcelExtractor{logger: logger}
}

func (e *ExcelExtractor) Format() extraction.FileFormat { return extraction.FormatExcel }

func (e *ExcelExtractor) Extract(ctx context.Context, path string) (*extraction.Fields, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			e.logger.WithError(cerr).Warn("Failed to close workbook")
		}
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.logger.WithFields(logrus.Fields{
		"file_path": path,
		"sheet":     sheets[0],
		"rows":      len(rows),
	}).Debug("Read Excel sheet")

	if len(rows) == 0 {
		return &extraction.Fields{}, nil
	}
	return ParseSheet(rows[0], rows[1:]), nil
}

// ParseSheet applies the header heuristics to the data rows. When several rows
// carry the same field the last one wins.
func ParseSheet(header []string, rows [][]string) *extraction.Fields {
	out := &extraction.Fields{}
	headers := make([]string, len(header))
	for i, h := range header {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
	}

	for _, row := range rows {
		for i, raw := range row {
			if i >= len(headers) {
				break
			}
			value := strings.TrimSpace(raw)
			if value == "" {
				continue
			}
			applyCell(out, headers[i], value)
		}
	}
	out.LineItems = sheetLineItems(headers, rows)
	return out
}

func has(h string, words ...string) bool {
	for _, w := range words {
		if !strings.Contains(h, w) {
			return false
		}
	}
	return true
}

func applyCell(out *extraction.Fields, h, value string) {
	switch {
	case has(h, "invoice", "number"), has(h, "invoice", "no"):
		out.InvoiceNumber = extraction.StringPtr(value)
	case has(h, "invoice", "date"):
		out.InvoiceDate = extraction.StringPtr(normalizeCellDate(value))
	case has(h, "due", "date"):
		out.DueDate = extraction.StringPtr(normalizeCellDate(value))
	case has(h, "tax"):
		if d, ok := ParseAmount(value); ok {
			out.TaxAmount = extraction.DecimalPtr(d)
		}
	case has(h, "total"):
		if d, ok := ParseAmount(value); ok {
			out.TotalAmount = extraction.DecimalPtr(d)
			out.Amount = extraction.DecimalPtr(d)
		}
	case has(h, "amount"):
		if d, ok := ParseAmount(value); ok {
			out.Amount = extraction.DecimalPtr(d)
		}
	case has(h, "currency"):
		out.Currency = extraction.StringPtr(strings.ToUpper(value))
	case has(h, "customer", "name"):
		out.CustomerName = extraction.StringPtr(value)
	case has(h, "customer", "email"):
		out.CustomerEmail = extraction.StringPtr(value)
	case has(h, "customer", "phone"):
		out.CustomerPhone = extraction.StringPtr(value)
	}
}

// sheetLineItems collects rows that have a description or item cell.
func sheetLineItems(headers []string, rows [][]string) []extraction.LineItem {
	keys := make([]string, len(headers))
	hasDescription := false
	for i, h := range headers {
		switch {
		case strings.Contains(h, "description"), strings.Contains(h, "item"):
			keys[i] = "description"
			hasDescription = true
		case strings.Contains(h, "quantity"), strings.Contains(h, "qty"):
			keys[i] = "quantity"
		case strings.Contains(h, "price"), strings.Contains(h, "rate"):
			keys[i] = "price"
		case strings.Contains(h, "amount"), strings.Contains(h, "total"):
			keys[i] = "amount"
		}
	}
	if !hasDescription {
		return nil
	}

	var items []extraction.LineItem
	for _, row := range rows {
		item := extraction.LineItem{}
		for i, raw := range row {
			if i >= len(keys) || keys[i] == "" {
				continue
			}
			if _, taken := item[keys[i]]; taken {
				continue
			}
			if v := strings.TrimSpace(raw); v != "" {
				item[keys[i]] = v
			}
		}
		if item["description"] != "" {
			items = append(items, item)
		}
	}
	return items
}
