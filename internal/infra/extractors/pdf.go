// internal/infra/extractors/pdf.go
package extractors

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"payment_recovery/internal/domain/extraction"

	"github.com/sirupsen/logrus"
)

const noTextNote = "No extractable text found in PDF"

// PDFExtractor reads the text layer with pdftotext and scrapes common invoice
// phrasing out of it.
type PDFExtractor struct {
	bin    string
	runner Runner
	logger *logrus.Entry
}

func NewPDFExtractor(bin string, runner Runner, logger *logrus.Entry) *PDFExtractor {
	if bin == "" {
		bin = "pdftotext"
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	if runner == nil {
		runner = ExecRunner{Logger: logger}
	}
	return &PDFExtractor{bin: bin, runner: runner, logger: logger}
}

func (e *PDFExtractor) Format() extraction.FileFormat { return extraction.FormatPDF }

func (e *PDFExtractor) Extract(ctx context.Context, path string) (*extraction.Fields, error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.bin, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		if msg := strings.TrimSpace(string(errb)); msg != "" {
			return nil, fmt.Errorf("pdftotext: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("pdftotext: %w", err)
	}

	text := string(out)
	e.logger.WithFields(logrus.Fields{
		"file_path": path,
		"chars":     len(text),
		"pages":     1 + strings.Count(text, "\f"),
	}).Debug("Extracted PDF text")

	if strings.TrimSpace(text) == "" {
		return &extraction.Fields{Notes: extraction.StringPtr(noTextNote)}, nil
	}
	return ParseInvoiceText(text), nil
}

const datePattern = `(\d{4}-\d{2}-\d{2}|\d{1,2}[/-]\d{1,2}[/-]\d{2,4}|[A-Za-z]{3,9}\.? \d{1,2},? \d{4})`

var (
	invoiceNumberPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)invoice\s+(?:number|no\.?)\s*[:#]?[ \t]*([A-Z0-9][A-Z0-9\-/]*)`),
		regexp.MustCompile(`(?i)invoice\s*#[ \t]*:?[ \t]*([A-Z0-9][A-Z0-9\-/]*)`),
		regexp.MustCompile(`(?i)\binv(?:oice)?\s*[:#][ \t]*([A-Z0-9][A-Z0-9\-/]*)`),
		regexp.MustCompile(`(?i)\binvoice\s+([A-Z]*\d[A-Z0-9\-/]*)`),
	}

	totalPattern = regexp.MustCompile(`(?i)\btotal(?:\s+(?:amount|due))?[ \t]*:?[ \t]*[$€£₹]?[ \t]*(\d[\d,]*(?:\.\d+)?)`)

	amountPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bamount(?:\s+due)?[ \t]*:?[ \t]*[$€£₹]?[ \t]*(\d[\d,]*(?:\.\d+)?)`),
		regexp.MustCompile(`(?i)\bbalance\s+due[ \t]*:?[ \t]*[$€£₹]?[ \t]*(\d[\d,]*(?:\.\d+)?)`),
	}

	dueDatePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)due\s+date[ \t]*:?[ \t]*` + datePattern),
		regexp.MustCompile(`(?i)payment\s+due[ \t]*:?[ \t]*` + datePattern),
	}

	taxPattern          = regexp.MustCompile(`(?i)\b(?:tax|vat|gst)\b(?:\s*\(\s*\d+(?:\.\d+)?\s*%\s*\))?(?:\s+amount)?[ \t]*:?[ \t]*[$€£₹]?[ \t]*(\d[\d,]*\.\d{2})`)
	invoiceDatePattern  = regexp.MustCompile(`(?i)invoice\s+date[ \t]*:?[ \t]*` + datePattern)
	genericDatePattern  = regexp.MustCompile(`(?i)\bdate[ \t]*:?[ \t]*` + datePattern)
	currencyCodePattern = regexp.MustCompile(`\b(USD|EUR|GBP|INR|CAD|AUD|JPY|CHF|CNY|NGN)\b`)
	emailPattern        = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phonePattern        = regexp.MustCompile(`(?i)\b(?:phone|tel|mobile)[ \t]*:?[ \t]*(\+?\d[\d \t().\-]{6,}\d)`)
	customerNamePattern = regexp.MustCompile(`(?im)^\s*(?:bill\s+to|billed\s+to|customer(?:\s+name)?)[ \t]*:[ \t]*(.+)$`)
	columnGap           = regexp.MustCompile(`\s{2,}`)
	footerLine          = regexp.MustCompile(`(?i)^\s*(?:sub\s*total|total|tax|vat|gst|balance|amount\s+due)\b`)
)

var currencyBySymbol = []struct{ symbol, code string }{
	{"€", "EUR"},
	{"£", "GBP"},
	{"₹", "INR"},
	{"$", "USD"},
}

// ParseInvoiceText scrapes invoice fields out of layout-preserved text.
func ParseInvoiceText(text string) *extraction.Fields {
	f := &extraction.Fields{}

	for _, re := range invoiceNumberPatterns {
		if m := re.FindStringSubmatch(text); m != nil && strings.ContainsAny(m[1], "0123456789") {
			f.InvoiceNumber = extraction.StringPtr(strings.TrimSpace(m[1]))
			break
		}
	}

	if m := totalPattern.FindStringSubmatch(text); m != nil {
		if d, ok := ParseAmount(m[1]); ok {
			f.Amount = extraction.DecimalPtr(d)
			f.TotalAmount = extraction.DecimalPtr(d)
		}
	}
	if f.Amount == nil {
		for _, re := range amountPatterns {
			if m := re.FindStringSubmatch(text); m != nil {
				if d, ok := ParseAmount(m[1]); ok {
					f.Amount = extraction.DecimalPtr(d)
					break
				}
			}
		}
	}
	if m := taxPattern.FindStringSubmatch(text); m != nil {
		if d, ok := ParseAmount(m[1]); ok {
			f.TaxAmount = extraction.DecimalPtr(d)
		}
	}

	if m := invoiceDatePattern.FindStringSubmatch(text); m != nil {
		f.InvoiceDate = extraction.StringPtr(normalizeOrRaw(m[1]))
	} else if d := firstNonDueDate(text); d != "" {
		f.InvoiceDate = extraction.StringPtr(normalizeOrRaw(d))
	}
	for _, re := range dueDatePatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			f.DueDate = extraction.StringPtr(normalizeOrRaw(m[1]))
			break
		}
	}

	f.Currency = extraction.StringPtr(detectCurrency(text))
	if m := emailPattern.FindString(text); m != "" {
		f.CustomerEmail = extraction.StringPtr(m)
	}
	if m := phonePattern.FindStringSubmatch(text); m != nil {
		f.CustomerPhone = extraction.StringPtr(strings.TrimSpace(m[1]))
	}
	if m := customerNamePattern.FindStringSubmatch(text); m != nil {
		name := strings.TrimSpace(columnGap.Split(strings.TrimSpace(m[1]), 2)[0])
		f.CustomerName = extraction.StringPtr(name)
	}

	f.LineItems = parseLineItems(text)
	return f
}

// firstNonDueDate finds a "Date:" label that is not part of "Due Date".
func firstNonDueDate(text string) string {
	for _, idx := range genericDatePattern.FindAllStringSubmatchIndex(text, -1) {
		before := strings.ToLower(strings.TrimRight(text[:idx[0]], " \t"))
		if strings.HasSuffix(before, "due") || strings.HasSuffix(before, "invoice") {
			continue
		}
		return text[idx[2]:idx[3]]
	}
	return ""
}

func normalizeOrRaw(s string) string {
	iso, _ := NormalizeDate(s)
	return iso
}

func detectCurrency(text string) string {
	if m := currencyCodePattern.FindString(text); m != "" {
		return m
	}
	for _, c := range currencyBySymbol {
		if strings.Contains(text, c.symbol) {
			return c.code
		}
	}
	return ""
}

var lineItemColumns = []struct {
	key      string
	keywords []string
}{
	{"description", []string{"description", "item"}},
	{"quantity", []string{"quantity", "qty"}},
	{"price", []string{"price", "rate", "unit"}},
	{"amount", []string{"amount", "total"}},
}

func columnKey(header string) string {
	h := strings.ToLower(header)
	for _, c := range lineItemColumns {
		for _, kw := range c.keywords {
			if strings.Contains(h, kw) {
				return c.key
			}
		}
	}
	return ""
}

// parseLineItems reads the table under the first header line that mentions a
// description. Rows need at least three columns; the table ends at a totals
// line or at the first short line after some rows were read.
func parseLineItems(text string) []extraction.LineItem {
	lines := strings.Split(strings.ReplaceAll(text, "\f", "\n"), "\n")

	start := -1
	var header []string
	for i, line := range lines {
		if strings.Contains(strings.ToLower(line), "description") {
			start = i + 1
			header = columnGap.Split(strings.TrimSpace(line), -1)
			break
		}
	}
	if start < 0 {
		return nil
	}

	keys := make([]string, len(header))
	for i, h := range header {
		keys[i] = columnKey(h)
	}
	positional := []string{"description", "quantity", "price", "amount"}

	var items []extraction.LineItem
	for _, line := range lines[start:] {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if footerLine.MatchString(trimmed) {
			break
		}
		cells := columnGap.Split(trimmed, -1)
		if len(cells) < 3 {
			if len(items) > 0 {
				break
			}
			continue
		}

		item := extraction.LineItem{}
		for i, cell := range cells {
			key := ""
			if len(cells) == len(keys) {
				key = keys[i]
			} else if i < len(positional) {
				key = positional[i]
			}
			if key != "" && cell != "" {
				item[key] = cell
			}
		}
		if len(item) > 0 {
			items = append(items, item)
		}
	}
	return items
}
