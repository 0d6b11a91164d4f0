// internal/domain/extraction/fields.go
package extraction

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// LineItem is a loosely typed invoice row: description, quantity, price and
// amount as best-effort strings. Keys that were not found are absent.
type LineItem map[string]string

// Fields holds what could be scraped from an invoice file. Every field is
// optional; nil means "not found", never an error.
type Fields struct {
	InvoiceNumber *string          `json:"invoiceNumber,omitempty"`
	InvoiceDate   *string          `json:"invoiceDate,omitempty"`
	DueDate       *string          `json:"dueDate,omitempty"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	TotalAmount   *decimal.Decimal `json:"totalAmount,omitempty"`
	TaxAmount     *decimal.Decimal `json:"taxAmount,omitempty"`
	Currency      *string          `json:"currency,omitempty"`
	CustomerName  *string          `json:"customerName,omitempty"`
	CustomerEmail *string          `json:"customerEmail,omitempty"`
	CustomerPhone *string          `json:"customerPhone,omitempty"`
	LineItems     []LineItem       `json:"lineItems,omitempty"`
	Notes         *string          `json:"notes,omitempty"`
}

// MarshalJSON writes the amounts as JSON numbers rather than the quoted
// strings decimal produces by default.
func (f Fields) MarshalJSON() ([]byte, error) {
	type plain Fields
	return json.Marshal(struct {
		plain
		Amount      *json.Number `json:"amount,omitempty"`
		TotalAmount *json.Number `json:"totalAmount,omitempty"`
		TaxAmount   *json.Number `json:"taxAmount,omitempty"`
	}{
		plain:       plain(f),
		Amount:      jsonNumber(f.Amount),
		TotalAmount: jsonNumber(f.TotalAmount),
		TaxAmount:   jsonNumber(f.TaxAmount),
	})
}

func jsonNumber(d *decimal.Decimal) *json.Number {
	if d == nil {
		return nil
	}
	n := json.Number(d.String())
	return &n
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// DecimalPtr returns a pointer to d.
func DecimalPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}
