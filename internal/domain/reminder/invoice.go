// internal/domain/reminder/invoice.go
package reminder

import "github.com/shopspring/decimal"

// Invoice is the reminder view of an invoice owned by the invoicing backend.
// The decision engine only reads ID and DueDate.
type Invoice struct {
	ID            int64           `json:"id"`
	InvoiceNumber string          `json:"invoiceNumber"`
	DueDate       string          `json:"dueDate"` // ISO date, optionally with a time component
	Amount        decimal.Decimal `json:"amount"`
	CompanyID     int64           `json:"companyId"`
	CustomerName  string          `json:"customerName"`
	CustomerEmail string          `json:"customerEmail"`
	CustomerPhone string          `json:"customerPhone"`
}

// HasContact reports whether the invoice carries at least one contact channel.
func (i Invoice) HasContact() bool {
	return i.CustomerEmail != "" || i.CustomerPhone != ""
}
