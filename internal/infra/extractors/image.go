// internal/infra/extractors/image.go
package extractors

import (
	"context"

	"payment_recovery/internal/domain/extraction"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const imageNote = "Extracted from image (mock data - OCR not implemented)"

// ImageExtractor stands in for OCR and always answers the same synthetic record.
type ImageExtractor struct {
	logger *logrus.Entry
}

func NewImageExtractor(logger *logrus.Entry) *ImageExtractor {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &ImageExtractor{logger: logger}
}

func (e *ImageExtractor) Format() extraction.FileFormat { return extraction.FormatImage }

func (e *ImageExtractor) Extract(_ context.Context, path string) (*extraction.Fields, error) {
	e.logger.WithField("file_path", path).Warn("OCR not implemented, returning mock image data")

	amount := decimal.RequireFromString("1000.00")
	return &extraction.Fields{
		InvoiceNumber: extraction.StringPtr("INV-IMG-001"),
		InvoiceDate:   extraction.StringPtr("2024-01-15"),
		DueDate:       extraction.StringPtr("2024-02-15"),
		Amount:        extraction.DecimalPtr(amount),
		TotalAmount:   extraction.DecimalPtr(amount),
		Currency:      extraction.StringPtr("USD"),
		CustomerName:  extraction.StringPtr("Customer from Image"),
		Notes:         extraction.StringPtr(imageNote),
	}, nil
}

// DocExtractor recognises Word documents without extracting from them.
type DocExtractor struct{}

const docNote = "DOC extraction not implemented"

func (DocExtractor) Format() extraction.FileFormat { return extraction.FormatDoc }

func (DocExtractor) Extract(context.Context, string) (*extraction.Fields, error) {
	return &extraction.Fields{Notes: extraction.StringPtr(docNote)}, nil
}
