package extractors

import (
	"testing"

	"payment_recovery/internal/domain/extraction"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := map[string]extraction.FileFormat{
		"invoice.pdf":            extraction.FormatPDF,
		"/tmp/SCAN.PDF":          extraction.FormatPDF,
		"photo.jpg":              extraction.FormatImage,
		"photo.JPEG":             extraction.FormatImage,
		"shot.png":               extraction.FormatImage,
		"anim.gif":               extraction.FormatImage,
		"raw.bmp":                extraction.FormatImage,
		"modern.webp":            extraction.FormatImage,
		"ledger.xlsx":            extraction.FormatExcel,
		"legacy.xls":             extraction.FormatExcel,
		"letter.doc":             extraction.FormatDoc,
		"letter.docx":            extraction.FormatDoc,
		"data.csv":               extraction.FormatUnknown,
		"no_extension":           extraction.FormatUnknown,
		"archive.pdf.zip":        extraction.FormatUnknown,
		"uploads/dir.xlsx/a.txt": extraction.FormatUnknown,
	}
	for path, want := range tests {
		assert.Equal(t, want, Classify(path), path)
	}
}
