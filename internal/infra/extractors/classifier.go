// internal/infra/extractors/classifier.go
package extractors

import (
	"path/filepath"
	"strings"

	"payment_recovery/internal/domain/extraction"
)

var formatByExt = map[string]extraction.FileFormat{
	".pdf":  extraction.FormatPDF,
	".png":  extraction.FormatImage,
	".jpg":  extraction.FormatImage,
	".jpeg": extraction.FormatImage,
	".gif":  extraction.FormatImage,
	".bmp":  extraction.FormatImage,
	".webp": extraction.FormatImage,
	".xls":  extraction.FormatExcel,
	".xlsx": extraction.FormatExcel,
	".doc":  extraction.FormatDoc,
	".docx": extraction.FormatDoc,
}

// Classify maps a path to a format by its lowercase extension. File contents
// are never inspected.
func Classify(path string) extraction.FileFormat {
	if f, ok := formatByExt[strings.ToLower(filepath.Ext(path))]; ok {
		return f
	}
	return extraction.FormatUnknown
}
