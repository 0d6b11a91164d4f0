// internal/domain/extraction/format.go
package extraction

// FileFormat is the extraction strategy selected for a file.
type FileFormat string

const (
	FormatPDF     FileFormat = "PDF"
	FormatImage   FileFormat = "IMAGE"
	FormatExcel   FileFormat = "EXCEL"
	FormatDoc     FileFormat = "DOC"
	FormatUnknown FileFormat = "UNKNOWN"
)
