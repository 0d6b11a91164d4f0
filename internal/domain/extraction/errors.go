// internal/domain/extraction/errors.go
package extraction

import (
	"errors"
	"fmt"
)

var (
	ErrFileNotFound      = errors.New("file not found")
	ErrUnsupportedFormat = errors.New("unsupported file type")
)

// ExtractionError wraps a failure inside a format strategy. Partial results
// are discarded when it is returned.
type ExtractionError struct {
	Format FileFormat
	Path   string
	Cause  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s extraction failed for %s: %v", e.Format, e.Path, e.Cause)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}
