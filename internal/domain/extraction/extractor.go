// internal/domain/extraction/extractor.go
package extraction

import "context"

// Extractor scrapes invoice fields from one file format. Implementations
// receive an absolute path that is known to exist.
type Extractor interface {
	Format() FileFormat
	Extract(ctx context.Context, path string) (*Fields, error)
}
