// internal/app/extraction_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"payment_recovery/internal/domain/extraction"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// ClassifyFunc maps a file path to its extraction format.
type ClassifyFunc func(path string) extraction.FileFormat

// ExtractionService routes an uploaded file to the extractor for its format and
// normalises failures into the extraction error taxonomy.
type ExtractionService struct {
	baseDir    string
	classify   ClassifyFunc
	extractors map[extraction.FileFormat]extraction.Extractor
	logger     *logrus.Entry
}

func NewExtractionService(baseDir string, classify ClassifyFunc, extractors []extraction.Extractor, logger *logrus.Entry) *ExtractionService {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &ExtractionService{
		baseDir:    baseDir,
		classify:   classify,
		extractors: lo.KeyBy(extractors, func(e extraction.Extractor) extraction.FileFormat { return e.Format() }),
		logger:     logger,
	}
}

// ResolvePath places filePath under the storage root. Relative paths are
// joined onto the root; absolute paths must already point inside it. Anything
// that lands outside the root is reported as not found.
func (s *ExtractionService) ResolvePath(filePath string) (string, error) {
	root, err := filepath.Abs(s.baseDir)
	if err != nil {
		return "", fmt.Errorf("%w: %s", extraction.ErrFileNotFound, filePath)
	}
	resolved := filepath.Clean(filePath)
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(root, filePath)
	}
	rel, err := filepath.Rel(root, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", extraction.ErrFileNotFound, filePath)
	}
	return resolved, nil
}

// Extract resolves filePath, checks it exists and runs the matching strategy.
// It fails with ErrFileNotFound before any format logic runs, with
// ErrUnsupportedFormat for an unknown extension and with *ExtractionError when
// a strategy fails.
func (s *ExtractionService) Extract(ctx context.Context, filePath string) (*extraction.Fields, error) {
	log := s.logger.WithField("file_path", filePath)

	resolved, err := s.ResolvePath(filePath)
	if err != nil {
		log.Warn("Rejected file path outside storage root")
		return nil, err
	}
	info, err := os.Stat(resolved)
	if err != nil || info.IsDir() {
		log.WithField("resolved_path", resolved).Warn("File not found")
		return nil, fmt.Errorf("%w: %s", extraction.ErrFileNotFound, resolved)
	}

	format := s.classify(resolved)
	log = log.WithField("format", format)
	if format == extraction.FormatUnknown {
		log.Warn("Unsupported file type")
		return nil, fmt.Errorf("%w: %s", extraction.ErrUnsupportedFormat, filepath.Ext(resolved))
	}
	extractor, ok := s.extractors[format]
	if !ok {
		log.Error("No extractor registered for format")
		return nil, fmt.Errorf("%w: no extractor for %s", extraction.ErrUnsupportedFormat, format)
	}

	log.Info("Extracting invoice data")
	fields, err := extractor.Extract(ctx, resolved)
	if err != nil {
		var exErr *extraction.ExtractionError
		if !errors.As(err, &exErr) {
			err = &extraction.ExtractionError{Format: format, Path: resolved, Cause: err}
		}
		log.WithError(err).Error("Extraction failed")
		return nil, err
	}
	if fields == nil {
		fields = &extraction.Fields{}
	}
	log.Info("Extraction completed")
	return fields, nil
}
