package app_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"payment_recovery/internal/app"
	"payment_recovery/internal/domain/extraction"
	"payment_recovery/internal/infra/extractors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubExtractor struct {
	format extraction.FileFormat
	fields *extraction.Fields
	err    error
	paths  []string
}

func (s *stubExtractor) Format() extraction.FileFormat { return s.format }

func (s *stubExtractor) Extract(_ context.Context, path string) (*extraction.Fields, error) {
	s.paths = append(s.paths, path)
	return s.fields, s.err
}

func writeFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("content"), 0o600))
	return path
}

func TestExtractionService_DispatchesByFormat(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "uploads/march.xlsx")
	writeFile(t, dir, "scan.PNG")

	excel := &stubExtractor{format: extraction.FormatExcel, fields: &extraction.Fields{InvoiceNumber: extraction.StringPtr("INV-1")}}
	image := &stubExtractor{format: extraction.FormatImage, fields: &extraction.Fields{InvoiceNumber: extraction.StringPtr("INV-IMG-001")}}
	svc := app.NewExtractionService(dir, extractors.Classify, []extraction.Extractor{excel, image}, quietLogger())

	fields, err := svc.Extract(context.Background(), "uploads/march.xlsx")
	require.NoError(t, err)
	assert.Equal(t, "INV-1", *fields.InvoiceNumber)
	assert.Equal(t, []string{filepath.Join(dir, "uploads", "march.xlsx")}, excel.paths)
	assert.Empty(t, image.paths)

	fields, err = svc.Extract(context.Background(), "scan.PNG")
	require.NoError(t, err)
	assert.Equal(t, "INV-IMG-001", *fields.InvoiceNumber)
}

func TestExtractionService_AbsolutePathsStayUnderRoot(t *testing.T) {
	dir := t.TempDir()
	inside := writeFile(t, dir, "nested/inside.xlsx")
	outside := writeFile(t, t.TempDir(), "outside.xlsx")

	excel := &stubExtractor{format: extraction.FormatExcel, fields: &extraction.Fields{}}
	svc := app.NewExtractionService(dir, extractors.Classify, []extraction.Extractor{excel}, quietLogger())

	_, err := svc.Extract(context.Background(), inside)
	require.NoError(t, err)
	assert.Equal(t, []string{inside}, excel.paths)

	_, err = svc.Extract(context.Background(), outside)
	assert.ErrorIs(t, err, extraction.ErrFileNotFound)

	_, err = svc.Extract(context.Background(), filepath.Join(dir, "..", filepath.Base(filepath.Dir(outside)), "outside.xlsx"))
	assert.ErrorIs(t, err, extraction.ErrFileNotFound)
	assert.Len(t, excel.paths, 1)
}

func TestExtractionService_FileNotFoundBeforeClassification(t *testing.T) {
	dir := t.TempDir()
	classified := 0
	classify := func(p string) extraction.FileFormat {
		classified++
		return extractors.Classify(p)
	}
	svc := app.NewExtractionService(dir, classify, nil, quietLogger())

	_, err := svc.Extract(context.Background(), "missing.csv")
	assert.ErrorIs(t, err, extraction.ErrFileNotFound)

	require.NoError(t, os.Mkdir(filepath.Join(dir, "folder.pdf"), 0o755))
	_, err = svc.Extract(context.Background(), "folder.pdf")
	assert.ErrorIs(t, err, extraction.ErrFileNotFound)

	_, err = svc.Extract(context.Background(), "../../etc/passwd")
	assert.ErrorIs(t, err, extraction.ErrFileNotFound)

	assert.Zero(t, classified)
}

func TestExtractionService_UnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ledger.csv")
	writeFile(t, dir, "scan.jpg")

	svc := app.NewExtractionService(dir, extractors.Classify, nil, quietLogger())

	_, err := svc.Extract(context.Background(), "ledger.csv")
	require.ErrorIs(t, err, extraction.ErrUnsupportedFormat)
	assert.Contains(t, err.Error(), ".csv")

	// known format without a registered strategy
	_, err = svc.Extract(context.Background(), "scan.jpg")
	assert.ErrorIs(t, err, extraction.ErrUnsupportedFormat)
}

func TestExtractionService_WrapsStrategyFailure(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.pdf")

	pdf := &stubExtractor{format: extraction.FormatPDF, err: errors.New("corrupt xref table")}
	svc := app.NewExtractionService(dir, extractors.Classify, []extraction.Extractor{pdf}, quietLogger())

	_, err := svc.Extract(context.Background(), "broken.pdf")
	var exErr *extraction.ExtractionError
	require.ErrorAs(t, err, &exErr)
	assert.Equal(t, extraction.FormatPDF, exErr.Format)
	assert.Contains(t, err.Error(), "corrupt xref table")
}

func TestExtractionService_NilFieldsBecomeEmpty(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "memo.docx")

	svc := app.NewExtractionService(dir, extractors.Classify, []extraction.Extractor{&stubExtractor{format: extraction.FormatDoc}}, quietLogger())

	fields, err := svc.Extract(context.Background(), "memo.docx")
	require.NoError(t, err)
	require.NotNil(t, fields)
	assert.Nil(t, fields.InvoiceNumber)
}

func TestExtractionService_RealDocStrategy(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "memo.doc")

	svc := app.NewExtractionService(dir, extractors.Classify, []extraction.Extractor{extractors.DocExtractor{}}, quietLogger())

	fields, err := svc.Extract(context.Background(), "memo.doc")
	require.NoError(t, err)
	require.NotNil(t, fields.Notes)
	assert.Equal(t, "DOC extraction not implemented", *fields.Notes)
	assert.Nil(t, fields.Amount)
}
