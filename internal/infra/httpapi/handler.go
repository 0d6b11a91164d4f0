// internal/infra/httpapi/handler.go
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"payment_recovery/internal/domain/extraction"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

const ServiceName = "invoice-extraction-service"

// Extractor is the dispatcher the handler delegates to.
type Extractor interface {
	Extract(ctx context.Context, filePath string) (*extraction.Fields, error)
}

type ExtractInvoiceRequest struct {
	InvoiceID *int64 `json:"invoiceId" validate:"required"`
	FilePath  string `json:"filePath" validate:"required"`
}

type ExtractionResponse struct {
	Success       bool               `json:"success"`
	InvoiceID     int64              `json:"invoiceId"`
	ExtractedData *extraction.Fields `json:"extractedData,omitempty"`
	Message       string             `json:"message,omitempty"`
	Error         string             `json:"error,omitempty"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

type ExtractionHandler struct {
	service  Extractor
	validate *validator.Validate
	timeout  time.Duration
	logger   *logrus.Entry
}

func NewExtractionHandler(service Extractor, timeout time.Duration, logger *logrus.Entry) *ExtractionHandler {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &ExtractionHandler{
		service:  service,
		validate: validator.New(),
		timeout:  timeout,
		logger:   logger,
	}
}

func (h *ExtractionHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "healthy", Service: ServiceName})
}

// ExtractInvoice answers 200 for every well-formed request; failures are
// reported in the body. Only a malformed request gets 400.
func (h *ExtractionHandler) ExtractInvoice(c *gin.Context) {
	var req ExtractInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Warn("Failed to bind extraction request")
		c.JSON(http.StatusBadRequest, ExtractionResponse{Error: "Invalid request format: " + err.Error()})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, ExtractionResponse{Error: validationMessage(err)})
		return
	}

	invoiceID := *req.InvoiceID
	log := h.logger.WithFields(logrus.Fields{
		"request_id": RequestIDFrom(c.Request.Context()),
		"invoice_id": invoiceID,
		"file_path":  req.FilePath,
	})
	log.Info("Extraction request received")

	ctx := c.Request.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	fields, err := h.service.Extract(ctx, req.FilePath)
	if err != nil {
		log.WithError(err).Error("Invoice extraction failed")
		c.JSON(http.StatusOK, ExtractionResponse{
			Success:   false,
			InvoiceID: invoiceID,
			Error:     failureMessage(req.FilePath, err),
		})
		return
	}

	c.JSON(http.StatusOK, ExtractionResponse{
		Success:       true,
		InvoiceID:     invoiceID,
		ExtractedData: fields,
		Message:       "Invoice data extracted successfully",
	})
}

func failureMessage(filePath string, err error) string {
	switch {
	case errors.Is(err, extraction.ErrFileNotFound):
		return "File not found: " + filePath
	case errors.Is(err, extraction.ErrUnsupportedFormat):
		ext := filepath.Ext(filePath)
		if ext == "" {
			ext = filePath
		}
		return "Unsupported file type: " + ext
	default:
		return "Extraction failed: " + err.Error()
	}
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Request validation failed: " + err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s is %s", jsonName(fe.Field()), fe.Tag()))
	}
	return "Request validation failed: " + strings.Join(parts, ", ")
}

func jsonName(field string) string {
	switch field {
	case "InvoiceID":
		return "invoiceId"
	case "FilePath":
		return "filePath"
	default:
		return field
	}
}
