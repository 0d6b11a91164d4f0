// internal/infra/httpapi/router.go
package httpapi

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// NewRouter wires the extraction endpoints.
func NewRouter(h *ExtractionHandler, logger *logrus.Entry) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestIDMiddleware, CORSMiddleware, LoggerMiddleware(logger))

	r.GET("/health", h.Health)
	api := r.Group("/api")
	api.POST("/extract-invoice", h.ExtractInvoice)
	return r
}
