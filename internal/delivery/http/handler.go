package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ector/backend/internal/domain"
	"github.com/ector/backend/internal/lexicon"
	"github.com/ector/backend/internal/logger"
)

// Version is reported by the health endpoint; set at build time with -ldflags.
var Version = "1.0.0"

// maxTextLength bounds the size of a single chat message
const maxTextLength = 10000

// HandlerConfig holds optional handler dependencies
type HandlerConfig struct {
	Languages      []string
	Validator      *ResultValidator // nil disables response validation
	Logger         logger.Logger
	RequestTimeout time.Duration
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	extractor      domain.Extractor
	languages      []string
	validator      *ResultValidator
	log            logger.Logger
	requestTimeout time.Duration
}

// NewHandler creates a new HTTP handler
func NewHandler(extractor domain.Extractor, cfg HandlerConfig) *Handler {
	languages := cfg.Languages
	if len(languages) == 0 {
		languages = []string{lexicon.English, lexicon.French}
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	return &Handler{
		extractor:      extractor,
		languages:      languages,
		validator:      cfg.Validator,
		log:            log,
		requestTimeout: cfg.RequestTimeout,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "ector-backend",
		"version": Version,
	})
}

// Languages lists the supported language codes
func (h *Handler) Languages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"languages": h.languages,
		"default":   lexicon.English,
	})
}

// Extract handles purchase intent extraction requests
func (h *Handler) Extract(c *gin.Context) {
	if h.extractor == nil {
		c.JSON(http.StatusNotImplemented, gin.H{
			"error": "Extraction service not configured",
		})
		return
	}

	var req domain.ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if len(req.Text) > maxTextLength {
		h.handleError(c, fmt.Errorf("%w: text exceeds maximum length of %d bytes", domain.ErrInvalidRequest, maxTextLength))
		return
	}

	ctx := c.Request.Context()
	if h.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.requestTimeout)
		defer cancel()
	}

	result, err := h.extractor.Extract(ctx, req.Text, req.Language)
	if err != nil {
		h.handleError(c, err)
		return
	}

	if h.validator != nil {
		if err := h.validator.Validate(result); err != nil {
			h.log.Error("response failed schema validation", map[string]interface{}{
				"error":      err.Error(),
				"request_id": requestID(c),
			})
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
			return
		}
	}

	c.JSON(http.StatusOK, result)
}

// handleError maps domain errors to HTTP status codes
func (h *Handler) handleError(c *gin.Context, err error) {
	_ = c.Error(err)

	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
	case errors.Is(err, domain.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error": "Rate limit exceeded",
		})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{
			"error": "Extraction timed out",
		})
	case errors.Is(err, domain.ErrAnnotatorUnavailable), errors.Is(err, domain.ErrAnnotatorResponse):
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "Annotator temporarily unavailable",
		})
	default:
		h.log.Error("extraction failed", map[string]interface{}{
			"error":      err.Error(),
			"request_id": requestID(c),
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
	}
}
