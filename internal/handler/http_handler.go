package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patteeraL/movra/services/currency-service/internal/model"
	"github.com/patteeraL/movra/services/currency-service/internal/service"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CurrencyAPI is the service surface the HTTP layer depends on
type CurrencyAPI interface {
	CurrencyDetector
	ConvertOn(ctx context.Context, amount decimal.Decimal, from, to string, asOf time.Time) (decimal.Decimal, error)
	CurrencyForCountry(name string) string
	Snapshot(ctx context.Context, date, base string) (model.Snapshot, service.Tier)
	DefaultCurrency() string
	Health(ctx context.Context) error
}

// HTTPHandler handles HTTP requests
type HTTPHandler struct {
	currencyService CurrencyAPI
	logger          *zap.Logger
	now             func() time.Time
}

// NewHTTPHandler creates a new HTTPHandler
func NewHTTPHandler(currencyService CurrencyAPI, logger *zap.Logger) *HTTPHandler {
	return &HTTPHandler{
		currencyService: currencyService,
		logger:          logger,
		now:             time.Now,
	}
}

// SetupRoutes configures the HTTP routes
func (h *HTTPHandler) SetupRoutes(r *gin.Engine) {
	// Health check
	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)

	api := r.Group("/api")
	api.Use(CurrencyContext(h.currencyService))
	{
		api.GET("/rates", h.GetRates)
		api.GET("/convert", h.Convert)

		currency := api.Group("/currency")
		{
			currency.GET("", h.GetCurrency)
			currency.GET("/country", h.GetCountryCurrency)
		}
	}
}

// Health returns the health status
func (h *HTTPHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "currency-service",
	})
}

// Ready reports whether the snapshot store is reachable
func (h *HTTPHandler) Ready(c *gin.Context) {
	if err := h.currencyService.Health(c.Request.Context()); err != nil {
		h.logger.Warn("Readiness check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unavailable",
			"service": "currency-service",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ready",
		"service": "currency-service",
	})
}

// GetRates returns the snapshot for ?date= (default today) and ?base=
func (h *HTTPHandler) GetRates(c *gin.Context) {
	date, ok := h.parseDate(c)
	if !ok {
		return
	}
	base := c.Query("base")
	if base != "" && len(base) != 3 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid currency code format"})
		return
	}

	snapshot, tier := h.currencyService.Snapshot(c.Request.Context(), date, base)

	c.JSON(http.StatusOK, gin.H{
		"snapshot": model.ViewOf(snapshot),
		"tier":     tier,
	})
}

// Convert converts ?amount= from ?from= to ?to= using ?date= (default today)
func (h *HTTPHandler) Convert(c *gin.Context) {
	from := strings.ToUpper(c.Query("from"))
	to := strings.ToUpper(c.Query("to"))
	if to == "" {
		if detected, ok := CurrencyFromContext(c.Request.Context()); ok {
			to = detected
		}
	}
	if len(from) != 3 || len(to) != 3 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid currency code format"})
		return
	}

	amount, err := decimal.NewFromString(c.Query("amount"))
	if err != nil || amount.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid amount"})
		return
	}

	date, ok := h.parseDate(c)
	if !ok {
		return
	}
	asOf, _ := time.Parse(model.DateLayout, date)

	result, err := h.currencyService.ConvertOn(c.Request.Context(), amount, from, to, asOf)
	if err != nil {
		var missing service.ErrMissingRate
		if errors.As(err, &missing) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "currency": missing.Currency})
			return
		}
		var invalid service.ErrInvalidAmount
		if errors.As(err, &invalid) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to convert amount", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"amount": amount.String(),
		"from":   from,
		"to":     to,
		"date":   date,
		"result": result.StringFixed(2),
	})
}

// GetCurrency returns the currency detected for the caller
func (h *HTTPHandler) GetCurrency(c *gin.Context) {
	ip, _ := ClientIPFromContext(c.Request.Context())
	currency, _ := CurrencyFromContext(c.Request.Context())

	c.JSON(http.StatusOK, gin.H{
		"ip":              ip,
		"currency":        currency,
		"defaultCurrency": h.currencyService.DefaultCurrency(),
	})
}

// GetCountryCurrency maps ?name= to a currency
func (h *HTTPHandler) GetCountryCurrency(c *gin.Context) {
	name := c.Query("name")
	c.JSON(http.StatusOK, gin.H{
		"country":  name,
		"currency": h.currencyService.CurrencyForCountry(name),
	})
}

func (h *HTTPHandler) parseDate(c *gin.Context) (string, bool) {
	date := c.Query("date")
	if date == "" {
		return model.DateOf(h.now()), true
	}
	if _, err := time.Parse(model.DateLayout, date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, expected YYYY-MM-DD"})
		return "", false
	}
	return date, true
}
