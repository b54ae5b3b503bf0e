package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/patteeraL/movra/services/currency-service/internal/service"
)

const (
	// ClientIPKey and CurrencyKey are the gin context keys set by CurrencyContext
	ClientIPKey = "clientIP"
	CurrencyKey = "currency"

	localhostIP = "127.0.0.1"
)

type ctxKey int

const (
	clientIPCtxKey ctxKey = iota
	currencyCtxKey
)

// CurrencyDetector resolves a client IP to a currency code
type CurrencyDetector interface {
	DetectCurrency(ctx context.Context, ip string) string
}

// CurrencyContext attaches the client IP and detected currency to every request
func CurrencyContext(detector CurrencyDetector) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := ExtractClientIP(c)
		currency := detector.DetectCurrency(c.Request.Context(), ip)

		c.Set(ClientIPKey, ip)
		c.Set(CurrencyKey, currency)

		ctx := context.WithValue(c.Request.Context(), clientIPCtxKey, ip)
		ctx = context.WithValue(ctx, currencyCtxKey, currency)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// ExtractClientIP applies X-Forwarded-For (first hop), X-Real-IP, remote address, localhost.
// The result is normalized the same way the IP currency cache keys its entries.
func ExtractClientIP(c *gin.Context) string {
	candidates := []string{
		strings.Split(c.GetHeader("X-Forwarded-For"), ",")[0],
		c.GetHeader("X-Real-IP"),
		c.Request.RemoteAddr,
	}
	for _, candidate := range candidates {
		if ip := service.NormalizeIP(candidate); ip != "" {
			return ip
		}
	}
	return localhostIP
}

// ClientIPFromContext returns the IP attached by CurrencyContext
func ClientIPFromContext(ctx context.Context) (string, bool) {
	ip, ok := ctx.Value(clientIPCtxKey).(string)
	return ip, ok
}

// CurrencyFromContext returns the currency attached by CurrencyContext
func CurrencyFromContext(ctx context.Context) (string, bool) {
	currency, ok := ctx.Value(currencyCtxKey).(string)
	return currency, ok
}
