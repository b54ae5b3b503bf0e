package service

import (
	"context"
	"strings"
	"time"

	"github.com/patteeraL/movra/services/currency-service/internal/metrics"
	"github.com/patteeraL/movra/services/currency-service/internal/model"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// SnapshotResolver is the subset of RateResolver the converter needs
type SnapshotResolver interface {
	ResolveSnapshot(ctx context.Context, date, base string) (model.Snapshot, Tier)
}

// CurrencyConverter converts amounts by pivoting through a snapshot's base currency
type CurrencyConverter struct {
	resolver SnapshotResolver
	metrics  *metrics.Metrics
	logger   *zap.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

// NewCurrencyConverter creates a CurrencyConverter
func NewCurrencyConverter(resolver SnapshotResolver, m *metrics.Metrics, logger *zap.Logger) *CurrencyConverter {
	return &CurrencyConverter{
		resolver: resolver,
		metrics:  m,
		logger:   logger,
		tracer:   otel.Tracer("currency-service/converter"),
		now:      time.Now,
	}
}

// Convert converts req.Amount from req.From to req.To using the snapshot for req.AsOf.
// Results are rounded half-up to 2 decimal places.
func (c *CurrencyConverter) Convert(ctx context.Context, req model.ConversionRequest) (decimal.Decimal, error) {
	from := strings.ToUpper(strings.TrimSpace(req.From))
	to := strings.ToUpper(strings.TrimSpace(req.To))

	if req.Amount.IsNegative() {
		c.metrics.RecordConversion(from, to, "invalid")
		return decimal.Zero, ErrInvalidAmount{Amount: req.Amount.String()}
	}
	if req.Amount.IsZero() || from == to {
		c.metrics.RecordConversion(from, to, "identity")
		return req.Amount, nil
	}

	asOf := req.AsOf
	if asOf.IsZero() {
		asOf = c.now()
	}

	ctx, span := c.tracer.Start(ctx, "CurrencyConverter.Convert",
		trace.WithAttributes(attribute.String("fx.from", from), attribute.String("fx.to", to)))
	defer span.End()

	snapshot, tier := c.resolver.ResolveSnapshot(ctx, model.DateOf(asOf), "")

	fromRate, err := rateToBase(snapshot, from)
	if err != nil {
		span.RecordError(err)
		c.metrics.RecordConversion(from, to, "missing_rate")
		return decimal.Zero, err
	}
	toRate, err := rateToBase(snapshot, to)
	if err != nil {
		span.RecordError(err)
		c.metrics.RecordConversion(from, to, "missing_rate")
		return decimal.Zero, err
	}

	result := req.Amount.Div(fromRate).Mul(toRate).Round(2)

	c.logger.Debug("Converted amount",
		zap.String("from", from),
		zap.String("to", to),
		zap.String("amount", req.Amount.String()),
		zap.String("result", result.String()),
		zap.String("snapshotDate", snapshot.Day()),
		zap.String("tier", string(tier)),
	)
	c.metrics.RecordConversion(from, to, "success")
	return result, nil
}

// rateToBase returns how many units of code equal one unit of the snapshot base
func rateToBase(snapshot model.Snapshot, code string) (decimal.Decimal, error) {
	if code == snapshot.BaseCurrency() {
		return decimal.NewFromInt(1), nil
	}
	rate, ok := snapshot.RateTable()[code]
	if !ok || rate <= 0 {
		return decimal.Zero, ErrMissingRate{
			Currency: code,
			Base:     snapshot.BaseCurrency(),
			Date:     snapshot.Day(),
		}
	}
	return decimal.NewFromFloat(rate), nil
}
