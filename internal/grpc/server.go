package grpc

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/patteeraL/movra/services/currency-service/internal/model"
	"github.com/patteeraL/movra/services/currency-service/internal/service"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// CurrencyAPI is the service surface the gRPC layer depends on
type CurrencyAPI interface {
	ConvertOn(ctx context.Context, amount decimal.Decimal, from, to string, asOf time.Time) (decimal.Decimal, error)
	DetectCurrency(ctx context.Context, ip string) string
	CurrencyForCountry(name string) string
	Snapshot(ctx context.Context, date, base string) (model.Snapshot, service.Tier)
}

// CurrencyServer implements the gRPC CurrencyService
type CurrencyServer struct {
	UnimplementedCurrencyServiceServer
	service CurrencyAPI
	logger  *zap.Logger
	now     func() time.Time
}

// NewCurrencyServer creates a new gRPC server instance
func NewCurrencyServer(svc CurrencyAPI, logger *zap.Logger) *CurrencyServer {
	return &CurrencyServer{
		service: svc,
		logger:  logger,
		now:     time.Now,
	}
}

// Convert converts {amount, from, to, date?} and returns {amount, from, to, date, result}
func (s *CurrencyServer) Convert(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	from := strings.ToUpper(stringField(req, "from"))
	to := strings.ToUpper(stringField(req, "to"))
	if from == "" || to == "" {
		return nil, status.Error(codes.InvalidArgument, "from and to are required")
	}

	amount, err := amountField(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid amount")
	}

	date := stringField(req, "date")
	asOf := s.now()
	if date != "" {
		if asOf, err = time.Parse(model.DateLayout, date); err != nil {
			return nil, status.Error(codes.InvalidArgument, "invalid date, expected YYYY-MM-DD")
		}
	}

	result, err := s.service.ConvertOn(ctx, amount, from, to, asOf)
	if err != nil {
		var missing service.ErrMissingRate
		if errors.As(err, &missing) {
			return nil, status.Error(codes.NotFound, err.Error())
		}
		var invalid service.ErrInvalidAmount
		if errors.As(err, &invalid) {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		s.logger.Error("Failed to convert amount",
			zap.String("from", from),
			zap.String("to", to),
			zap.Error(err),
		)
		return nil, status.Error(codes.Internal, err.Error())
	}

	return structpb.NewStruct(map[string]interface{}{
		"amount": amount.String(),
		"from":   from,
		"to":     to,
		"date":   model.DateOf(asOf),
		"result": result.StringFixed(2),
	})
}

// DetectCurrency returns {ip, currency} for {ip}
func (s *CurrencyServer) DetectCurrency(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ip := stringField(req, "ip")
	return structpb.NewStruct(map[string]interface{}{
		"ip":       ip,
		"currency": s.service.DetectCurrency(ctx, ip),
	})
}

// CurrencyForCountry returns {country, currency} for {name}
func (s *CurrencyServer) CurrencyForCountry(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	name := stringField(req, "name")
	return structpb.NewStruct(map[string]interface{}{
		"country":  name,
		"currency": s.service.CurrencyForCountry(name),
	})
}

// GetSnapshot returns {snapshot, tier} for {date?, base?}
func (s *CurrencyServer) GetSnapshot(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	date := stringField(req, "date")
	if date == "" {
		date = model.DateOf(s.now())
	} else if _, err := time.Parse(model.DateLayout, date); err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid date, expected YYYY-MM-DD")
	}

	snapshot, tier := s.service.Snapshot(ctx, date, stringField(req, "base"))

	return structpb.NewStruct(map[string]interface{}{
		"snapshot": snapshotToMap(model.ViewOf(snapshot)),
		"tier":     string(tier),
	})
}

func snapshotToMap(view model.SnapshotView) map[string]interface{} {
	rates := make(map[string]interface{}, len(view.Rates))
	for code, rate := range view.Rates {
		rates[code] = rate
	}

	m := map[string]interface{}{
		"date":      view.Date,
		"base":      view.Base,
		"provider":  view.Provider,
		"rates":     rates,
		"synthetic": view.Synthetic,
	}
	if view.ID != "" {
		m["id"] = view.ID
	}
	if view.ProviderTimestamp != nil {
		m["providerTimestamp"] = float64(*view.ProviderTimestamp)
	}
	return m
}

func stringField(req *structpb.Struct, name string) string {
	if req == nil {
		return ""
	}
	return strings.TrimSpace(req.GetFields()[name].GetStringValue())
}

// amountField accepts the amount as a decimal string or a number
func amountField(req *structpb.Struct) (decimal.Decimal, error) {
	v, ok := req.GetFields()["amount"]
	if !ok {
		return decimal.Zero, errors.New("amount is required")
	}

	var amount decimal.Decimal
	switch kind := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		parsed, err := decimal.NewFromString(kind.StringValue)
		if err != nil {
			return decimal.Zero, err
		}
		amount = parsed
	case *structpb.Value_NumberValue:
		amount = decimal.NewFromFloat(kind.NumberValue)
	default:
		return decimal.Zero, errors.New("amount must be a string or number")
	}

	if amount.IsNegative() {
		return decimal.Zero, errors.New("amount must not be negative")
	}
	return amount, nil
}
