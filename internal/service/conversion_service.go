package service

import (
	"math"

	"go.uber.org/zap"

	"github.com/spec-kit/converter-service/internal/domain"
	"github.com/spec-kit/converter-service/internal/observability"
	"github.com/spec-kit/converter-service/internal/units"
	apperrors "github.com/spec-kit/converter-service/pkg/util/errorutil"
)

// UpgradeMessage accompanies rejections of pro-only conversions.
const UpgradeMessage = "Pro required for this conversion. Upgrade for $3/month or $30/year."

// ConversionResult describes a completed conversion.
type ConversionResult struct {
	Result float64
	Plan   domain.Plan
}

// ConversionService executes unit conversions with plan gating.
type ConversionService struct {
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewConversionService builds the service.
func NewConversionService(logger *zap.Logger, metrics *observability.Metrics) *ConversionService {
	return &ConversionService{logger: logger, metrics: metrics}
}

// Convert resolves both units and computes the result under the caller's
// plan. Unit and compatibility validation run before plan gating so a free
// caller mixing families gets a validation error, not an upsell.
func (s *ConversionService) Convert(plan domain.Plan, value float64, fromSymbol, toSymbol string) (*ConversionResult, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, apperrors.NewValidationError("value must be a finite number", nil)
	}

	from, ok := units.Lookup(fromSymbol)
	if !ok {
		return nil, apperrors.NewInvalidUnit(fromSymbol)
	}
	to, ok := units.Lookup(toSymbol)
	if !ok {
		return nil, apperrors.NewInvalidUnit(toSymbol)
	}

	if from.Family != to.Family {
		return nil, apperrors.NewIncompatibleUnits(string(from.Family), string(to.Family))
	}

	if required := units.RequiredPlan(from, to); !plan.Allows(required) {
		return nil, apperrors.NewPaymentRequired(UpgradeMessage)
	}

	result, err := units.ConvertUnits(value, from, to)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error(), nil)
	}

	s.metrics.RecordConversion(string(from.Family), string(plan))
	s.logger.Debug("conversion computed",
		zap.String("from", from.Symbol),
		zap.String("to", to.Symbol),
		zap.String("plan", string(plan)),
	)
	return &ConversionResult{Result: result, Plan: plan}, nil
}
