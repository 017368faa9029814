package units

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/spec-kit/converter-service/internal/domain"
)

// Family groups units that convert among each other.
type Family string

const (
	FamilyLength      Family = "length"
	FamilyWeight      Family = "weight"
	FamilyTemperature Family = "temperature"
	FamilyArea        Family = "area"
	FamilyVolume      Family = "volume"
	FamilyTime        Family = "time"
)

var (
	// ErrUnknownUnit reports a symbol missing from the registry.
	ErrUnknownUnit = errors.New("unknown unit")
	// ErrIncompatibleUnits reports a conversion across unit families.
	ErrIncompatibleUnits = errors.New("incompatible unit families")
	// ErrNonFiniteValue reports a NaN or infinite input value.
	ErrNonFiniteValue = errors.New("value must be a finite number")
)

// Unit describes a registered unit: its family, the multiplicative factor to
// the family base unit, and the minimum plan allowed to use it. Temperature
// units have no factor; they convert through affine formulas.
type Unit struct {
	Symbol string
	Family Family
	Factor float64
	Plan   domain.Plan
}

// Lookup resolves a unit symbol case-insensitively.
func Lookup(symbol string) (Unit, bool) {
	u, ok := registry[strings.ToLower(strings.TrimSpace(symbol))]
	return u, ok
}

// RequiredPlan returns the plan needed to convert between the two units.
func RequiredPlan(from, to Unit) domain.Plan {
	if from.Plan == domain.PlanPro || to.Plan == domain.PlanPro {
		return domain.PlanPro
	}
	return domain.PlanFree
}

// Convert transforms value between two registered units of the same family.
// Unit resolution and family compatibility are checked before any arithmetic.
func Convert(value float64, fromSymbol, toSymbol string) (float64, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, ErrNonFiniteValue
	}
	from, ok := Lookup(fromSymbol)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownUnit, fromSymbol)
	}
	to, ok := Lookup(toSymbol)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownUnit, toSymbol)
	}
	return ConvertUnits(value, from, to)
}

// ConvertUnits transforms value between two already resolved units.
func ConvertUnits(value float64, from, to Unit) (float64, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, ErrNonFiniteValue
	}
	if from.Family != to.Family {
		return 0, fmt.Errorf("%w: %s vs %s", ErrIncompatibleUnits, from.Family, to.Family)
	}
	if from.Family == FamilyTemperature {
		return convertTemperature(value, from.Symbol, to.Symbol), nil
	}
	return value * (from.Factor / to.Factor), nil
}

// convertTemperature pivots through Celsius for the affine temperature scales.
func convertTemperature(value float64, from, to string) float64 {
	if from == to {
		return value
	}

	var celsius float64
	switch from {
	case "C":
		celsius = value
	case "F":
		celsius = (value - 32) * 5 / 9
	case "K":
		celsius = value - 273.15
	}

	switch to {
	case "F":
		return celsius*9/5 + 32
	case "K":
		return celsius + 273.15
	default:
		return celsius
	}
}
