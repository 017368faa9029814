package units

import "github.com/spec-kit/converter-service/internal/domain"

// registry is the static unit table, keyed by lowercase symbol. Factors are
// relative to the family base unit: meters, grams, square meters, cubic
// meters, seconds. Temperature units carry no factor.
var registry = map[string]Unit{
	// length (base m); metric prefixes are free, imperial and the
	// sub-micro prefixes require pro.
	"mm": {Symbol: "mm", Family: FamilyLength, Factor: 0.001, Plan: domain.PlanFree},
	"cm": {Symbol: "cm", Family: FamilyLength, Factor: 0.01, Plan: domain.PlanFree},
	"m":  {Symbol: "m", Family: FamilyLength, Factor: 1.0, Plan: domain.PlanFree},
	"km": {Symbol: "km", Family: FamilyLength, Factor: 1000.0, Plan: domain.PlanFree},
	"in": {Symbol: "in", Family: FamilyLength, Factor: 0.0254, Plan: domain.PlanPro},
	"ft": {Symbol: "ft", Family: FamilyLength, Factor: 0.3048, Plan: domain.PlanPro},
	"yd": {Symbol: "yd", Family: FamilyLength, Factor: 0.9144, Plan: domain.PlanPro},
	"mi": {Symbol: "mi", Family: FamilyLength, Factor: 1609.344, Plan: domain.PlanPro},
	"nm": {Symbol: "nm", Family: FamilyLength, Factor: 1e-9, Plan: domain.PlanPro},
	"um": {Symbol: "um", Family: FamilyLength, Factor: 1e-6, Plan: domain.PlanPro},

	// weight (base g)
	"mg":  {Symbol: "mg", Family: FamilyWeight, Factor: 0.001, Plan: domain.PlanFree},
	"g":   {Symbol: "g", Family: FamilyWeight, Factor: 1.0, Plan: domain.PlanFree},
	"kg":  {Symbol: "kg", Family: FamilyWeight, Factor: 1000.0, Plan: domain.PlanFree},
	"lb":  {Symbol: "lb", Family: FamilyWeight, Factor: 453.59237, Plan: domain.PlanPro},
	"oz":  {Symbol: "oz", Family: FamilyWeight, Factor: 28.349523125, Plan: domain.PlanPro},
	"ton": {Symbol: "ton", Family: FamilyWeight, Factor: 1e6, Plan: domain.PlanPro},

	// temperature, affine
	"c": {Symbol: "C", Family: FamilyTemperature, Plan: domain.PlanFree},
	"f": {Symbol: "F", Family: FamilyTemperature, Plan: domain.PlanFree},
	"k": {Symbol: "K", Family: FamilyTemperature, Plan: domain.PlanFree},

	// area (base m2), pro only
	"m2":   {Symbol: "m2", Family: FamilyArea, Factor: 1.0, Plan: domain.PlanPro},
	"cm2":  {Symbol: "cm2", Family: FamilyArea, Factor: 1e-4, Plan: domain.PlanPro},
	"km2":  {Symbol: "km2", Family: FamilyArea, Factor: 1e6, Plan: domain.PlanPro},
	"ft2":  {Symbol: "ft2", Family: FamilyArea, Factor: 0.09290304, Plan: domain.PlanPro},
	"acre": {Symbol: "acre", Family: FamilyArea, Factor: 4046.8564224, Plan: domain.PlanPro},

	// volume (base m3), pro only
	"ml":  {Symbol: "ml", Family: FamilyVolume, Factor: 1e-6, Plan: domain.PlanPro},
	"l":   {Symbol: "l", Family: FamilyVolume, Factor: 1e-3, Plan: domain.PlanPro},
	"m3":  {Symbol: "m3", Family: FamilyVolume, Factor: 1.0, Plan: domain.PlanPro},
	"ft3": {Symbol: "ft3", Family: FamilyVolume, Factor: 0.028316846592, Plan: domain.PlanPro},
	"gal": {Symbol: "gal", Family: FamilyVolume, Factor: 0.003785411784, Plan: domain.PlanPro},

	// time (base s), pro only
	"ms":  {Symbol: "ms", Family: FamilyTime, Factor: 0.001, Plan: domain.PlanPro},
	"s":   {Symbol: "s", Family: FamilyTime, Factor: 1.0, Plan: domain.PlanPro},
	"min": {Symbol: "min", Family: FamilyTime, Factor: 60.0, Plan: domain.PlanPro},
	"h":   {Symbol: "h", Family: FamilyTime, Factor: 3600.0, Plan: domain.PlanPro},
	"day": {Symbol: "day", Family: FamilyTime, Factor: 86400.0, Plan: domain.PlanPro},
}
