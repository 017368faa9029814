package domain

import "time"

// Plan enumerates the subscription tiers that gate conversions.
type Plan string

const (
	PlanFree Plan = "free"
	PlanPro  Plan = "pro"
)

// AnonymousSubject is used when no user email accompanies a request.
const AnonymousSubject = "anonymous"

// Valid reports whether the plan is a known tier.
func (p Plan) Valid() bool {
	return p == PlanFree || p == PlanPro
}

// Allows reports whether the plan satisfies the required tier.
func (p Plan) Allows(required Plan) bool {
	if required == PlanPro {
		return p == PlanPro
	}
	return true
}

// Entitlement describes a signed grant of a plan for a subject.
type Entitlement struct {
	Subject   string
	Plan      Plan
	LicenseID string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
