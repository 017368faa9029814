package domain

import "time"

// LicenseStatus represents the provider-reported lifecycle of a license.
type LicenseStatus string

const (
	LicenseStatusActive   LicenseStatus = "active"
	LicenseStatusCanceled LicenseStatus = "canceled"
	LicenseStatusExpired  LicenseStatus = "expired"
	LicenseStatusTrial    LicenseStatus = "trial"
)

// LicensePlan identifies the billing interval sold by the provider.
type LicensePlan string

const (
	LicensePlanProMonth LicensePlan = "pro-month"
	LicensePlanProYear  LicensePlan = "pro-year"
)

// ProviderDodo tags records verified against Dodo Payments.
const ProviderDodo = "dodo"

// License is the stored record of a verified license key. The raw key is
// never persisted; only a bcrypt hash and the last four characters are kept.
type License struct {
	ID                string
	UserEmail         string
	ProviderLicenseID string
	KeyHash           string
	KeyLast4          string
	Plan              LicensePlan
	Status            LicenseStatus
	Provider          string
	CurrentPeriodEnd  *time.Time
	LastVerifiedAt    time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// EntitlementPlan maps the license status to the plan it grants.
func (l *License) EntitlementPlan() Plan {
	if l.Status == LicenseStatusActive {
		return PlanPro
	}
	return PlanFree
}
