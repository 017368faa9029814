package events

import (
	"time"

	"github.com/spec-kit/converter-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventLicenseVerified       EventType = "license_verified"
	EventEntitlementRefreshed  EventType = "entitlement_refreshed"
	EventLicenseStatusChanged  EventType = "license_status_changed"
	EventEntitlementDowngraded EventType = "entitlement_downgraded"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Subject   string      `json:"subject"`
	LicenseID string      `json:"license_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// LicenseVerifiedPayload payload.
type LicenseVerifiedPayload struct {
	Plan     domain.LicensePlan   `json:"plan"`
	Status   domain.LicenseStatus `json:"status"`
	KeyLast4 string               `json:"key_last4,omitempty"`
}

// EntitlementRefreshedPayload payload.
type EntitlementRefreshedPayload struct {
	Plan      domain.Plan `json:"plan"`
	FromCache bool        `json:"from_cache"`
}

// LicenseStatusChangedPayload payload.
type LicenseStatusChangedPayload struct {
	OldStatus domain.LicenseStatus `json:"old_status"`
	NewStatus domain.LicenseStatus `json:"new_status"`
}

// EntitlementDowngradedPayload payload.
type EntitlementDowngradedPayload struct {
	Reason string `json:"reason"`
}
