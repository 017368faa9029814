package dto

import "time"

// LicenseVerifyRequest payload for verifying a purchased license key.
type LicenseVerifyRequest struct {
	LicenseKey string `json:"license_key"`
	UserEmail  string `json:"user_email,omitempty"`
}

// RefreshRequest payload for renewing an entitlement token.
type RefreshRequest struct {
	EntitlementToken string `json:"entitlement_token"`
}

// EntitlementTokenResponse standard response for token-granting endpoints.
// ExpiresAt is a unix timestamp in seconds.
type EntitlementTokenResponse struct {
	EntitlementToken string `json:"entitlement_token"`
	Plan             string `json:"plan"`
	ExpiresAt        int64  `json:"expires_at"`
}

// EntitlementStatusResponse describes the verified claims of a token.
type EntitlementStatusResponse struct {
	Subject   string    `json:"subject"`
	Plan      string    `json:"plan"`
	LicenseID string    `json:"license_id,omitempty"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
