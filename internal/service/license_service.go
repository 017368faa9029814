package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/converter-service/internal/config"
	"github.com/spec-kit/converter-service/internal/domain"
	"github.com/spec-kit/converter-service/internal/entitlement"
	"github.com/spec-kit/converter-service/internal/events"
	"github.com/spec-kit/converter-service/internal/provider"
	"github.com/spec-kit/converter-service/internal/repository"
	apperrors "github.com/spec-kit/converter-service/pkg/util/errorutil"
)

// EntitlementGrant bundles an issued token with its metadata.
type EntitlementGrant struct {
	Token     string
	Plan      domain.Plan
	ExpiresAt time.Time
}

// LicenseService coordinates license verification and entitlement refresh.
type LicenseService struct {
	provider   provider.Client
	licenses   repository.LicenseRepository
	cache      repository.LicenseStatusCache
	tokens     *entitlement.TokenManager
	dispatcher events.Dispatcher
	bcryptCost int
	logger     *zap.Logger
	now        func() time.Time
}

// LicenseDependencies encapsulates collaborator requirements. Licenses may be
// nil when no database is configured; persistence is best effort either way.
type LicenseDependencies struct {
	Provider    provider.Client
	Licenses    repository.LicenseRepository
	StatusCache repository.LicenseStatusCache
	Tokens      *entitlement.TokenManager
	Dispatcher  events.Dispatcher
}

// NewLicenseService builds the service.
func NewLicenseService(cfg config.Config, deps LicenseDependencies, logger *zap.Logger) *LicenseService {
	return &LicenseService{
		provider:   deps.Provider,
		licenses:   deps.Licenses,
		cache:      deps.StatusCache,
		tokens:     deps.Tokens,
		dispatcher: deps.Dispatcher,
		bcryptCost: cfg.License.KeyBcryptCost,
		logger:     logger,
		now:        time.Now,
	}
}

// VerifyLicense checks a purchased key with the provider and grants a pro
// entitlement when the license is active. Persisting the license record never
// blocks the grant.
func (s *LicenseService) VerifyLicense(ctx context.Context, licenseKey, userEmail string) (*EntitlementGrant, error) {
	licenseKey = strings.TrimSpace(licenseKey)
	if licenseKey == "" {
		return nil, apperrors.NewValidationError("license_key is required", nil)
	}

	check, err := s.provider.VerifyLicense(ctx, licenseKey)
	if err != nil {
		return nil, mapProviderError(err)
	}
	if check.Status != domain.LicenseStatusActive {
		return nil, apperrors.NewInvalidLicense("license is not active")
	}

	subject := strings.ToLower(strings.TrimSpace(userEmail))
	if subject == "" {
		subject = domain.AnonymousSubject
	}

	s.persistVerifiedLicense(ctx, check, licenseKey, subject)

	if cacheErr := s.cache.Set(ctx, check.LicenseID, repository.LicenseStatusEntry{Status: check.Status, CheckedAt: s.now().UTC()}); cacheErr != nil {
		s.logger.Debug("status cache set failed", zap.Error(cacheErr))
	}

	token, expiresAt, err := s.tokens.Issue(subject, domain.PlanPro, check.LicenseID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:      events.EventLicenseVerified,
		Subject:   subject,
		LicenseID: check.LicenseID,
		Payload: events.LicenseVerifiedPayload{
			Plan:     check.BillingPlan,
			Status:   check.Status,
			KeyLast4: entitlement.KeyLast4(licenseKey),
		},
	})

	return &EntitlementGrant{Token: token, Plan: domain.PlanPro, ExpiresAt: expiresAt}, nil
}

// Refresh re-validates a token holder's license and issues a fresh token.
// Expired tokens are accepted as long as the signature checks out; the
// provider verdict decides the new plan.
func (s *LicenseService) Refresh(ctx context.Context, tokenStr string) (*EntitlementGrant, error) {
	claims, err := s.tokens.VerifyIgnoreExpiry(tokenStr)
	if err != nil {
		return nil, apperrors.NewDomainError("INVALID_TOKEN", "invalid entitlement token", http.StatusBadRequest, nil)
	}

	subject := claims.Subject
	if subject == "" {
		subject = domain.AnonymousSubject
	}

	if claims.LicenseID == "" {
		return s.issueRefreshed(ctx, subject, domain.PlanFree, "", false)
	}

	var (
		status    domain.LicenseStatus
		fromCache bool
	)
	if entry, ok := s.cache.Get(ctx, claims.LicenseID); ok {
		status = entry.Status
		fromCache = true
	} else {
		check, err := s.provider.LicenseStatus(ctx, claims.LicenseID)
		if err != nil {
			return nil, mapProviderError(err)
		}
		status = check.Status

		if cacheErr := s.cache.Set(ctx, claims.LicenseID, repository.LicenseStatusEntry{Status: status, CheckedAt: s.now().UTC()}); cacheErr != nil {
			s.logger.Debug("status cache set failed", zap.Error(cacheErr))
		}
		s.recordRefreshedStatus(ctx, claims.LicenseID, check)
	}

	if status == domain.LicenseStatusActive {
		return s.issueRefreshed(ctx, subject, domain.PlanPro, claims.LicenseID, fromCache)
	}

	s.publishEvent(ctx, events.Event{
		Type:      events.EventEntitlementDowngraded,
		Subject:   subject,
		LicenseID: claims.LicenseID,
		Payload:   events.EntitlementDowngradedPayload{Reason: string(status)},
	})
	return s.issueRefreshed(ctx, subject, domain.PlanFree, "", fromCache)
}

// IssueFree grants an anonymous free-tier token.
func (s *LicenseService) IssueFree(ctx context.Context, subject string) (*EntitlementGrant, error) {
	return s.issueRefreshed(ctx, subject, domain.PlanFree, "", false)
}

func (s *LicenseService) issueRefreshed(ctx context.Context, subject string, plan domain.Plan, licenseID string, fromCache bool) (*EntitlementGrant, error) {
	token, expiresAt, err := s.tokens.Issue(subject, plan, licenseID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:      events.EventEntitlementRefreshed,
		Subject:   subject,
		LicenseID: licenseID,
		Payload:   events.EntitlementRefreshedPayload{Plan: plan, FromCache: fromCache},
	})
	return &EntitlementGrant{Token: token, Plan: plan, ExpiresAt: expiresAt}, nil
}

// persistVerifiedLicense upserts the license record keyed by the provider's
// license id. Failures are logged and swallowed.
func (s *LicenseService) persistVerifiedLicense(ctx context.Context, check *provider.LicenseCheck, licenseKey, subject string) {
	if s.licenses == nil {
		return
	}
	now := s.now().UTC()

	existing, err := s.licenses.GetByProviderLicenseID(ctx, check.LicenseID)
	switch {
	case err == nil:
		oldStatus := existing.Status
		if subject != domain.AnonymousSubject {
			existing.UserEmail = subject
		}
		if check.BillingPlan != "" {
			existing.Plan = check.BillingPlan
		}
		existing.Status = check.Status
		existing.CurrentPeriodEnd = check.CurrentPeriodEnd
		existing.LastVerifiedAt = now
		if err := s.licenses.Update(ctx, existing); err != nil {
			s.logger.Warn("license update failed", zap.String("license_id", check.LicenseID), zap.Error(err))
			return
		}
		if oldStatus != existing.Status {
			s.publishStatusChanged(ctx, existing.UserEmail, check.LicenseID, oldStatus, existing.Status)
		}
	case errors.Is(err, pgx.ErrNoRows):
		hash, hashErr := entitlement.HashLicenseKey(licenseKey, s.bcryptCost)
		if hashErr != nil {
			s.logger.Warn("license key hash failed", zap.Error(hashErr))
			return
		}
		record := &domain.License{
			UserEmail:         subject,
			ProviderLicenseID: check.LicenseID,
			KeyHash:           hash,
			KeyLast4:          entitlement.KeyLast4(licenseKey),
			Plan:              check.BillingPlan,
			Status:            check.Status,
			Provider:          domain.ProviderDodo,
			CurrentPeriodEnd:  check.CurrentPeriodEnd,
			LastVerifiedAt:    now,
		}
		if err := s.licenses.Create(ctx, record); err != nil {
			s.logger.Warn("license create failed", zap.String("license_id", check.LicenseID), zap.Error(err))
		}
	default:
		s.logger.Warn("license lookup failed", zap.String("license_id", check.LicenseID), zap.Error(err))
	}
}

// recordRefreshedStatus mirrors a provider verdict onto the stored record.
func (s *LicenseService) recordRefreshedStatus(ctx context.Context, licenseID string, check *provider.LicenseCheck) {
	if s.licenses == nil {
		return
	}

	existing, err := s.licenses.GetByProviderLicenseID(ctx, licenseID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn("license lookup failed", zap.String("license_id", licenseID), zap.Error(err))
		}
		return
	}
	if existing.Status == check.Status {
		return
	}

	oldStatus := existing.Status
	existing.Status = check.Status
	if check.BillingPlan != "" {
		existing.Plan = check.BillingPlan
	}
	existing.CurrentPeriodEnd = check.CurrentPeriodEnd
	existing.LastVerifiedAt = s.now().UTC()
	if err := s.licenses.Update(ctx, existing); err != nil {
		s.logger.Warn("license update failed", zap.String("license_id", licenseID), zap.Error(err))
		return
	}
	s.publishStatusChanged(ctx, existing.UserEmail, licenseID, oldStatus, check.Status)
}

func (s *LicenseService) publishStatusChanged(ctx context.Context, subject, licenseID string, oldStatus, newStatus domain.LicenseStatus) {
	s.publishEvent(ctx, events.Event{
		Type:      events.EventLicenseStatusChanged,
		Subject:   subject,
		LicenseID: licenseID,
		Payload:   events.LicenseStatusChangedPayload{OldStatus: oldStatus, NewStatus: newStatus},
	})
}

func (s *LicenseService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func mapProviderError(err error) error {
	switch {
	case errors.Is(err, provider.ErrUnavailable):
		return apperrors.NewProviderUnavailable(err)
	case errors.Is(err, provider.ErrInvalidLicense):
		return apperrors.NewInvalidLicense("license rejected by provider")
	default:
		return apperrors.NewInternalError(err)
	}
}
