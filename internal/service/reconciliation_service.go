package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/converter-service/internal/domain"
	"github.com/spec-kit/converter-service/internal/events"
	"github.com/spec-kit/converter-service/internal/provider"
	"github.com/spec-kit/converter-service/internal/repository"
)

const reconcilePageSize = 100

// ReconciliationService re-checks stored active licenses against the
// provider so canceled subscriptions stop granting pro on the next refresh.
type ReconciliationService struct {
	provider   provider.Client
	licenses   repository.LicenseRepository
	cache      repository.LicenseStatusCache
	dispatcher events.Dispatcher
	logger     *zap.Logger
	pageSize   int
	now        func() time.Time
}

// NewReconciliationService builds the service.
func NewReconciliationService(providerClient provider.Client, licenses repository.LicenseRepository, cache repository.LicenseStatusCache, dispatcher events.Dispatcher, logger *zap.Logger) *ReconciliationService {
	return &ReconciliationService{
		provider:   providerClient,
		licenses:   licenses,
		cache:      cache,
		dispatcher: dispatcher,
		logger:     logger,
		pageSize:   reconcilePageSize,
		now:        time.Now,
	}
}

// Run walks every active license and records the provider's verdict. The run
// aborts when the provider is unreachable; untouched records keep their
// current status until the next run.
func (s *ReconciliationService) Run(ctx context.Context) error {
	if s.licenses == nil {
		return nil
	}

	active, err := s.collectActive(ctx)
	if err != nil {
		return err
	}

	checked, changed := 0, 0
	for _, record := range active {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		check, err := s.provider.LicenseStatus(ctx, record.ProviderLicenseID)
		if err != nil {
			if errors.Is(err, provider.ErrUnavailable) {
				s.logger.Warn("reconciliation aborted, provider unavailable", zap.Error(err))
				return err
			}
			if errors.Is(err, provider.ErrInvalidLicense) {
				// Provider no longer recognizes the license.
				check = &provider.LicenseCheck{LicenseID: record.ProviderLicenseID, Status: domain.LicenseStatusExpired}
			} else {
				return err
			}
		}
		checked++

		if record.Status == check.Status {
			continue
		}

		oldStatus := record.Status
		record.Status = check.Status
		if check.BillingPlan != "" {
			record.Plan = check.BillingPlan
		}
		record.CurrentPeriodEnd = check.CurrentPeriodEnd
		record.LastVerifiedAt = s.now().UTC()
		if err := s.licenses.Update(ctx, record); err != nil {
			s.logger.Warn("license update failed", zap.String("license_id", record.ProviderLicenseID), zap.Error(err))
			continue
		}
		changed++

		if cacheErr := s.cache.Invalidate(ctx, record.ProviderLicenseID); cacheErr != nil {
			s.logger.Debug("status cache invalidate failed", zap.Error(cacheErr))
		}
		s.publishStatusChanged(ctx, record, oldStatus)
	}

	s.logger.Info("license reconciliation completed", zap.Int("checked", checked), zap.Int("changed", changed))
	return nil
}

func (s *ReconciliationService) collectActive(ctx context.Context) ([]*domain.License, error) {
	var all []*domain.License
	offset := 0
	for {
		page, err := s.licenses.ListByStatus(ctx, domain.LicenseStatusActive, s.pageSize, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < s.pageSize {
			return all, nil
		}
		offset += len(page)
	}
}

func (s *ReconciliationService) publishStatusChanged(ctx context.Context, record *domain.License, oldStatus domain.LicenseStatus) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventLicenseStatusChanged,
		Subject:   record.UserEmail,
		LicenseID: record.ProviderLicenseID,
		Timestamp: s.now(),
		Payload:   events.LicenseStatusChangedPayload{OldStatus: oldStatus, NewStatus: record.Status},
	})
}
