package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/converter-service/internal/config"
	"github.com/spec-kit/converter-service/internal/events"
)

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventLicenseVerified, n.handleLicenseVerified)
	n.dispatcher.Subscribe(events.EventLicenseStatusChanged, n.handleLicenseStatusChanged)
	n.dispatcher.Subscribe(events.EventEntitlementDowngraded, n.handleEntitlementDowngraded)
	n.dispatcher.Subscribe(events.EventEntitlementRefreshed, n.handleEntitlementRefreshed)
}

func (n *NotificationService) handleLicenseVerified(ctx context.Context, event events.Event) error {
	n.logger.Info("LicenseVerified", zap.String("license_id", event.LicenseID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleLicenseStatusChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("LicenseStatusChanged", zap.String("license_id", event.LicenseID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleEntitlementDowngraded(ctx context.Context, event events.Event) error {
	n.logger.Info("EntitlementDowngraded", zap.String("license_id", event.LicenseID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleEntitlementRefreshed(ctx context.Context, event events.Event) error {
	n.logger.Debug("EntitlementRefreshed", zap.String("subject", event.Subject), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("license_id", event.LicenseID),
		zap.String("event_type", string(event.Type)))
}
