package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/spec-kit/converter-service/internal/config"
	"github.com/spec-kit/converter-service/internal/domain"
	"github.com/spec-kit/converter-service/internal/observability"
)

var (
	// ErrInvalidLicense reports a definitive rejection by the provider.
	ErrInvalidLicense = errors.New("license rejected by provider")
	// ErrUnavailable reports that the provider could not be reached.
	ErrUnavailable = errors.New("license provider unavailable")
)

// LicenseCheck is the provider's verdict about a license.
type LicenseCheck struct {
	LicenseID        string
	Status           domain.LicenseStatus
	BillingPlan      domain.LicensePlan
	CurrentPeriodEnd *time.Time
}

// Client verifies licenses against the payment provider.
type Client interface {
	VerifyLicense(ctx context.Context, licenseKey string) (*LicenseCheck, error)
	LicenseStatus(ctx context.Context, licenseID string) (*LicenseCheck, error)
}

type dodoClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	maxRetries int
	breaker    *gobreaker.CircuitBreaker
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewDodoClient builds a client for the Dodo Payments license API. Calls run
// behind a circuit breaker; definitive rejections do not count as failures.
func NewDodoClient(cfg config.DodoConfig, logger *zap.Logger, metrics *observability.Metrics) Client {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "dodo",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("provider breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrInvalidLicense)
		},
	})

	return &dodoClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout()},
		maxRetries: cfg.MaxRetries,
		breaker:    breaker,
		logger:     logger,
		metrics:    metrics,
	}
}

type verifyRequest struct {
	LicenseKey string `json:"license_key"`
}

type licensePayload struct {
	LicenseID string     `json:"license_id"`
	Status    string     `json:"status"`
	Plan      string     `json:"plan"`
	ExpiresAt *time.Time `json:"expires_at"`
}

func (p *licensePayload) toCheck() *LicenseCheck {
	return &LicenseCheck{
		LicenseID:        p.LicenseID,
		Status:           domain.LicenseStatus(strings.ToLower(strings.TrimSpace(p.Status))),
		BillingPlan:      domain.LicensePlan(p.Plan),
		CurrentPeriodEnd: p.ExpiresAt,
	}
}

func (c *dodoClient) VerifyLicense(ctx context.Context, licenseKey string) (*LicenseCheck, error) {
	body, err := json.Marshal(verifyRequest{LicenseKey: licenseKey})
	if err != nil {
		return nil, err
	}
	return c.call(ctx, "verify_license", http.MethodPost, "/v1/licenses/verify", body)
}

func (c *dodoClient) LicenseStatus(ctx context.Context, licenseID string) (*LicenseCheck, error) {
	path := "/v1/licenses/status/" + url.PathEscape(licenseID)
	return c.call(ctx, "license_status", http.MethodGet, path, nil)
}

func (c *dodoClient) call(ctx context.Context, operation, method, path string, body []byte) (*LicenseCheck, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.doWithRetry(ctx, method, path, body)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = fmt.Errorf("%w: circuit open", ErrUnavailable)
		}
		c.metrics.RecordProviderCall(operation, callOutcome(err))
		c.logger.Warn("provider call failed",
			zap.String("operation", operation),
			zap.Error(err),
		)
		return nil, err
	}

	c.metrics.RecordProviderCall(operation, "ok")
	return result.(*LicenseCheck), nil
}

// doWithRetry retries transport failures and upstream 5xx once more; a
// definitive rejection is never retried.
func (c *dodoClient) doWithRetry(ctx context.Context, method, path string, body []byte) (*LicenseCheck, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		check, retryable, err := c.doOnce(ctx, method, path, body)
		if err == nil {
			return check, nil
		}
		lastErr = err
		if !retryable || ctx.Err() != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *dodoClient) doOnce(ctx context.Context, method, path string, body []byte) (*LicenseCheck, bool, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var payload licensePayload
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, false, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
		}
		return payload.toCheck(), false, nil
	case resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests:
		return nil, true, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	default:
		return nil, false, fmt.Errorf("%w: status %d", ErrInvalidLicense, resp.StatusCode)
	}
}

func callOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidLicense):
		return "rejected"
	default:
		return "unavailable"
	}
}
