package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/converter-service/internal/api/http/handlers"
	"github.com/spec-kit/converter-service/internal/config"
	"github.com/spec-kit/converter-service/internal/domain"
	"github.com/spec-kit/converter-service/internal/entitlement"
	"github.com/spec-kit/converter-service/internal/events"
	"github.com/spec-kit/converter-service/internal/observability"
	"github.com/spec-kit/converter-service/internal/persistence"
	"github.com/spec-kit/converter-service/internal/provider"
	"github.com/spec-kit/converter-service/internal/repository"
	"github.com/spec-kit/converter-service/internal/service"
)

type stubProviderClient struct {
	verifyFn func(ctx context.Context, key string) (*provider.LicenseCheck, error)
	statusFn func(ctx context.Context, id string) (*provider.LicenseCheck, error)
}

func (p *stubProviderClient) VerifyLicense(ctx context.Context, key string) (*provider.LicenseCheck, error) {
	return p.verifyFn(ctx, key)
}

func (p *stubProviderClient) LicenseStatus(ctx context.Context, id string) (*provider.LicenseCheck, error) {
	return p.statusFn(ctx, id)
}

type apiFixture struct {
	app      *fiber.App
	tokens   *entitlement.TokenManager
	provider *stubProviderClient
}

func newAPIFixture(t *testing.T, limiter *RateLimiter) *apiFixture {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := zap.NewNop()
	metrics := observability.NewMetrics()

	tokens := entitlement.NewTokenManager("router-test-secret", 24*time.Hour)
	prov := &stubProviderClient{}
	cache := repository.NewLicenseStatusCache(client, time.Minute)
	dispatcher := events.NewInMemoryDispatcher(logger)

	cfg := config.Config{License: config.LicenseConfig{KeyBcryptCost: bcrypt.MinCost}}
	conversionSvc := service.NewConversionService(logger, metrics)
	licenseSvc := service.NewLicenseService(cfg, service.LicenseDependencies{
		Provider:    prov,
		StatusCache: cache,
		Tokens:      tokens,
		Dispatcher:  dispatcher,
	}, logger)

	if limiter == nil {
		limiter = NewRateLimiter(100, 100)
	}

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 5*time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:      handlers.NewHealthHandler("converter-service", "test", &persistence.Postgres{}, &persistence.Redis{Client: client}),
		Convert:     handlers.NewConvertHandler(conversionSvc),
		License:     handlers.NewLicenseHandler(licenseSvc),
		Entitlement: handlers.NewEntitlementHandler(),
		Pricing:     handlers.NewPricingHandler(),
		Middleware:  entitlement.NewMiddleware(tokens),
		Limiter:     limiter,
	})

	return &apiFixture{app: app, tokens: tokens, provider: prov}
}

func (f *apiFixture) request(t *testing.T, method, path string, body any, token string) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := f.app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	parsed := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &parsed), "body: %s", raw)
	}
	return resp.StatusCode, parsed
}

func errorCode(t *testing.T, body map[string]any) string {
	t.Helper()
	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok, "expected error envelope, got %v", body)
	code, _ := errObj["code"].(string)
	return code
}

func dataObject(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	data, ok := body["data"].(map[string]any)
	require.True(t, ok, "expected data envelope, got %v", body)
	return data
}

func grantActive(f *apiFixture, licenseID string) {
	end := time.Now().Add(30 * 24 * time.Hour)
	check := &provider.LicenseCheck{
		LicenseID:        licenseID,
		Status:           domain.LicenseStatusActive,
		BillingPlan:      domain.LicensePlanProMonth,
		CurrentPeriodEnd: &end,
	}
	f.provider.verifyFn = func(_ context.Context, _ string) (*provider.LicenseCheck, error) { return check, nil }
	f.provider.statusFn = func(_ context.Context, _ string) (*provider.LicenseCheck, error) { return check, nil }
}

func TestConvertEndpointFreeUnits(t *testing.T) {
	f := newAPIFixture(t, nil)

	status, body := f.request(t, http.MethodPost, "/api/convert",
		map[string]any{"value": 1000, "from_unit": "m", "to_unit": "km"}, "")
	require.Equal(t, http.StatusOK, status)

	data := dataObject(t, body)
	assert.InDelta(t, 1.0, data["result"], 1e-9)
	assert.Equal(t, "free", data["plan"])
}

func TestConvertEndpointProUnitWithoutToken(t *testing.T) {
	f := newAPIFixture(t, nil)

	status, body := f.request(t, http.MethodPost, "/api/convert",
		map[string]any{"value": 1, "from_unit": "in", "to_unit": "cm"}, "")
	require.Equal(t, http.StatusPaymentRequired, status)
	assert.Equal(t, "PAYMENT_REQUIRED", errorCode(t, body))
	assert.Equal(t, service.UpgradeMessage, body["error"].(map[string]any)["message"])
}

func TestConvertEndpointProToken(t *testing.T) {
	f := newAPIFixture(t, nil)

	token, _, err := f.tokens.Issue("user@example.com", domain.PlanPro, "lic_1")
	require.NoError(t, err)

	status, body := f.request(t, http.MethodPost, "/api/convert",
		map[string]any{"value": 1, "from_unit": "in", "to_unit": "cm"}, token)
	require.Equal(t, http.StatusOK, status)

	data := dataObject(t, body)
	assert.InDelta(t, 2.54, data["result"], 1e-9)
	assert.Equal(t, "pro", data["plan"])
}

func TestConvertEndpointExpiredTokenFallsBackToFree(t *testing.T) {
	f := newAPIFixture(t, nil)

	expired := entitlement.NewTokenManager("router-test-secret", time.Nanosecond)
	token, _, err := expired.Issue("user@example.com", domain.PlanPro, "lic_1")
	require.NoError(t, err)

	// Free conversions still work on a stale token.
	status, body := f.request(t, http.MethodPost, "/api/convert",
		map[string]any{"value": 1, "from_unit": "kg", "to_unit": "g"}, token)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "free", dataObject(t, body)["plan"])

	// Pro conversions do not.
	status, body = f.request(t, http.MethodPost, "/api/convert",
		map[string]any{"value": 1, "from_unit": "in", "to_unit": "cm"}, token)
	require.Equal(t, http.StatusPaymentRequired, status)
	assert.Equal(t, "PAYMENT_REQUIRED", errorCode(t, body))
}

func TestConvertEndpointGarbageTokenFallsBackToFree(t *testing.T) {
	f := newAPIFixture(t, nil)

	status, body := f.request(t, http.MethodPost, "/api/convert",
		map[string]any{"value": 1, "from_unit": "mi", "to_unit": "km"}, "not-a-jwt")
	require.Equal(t, http.StatusPaymentRequired, status)
	assert.Equal(t, "PAYMENT_REQUIRED", errorCode(t, body))
}

func TestConvertEndpointUnknownUnit(t *testing.T) {
	f := newAPIFixture(t, nil)

	status, body := f.request(t, http.MethodPost, "/api/convert",
		map[string]any{"value": 1, "from_unit": "furlong", "to_unit": "m"}, "")
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_UNIT", errorCode(t, body))
}

func TestConvertEndpointIncompatibleUnits(t *testing.T) {
	f := newAPIFixture(t, nil)

	// Family mismatch wins over plan gating even for pro-only units.
	status, body := f.request(t, http.MethodPost, "/api/convert",
		map[string]any{"value": 1, "from_unit": "ft", "to_unit": "kg"}, "")
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INCOMPATIBLE_UNITS", errorCode(t, body))
}

func TestConvertEndpointValidation(t *testing.T) {
	f := newAPIFixture(t, nil)

	cases := []struct {
		name string
		body map[string]any
	}{
		{name: "missing value", body: map[string]any{"from_unit": "m", "to_unit": "km"}},
		{name: "missing from_unit", body: map[string]any{"value": 1, "to_unit": "km"}},
		{name: "missing to_unit", body: map[string]any{"value": 1, "from_unit": "m"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := f.request(t, http.MethodPost, "/api/convert", tc.body, "")
			require.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, "VALIDATION_FAILED", errorCode(t, body))
		})
	}
}

func TestConvertEndpointMalformedBody(t *testing.T) {
	f := newAPIFixture(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/convert", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLicenseVerifyEndpoint(t *testing.T) {
	f := newAPIFixture(t, nil)
	grantActive(f, "lic_9")

	status, body := f.request(t, http.MethodPost, "/api/license/verify",
		map[string]any{"license_key": "DODO-KEY-9", "user_email": "user@example.com"}, "")
	require.Equal(t, http.StatusOK, status)

	data := dataObject(t, body)
	assert.Equal(t, "pro", data["plan"])
	assert.InDelta(t, float64(time.Now().Add(24*time.Hour).Unix()), data["expires_at"], 10)

	tokenStr, _ := data["entitlement_token"].(string)
	claims, err := f.tokens.Verify(tokenStr)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", claims.Subject)
	assert.Equal(t, domain.PlanPro, claims.Plan)
	assert.Equal(t, "lic_9", claims.LicenseID)
}

func TestLicenseVerifyEndpointRejected(t *testing.T) {
	f := newAPIFixture(t, nil)
	f.provider.verifyFn = func(_ context.Context, _ string) (*provider.LicenseCheck, error) {
		return nil, provider.ErrInvalidLicense
	}

	status, body := f.request(t, http.MethodPost, "/api/license/verify",
		map[string]any{"license_key": "BAD-KEY"}, "")
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_LICENSE", errorCode(t, body))
}

func TestLicenseVerifyEndpointProviderDown(t *testing.T) {
	f := newAPIFixture(t, nil)
	f.provider.verifyFn = func(_ context.Context, _ string) (*provider.LicenseCheck, error) {
		return nil, provider.ErrUnavailable
	}

	status, body := f.request(t, http.MethodPost, "/api/license/verify",
		map[string]any{"license_key": "DODO-KEY-9"}, "")
	require.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "PROVIDER_UNAVAILABLE", errorCode(t, body))
}

func TestLicenseVerifyEndpointValidation(t *testing.T) {
	f := newAPIFixture(t, nil)

	status, body := f.request(t, http.MethodPost, "/api/license/verify",
		map[string]any{"user_email": "user@example.com"}, "")
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, body))
}

func TestRefreshEndpointActiveLicense(t *testing.T) {
	f := newAPIFixture(t, nil)
	grantActive(f, "lic_10")

	stale := entitlement.NewTokenManager("router-test-secret", time.Nanosecond)
	token, _, err := stale.Issue("user@example.com", domain.PlanPro, "lic_10")
	require.NoError(t, err)

	status, body := f.request(t, http.MethodPost, "/api/entitlement/refresh",
		map[string]any{"entitlement_token": token}, "")
	require.Equal(t, http.StatusOK, status)

	data := dataObject(t, body)
	assert.Equal(t, "pro", data["plan"])

	claims, err := f.tokens.Verify(data["entitlement_token"].(string))
	require.NoError(t, err)
	assert.Equal(t, "lic_10", claims.LicenseID)
}

func TestRefreshEndpointCanceledLicense(t *testing.T) {
	f := newAPIFixture(t, nil)
	f.provider.statusFn = func(_ context.Context, _ string) (*provider.LicenseCheck, error) {
		return &provider.LicenseCheck{LicenseID: "lic_11", Status: domain.LicenseStatusCanceled}, nil
	}

	token, _, err := f.tokens.Issue("user@example.com", domain.PlanPro, "lic_11")
	require.NoError(t, err)

	status, body := f.request(t, http.MethodPost, "/api/entitlement/refresh",
		map[string]any{"entitlement_token": token}, "")
	require.Equal(t, http.StatusOK, status)

	data := dataObject(t, body)
	assert.Equal(t, "free", data["plan"])

	claims, err := f.tokens.Verify(data["entitlement_token"].(string))
	require.NoError(t, err)
	assert.Empty(t, claims.LicenseID)
	assert.Equal(t, domain.PlanFree, claims.Plan)
}

func TestRefreshEndpointProviderDown(t *testing.T) {
	f := newAPIFixture(t, nil)
	f.provider.statusFn = func(_ context.Context, _ string) (*provider.LicenseCheck, error) {
		return nil, provider.ErrUnavailable
	}

	token, _, err := f.tokens.Issue("user@example.com", domain.PlanPro, "lic_12")
	require.NoError(t, err)

	status, body := f.request(t, http.MethodPost, "/api/entitlement/refresh",
		map[string]any{"entitlement_token": token}, "")
	require.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "PROVIDER_UNAVAILABLE", errorCode(t, body))
}

func TestRefreshEndpointInvalidToken(t *testing.T) {
	f := newAPIFixture(t, nil)

	status, body := f.request(t, http.MethodPost, "/api/entitlement/refresh",
		map[string]any{"entitlement_token": "garbage"}, "")
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_TOKEN", errorCode(t, body))
}

func TestRefreshEndpointValidation(t *testing.T) {
	f := newAPIFixture(t, nil)

	status, body := f.request(t, http.MethodPost, "/api/entitlement/refresh",
		map[string]any{}, "")
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, body))
}

func TestEntitlementStatusEndpoint(t *testing.T) {
	f := newAPIFixture(t, nil)

	token, _, err := f.tokens.Issue("user@example.com", domain.PlanPro, "lic_13")
	require.NoError(t, err)

	status, body := f.request(t, http.MethodGet, "/api/entitlement", nil, token)
	require.Equal(t, http.StatusOK, status)

	data := dataObject(t, body)
	assert.Equal(t, "user@example.com", data["subject"])
	assert.Equal(t, "pro", data["plan"])
	assert.Equal(t, "lic_13", data["license_id"])
}

func TestEntitlementStatusEndpointMissingToken(t *testing.T) {
	f := newAPIFixture(t, nil)

	status, body := f.request(t, http.MethodGet, "/api/entitlement", nil, "")
	require.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, body))
}

func TestEntitlementStatusEndpointExpiredToken(t *testing.T) {
	f := newAPIFixture(t, nil)

	expired := entitlement.NewTokenManager("router-test-secret", time.Nanosecond)
	token, _, err := expired.Issue("user@example.com", domain.PlanPro, "lic_14")
	require.NoError(t, err)

	status, body := f.request(t, http.MethodGet, "/api/entitlement", nil, token)
	require.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "TOKEN_EXPIRED", errorCode(t, body))
}

func TestEntitlementStatusEndpointInvalidToken(t *testing.T) {
	f := newAPIFixture(t, nil)

	status, body := f.request(t, http.MethodGet, "/api/entitlement", nil, "garbage")
	require.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "INVALID_TOKEN", errorCode(t, body))
}

func TestPricingEndpoint(t *testing.T) {
	f := newAPIFixture(t, nil)

	status, body := f.request(t, http.MethodGet, "/api/pricing", nil, "")
	require.Equal(t, http.StatusOK, status)

	data := dataObject(t, body)
	assert.Equal(t, "USD", data["currency"])
	assert.Equal(t, "Dodo", data["provider"])

	monthly, ok := data["monthly"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 3, monthly["price"], 0)
	assert.Equal(t, "month", monthly["interval"])

	yearly, ok := data["yearly"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 30, yearly["price"], 0)
	assert.Equal(t, "year", yearly["interval"])
}

func TestRootAndHealthEndpoints(t *testing.T) {
	f := newAPIFixture(t, nil)

	status, body := f.request(t, http.MethodGet, "/", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Toolkit Converter backend ready", body["message"])
	assert.Equal(t, "converter-service", body["service"])

	status, body = f.request(t, http.MethodGet, "/health/live", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alive", body["status"])

	status, body = f.request(t, http.MethodGet, "/health/ready", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ready", body["status"])

	deps, ok := body["dependencies"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "disabled", deps["postgres"])
	assert.Equal(t, "ok", deps["redis"])
}

func TestLicenseEndpointsRateLimited(t *testing.T) {
	f := newAPIFixture(t, NewRateLimiter(0.0001, 2))
	grantActive(f, "lic_15")

	for i := 0; i < 2; i++ {
		status, _ := f.request(t, http.MethodPost, "/api/license/verify",
			map[string]any{"license_key": "DODO-KEY-15"}, "")
		require.Equal(t, http.StatusOK, status, "request %d within burst", i+1)
	}

	status, body := f.request(t, http.MethodPost, "/api/license/verify",
		map[string]any{"license_key": "DODO-KEY-15"}, "")
	require.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "RATE_LIMITED", errorCode(t, body))
}
