// internal/router/router_test.go
package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/javajoker/datasov-backend/internal/config"
	"github.com/javajoker/datasov-backend/internal/events"
	"github.com/javajoker/datasov-backend/internal/metrics"
	"github.com/javajoker/datasov-backend/internal/models"
	"github.com/javajoker/datasov-backend/internal/repository"
)

const (
	adminSecret  = "Admin#2024"
	memberSecret = "Passw0rd!"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

type RouterTestSuite struct {
	suite.Suite
	store    *repository.MemoryStore
	recorder *events.Recorder
	router   *gin.Engine
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}

func (suite *RouterTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	suite.store = repository.NewMemoryStore()
	suite.recorder = &events.Recorder{}

	r, err := Initialize(testConfig(), suite.store, suite.recorder, metrics.New())
	suite.Require().NoError(err)
	suite.router = r
}

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		Server:      config.ServerConfig{Port: "8080", AllowOrigins: []string{"*"}},
		JWT: config.JWTConfig{
			SecretKey:       "router-test-secret",
			AccessTokenTTL:  1,
			RefreshTokenTTL: 24,
		},
		AWS:     config.AWSConfig{Region: "us-east-1", EvidenceBucket: "evidence-test", PresignTTL: 15},
		Payment: config.PaymentConfig{Currency: "usd", MinimumDeposit: 100},
		Marketplace: config.MarketplaceConfig{
			FeeAccount:       "marketplace-fees",
			CurrencyExponent: 2,
		},
		Admin: config.AdminConfig{Address: "admin", Secret: adminSecret},
		RateLimit: config.RateLimitConfig{
			GeneralPerSecond: 1000,
			GeneralBurst:     1000,
			AuthPerMinute:    1000,
			UploadPerMinute:  1000,
		},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

func (suite *RouterTestSuite) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "" {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

func (suite *RouterTestSuite) register(address string) string {
	w, env := suite.do(http.MethodPost, "/v1/auth/register", "", gin.H{"address": address, "secret": memberSecret})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	return suite.tokenFrom(env)
}

func (suite *RouterTestSuite) login(address, secret string) string {
	w, env := suite.do(http.MethodPost, "/v1/auth/token", "", gin.H{"address": address, "secret": secret})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	return suite.tokenFrom(env)
}

func (suite *RouterTestSuite) tokenFrom(env envelope) string {
	var body struct {
		Token string `json:"token"`
	}
	suite.Require().NoError(json.Unmarshal(env.Data, &body))
	suite.Require().NotEmpty(body.Token)
	return body.Token
}

// fund credits an address directly on the ledger, standing in for a card deposit.
func (suite *RouterTestSuite) fund(address string, amount uint64) {
	err := suite.store.Atomic(context.Background(), func(l repository.Ledger) error {
		return l.CreateAccount(&models.Account{Address: address, Role: models.AccountRoleMember, Balance: amount})
	})
	suite.Require().NoError(err)
}

func (suite *RouterTestSuite) balance(token string) uint64 {
	w, env := suite.do(http.MethodGet, "/v1/accounts/balance", token, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var body struct {
		Balance uint64 `json:"balance"`
	}
	suite.Require().NoError(json.Unmarshal(env.Data, &body))
	return body.Balance
}

func (suite *RouterTestSuite) TestHealthAndMetrics() {
	w, _ := suite.do(http.MethodGet, "/health", "", nil)
	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), "healthy")

	w, _ = suite.do(http.MethodGet, "/metrics", "", nil)
	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), "datasov_http_requests_total")
}

func (suite *RouterTestSuite) TestProtectedRoutesRequireToken() {
	w, env := suite.do(http.MethodPost, "/v1/listings", "", gin.H{"identity_key": "id-1"})
	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.False(env.Success)

	w, _ = suite.do(http.MethodGet, "/v1/accounts/balance", "not-a-token", nil)
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *RouterTestSuite) TestAdminRoutesRequireAdminRole() {
	token := suite.register("member-1")

	w, env := suite.do(http.MethodPost, "/v1/marketplace", token, gin.H{"fee_basis_points": 250})
	suite.Equal(http.StatusForbidden, w.Code)
	suite.Require().NotNil(env.Error)
	suite.Equal("FORBIDDEN", env.Error.Code)
}

func (suite *RouterTestSuite) TestInvalidFeeRate() {
	admin := suite.login("admin", adminSecret)

	w, env := suite.do(http.MethodPost, "/v1/marketplace", admin, gin.H{"fee_basis_points": 10001})
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.False(env.Success)
}

func (suite *RouterTestSuite) TestPaymentsDisabledWithoutStripe() {
	token := suite.register("member-1")

	w, env := suite.do(http.MethodPost, "/v1/payments/deposits", token, gin.H{"amount": 500})
	suite.Equal(http.StatusServiceUnavailable, w.Code)
	suite.Require().NotNil(env.Error)
	suite.Equal("PAYMENTS_DISABLED", env.Error.Code)
}

func (suite *RouterTestSuite) TestPurchaseFlow() {
	t := suite.T()

	admin := suite.login("admin", adminSecret)
	w, _ := suite.do(http.MethodPost, "/v1/oracles/registry", admin, gin.H{"minimum_stake": 1000, "slash_amount": 100})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w, env := suite.do(http.MethodPost, "/v1/marketplace", admin, gin.H{"fee_basis_points": 250})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, string(env.Data), `"fee_percent":"2.50"`)

	oracle := suite.register("oracle-1")
	seller := suite.register("seller-1")
	suite.fund("buyer-1", 2_000_000)
	buyer := suite.register("buyer-1")
	assert.Equal(t, uint64(2_000_000), suite.balance(buyer))

	w, _ = suite.do(http.MethodPost, "/v1/oracles", oracle, gin.H{"display_name": "Oracle One", "stake_amount": 1000})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	for _, identity := range []struct{ token, key string }{{seller, "seller-id"}, {buyer, "buyer-id"}} {
		w, _ = suite.do(http.MethodPost, "/v1/identities", identity.token, gin.H{"identity_key": identity.key, "evidence_ref": "kyc-doc"})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		w, _ = suite.do(http.MethodPost, "/v1/identities/"+identity.key+"/verify", oracle, gin.H{"level": "enhanced", "evidence_ref": "kyc-check"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w, _ = suite.do(http.MethodPost, "/v1/listings", seller, gin.H{
		"listing_id":   1,
		"identity_key": "seller-id",
		"price":        1_000_000,
		"category":     "health_data",
		"description":  "Anonymized step counts",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// No grant yet
	w, env = suite.do(http.MethodPost, "/v1/listings/1/purchase", buyer, gin.H{"buyer_identity_key": "buyer-id"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NO_ACCESS_PERMISSION", env.Error.Code)

	w, _ = suite.do(http.MethodPost, "/v1/identities/seller-id/permissions", seller, gin.H{
		"consumer":     "buyer-1",
		"kind":         "read_only",
		"categories":   []string{"location_history"},
		"evidence_ref": "consent-1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, env = suite.do(http.MethodGet, "/v1/identities/seller-id/permissions/buyer-1/validate?category=health_data", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"valid":false`)
	assert.Contains(t, string(env.Data), "DATA_CATEGORY_NOT_AUTHORIZED")

	// Re-grant after revoke covers the listed category
	w, _ = suite.do(http.MethodPost, "/v1/identities/seller-id/permissions/buyer-1/revoke", seller, gin.H{"evidence_ref": "withdrawn"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w, _ = suite.do(http.MethodPost, "/v1/identities/seller-id/permissions", seller, gin.H{
		"consumer":   "buyer-1",
		"kind":       "read_only",
		"categories": []string{"health_data"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, env = suite.do(http.MethodGet, "/v1/identities/seller-id/permissions/buyer-1/validate?category=health_data", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"valid":true`)

	w, env = suite.do(http.MethodPost, "/v1/listings/1/purchase", buyer, gin.H{"buyer_identity_key": "buyer-id"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var receipt struct {
		Listing    models.DataListing `json:"listing"`
		Settlement models.Settlement  `json:"settlement"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &receipt))
	assert.False(t, receipt.Listing.IsActive)
	require.NotNil(t, receipt.Listing.Buyer)
	assert.Equal(t, "buyer-1", *receipt.Listing.Buyer)
	assert.Equal(t, uint64(1_000_000), receipt.Settlement.GrossAmount)
	assert.Equal(t, uint64(25_000), receipt.Settlement.FeeAmount)
	assert.Equal(t, uint64(975_000), receipt.Settlement.NetAmount)

	assert.Equal(t, uint64(1_000_000), suite.balance(buyer))
	assert.Equal(t, uint64(975_000), suite.balance(seller))

	// Sold listings cannot be bought again
	w, env = suite.do(http.MethodPost, "/v1/listings/1/purchase", buyer, gin.H{"buyer_identity_key": "buyer-id"})
	assert.Equal(t, http.StatusConflict, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "LISTING_NOT_ACTIVE", env.Error.Code)

	w, env = suite.do(http.MethodGet, "/v1/marketplace", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"total_volume":1000000`)

	// Fee withdrawal by the marketplace authority
	w, _ = suite.do(http.MethodPost, "/v1/marketplace/withdraw", seller, gin.H{"amount": 1000})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = suite.do(http.MethodPost, "/v1/marketplace/withdraw", admin, gin.H{"amount": 25_000})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, uint64(25_000), suite.balance(admin))

	w, _ = suite.do(http.MethodGet, "/v1/accounts/settlements", buyer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-Total-Count"))

	assert.Contains(t, suite.recorder.Types(), events.ListingPurchased)
	assert.Contains(t, suite.recorder.Types(), events.RequestAudited)
}

func (suite *RouterTestSuite) TestListingSearch() {
	w, env := suite.do(http.MethodGet, "/v1/listings?category=not_a_category", "", nil)
	suite.Equal(http.StatusOK, w.Code)
	suite.True(env.Success)

	// pages past the end answer empty, however far out
	w, env = suite.do(http.MethodGet, "/v1/listings?page=461168601842738792&limit=20&sort=price", "", nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	suite.JSONEq(`[]`, string(env.Data))
	suite.Equal("1000000", w.Header().Get("X-Page"))
	suite.Equal("0", w.Header().Get("X-Total-Count"))

	w, _ = suite.do(http.MethodGet, "/v1/listings/abc", "", nil)
	suite.Equal(http.StatusBadRequest, w.Code)

	w, env = suite.do(http.MethodGet, "/v1/listings/42", "", nil)
	suite.Equal(http.StatusNotFound, w.Code)
	suite.Require().NotNil(env.Error)
	suite.Equal("LISTING_NOT_FOUND", env.Error.Code)
}
