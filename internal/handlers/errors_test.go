// internal/handlers/errors_test.go
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/datasov-backend/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serveError(err error) *httptest.ResponseRecorder {
	r := gin.New()
	r.GET("/", func(c *gin.Context) { respondError(c, err) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	return w
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not initialized", services.ErrMarketplaceNotInitialized, http.StatusNotFound, "MARKETPLACE_NOT_INITIALIZED"},
		{"wrapped not found", fmt.Errorf("%w: 7", services.ErrListingNotFound), http.StatusNotFound, "LISTING_NOT_FOUND"},
		{"duplicate", services.ErrAlreadyExists, http.StatusConflict, "ALREADY_EXISTS"},
		{"sold listing", services.ErrListingNotActive, http.StatusConflict, "LISTING_NOT_ACTIVE"},
		{"wrong caller", services.ErrUnauthorized, http.StatusForbidden, "UNAUTHORIZED_CALLER"},
		{"category", services.ErrDataCategoryNotAuthorized, http.StatusForbidden, "DATA_CATEGORY_NOT_AUTHORIZED"},
		{"credentials", services.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"stake", services.ErrInsufficientStake, http.StatusBadRequest, "INSUFFICIENT_STAKE"},
		{"funds", services.ErrInsufficientFunds, http.StatusUnprocessableEntity, "INSUFFICIENT_FUNDS"},
		{"overflow", services.ErrArithmeticOverflow, http.StatusUnprocessableEntity, "ARITHMETIC_OVERFLOW"},
		{"amount bound", services.ErrAmountTooLarge, http.StatusBadRequest, "AMOUNT_TOO_LARGE"},
		{"too large", services.ErrEvidenceTooLarge, http.StatusRequestEntityTooLarge, "EVIDENCE_TOO_LARGE"},
		{"payments off", services.ErrPaymentsDisabled, http.StatusServiceUnavailable, "PAYMENTS_DISABLED"},
		{"unmapped", errors.New("connection reset"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serveError(tt.err)
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), `"code":"`+tt.code+`"`)
		})
	}
}

func TestRespondErrorEarliestRowWins(t *testing.T) {
	rowOf := func(target error) int {
		for i, m := range errorTable {
			if m.err == target {
				return i
			}
		}
		t.Fatalf("%v has no row", target)
		return -1
	}
	require.Less(t, rowOf(services.ErrListingNotFound), rowOf(services.ErrInsufficientFunds))

	for _, err := range []error{
		fmt.Errorf("%w: %w", services.ErrListingNotFound, services.ErrInsufficientFunds),
		fmt.Errorf("%w: %w", services.ErrInsufficientFunds, services.ErrListingNotFound),
		errors.Join(services.ErrInsufficientFunds, fmt.Errorf("listing 7: %w", services.ErrListingNotFound)),
	} {
		w := serveError(err)
		assert.Equal(t, http.StatusNotFound, w.Code, err.Error())
		assert.Contains(t, w.Body.String(), `"code":"LISTING_NOT_FOUND"`)
	}
}

func TestErrorTableHasNoDuplicateRows(t *testing.T) {
	seen := make(map[error]string, len(errorTable))
	for _, m := range errorTable {
		_, dup := seen[m.err]
		assert.False(t, dup, "%v mapped twice", m.err)
		seen[m.err] = m.code
	}
}

func TestRespondErrorHidesUnmappedDetail(t *testing.T) {
	w := serveError(errors.New("pq: password authentication failed"))
	assert.NotContains(t, w.Body.String(), "password authentication")
}

func TestBindJSON(t *testing.T) {
	bind := func(body string) (*httptest.ResponseRecorder, bool, services.WithdrawFeesRequest) {
		var req services.WithdrawFeesRequest
		var ok bool
		r := gin.New()
		r.POST("/", func(c *gin.Context) {
			ok = bindJSON(c, &req)
			if ok {
				c.Status(http.StatusNoContent)
			}
		})

		w := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		request.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, request)
		return w, ok, req
	}

	w, ok, req := bind(`{"amount": 500}`)
	assert.True(t, ok)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, uint64(500), req.Amount)

	w, ok, _ = bind(`{"amount": 0}`)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")

	w, ok, _ = bind(`{"amount": -1}`)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "BAD_REQUEST")

	// Empty body decodes to the zero request, which still fails validation
	w, ok, _ = bind(``)
	assert.False(t, ok)
	assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
}

func TestBindJSONAcceptsEmptyOptionalBody(t *testing.T) {
	var req services.EvidenceRequest
	var ok bool
	r := gin.New()
	r.POST("/", func(c *gin.Context) { ok = bindJSON(c, &req) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.True(t, ok)
	assert.Empty(t, req.EvidenceRef)
}
