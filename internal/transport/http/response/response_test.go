package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/real-time-ressys/services/ranking-service/internal/domain"
	appCtx "github.com/baechuer/real-time-ressys/services/ranking-service/internal/pkg/context"
)

func decodeErr(t *testing.T, rr *httptest.ResponseRecorder) ErrorPayload {
	t.Helper()
	var body ErrorBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body.Error
}

func TestData(t *testing.T) {
	rr := httptest.NewRecorder()
	Data(rr, http.StatusOK, map[string]int{"likes_count": 3})

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"data":{"likes_count":3}}`, rr.Body.String())
}

func TestErr_StatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ErrValidation("bad limit"), http.StatusBadRequest, "validation_error"},
		{domain.ErrUnauthorized("login"), http.StatusUnauthorized, "unauthorized"},
		{domain.ErrNotFound("video not found"), http.StatusNotFound, "not_found"},
		{fmt.Errorf("toggle: %w", domain.ErrConflict), http.StatusConflict, "conflict"},
		{domain.ErrUnavailable("timeout"), http.StatusServiceUnavailable, "unavailable"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r = r.WithContext(appCtx.WithRequestID(r.Context(), "rid-1"))
			rr := httptest.NewRecorder()

			Err(rr, r, tc.err)

			assert.Equal(t, tc.status, rr.Code)
			p := decodeErr(t, rr)
			assert.Equal(t, tc.code, p.Code)
			assert.Equal(t, "rid-1", p.RequestID)
		})
	}
}

func TestErr_RetryAfterOnlyOnUnavailable(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	rr := httptest.NewRecorder()
	Err(rr, r, domain.ErrUnavailable("store timed out"))
	assert.Equal(t, "1", rr.Header().Get("Retry-After"))

	rr = httptest.NewRecorder()
	Err(rr, r, domain.ErrConflict)
	assert.Empty(t, rr.Header().Get("Retry-After"))
}

func TestErr_MetaAndHiddenInternals(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	rr := httptest.NewRecorder()
	Err(rr, r, domain.ErrValidationMeta("invalid query param", map[string]string{"limit": "must be >= 0"}))
	assert.Equal(t, map[string]string{"limit": "must be >= 0"}, decodeErr(t, rr).Meta)

	rr = httptest.NewRecorder()
	Err(rr, r, errors.New("pq: password authentication failed"))
	assert.NotContains(t, rr.Body.String(), "password")

	rr = httptest.NewRecorder()
	Err(rr, r, nil)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
