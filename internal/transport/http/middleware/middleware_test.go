package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/real-time-ressys/services/ranking-service/internal/security"
	appCtx "github.com/baechuer/real-time-ressys/services/ranking-service/internal/pkg/context"
)

const testSecret = "test-secret"

func token(t *testing.T, uid string, exp time.Time) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"uid":  uid,
		"role": "user",
		"ver":  1,
		"iss":  "auth-service",
		"exp":  exp.Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func newAuth() *Auth {
	return NewAuth(security.NewHS256Verifier(testSecret, "auth-service"))
}

func TestAuth_Require(t *testing.T) {
	auth := newAuth()
	uid := uuid.New()

	t.Run("valid_token_sets_context", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token(t, uid.String(), time.Now().Add(time.Hour)))
		rr := httptest.NewRecorder()

		auth.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ac, ok := GetAuth(r.Context())
			require.True(t, ok)
			assert.Equal(t, uid, ac.UserID)
			assert.Equal(t, "user", ac.Role)
			w.WriteHeader(http.StatusNoContent)
		})).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
	})

	cases := map[string]struct {
		header string
		reason string
	}{
		"missing_header": {"", "missing_token"},
		"not_bearer":     {"Basic abc", "missing_token"},
		"expired":        {"Bearer " + token(t, uid.String(), time.Now().Add(-time.Hour)), "token_expired"},
		"non_uuid_uid":   {"Bearer " + token(t, "user-1", time.Now().Add(time.Hour)), "invalid_token"},
		"garbage":        {"Bearer x.y.z", "invalid_token"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()

			auth.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("next must not run")
			})).ServeHTTP(rr, req)

			assert.Equal(t, http.StatusUnauthorized, rr.Code)
			var body struct {
				Error struct {
					Code string            `json:"code"`
					Meta map[string]string `json:"meta"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, "unauthorized", body.Error.Code)
			assert.Equal(t, tc.reason, body.Error.Meta["reason"])
		})
	}
}

func TestAuth_Optional(t *testing.T) {
	auth := newAuth()
	uid := uuid.New()

	run := func(header string) (AuthContext, bool, int) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rr := httptest.NewRecorder()
		var (
			got AuthContext
			ok  bool
		)
		auth.Optional(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok = GetAuth(r.Context())
		})).ServeHTTP(rr, req)
		return got, ok, rr.Code
	}

	ac, ok, code := run("Bearer " + token(t, uid.String(), time.Now().Add(time.Hour)))
	assert.True(t, ok)
	assert.Equal(t, uid, ac.UserID)
	assert.Equal(t, http.StatusOK, code)

	_, ok, code = run("")
	assert.False(t, ok)
	assert.Equal(t, http.StatusOK, code)

	_, ok, code = run("Bearer " + token(t, uid.String(), time.Now().Add(-time.Hour)))
	assert.False(t, ok, "expired token falls back to anonymous")
	assert.Equal(t, http.StatusOK, code)
}

func TestRequestID(t *testing.T) {
	t.Run("generates_when_absent", func(t *testing.T) {
		rr := httptest.NewRecorder()
		var seen string
		RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = appCtx.GetRequestID(r.Context())
		})).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

		_, err := uuid.Parse(seen)
		assert.NoError(t, err)
		assert.Equal(t, seen, rr.Header().Get(HeaderXRequestID))
	})

	t.Run("propagates_inbound", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderXRequestID, "abc-123")
		rr := httptest.NewRecorder()
		RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "abc-123", appCtx.GetRequestID(r.Context()))
		})).ServeHTTP(rr, req)
		assert.Equal(t, "abc-123", rr.Header().Get(HeaderXRequestID))
	})
}

func TestAccessLog_PassesThrough(t *testing.T) {
	r := chi.NewRouter()
	r.Use(AccessLog)
	r.Get("/videos/{video_id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("hello"))
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/videos/1", nil))

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "hello", rr.Body.String())
}

func TestSecurityHeaders(t *testing.T) {
	rr := httptest.NewRecorder()
	SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).
		ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
}
