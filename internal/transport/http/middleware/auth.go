package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/baechuer/real-time-ressys/services/ranking-service/internal/logger"
	"github.com/baechuer/real-time-ressys/services/ranking-service/internal/security"
	"github.com/baechuer/real-time-ressys/services/ranking-service/internal/transport/http/response"
	appCtx "github.com/baechuer/real-time-ressys/services/ranking-service/internal/pkg/context"
)

var errNoToken = errors.New("missing bearer token")

type Auth struct {
	verifier security.AccessTokenVerifier
}

func NewAuth(verifier security.AccessTokenVerifier) *Auth {
	if verifier == nil {
		panic("NewAuth: nil verifier")
	}
	return &Auth{verifier: verifier}
}

// Require rejects requests without a valid access token.
func (a *Auth) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ac, err := a.authenticate(r)
		if err != nil {
			logger.WithCtx(r.Context()).Debug().Err(err).Msg("auth rejected")
			response.Fail(w, http.StatusUnauthorized, "unauthorized", "unauthorized",
				map[string]string{"reason": reason(err)}, appCtx.GetRequestID(r.Context()))
			return
		}
		next.ServeHTTP(w, r.WithContext(WithAuth(r.Context(), ac)))
	})
}

// Optional attaches the caller when a valid token is present and otherwise
// serves the request anonymously.
func (a *Auth) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ac, err := a.authenticate(r)
		if err != nil {
			if !errors.Is(err, errNoToken) {
				logger.WithCtx(r.Context()).Debug().Err(err).Msg("ignoring invalid token on optional route")
			}
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithAuth(r.Context(), ac)))
	})
}

func (a *Auth) authenticate(r *http.Request) (AuthContext, error) {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return AuthContext{}, errNoToken
	}

	claims, err := a.verifier.VerifyAccessToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return AuthContext{}, err
	}

	uid, err := uuid.Parse(claims.UserID)
	if err != nil || uid == uuid.Nil {
		return AuthContext{}, security.ErrTokenInvalid
	}
	return AuthContext{UserID: uid, Role: claims.Role, Ver: claims.Ver}, nil
}

func reason(err error) string {
	switch {
	case errors.Is(err, errNoToken):
		return "missing_token"
	case errors.Is(err, security.ErrTokenExpired):
		return "token_expired"
	default:
		return "invalid_token"
	}
}
