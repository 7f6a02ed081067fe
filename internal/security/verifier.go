package security

// AccessTokenVerifier checks an auth-service access token.
type AccessTokenVerifier interface {
	VerifyAccessToken(token string) (TokenClaims, error)
}
