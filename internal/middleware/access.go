package middleware

import (
	"errors"
	"net/http"
	"strings"

	"harmonia/api/internal/models"
	"harmonia/api/internal/security"
)

// Rejection is the response an unauthorised request ends with.
type Rejection struct {
	Status int
	Code   string
}

var (
	RejectMissingToken = &Rejection{Status: http.StatusUnauthorized, Code: "missing_token"}
	RejectInvalidToken = &Rejection{Status: http.StatusForbidden, Code: "invalid_token"}
	RejectExpiredToken = &Rejection{Status: http.StatusForbidden, Code: "token_expired"}
	RejectForbidden    = &Rejection{Status: http.StatusForbidden, Code: "forbidden"}
)

type TokenVerifier interface {
	Verify(token string) (security.Identity, error)
}

// BearerToken extracts the credential from an Authorization header value. The
// scheme is matched case-insensitively.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Authorize decides a request from its Authorization header alone. With no roles
// any valid token is accepted.
func Authorize(header string, verifier TokenVerifier, roles ...models.UserRole) (security.Identity, *Rejection) {
	token, ok := BearerToken(header)
	if !ok {
		return security.Identity{}, RejectMissingToken
	}

	identity, err := verifier.Verify(token)
	if err != nil {
		if errors.Is(err, security.ErrTokenExpired) {
			return security.Identity{}, RejectExpiredToken
		}
		return security.Identity{}, RejectInvalidToken
	}

	if !roleAllowed(identity.Role, roles) {
		return identity, RejectForbidden
	}
	return identity, nil
}

func roleAllowed(role models.UserRole, roles []models.UserRole) bool {
	if len(roles) == 0 {
		return true
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
