package middleware

import (
	"context"
	"net/http"

	"github.com/cmlabs-hris/ops-portal/internal/domain/user"
	"github.com/cmlabs-hris/ops-portal/internal/handler/http/response"
	"github.com/cmlabs-hris/ops-portal/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
)

type identityKey struct{}

// AuthRequired rejects requests without a valid access token and stores the
// caller's identity in the request context.
func AuthRequired(ja *jwtauth.JWTAuth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())

			if err != nil {
				response.Unauthorized(w, err.Error())
				return
			}

			if token == nil {
				response.HandleError(w, user.ErrInvalidToken)
				return
			}

			tokenType, ok := claims["type"].(string)
			if tokenType != jwt.TokenTypeAccess || !ok {
				response.HandleError(w, user.ErrInvalidToken)
				return
			}

			identity, err := identityFromClaims(claims)
			if err != nil {
				response.HandleError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey{}, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		}
		return http.HandlerFunc(hfn)
	}
}

func identityFromClaims(claims map[string]interface{}) (user.Identity, error) {
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return user.Identity{}, user.ErrInvalidToken
	}

	roleStr, _ := claims["role"].(string)
	role, ok := user.ParseRole(roleStr)
	if !ok {
		return user.Identity{}, user.ErrUnknownRole
	}

	email, _ := claims["email"].(string)

	return user.Identity{UserID: userID, Email: email, Role: role}, nil
}

// IdentityFromContext returns the caller stored by AuthRequired.
func IdentityFromContext(ctx context.Context) (user.Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(user.Identity)
	return identity, ok
}
