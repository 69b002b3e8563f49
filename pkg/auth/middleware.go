package auth

import (
	"net/http"
	"strings"

	apperrors "github.com/tokenforge/launchpad-middleware/pkg/app/errors"
	apphttp "github.com/tokenforge/launchpad-middleware/pkg/app/http"
)

// anonymousCreator identifies requests when JWT validation is disabled.
// Intended for local development only.
const anonymousCreator = "anonymous"

// Middleware returns a chi middleware that authenticates requests with a
// Bearer token and places the creator identity on the request context.
//
// When the validator is not configured the middleware passes requests
// through with an anonymous creator identity.
func Middleware(validator *JWTValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if validator == nil || !validator.IsConfigured() {
				next.ServeHTTP(w, r.WithContext(WithCreatorID(r.Context(), anonymousCreator)))
				return
			}

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				apphttp.DefaultErrorHandler(w, apperrors.UnAuthorizedError(nil, "missing bearer token"))
				return
			}

			claims, err := validator.ValidateToken(strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil {
				apphttp.DefaultErrorHandler(w, apperrors.UnAuthorizedError(err, "invalid token"))
				return
			}

			creatorID, err := CreatorID(claims)
			if err != nil {
				apphttp.DefaultErrorHandler(w, apperrors.UnAuthorizedError(err, "invalid token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCreatorID(r.Context(), creatorID)))
		})
	}
}
