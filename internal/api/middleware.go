package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/avankov/pixvault/internal/auth"
	"github.com/avankov/pixvault/internal/common"
)

type contextKey string

const externalIDKey contextKey = "externalID"

// Authenticator verifies the bearer token and stores the caller's
// external identity id in the request context. Requests without a valid
// token get 401.
func Authenticator(secretKey []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				respondError(w, common.ErrInvalidToken)
				return
			}

			externalID, err := auth.ExternalIDFromToken(token, secretKey)
			if err != nil {
				respondError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), externalIDKey, externalID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// callerExternalID returns the identity stored by Authenticator, or ""
// on routes outside the authenticated group.
func callerExternalID(ctx context.Context) string {
	id, _ := ctx.Value(externalIDKey).(string)
	return id
}
