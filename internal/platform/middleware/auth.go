package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	domainerrors "eduledger/pkg/domain-errors"
	"eduledger/pkg/requestcontext"
)

// IssuerClaims represents the claims we expect from the token validator.
type IssuerClaims struct {
	IssuerID string
}

// TokenValidator validates bearer tokens for state-changing routes.
type TokenValidator interface {
	ValidateToken(tokenString string) (*IssuerClaims, error)
}

// RequireIssuer guards issuance and revocation routes. Verification routes
// stay public: anyone may check a credential without trusting the issuer.
func RequireIssuer(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				unauthorized(w)
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(r.Context(), "rejected issuer token",
					"request_id", requestcontext.RequestID(r.Context()),
					"error", err.Error(),
				)
				unauthorized(w)
				return
			}

			ctx := requestcontext.WithIssuerID(r.Context(), claims.IssuerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": string(domainerrors.CodeUnauthorized),
	})
}
