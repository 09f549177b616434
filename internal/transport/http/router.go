package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"eduledger/internal/platform/middleware"
)

// NewRouter wires all endpoints. Verification stays public so anyone can
// check a credential without trusting the issuer's infrastructure; issuance
// and revocation require an issuer token.
func NewRouter(h *Handler, validator middleware.TokenValidator, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(logger))

	r.Get("/healthz", handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/certificates/{certID}/verify", h.handleVerify)
	r.Get("/verify/document", h.handleVerifyByHash)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireIssuer(validator, logger))
		r.Post("/certificates", h.handleIssue)
		r.Post("/certificates/batch", h.handleIssueBatch)
		r.Post("/certificates/{certID}/revoke", h.handleRevoke)
		r.Get("/certificates/{certID}", h.handleInspect)
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
