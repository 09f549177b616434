package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"eduledger/internal/domain"
	"eduledger/internal/registry"
	domainerrors "eduledger/pkg/domain-errors"
	"eduledger/pkg/fingerprint"
	"eduledger/pkg/requestcontext"
)

// Service defines the registry operations the transport delegates to.
type Service interface {
	Issue(ctx context.Context, req registry.IssueRequest) (domain.CertificateRecord, error)
	IssueBatch(ctx context.Context, reqs []registry.IssueRequest) ([]domain.CertificateRecord, error)
	Revoke(ctx context.Context, id, reason string) error
	VerifyByID(ctx context.Context, id string) (registry.Verification, error)
	VerifyByHash(ctx context.Context, hash domain.DocHash) (registry.Verification, error)
	Inspect(ctx context.Context, id string) (domain.CertificateRecord, error)
}

// Handler is the thin HTTP layer. It delegates to the registry service
// without embedding business logic so transport concerns remain isolated.
type Handler struct {
	registry Service
	logger   *slog.Logger
}

func NewHandler(registry Service, logger *slog.Logger) *Handler {
	return &Handler{registry: registry, logger: logger}
}

func (h *Handler) handleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body issueRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, domainerrors.New(domainerrors.CodeBadRequest, "invalid request body"))
		return
	}

	req, err := toIssueRequest(body)
	if err != nil {
		writeError(w, err)
		return
	}

	record, err := h.registry.Issue(ctx, req)
	if err != nil {
		h.logFailure(ctx, "issue certificate", body.CertID, err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toCertificateResponse(record))
}

func (h *Handler) handleIssueBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body issueBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, domainerrors.New(domainerrors.CodeBadRequest, "invalid request body"))
		return
	}

	reqs := make([]registry.IssueRequest, 0, len(body.Certificates))
	for _, item := range body.Certificates {
		req, err := toIssueRequest(item)
		if err != nil {
			writeError(w, err)
			return
		}
		reqs = append(reqs, req)
	}

	records, err := h.registry.IssueBatch(ctx, reqs)
	if err != nil {
		h.logFailure(ctx, "issue certificate batch", "", err)
		writeError(w, err)
		return
	}

	resp := issueBatchResponse{Certificates: make([]certificateResponse, len(records))}
	for i, record := range records {
		resp.Certificates[i] = toCertificateResponse(record)
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	certID := chi.URLParam(r, "certID")

	var body revokeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, domainerrors.New(domainerrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := h.registry.Revoke(ctx, certID, body.Reason); err != nil {
		h.logFailure(ctx, "revoke certificate", certID, err)
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	certID := chi.URLParam(r, "certID")

	result, err := h.registry.VerifyByID(r.Context(), certID)
	if err != nil {
		h.logFailure(r.Context(), "verify certificate", certID, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toVerifyResponse(result))
}

func (h *Handler) handleVerifyByHash(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("hash")
	hash, err := fingerprint.Parse(raw)
	if err != nil {
		writeError(w, domainerrors.New(domainerrors.CodeBadRequest, "malformed document hash"))
		return
	}

	result, err := h.registry.VerifyByHash(r.Context(), hash)
	if err != nil {
		h.logFailure(r.Context(), "verify document hash", raw, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toVerifyResponse(result))
}

func (h *Handler) handleInspect(w http.ResponseWriter, r *http.Request) {
	certID := chi.URLParam(r, "certID")

	record, err := h.registry.Inspect(r.Context(), certID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, certificateDetailResponse{
		certificateResponse: toCertificateResponse(record),
		Revoked:             record.Revoked,
		RevokedReason:       record.RevokedReason,
	})
}

func (h *Handler) logFailure(ctx context.Context, op, subject string, err error) {
	code := domainerrors.CodeOf(err)
	if code == domainerrors.CodeInternal {
		h.logger.ErrorContext(ctx, "operation failed",
			"op", op,
			"subject", subject,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		return
	}
	h.logger.WarnContext(ctx, "operation rejected",
		"op", op,
		"subject", subject,
		"code", string(code),
		"request_id", requestcontext.RequestID(ctx),
	)
}

func toIssueRequest(body issueRequest) (registry.IssueRequest, error) {
	hash, err := fingerprint.Parse(body.DocHash)
	if err != nil {
		return registry.IssueRequest{}, domainerrors.New(domainerrors.CodeInvalidInput, "malformed document hash")
	}
	return registry.IssueRequest{
		ID:          body.CertID,
		DocHash:     hash,
		Recipient:   domain.Address(body.Recipient),
		MetadataURI: body.MetadataURI,
	}, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError centralizes domain error translation to HTTP responses, keeping
// the JSON error envelope consistent across handlers.
func writeError(w http.ResponseWriter, err error) {
	code := domainerrors.CodeOf(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(domainerrors.ToHTTPStatus(code))
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": string(code),
	})
}
