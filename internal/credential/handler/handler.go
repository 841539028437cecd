package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"idverse/internal/credential/models"
	vcservice "idverse/internal/credential/service"
	dErrors "idverse/pkg/domain-errors"
	"idverse/pkg/platform/httputil"
	"idverse/pkg/requestcontext"
)

// Service defines the credential lifecycle operations used by the handler.
type Service interface {
	Issue(ctx context.Context, req models.IssueRequest) (*models.IssueResult, error)
	RequestIssue(ctx context.Context, in models.RequestIssueInput) (*models.CredentialRequest, error)
	Present(ctx context.Context, req models.PresentRequest) (*models.Verdict, error)
	Revoke(ctx context.Context, id, reason string) (*models.Receipt, error)
	Status(ctx context.Context, id string) (*models.StatusResult, error)
	IssueChallenge(ctx context.Context) (models.Challenge, error)
	IssuerInfo() models.IssuerInfo
	CredentialsBySubject(ctx context.Context, subjectID string) ([]models.CredentialRecord, error)
}

// Handler wires credential endpoints to the engine.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a credential handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the public endpoints: anyone holding a credential can
// present it and check its status.
func (h *Handler) Register(r chi.Router) {
	r.Post("/vc/present", h.HandlePresent)
	r.Get("/vc/status/{id}", h.HandleStatus)
	r.Get("/vc/challenge", h.HandleChallenge)
	r.Get("/vc/issuer-info", h.HandleIssuerInfo)
}

// RegisterAuthenticated mounts endpoints open to any authenticated caller.
// Holders ask for credentials here; an issuer fulfils them via /vc/issue.
func (h *Handler) RegisterAuthenticated(r chi.Router) {
	r.Post("/vc/request-issue", h.HandleRequestIssue)
}

// RegisterProtected mounts the issuer-only endpoints. The caller is expected
// to wrap r with authentication and role middleware.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Post("/vc/issue", h.HandleIssue)
	r.Post("/vc/revoke", h.HandleRevoke)
	r.Get("/vc/subjects/{subject_id}/credentials", h.HandleSubjectCredentials)
}

// HandleIssue handles POST /vc/issue requests.
func (h *Handler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[IssueRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Issue(ctx, models.IssueRequest{
		SubjectID:      req.SubjectID,
		CredentialType: req.CredentialType,
		Claims:         req.Claims,
		Expiry:         req.ParsedExpiry(),
		RequestID:      models.CredentialRequestID(req.RequestID),
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to issue credential",
			"request_id", requestID,
			"operator", requestcontext.Subject(ctx),
			"credential_type", req.CredentialType,
			"credential_request_id", req.RequestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, IssueResponse{
		Credential: result.Document,
		CID:        result.CID,
		NumericID:  result.NumericID,
		Receipt:    toReceiptResponse(result.Receipt),
		RequestID:  string(result.RequestID),
	})
}

// HandleRequestIssue handles POST /vc/request-issue. The request is only
// recorded; 202 tells the holder to wait for an issuer.
func (h *Handler) HandleRequestIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[RequestIssueRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	pending, err := h.service.RequestIssue(ctx, models.RequestIssueInput{
		SubjectID:      req.SubjectID,
		CredentialType: req.CredentialType,
		Claims:         req.Claims,
	})
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeInvalidInput) {
			h.logger.ErrorContext(ctx, "failed to record credential request",
				"request_id", requestID,
				"credential_type", req.CredentialType,
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusAccepted, RequestIssueResponse{
		RequestID:      string(pending.ID),
		Status:         string(pending.Status),
		CredentialType: pending.CredentialType,
		SubjectID:      pending.SubjectID,
		ExpiresAt:      pending.ExpiresAt.UTC(),
		Next:           "/vc/issue",
	})
}

// HandlePresent handles POST /vc/present requests. A credential that fails
// verification still yields 200 with verified=false.
func (h *Handler) HandlePresent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[PresentRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	verdict, err := h.service.Present(ctx, req.ToModel())
	if err != nil {
		h.logger.WarnContext(ctx, "presentation rejected",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toVerdictResponse(verdict))
}

// HandleRevoke handles POST /vc/revoke requests.
func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[RevokeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	receipt, err := h.service.Revoke(ctx, req.CredentialID, req.Reason)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeNotFound) && !dErrors.HasCode(err, dErrors.CodeAlreadyRevoked) {
			h.logger.ErrorContext(ctx, "failed to revoke credential",
				"request_id", requestID,
				"operator", requestcontext.Subject(ctx),
				"credential_id", req.CredentialID,
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toReceiptResponse(*receipt))
}

// HandleStatus handles GET /vc/status/{id} requests. Unknown ids return 200
// with registered=false.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" || len(id) > 128 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid credential id"))
		return
	}

	result, err := h.service.Status(ctx, id)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to read credential status",
			"request_id", requestcontext.RequestID(ctx),
			"credential_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toStatusResponse(result.CredentialID, result.CID, result.Status))
}

// HandleChallenge handles GET /vc/challenge requests.
func (h *Handler) HandleChallenge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	challenge, err := h.service.IssueChallenge(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to issue challenge",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	httputil.WriteJSON(w, http.StatusOK, ChallengeResponse{
		Challenge: challenge.Token,
		ExpiresAt: challenge.ExpiresAt.UTC(),
	})
}

// HandleIssuerInfo handles GET /vc/issuer-info requests.
func (h *Handler) HandleIssuerInfo(w http.ResponseWriter, _ *http.Request) {
	info := h.service.IssuerInfo()
	httputil.WriteJSON(w, http.StatusOK, IssuerInfoResponse{
		Issuer:             info.Issuer,
		VerificationMethod: info.VerificationMethod,
		PublicKeyMultibase: info.PublicKeyMultibase,
		PublicKeyHex:       info.PublicKeyHex,
	})
}

// HandleSubjectCredentials handles GET /vc/subjects/{subject_id}/credentials.
func (h *Handler) HandleSubjectCredentials(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subjectID := strings.TrimSpace(chi.URLParam(r, "subject_id"))
	if subjectID == "" || len(subjectID) > 256 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid subject id"))
		return
	}

	records, err := h.service.CredentialsBySubject(ctx, subjectID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list subject credentials",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	out := SubjectCredentialsResponse{
		SubjectID:   models.SubjectDID(subjectID),
		Credentials: make([]CredentialSummary, 0, len(records)),
	}
	for _, rec := range records {
		out.Credentials = append(out.Credentials, CredentialSummary{
			CredentialID: string(rec.ID),
			Type:         rec.Type,
			Issuer:       rec.Issuer,
			CID:          rec.CID,
			NumericID:    rec.NumericID,
			IssuedAt:     rec.IssuedAt.UTC(),
			ExpiresAt:    rec.ExpiresAt,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

var _ Service = (*vcservice.Service)(nil)
