package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"candlepin/internal/compliance/models"
	"candlepin/internal/compliance/service"
	id "candlepin/pkg/domain"
	dErrors "candlepin/pkg/domain-errors"
	"candlepin/pkg/platform/httputil"
	"candlepin/pkg/requestcontext"
)

// Service defines the compliance operations exposed over HTTP.
type Service interface {
	Compliance(ctx context.Context, consumerID id.ConsumerID, apply bool) (*models.ComplianceStatus, error)
	SystemPurposeCompliance(ctx context.Context, consumerID id.ConsumerID, added []id.EntitlementID, currentCompliance bool) (*models.SystemPurposeStatus, error)
	RefreshOwner(ctx context.Context, ownerID id.OwnerID) (*service.RefreshResult, error)
}

// Handler wires compliance endpoints to the compliance service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a compliance handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts compliance endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/consumers/{consumerID}/compliance", h.HandleCompliance)
	r.Post("/consumers/{consumerID}/purpose_compliance", h.HandlePurposeCompliance)
	r.Post("/owners/{ownerID}/compliance/refresh", h.HandleRefreshOwner)
}

// HandleCompliance handles POST /consumers/{consumerID}/compliance.
func (h *Handler) HandleCompliance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	consumerID, err := id.ParseConsumerID(chi.URLParam(r, "consumerID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid consumer id"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[ComplianceRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	status, err := h.service.Compliance(ctx, consumerID, req.ShouldApply())
	if err != nil {
		h.logger.ErrorContext(ctx, "compliance evaluation failed",
			"request_id", requestID,
			"consumer_id", consumerID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromComplianceStatus(status))
}

// HandlePurposeCompliance handles POST /consumers/{consumerID}/purpose_compliance.
func (h *Handler) HandlePurposeCompliance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	consumerID, err := id.ParseConsumerID(chi.URLParam(r, "consumerID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid consumer id"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[PurposeComplianceRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	status, err := h.service.SystemPurposeCompliance(ctx, consumerID, req.ParsedEntitlementIDs(), req.ShouldApply())
	if err != nil {
		h.logger.ErrorContext(ctx, "system purpose evaluation failed",
			"request_id", requestID,
			"consumer_id", consumerID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromSystemPurposeStatus(status))
}

// HandleRefreshOwner handles POST /owners/{ownerID}/compliance/refresh.
func (h *Handler) HandleRefreshOwner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	ownerID, err := id.ParseOwnerID(chi.URLParam(r, "ownerID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid owner id"))
		return
	}

	result, err := h.service.RefreshOwner(ctx, ownerID)
	if err != nil {
		h.logger.ErrorContext(ctx, "owner refresh failed",
			"request_id", requestID,
			"owner_id", ownerID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromRefreshResult(result))
}
