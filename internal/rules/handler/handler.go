// Package handler exposes the active rules over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"candlepin/internal/rules/models"
	dErrors "candlepin/pkg/domain-errors"
	"candlepin/pkg/platform/httputil"
	"candlepin/pkg/requestcontext"
)

// Host is the part of the rule host the handler reads.
type Host interface {
	Refresh(ctx context.Context) error
	Current() (models.Rules, bool)
	Functions() []string
}

type Handler struct {
	host   Host
	logger *slog.Logger
}

func New(host Host, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{host: host, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/rules", h.HandleGetRules)
}

// RulesResponse describes the active rules generation.
type RulesResponse struct {
	Version   string    `json:"version"`
	Source    string    `json:"source"`
	UpdatedAt time.Time `json:"updated_at"`
	Functions []string  `json:"functions"`
	LastError string    `json:"last_error,omitempty"`
}

// HandleGetRules handles GET /rules. A rejected newer version is reported
// next to the rules still in use.
func (h *Handler) HandleGetRules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	refreshErr := h.host.Refresh(ctx)

	current, ok := h.host.Current()
	if !ok {
		if refreshErr == nil {
			refreshErr = dErrors.New(dErrors.CodeRulesMissing, "no rules loaded")
		}
		h.logger.ErrorContext(ctx, "rules unavailable",
			"request_id", requestcontext.RequestID(ctx),
			"error", refreshErr,
		)
		httputil.WriteError(w, refreshErr)
		return
	}

	resp := RulesResponse{
		Version:   current.Version,
		Source:    string(current.Source),
		UpdatedAt: current.UpdatedAt,
		Functions: h.host.Functions(),
	}
	if resp.Functions == nil {
		resp.Functions = []string{}
	}
	if refreshErr != nil {
		resp.LastError = dErrors.MessageOf(refreshErr)
		if resp.LastError == "" {
			resp.LastError = refreshErr.Error()
		}
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}
