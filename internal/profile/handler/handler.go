// Package handler exposes the profile endpoints: upserting business-identity
// details (including the protected tax identifier) and reading them back
// masked or, for admins, revealed.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ledgerdesk/internal/account"
	"ledgerdesk/internal/platform/middleware"
	"ledgerdesk/internal/profile"
	"ledgerdesk/internal/transport/http/shared"
	id "ledgerdesk/pkg/domain"
	dErrors "ledgerdesk/pkg/domain-errors"
	"ledgerdesk/pkg/requestcontext"
)

// Service defines the profile operations the handler needs.
type Service interface {
	Upsert(ctx context.Context, accountID id.AccountID, kind account.Kind, req profile.Upsert) (*profile.View, error)
	Get(ctx context.Context, accountID id.AccountID, kind account.Kind, reveal bool) (*profile.View, error)
}

type Handler struct {
	logger    *slog.Logger
	profiles  Service
	validator middleware.TokenValidator
}

func New(profiles Service, logger *slog.Logger, validator middleware.TokenValidator) *Handler {
	return &Handler{logger: logger, profiles: profiles, validator: validator}
}

// Register mounts the profile routes.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.validator, h.logger))
		r.Put("/accounts/{accountID}/profiles/{kind}", h.handleUpsert)
		r.Get("/accounts/{accountID}/profiles/{kind}", h.handleGet)
	})
}

type upsertRequest struct {
	LegalName          *string `json:"legal_name"`
	TradingName        *string `json:"trading_name"`
	RegistrationNumber *string `json:"registration_number"`
	TaxID              *string `json:"tax_id"`
}

func (h *Handler) handleUpsert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	accountID, kind, err := h.pathParams(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req upsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	view, err := h.profiles.Upsert(ctx, accountID, kind, profile.Upsert{
		LegalName:          req.LegalName,
		TradingName:        req.TradingName,
		RegistrationNumber: req.RegistrationNumber,
		TaxID:              req.TaxID,
	})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "profile upsert failed",
				"request_id", requestcontext.RequestID(ctx),
				"error", err.Error(),
			)
		}
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	accountID, kind, err := h.pathParams(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	reveal := r.URL.Query().Get("reveal") == "true"
	view, err := h.profiles.Get(ctx, accountID, kind, reveal)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) pathParams(r *http.Request) (id.AccountID, account.Kind, error) {
	accountID, err := id.ParseAccountID(chi.URLParam(r, "accountID"))
	if err != nil {
		return id.AccountID{}, "", err
	}
	kind, err := account.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		return id.AccountID{}, "", err
	}
	return accountID, kind, nil
}
