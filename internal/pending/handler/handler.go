// Package handler exposes the invited person's side of the workflow: listing
// their open requests across party types and responding to one.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ledgerdesk/internal/party"
	"ledgerdesk/internal/pending"
	"ledgerdesk/internal/platform/middleware"
	"ledgerdesk/internal/transport/http/shared"
	id "ledgerdesk/pkg/domain"
	dErrors "ledgerdesk/pkg/domain-errors"
)

// Aggregator resolves the caller's pending requests across party types.
type Aggregator interface {
	ForCaller(ctx context.Context) (*pending.Overview, error)
}

// Responder records the invited party's approve/reject decision.
type Responder interface {
	Respond(ctx context.Context, partyType id.PartyType, partyID id.PartyID, approve bool) (*party.Record, error)
}

type Handler struct {
	logger    *slog.Logger
	requests  Aggregator
	responder Responder
	validator middleware.TokenValidator
}

func New(requests Aggregator, responder Responder, logger *slog.Logger, validator middleware.TokenValidator) *Handler {
	return &Handler{logger: logger, requests: requests, responder: responder, validator: validator}
}

// Register mounts the caller-facing request routes.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.validator, h.logger))
		r.Get("/me/requests", h.handleList)
		r.Post("/me/requests/{type}/{partyID}/respond", h.handleRespond)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	overview, err := h.requests.ForCaller(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"company":     overview.Company,
		"partnership": overview.Partnership,
		"trust":       overview.Trust,
	})
}

type respondRequest struct {
	Approve bool `json:"approve"`
}

func (h *Handler) handleRespond(w http.ResponseWriter, r *http.Request) {
	partyType, err := id.ParsePartyType(chi.URLParam(r, "type"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	partyID, err := id.ParsePartyID(chi.URLParam(r, "partyID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req respondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	record, err := h.responder.Respond(r.Context(), partyType, partyID, req.Approve)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"id":     record.ID,
		"status": record.Status,
	})
}
