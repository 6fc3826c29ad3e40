// Package handler exposes the invitation endpoints: pre-registration token
// verification, authenticated acceptance, and the admin cleanup sweep.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"ledgerdesk/internal/invitation"
	"ledgerdesk/internal/platform/middleware"
	"ledgerdesk/internal/transport/http/shared"
	id "ledgerdesk/pkg/domain"
	dErrors "ledgerdesk/pkg/domain-errors"
	"ledgerdesk/pkg/requestcontext"
)

// Service defines the invitation operations the handler needs.
type Service interface {
	Verify(ctx context.Context, email, token string) (*invitation.Invitation, error)
	Accept(ctx context.Context, email, token string) (*invitation.AcceptResult, error)
	Cleanup(ctx context.Context) (int, error)
}

type Handler struct {
	logger      *slog.Logger
	invitations Service
	validator   middleware.TokenValidator
}

func New(invitations Service, logger *slog.Logger, validator middleware.TokenValidator) *Handler {
	return &Handler{logger: logger, invitations: invitations, validator: validator}
}

// Register mounts the invitation routes. Verify stays unauthenticated so a
// recipient can confirm a token before registering; accept and cleanup
// require an identity.
func (h *Handler) Register(r chi.Router) {
	r.Post("/invitations/verify", h.handleVerify)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.validator, h.logger))
		r.Post("/invitations/accept", h.handleAccept)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.validator, h.logger))
		r.Use(middleware.RequireAdmin(h.logger))
		r.Post("/admin/invitations/cleanup", h.handleCleanup)
	})
}

type credentialRequest struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

// verifyResponse deliberately reveals only enough for the recipient to see
// what they were invited to.
type verifyResponse struct {
	AccountID id.AccountID `json:"account_id"`
	PartyType id.PartyType `json:"party_type"`
	Email     string       `json:"email"`
	Name      string       `json:"name,omitempty"`
	Role      string       `json:"role,omitempty"`
	ExpiresAt time.Time    `json:"expires_at"`
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req credentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	inv, err := h.invitations.Verify(r.Context(), req.Email, req.Token)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, verifyResponse{
		AccountID: inv.AccountID,
		PartyType: inv.Type,
		Email:     inv.Email,
		Name:      inv.Name,
		Role:      inv.Role,
		ExpiresAt: inv.ExpiresAt,
	})
}

type acceptResponse struct {
	AccountID       id.AccountID         `json:"account_id"`
	PartyType       id.PartyType         `json:"party_type"`
	ApprovedParties map[id.PartyType]int `json:"approved_parties"`
}

func (h *Handler) handleAccept(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req credentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	result, err := h.invitations.Accept(ctx, req.Email, req.Token)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "invitation accept failed",
				"request_id", requestcontext.RequestID(ctx),
				"error", err.Error(),
			)
		}
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, acceptResponse{
		AccountID:       result.Invitation.AccountID,
		PartyType:       result.Invitation.Type,
		ApprovedParties: result.PartiesByType,
	})
}

func (h *Handler) handleCleanup(w http.ResponseWriter, r *http.Request) {
	reaped, err := h.invitations.Cleanup(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]int{"reaped": reaped})
}
