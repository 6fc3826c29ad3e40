// Package handler exposes the owner-side party endpoints: add, list, edit,
// remove, and resend across the three party types.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"ledgerdesk/internal/party"
	"ledgerdesk/internal/platform/middleware"
	"ledgerdesk/internal/transport/http/shared"
	id "ledgerdesk/pkg/domain"
	dErrors "ledgerdesk/pkg/domain-errors"
	"ledgerdesk/pkg/requestcontext"
)

// Service defines the party operations the handler needs.
type Service interface {
	Add(ctx context.Context, accountID id.AccountID, partyType id.PartyType, req party.AddRequest) (*party.Record, error)
	List(ctx context.Context, accountID id.AccountID, partyType id.PartyType) ([]*party.Record, error)
	Edit(ctx context.Context, accountID id.AccountID, partyType id.PartyType, partyID id.PartyID, req party.UpdateRequest) (*party.Record, error)
	Remove(ctx context.Context, accountID id.AccountID, partyType id.PartyType, partyID id.PartyID) error
	Resend(ctx context.Context, accountID id.AccountID, partyType id.PartyType, partyID id.PartyID) error
}

type Handler struct {
	logger    *slog.Logger
	parties   Service
	validator middleware.TokenValidator
}

func New(parties Service, logger *slog.Logger, validator middleware.TokenValidator) *Handler {
	return &Handler{logger: logger, parties: parties, validator: validator}
}

// Register mounts the party routes.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.validator, h.logger))
		r.Post("/accounts/{accountID}/parties/{type}", h.handleAdd)
		r.Get("/accounts/{accountID}/parties/{type}", h.handleList)
		r.Patch("/accounts/{accountID}/parties/{type}/{partyID}", h.handleEdit)
		r.Delete("/accounts/{accountID}/parties/{type}/{partyID}", h.handleRemove)
		r.Post("/accounts/{accountID}/parties/{type}/{partyID}/resend", h.handleResend)
	})
}

type addRequest struct {
	Email              string  `json:"email"`
	Name               string  `json:"name"`
	Role               string  `json:"role"`
	IsDirector         bool    `json:"is_director"`
	IsShareholder      bool    `json:"is_shareholder"`
	OwnershipPercent   float64 `json:"ownership_percent"`
	IsTrustee          bool    `json:"is_trustee"`
	IsBeneficiary      bool    `json:"is_beneficiary"`
	BeneficiaryPercent float64 `json:"beneficiary_percent"`
}

type updateRequest struct {
	Email              *string  `json:"email"`
	Name               *string  `json:"name"`
	Role               *string  `json:"role"`
	IsDirector         *bool    `json:"is_director"`
	IsShareholder      *bool    `json:"is_shareholder"`
	OwnershipPercent   *float64 `json:"ownership_percent"`
	IsTrustee          *bool    `json:"is_trustee"`
	IsBeneficiary      *bool    `json:"is_beneficiary"`
	BeneficiaryPercent *float64 `json:"beneficiary_percent"`
}

// recordView is the wire shape of a party record. The weak user reference is
// exposed as a plain id string when set.
type recordView struct {
	ID                 id.PartyID   `json:"id"`
	AccountID          id.AccountID `json:"account_id"`
	Type               id.PartyType `json:"type"`
	Email              string       `json:"email"`
	Name               string       `json:"name,omitempty"`
	Role               string       `json:"role,omitempty"`
	IsDirector         bool         `json:"is_director,omitempty"`
	IsShareholder      bool         `json:"is_shareholder,omitempty"`
	OwnershipPercent   float64      `json:"ownership_percent,omitempty"`
	IsTrustee          bool         `json:"is_trustee,omitempty"`
	IsBeneficiary      bool         `json:"is_beneficiary,omitempty"`
	BeneficiaryPercent float64      `json:"beneficiary_percent,omitempty"`
	Status             party.Status `json:"status"`
	UserID             string       `json:"user_id,omitempty"`
	RespondedAt        *time.Time   `json:"responded_at,omitempty"`
	CreatedAt          time.Time    `json:"created_at"`
}

func toView(r *party.Record) recordView {
	view := recordView{
		ID:                 r.ID,
		AccountID:          r.AccountID,
		Type:               r.Type,
		Email:              r.Email,
		Name:               r.Name,
		Role:               r.Role,
		IsDirector:         r.IsDirector,
		IsShareholder:      r.IsShareholder,
		OwnershipPercent:   r.OwnershipPercent,
		IsTrustee:          r.IsTrustee,
		IsBeneficiary:      r.IsBeneficiary,
		BeneficiaryPercent: r.BeneficiaryPercent,
		Status:             r.Status,
		RespondedAt:        r.RespondedAt,
		CreatedAt:          r.CreatedAt,
	}
	if r.UserID != nil {
		view.UserID = r.UserID.String()
	}
	return view
}

func (h *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	accountID, partyType, err := accountAndType(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	record, err := h.parties.Add(ctx, accountID, partyType, party.AddRequest{
		Email:              req.Email,
		Name:               req.Name,
		Role:               req.Role,
		IsDirector:         req.IsDirector,
		IsShareholder:      req.IsShareholder,
		OwnershipPercent:   req.OwnershipPercent,
		IsTrustee:          req.IsTrustee,
		IsBeneficiary:      req.IsBeneficiary,
		BeneficiaryPercent: req.BeneficiaryPercent,
	})
	if err != nil {
		h.logFailure(ctx, "party add failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toView(record))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	accountID, partyType, err := accountAndType(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	records, err := h.parties.List(r.Context(), accountID, partyType)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	views := make([]recordView, 0, len(records))
	for _, record := range records {
		views = append(views, toView(record))
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"parties": views})
}

func (h *Handler) handleEdit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	accountID, partyType, partyID, err := accountTypeAndParty(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	record, err := h.parties.Edit(ctx, accountID, partyType, partyID, party.UpdateRequest{
		Email:              req.Email,
		Name:               req.Name,
		Role:               req.Role,
		IsDirector:         req.IsDirector,
		IsShareholder:      req.IsShareholder,
		OwnershipPercent:   req.OwnershipPercent,
		IsTrustee:          req.IsTrustee,
		IsBeneficiary:      req.IsBeneficiary,
		BeneficiaryPercent: req.BeneficiaryPercent,
	})
	if err != nil {
		h.logFailure(ctx, "party edit failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toView(record))
}

func (h *Handler) handleRemove(w http.ResponseWriter, r *http.Request) {
	accountID, partyType, partyID, err := accountTypeAndParty(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.parties.Remove(r.Context(), accountID, partyType, partyID); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleResend(w http.ResponseWriter, r *http.Request) {
	accountID, partyType, partyID, err := accountTypeAndParty(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.parties.Resend(r.Context(), accountID, partyType, partyID); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) logFailure(ctx context.Context, msg string, err error) {
	if dErrors.HasCode(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	}
}

func accountAndType(r *http.Request) (id.AccountID, id.PartyType, error) {
	accountID, err := id.ParseAccountID(chi.URLParam(r, "accountID"))
	if err != nil {
		return id.AccountID{}, "", err
	}
	partyType, err := id.ParsePartyType(chi.URLParam(r, "type"))
	if err != nil {
		return id.AccountID{}, "", err
	}
	return accountID, partyType, nil
}

func accountTypeAndParty(r *http.Request) (id.AccountID, id.PartyType, id.PartyID, error) {
	accountID, partyType, err := accountAndType(r)
	if err != nil {
		return id.AccountID{}, "", id.PartyID{}, err
	}
	partyID, err := id.ParsePartyID(chi.URLParam(r, "partyID"))
	if err != nil {
		return id.AccountID{}, "", id.PartyID{}, err
	}
	return accountID, partyType, partyID, nil
}
