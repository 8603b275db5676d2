package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/kb-assistant/internal/api/middleware"
	"github.com/Rrens/kb-assistant/internal/api/response"
	"github.com/Rrens/kb-assistant/internal/domain"
	"github.com/Rrens/kb-assistant/internal/leave"
	"github.com/Rrens/kb-assistant/internal/service"
)

// LeaveReviewer reads and reviews leave records
type LeaveReviewer interface {
	Get(ctx context.Context, leaveID string) (*domain.LeaveRecord, error)
	Approve(ctx context.Context, leaveID, reviewer string) (*domain.LeaveRecord, error)
	Reject(ctx context.Context, leaveID, reviewer string) (*domain.LeaveRecord, error)
}

// LeaveHandler handles leave review endpoints
type LeaveHandler struct {
	reviewer LeaveReviewer
}

// NewLeaveHandler creates a new leave handler
func NewLeaveHandler(reviewer LeaveReviewer) *LeaveHandler {
	return &LeaveHandler{reviewer: reviewer}
}

// Get returns one leave record
func (h *LeaveHandler) Get(w http.ResponseWriter, r *http.Request) {
	leaveID, ok := leaveIDParam(w, r)
	if !ok {
		return
	}

	rec, err := h.reviewer.Get(r.Context(), leaveID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, rec)
}

// Approve moves a pending record to APPROVED
func (h *LeaveHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.reviewer.Approve)
}

// Reject moves a pending record to REJECTED
func (h *LeaveHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.reviewer.Reject)
}

func (h *LeaveHandler) review(w http.ResponseWriter, r *http.Request, op func(context.Context, string, string) (*domain.LeaveRecord, error)) {
	leaveID, ok := leaveIDParam(w, r)
	if !ok {
		return
	}

	claims, ok := middleware.GetClaims(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	rec, err := op(r.Context(), leaveID, claims.Subject)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, rec)
}

func (h *LeaveHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrLeaveNotFound):
		response.NotFound(w, "leave request not found")
	case errors.Is(err, service.ErrLeaveNotPending):
		response.Conflict(w, "leave request is not pending")
	default:
		log.Ctx(r.Context()).Error().Err(err).Msg("leave review failed")
		response.InternalError(w, "leave store unavailable")
	}
}

// leaveIDParam reads and normalizes the {leaveID} route parameter
func leaveIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := chi.URLParam(r, "leaveID")
	leaveID, ok := leave.FindLeaveID(raw)
	if !ok || !strings.EqualFold(leaveID, raw) {
		response.BadRequest(w, "invalid leave ID")
		return "", false
	}
	return leaveID, true
}
