package handlers

import (
	"net/http"
	"time"

	"smartcharger/internal/http/middleware"
	"smartcharger/internal/models"
	"smartcharger/internal/service"
)

// ReservationHandlers exposes the reservation flow. hold is the default
// interval length used when an availability query names no end time.
type ReservationHandlers struct {
	svc  *service.ReservationService
	hold time.Duration
}

// NewReservationHandlers builds handlers.
func NewReservationHandlers(svc *service.ReservationService, hold time.Duration) *ReservationHandlers {
	return &ReservationHandlers{svc: svc, hold: hold}
}

type createReservationRequest struct {
	ChargingPileID int64      `json:"charging_pile_id"`
	StartTime      *time.Time `json:"start_time,omitempty"`
}

// Create handles POST /reservations.
func (h *ReservationHandlers) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing user identity")
		return
	}

	var req createReservationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ChargingPileID <= 0 {
		writeError(w, http.StatusBadRequest, "INVALID_PILE_ID", "charging_pile_id is required")
		return
	}

	res, err := h.svc.Create(r.Context(), userID, req.ChargingPileID, req.StartTime)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// Cancel handles DELETE /reservations/{id}.
func (h *ReservationHandlers) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing user identity")
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.svc.Cancel(r.Context(), userID, id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// Get handles GET /reservations/{id}.
func (h *ReservationHandlers) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing user identity")
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	res, err := h.svc.GetByID(r.Context(), userID, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Current handles GET /reservations/current.
func (h *ReservationHandlers) Current(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing user identity")
		return
	}

	res, err := h.svc.Current(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"reservation": res})
}

// List handles GET /reservations.
func (h *ReservationHandlers) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing user identity")
		return
	}

	var status *models.ReservationStatus
	if v := r.URL.Query().Get("status"); v != "" {
		st := models.ReservationStatus(v)
		status = &st
	}
	limit, offset := pagination(r)

	items, err := h.svc.ListMine(r.Context(), userID, status, limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"reservations": items})
}

// Availability handles GET /piles/{id}/availability.
func (h *ReservationHandlers) Availability(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	start := time.Now()
	if v := r.URL.Query().Get("start_time"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_TIME", "start_time must be RFC3339")
			return
		}
		start = t
	}
	end := start.Add(h.hold)
	if v := r.URL.Query().Get("end_time"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_TIME", "end_time must be RFC3339")
			return
		}
		end = t
	}
	if !start.Before(end) {
		writeError(w, http.StatusBadRequest, "INVALID_TIME_RANGE", "start time must be before end time")
		return
	}

	avail, err := h.svc.CheckAvailability(r.Context(), id, start, end)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, avail)
}
