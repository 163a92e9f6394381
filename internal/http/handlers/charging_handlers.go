package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"smartcharger/internal/http/middleware"
	"smartcharger/internal/models"
	"smartcharger/internal/service"
)

// ChargingHandlers exposes the session flow.
type ChargingHandlers struct {
	svc *service.ChargingService
}

// NewChargingHandlers builds handlers.
func NewChargingHandlers(svc *service.ChargingService) *ChargingHandlers {
	return &ChargingHandlers{svc: svc}
}

type startChargingRequest struct {
	ChargingPileID int64  `json:"charging_pile_id"`
	VehicleID      *int64 `json:"vehicle_id,omitempty"`
}

// Start handles POST /sessions/start.
func (h *ChargingHandlers) Start(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing user identity")
		return
	}

	var req startChargingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ChargingPileID <= 0 {
		writeError(w, http.StatusBadRequest, "INVALID_PILE_ID", "charging_pile_id is required")
		return
	}

	rec, err := h.svc.Start(r.Context(), userID, req.ChargingPileID, req.VehicleID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

type endChargingRequest struct {
	ElectricQuantity decimal.Decimal `json:"electric_quantity"`
}

// End handles POST /sessions/{id}/end.
func (h *ChargingHandlers) End(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing user identity")
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req endChargingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ElectricQuantity.IsNegative() {
		writeError(w, http.StatusBadRequest, "INVALID_QUANTITY", "electric_quantity must not be negative")
		return
	}

	rec, err := h.svc.End(r.Context(), userID, id, req.ElectricQuantity)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Current handles GET /sessions/current.
func (h *ChargingHandlers) Current(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing user identity")
		return
	}

	rec, err := h.svc.Current(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"record": rec})
}

// Detail handles GET /sessions/{id}.
func (h *ChargingHandlers) Detail(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing user identity")
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	detail, err := h.svc.Detail(r.Context(), userID, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// List handles GET /sessions.
func (h *ChargingHandlers) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing user identity")
		return
	}

	var status *models.RecordStatus
	if v := r.URL.Query().Get("status"); v != "" {
		st := models.RecordStatus(v)
		status = &st
	}
	limit, offset := pagination(r)

	items, err := h.svc.ListMine(r.Context(), userID, status, limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"records": items})
}
