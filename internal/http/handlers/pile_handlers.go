package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"smartcharger/internal/models"
	"smartcharger/internal/service"
)

// PileHandlers exposes pile reads plus the admin pile surface.
type PileHandlers struct {
	svc *service.PileService
}

// NewPileHandlers builds handlers.
func NewPileHandlers(svc *service.PileService) *PileHandlers {
	return &PileHandlers{svc: svc}
}

// Get handles GET /piles/{id}.
func (h *PileHandlers) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	pile, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pile)
}

type createPileRequest struct {
	Code     string          `json:"code"`
	Location string          `json:"location"`
	Lng      decimal.Decimal `json:"lng"`
	Lat      decimal.Decimal `json:"lat"`
	Type     models.PileType `json:"type"`
	Power    decimal.Decimal `json:"power"`
}

// Create handles POST /admin/piles.
func (h *PileHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req createPileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Code == "" || !req.Type.Valid() {
		writeError(w, http.StatusBadRequest, "INVALID_PILE", "code and a valid type are required")
		return
	}

	pile := &models.ChargingPile{
		Code:     req.Code,
		Location: req.Location,
		Lng:      req.Lng,
		Lat:      req.Lat,
		Type:     req.Type,
		Power:    req.Power,
	}
	if err := h.svc.Create(r.Context(), pile); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, pile)
}

type updatePileStatusRequest struct {
	Status models.PileStatus `json:"status"`
}

// UpdateStatus handles PUT /admin/piles/{id}/status.
func (h *PileHandlers) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req updatePileStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.svc.UpdateStatus(r.Context(), id, req.Status); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(req.Status)})
}

// ReportFault handles POST /admin/piles/{id}/fault.
func (h *PileHandlers) ReportFault(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.ReportFault(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(models.PileFault)})
}

// ResolveFault handles POST /admin/piles/{id}/fault/resolve.
func (h *PileHandlers) ResolveFault(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.ResolveFault(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(models.PileIdle)})
}

// Delete handles DELETE /admin/piles/{id}.
func (h *PileHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
