package handlers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"smartcharger/internal/models"
	"smartcharger/internal/service"
)

// PriceHandlers exposes the price catalog: public reads plus admin CRUD.
type PriceHandlers struct {
	svc *service.PriceService
}

// NewPriceHandlers builds handlers.
func NewPriceHandlers(svc *service.PriceService) *PriceHandlers {
	return &PriceHandlers{svc: svc}
}

func pileTypeParam(w http.ResponseWriter, r *http.Request) (models.PileType, bool) {
	pt := models.PileType(r.URL.Query().Get("pile_type"))
	if pt == "" {
		pt = models.PileTypeAC
	}
	if !pt.Valid() {
		writeError(w, http.StatusBadRequest, "INVALID_PILE_TYPE", "pile_type must be AC or DC")
		return "", false
	}
	return pt, true
}

// Current handles GET /prices/current.
func (h *PriceHandlers) Current(w http.ResponseWriter, r *http.Request) {
	pt, ok := pileTypeParam(w, r)
	if !ok {
		return
	}
	cfg, err := h.svc.Current(r.Context(), pt)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

type estimateRequest struct {
	PileType         models.PileType `json:"pile_type"`
	ElectricQuantity decimal.Decimal `json:"electric_quantity"`
}

// Estimate handles POST /prices/estimate.
func (h *PriceHandlers) Estimate(w http.ResponseWriter, r *http.Request) {
	var req estimateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !req.PileType.Valid() {
		writeError(w, http.StatusBadRequest, "INVALID_PILE_TYPE", "pile_type must be AC or DC")
		return
	}
	if req.ElectricQuantity.IsNegative() {
		writeError(w, http.StatusBadRequest, "INVALID_QUANTITY", "electric_quantity must not be negative")
		return
	}

	est, err := h.svc.EstimateFee(r.Context(), req.PileType, req.ElectricQuantity)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, est)
}

type priceConfigRequest struct {
	PileType    models.PileType `json:"pile_type"`
	PricePerKwh decimal.Decimal `json:"price_per_kwh"`
	ServiceFee  decimal.Decimal `json:"service_fee"`
	StartTime   *time.Time      `json:"start_time,omitempty"`
	EndTime     *time.Time      `json:"end_time,omitempty"`
	Active      bool            `json:"active"`
}

// Create handles POST /admin/prices.
func (h *PriceHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req priceConfigRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !req.PileType.Valid() {
		writeError(w, http.StatusBadRequest, "INVALID_PILE_TYPE", "pile_type must be AC or DC")
		return
	}
	if req.PricePerKwh.IsNegative() || req.ServiceFee.IsNegative() {
		writeError(w, http.StatusBadRequest, "INVALID_PRICE", "prices must not be negative")
		return
	}

	cfg, err := h.svc.Create(r.Context(), service.PriceConfigInput{
		PileType:    req.PileType,
		PricePerKwh: req.PricePerKwh,
		ServiceFee:  req.ServiceFee,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Active:      req.Active,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, cfg)
}

type priceConfigUpdateRequest struct {
	PricePerKwh *decimal.Decimal `json:"price_per_kwh,omitempty"`
	ServiceFee  *decimal.Decimal `json:"service_fee,omitempty"`
	Active      *bool            `json:"active,omitempty"`
}

// Update handles PUT /admin/prices/{id}.
func (h *PriceHandlers) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req priceConfigUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	cfg, err := h.svc.Update(r.Context(), id, service.PriceConfigUpdate{
		PricePerKwh: req.PricePerKwh,
		ServiceFee:  req.ServiceFee,
		Active:      req.Active,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// Delete handles DELETE /admin/prices/{id}.
func (h *PriceHandlers) Delete(w http.ResponseWriter, r *http.Request) {
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

// Get handles GET /admin/prices/{id}.
func (h *PriceHandlers) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	cfg, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// List handles GET /admin/prices.
func (h *PriceHandlers) List(w http.ResponseWriter, r *http.Request) {
	var pileType *models.PileType
	if v := r.URL.Query().Get("pile_type"); v != "" {
		pt := models.PileType(v)
		if !pt.Valid() {
			writeError(w, http.StatusBadRequest, "INVALID_PILE_TYPE", "pile_type must be AC or DC")
			return
		}
		pileType = &pt
	}
	var active *bool
	if v := r.URL.Query().Get("active"); v != "" {
		b := v == "true"
		active = &b
	}
	limit, offset := pagination(r)

	items, err := h.svc.List(r.Context(), pileType, active, limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"configs": items})
}
