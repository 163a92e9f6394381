package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"smartcharger/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"code": code, "message": message})
}

// writeServiceError maps a service error to a response. Business errors keep
// their stable code; everything else becomes an opaque 500.
func writeServiceError(w http.ResponseWriter, err error) {
	be, ok := apperr.From(err)
	if !ok {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}
	writeError(w, statusFor(be), be.Code, be.Message)
}

func statusFor(be *apperr.Error) int {
	switch be.Code {
	case apperr.ErrSystemBusy.Code:
		return http.StatusServiceUnavailable
	case apperr.ErrForbidden.Code:
		return http.StatusForbidden
	case apperr.ErrPileNotFound.Code,
		apperr.ErrRecordNotFound.Code,
		apperr.ErrConfigNotFound.Code,
		apperr.ErrVehicleNotFound.Code,
		apperr.ErrNoticeNotFound.Code:
		return http.StatusNotFound
	case apperr.ErrInvalidTimeRange.Code, apperr.ErrInvalidThreshold.Code:
		return http.StatusBadRequest
	default:
		return http.StatusConflict
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "request body is not valid JSON")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "path id must be a positive integer")
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, name, fallback string) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		v = fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func pagination(r *http.Request) (limit, offset int) {
	limit = queryInt(r, "limit", "20")
	if limit == 0 || limit > 100 {
		limit = 20
	}
	offset = queryInt(r, "offset", "0")
	return limit, offset
}
