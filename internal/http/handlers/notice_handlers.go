package handlers

import (
	"net/http"

	"smartcharger/internal/http/middleware"
	"smartcharger/internal/service"
)

// NoticeHandlers exposes warning notices and the overstay threshold setting.
type NoticeHandlers struct {
	svc *service.NoticeService
}

// NewNoticeHandlers builds handlers.
func NewNoticeHandlers(svc *service.NoticeService) *NoticeHandlers {
	return &NoticeHandlers{svc: svc}
}

// List handles GET /notices.
func (h *NoticeHandlers) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing user identity")
		return
	}

	unreadOnly := r.URL.Query().Get("unread") == "true"
	limit, offset := pagination(r)

	items, err := h.svc.List(r.Context(), userID, unreadOnly, limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"notices": items})
}

// UnreadCount handles GET /notices/unread-count.
func (h *NoticeHandlers) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing user identity")
		return
	}

	count, err := h.svc.UnreadCount(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"unread": count})
}

// MarkRead handles PUT /notices/{id}/read.
func (h *NoticeHandlers) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing user identity")
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.svc.MarkRead(r.Context(), userID, id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "read"})
}

// MarkAllRead handles PUT /notices/read-all.
func (h *NoticeHandlers) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing user identity")
		return
	}

	if err := h.svc.MarkAllRead(r.Context(), userID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "read"})
}

// Delete handles DELETE /notices/{id}.
func (h *NoticeHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing user identity")
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), userID, id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Threshold handles GET /notices/threshold.
func (h *NoticeHandlers) Threshold(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing user identity")
		return
	}

	minutes, err := h.svc.Threshold(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"threshold_minutes": minutes})
}

type thresholdRequest struct {
	ThresholdMinutes int `json:"threshold_minutes"`
}

// SetThreshold handles PUT /notices/threshold.
func (h *NoticeHandlers) SetThreshold(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing user identity")
		return
	}
	var req thresholdRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.svc.SetThreshold(r.Context(), userID, req.ThresholdMinutes); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"threshold_minutes": req.ThresholdMinutes})
}
