package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shestoi/railbook/internal/repository"
)

type NotificationResponse struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Read      bool              `json:"read"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

type PreferencesRequest struct {
	Email            *bool `json:"email"`
	InApp            *bool `json:"in_app"`
	Push             *bool `json:"push"`
	JourneyReminders *bool `json:"journey_reminders"`
	Promotional      *bool `json:"promotional"`
}

type PreferencesResponse struct {
	Email            bool `json:"email"`
	InApp            bool `json:"in_app"`
	Push             bool `json:"push"`
	JourneyReminders bool `json:"journey_reminders"`
	Promotional      bool `json:"promotional"`
}

func toNotificationResponse(n repository.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		Type:      string(n.Type),
		Title:     n.Title,
		Message:   n.Message,
		Read:      n.Read,
		Metadata:  n.Metadata,
		CreatedAt: n.CreatedAt,
	}
}

func toPreferencesResponse(p repository.Preferences) PreferencesResponse {
	return PreferencesResponse{
		Email:            p.Email,
		InApp:            p.InApp,
		Push:             p.Push,
		JourneyReminders: p.JourneyReminders,
		Promotional:      p.Promotional,
	}
}

// ListNotifications handles GET /notifications.
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	items, err := h.notifications.List(r.Context(), identity(r).UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	resp := make([]NotificationResponse, 0, len(items))
	for _, n := range items {
		resp = append(resp, toNotificationResponse(n))
	}
	h.writeJSON(w, r, http.StatusOK, resp)
}

// MarkNotificationRead handles PUT /notifications/{id}/read.
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.notifications.MarkAsRead(r.Context(), identity(r).UserID, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, toNotificationResponse(n))
}

// MarkAllNotificationsRead handles PUT /notifications/read-all.
func (h *Handler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	updated, err := h.notifications.MarkAllAsRead(r.Context(), identity(r).UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, map[string]int64{"updated": updated})
}

// GetPreferences handles GET /notifications/preferences.
func (h *Handler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.notifications.GetPreferences(r.Context(), identity(r).UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, toPreferencesResponse(prefs))
}

// UpdatePreferences handles PUT /notifications/preferences. Omitted fields keep their value.
func (h *Handler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var req PreferencesRequest
	if !h.decode(w, r, &req) {
		return
	}
	prefs, err := h.notifications.UpdatePreferences(r.Context(), identity(r).UserID, repository.PreferencesPatch{
		Email:            req.Email,
		InApp:            req.InApp,
		Push:             req.Push,
		JourneyReminders: req.JourneyReminders,
		Promotional:      req.Promotional,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, toPreferencesResponse(prefs))
}
