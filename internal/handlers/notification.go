package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/crucial707/gearbox/internal/middleware"
	"github.com/crucial707/gearbox/internal/repo"
)

// NotificationHandler serves the caller's notification inbox. Visibility is
// decided by the user id and role in the token.
type NotificationHandler struct {
	Repo *repo.NotificationRepo
}

// ListNotifications returns the caller's notifications, newest first.
// Query: unread=true to drop read ones.
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	list, err := h.Repo.List(r.Context(), user.ID, user.Role)
	if err != nil {
		slog.Error("list notifications", "err", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if r.URL.Query().Get("unread") == "true" {
		unread := list[:0]
		for _, n := range list {
			if !n.Read {
				unread = append(unread, n)
			}
		}
		list = unread
	}
	writeJSON(w, http.StatusOK, list)
}

// UnreadCount returns {"unread": n} for badge polling.
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	n, err := h.Repo.UnreadCount(r.Context(), user.ID, user.Role)
	if err != nil {
		slog.Error("unread count", "err", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"unread": n})
}

// MarkRead flags one of the caller's notifications read. Unknown ids, and
// ids addressed to someone else, succeed silently without changing anything.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if _, err := h.Repo.MarkReadFor(r.Context(), chi.URLParam(r, "id"), user.ID, user.Role); err != nil {
		slog.Error("mark read", "err", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MarkAllRead flags every notification visible to the caller and returns {"updated": n}.
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	n, err := h.Repo.MarkAllRead(r.Context(), user.ID, user.Role)
	if err != nil {
		slog.Error("mark all read", "err", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"updated": n})
}
