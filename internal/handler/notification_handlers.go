package handler

import (
	"net/http"

	"github.com/mtlprog/teamtask/internal/handler/dto"
)

// handleListNotifications returns the caller's notifications, newest first.
// ?unread=true limits the list to unread ones.
// @Summary List notifications
// @Tags notifications
// @Produce json
// @Param unread query bool false "Only unread notifications"
// @Success 200 {object} dto.NotificationsResponse
// @Failure 401 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /notifications [get]
func (h *Handler) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	list, err := h.notifications.List(r.Context(), actor, r.URL.Query().Get("unread") == "true")
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NotificationsResponse{
		Notifications: dto.ToNotificationResponses(list),
	})
}

// handleUnreadCount returns how many unread notifications the caller has.
// @Summary Unread notification count
// @Tags notifications
// @Produce json
// @Success 200 {object} dto.UnreadCountResponse
// @Failure 401 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /notifications/unread-count [get]
func (h *Handler) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	count, err := h.notifications.UnreadCount(r.Context(), actor)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.UnreadCountResponse{Count: count})
}

// handleMarkRead flags one notification of the caller as read.
// @Summary Mark a notification read
// @Tags notifications
// @Param id path string true "Notification ID"
// @Success 204
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /notifications/{id}/read [post]
func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := extractID(w, r, "notification")
	if !ok {
		return
	}

	if err := h.notifications.MarkRead(r.Context(), actor, id); err != nil {
		respondDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleMarkAllRead flags every unread notification of the caller.
// @Summary Mark all notifications read
// @Tags notifications
// @Produce json
// @Success 200 {object} dto.MarkAllReadResponse
// @Failure 401 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /notifications/read-all [post]
func (h *Handler) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	updated, err := h.notifications.MarkAllRead(r.Context(), actor)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.MarkAllReadResponse{Updated: updated})
}

// handleDeleteNotification removes one notification of the caller.
// @Summary Delete a notification
// @Tags notifications
// @Param id path string true "Notification ID"
// @Success 204
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /notifications/{id} [delete]
func (h *Handler) handleDeleteNotification(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := extractID(w, r, "notification")
	if !ok {
		return
	}

	if err := h.notifications.Delete(r.Context(), actor, id); err != nil {
		respondDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
