package handler

import (
	"net/http"
	"strings"
	"time"

	notificationdomain "habit-rooms-go/internal/domain/notification"
)

type sendNudgeRequest struct {
	ToUserID string `json:"to_user_id"`
	HabitID  string `json:"habit_id"`
}

type partyResponse struct {
	UserID      string  `json:"user_id"`
	DisplayName string  `json:"display_name"`
	AvatarURL   *string `json:"avatar_url"`
}

type nudgeResponse struct {
	ID         string         `json:"id"`
	FromUserID string         `json:"from_user_id"`
	ToUserID   string         `json:"to_user_id"`
	HabitID    string         `json:"habit_id"`
	HabitName  string         `json:"habit_name,omitempty"`
	FromUser   *partyResponse `json:"from_user,omitempty"`
	ToUser     *partyResponse `json:"to_user,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

type notificationResponse struct {
	ID        string        `json:"id"`
	HabitID   string        `json:"habit_id"`
	HabitName string        `json:"habit_name"`
	Message   string        `json:"message"`
	Read      bool          `json:"read"`
	FromUser  partyResponse `json:"from_user"`
	CreatedAt time.Time     `json:"created_at"`
}

type notificationListResponse struct {
	Notifications []notificationResponse `json:"notifications"`
	UnreadCount   int                    `json:"unread_count"`
}

type unreadCountResponse struct {
	UnreadCount int `json:"unread_count"`
}

func (h *Handlers) SendNudge(w http.ResponseWriter, r *http.Request) {
	var req sendNudgeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	req.ToUserID = strings.TrimSpace(req.ToUserID)
	req.HabitID = strings.TrimSpace(req.HabitID)
	if req.ToUserID == "" || req.HabitID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "to_user_id and habit_id are required")
		return
	}

	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	if !isUUID(req.HabitID) {
		h.fail(w, "nudges.send: malformed habit id", notificationdomain.ErrHabitNotFound, "user_id", user.ID)
		return
	}
	if !isUUID(req.ToUserID) {
		h.fail(w, "nudges.send: malformed recipient id", notificationdomain.ErrRecipientNotFound, "user_id", user.ID)
		return
	}

	nudge, err := h.Notifications.SendNudge(r.Context(), user.ID, req.ToUserID, req.HabitID)
	if err != nil {
		h.fail(w, "nudges.send: send nudge failed", err, "from_user_id", user.ID, "to_user_id", req.ToUserID, "habit_id", req.HabitID)
		return
	}
	writeJSON(w, http.StatusCreated, nudgeResponse{
		ID:         nudge.ID,
		FromUserID: nudge.FromUserID,
		ToUserID:   nudge.ToUserID,
		HabitID:    nudge.HabitID,
		CreatedAt:  nudge.CreatedAt,
	})
}

func (h *Handlers) ListSentNudges(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	nudges, err := h.Notifications.ListSentNudges(r.Context(), user.ID)
	if err != nil {
		h.fail(w, "nudges.sent: list nudges failed", err, "user_id", user.ID)
		return
	}
	writeJSON(w, http.StatusOK, toNudgeResponses(nudges))
}

func (h *Handlers) ListReceivedNudges(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	nudges, err := h.Notifications.ListReceivedNudges(r.Context(), user.ID)
	if err != nil {
		h.fail(w, "nudges.received: list nudges failed", err, "user_id", user.ID)
		return
	}
	writeJSON(w, http.StatusOK, toNudgeResponses(nudges))
}

func (h *Handlers) ListNotifications(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	notifications, err := h.Notifications.ListNotifications(r.Context(), user.ID)
	if err != nil {
		h.fail(w, "notifications.list: list notifications failed", err, "user_id", user.ID)
		return
	}

	response := notificationListResponse{
		Notifications: make([]notificationResponse, 0, len(notifications)),
		UnreadCount:   notificationdomain.CountUnread(notifications),
	}
	for _, item := range notifications {
		response.Notifications = append(response.Notifications, notificationResponse{
			ID:        item.ID,
			HabitID:   item.HabitID,
			HabitName: item.HabitName,
			Message:   item.Message,
			Read:      item.Read,
			FromUser:  toPartyResponse(item.FromUser),
			CreatedAt: item.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) UnreadCount(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	count, err := h.Notifications.UnreadCount(r.Context(), user.ID)
	if err != nil {
		h.fail(w, "notifications.unread_count: count failed", err, "user_id", user.ID)
		return
	}
	writeJSON(w, http.StatusOK, unreadCountResponse{UnreadCount: count})
}

func (h *Handlers) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	notificationID, ok := pathUUID(r, "id")
	if !ok {
		h.fail(w, "notifications.mark_read: malformed id", notificationdomain.ErrNotificationNotFound, "user_id", user.ID)
		return
	}

	if err := h.Notifications.MarkRead(r.Context(), user.ID, notificationID); err != nil {
		h.fail(w, "notifications.mark_read: mark read failed", err, "user_id", user.ID, "notification_id", notificationID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toNudgeResponses(nudges []notificationdomain.NudgeView) []nudgeResponse {
	response := make([]nudgeResponse, 0, len(nudges))
	for _, nudge := range nudges {
		from := toPartyResponse(nudge.FromUser)
		to := toPartyResponse(nudge.ToUser)
		response = append(response, nudgeResponse{
			ID:         nudge.ID,
			FromUserID: nudge.FromUserID,
			ToUserID:   nudge.ToUserID,
			HabitID:    nudge.HabitID,
			HabitName:  nudge.HabitName,
			FromUser:   &from,
			ToUser:     &to,
			CreatedAt:  nudge.CreatedAt,
		})
	}
	return response
}

func toPartyResponse(party notificationdomain.Party) partyResponse {
	return partyResponse{
		UserID:      party.UserID,
		DisplayName: party.DisplayName,
		AvatarURL:   party.AvatarURL,
	}
}
