package handler

import (
	"net/http"
	"strings"
	"time"

	roomdomain "habit-rooms-go/internal/domain/room"
)

type createRoomRequest struct {
	Name string `json:"name"`
}

type joinRoomRequest struct {
	Code string `json:"code"`
}

type selectRoomRequest struct {
	RoomID string `json:"room_id"`
}

type roomResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	InviteCode  string               `json:"invite_code"`
	CreatedBy   string               `json:"created_by"`
	CreatedAt   time.Time            `json:"created_at"`
	MemberCount int                  `json:"member_count"`
	MaxMembers  int                  `json:"max_members"`
	IsCreator   bool                 `json:"is_creator"`
	Members     []roomMemberResponse `json:"members"`
}

type roomMemberResponse struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	AvatarURL   *string   `json:"avatar_url"`
	JoinedAt    time.Time `json:"joined_at"`
}

func (h *Handlers) ListRooms(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	rooms, err := h.Rooms.ListRooms(r.Context(), user.ID)
	if err != nil {
		h.fail(w, "rooms.list: list rooms failed", err, "user_id", user.ID)
		return
	}

	response := make([]roomResponse, 0, len(rooms))
	for i := range rooms {
		response = append(response, toRoomResponse(&rooms[i]))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) GetRoom(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	roomID, ok := pathUUID(r, "room_id")
	if !ok {
		h.fail(w, "rooms.get: malformed room id", roomdomain.ErrRoomNotFound, "user_id", user.ID)
		return
	}

	room, err := h.Rooms.GetRoom(r.Context(), user.ID, roomID)
	if err != nil {
		h.fail(w, "rooms.get: get room failed", err, "user_id", user.ID, "room_id", roomID)
		return
	}
	writeJSON(w, http.StatusOK, toRoomResponse(room))
}

func (h *Handlers) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "name is required")
		return
	}

	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	room, err := h.Rooms.CreateRoom(r.Context(), user.ID, req.Name)
	if err != nil {
		h.fail(w, "rooms.create: create room failed", err, "user_id", user.ID)
		return
	}
	writeJSON(w, http.StatusCreated, toRoomResponse(room))
}

func (h *Handlers) JoinRoom(w http.ResponseWriter, r *http.Request) {
	var req joinRoomRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	if strings.TrimSpace(req.Code) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "code is required")
		return
	}

	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	room, err := h.Rooms.JoinRoom(r.Context(), user.ID, req.Code)
	if err != nil {
		h.fail(w, "rooms.join: join room failed", err, "user_id", user.ID, "code", roomdomain.NormalizeCode(req.Code))
		return
	}
	writeJSON(w, http.StatusOK, toRoomResponse(room))
}

func (h *Handlers) LeaveRoom(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	roomID, ok := pathUUID(r, "room_id")
	if !ok {
		h.fail(w, "rooms.leave: malformed room id", roomdomain.ErrRoomNotFound, "user_id", user.ID)
		return
	}

	if err := h.Rooms.LeaveRoom(r.Context(), user.ID, roomID); err != nil {
		h.fail(w, "rooms.leave: leave room failed", err, "user_id", user.ID, "room_id", roomID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) GetCurrentRoom(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	room, err := h.Rooms.CurrentRoom(r.Context(), user.ID)
	if err != nil {
		h.fail(w, "rooms.current: resolve current room failed", err, "user_id", user.ID)
		return
	}
	writeJSON(w, http.StatusOK, toRoomResponse(room))
}

func (h *Handlers) SetCurrentRoom(w http.ResponseWriter, r *http.Request) {
	var req selectRoomRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	if !isUUID(req.RoomID) {
		h.fail(w, "rooms.select: malformed room id", roomdomain.ErrRoomNotFound, "user_id", user.ID)
		return
	}

	room, err := h.Rooms.SetCurrentRoom(r.Context(), user.ID, strings.TrimSpace(req.RoomID))
	if err != nil {
		h.fail(w, "rooms.select: select room failed", err, "user_id", user.ID, "room_id", req.RoomID)
		return
	}
	writeJSON(w, http.StatusOK, toRoomResponse(room))
}

func toRoomResponse(room *roomdomain.Details) roomResponse {
	members := make([]roomMemberResponse, 0, len(room.Members))
	for _, member := range room.Members {
		members = append(members, roomMemberResponse{
			UserID:      member.UserID,
			DisplayName: member.DisplayName,
			AvatarURL:   member.AvatarURL,
			JoinedAt:    member.JoinedAt,
		})
	}
	return roomResponse{
		ID:          room.ID,
		Name:        room.Name,
		InviteCode:  room.InviteCode,
		CreatedBy:   room.CreatedBy,
		CreatedAt:   room.CreatedAt,
		MemberCount: room.MemberCount,
		MaxMembers:  roomdomain.MaxMembers,
		IsCreator:   room.IsCreator,
		Members:     members,
	}
}
