package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"habit-rooms-go/internal/domain/failure"
	habitdomain "habit-rooms-go/internal/domain/habit"
	notificationdomain "habit-rooms-go/internal/domain/notification"
	roomdomain "habit-rooms-go/internal/domain/room"
	userdomain "habit-rooms-go/internal/domain/user"
	"habit-rooms-go/internal/transport/httpserver/middleware"
)

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorCodes names the sentinels clients branch on. Anything else gets the
// generic code of its kind.
var errorCodes = []struct {
	err  error
	code string
}{
	{roomdomain.ErrRoomNotFound, "room_not_found"},
	{roomdomain.ErrNoRooms, "no_rooms"},
	{roomdomain.ErrInvalidCode, "invalid_code"},
	{roomdomain.ErrAlreadyMember, "already_member"},
	{roomdomain.ErrRoomFull, "room_full"},
	{roomdomain.ErrOrphanedRoom, "orphaned_room"},
	{roomdomain.ErrCodeGenerationFailed, "code_generation_failed"},
	{habitdomain.ErrHabitNotFound, "habit_not_found"},
	{habitdomain.ErrRoomNotFound, "room_not_found"},
	{habitdomain.ErrAlreadyJoined, "already_joined"},
	{habitdomain.ErrNotToday, "not_today"},
	{notificationdomain.ErrRateLimited, "rate_limited"},
	{notificationdomain.ErrSelfNudge, "self_nudge"},
	{notificationdomain.ErrHabitNotFound, "habit_not_found"},
	{notificationdomain.ErrRecipientNotFound, "recipient_not_found"},
	{notificationdomain.ErrNotificationNotFound, "notification_not_found"},
	{userdomain.ErrProfileNotFound, "profile_not_found"},
	{failure.ErrAuthRequired, "auth_required"},
	{failure.ErrNetworkUnavailable, "network_unavailable"},
}

var kindStatus = map[failure.Kind]int{
	failure.KindAuthRequired:       http.StatusUnauthorized,
	failure.KindNotFound:           http.StatusNotFound,
	failure.KindConflict:           http.StatusConflict,
	failure.KindCapacityExceeded:   http.StatusConflict,
	failure.KindNetworkUnavailable: http.StatusServiceUnavailable,
	failure.KindInvalid:            http.StatusBadRequest,
	failure.KindRemote:             http.StatusInternalServerError,
}

var kindCode = map[failure.Kind]string{
	failure.KindAuthRequired:       "auth_required",
	failure.KindNotFound:           "not_found",
	failure.KindConflict:           "conflict",
	failure.KindCapacityExceeded:   "capacity_exceeded",
	failure.KindNetworkUnavailable: "network_unavailable",
	failure.KindInvalid:            "invalid_request",
	failure.KindRemote:             "internal_error",
}

// fail logs err under op and writes the matching error envelope. Expected
// outcomes log as business errors, the rest as internal errors.
func (h *Handlers) fail(w http.ResponseWriter, op string, err error, args ...any) {
	kind := failure.KindOf(err)
	status, code, message := describeError(err, kind)
	if failure.IsBusiness(err) {
		h.log.BusinessError(op, err, args...)
	} else {
		h.log.InternalError(op, err, args...)
	}
	writeError(w, status, code, message)
}

func describeError(err error, kind failure.Kind) (int, string, string) {
	status, ok := kindStatus[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	code := kindCode[kind]
	for _, known := range errorCodes {
		if errors.Is(err, known.err) {
			code = known.code
			break
		}
	}

	var tagged *failure.Error
	if !errors.As(err, &tagged) {
		return http.StatusInternalServerError, "internal_error", "internal error"
	}
	return status, code, tagged.Error()
}

func currentUser(w http.ResponseWriter, r *http.Request) (middleware.User, bool) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return middleware.User{}, false
	}
	return user, true
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorEnvelope{Error: errorBody{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
