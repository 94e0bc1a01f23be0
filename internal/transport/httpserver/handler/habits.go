package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"habit-rooms-go/internal/domain/calday"
	habitdomain "habit-rooms-go/internal/domain/habit"
	roomdomain "habit-rooms-go/internal/domain/room"
)

const defaultHistoryDays = 30

type createHabitRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Category    string  `json:"category"`
	HabitType   string  `json:"habit_type"`
	TargetCount int     `json:"target_count"`
}

type completeHabitRequest struct {
	Date string `json:"date"`
}

type habitResponse struct {
	ID          string    `json:"id"`
	RoomID      string    `json:"room_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Category    string    `json:"category"`
	HabitType   string    `json:"habit_type"`
	TargetCount int       `json:"target_count"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

type habitViewResponse struct {
	habitResponse
	IsJoined      bool                  `json:"is_joined"`
	IsCreator     bool                  `json:"is_creator"`
	MyCompletions int                   `json:"my_completions"`
	Members       []habitMemberResponse `json:"members"`
}

type habitMemberResponse struct {
	UserID      string  `json:"user_id"`
	DisplayName string  `json:"display_name"`
	AvatarURL   *string `json:"avatar_url"`
	Completions int     `json:"completions"`
}

type habitListResponse struct {
	Date   string              `json:"date"`
	Habits []habitViewResponse `json:"habits"`
}

type completionResponse struct {
	ID             string    `json:"id"`
	HabitID        string    `json:"habit_id"`
	UserID         string    `json:"user_id"`
	CompletionDate string    `json:"completion_date"`
	CompletedAt    time.Time `json:"completed_at"`
}

type dayCountResponse struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type roomProgressResponse struct {
	RoomID             string  `json:"room_id"`
	Date               string  `json:"date"`
	TotalHabits        int     `json:"total_habits"`
	JoinedHabits       int     `json:"joined_habits"`
	CompletedToday     int     `json:"completed_today"`
	CollectiveProgress float64 `json:"collective_progress"`
}

func (h *Handlers) ListHabits(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	roomID, ok := pathUUID(r, "room_id")
	if !ok {
		h.fail(w, "habits.list: malformed room id", roomdomain.ErrRoomNotFound, "user_id", user.ID)
		return
	}
	day, err := dateOr(r, "date", h.Habits.Today)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
		return
	}

	views, err := h.Habits.ListHabits(r.Context(), user.ID, roomID, day)
	if err != nil {
		h.fail(w, "habits.list: list habits failed", err, "user_id", user.ID, "room_id", roomID)
		return
	}

	response := habitListResponse{Date: calday.Format(day), Habits: make([]habitViewResponse, 0, len(views))}
	for i := range views {
		response.Habits = append(response.Habits, toHabitViewResponse(&views[i]))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) CreateHabit(w http.ResponseWriter, r *http.Request) {
	var req createHabitRequest
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
	roomID, ok := pathUUID(r, "room_id")
	if !ok {
		h.fail(w, "habits.create: malformed room id", roomdomain.ErrRoomNotFound, "user_id", user.ID)
		return
	}

	habit, err := h.Habits.CreateHabit(r.Context(), user.ID, roomID, habitdomain.CreateInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    habitdomain.Category(strings.TrimSpace(req.Category)),
		HabitType:   habitdomain.Type(strings.TrimSpace(req.HabitType)),
		TargetCount: req.TargetCount,
	})
	if err != nil {
		h.fail(w, "habits.create: create habit failed", err, "user_id", user.ID, "room_id", roomID)
		return
	}
	writeJSON(w, http.StatusCreated, toHabitResponse(habit))
}

func (h *Handlers) JoinHabit(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	habitID, ok := pathUUID(r, "habit_id")
	if !ok {
		h.fail(w, "habits.join: malformed habit id", habitdomain.ErrHabitNotFound, "user_id", user.ID)
		return
	}

	if err := h.Habits.JoinHabit(r.Context(), user.ID, habitID); err != nil {
		h.fail(w, "habits.join: join habit failed", err, "user_id", user.ID, "habit_id", habitID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) LeaveHabit(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	habitID, ok := pathUUID(r, "habit_id")
	if !ok {
		h.fail(w, "habits.leave: malformed habit id", habitdomain.ErrHabitNotFound, "user_id", user.ID)
		return
	}

	if err := h.Habits.LeaveHabit(r.Context(), user.ID, habitID); err != nil {
		h.fail(w, "habits.leave: leave habit failed", err, "user_id", user.ID, "habit_id", habitID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CompleteHabit records a completion for today. A body naming another date
// is refused.
func (h *Handlers) CompleteHabit(w http.ResponseWriter, r *http.Request) {
	var req completeHabitRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	viewedDay, err := parseDateParam(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
		return
	}

	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	habitID, ok := pathUUID(r, "habit_id")
	if !ok {
		h.fail(w, "habits.complete: malformed habit id", habitdomain.ErrHabitNotFound, "user_id", user.ID)
		return
	}

	completion, err := h.Habits.CompleteHabit(r.Context(), user.ID, habitID, viewedDay)
	if err != nil {
		h.fail(w, "habits.complete: complete habit failed", err, "user_id", user.ID, "habit_id", habitID)
		return
	}
	writeJSON(w, http.StatusCreated, completionResponse{
		ID:             completion.ID,
		HabitID:        completion.HabitID,
		UserID:         completion.UserID,
		CompletionDate: calday.Format(completion.CompletionDate),
		CompletedAt:    completion.CompletedAt,
	})
}

func (h *Handlers) HabitHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	habitID, ok := pathUUID(r, "habit_id")
	if !ok {
		h.fail(w, "habits.history: malformed habit id", habitdomain.ErrHabitNotFound, "user_id", user.ID)
		return
	}

	to, err := dateOr(r, "to", h.Habits.Today)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "to must be YYYY-MM-DD")
		return
	}
	from, err := dateOr(r, "from", func() time.Time { return to.AddDate(0, 0, -(defaultHistoryDays - 1)) })
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "from must be YYYY-MM-DD")
		return
	}

	days, err := h.Habits.CompletionHistory(r.Context(), user.ID, habitID, from, to)
	if err != nil {
		h.fail(w, "habits.history: load history failed", err, "user_id", user.ID, "habit_id", habitID)
		return
	}

	response := make([]dayCountResponse, 0, len(days))
	for _, day := range days {
		response = append(response, dayCountResponse{Date: calday.Format(day.Day), Count: day.Count})
	}
	writeJSON(w, http.StatusOK, response)
}

// RoomProgress summarizes today's habits of one room.
func (h *Handlers) RoomProgress(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	roomID, ok := pathUUID(r, "room_id")
	if !ok {
		h.fail(w, "habits.room_progress: malformed room id", roomdomain.ErrRoomNotFound, "user_id", user.ID)
		return
	}

	today := h.Habits.Today()
	views, err := h.Habits.ListHabits(r.Context(), user.ID, roomID, today)
	if err != nil {
		h.fail(w, "habits.room_progress: list habits failed", err, "user_id", user.ID, "room_id", roomID)
		return
	}

	writeJSON(w, http.StatusOK, roomProgressResponse{
		RoomID:             roomID,
		Date:               calday.Format(today),
		TotalHabits:        len(views),
		JoinedHabits:       habitdomain.JoinedCount(views),
		CompletedToday:     habitdomain.CompletedToday(views),
		CollectiveProgress: habitdomain.CollectiveProgress(views),
	})
}

func toHabitResponse(habit *habitdomain.Habit) habitResponse {
	return habitResponse{
		ID:          habit.ID,
		RoomID:      habit.RoomID,
		Name:        habit.Name,
		Description: habit.Description,
		Category:    string(habit.Category),
		HabitType:   string(habit.HabitType),
		TargetCount: habit.TargetCount,
		CreatedBy:   habit.CreatedBy,
		CreatedAt:   habit.CreatedAt,
	}
}

func toHabitViewResponse(view *habitdomain.View) habitViewResponse {
	members := make([]habitMemberResponse, 0, len(view.Members))
	for _, member := range view.Members {
		members = append(members, habitMemberResponse{
			UserID:      member.UserID,
			DisplayName: member.DisplayName,
			AvatarURL:   member.AvatarURL,
			Completions: member.Completions,
		})
	}
	return habitViewResponse{
		habitResponse: toHabitResponse(&view.Habit),
		IsJoined:      view.IsJoined,
		IsCreator:     view.IsCreator,
		MyCompletions: view.MyCompletions,
		Members:       members,
	}
}
