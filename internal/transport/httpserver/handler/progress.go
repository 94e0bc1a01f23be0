package handler

import (
	"net/http"

	"habit-rooms-go/internal/domain/calday"
)

type percentageResponse struct {
	Date       string  `json:"date"`
	Percentage float64 `json:"percentage"`
}

type weeklyResponse struct {
	WeekStart  string  `json:"week_start"`
	WeekEnd    string  `json:"week_end"`
	Percentage float64 `json:"percentage"`
}

func (h *Handlers) DailyProgress(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	day, err := dateOr(r, "date", h.Progress.Today)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
		return
	}

	percentage, err := h.Progress.Daily(r.Context(), user.ID, day)
	if err != nil {
		h.fail(w, "progress.daily: compute percentage failed", err, "user_id", user.ID, "date", calday.Format(day))
		return
	}
	writeJSON(w, http.StatusOK, percentageResponse{Date: calday.Format(day), Percentage: percentage})
}

// CalendarProgress returns the trailing days ending today, oldest first.
func (h *Handlers) CalendarProgress(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	days, err := parseIntParam(r.URL.Query().Get("days"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "days must be a non-negative integer")
		return
	}

	calendar, err := h.Progress.Calendar(r.Context(), user.ID, days)
	if err != nil {
		h.fail(w, "progress.calendar: compute calendar failed", err, "user_id", user.ID, "days", days)
		return
	}

	response := make([]percentageResponse, 0, len(calendar))
	for _, day := range calendar {
		response = append(response, percentageResponse{Date: calday.Format(day.Day), Percentage: day.Percentage})
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) WeeklyProgress(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	weekEnd, err := dateOr(r, "week_end", h.Progress.Today)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "week_end must be YYYY-MM-DD")
		return
	}

	percentage, err := h.Progress.Weekly(r.Context(), user.ID, weekEnd)
	if err != nil {
		h.fail(w, "progress.weekly: compute percentage failed", err, "user_id", user.ID, "week_end", calday.Format(weekEnd))
		return
	}
	writeJSON(w, http.StatusOK, weeklyResponse{
		WeekStart:  calday.Format(weekEnd.AddDate(0, 0, -6)),
		WeekEnd:    calday.Format(weekEnd),
		Percentage: percentage,
	})
}
