package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"habit-rooms-go/internal/config"
	"habit-rooms-go/internal/transport/httpserver/handler"
	authmw "habit-rooms-go/internal/transport/httpserver/middleware"
	"habit-rooms-go/pkg/logger"
)

const requestTimeout = 30 * time.Second

func NewRouter(cfg config.Config, handlers *handler.Handlers, profiles authmw.ProfileEnsurer, log logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(authmw.NewCORS(cfg.AllowedOrigins))

	r.Route("/api", func(r chi.Router) {
		r.With(chimw.Timeout(requestTimeout)).Get("/health", handlers.Health)

		auth := authmw.NewSupabaseAuth(cfg.Supabase, profiles, log)
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware)

			// Long-lived stream; kept out of the request timeout.
			r.Get("/events", handlers.Events)

			r.Group(func(r chi.Router) {
				r.Use(chimw.Timeout(requestTimeout))

				r.Get("/auth/me", handlers.AuthMe)
				r.Post("/auth/signout", handlers.SignOut)

				r.Get("/profile", handlers.GetProfile)
				r.Patch("/profile", handlers.UpdateProfile)

				r.Get("/rooms", handlers.ListRooms)
				r.Post("/rooms", handlers.CreateRoom)
				r.Post("/rooms/join", handlers.JoinRoom)
				r.Get("/rooms/current", handlers.GetCurrentRoom)
				r.Put("/rooms/current", handlers.SetCurrentRoom)
				r.Get("/rooms/{room_id}", handlers.GetRoom)
				r.Post("/rooms/{room_id}/leave", handlers.LeaveRoom)
				r.Get("/rooms/{room_id}/habits", handlers.ListHabits)
				r.Post("/rooms/{room_id}/habits", handlers.CreateHabit)
				r.Get("/rooms/{room_id}/progress", handlers.RoomProgress)

				r.Post("/habits/{habit_id}/join", handlers.JoinHabit)
				r.Post("/habits/{habit_id}/leave", handlers.LeaveHabit)
				r.Post("/habits/{habit_id}/complete", handlers.CompleteHabit)
				r.Get("/habits/{habit_id}/history", handlers.HabitHistory)

				r.Get("/progress/daily", handlers.DailyProgress)
				r.Get("/progress/calendar", handlers.CalendarProgress)
				r.Get("/progress/weekly", handlers.WeeklyProgress)

				r.Post("/nudges", handlers.SendNudge)
				r.Get("/nudges/sent", handlers.ListSentNudges)
				r.Get("/nudges/received", handlers.ListReceivedNudges)

				r.Get("/notifications", handlers.ListNotifications)
				r.Get("/notifications/unread-count", handlers.UnreadCount)
				r.Post("/notifications/{id}/read", handlers.MarkNotificationRead)
			})
		})
	})

	return r
}
