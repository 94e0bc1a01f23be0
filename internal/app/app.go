package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"gorm.io/gorm"

	"habit-rooms-go/internal/config"
	"habit-rooms-go/internal/db"
	habitdomain "habit-rooms-go/internal/domain/habit"
	notificationdomain "habit-rooms-go/internal/domain/notification"
	progressdomain "habit-rooms-go/internal/domain/progress"
	roomdomain "habit-rooms-go/internal/domain/room"
	userdomain "habit-rooms-go/internal/domain/user"
	"habit-rooms-go/internal/realtime"
	"habit-rooms-go/internal/repository/inmemory"
	habitrepo "habit-rooms-go/internal/repository/postgres/habit"
	notificationrepo "habit-rooms-go/internal/repository/postgres/notification"
	progressrepo "habit-rooms-go/internal/repository/postgres/progress"
	roomrepo "habit-rooms-go/internal/repository/postgres/room"
	userrepo "habit-rooms-go/internal/repository/postgres/user"
	"habit-rooms-go/internal/transport/httpserver"
	"habit-rooms-go/internal/transport/httpserver/handler"
	"habit-rooms-go/pkg/logger"
)

const selectionTTL = 30 * 24 * time.Hour

// progressTables are the tables daily percentages are derived from.
var progressTables = []realtime.Table{
	realtime.TableRoomMembers,
	realtime.TableHabits,
	realtime.TableHabitMemberships,
	realtime.TableHabitCompletions,
}

type App struct {
	cfg        config.Config
	log        logger.Logger
	httpServer *http.Server
	db         *gorm.DB
	hub        *realtime.Hub
	listener   *realtime.Listener
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

func New(log logger.Logger) (*App, error) {
	log.Info("app: loading config")
	cfg, err := config.Load(log)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	loc := cfg.Location()

	log.Info("app: initializing database")
	dbConn, err := db.NewPostgres(cfg.DB, log)
	if err != nil {
		return nil, err
	}

	hub := realtime.NewHub(cfg.Realtime.BufferSize, log)

	log.Info("app: initializing services")
	rooms := roomdomain.NewService(roomrepo.NewPostgres(dbConn), inmemory.NewSelectionStore(selectionTTL), hub, log)
	habits := habitdomain.NewService(habitrepo.NewPostgres(dbConn), rooms, hub, loc, log)
	progress := progressdomain.NewService(
		progressrepo.NewPostgres(dbConn),
		rooms,
		inmemory.NewProgressCache(cfg.Progress.CacheTTL),
		loc,
		cfg.Progress.CalendarDays,
		log,
	)
	InvalidateProgressOnChange(hub, progress)
	notifications := notificationdomain.NewService(notificationrepo.NewPostgres(dbConn), rooms, hub, log)
	pinger := db.NewPinger(dbConn)
	profiles := userdomain.NewService(userrepo.NewPostgres(dbConn), pinger, userdomain.RetryPolicy{
		Attempts: cfg.Profile.UpdateAttempts,
		Backoff:  cfg.Profile.RetryBackoff,
	}, log)

	log.Info("app: initializing router")
	handlers := handler.New(rooms, habits, progress, notifications, profiles, hub, pinger, log)
	router := httpserver.NewRouter(cfg, handlers, profiles, log)

	log.Info("app: initializing http server")
	srv := httpserver.New(cfg, router)

	ctx, cancel := context.WithCancel(context.Background())
	application := &App{
		cfg:        cfg,
		log:        log,
		httpServer: srv,
		db:         dbConn,
		hub:        hub,
		cancel:     cancel,
	}

	if cfg.Realtime.ListenEnabled {
		application.listener = realtime.NewListener(
			cfg.DB.GetDSN(),
			cfg.Realtime.Channel,
			cfg.Realtime.MinReconnect,
			cfg.Realtime.MaxReconnect,
			hub,
			log,
		)
		application.goRun(func() {
			if err := application.listener.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("realtime.listener: stopped", "err", err)
			}
		})
	}

	return application, nil
}

type Invalidator interface {
	Invalidate()
}

// InvalidateProgressOnChange clears cached progress inside Publish, so a
// write has invalidated the cache by the time it returns. Events relayed
// from other instances by the listener pass through the same hook.
func InvalidateProgressOnChange(hub *realtime.Hub, progress Invalidator) {
	hub.OnChange(func(realtime.Event) {
		progress.Invalidate()
	}, progressTables...)
}

func (a *App) goRun(fn func()) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		fn()
	}()
}

func (a *App) HTTPServer() *http.Server {
	return a.httpServer
}

// StopBackground stops the change listener and ends open event streams. It is safe to call more than once.
func (a *App) StopBackground() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.hub != nil {
		a.hub.Close()
	}
	a.wg.Wait()
}

// Close stops background work and closes the database pool.
func (a *App) Close() error {
	a.StopBackground()

	if a.db == nil {
		return nil
	}
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// RunMigrations connects, applies pending migrations and disconnects.
func RunMigrations(log logger.Logger, dir string) (int, error) {
	cfg, err := config.Load(log)
	if err != nil {
		return 0, err
	}
	if dir == "" {
		dir = cfg.DB.MigrationsDir
	}

	dbConn, err := db.NewPostgres(cfg.DB, log)
	if err != nil {
		return 0, err
	}
	defer func() {
		if sqlDB, err := dbConn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	return db.Migrate(dbConn, dir, log)
}
