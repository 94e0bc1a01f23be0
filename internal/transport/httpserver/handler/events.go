package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"habit-rooms-go/internal/realtime"
)

// Events streams change signals as server-sent events. Each event names a
// table that changed; clients re-fetch what they display from it. Only events
// for the caller's rooms, or addressed to the caller, are written.
func (h *Handlers) Events(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var tables []realtime.Table
	for _, name := range parseCSV(r.URL.Query().Get("tables")) {
		table, err := realtime.ParseTable(name)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		tables = append(tables, table)
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming_unsupported", "streaming unsupported")
		return
	}

	sub := h.EventSource.Subscribe(tables...)
	defer sub.Close()

	// Subscribe first so a membership change between the two calls is not
	// missed; it arrives as an event addressed to the caller and refreshes.
	rooms, err := h.roomSet(r.Context(), user.ID)
	if err != nil {
		h.fail(w, "events", err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	h.log.Debug("events: stream opened", "user_id", user.ID, "tables", tables)
	defer h.log.Debug("events: stream closed", "user_id", user.ID)

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			if event.Table == realtime.TableRoomMembers && event.Concerns(user.ID) {
				if refreshed, err := h.roomSet(r.Context(), user.ID); err != nil {
					h.log.Warn("events: room refresh failed", "user_id", user.ID, "err", err)
				} else {
					rooms = refreshed
				}
			}
			if !event.VisibleTo(user.ID, rooms) {
				continue
			}
			data, err := json.Marshal(event)
			if err != nil {
				h.log.InternalError("events: encode event failed", err, "table", event.Table)
				continue
			}
			fmt.Fprintf(w, "event: change\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}

func (h *Handlers) roomSet(ctx context.Context, userID string) (map[string]struct{}, error) {
	ids, err := h.Rooms.RoomIDsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	rooms := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		rooms[id] = struct{}{}
	}
	return rooms, nil
}
