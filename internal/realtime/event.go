package realtime

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type Table string

const (
	TableRooms            Table = "rooms"
	TableRoomMembers      Table = "room_members"
	TableHabits           Table = "habits"
	TableHabitMemberships Table = "habit_memberships"
	TableHabitCompletions Table = "habit_completions"
	TableNotifications    Table = "notifications"
	TableNudges           Table = "nudges"
)

var knownTables = map[Table]struct{}{
	TableRooms:            {},
	TableRoomMembers:      {},
	TableHabits:           {},
	TableHabitMemberships: {},
	TableHabitCompletions: {},
	TableNotifications:    {},
	TableNudges:           {},
}

type Operation string

const (
	OpInsert Operation = "INSERT"
	OpUpdate Operation = "UPDATE"
	OpDelete Operation = "DELETE"
)

// Event says that something changed in Table. Consumers treat it as a signal
// to re-read the truth, never as a delta to apply.
//
// RoomID and UserIDs scope who may see the event: members of RoomID and the
// users listed in UserIDs. An event with neither is seen by nobody unless it
// is a Resync.
type Event struct {
	Table     Table     `json:"table"`
	Operation Operation `json:"op"`
	RecordID  string    `json:"id,omitempty"`
	RoomID    string    `json:"room_id,omitempty"`
	UserIDs   []string  `json:"-"`
	Resync    bool      `json:"resync,omitempty"`
	At        time.Time `json:"at"`
}

// InRoom scopes the event to the members of roomID.
func (e Event) InRoom(roomID string) Event {
	e.RoomID = roomID
	return e
}

// For scopes the event to userIDs in addition to any room.
func (e Event) For(userIDs ...string) Event {
	e.UserIDs = append(append([]string(nil), e.UserIDs...), userIDs...)
	return e
}

// Concerns reports whether userID is one of the event's addressed users.
func (e Event) Concerns(userID string) bool {
	for _, id := range e.UserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// VisibleTo reports whether a user who belongs to rooms may see the event.
func (e Event) VisibleTo(userID string, rooms map[string]struct{}) bool {
	if e.Resync || e.Concerns(userID) {
		return true
	}
	if e.RoomID == "" {
		return false
	}
	_, ok := rooms[e.RoomID]
	return ok
}

type Publisher interface {
	Publish(event Event)
}

// Discard is a Publisher that drops every event.
type Discard struct{}

func (Discard) Publish(Event) {}

func Changed(table Table, op Operation, recordID string) Event {
	return Event{Table: table, Operation: op, RecordID: recordID, At: time.Now().UTC()}
}

func ParseTable(value string) (Table, error) {
	table := Table(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := knownTables[table]; !ok {
		return "", fmt.Errorf("unknown table %q", value)
	}
	return table, nil
}

// DecodeNotification parses the JSON payload written by the
// notify_table_change trigger.
func DecodeNotification(payload string, receivedAt time.Time) (Event, error) {
	var raw struct {
		Table   string   `json:"table"`
		Op      string   `json:"op"`
		ID      string   `json:"id"`
		RoomID  string   `json:"room_id"`
		UserIDs []string `json:"user_ids"`
	}
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return Event{}, fmt.Errorf("decode notification: %w", err)
	}

	table, err := ParseTable(raw.Table)
	if err != nil {
		return Event{}, err
	}

	op := Operation(strings.ToUpper(strings.TrimSpace(raw.Op)))
	switch op {
	case OpInsert, OpUpdate, OpDelete:
	default:
		return Event{}, fmt.Errorf("unknown operation %q", raw.Op)
	}

	var userIDs []string
	for _, id := range raw.UserIDs {
		if id != "" {
			userIDs = append(userIDs, id)
		}
	}
	return Event{
		Table:     table,
		Operation: op,
		RecordID:  raw.ID,
		RoomID:    raw.RoomID,
		UserIDs:   userIDs,
		At:        receivedAt.UTC(),
	}, nil
}
