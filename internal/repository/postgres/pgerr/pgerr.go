// Package pgerr classifies errors returned by the Postgres driver.
package pgerr

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeUniqueViolation = "23505"
	// codeRoomFull is raised by the enforce_room_capacity trigger.
	codeRoomFull = "HR001"
)

func IsUniqueViolation(err error) bool {
	return hasCode(err, codeUniqueViolation)
}

func IsRoomFull(err error) bool {
	return hasCode(err, codeRoomFull)
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
