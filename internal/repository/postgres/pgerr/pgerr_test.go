package pgerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestClassifiesWrappedErrors(t *testing.T) {
	unique := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	full := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "HR001"})

	if !IsUniqueViolation(unique) || IsRoomFull(unique) {
		t.Fatalf("expected unique violation only")
	}
	if !IsRoomFull(full) || IsUniqueViolation(full) {
		t.Fatalf("expected room full only")
	}
	if IsUniqueViolation(errors.New("23505")) {
		t.Fatalf("expected plain error to be unclassified")
	}
}
