package storage

import (
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/PersyLopez/sitesprintz-sub001/services/booking-service/internal/booking"
)

const (
	codeExclusionViolation = "23P01"
	codeUniqueViolation    = "23505"

	confirmationCodeConstraint = "booking_appointments_confirmation_code_key"
)

func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeExclusionViolation
}

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation
}

func constraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// translate maps driver errors onto the booking error set and leaves the rest untouched.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case IsNotFound(err):
		return booking.ErrNotFound
	case IsConflict(err):
		return booking.ErrConflict
	case IsUniqueViolation(err) && constraintName(err) == confirmationCodeConstraint:
		return booking.ErrCodeTaken
	default:
		return err
	}
}

// validID filters out references that cannot be row ids, so they read as "not found" instead of
// a uuid cast error from Postgres.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
