package storage

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/PersyLopez/sitesprintz-sub001/services/booking-service/internal/booking"
	"github.com/PersyLopez/sitesprintz-sub001/services/booking-service/internal/model"
)

func TestTranslate(t *testing.T) {
	if !errors.Is(translate(fmt.Errorf("scan: %w", pgx.ErrNoRows)), booking.ErrNotFound) {
		t.Fatalf("no rows should map to ErrNotFound")
	}
	if !errors.Is(translate(&pgconn.PgError{Code: "23P01"}), booking.ErrConflict) {
		t.Fatalf("exclusion violation should map to ErrConflict")
	}
	codeClash := &pgconn.PgError{Code: "23505", ConstraintName: confirmationCodeConstraint}
	if !errors.Is(translate(codeClash), booking.ErrCodeTaken) {
		t.Fatalf("confirmation code clash should map to ErrCodeTaken")
	}
	otherUnique := &pgconn.PgError{Code: "23505", ConstraintName: "booking_tenants_owner_id_key"}
	if translate(otherUnique) != error(otherUnique) {
		t.Fatalf("other unique violations must pass through")
	}
	other := errors.New("connection refused")
	if translate(other) != other {
		t.Fatalf("unrelated errors must pass through")
	}
	if translate(nil) != nil {
		t.Fatalf("nil must stay nil")
	}
}

func TestAppointmentFilterSQL(t *testing.T) {
	tenant := "7c9e6679-7425-40de-944b-e07fc1f90ae7"
	staff := "16fd2706-8baf-433b-82eb-8c7fada847da"
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	where, args := appointmentFilterSQL(tenant, model.AppointmentFilter{
		StartDate:     &from,
		StaffID:       staff,
		Status:        model.AppointmentConfirmed,
		CustomerEmail: "Ada@Example.com",
	})
	want := "tenant_id = $1 AND start_time >= $2 AND staff_id = $3 AND status = $4 AND lower(customer_email) = lower($5)"
	if where != want {
		t.Fatalf("where = %q\nwant    %q", where, want)
	}
	if len(args) != 5 || args[3] != "confirmed" {
		t.Fatalf("unexpected args %v", args)
	}

	where, _ = appointmentFilterSQL(tenant, model.AppointmentFilter{ServiceID: "not-a-uuid"})
	if where != "false" {
		t.Fatalf("malformed ids should match nothing, got %q", where)
	}
}

func TestColumnListsMatchScanners(t *testing.T) {
	for name, tc := range map[string]struct {
		cols string
		n    int
	}{
		"tenant":      {tenantColumns, 11},
		"service":     {serviceColumns, 13},
		"staff":       {staffColumns, 11},
		"rule":        {ruleColumns, 8},
		"appointment": {appointmentColumns, 22},
	} {
		if got := countColumns(tc.cols); got != tc.n {
			t.Fatalf("%s: %d columns, scanner expects %d", name, got, tc.n)
		}
	}
}

// countColumns counts top-level entries of a select list, ignoring commas inside calls.
func countColumns(list string) int {
	n, depth := 1, 0
	for _, r := range list {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				n++
			}
		}
	}
	return n
}
