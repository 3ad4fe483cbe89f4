package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PersyLopez/sitesprintz-sub001/services/booking-service/internal/model"
)

// StaffDirectory manages staff members and their weekly open hours.
type StaffDirectory struct {
	store Store
}

func NewStaffDirectory(store Store) *StaffDirectory {
	return &StaffDirectory{store: store}
}

// GetOrCreateDefaultStaff returns the tenant's earliest staff member, creating a primary one from the
// tenant's business identity when there is none. The tenant row lock serialises concurrent first calls.
func (s *StaffDirectory) GetOrCreateDefaultStaff(ctx context.Context, tenantID string) (*model.Staff, error) {
	var out *model.Staff
	err := s.store.WithinTx(ctx, func(r Repository) error {
		tenant, err := r.LockTenant(ctx, tenantID)
		if err != nil {
			return err
		}
		existing, err := r.FirstStaff(ctx, tenantID)
		if err == nil {
			out = existing
			return nil
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		out, err = r.InsertStaff(ctx, model.Staff{
			TenantID:  tenantID,
			Name:      tenant.BusinessName,
			Email:     tenant.Email,
			IsPrimary: true,
			Status:    model.StatusActive,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("default staff: %w", err)
	}
	return out, nil
}

func (s *StaffDirectory) CreateStaff(ctx context.Context, tenantID string, in model.StaffInput) (*model.Staff, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("name", "is required")
	}
	if err := validateStaffPolicy(&in.BufferTimeAfter, &in.MinAdvanceBookingHours); err != nil {
		return nil, err
	}
	if _, err := s.store.GetTenant(ctx, tenantID); err != nil {
		return nil, fmt.Errorf("get tenant: %w", err)
	}

	out, err := s.store.InsertStaff(ctx, model.Staff{
		TenantID:               tenantID,
		Name:                   name,
		Email:                  strings.TrimSpace(in.Email),
		Title:                  strings.TrimSpace(in.Title),
		BufferTimeAfter:        in.BufferTimeAfter,
		MinAdvanceBookingHours: in.MinAdvanceBookingHours,
		Status:                 model.StatusActive,
	})
	if err != nil {
		return nil, fmt.Errorf("insert staff: %w", err)
	}
	return out, nil
}

func (s *StaffDirectory) ListStaff(ctx context.Context, tenantID string, includeInactive bool) ([]model.Staff, error) {
	out, err := s.store.ListStaff(ctx, tenantID, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	return out, nil
}

// GetStaff returns nil, nil when the staff member does not exist for this tenant.
func (s *StaffDirectory) GetStaff(ctx context.Context, id, tenantID string) (*model.Staff, error) {
	st, err := s.store.GetStaff(ctx, tenantID, id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get staff: %w", err)
	}
	return st, nil
}

// UpdateStaff returns nil, nil when the staff member does not exist for this tenant.
func (s *StaffDirectory) UpdateStaff(ctx context.Context, id, tenantID string, patch model.StaffPatch) (*model.Staff, error) {
	if patch.Empty() {
		return nil, invalid("", "no updatable fields supplied")
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, invalid("name", "must not be empty")
	}
	if err := validateStaffPolicy(patch.BufferTimeAfter, patch.MinAdvanceBookingHours); err != nil {
		return nil, err
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, invalid("status", "must be active or inactive")
	}

	var out *model.Staff
	err := s.store.WithinTx(ctx, func(r Repository) error {
		st, err := r.GetStaff(ctx, tenantID, id)
		if err != nil {
			return err
		}
		patch.Apply(st)
		out, err = r.SaveStaff(ctx, *st)
		return err
	})
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update staff: %w", err)
	}
	return out, nil
}

// SetAvailabilityRules replaces the staff member's whole weekly schedule. Either every rule is
// stored or the previous schedule is left untouched.
func (s *StaffDirectory) SetAvailabilityRules(ctx context.Context, staffID, tenantID string, rules []model.RuleInput) ([]model.AvailabilityRule, error) {
	parsed := make([]model.AvailabilityRule, 0, len(rules))
	for i, in := range rules {
		rule, err := parseRule(i, in)
		if err != nil {
			return nil, err
		}
		rule.TenantID = tenantID
		rule.StaffID = staffID
		parsed = append(parsed, rule)
	}

	out := make([]model.AvailabilityRule, 0, len(parsed))
	err := s.store.WithinTx(ctx, func(r Repository) error {
		if _, err := r.GetStaff(ctx, tenantID, staffID); err != nil {
			return err
		}
		if err := r.DeleteAvailabilityRules(ctx, staffID); err != nil {
			return err
		}
		for _, rule := range parsed {
			saved, err := r.InsertAvailabilityRule(ctx, rule)
			if err != nil {
				return err
			}
			out = append(out, *saved)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("set availability rules: %w", err)
	}
	return out, nil
}

// GetAvailabilityRules returns the open rules ordered by day of week, then start time.
func (s *StaffDirectory) GetAvailabilityRules(ctx context.Context, staffID string) ([]model.AvailabilityRule, error) {
	out, err := s.store.ListAvailabilityRules(ctx, staffID, -1)
	if err != nil {
		return nil, fmt.Errorf("list availability rules: %w", err)
	}
	return out, nil
}

func parseRule(i int, in model.RuleInput) (model.AvailabilityRule, error) {
	field := fmt.Sprintf("rules[%d]", i)
	if in.DayOfWeek < 0 || in.DayOfWeek > 6 {
		return model.AvailabilityRule{}, invalid(field+".day_of_week", "must be between 0 (Sunday) and 6 (Saturday)")
	}
	start, err := model.ParseClockTime(strings.TrimSpace(in.StartTime))
	if err != nil {
		return model.AvailabilityRule{}, invalid(field+".start_time", "must be HH:MM")
	}
	end, err := model.ParseClockTime(strings.TrimSpace(in.EndTime))
	if err != nil {
		return model.AvailabilityRule{}, invalid(field+".end_time", "must be HH:MM")
	}
	if end <= start {
		return model.AvailabilityRule{}, invalid(field+".end_time", "must be after start_time")
	}
	available := true
	if in.IsAvailable != nil {
		available = *in.IsAvailable
	}
	return model.AvailabilityRule{
		DayOfWeek:   in.DayOfWeek,
		StartTime:   start,
		EndTime:     end,
		IsAvailable: available,
	}, nil
}

func validateStaffPolicy(buffer, leadHours *int) error {
	if buffer != nil && *buffer < 0 {
		return invalid("buffer_time_after", "must not be negative")
	}
	if leadHours != nil && *leadHours < 0 {
		return invalid("min_advance_booking_hours", "must not be negative")
	}
	return nil
}
