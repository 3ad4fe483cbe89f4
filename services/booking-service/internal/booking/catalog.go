package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PersyLopez/sitesprintz-sub001/services/booking-service/internal/model"
)

const (
	MinServiceDuration = 1
	MaxServiceDuration = 480
	defaultCategory    = "general"
)

// Catalog manages the bookable services of a tenant.
type Catalog struct {
	store Store
}

func NewCatalog(store Store) *Catalog {
	return &Catalog{store: store}
}

func (c *Catalog) CreateService(ctx context.Context, tenantID string, in model.ServiceInput) (*model.Service, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("name", "is required")
	}
	if in.DurationMinutes == nil {
		return nil, invalid("duration_minutes", "is required")
	}
	if err := validateDuration(*in.DurationMinutes); err != nil {
		return nil, err
	}
	if in.PriceCents < 0 {
		return nil, invalid("price_cents", "must not be negative")
	}

	svc := model.Service{
		TenantID:             tenantID,
		Name:                 name,
		Description:          in.Description,
		Category:             strings.TrimSpace(in.Category),
		DurationMinutes:      *in.DurationMinutes,
		PriceCents:           in.PriceCents,
		OnlineBookingEnabled: true,
		RequiresApproval:     in.RequiresApproval,
		Status:               model.StatusActive,
		DisplayOrder:         in.DisplayOrder,
	}
	if svc.Category == "" {
		svc.Category = defaultCategory
	}
	if in.OnlineBookingEnabled != nil {
		svc.OnlineBookingEnabled = *in.OnlineBookingEnabled
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, invalid("status", "must be active or inactive")
		}
		svc.Status = *in.Status
	}

	out, err := c.store.InsertService(ctx, svc)
	if err != nil {
		return nil, fmt.Errorf("insert service: %w", err)
	}
	return out, nil
}

// ListServices orders by display order, newest first within the same order.
func (c *Catalog) ListServices(ctx context.Context, tenantID string, includeInactive bool) ([]model.Service, error) {
	out, err := c.store.ListServices(ctx, tenantID, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	return out, nil
}

// GetService returns nil, nil when the service does not exist for this tenant.
func (c *Catalog) GetService(ctx context.Context, id, tenantID string) (*model.Service, error) {
	svc, err := c.store.GetService(ctx, tenantID, id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get service: %w", err)
	}
	return svc, nil
}

// UpdateService applies patch and returns nil, nil when the service does not exist for this tenant.
func (c *Catalog) UpdateService(ctx context.Context, id, tenantID string, patch model.ServicePatch) (*model.Service, error) {
	if patch.Empty() {
		return nil, invalid("", "no updatable fields supplied")
	}
	if patch.Name != nil {
		trimmed := strings.TrimSpace(*patch.Name)
		if trimmed == "" {
			return nil, invalid("name", "must not be empty")
		}
		patch.Name = &trimmed
	}
	if patch.DurationMinutes != nil {
		if err := validateDuration(*patch.DurationMinutes); err != nil {
			return nil, err
		}
	}
	if patch.PriceCents != nil && *patch.PriceCents < 0 {
		return nil, invalid("price_cents", "must not be negative")
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, invalid("status", "must be active or inactive")
	}

	var out *model.Service
	err := c.store.WithinTx(ctx, func(r Repository) error {
		svc, err := r.GetService(ctx, tenantID, id)
		if err != nil {
			return err
		}
		patch.Apply(svc)
		out, err = r.SaveService(ctx, *svc)
		return err
	})
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update service: %w", err)
	}
	return out, nil
}

// DeleteService deactivates the service. It reports false when there was nothing to delete.
func (c *Catalog) DeleteService(ctx context.Context, id, tenantID string) (bool, error) {
	inactive := model.StatusInactive
	svc, err := c.UpdateService(ctx, id, tenantID, model.ServicePatch{Status: &inactive})
	if err != nil {
		return false, err
	}
	return svc != nil, nil
}

func validateDuration(minutes int) error {
	if minutes < MinServiceDuration || minutes > MaxServiceDuration {
		return invalid("duration_minutes", fmt.Sprintf("must be between %d and %d", MinServiceDuration, MaxServiceDuration))
	}
	return nil
}
