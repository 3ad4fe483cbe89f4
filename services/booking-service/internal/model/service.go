package model

import "time"

type Service struct {
	ID                   string    `json:"id"`
	TenantID             string    `json:"tenant_id"`
	Name                 string    `json:"name"`
	Description          string    `json:"description"`
	Category             string    `json:"category"`
	DurationMinutes      int       `json:"duration_minutes"`
	PriceCents           int64     `json:"price_cents"`
	OnlineBookingEnabled bool      `json:"online_booking_enabled"`
	RequiresApproval     bool      `json:"requires_approval"`
	Status               Status    `json:"status"`
	DisplayOrder         int       `json:"display_order"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// ServiceInput is a create request. Pointer fields distinguish "absent" from the zero value.
type ServiceInput struct {
	Name                 string  `json:"name"`
	Description          string  `json:"description"`
	Category             string  `json:"category"`
	DurationMinutes      *int    `json:"duration_minutes"`
	PriceCents           int64   `json:"price_cents"`
	OnlineBookingEnabled *bool   `json:"online_booking_enabled"`
	RequiresApproval     bool    `json:"requires_approval"`
	DisplayOrder         int     `json:"display_order"`
	Status               *Status `json:"status"`
}

// ServicePatch lists every field a service update may touch. Nil means unchanged.
type ServicePatch struct {
	Name                 *string `json:"name"`
	Description          *string `json:"description"`
	Category             *string `json:"category"`
	DurationMinutes      *int    `json:"duration_minutes"`
	PriceCents           *int64  `json:"price_cents"`
	OnlineBookingEnabled *bool   `json:"online_booking_enabled"`
	RequiresApproval     *bool   `json:"requires_approval"`
	Status               *Status `json:"status"`
	DisplayOrder         *int    `json:"display_order"`
}

func (p ServicePatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Category == nil &&
		p.DurationMinutes == nil && p.PriceCents == nil && p.OnlineBookingEnabled == nil &&
		p.RequiresApproval == nil && p.Status == nil && p.DisplayOrder == nil
}

// Apply copies the set fields onto s.
func (p ServicePatch) Apply(s *Service) {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Description != nil {
		s.Description = *p.Description
	}
	if p.Category != nil {
		s.Category = *p.Category
	}
	if p.DurationMinutes != nil {
		s.DurationMinutes = *p.DurationMinutes
	}
	if p.PriceCents != nil {
		s.PriceCents = *p.PriceCents
	}
	if p.OnlineBookingEnabled != nil {
		s.OnlineBookingEnabled = *p.OnlineBookingEnabled
	}
	if p.RequiresApproval != nil {
		s.RequiresApproval = *p.RequiresApproval
	}
	if p.Status != nil {
		s.Status = *p.Status
	}
	if p.DisplayOrder != nil {
		s.DisplayOrder = *p.DisplayOrder
	}
}
