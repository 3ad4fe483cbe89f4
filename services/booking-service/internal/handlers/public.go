package handlers

import (
	"net/http"
	"time"

	"github.com/PersyLopez/sitesprintz-sub001/services/booking-service/internal/model"
)

type slotsResponse struct {
	Date     string       `json:"date"`
	Timezone string       `json:"timezone"`
	Slots    []model.Slot `json:"slots"`
}

// PublicSlots serves the booking widget. The timezone defaults to the tenant's own.
func (h *BookingHandler) PublicSlots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	tenantID := query(r, "tenant_id")
	serviceID := query(r, "service_id")
	staffID := query(r, "staff_id")
	date := query(r, "date")
	if tenantID == "" || serviceID == "" || staffID == "" || date == "" {
		http.Error(w, "tenant_id, service_id, staff_id, and date are required", http.StatusBadRequest)
		return
	}
	t, _, ok := h.bookable(w, r, tenantID, serviceID)
	if !ok {
		return
	}
	tz := query(r, "timezone")
	if tz == "" {
		tz = t.Timezone
	}

	slots, err := h.engine.CalculateAvailableSlots(r.Context(), t.ID, serviceID, staffID, date, tz)
	if err != nil {
		h.writeError(w, r, err, "failed to compute slots")
		return
	}
	writeJSON(w, http.StatusOK, slotsResponse{Date: date, Timezone: tz, Slots: slots})
}

// bookable loads the tenant and service behind a public request and refuses anything customers may
// not book online. It writes the error response itself.
func (h *BookingHandler) bookable(w http.ResponseWriter, r *http.Request, tenantID, serviceID string) (*model.Tenant, *model.Service, bool) {
	t, err := h.directory.GetTenant(r.Context(), tenantID)
	if err != nil {
		h.writeError(w, r, err, "failed to load tenant")
		return nil, nil, false
	}
	if t.Status != model.StatusActive {
		http.Error(w, "business is not accepting bookings", http.StatusNotFound)
		return nil, nil, false
	}
	svc, err := h.catalog.GetService(r.Context(), serviceID, t.ID)
	if err != nil {
		h.writeError(w, r, err, "failed to load service")
		return nil, nil, false
	}
	if svc == nil || svc.Status != model.StatusActive || !svc.OnlineBookingEnabled {
		http.Error(w, "service not available for online booking", http.StatusNotFound)
		return nil, nil, false
	}
	return t, svc, true
}

type publicBookRequest struct {
	TenantID string `json:"tenant_id"`
	model.AppointmentInput
}

func (h *BookingHandler) PublicBook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req publicBookRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.TenantID == "" || req.ServiceID == "" {
		http.Error(w, "tenant_id and service_id are required", http.StatusBadRequest)
		return
	}

	t, _, ok := h.bookable(w, r, req.TenantID, req.ServiceID)
	if !ok {
		return
	}

	in := req.AppointmentInput
	if in.Timezone == "" {
		in.Timezone = t.Timezone
	}
	in.BookingSource = "online"
	appt, err := h.ledger.CreateAppointment(r.Context(), t.ID, in)
	if err != nil {
		h.writeError(w, r, err, "failed to create appointment")
		return
	}
	writeJSON(w, http.StatusCreated, appt)
}

type publicAppointment struct {
	ConfirmationCode string                  `json:"confirmation_code"`
	Status           model.AppointmentStatus `json:"status"`
	StartTime        time.Time               `json:"start_time"`
	EndTime          time.Time               `json:"end_time"`
	Timezone         string                  `json:"timezone"`
	ServiceID        string                  `json:"service_id"`
	StaffID          string                  `json:"staff_id"`
	CustomerName     string                  `json:"customer_name"`
	CancelledAt      *time.Time              `json:"cancelled_at,omitempty"`
}

func toPublic(a *model.Appointment) publicAppointment {
	return publicAppointment{
		ConfirmationCode: a.ConfirmationCode,
		Status:           a.Status,
		StartTime:        a.StartTime,
		EndTime:          a.EndTime,
		Timezone:         a.Timezone,
		ServiceID:        a.ServiceID,
		StaffID:          a.StaffID,
		CustomerName:     a.CustomerName,
		CancelledAt:      a.CancelledAt,
	}
}

// PublicAppointment backs the customer's manage page. The link carries either the confirmation
// code or the appointment id.
func (h *BookingHandler) PublicAppointment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	ref := query(r, "ref")
	if ref == "" {
		ref = query(r, "code")
	}
	if ref == "" {
		http.Error(w, "code or ref required", http.StatusBadRequest)
		return
	}
	appt, err := h.ledger.ResolveReference(r.Context(), ref)
	if err != nil {
		h.writeError(w, r, err, "failed to load appointment")
		return
	}
	if appt == nil {
		http.Error(w, "appointment not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toPublic(appt))
}

type publicCancelRequest struct {
	Reference string `json:"reference"`
	Reason    string `json:"reason"`
}

// PublicCancel accepts either the confirmation code or the appointment id from a cancel link.
func (h *BookingHandler) PublicCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req publicCancelRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Reference == "" {
		http.Error(w, "reference required", http.StatusBadRequest)
		return
	}
	appt, err := h.ledger.CancelAppointment(r.Context(), "", model.ParseReference(req.Reference), model.CancelInput{
		Reason:      req.Reason,
		CancelledBy: model.CancelledByCustomer,
	})
	if err != nil {
		h.writeError(w, r, err, "failed to cancel appointment")
		return
	}
	if appt == nil {
		http.Error(w, "appointment not found or already cancelled", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toPublic(appt))
}
