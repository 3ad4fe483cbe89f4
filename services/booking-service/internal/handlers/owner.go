package handlers

import (
	"net/http"
	"strconv"

	"github.com/PersyLopez/sitesprintz-sub001/services/booking-service/internal/booking"
	"github.com/PersyLopez/sitesprintz-sub001/services/booking-service/internal/model"
)

func (h *BookingHandler) Services(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		t := h.tenant(w, r)
		if t == nil {
			return
		}
		includeInactive, _ := strconv.ParseBool(query(r, "include_inactive"))
		services, err := h.catalog.ListServices(r.Context(), t.ID, includeInactive)
		if err != nil {
			h.writeError(w, r, err, "failed to list services")
			return
		}
		writeJSON(w, http.StatusOK, services)
	case http.MethodPost:
		t := h.tenant(w, r)
		if t == nil {
			return
		}
		var in model.ServiceInput
		if !decodeJSON(w, r, &in) {
			return
		}
		svc, err := h.catalog.CreateService(r.Context(), t.ID, in)
		if err != nil {
			h.writeError(w, r, err, "failed to create service")
			return
		}
		writeJSON(w, http.StatusCreated, svc)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (h *BookingHandler) ServiceItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPatch && r.Method != http.MethodDelete {
		methodNotAllowed(w, http.MethodGet, http.MethodPatch, http.MethodDelete)
		return
	}
	id := query(r, "id")
	if id == "" {
		http.Error(w, "id required", http.StatusBadRequest)
		return
	}
	t := h.tenant(w, r)
	if t == nil {
		return
	}

	switch r.Method {
	case http.MethodGet:
		svc, err := h.catalog.GetService(r.Context(), id, t.ID)
		if err != nil {
			h.writeError(w, r, err, "failed to load service")
			return
		}
		if svc == nil {
			http.Error(w, "service not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, svc)
	case http.MethodPatch:
		var patch model.ServicePatch
		if !decodeJSON(w, r, &patch) {
			return
		}
		svc, err := h.catalog.UpdateService(r.Context(), id, t.ID, patch)
		if err != nil {
			h.writeError(w, r, err, "failed to update service")
			return
		}
		if svc == nil {
			http.Error(w, "service not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, svc)
	case http.MethodDelete:
		ok, err := h.catalog.DeleteService(r.Context(), id, t.ID)
		if err != nil {
			h.writeError(w, r, err, "failed to delete service")
			return
		}
		if !ok {
			http.Error(w, "service not found", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *BookingHandler) StaffCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		t := h.tenant(w, r)
		if t == nil {
			return
		}
		includeInactive, _ := strconv.ParseBool(query(r, "include_inactive"))
		staff, err := h.staff.ListStaff(r.Context(), t.ID, includeInactive)
		if err != nil {
			h.writeError(w, r, err, "failed to list staff")
			return
		}
		writeJSON(w, http.StatusOK, staff)
	case http.MethodPost:
		t := h.tenant(w, r)
		if t == nil {
			return
		}
		var in model.StaffInput
		if !decodeJSON(w, r, &in) {
			return
		}
		s, err := h.staff.CreateStaff(r.Context(), t.ID, in)
		if err != nil {
			h.writeError(w, r, err, "failed to create staff")
			return
		}
		writeJSON(w, http.StatusCreated, s)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (h *BookingHandler) StaffItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPatch {
		methodNotAllowed(w, http.MethodGet, http.MethodPatch)
		return
	}
	id := query(r, "id")
	if id == "" {
		http.Error(w, "id required", http.StatusBadRequest)
		return
	}
	t := h.tenant(w, r)
	if t == nil {
		return
	}

	if r.Method == http.MethodGet {
		s, err := h.staff.GetStaff(r.Context(), id, t.ID)
		if err != nil {
			h.writeError(w, r, err, "failed to load staff")
			return
		}
		if s == nil {
			http.Error(w, "staff not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, s)
		return
	}

	var patch model.StaffPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	s, err := h.staff.UpdateStaff(r.Context(), id, t.ID, patch)
	if err != nil {
		h.writeError(w, r, err, "failed to update staff")
		return
	}
	if s == nil {
		http.Error(w, "staff not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *BookingHandler) DefaultStaff(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	t := h.tenant(w, r)
	if t == nil {
		return
	}
	s, err := h.staff.GetOrCreateDefaultStaff(r.Context(), t.ID)
	if err != nil {
		h.writeError(w, r, err, "failed to load default staff")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

type availabilityRequest struct {
	Rules []model.RuleInput `json:"rules"`
}

func (h *BookingHandler) Availability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPut {
		methodNotAllowed(w, http.MethodGet, http.MethodPut)
		return
	}
	staffID := query(r, "staff_id")
	if staffID == "" {
		http.Error(w, "staff_id required", http.StatusBadRequest)
		return
	}
	t := h.tenant(w, r)
	if t == nil {
		return
	}

	// Rules are keyed by staff only, so ownership is checked here.
	s, err := h.staff.GetStaff(r.Context(), staffID, t.ID)
	if err != nil {
		h.writeError(w, r, err, "failed to load staff")
		return
	}
	if s == nil {
		http.Error(w, "staff not found", http.StatusNotFound)
		return
	}

	if r.Method == http.MethodGet {
		rules, err := h.staff.GetAvailabilityRules(r.Context(), s.ID)
		if err != nil {
			h.writeError(w, r, err, "failed to load availability")
			return
		}
		writeJSON(w, http.StatusOK, rules)
		return
	}

	var req availabilityRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rules, err := h.staff.SetAvailabilityRules(r.Context(), s.ID, t.ID, req.Rules)
	if err != nil {
		h.writeError(w, r, err, "failed to save availability")
		return
	}
	writeJSON(w, http.StatusOK, rules)
}

func (h *BookingHandler) Appointments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	t := h.tenant(w, r)
	if t == nil {
		return
	}

	start, err := booking.ParseDateBound("start_date", query(r, "start_date"), false)
	if err != nil {
		h.writeError(w, r, err, "invalid start_date")
		return
	}
	end, err := booking.ParseDateBound("end_date", query(r, "end_date"), true)
	if err != nil {
		h.writeError(w, r, err, "invalid end_date")
		return
	}
	appts, err := h.ledger.ListAppointments(r.Context(), t.ID, model.AppointmentFilter{
		StartDate:     start,
		EndDate:       end,
		StaffID:       query(r, "staff_id"),
		ServiceID:     query(r, "service_id"),
		Status:        model.AppointmentStatus(query(r, "status")),
		CustomerEmail: query(r, "customer_email"),
	})
	if err != nil {
		h.writeError(w, r, err, "failed to list appointments")
		return
	}
	writeJSON(w, http.StatusOK, appts)
}

func (h *BookingHandler) AppointmentItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	var lookup model.Lookup
	switch {
	case query(r, "id") != "":
		lookup = model.LookupByID(query(r, "id"))
	case query(r, "code") != "":
		lookup = model.LookupByCode(query(r, "code"))
	default:
		http.Error(w, "id or code required", http.StatusBadRequest)
		return
	}
	t := h.tenant(w, r)
	if t == nil {
		return
	}
	appt, err := h.ledger.GetAppointment(r.Context(), t.ID, lookup)
	if err != nil {
		h.writeError(w, r, err, "failed to load appointment")
		return
	}
	if appt == nil {
		http.Error(w, "appointment not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

type cancelRequest struct {
	AppointmentID    string            `json:"appointment_id"`
	ConfirmationCode string            `json:"confirmation_code"`
	Reason           string            `json:"reason"`
	CancelledBy      model.CancelledBy `json:"cancelled_by"`
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	t := h.tenant(w, r)
	if t == nil {
		return
	}
	var req cancelRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	var lookup model.Lookup
	switch {
	case req.AppointmentID != "":
		lookup = model.LookupByID(req.AppointmentID)
	case req.ConfirmationCode != "":
		lookup = model.LookupByCode(req.ConfirmationCode)
	default:
		http.Error(w, "appointment_id or confirmation_code required", http.StatusBadRequest)
		return
	}
	by := req.CancelledBy
	if by == "" {
		by = model.CancelledByStaff
	}

	appt, err := h.ledger.CancelAppointment(r.Context(), t.ID, lookup, model.CancelInput{Reason: req.Reason, CancelledBy: by})
	if err != nil {
		h.writeError(w, r, err, "failed to cancel appointment")
		return
	}
	if appt == nil {
		http.Error(w, "appointment not found or already cancelled", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// Notifications lists every send attempt for one of the tenant's appointments, oldest first.
func (h *BookingHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	id := query(r, "id")
	if id == "" {
		http.Error(w, "id required", http.StatusBadRequest)
		return
	}
	t := h.tenant(w, r)
	if t == nil {
		return
	}
	// History is keyed by appointment only, so ownership is checked here.
	appt, err := h.ledger.GetAppointment(r.Context(), t.ID, model.LookupByID(id))
	if err != nil {
		h.writeError(w, r, err, "failed to load appointment")
		return
	}
	if appt == nil {
		http.Error(w, "appointment not found", http.StatusNotFound)
		return
	}
	records, err := h.history.ListNotifications(r.Context(), appt.ID)
	if err != nil {
		h.writeError(w, r, err, "failed to load notifications")
		return
	}
	if records == nil {
		records = []model.NotificationRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}
