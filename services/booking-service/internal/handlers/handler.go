package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/PersyLopez/sitesprintz-sub001/libs/httpx"
	"github.com/PersyLopez/sitesprintz-sub001/services/booking-service/internal/booking"
	"github.com/PersyLopez/sitesprintz-sub001/services/booking-service/internal/model"
)

const (
	// OwnerIDHeader carries the authenticated account id, set by the gateway.
	OwnerIDHeader = "X-Owner-Id"
	// SiteRefHeader optionally names the site a tenant is first created for.
	SiteRefHeader = "X-Site-Ref"
)

// NotificationLog reads the per-appointment notification history.
type NotificationLog interface {
	ListNotifications(ctx context.Context, appointmentID string) ([]model.NotificationRecord, error)
}

type BookingHandler struct {
	directory *booking.Directory
	catalog   *booking.Catalog
	staff     *booking.StaffDirectory
	engine    *booking.Engine
	ledger    *booking.Ledger
	history   NotificationLog
	logger    *slog.Logger
}

func NewBookingHandler(directory *booking.Directory, catalog *booking.Catalog, staff *booking.StaffDirectory, engine *booking.Engine, ledger *booking.Ledger, history NotificationLog, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{
		directory: directory,
		catalog:   catalog,
		staff:     staff,
		engine:    engine,
		ledger:    ledger,
		history:   history,
		logger:    logger,
	}
}

// Register mounts every booking route on mux.
func (h *BookingHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/services", h.Services)
	mux.HandleFunc("/api/v1/services/item", h.ServiceItem)
	mux.HandleFunc("/api/v1/staff", h.StaffCollection)
	mux.HandleFunc("/api/v1/staff/item", h.StaffItem)
	mux.HandleFunc("/api/v1/staff/default", h.DefaultStaff)
	mux.HandleFunc("/api/v1/staff/availability", h.Availability)
	mux.HandleFunc("/api/v1/appointments", h.Appointments)
	mux.HandleFunc("/api/v1/appointments/item", h.AppointmentItem)
	mux.HandleFunc("/api/v1/appointments/cancel", h.Cancel)
	mux.HandleFunc("/api/v1/appointments/notifications", h.Notifications)

	mux.HandleFunc("/api/v1/public/slots", h.PublicSlots)
	mux.HandleFunc("/api/v1/public/book", h.PublicBook)
	mux.HandleFunc("/api/v1/public/appointments", h.PublicAppointment)
	mux.HandleFunc("/api/v1/public/cancel", h.PublicCancel)
}

// tenant resolves the caller's tenant, creating it on first use. It writes the error response
// itself and returns nil when the request cannot proceed.
func (h *BookingHandler) tenant(w http.ResponseWriter, r *http.Request) *model.Tenant {
	ownerID := strings.TrimSpace(r.Header.Get(OwnerIDHeader))
	if ownerID == "" {
		http.Error(w, "owner id required", http.StatusUnauthorized)
		return nil
	}
	t, err := h.directory.GetOrCreateTenant(r.Context(), ownerID, r.Header.Get(SiteRefHeader))
	if err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			http.Error(w, "unknown owner", http.StatusForbidden)
			return nil
		}
		h.writeError(w, r, err, "failed to resolve tenant")
		return nil
	}
	return t
}

// writeError maps domain errors onto status codes. Anything unexpected is logged and reported
// with msg only.
func (h *BookingHandler) writeError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	var verr *booking.ValidationError
	switch {
	case errors.As(err, &verr):
		http.Error(w, verr.Error(), http.StatusBadRequest)
	case errors.Is(err, booking.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, booking.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, booking.ErrConflict):
		http.Error(w, booking.ErrConflict.Error(), http.StatusConflict)
	case errors.Is(err, booking.ErrCodeExhausted):
		http.Error(w, "temporarily unable to book, retry", http.StatusServiceUnavailable)
	default:
		h.logger.ErrorContext(r.Context(), msg, "err", err, "request_id", httpx.RequestIDFromContext(r.Context()))
		http.Error(w, msg, http.StatusInternalServerError)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
}

func query(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}
