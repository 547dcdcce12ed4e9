package pay

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"medibook/booking"
	"medibook/models"
	"medibook/mq"
	"medibook/stripe"
	"medibook/utils"

	"github.com/julienschmidt/httprouter"
)

// Handler runs the two-step payment flow: create a checkout session for an
// accepted appointment, then record the payment when the gateway confirms.
type Handler struct {
	svc *booking.Service
}

func NewHandler(svc *booking.Service) *Handler {
	return &Handler{svc: svc}
}

// POST /api/appointments/:id/payment-session
func (h *Handler) CreateCheckout(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	appt, err := h.svc.GetAppointment(r.Context(), id)
	if err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			http.Error(w, "Appointment not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to load appointment", http.StatusInternalServerError)
		return
	}

	if appt.UserID != utils.GetUserIDFromRequest(r) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	// Only an accepted, unpaid appointment is payable; checking here keeps
	// users from being sent to checkout for a payment that will be refused.
	st, err := booking.StatusOf(appt)
	if err != nil {
		http.Error(w, "Appointment record is inconsistent", http.StatusInternalServerError)
		return
	}
	if st != booking.StatusAccepted {
		http.Error(w, "Appointment is not payable", http.StatusConflict)
		return
	}

	session, err := stripe.CreateAppointmentSession(appt.AppointmentID, appt.Amount)
	if err != nil {
		log.Printf("Error creating payment session: %v", err)
		http.Error(w, "Failed to create payment session", http.StatusInternalServerError)
		return
	}

	dataResponse := map[string]any{
		"paymentUrl":    session.URL,
		"appointmentId": session.AppointmentID,
		"amount":        session.Amount,
	}

	response := map[string]any{
		"success": true,
		"data":    dataResponse,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// POST /api/appointments/:id/payment-confirm
//
// Called after the gateway reports success. The service re-checks the
// state, so a stale or replayed confirmation cannot double-charge.
func (h *Handler) VerifyCheckout(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	appt, err := h.svc.GetAppointment(r.Context(), id)
	if err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			http.Error(w, "Appointment not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to load appointment", http.StatusInternalServerError)
		return
	}
	if appt.UserID != utils.GetUserIDFromRequest(r) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	appt, err = h.svc.MarkPaid(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrNotAccepted):
			http.Error(w, "Appointment has not been accepted", http.StatusConflict)
		case errors.Is(err, booking.ErrInvalidState):
			http.Error(w, "Appointment is not payable", http.StatusConflict)
		default:
			http.Error(w, "Payment failed", http.StatusInternalServerError)
		}
		return
	}

	emitPaid(r, appt)

	utils.SendResponse(w, http.StatusOK, utils.M{"appointment": appt}, "Payment successfully processed", nil)
}

func emitPaid(r *http.Request, a *models.Appointment) {
	cp, err := a.Counterparty()
	if err != nil {
		return
	}
	st, _ := booking.StatusOf(a)
	mq.Emit(r.Context(), mq.AppointmentEvent{
		Event:         "paid",
		AppointmentID: a.AppointmentID,
		ProviderKind:  string(cp.Kind),
		ProviderID:    cp.ID,
		UserID:        a.UserID,
		SlotDate:      a.SlotDate,
		SlotTime:      a.SlotTime,
		Status:        st.String(),
	})
}
