package booking

import (
	"encoding/json"
	"errors"
	"net/http"

	"medibook/globals"
	"medibook/models"
	"medibook/mq"
	"medibook/utils"

	"github.com/julienschmidt/httprouter"
)

// Handler exposes the booking service over REST. It owns translating
// error kinds to HTTP statuses and emitting notification events after
// successful transitions; the service itself stays transport-free.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		utils.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrForbidden):
		utils.RespondWithError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrProviderUnavailable),
		errors.Is(err, ErrSlotTaken),
		errors.Is(err, ErrInvalidState),
		errors.Is(err, ErrAlreadyCancelled),
		errors.Is(err, ErrNotAccepted):
		utils.RespondWithError(w, http.StatusConflict, err.Error())
	default:
		utils.RespondWithError(w, http.StatusInternalServerError, "internal error")
	}
}

func emitTransition(r *http.Request, event string, a *models.Appointment) {
	cp, err := a.Counterparty()
	if err != nil {
		return
	}
	st, _ := StatusOf(a)
	mq.Emit(r.Context(), mq.AppointmentEvent{
		Event:         event,
		AppointmentID: a.AppointmentID,
		ProviderKind:  string(cp.Kind),
		ProviderID:    cp.ID,
		UserID:        a.UserID,
		SlotDate:      a.SlotDate,
		SlotTime:      a.SlotTime,
		Status:        st.String(),
	})
}

// Book handles POST /api/appointments for the patient role.
func (h *Handler) Book(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body struct {
		Kind       string `json:"kind"`
		ProviderID string `json:"providerId"`
		SlotDate   string `json:"slotDate"`
		SlotTime   string `json:"slotTime"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	kind, err := models.ParseProviderKind(body.Kind)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.ProviderID == "" || body.SlotDate == "" || body.SlotTime == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "missing fields")
		return
	}

	appt, err := h.svc.Book(r.Context(), BookRequest{
		UserID:       utils.GetUserIDFromRequest(r),
		Counterparty: models.Counterparty{Kind: kind, ID: body.ProviderID},
		SlotDate:     body.SlotDate,
		SlotTime:     body.SlotTime,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	emitTransition(r, "booked", appt)
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"appointment": appt})
}

// List handles GET /api/appointments: patients see their own bookings,
// providers the ones booked with them, admins everything.
func (h *Handler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	callerID := utils.GetUserIDFromRequest(r)

	var (
		appts []models.Appointment
		err   error
	)
	switch utils.GetRoleFromRequest(r) {
	case globals.RoleDoctor:
		appts, err = h.svc.ProviderAppointments(r.Context(), models.Counterparty{Kind: models.KindDoctor, ID: callerID})
	case globals.RolePharmacist:
		appts, err = h.svc.ProviderAppointments(r.Context(), models.Counterparty{Kind: models.KindPharmacist, ID: callerID})
	case globals.RoleAdmin:
		appts, err = h.svc.AllAppointments(r.Context())
	default:
		appts, err = h.svc.UserAppointments(r.Context(), callerID)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"appointments": appts})
}

// Get handles GET /api/appointments/:id for the requester, the
// counterparty or an admin.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	appt, err := h.svc.GetAppointment(r.Context(), ps.ByName("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !mayView(r, appt) {
		utils.RespondWithError(w, http.StatusForbidden, ErrForbidden.Error())
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"appointment": appt})
}

func mayView(r *http.Request, a *models.Appointment) bool {
	callerID := utils.GetUserIDFromRequest(r)
	switch utils.GetRoleFromRequest(r) {
	case globals.RoleAdmin:
		return true
	case globals.RoleDoctor, globals.RolePharmacist:
		cp, err := a.Counterparty()
		return err == nil && cp.ID == callerID
	}
	return a.UserID == callerID
}

// actorFromRequest builds the counterparty identity for provider-initiated
// transitions; nil for admins, who bypass the counterparty check.
func actorFromRequest(r *http.Request) *models.Counterparty {
	callerID := utils.GetUserIDFromRequest(r)
	switch utils.GetRoleFromRequest(r) {
	case globals.RoleDoctor:
		return &models.Counterparty{Kind: models.KindDoctor, ID: callerID}
	case globals.RolePharmacist:
		return &models.Counterparty{Kind: models.KindPharmacist, ID: callerID}
	}
	return nil
}

// Accept handles POST /api/appointments/:id/accept (provider roles).
func (h *Handler) Accept(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	appt, err := h.svc.Accept(r.Context(), ps.ByName("id"), actorFromRequest(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	emitTransition(r, "accepted", appt)
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"appointment": appt})
}

// Cancel handles POST /api/appointments/:id/cancel for patients (their
// own bookings), providers (their own counterparty) and admins.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	if utils.GetRoleFromRequest(r) == globals.RolePatient {
		appt, err := h.svc.GetAppointment(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if appt.UserID != utils.GetUserIDFromRequest(r) {
			utils.RespondWithError(w, http.StatusForbidden, ErrForbidden.Error())
			return
		}
	}

	appt, err := h.svc.Cancel(r.Context(), id, actorFromRequest(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	emitTransition(r, "cancelled", appt)
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"appointment": appt})
}

// Complete handles POST /api/appointments/:id/complete (provider roles).
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	appt, err := h.svc.Complete(r.Context(), ps.ByName("id"), actorFromRequest(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	emitTransition(r, "completed", appt)
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"appointment": appt})
}
