package providers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"medibook/booking"
	"medibook/db"
	"medibook/models"
	"medibook/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Handler serves the public provider directory and the provider panel.
type Handler struct {
	svc *booking.Service
}

func NewHandler(svc *booking.Service) *Handler {
	return &Handler{svc: svc}
}

func collectionFor(kind models.ProviderKind) *mongo.Collection {
	if kind == models.KindPharmacist {
		return db.PharmacistCollection
	}
	return db.DoctorCollection
}

func parseKind(w http.ResponseWriter, ps httprouter.Params) (models.ProviderKind, bool) {
	kind, err := models.ParseProviderKind(ps.ByName("kind"))
	if err != nil {
		http.Error(w, "Unknown provider kind", http.StatusBadRequest)
		return "", false
	}
	return kind, true
}

// List returns all providers of a kind for the public directory.
func (h *Handler) List(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	kind, ok := parseKind(w, ps)
	if !ok {
		return
	}

	// Password stays server-side; slots_booked is public so the frontend
	// can grey out taken slots without another round trip.
	opts := options.Find().SetProjection(bson.M{"password": 0, "refresh_token": 0, "refresh_expiry": 0})
	cursor, err := collectionFor(kind).Find(r.Context(), bson.M{}, opts)
	if err != nil {
		http.Error(w, "Failed to list providers", http.StatusInternalServerError)
		return
	}
	defer cursor.Close(r.Context())

	providers := []models.Provider{}
	if err := cursor.All(r.Context(), &providers); err != nil {
		http.Error(w, "Failed to decode providers", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, providers)
}

// Get returns one provider by id.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	kind, ok := parseKind(w, ps)
	if !ok {
		return
	}

	opts := options.FindOne().SetProjection(bson.M{"password": 0, "refresh_token": 0, "refresh_expiry": 0})
	var p models.Provider
	err := collectionFor(kind).FindOne(r.Context(), bson.M{"providerid": ps.ByName("id")}, opts).Decode(&p)
	if err == mongo.ErrNoDocuments {
		http.Error(w, "Provider not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to load provider", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, p)
}

// Slots returns the provider's bookable slots for the next seven days.
func (h *Handler) Slots(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	kind, ok := parseKind(w, ps)
	if !ok {
		return
	}

	days, err := h.svc.AvailableSlots(r.Context(), kind, ps.ByName("id"))
	if err != nil {
		if err == booking.ErrNotFound {
			http.Error(w, "Provider not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to compute slots", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, days)
}

// ToggleAvailability flips the caller's available flag. Admins may pass any
// provider id; providers may only toggle themselves.
func (h *Handler) ToggleAvailability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	kind, ok := parseKind(w, ps)
	if !ok {
		return
	}

	id := ps.ByName("id")
	role := utils.GetRoleFromRequest(r)
	if role != "admin" && (role != string(kind) || utils.GetUserIDFromRequest(r) != id) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	p, err := h.svc.ToggleAvailable(r.Context(), kind, id)
	if err != nil {
		if err == booking.ErrNotFound {
			http.Error(w, "Provider not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to update availability", http.StatusInternalServerError)
		return
	}

	utils.SendResponse(w, http.StatusOK, utils.M{"available": p.Available}, "Availability updated", nil)
}

// UpdateProfile lets a provider edit the fields shown on their public card.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	kind, ok := parseKind(w, ps)
	if !ok {
		return
	}

	id := utils.GetUserIDFromRequest(r)
	if utils.GetRoleFromRequest(r) != string(kind) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	var input struct {
		Fees      *float64 `json:"fees"`
		About     *string  `json:"about"`
		Branch    *string  `json:"branch"`
		Available *bool    `json:"available"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid input", http.StatusBadRequest)
		return
	}

	set := bson.M{"updated_at": time.Now()}
	if input.Fees != nil {
		if *input.Fees < 0 {
			http.Error(w, "Fees cannot be negative", http.StatusBadRequest)
			return
		}
		set["fees"] = *input.Fees
	}
	if input.About != nil {
		set["about"] = *input.About
	}
	if input.Branch != nil {
		set["branch"] = *input.Branch
	}
	if input.Available != nil {
		set["available"] = *input.Available
	}

	res, err := collectionFor(kind).UpdateOne(r.Context(), bson.M{"providerid": id}, bson.M{"$set": set})
	if err != nil {
		log.Printf("provider profile update failed for %s: %v", id, err)
		http.Error(w, "Failed to update profile", http.StatusInternalServerError)
		return
	}
	if res.MatchedCount == 0 {
		http.Error(w, "Provider not found", http.StatusNotFound)
		return
	}

	utils.SendResponse(w, http.StatusOK, nil, "Profile updated", nil)
}

// Dashboard summarizes the caller's appointments: earnings from paid or
// completed visits, distinct patients seen, and the five most recent
// bookings.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	kind, ok := parseKind(w, ps)
	if !ok {
		return
	}

	id := utils.GetUserIDFromRequest(r)
	if utils.GetRoleFromRequest(r) != string(kind) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	appts, err := h.svc.ProviderAppointments(r.Context(), models.Counterparty{Kind: kind, ID: id})
	if err != nil {
		http.Error(w, "Failed to load appointments", http.StatusInternalServerError)
		return
	}

	var earnings float64
	patients := map[string]struct{}{}
	for _, a := range appts {
		if a.Payment || a.IsCompleted {
			earnings += a.Amount
		}
		patients[a.UserID] = struct{}{}
	}

	latest := appts
	if len(latest) > 5 {
		latest = latest[len(latest)-5:]
	}
	// newest first
	reversed := make([]models.Appointment, 0, len(latest))
	for i := len(latest) - 1; i >= 0; i-- {
		reversed = append(reversed, latest[i])
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"earnings":           earnings,
		"appointments":       len(appts),
		"patients":           len(patients),
		"latestAppointments": reversed,
	})
}
