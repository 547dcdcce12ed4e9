package admin

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
	"golang.org/x/crypto/bcrypt"
)

// Handler carries the booking service for the admin dashboard; provider
// account management talks to the collections directly.
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

// AddProvider creates a doctor or pharmacist account. New providers start
// available with an empty booked-slot map.
func (h *Handler) AddProvider(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	kind, err := models.ParseProviderKind(ps.ByName("kind"))
	if err != nil {
		http.Error(w, "Unknown provider kind", http.StatusBadRequest)
		return
	}

	var input struct {
		Name       string  `json:"name"`
		Email      string  `json:"email"`
		Password   string  `json:"password"`
		Speciality string  `json:"speciality"`
		Degree     string  `json:"degree"`
		Experience string  `json:"experience"`
		About      string  `json:"about"`
		Branch     string  `json:"branch"`
		Fees       float64 `json:"fees"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid input", http.StatusBadRequest)
		return
	}

	if input.Name == "" || input.Email == "" || input.Password == "" {
		http.Error(w, "Missing required fields", http.StatusBadRequest)
		return
	}
	if !utils.ValidEmail(input.Email) {
		http.Error(w, "Invalid email", http.StatusBadRequest)
		return
	}
	if len(input.Password) < 8 {
		http.Error(w, "Password must be at least 8 characters", http.StatusBadRequest)
		return
	}
	if input.Fees < 0 {
		http.Error(w, "Fees cannot be negative", http.StatusBadRequest)
		return
	}

	coll := collectionFor(kind)
	err = coll.FindOne(r.Context(), bson.M{"email": input.Email}).Err()
	if err == nil {
		http.Error(w, "Provider already exists", http.StatusConflict)
		return
	} else if err != mongo.ErrNoDocuments {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Failed to hash password for %s: %v", input.Email, err)
		http.Error(w, "Failed to hash password", http.StatusInternalServerError)
		return
	}

	p := models.Provider{
		ProviderID:  utils.NewID(),
		Kind:        kind,
		Name:        input.Name,
		Email:       input.Email,
		Password:    string(hashedPassword),
		Speciality:  input.Speciality,
		Degree:      input.Degree,
		Experience:  input.Experience,
		About:       input.About,
		Branch:      input.Branch,
		Fees:        input.Fees,
		Available:   true,
		SlotsBooked: map[string][]string{},
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if _, err := coll.InsertOne(r.Context(), p); err != nil {
		http.Error(w, "Failed to create provider", http.StatusInternalServerError)
		return
	}

	utils.SendResponse(w, http.StatusCreated, utils.M{"providerid": p.ProviderID}, "Provider created", nil)
}

// Dashboard returns platform-wide counts and the five most recent
// appointments.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx := r.Context()

	doctors, err := db.DoctorCollection.CountDocuments(ctx, bson.M{})
	if err != nil {
		http.Error(w, "Failed to count doctors", http.StatusInternalServerError)
		return
	}
	pharmacists, err := db.PharmacistCollection.CountDocuments(ctx, bson.M{})
	if err != nil {
		http.Error(w, "Failed to count pharmacists", http.StatusInternalServerError)
		return
	}
	patients, err := db.UserCollection.CountDocuments(ctx, bson.M{})
	if err != nil {
		http.Error(w, "Failed to count patients", http.StatusInternalServerError)
		return
	}

	appts, err := h.svc.AllAppointments(ctx)
	if err != nil {
		http.Error(w, "Failed to load appointments", http.StatusInternalServerError)
		return
	}

	latest := appts
	if len(latest) > 5 {
		latest = latest[len(latest)-5:]
	}
	reversed := make([]models.Appointment, 0, len(latest))
	for i := len(latest) - 1; i >= 0; i-- {
		reversed = append(reversed, latest[i])
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"doctors":            doctors,
		"pharmacists":        pharmacists,
		"patients":           patients,
		"appointments":       len(appts),
		"latestAppointments": reversed,
	})
}
