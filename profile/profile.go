package profile

import (
	"encoding/json"
	"net/http"
	"time"

	"medibook/db"
	"medibook/models"
	"medibook/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GetProfile returns the authenticated patient's account.
func GetProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	opts := options.FindOne().SetProjection(bson.M{"password": 0, "refresh_token": 0, "refresh_expiry": 0})
	var user models.User
	err := db.UserCollection.FindOne(r.Context(), bson.M{"userid": userID}, opts).Decode(&user)
	if err == mongo.ErrNoDocuments {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to load profile", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, user)
}

// UpdateProfile edits the patient's contact details. Email is the login
// identifier and cannot change here; name is required on every update the
// same way it is at registration.
func UpdateProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var input struct {
		Name    string `json:"name"`
		Phone   string `json:"phone"`
		Address string `json:"address"`
		Gender  string `json:"gender"`
		Dob     string `json:"dob"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid input", http.StatusBadRequest)
		return
	}
	if input.Name == "" {
		http.Error(w, "Name is required", http.StatusBadRequest)
		return
	}

	set := bson.M{
		"name":       input.Name,
		"phone":      input.Phone,
		"address":    input.Address,
		"gender":     input.Gender,
		"dob":        input.Dob,
		"updated_at": time.Now(),
	}

	res, err := db.UserCollection.UpdateOne(r.Context(), bson.M{"userid": userID}, bson.M{"$set": set})
	if err != nil {
		http.Error(w, "Failed to update profile", http.StatusInternalServerError)
		return
	}
	if res.MatchedCount == 0 {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	utils.SendResponse(w, http.StatusOK, nil, "Profile updated", nil)
}
