package utils

import (
	rndm "math/rand"
	"net/http"
	"net/mail"

	"medibook/globals"
	"medibook/middleware"

	"github.com/google/uuid"
)

// --- Random String and ID Generators ---

var digitRunes = []rune("0123456789")

// GenerateRandomDigitString creates a random numeric string of length n.
func GenerateRandomDigitString(n int) string {
	b := make([]rune, n)
	for i := range b {
		b[i] = digitRunes[rndm.Intn(len(digitRunes))]
	}
	return string(b)
}

// NewID returns a fresh uuid for users, providers and appointments.
func NewID() string {
	return uuid.NewString()
}

// --- Validation ---

func ValidEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}

// --- Request context helpers ---

func GetUserIDFromRequest(r *http.Request) string {
	id, ok := r.Context().Value(globals.UserIDKey).(string)
	if !ok {
		return ""
	}
	return id
}

func GetRoleFromRequest(r *http.Request) string {
	role, ok := r.Context().Value(globals.RoleKey).(string)
	if !ok {
		return ""
	}
	return role
}

func GetNameFromRequest(r *http.Request) string {
	claims, err := middleware.ValidateJWT(r.Header.Get("Authorization"))
	if err != nil {
		return ""
	}
	return claims.Name
}
