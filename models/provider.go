package models

import (
	"fmt"
	"time"
)

// ProviderKind distinguishes the two bookable staff types. They are
// structurally identical for booking purposes and only differ in which
// collection they live in.
type ProviderKind string

const (
	KindDoctor     ProviderKind = "doctor"
	KindPharmacist ProviderKind = "pharmacist"
)

func ParseProviderKind(s string) (ProviderKind, error) {
	switch ProviderKind(s) {
	case KindDoctor, KindPharmacist:
		return ProviderKind(s), nil
	}
	return "", fmt.Errorf("unknown provider kind %q", s)
}

// Provider is a doctor or pharmacist offering bookable time slots.
//
// SlotsBooked maps a date key ("2_6_2024") to the time labels already
// reserved on that day ("10:30 AM"). Absent keys mean a free day. The map
// is only ever mutated through the booking store's ReserveSlot primitive.
type Provider struct {
	ProviderID  string              `json:"providerid" bson:"providerid"`
	Kind        ProviderKind        `json:"kind" bson:"kind"`
	Name        string              `json:"name" bson:"name"`
	Email       string              `json:"email" bson:"email"`
	Password    string              `json:"-" bson:"password"`
	Speciality  string              `json:"speciality,omitempty" bson:"speciality,omitempty"`
	Degree      string              `json:"degree,omitempty" bson:"degree,omitempty"`
	Experience  string              `json:"experience,omitempty" bson:"experience,omitempty"`
	About       string              `json:"about,omitempty" bson:"about,omitempty"`
	Branch      string              `json:"branch,omitempty" bson:"branch,omitempty"`
	Fees        float64             `json:"fees" bson:"fees"`
	Available   bool                `json:"available" bson:"available"`
	SlotsBooked map[string][]string `json:"slots_booked" bson:"slots_booked"`
	CreatedAt   time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at" bson:"updated_at"`
}

// ProviderSnapshot is the counterparty data denormalized onto an
// appointment at booking time. Fee changes after booking never touch it.
type ProviderSnapshot struct {
	ProviderID string       `json:"providerid" bson:"providerid"`
	Kind       ProviderKind `json:"kind" bson:"kind"`
	Name       string       `json:"name" bson:"name"`
	Speciality string       `json:"speciality,omitempty" bson:"speciality,omitempty"`
	Branch     string       `json:"branch,omitempty" bson:"branch,omitempty"`
	Fees       float64      `json:"fees" bson:"fees"`
}

func (p Provider) Snapshot() ProviderSnapshot {
	return ProviderSnapshot{
		ProviderID: p.ProviderID,
		Kind:       p.Kind,
		Name:       p.Name,
		Speciality: p.Speciality,
		Branch:     p.Branch,
		Fees:       p.Fees,
	}
}

// Counterparty names the provider side of an appointment: exactly one
// doctor or one pharmacist.
type Counterparty struct {
	Kind ProviderKind
	ID   string
}

func (c Counterparty) Validate() error {
	if _, err := ParseProviderKind(string(c.Kind)); err != nil {
		return err
	}
	if c.ID == "" {
		return fmt.Errorf("counterparty id missing")
	}
	return nil
}
