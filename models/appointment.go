package models

import (
	"fmt"
	"time"
)

// Appointment is one reserved (provider, date, time) slot.
//
// The persisted form keeps the doctor and pharmacist ids as two optional
// fields for compatibility with the existing documents; exactly one of
// them must be set. Use Counterparty() instead of touching the raw ids.
//
// The four flags encode the lifecycle state; they are never written
// directly by handlers, only through the booking service's guarded
// transitions.
type Appointment struct {
	AppointmentID string           `json:"appointmentid" bson:"appointmentid"`
	UserID        string           `json:"userid" bson:"userid"`
	DocID         string           `json:"docid,omitempty" bson:"docid,omitempty"`
	PharmacistID  string           `json:"pharmacistid,omitempty" bson:"pharmacistid,omitempty"`
	SlotDate      string           `json:"slot_date" bson:"slot_date"`
	SlotTime      string           `json:"slot_time" bson:"slot_time"`
	Amount        float64          `json:"amount" bson:"amount"`
	UserData      UserSnapshot     `json:"user_data" bson:"user_data"`
	ProviderData  ProviderSnapshot `json:"provider_data" bson:"provider_data"`
	Accepted      bool             `json:"accepted" bson:"accepted"`
	Cancelled     bool             `json:"cancelled" bson:"cancelled"`
	Payment       bool             `json:"payment" bson:"payment"`
	IsCompleted   bool             `json:"is_completed" bson:"is_completed"`
	CreatedAt     time.Time        `json:"created_at" bson:"created_at"`
}

// Counterparty returns the provider side of the appointment, rejecting
// documents where the doctor/pharmacist ids are both set or both empty.
func (a Appointment) Counterparty() (Counterparty, error) {
	switch {
	case a.DocID != "" && a.PharmacistID != "":
		return Counterparty{}, fmt.Errorf("appointment %s has both doctor and pharmacist ids", a.AppointmentID)
	case a.DocID != "":
		return Counterparty{Kind: KindDoctor, ID: a.DocID}, nil
	case a.PharmacistID != "":
		return Counterparty{Kind: KindPharmacist, ID: a.PharmacistID}, nil
	}
	return Counterparty{}, fmt.Errorf("appointment %s has no counterparty", a.AppointmentID)
}

// SetCounterparty writes the tagged counterparty into the persisted
// doctor/pharmacist id pair.
func (a *Appointment) SetCounterparty(c Counterparty) error {
	if err := c.Validate(); err != nil {
		return err
	}
	a.DocID = ""
	a.PharmacistID = ""
	if c.Kind == KindDoctor {
		a.DocID = c.ID
	} else {
		a.PharmacistID = c.ID
	}
	return nil
}
