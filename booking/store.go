package booking

import (
	"context"

	"medibook/models"
)

// UserStore is the read-only user directory the booking service snapshots
// requesters from.
type UserStore interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// ProviderStore owns provider availability. ReserveSlot is the only way
// slots_booked is ever mutated: it appends the time label to the date key
// as one atomic check-and-append, so two reservations of the same slot
// cannot both succeed.
type ProviderStore interface {
	GetProvider(ctx context.Context, kind models.ProviderKind, id string) (*models.Provider, error)
	ReserveSlot(ctx context.Context, kind models.ProviderKind, id, dateKey, timeLabel string) error
	ToggleAvailable(ctx context.Context, kind models.ProviderKind, id string) (*models.Provider, error)
}

// AppointmentStore persists appointment records.
//
// SetFlags is a compare-and-set: it writes the new flags only while the
// record still carries the expected ones, and returns errConflict when a
// concurrent transition got there first. Existence and state validation
// stay in the service.
type AppointmentStore interface {
	InsertAppointment(ctx context.Context, a *models.Appointment) error
	GetAppointment(ctx context.Context, id string) (*models.Appointment, error)
	SetFlags(ctx context.Context, id string, expect, set Flags) (*models.Appointment, error)
	ListByRequester(ctx context.Context, userID string) ([]models.Appointment, error)
	ListByCounterparty(ctx context.Context, c models.Counterparty) ([]models.Appointment, error)
	ListAllAppointments(ctx context.Context) ([]models.Appointment, error)
}
