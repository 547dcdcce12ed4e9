package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"medibook/models"
	"medibook/slots"
	"medibook/utils"
)

// Service implements slot booking and the appointment lifecycle over the
// user, provider and appointment stores. All operations run synchronously
// and return typed errors from errors.go.
type Service struct {
	users        UserStore
	providers    ProviderStore
	appointments AppointmentStore
	now          func() time.Time
}

func NewService(users UserStore, providers ProviderStore, appointments AppointmentStore) *Service {
	return &Service{
		users:        users,
		providers:    providers,
		appointments: appointments,
		now:          time.Now,
	}
}

// WithClock replaces the service clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// BookRequest identifies the slot a user wants with a provider.
type BookRequest struct {
	UserID       string
	Counterparty models.Counterparty
	SlotDate     string
	SlotTime     string
}

// AvailableSlots returns the provider's bookable slots for the next seven
// days, computed from its booked-slot map at this instant.
func (s *Service) AvailableSlots(ctx context.Context, kind models.ProviderKind, id string) ([]slots.DaySlots, error) {
	p, err := s.providers.GetProvider(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	return slots.Generate(s.now(), p.SlotsBooked), nil
}

// ToggleAvailable flips the provider's bookable flag and returns the
// updated record.
func (s *Service) ToggleAvailable(ctx context.Context, kind models.ProviderKind, id string) (*models.Provider, error) {
	return s.providers.ToggleAvailable(ctx, kind, id)
}

// Book validates the provider and slot, reserves the slot on the provider
// record and creates the appointment in Pending state.
//
// Precondition order is fixed: unknown provider, unavailable provider,
// then taken slot. The reservation itself is an atomic check-and-append
// in the provider store, so concurrent bookings of the same slot resolve
// to exactly one winner even when both pass the preliminary checks.
func (s *Service) Book(ctx context.Context, req BookRequest) (*models.Appointment, error) {
	if err := req.Counterparty.Validate(); err != nil {
		return nil, fmt.Errorf("book: %w", err)
	}
	if req.SlotDate == "" || req.SlotTime == "" {
		return nil, fmt.Errorf("book: slot date and time required")
	}

	p, err := s.providers.GetProvider(ctx, req.Counterparty.Kind, req.Counterparty.ID)
	if err != nil {
		return nil, err
	}
	if !p.Available {
		return nil, ErrProviderUnavailable
	}
	for _, taken := range p.SlotsBooked[req.SlotDate] {
		if taken == req.SlotTime {
			return nil, ErrSlotTaken
		}
	}

	user, err := s.users.GetUser(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	// The authoritative slot check: append-if-absent on the provider record.
	if err := s.providers.ReserveSlot(ctx, req.Counterparty.Kind, req.Counterparty.ID, req.SlotDate, req.SlotTime); err != nil {
		return nil, err
	}

	appt := &models.Appointment{
		AppointmentID: utils.NewID(),
		UserID:        user.UserID,
		SlotDate:      req.SlotDate,
		SlotTime:      req.SlotTime,
		Amount:        p.Fees,
		UserData:      user.Snapshot(),
		ProviderData:  p.Snapshot(),
		CreatedAt:     s.now(),
	}
	if err := appt.SetCounterparty(req.Counterparty); err != nil {
		return nil, err
	}

	if err := s.appointments.InsertAppointment(ctx, appt); err != nil {
		return nil, fmt.Errorf("book: insert appointment: %w", err)
	}
	return appt, nil
}

// Accept moves a Pending appointment to Accepted. Providers may only
// accept their own appointments; pass a nil actor for admin calls.
func (s *Service) Accept(ctx context.Context, appointmentID string, actor *models.Counterparty) (*models.Appointment, error) {
	return s.transition(ctx, appointmentID, actor, func(st Status, f Flags) (Flags, error) {
		if st != StatusPending {
			return f, ErrInvalidState
		}
		f.Accepted = true
		return f, nil
	})
}

// Cancel marks the appointment cancelled. Allowed from Pending, Accepted
// and Paid; Completed is terminal. The reserved slot stays consumed on the
// provider record: releasing it is the provider's manual decision, not an
// automatic side effect.
func (s *Service) Cancel(ctx context.Context, appointmentID string, actor *models.Counterparty) (*models.Appointment, error) {
	return s.transition(ctx, appointmentID, actor, func(st Status, f Flags) (Flags, error) {
		switch st {
		case StatusCancelled:
			return f, ErrAlreadyCancelled
		case StatusCompleted:
			return f, ErrInvalidState
		}
		f.Cancelled = true
		return f, nil
	})
}

// MarkPaid records a successful payment. Only an Accepted appointment can
// be paid: the payment collaborator's callback is not trusted to have
// checked that.
func (s *Service) MarkPaid(ctx context.Context, appointmentID string) (*models.Appointment, error) {
	return s.transition(ctx, appointmentID, nil, func(st Status, f Flags) (Flags, error) {
		switch st {
		case StatusPending:
			return f, ErrNotAccepted
		case StatusAccepted:
			f.Payment = true
			return f, nil
		}
		return f, ErrInvalidState
	})
}

// Complete closes out an Accepted or Paid appointment.
func (s *Service) Complete(ctx context.Context, appointmentID string, actor *models.Counterparty) (*models.Appointment, error) {
	return s.transition(ctx, appointmentID, actor, func(st Status, f Flags) (Flags, error) {
		if st != StatusAccepted && st != StatusPaid {
			return f, ErrInvalidState
		}
		f.Completed = true
		return f, nil
	})
}

// GetAppointment loads one appointment and validates its flags.
func (s *Service) GetAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	appt, err := s.appointments.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := StatusOf(appt); err != nil {
		return nil, err
	}
	return appt, nil
}

func (s *Service) UserAppointments(ctx context.Context, userID string) ([]models.Appointment, error) {
	return s.appointments.ListByRequester(ctx, userID)
}

func (s *Service) ProviderAppointments(ctx context.Context, c models.Counterparty) ([]models.Appointment, error) {
	return s.appointments.ListByCounterparty(ctx, c)
}

func (s *Service) AllAppointments(ctx context.Context) ([]models.Appointment, error) {
	return s.appointments.ListAllAppointments(ctx)
}

// transition runs one guarded state change: load, authorize, derive the
// new flags, then compare-and-set against the flags that were read. A lost
// race re-reads once so the caller still gets an error naming the state
// that actually blocked the transition.
func (s *Service) transition(ctx context.Context, id string, actor *models.Counterparty, step func(Status, Flags) (Flags, error)) (*models.Appointment, error) {
	const attempts = 2

	for i := 0; i < attempts; i++ {
		appt, err := s.appointments.GetAppointment(ctx, id)
		if err != nil {
			return nil, err
		}

		if actor != nil {
			cp, err := appt.Counterparty()
			if err != nil {
				return nil, ErrCorruptState
			}
			if cp != *actor {
				return nil, ErrForbidden
			}
		}

		st, err := StatusOf(appt)
		if err != nil {
			return nil, err
		}

		next, err := step(st, flagsOf(appt))
		if err != nil {
			return nil, err
		}

		updated, err := s.appointments.SetFlags(ctx, id, flagsOf(appt), next)
		if errors.Is(err, errConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, ErrInvalidState
}
