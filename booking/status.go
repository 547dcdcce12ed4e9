package booking

import "medibook/models"

// Status is the single lifecycle state derived from the four persisted
// booleans. The document keeps the flags for compatibility; everything in
// this package reasons about Status only.
type Status int

const (
	StatusPending Status = iota
	StatusAccepted
	StatusPaid
	StatusCompleted
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusAccepted:
		return "accepted"
	case StatusPaid:
		return "paid"
	case StatusCompleted:
		return "completed"
	case StatusCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Flags is the persisted boolean form of an appointment's state.
type Flags struct {
	Accepted  bool
	Cancelled bool
	Payment   bool
	Completed bool
}

func flagsOf(a *models.Appointment) Flags {
	return Flags{
		Accepted:  a.Accepted,
		Cancelled: a.Cancelled,
		Payment:   a.Payment,
		Completed: a.IsCompleted,
	}
}

func applyFlags(a *models.Appointment, f Flags) {
	a.Accepted = f.Accepted
	a.Cancelled = f.Cancelled
	a.Payment = f.Payment
	a.IsCompleted = f.Completed
}

// StatusOf validates the flag combination on load and maps it to a Status.
// Combinations the state machine can never produce (paid but never
// accepted, completed and cancelled at once) are rejected with
// ErrCorruptState rather than guessed at.
func StatusOf(a *models.Appointment) (Status, error) {
	f := flagsOf(a)
	switch {
	case f.Cancelled && f.Completed:
		return 0, ErrCorruptState
	case f.Payment && !f.Accepted:
		return 0, ErrCorruptState
	case f.Completed && !f.Accepted:
		return 0, ErrCorruptState
	case f.Cancelled:
		return StatusCancelled, nil
	case f.Completed:
		return StatusCompleted, nil
	case f.Payment:
		return StatusPaid, nil
	case f.Accepted:
		return StatusAccepted, nil
	}
	return StatusPending, nil
}
