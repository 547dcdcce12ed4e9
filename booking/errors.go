package booking

import "errors"

// Every rejected operation surfaces one of these so callers can tell the
// user what actually went wrong; nothing is logged-and-swallowed.
var (
	ErrNotFound            = errors.New("not found")
	ErrProviderUnavailable = errors.New("provider not available")
	ErrSlotTaken           = errors.New("slot not available")
	ErrInvalidState        = errors.New("transition not allowed from current state")
	ErrAlreadyCancelled    = errors.New("appointment already cancelled")
	ErrNotAccepted         = errors.New("appointment not accepted yet")
	ErrForbidden           = errors.New("caller is not the appointment counterparty")
	ErrCorruptState        = errors.New("appointment status flags are inconsistent")
)

// errConflict signals a lost compare-and-set race inside a store; the
// service re-reads and reports a typed error instead.
var errConflict = errors.New("concurrent update conflict")
