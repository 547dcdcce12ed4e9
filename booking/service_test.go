package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"medibook/models"
)

func fixedClock() time.Time {
	return time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
}

func newTestService(t *testing.T) (*Service, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	store.PutUser(models.User{UserID: "u1", Name: "Asha", Email: "asha@example.com", Phone: "555-0101"})
	store.PutProvider(models.Provider{
		ProviderID: "d1",
		Kind:       models.KindDoctor,
		Name:       "Dr. Rao",
		Fees:       50,
		Available:  true,
	})
	store.PutProvider(models.Provider{
		ProviderID: "p1",
		Kind:       models.KindPharmacist,
		Name:       "Meera",
		Fees:       20,
		Available:  true,
	})
	return NewService(store, store, store).WithClock(fixedClock), store
}

func mustBook(t *testing.T, svc *Service, kind models.ProviderKind, providerID string) *models.Appointment {
	t.Helper()
	appt, err := svc.Book(context.Background(), BookRequest{
		UserID:       "u1",
		Counterparty: models.Counterparty{Kind: kind, ID: providerID},
		SlotDate:     "15_6_2024",
		SlotTime:     "10:30 AM",
	})
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	return appt
}

func TestBookCreatesPendingAppointmentAndReservesSlot(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	appt := mustBook(t, svc, models.KindDoctor, "d1")

	if appt.Amount != 50 {
		t.Errorf("amount = %v, want provider fee 50", appt.Amount)
	}
	if st, err := StatusOf(appt); err != nil || st != StatusPending {
		t.Errorf("status = %v (%v), want pending", st, err)
	}
	if appt.DocID != "d1" || appt.PharmacistID != "" {
		t.Errorf("counterparty ids = (%q, %q), want doctor only", appt.DocID, appt.PharmacistID)
	}
	if appt.UserData.Name != "Asha" || appt.ProviderData.Name != "Dr. Rao" {
		t.Error("profile snapshots not copied onto appointment")
	}

	p, err := store.GetProvider(ctx, models.KindDoctor, "d1")
	if err != nil {
		t.Fatal(err)
	}
	got := p.SlotsBooked["15_6_2024"]
	if len(got) != 1 || got[0] != "10:30 AM" {
		t.Errorf("slots_booked = %v, want the reserved slot", got)
	}

	// second booking for the same slot must lose
	_, err = svc.Book(ctx, BookRequest{
		UserID:       "u1",
		Counterparty: models.Counterparty{Kind: models.KindDoctor, ID: "d1"},
		SlotDate:     "15_6_2024",
		SlotTime:     "10:30 AM",
	})
	if !errors.Is(err, ErrSlotTaken) {
		t.Errorf("rebooking same slot: err = %v, want ErrSlotTaken", err)
	}
}

func TestBookPreconditionOrder(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	_, err := svc.Book(ctx, BookRequest{
		UserID:       "u1",
		Counterparty: models.Counterparty{Kind: models.KindDoctor, ID: "nope"},
		SlotDate:     "15_6_2024",
		SlotTime:     "10:30 AM",
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown provider: err = %v, want ErrNotFound", err)
	}

	if _, err := store.ToggleAvailable(ctx, models.KindDoctor, "d1"); err != nil {
		t.Fatal(err)
	}
	_, err = svc.Book(ctx, BookRequest{
		UserID:       "u1",
		Counterparty: models.Counterparty{Kind: models.KindDoctor, ID: "d1"},
		SlotDate:     "15_6_2024",
		SlotTime:     "10:30 AM",
	})
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Errorf("unavailable provider: err = %v, want ErrProviderUnavailable", err)
	}

	// no appointment and no slot must exist after the rejection
	if appts, _ := store.ListAllAppointments(ctx); len(appts) != 0 {
		t.Errorf("rejected booking still created %d appointments", len(appts))
	}
	p, _ := store.GetProvider(ctx, models.KindDoctor, "d1")
	if len(p.SlotsBooked) != 0 {
		t.Errorf("rejected booking mutated slots_booked: %v", p.SlotsBooked)
	}
}

func TestBookPharmacistCounterparty(t *testing.T) {
	svc, _ := newTestService(t)

	appt := mustBook(t, svc, models.KindPharmacist, "p1")

	if appt.PharmacistID != "p1" || appt.DocID != "" {
		t.Errorf("counterparty ids = (%q, %q), want pharmacist only", appt.DocID, appt.PharmacistID)
	}
	if appt.Amount != 20 {
		t.Errorf("amount = %v, want pharmacist fee 20", appt.Amount)
	}
	cp, err := appt.Counterparty()
	if err != nil || cp.Kind != models.KindPharmacist || cp.ID != "p1" {
		t.Errorf("Counterparty() = %v, %v", cp, err)
	}
}

func TestNoDoubleBookingUnderConcurrency(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	const callers = 32
	var wg sync.WaitGroup
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Book(ctx, BookRequest{
				UserID:       "u1",
				Counterparty: models.Counterparty{Kind: models.KindDoctor, ID: "d1"},
				SlotDate:     "15_6_2024",
				SlotTime:     "10:30 AM",
			})
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else if !errors.Is(err, ErrSlotTaken) {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("%d concurrent bookings succeeded for one slot, want exactly 1", wins)
	}

	appts, _ := store.ListAllAppointments(ctx)
	if len(appts) != 1 {
		t.Fatalf("%d appointments exist for one slot", len(appts))
	}
	p, _ := store.GetProvider(ctx, models.KindDoctor, "d1")
	if got := p.SlotsBooked["15_6_2024"]; len(got) != 1 {
		t.Fatalf("slot label recorded %d times: %v", len(got), got)
	}
}

func TestLifecycleHappyPath(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	actor := &models.Counterparty{Kind: models.KindDoctor, ID: "d1"}

	appt := mustBook(t, svc, models.KindDoctor, "d1")

	appt, err := svc.Accept(ctx, appt.AppointmentID, actor)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if st, _ := StatusOf(appt); st != StatusAccepted {
		t.Fatalf("after accept: %v", st)
	}

	appt, err = svc.MarkPaid(ctx, appt.AppointmentID)
	if err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}
	if st, _ := StatusOf(appt); st != StatusPaid {
		t.Fatalf("after payment: %v", st)
	}

	appt, err = svc.Complete(ctx, appt.AppointmentID, actor)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if st, _ := StatusOf(appt); st != StatusCompleted {
		t.Fatalf("after complete: %v", st)
	}

	// completed is terminal
	if _, err := svc.Cancel(ctx, appt.AppointmentID, actor); !errors.Is(err, ErrInvalidState) {
		t.Errorf("cancel after complete: err = %v, want ErrInvalidState", err)
	}
	if _, err := svc.Accept(ctx, appt.AppointmentID, actor); !errors.Is(err, ErrInvalidState) {
		t.Errorf("accept after complete: err = %v, want ErrInvalidState", err)
	}
}

func TestPaymentRequiresAcceptance(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	appt := mustBook(t, svc, models.KindDoctor, "d1")

	if _, err := svc.MarkPaid(ctx, appt.AppointmentID); !errors.Is(err, ErrNotAccepted) {
		t.Errorf("paying pending appointment: err = %v, want ErrNotAccepted", err)
	}

	actor := &models.Counterparty{Kind: models.KindDoctor, ID: "d1"}
	if _, err := svc.Accept(ctx, appt.AppointmentID, actor); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.MarkPaid(ctx, appt.AppointmentID); err != nil {
		t.Errorf("paying accepted appointment: %v", err)
	}
	if _, err := svc.MarkPaid(ctx, appt.AppointmentID); !errors.Is(err, ErrInvalidState) {
		t.Errorf("double payment: err = %v, want ErrInvalidState", err)
	}
}

func TestCancelledIsTerminal(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	actor := &models.Counterparty{Kind: models.KindDoctor, ID: "d1"}

	appt := mustBook(t, svc, models.KindDoctor, "d1")

	if _, err := svc.Cancel(ctx, appt.AppointmentID, actor); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if _, err := svc.Cancel(ctx, appt.AppointmentID, actor); !errors.Is(err, ErrAlreadyCancelled) {
		t.Errorf("second cancel: err = %v, want ErrAlreadyCancelled", err)
	}
	if _, err := svc.Accept(ctx, appt.AppointmentID, actor); !errors.Is(err, ErrInvalidState) {
		t.Errorf("accept after cancel: err = %v, want ErrInvalidState", err)
	}
	if _, err := svc.MarkPaid(ctx, appt.AppointmentID); !errors.Is(err, ErrInvalidState) {
		t.Errorf("pay after cancel: err = %v, want ErrInvalidState", err)
	}
	if _, err := svc.Complete(ctx, appt.AppointmentID, actor); !errors.Is(err, ErrInvalidState) {
		t.Errorf("complete after cancel: err = %v, want ErrInvalidState", err)
	}
}

func TestCancelKeepsSlotReserved(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	actor := &models.Counterparty{Kind: models.KindDoctor, ID: "d1"}

	appt := mustBook(t, svc, models.KindDoctor, "d1")
	if _, err := svc.Cancel(ctx, appt.AppointmentID, actor); err != nil {
		t.Fatal(err)
	}

	p, _ := store.GetProvider(ctx, models.KindDoctor, "d1")
	if got := p.SlotsBooked["15_6_2024"]; len(got) != 1 {
		t.Errorf("cancellation released the slot: %v", got)
	}
}

func TestCounterpartyAuthorization(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	appt := mustBook(t, svc, models.KindDoctor, "d1")

	imposters := []models.Counterparty{
		{Kind: models.KindDoctor, ID: "d2"},
		{Kind: models.KindPharmacist, ID: "d1"},
	}
	for _, actor := range imposters {
		if _, err := svc.Accept(ctx, appt.AppointmentID, &actor); !errors.Is(err, ErrForbidden) {
			t.Errorf("accept as %v/%v: err = %v, want ErrForbidden", actor.Kind, actor.ID, err)
		}
	}

	// rejected calls must not have mutated anything
	got, err := svc.GetAppointment(ctx, appt.AppointmentID)
	if err != nil {
		t.Fatal(err)
	}
	if st, _ := StatusOf(got); st != StatusPending {
		t.Errorf("forbidden accept still changed state to %v", st)
	}

	// admin path: nil actor skips the counterparty check
	if _, err := svc.Accept(ctx, appt.AppointmentID, nil); err != nil {
		t.Errorf("admin accept: %v", err)
	}
}

func TestAvailableSlotsExcludeBooked(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	mustBook(t, svc, models.KindDoctor, "d1")

	days, err := svc.AvailableSlots(ctx, models.KindDoctor, "d1")
	if err != nil {
		t.Fatal(err)
	}
	for _, d := range days {
		if d.DateKey != "15_6_2024" {
			continue
		}
		for _, s := range d.Slots {
			if s.Time == "10:30 AM" {
				t.Error("booked slot still offered")
			}
		}
	}
}

func TestFeeChangeDoesNotTouchExistingAmount(t *testing.T) {
	svc, store := newTestService(t)

	appt := mustBook(t, svc, models.KindDoctor, "d1")

	p, _ := store.GetProvider(context.Background(), models.KindDoctor, "d1")
	p.Fees = 90
	store.PutProvider(*p)

	got, err := svc.GetAppointment(context.Background(), appt.AppointmentID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Amount != 50 {
		t.Errorf("amount drifted to %v after fee change", got.Amount)
	}
}
