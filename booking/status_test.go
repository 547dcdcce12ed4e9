package booking

import (
	"errors"
	"testing"

	"medibook/models"
)

func apptWithFlags(f Flags) *models.Appointment {
	a := &models.Appointment{AppointmentID: "a1"}
	applyFlags(a, f)
	return a
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name  string
		flags Flags
		want  Status
	}{
		{"fresh booking", Flags{}, StatusPending},
		{"accepted", Flags{Accepted: true}, StatusAccepted},
		{"paid", Flags{Accepted: true, Payment: true}, StatusPaid},
		{"completed unpaid", Flags{Accepted: true, Completed: true}, StatusCompleted},
		{"completed paid", Flags{Accepted: true, Payment: true, Completed: true}, StatusCompleted},
		{"cancelled pending", Flags{Cancelled: true}, StatusCancelled},
		{"cancelled accepted", Flags{Accepted: true, Cancelled: true}, StatusCancelled},
		{"cancelled paid", Flags{Accepted: true, Payment: true, Cancelled: true}, StatusCancelled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := StatusOf(apptWithFlags(tt.flags))
			if err != nil {
				t.Fatalf("StatusOf(%+v): %v", tt.flags, err)
			}
			if got != tt.want {
				t.Errorf("StatusOf(%+v) = %v, want %v", tt.flags, got, tt.want)
			}
		})
	}
}

func TestStatusOfRejectsCorruptFlags(t *testing.T) {
	tests := []struct {
		name  string
		flags Flags
	}{
		{"cancelled and completed", Flags{Accepted: true, Cancelled: true, Completed: true}},
		{"paid without acceptance", Flags{Payment: true}},
		{"completed without acceptance", Flags{Completed: true}},
		{"paid and cancelled without acceptance", Flags{Payment: true, Cancelled: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := StatusOf(apptWithFlags(tt.flags)); !errors.Is(err, ErrCorruptState) {
				t.Errorf("StatusOf(%+v): err = %v, want ErrCorruptState", tt.flags, err)
			}
		})
	}
}

func TestStatusString(t *testing.T) {
	tests := []struct {
		st   Status
		want string
	}{
		{StatusPending, "pending"},
		{StatusAccepted, "accepted"},
		{StatusPaid, "paid"},
		{StatusCompleted, "completed"},
		{StatusCancelled, "cancelled"},
		{Status(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.st.String(); got != tt.want {
			t.Errorf("Status(%d).String() = %q, want %q", tt.st, got, tt.want)
		}
	}
}
