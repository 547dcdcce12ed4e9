package receipts

import (
	"strings"
	"testing"

	"medibook/models"
)

func TestQRPayloadRoundTrip(t *testing.T) {
	a := &models.Appointment{
		AppointmentID: "ap-123",
		SlotDate:      "15_6_2024",
		SlotTime:      "10:30 AM",
	}

	id, err := VerifyPayload(qrPayload(a))
	if err != nil {
		t.Fatalf("VerifyPayload: %v", err)
	}
	if id != "ap-123" {
		t.Errorf("appointment id = %q, want ap-123", id)
	}
}

func TestVerifyPayloadRejectsTampering(t *testing.T) {
	a := &models.Appointment{
		AppointmentID: "ap-123",
		SlotDate:      "15_6_2024",
		SlotTime:      "10:30 AM",
	}
	payload := qrPayload(a)

	tampered := strings.Replace(payload, "ap-123", "ap-999", 1)
	if _, err := VerifyPayload(tampered); err == nil {
		t.Error("tampered payload verified")
	}

	if _, err := VerifyPayload("not|a|payload"); err == nil {
		t.Error("malformed payload verified")
	}
}
