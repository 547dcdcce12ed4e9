package receipts

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"medibook/booking"
	"medibook/globals"
	"medibook/models"
	"medibook/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
)

// Handler renders downloadable PDF receipts for paid or completed
// appointments. The embedded QR code carries an HMAC-signed payload the
// front desk can scan to verify the receipt was issued here.
type Handler struct {
	svc *booking.Service
}

func NewHandler(svc *booking.Service) *Handler {
	return &Handler{svc: svc}
}

// qrPayload returns appointmentID|slotDate|slotTime|signature.
func qrPayload(a *models.Appointment) string {
	data := fmt.Sprintf("%s|%s|%s", a.AppointmentID, a.SlotDate, a.SlotTime)

	h := hmac.New(sha256.New, globals.JwtSecret)
	h.Write([]byte(data))
	sig := base64.StdEncoding.EncodeToString(h.Sum(nil))

	return fmt.Sprintf("%s|%s", data, sig)
}

// VerifyPayload checks a scanned QR payload against its signature and
// returns the appointment id it was issued for.
func VerifyPayload(payload string) (string, error) {
	parts := strings.Split(payload, "|")
	if len(parts) != 4 {
		return "", errors.New("malformed payload")
	}

	data := strings.Join(parts[:3], "|")
	h := hmac.New(sha256.New, globals.JwtSecret)
	h.Write([]byte(data))
	want := base64.StdEncoding.EncodeToString(h.Sum(nil))

	if !hmac.Equal([]byte(parts[3]), []byte(want)) {
		return "", errors.New("signature mismatch")
	}
	return parts[0], nil
}

// GET /api/appointments/:id/receipt
func (h *Handler) PrintReceipt(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	appt, err := h.svc.GetAppointment(r.Context(), ps.ByName("id"))
	if err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			http.Error(w, "Appointment not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to load appointment", http.StatusInternalServerError)
		return
	}

	role := utils.GetRoleFromRequest(r)
	if role != globals.RoleAdmin && appt.UserID != utils.GetUserIDFromRequest(r) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	st, err := booking.StatusOf(appt)
	if err != nil {
		http.Error(w, "Appointment record is inconsistent", http.StatusInternalServerError)
		return
	}
	if st != booking.StatusPaid && st != booking.StatusCompleted {
		http.Error(w, "Receipt is only available after payment", http.StatusConflict)
		return
	}

	qrPNG, err := qrcode.Encode(qrPayload(appt), qrcode.Medium, 256)
	if err != nil {
		http.Error(w, "Failed to generate QR code", http.StatusInternalServerError)
		return
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Appointment Receipt")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 10, fmt.Sprintf("Receipt No: %s", appt.AppointmentID))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Patient: %s", appt.UserData.Name))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Provider: %s (%s)", appt.ProviderData.Name, appt.ProviderData.Kind))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Slot: %s %s", appt.SlotDate, appt.SlotTime))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Amount Paid: %.2f", appt.Amount))
	pdf.Ln(12)

	if formURL := os.Getenv("FORM_URL"); formURL != "" {
		pdf.SetFont("Arial", "I", 10)
		pdf.Cell(0, 10, fmt.Sprintf("Please fill the intake form before your visit: %s", formURL))
		pdf.Ln(12)
	}

	imageOpts := gofpdf.ImageOptions{
		ImageType: "PNG",
	}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 150, 40, 40, 40, false, imageOpts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		http.Error(w, "Failed to generate PDF", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=receipt-"+appt.AppointmentID+".pdf")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
