package stripe

import "os"

// AppointmentSession is a checkout session for one appointment fee.
type AppointmentSession struct {
	URL           string
	AppointmentID string
	Amount        float64
}

func CreateAppointmentSession(appointmentId string, amount float64) (AppointmentSession, error) {
	var s AppointmentSession
	s.URL = frontendOrigin() + "/appointments/" + appointmentId + "/pay"
	s.AppointmentID = appointmentId
	s.Amount = amount
	var err error
	return s, err
}

func frontendOrigin() string {
	if origin := os.Getenv("FRONTEND_ORIGIN"); origin != "" {
		return origin
	}
	return "http://localhost:5173"
}
