package mq

import (
	"context"
	"encoding/json"
	"log"

	"medibook/rdx"
)

const channel = "appointment-events"

// AppointmentEvent is the notification payload published after a
// successful booking or lifecycle transition. Delivery to users (email,
// SMS) is a downstream consumer's job; the core only emits.
type AppointmentEvent struct {
	Event         string `json:"event"` // booked, accepted, cancelled, paid, completed
	AppointmentID string `json:"appointment_id"`
	ProviderKind  string `json:"provider_kind"`
	ProviderID    string `json:"provider_id"`
	UserID        string `json:"user_id"`
	SlotDate      string `json:"slot_date"`
	SlotTime      string `json:"slot_time"`
	Status        string `json:"status"`
}

// Emit publishes the event to Redis. Failures are logged, never returned:
// notifications must not fail a committed booking.
func Emit(ctx context.Context, event AppointmentEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("mq: marshal event: %v", err)
		return
	}
	if err := rdx.Conn.Publish(ctx, channel, data).Err(); err != nil {
		log.Printf("mq: publish %s: %v", event.Event, err)
	}
}

// StartNotifyWorker subscribes to the appointment events channel and hands
// each event to the given consumer. Runs until the subscription closes.
func StartNotifyWorker(handle func(AppointmentEvent)) {
	ctx := context.Background()
	sub := rdx.Conn.Subscribe(ctx, channel)
	ch := sub.Channel()

	log.Println("mq: listening for appointment events")

	for msg := range ch {
		var event AppointmentEvent
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			log.Printf("mq: bad event payload: %v", err)
			continue
		}
		handle(event)
	}
}
