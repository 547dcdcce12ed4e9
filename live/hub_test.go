package live

import (
	"testing"
	"time"
)

func TestHubRegisterBroadcastUnregister(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	client := &Client{
		Send: make(chan []byte, 10),
		Room: RoomFor("doctor", "d1"),
	}
	hub.register <- client

	data := []byte(`{"event":"booked","appointment_id":"a1"}`)
	hub.Broadcast(RoomFor("doctor", "d1"), data)

	select {
	case got := <-client.Send:
		if string(got) != string(data) {
			t.Fatalf("expected %s, got %s", data, got)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for message")
	}

	hub.unregister <- client
}

func TestHubBroadcastIsScopedToRoom(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	other := &Client{
		Send: make(chan []byte, 10),
		Room: RoomFor("pharmacist", "p1"),
	}
	hub.register <- other

	hub.Broadcast(RoomFor("doctor", "d1"), []byte("x"))

	select {
	case msg := <-other.Send:
		t.Fatalf("client in another room received %q", msg)
	case <-time.After(100 * time.Millisecond):
	}
}
