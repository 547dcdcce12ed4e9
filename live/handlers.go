package live

import (
	"encoding/json"
	"log"
	"net/http"

	"medibook/middleware"
	"medibook/mq"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// RoomFor names the hub room carrying one provider's events.
func RoomFor(kind, providerID string) string {
	return kind + "/" + providerID
}

// Forward is the mq consumer: it boxes the event as JSON and pushes it to
// the provider's room.
func Forward(hub *Hub) func(mq.AppointmentEvent) {
	return func(event mq.AppointmentEvent) {
		data, err := json.Marshal(event)
		if err != nil {
			log.Printf("live: marshal event: %v", err)
			return
		}
		hub.Broadcast(RoomFor(event.ProviderKind, event.ProviderID), data)
	}
}

// UpdatesHandler upgrades the connection and streams the caller's own
// appointment events. The token is validated here because the auth
// middleware lets websocket upgrades through untouched; providers can only
// watch their own room.
func UpdatesHandler(hub *Hub) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		token := r.Header.Get("Authorization")
		if token == "" {
			// Browsers cannot set headers on websocket dials.
			token = "Bearer " + r.URL.Query().Get("token")
		}
		claims, err := middleware.ValidateJWT(token)
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if claims.Role != ps.ByName("kind") || claims.UserID != ps.ByName("id") {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("live: upgrade:", err)
			return
		}

		client := &Client{
			Send: make(chan []byte, 64),
			Room: RoomFor(ps.ByName("kind"), ps.ByName("id")),
		}
		hub.register <- client

		go writePump(conn, client)
		go readPump(conn, client, hub)
	}
}

func writePump(conn *websocket.Conn, c *Client) {
	defer conn.Close()
	for msg := range c.Send {
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			break
		}
	}
}

// readPump only watches for the client going away; inbound payloads are
// ignored, the stream is one-way.
func readPump(conn *websocket.Conn, c *Client, hub *Hub) {
	defer func() {
		hub.unregister <- c
		conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
