package ws

import (
	"log"
	"net/http"

	"nhooyr.io/websocket"
)

// ServeWS returns an HTTP handler that upgrades to WebSocket. The feed is
// read-only and public, so no authentication is required to subscribe.
func ServeWS(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true, // Allow any origin (dev mode)
		})
		if err != nil {
			log.Printf("ws: accept error: %v", err)
			return
		}

		client := NewClient(hub, conn, r.RemoteAddr)
		hub.register <- client

		go client.WritePump()
		go client.ReadPump()
	}
}
