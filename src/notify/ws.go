package notify

import (
	"net/http"

	"github.com/gorilla/websocket"
	logger "github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Sessions connect from the local UI; origin checks belong to a fronting
	// proxy when one exists.
	CheckOrigin: func(_ *http.Request) bool { return true },
}

// ServeWS upgrades the request and streams storage events to the peer until
// it disconnects. Each connected peer is just another hub subscriber.
func (h *Hub) ServeWS() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.WithError(err).Warn("[notify] websocket upgrade failed")
			return
		}

		events, cancel := h.Subscribe()

		// Reader goroutine: we never expect frames from the peer, but reading
		// is how gorilla surfaces the close handshake.
		go func() {
			defer cancel()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		go func() {
			defer func() {
				cancel()
				_ = conn.Close()
			}()

			for ev := range events {
				if err := conn.WriteJSON(ev); err != nil {
					logger.WithError(err).Debug("[notify] websocket write failed, dropping session")
					return
				}
			}
		}()
	}
}
