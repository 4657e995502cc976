package http

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/jodyrakow/triviavanguard-show-mode-sub000/internal/app"
)

// WSHandler streams standings updates to audience displays. The feed is
// one-way: clients connect with a showId and receive a snapshot followed
// by an update after every accepted save.
type WSHandler struct {
	service  *app.ShowService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.ShowService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// ServeWS upgrades HTTP requests to websockets and subscribes them to a
// show's standings feed.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	showID := r.URL.Query().Get("showId")
	if showID == "" {
		http.Error(w, "missing showId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel, err := h.service.Subscribe(r.Context(), showID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[string]{Type: "error", Payload: err.Error()})
		return
	}
	defer cancel()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			// Displays never send anything meaningful; reading just
			// detects disconnects.
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(outboundMessage[app.StandingsUpdate]{Type: "standings", Payload: update}); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		case <-closed:
			return
		}
	}
}
