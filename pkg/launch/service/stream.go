package service

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const streamWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The launchpad UI is served from another origin in development.
	CheckOrigin: func(_ *http.Request) bool { return true },
}

// stream upgrades the request to a websocket and pushes stage updates
// until the deployment reaches a terminal stage or the client leaves.
func (h *HTTP) stream(w http.ResponseWriter, r *http.Request) error {
	session, err := h.session(r)
	if err != nil {
		return err
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		h.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return nil
	}
	defer conn.Close()

	updates, cancel := session.Orchestrator.Subscribe()
	defer cancel()

	// Drain client frames so close messages are processed.
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-clientGone:
			return nil
		case status, ok := <-updates:
			if !ok {
				return nil
			}
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			if err := conn.WriteJSON(status); err != nil {
				h.logger.Debug("Websocket write failed",
					zap.String("session_id", session.ID),
					zap.Error(err))
				return nil
			}
			if status.Stage.Terminal() {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "deployment finished"),
					time.Now().Add(streamWriteTimeout))
				return nil
			}
		}
	}
}
