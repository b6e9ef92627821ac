package widget

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/advice-chat/internal/model/chat"
	"github.com/zhouzirui/advice-chat/internal/service/conversation"
)

const writeWait = 10 * time.Second

type inboundMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

func sessionIDFrom(r *http.Request) string {
	return chi.URLParam(r, "sessionID")
}

// handleWebSocket binds one browser connection to a session. The reader
// applies inbound actions; a single writer pushes state, errors and pings.
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ctrl, release, ok := h.attach(w, r)
	if !ok {
		return
	}
	defer release()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	logger := log.With().Str("session_id", sessionIDFrom(r)).Logger()
	logger.Info().Msg("websocket connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	updates, unsubscribe := ctrl.Subscribe()
	defer unsubscribe()

	outbound := make(chan outgoingMessage, 8)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		defer conn.Close()
		h.writeLoop(ctx, conn, updates, outbound, logger)
	}()

	h.readLoop(ctx, conn, ctrl, outbound, logger)
	cancel()
	<-writerDone
	logger.Info().Msg("websocket disconnected")
}

func (h *Handler) readLoop(ctx context.Context, conn *websocket.Conn, ctrl *conversation.Controller, outbound chan<- outgoingMessage, logger zerolog.Logger) {
	_ = conn.SetReadDeadline(time.Now().Add(h.pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.pongWait))
	})

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn().Err(err).Msg("websocket read error")
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(h.pongWait))

		switch msg.Type {
		case "input":
			ctrl.SetInput(msg.Text)
		case "submit":
			ctrl.Submit(msg.Text)
		case "clear":
			ctrl.ClearConversation()
		default:
			select {
			case outbound <- outgoingMessage{Type: "error", Data: "unsupported message type: " + msg.Type}:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (h *Handler) writeLoop(ctx context.Context, conn *websocket.Conn, updates <-chan chat.State, outbound <-chan outgoingMessage, logger zerolog.Logger) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	write := func(msg outgoingMessage) bool {
		msg.Timestamp = time.Now().UnixMilli()
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(msg); err != nil {
			logger.Debug().Err(err).Msg("websocket write failed")
			return false
		}
		return true
	}

	for {
		select {
		case <-ctx.Done():
			return
		case state, ok := <-updates:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"),
					time.Now().Add(writeWait))
				return
			}
			if !write(outgoingMessage{Type: "state", Data: state}) {
				return
			}
		case msg := <-outbound:
			if !write(msg) {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
