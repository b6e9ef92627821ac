package widget

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/advice-chat/pkg/utils"
)

// handleEvents streams state snapshots as Server-Sent Events until the
// client goes away or the session is closed.
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	ctrl, release, ok := h.attach(w, r)
	if !ok {
		return
	}
	defer release()

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	updates, unsubscribe := ctrl.Subscribe()
	defer unsubscribe()

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	logger := log.With().Str("session_id", sessionIDFrom(r)).Logger()
	logger.Debug().Msg("sse stream opened")
	defer logger.Debug().Msg("sse stream closed")

	ticker := time.NewTicker(h.sseKeepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case state, ok := <-updates:
			if !ok {
				_ = utils.SendSSEEvent(w, flusher, "closed", map[string]string{"reason": "session closed"})
				return
			}
			if err := utils.SendSSEEvent(w, flusher, "state", state); err != nil {
				return
			}
		case <-ticker.C:
			if err := utils.SendSSEComment(w, flusher, "keepalive"); err != nil {
				return
			}
		}
	}
}
