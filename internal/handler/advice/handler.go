package advice

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	model "github.com/zhouzirui/advice-chat/internal/model/advice"
	"github.com/zhouzirui/advice-chat/internal/service/ai"
	"github.com/zhouzirui/advice-chat/pkg/utils"
)

// Handler 旅行建议接口的HTTP处理器
type Handler struct {
	advisor ai.Advisor
	timeout time.Duration
}

// New 创建建议处理器。timeout <= 0 表示不额外限制。
func New(advisor ai.Advisor, timeout time.Duration) *Handler {
	return &Handler{advisor: advisor, timeout: timeout}
}

// RegisterRoutes 注册建议相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/get_advice", h.handleGetAdvice)
}

// handleGetAdvice 返回一条旅行建议
func (h *Handler) handleGetAdvice(w http.ResponseWriter, r *http.Request) {
	var payload model.Request
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	message := strings.TrimSpace(payload.Message)
	if message == "" {
		utils.RespondError(w, http.StatusBadRequest, "message is required")
		return
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	advice, err := h.advisor.Advise(ctx, message)
	if err != nil {
		log.Error().Err(err).
			Str("request_id", chimw.GetReqID(r.Context())).
			Msg("advisor failed")
		status := http.StatusBadGateway
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		utils.RespondError(w, status, "could not get advice right now")
		return
	}

	utils.RespondJSON(w, http.StatusOK, model.Response{Advice: &advice})
}
