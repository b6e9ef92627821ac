package widget

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/advice-chat/internal/model/chat"
	"github.com/zhouzirui/advice-chat/internal/service/conversation"
	"github.com/zhouzirui/advice-chat/pkg/utils"
)

// Handler 浏览器聊天组件的HTTP处理器
type Handler struct {
	sessions *conversation.Registry
	upgrader websocket.Upgrader

	pingInterval time.Duration
	pongWait     time.Duration
	sseKeepAlive time.Duration
}

// New 创建组件处理器
func New(sessions *conversation.Registry) *Handler {
	return &Handler{
		sessions: sessions,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		pingInterval: 54 * time.Second,
		pongWait:     60 * time.Second,
		sseKeepAlive: 15 * time.Second,
	}
}

// RegisterRoutes 注册会话相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.handleCreateSession)

		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", h.handleGetSession)
			r.Delete("/", h.handleCloseSession)
			r.Put("/input", h.handleSetInput)
			r.Post("/messages", h.handleSubmit)
			r.Delete("/messages", h.handleClear)
			r.Get("/events", h.handleEvents)
			r.Get("/ws", h.handleWebSocket)
		})
	})
}

type textRequest struct {
	Text string `json:"text"`
}

type submitResponse struct {
	Accepted bool       `json:"accepted"`
	State    chat.State `json:"state"`
}

type sessionResponse struct {
	chat.Session
	State chat.State `json:"state"`
}

// handleCreateSession 创建会话
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.Create(r.Context())
	if err != nil {
		respondSessionError(w, err)
		return
	}

	ctrl, err := h.sessions.Get(r.Context(), session.ID)
	if err != nil {
		respondSessionError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusCreated, sessionResponse{Session: session, State: ctrl.Snapshot()})
}

// handleGetSession 返回会话当前状态
func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.sessions.Session(r.Context(), sessionID)
	if err != nil {
		respondSessionError(w, err)
		return
	}
	ctrl, err := h.sessions.Get(r.Context(), sessionID)
	if err != nil {
		respondSessionError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, sessionResponse{Session: session, State: ctrl.Snapshot()})
}

// handleCloseSession 关闭会话
func (h *Handler) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Close(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		respondSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSetInput 同步输入框内容
func (h *Handler) handleSetInput(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}

	var payload textRequest
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctrl.SetInput(payload.Text)
	utils.RespondJSON(w, http.StatusOK, ctrl.Snapshot())
}

// handleSubmit 发送一条用户消息
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}

	var payload textRequest
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	accepted := ctrl.Submit(payload.Text)
	status := http.StatusOK
	if accepted {
		status = http.StatusAccepted
	}
	utils.RespondJSON(w, status, submitResponse{Accepted: accepted, State: ctrl.Snapshot()})
}

// handleClear 清空对话
func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}

	ctrl.ClearConversation()
	utils.RespondJSON(w, http.StatusOK, ctrl.Snapshot())
}

func (h *Handler) controller(w http.ResponseWriter, r *http.Request) (*conversation.Controller, bool) {
	sessionID := strings.TrimSpace(chi.URLParam(r, "sessionID"))
	ctrl, err := h.sessions.Get(r.Context(), sessionID)
	if err != nil {
		respondSessionError(w, err)
		return nil, false
	}
	return ctrl, true
}

// attach binds a long-lived connection to the session so it is not swept
// while the connection is open.
func (h *Handler) attach(w http.ResponseWriter, r *http.Request) (*conversation.Controller, func(), bool) {
	sessionID := strings.TrimSpace(chi.URLParam(r, "sessionID"))
	ctrl, release, err := h.sessions.Attach(r.Context(), sessionID)
	if err != nil {
		respondSessionError(w, err)
		return nil, nil, false
	}
	return ctrl, release, true
}

func respondSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, conversation.ErrSessionNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, conversation.ErrTooManySessions):
		utils.RespondError(w, http.StatusServiceUnavailable, err.Error())
	default:
		log.Error().Err(err).Msg("session operation failed")
		utils.RespondError(w, http.StatusInternalServerError, "internal error")
	}
}
