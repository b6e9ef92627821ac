package account

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	model "github.com/zhouzirui/advice-chat/internal/model/auth"
	"github.com/zhouzirui/advice-chat/internal/service/account"
	"github.com/zhouzirui/advice-chat/pkg/utils"
)

// Handler serves /login and /register for the chat clients.
type Handler struct {
	accounts *account.Service
}

func New(accounts *account.Service) *Handler {
	return &Handler{accounts: accounts}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var creds model.Credentials
	if err := utils.DecodeJSON(r, &creds); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.accounts.Register(r.Context(), creds.Username, creds.Password)
	switch {
	case err == nil:
		utils.RespondJSON(w, http.StatusCreated, map[string]string{"message": "User registered successfully"})
	case errors.Is(err, account.ErrUserExists):
		utils.RespondError(w, http.StatusConflict, "User already exists")
	case errors.Is(err, account.ErrInvalidUsername), errors.Is(err, account.ErrWeakPassword):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	default:
		log.Error().Err(err).Msg("register failed")
		utils.RespondError(w, http.StatusInternalServerError, "Something went wrong")
	}
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds model.Credentials
	if err := utils.DecodeJSON(r, &creds); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := h.accounts.Login(r.Context(), creds.Username, creds.Password)
	switch {
	case err == nil:
		utils.RespondJSON(w, http.StatusOK, model.LoginResponse{AccessToken: token})
	case errors.Is(err, account.ErrInvalidCredentials):
		utils.RespondError(w, http.StatusUnauthorized, "Invalid credentials")
	default:
		log.Error().Err(err).Msg("login failed")
		utils.RespondError(w, http.StatusInternalServerError, "Something went wrong")
	}
}
