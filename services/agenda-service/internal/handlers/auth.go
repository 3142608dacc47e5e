package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/ApexDigital-Tech/Coonecta-consultores/libs/httpx"
	"github.com/ApexDigital-Tech/Coonecta-consultores/services/agenda-service/internal/session"
)

// AuthHandler exposes the fallback admin login used when the deployment
// runs without the hosted identity provider.
type AuthHandler struct {
	sessions *session.Service
	logger   *slog.Logger
}

func NewAuthHandler(sessions *session.Service, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{sessions: sessions, logger: logger}
}

func (h *AuthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/auth/login", h.login)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := h.sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, session.ErrInvalidCredentials) {
			httpx.WriteError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		h.logger.Error("login failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "login failed")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"token": token})
}
