package identity

import (
	"encoding/json"
	"net/http"

	"parceltrack/internal/apperr"
	"parceltrack/internal/platform/web"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// HandleLogin exchanges credentials for a bearer token.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.Error(w, apperr.Invalid("invalid request body"))
		return
	}

	token, account, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		// Every authentication failure looks the same to the caller.
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	web.JSON(w, http.StatusOK, map[string]any{
		"token":   token,
		"account": account,
	})
}

// HandleRegister provisions an account. Manager-only.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	principal, ok := FromContext(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}
	if !principal.IsManager() {
		web.Error(w, apperr.Forbidden("only managers can register accounts"))
		return
	}

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.Error(w, apperr.Invalid("invalid request body"))
		return
	}

	account, err := h.service.Register(r.Context(), req)
	if err != nil {
		web.Error(w, err)
		return
	}
	web.JSON(w, http.StatusCreated, account)
}
