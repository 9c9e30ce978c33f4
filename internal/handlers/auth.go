package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/nexcharge/apiserver/internal/logging"
	"github.com/nexcharge/apiserver/internal/services"
	"github.com/nexcharge/apiserver/internal/store"
	"github.com/nexcharge/apiserver/types"
)

const (
	msgNoToken      = "access denied, no token"
	msgInvalidToken = "invalid token"
)

// TokenVerifier validates a bearer token and returns its subject id.
type TokenVerifier interface {
	Verify(token string) (int, error)
}

// AccountService is the subset of services.AccountService used over HTTP.
type AccountService interface {
	Register(ctx context.Context, name, email, password string) (types.UserSummary, error)
	Login(ctx context.Context, email, password string) (services.LoginResult, error)
	Me(ctx context.Context, userID int) (types.UserSummary, error)
}

// AuthHandler provides registration, login and profile endpoints.
type AuthHandler struct {
	accounts AccountService
	log      logging.Logger
}

func NewAuthHandler(accounts AccountService, log logging.Logger) *AuthHandler {
	if log == nil {
		log = logging.Discard()
	}
	return &AuthHandler{accounts: accounts, log: log}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, accounts AccountService, authMiddleware func(http.Handler) http.Handler, log logging.Logger) {
	handler := NewAuthHandler(accounts, log)

	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
	r.With(authMiddleware).Get("/me", handler.Me)
}

// RequireAuth rejects requests without a valid bearer token. A missing
// header or a bare "Bearer" is 401; anything present but unusable is 400.
func RequireAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := strings.TrimSpace(r.Header.Get("Authorization"))
			if header == "" || strings.EqualFold(header, "Bearer") {
				writeError(w, http.StatusUnauthorized, msgNoToken)
				return
			}

			token, ok := bearerToken(header)
			if !ok {
				writeError(w, http.StatusBadRequest, msgInvalidToken)
				return
			}

			userID, err := verifier.Verify(token)
			if err != nil {
				writeError(w, http.StatusBadRequest, msgInvalidToken)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.accounts.Register(r.Context(), req.Name, req.Email, req.Password); err != nil {
		var verr *services.ValidationError
		switch {
		case errors.As(err, &verr):
			writeError(w, http.StatusBadRequest, verr.Message)
		case errors.Is(err, services.ErrEmailTaken):
			writeError(w, http.StatusBadRequest, services.ErrEmailTaken.Error())
		default:
			h.log.Error(r.Context(), "register failed", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to register user")
		}
		return
	}

	writeJSON(w, http.StatusCreated, MessageResponse{Message: "User registered successfully"})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			writeError(w, http.StatusBadRequest, services.ErrInvalidCredentials.Error())
			return
		}
		h.log.Error(r.Context(), "login failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to log in")
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// Me returns the current authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, msgNoToken)
		return
	}

	user, err := h.accounts.Me(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		h.log.Error(r.Context(), "load user failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
