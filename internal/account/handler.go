package account

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"unicode"

	"github.com/ndudarev/filevault/internal/auth"
	"github.com/ndudarev/filevault/internal/httpx"
	"github.com/ndudarev/filevault/internal/models"
	"github.com/ndudarev/filevault/internal/store"
)

// UserStore defines the interface for user persistence.
type UserStore interface {
	FindUser(ctx context.Context, login string) (*models.User, error)
	InsertUser(ctx context.Context, login, digest string) error
}

// Handler holds the registration HTTP handlers.
type Handler struct {
	log      *slog.Logger
	users    UserStore
	resolver auth.Resolver
}

func NewHandler(log *slog.Logger, users UserStore, resolver auth.Resolver) *Handler {
	return &Handler{log: log, users: users, resolver: resolver}
}

// Register creates a new account from {"credentials":{login,password}}.
// The login must be free and the password must not contain whitespace.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	login := req.Credentials.Login
	password := req.Credentials.Password
	if login == "" || password == "" {
		httpx.Error(w, http.StatusBadRequest, "login and password are required")
		return
	}
	if strings.ContainsFunc(password, unicode.IsSpace) {
		httpx.Error(w, http.StatusBadRequest, "password must not contain whitespace")
		return
	}

	digest, err := h.resolver.Encode(password)
	if err != nil {
		h.log.Error("password encode failed", "err", err)
		httpx.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	err = h.users.InsertUser(r.Context(), login, digest)
	if errors.Is(err, store.ErrLoginTaken) {
		httpx.Error(w, http.StatusBadRequest, "login already taken")
		return
	}
	if err != nil {
		h.log.Error("user insert failed", "login", login, "err", err)
		httpx.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Write([]byte("Success"))
}

// Check succeeds purely by virtue of passing the credentials
// middleware; clients call it to verify stored credentials still work.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.FromContext(r.Context()); !ok {
		httpx.Error(w, http.StatusUnauthorized, "authorization required")
		return
	}
	w.Write([]byte("Success"))
}
