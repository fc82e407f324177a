package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ndudarev/filevault/internal/auth"
	"github.com/ndudarev/filevault/internal/httpx"
	"github.com/ndudarev/filevault/internal/models"
	"github.com/ndudarev/filevault/internal/store"
)

// UserStore is the subset of the user store the verifier needs.
type UserStore interface {
	FindUser(ctx context.Context, login string) (*models.User, error)
}

// CredentialCache is the optional login→digest cache consulted before
// the user store. *auth.CredentialCache satisfies it.
type CredentialCache interface {
	Get(ctx context.Context, login string) (string, error)
	Put(ctx context.Context, login, digest string) error
}

// Verifier checks request credentials against the user store. Every
// protected request is verified from scratch; no session state is kept.
type Verifier struct {
	Log      *slog.Logger
	Users    UserStore
	Cache    CredentialCache // optional, nil disables caching
	Resolver auth.Resolver
}

// Credentials returns middleware that requires a valid authorization
// header for the listed HTTP methods. Requests with any other method
// pass through unauthenticated, without an authorization context.
//
// The header carries the raw credentials as whitespace-separated
// tokens: "Authorization: <login> <password>". Tokens past the second
// are ignored.
func (v *Verifier) Credentials(methods ...string) func(http.Handler) http.Handler {
	protected := make(map[string]bool, len(methods))
	for _, m := range methods {
		protected[m] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !protected[r.Method] {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			if header == "" {
				httpx.Error(w, http.StatusUnauthorized, "authorization required")
				return
			}

			parts := strings.Fields(header)
			if len(parts) < 2 {
				httpx.Error(w, http.StatusUnauthorized, "malformed authorization header")
				return
			}
			login, password := parts[0], parts[1]

			digest, err := v.lookupDigest(r.Context(), login)
			if errors.Is(err, store.ErrNotFound) {
				// Unknown logins get the same response as bad
				// passwords so the error does not reveal which
				// accounts exist.
				httpx.Error(w, http.StatusUnauthorized, "invalid credentials")
				return
			}
			if err != nil {
				v.Log.Error("credential lookup failed", "login", login, "err", err)
				httpx.Error(w, http.StatusInternalServerError, "internal server error")
				return
			}

			if !v.Resolver.Match(digest, password) {
				httpx.Error(w, http.StatusUnauthorized, "invalid credentials")
				return
			}

			ctx := auth.WithContext(r.Context(), &auth.Context{
				Login:        login,
				PasswordHash: digest,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// lookupDigest resolves a login to its stored digest, going through the
// credential cache when one is configured. Cache failures fall back to
// the store rather than failing the request.
func (v *Verifier) lookupDigest(ctx context.Context, login string) (string, error) {
	if v.Cache != nil {
		if digest, err := v.Cache.Get(ctx, login); err == nil && digest != "" {
			return digest, nil
		}
	}

	u, err := v.Users.FindUser(ctx, login)
	if err != nil {
		return "", err
	}

	if v.Cache != nil {
		if err := v.Cache.Put(ctx, login, u.Password); err != nil {
			v.Log.Warn("credential cache put failed", "login", login, "err", err)
		}
	}
	return u.Password, nil
}
