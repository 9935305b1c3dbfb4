package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/conorfennell/studydeck/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

const tokenCookie = "studydeck_token"

var errUnauthenticated = errors.New("unauthenticated")

// Authenticator resolves the identity-provider subject of a request from an
// HS256 bearer token or the token cookie.
type Authenticator struct {
	secret  []byte
	devUser string
}

func NewAuthenticator(secret, devUser string) *Authenticator {
	return &Authenticator{secret: []byte(secret), devUser: devUser}
}

func (a *Authenticator) Subject(r *http.Request) (string, error) {
	if a.devUser != "" {
		return a.devUser, nil
	}
	if len(a.secret) == 0 {
		return "", errUnauthenticated
	}

	raw := ""
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		raw = strings.TrimPrefix(h, "Bearer ")
	} else if c, err := r.Cookie(tokenCookie); err == nil {
		raw = c.Value
	}
	if raw == "" {
		return "", errUnauthenticated
	}

	token, err := jwt.Parse(raw, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("%w: %v", errUnauthenticated, err)
	}
	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("%w: token has no subject", errUnauthenticated)
	}
	return sub, nil
}

type userKey struct{}

func withUser(ctx context.Context, u *domain.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// currentUser returns the user stored by requireUser.
func currentUser(r *http.Request) *domain.User {
	u, _ := r.Context().Value(userKey{}).(*domain.User)
	return u
}

// requireUser authenticates the request and syncs the app user for its subject.
func (s *Server) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, err := s.auth.Subject(r)
		if err != nil {
			s.log.Debug("rejected request", "path", r.URL.Path, "error", err)
			s.fail(w, r, errUnauthenticated)
			return
		}
		user, err := s.db.SyncUser(r.Context(), sub)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		next(w, r.WithContext(withUser(r.Context(), user)))
	}
}
