// Package session carries the identity and anti-forgery workflow every
// handler builds on. There is no server-side session table: the signed
// user_id cookie is the session, and the signed state cookie plus the
// hidden form field are the anti-forgery pair.
package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/tarnblog/tarn/internal/common"
	"github.com/tarnblog/tarn/internal/common/security"
	"github.com/tarnblog/tarn/internal/domain/model"
	"github.com/tarnblog/tarn/internal/domain/repository"
)

const (
	UserCookie  = "user_id"
	StateCookie = "state"
)

type ctxKey int

const userKey ctxKey = 0

type Manager struct {
	signer *security.Signer
	users  repository.UserRepository
}

func NewManager(signer *security.Signer, users repository.UserRepository) *Manager {
	return &Manager{signer: signer, users: users}
}

// WithUser resolves the request identity before any handler logic
// runs. Every failure mode degrades to anonymous: a missing cookie, a
// bad signature, and a cookie pointing at a deleted user all leave the
// context without a user, never an error.
func (m *Manager) WithUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user := m.resolve(r); user != nil {
			r = r.WithContext(context.WithValue(r.Context(), userKey, user))
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Manager) resolve(r *http.Request) *model.User {
	cookie, err := r.Cookie(UserCookie)
	if err != nil {
		return nil
	}
	value, ok := m.signer.Unsign(cookie.Value)
	if !ok {
		return nil
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return nil
	}
	user, err := m.users.ByID(r.Context(), id)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			slog.Error("identity lookup failed", "user_id", id, "error", err)
		}
		return nil
	}
	return user
}

// CurrentUser returns the resolved identity, or nil for anonymous
// visitors.
func CurrentUser(ctx context.Context) *model.User {
	user, _ := ctx.Value(userKey).(*model.User)
	return user
}

// Login sets the signed identity cookie; the cookie is the whole
// session.
func (m *Manager) Login(w http.ResponseWriter, user *model.User) {
	m.setCookie(w, UserCookie, m.signer.Sign(strconv.FormatInt(user.ID, 10)))
}

// Logout clears the identity cookie. A still-held copy of the old
// cookie stays valid until the signing secret rotates.
func (m *Manager) Logout(w http.ResponseWriter) {
	m.clearCookie(w, UserCookie)
}

// IssueState generates a fresh anti-forgery token, stores it signed in
// the state cookie and returns it for the form's hidden field.
func (m *Manager) IssueState(w http.ResponseWriter) string {
	state := security.NewStateToken()
	m.setCookie(w, StateCookie, m.signer.Sign(state))
	return state
}

// CheckState compares the state cookie against the submitted form
// value. The cookie is cleared on entry, so a token is single-use by
// convention only: a page re-render issues a fresh token+cookie, and
// an un-cleared cookie would validate again. Callers must abort the
// mutation and redirect to the landing page when this returns false.
func (m *Manager) CheckState(w http.ResponseWriter, r *http.Request) bool {
	cookie, err := r.Cookie(StateCookie)
	m.clearCookie(w, StateCookie)
	if err != nil {
		slog.Warn("possible CSRF attack detected: state cookie missing", "path", r.URL.Path)
		return false
	}
	state, ok := m.signer.Unsign(cookie.Value)
	if !ok || state == "" || state != r.FormValue("state") {
		slog.Warn("possible CSRF attack detected: state mismatch", "path", r.URL.Path)
		return false
	}
	return true
}

func (m *Manager) setCookie(w http.ResponseWriter, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
	})
}

func (m *Manager) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}
