package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/tarnblog/tarn/internal/common"
	"github.com/tarnblog/tarn/internal/common/security"
	"github.com/tarnblog/tarn/internal/domain/model"

	"github.com/stretchr/testify/require"
)

type fakeUserRepo struct {
	users map[int64]*model.User
}

func (f *fakeUserRepo) Create(ctx context.Context, user *model.User) error { return nil }

func (f *fakeUserRepo) ByID(ctx context.Context, id int64) (*model.User, error) {
	if user, ok := f.users[id]; ok {
		return user, nil
	}
	return nil, common.ErrNotFound
}

func (f *fakeUserRepo) ByName(ctx context.Context, name string) (*model.User, error) {
	return nil, common.ErrNotFound
}

func (f *fakeUserRepo) ByEmail(ctx context.Context, email string) (*model.User, error) {
	return nil, common.ErrNotFound
}

func (f *fakeUserRepo) Update(ctx context.Context, user *model.User) error { return nil }

func (f *fakeUserRepo) DeleteAccount(ctx context.Context, user *model.User) ([]int64, error) {
	return nil, nil
}

func newTestManager() (*Manager, *fakeUserRepo) {
	repo := &fakeUserRepo{users: map[int64]*model.User{
		1: {ID: 1, Name: "alice", Email: "alice@example.com"},
	}}
	return NewManager(security.NewSigner("test-secret"), repo), repo
}

func resolvedUser(m *Manager, r *http.Request) *model.User {
	var got *model.User
	handler := m.WithUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = CurrentUser(r.Context())
	}))
	handler.ServeHTTP(httptest.NewRecorder(), r)
	return got
}

func TestWithUserValidCookie(t *testing.T) {
	m, _ := newTestManager()

	w := httptest.NewRecorder()
	m.Login(w, &model.User{ID: 1})
	cookie := w.Result().Cookies()[0]
	require.Equal(t, UserCookie, cookie.Name)
	require.True(t, cookie.HttpOnly)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(cookie)
	user := resolvedUser(m, r)
	require.NotNil(t, user)
	require.Equal(t, "alice", user.Name)
}

func TestWithUserNoCookie(t *testing.T) {
	m, _ := newTestManager()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	require.Nil(t, resolvedUser(m, r))
}

func TestWithUserTamperedCookie(t *testing.T) {
	m, _ := newTestManager()

	w := httptest.NewRecorder()
	m.Login(w, &model.User{ID: 1})
	cookie := w.Result().Cookies()[0]
	cookie.Value = strings.Replace(cookie.Value, "1|", "2|", 1)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(cookie)
	require.Nil(t, resolvedUser(m, r))
}

func TestWithUserDeletedUser(t *testing.T) {
	m, repo := newTestManager()

	w := httptest.NewRecorder()
	m.Login(w, &model.User{ID: 1})
	cookie := w.Result().Cookies()[0]
	delete(repo.users, 1)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(cookie)
	require.Nil(t, resolvedUser(m, r))
}

func TestLogoutClearsCookie(t *testing.T) {
	m, _ := newTestManager()
	w := httptest.NewRecorder()
	m.Logout(w)
	cookie := w.Result().Cookies()[0]
	require.Equal(t, UserCookie, cookie.Name)
	require.Equal(t, -1, cookie.MaxAge)
}

func formRequest(path string, form url.Values, cookies ...*http.Cookie) *http.Request {
	r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		r.AddCookie(c)
	}
	return r
}

func TestCheckStateMatch(t *testing.T) {
	m, _ := newTestManager()

	w := httptest.NewRecorder()
	state := m.IssueState(w)
	require.Len(t, state, 32)
	cookie := w.Result().Cookies()[0]
	require.Equal(t, StateCookie, cookie.Name)

	r := formRequest("/new_article", url.Values{"state": {state}}, cookie)
	w2 := httptest.NewRecorder()
	require.True(t, m.CheckState(w2, r))

	// The state cookie is cleared regardless of the outcome.
	cleared := w2.Result().Cookies()
	require.Len(t, cleared, 1)
	require.Equal(t, -1, cleared[0].MaxAge)
}

func TestCheckStateMismatch(t *testing.T) {
	m, _ := newTestManager()

	w := httptest.NewRecorder()
	m.IssueState(w)
	cookie := w.Result().Cookies()[0]

	r := formRequest("/new_article", url.Values{"state": {"WRONGSTATE"}}, cookie)
	require.False(t, m.CheckState(httptest.NewRecorder(), r))
}

func TestCheckStateMissingCookie(t *testing.T) {
	m, _ := newTestManager()
	r := formRequest("/new_article", url.Values{"state": {"ANYTHING"}})
	require.False(t, m.CheckState(httptest.NewRecorder(), r))
}

func TestCheckStateForeignSignature(t *testing.T) {
	m, _ := newTestManager()
	other := NewManager(security.NewSigner("other-secret"), &fakeUserRepo{})

	w := httptest.NewRecorder()
	state := other.IssueState(w)
	cookie := w.Result().Cookies()[0]

	r := formRequest("/new_article", url.Values{"state": {state}}, cookie)
	require.False(t, m.CheckState(httptest.NewRecorder(), r))
}
