package handler_test

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/tarnblog/tarn/internal/api"
	"github.com/tarnblog/tarn/internal/app/service"
	"github.com/tarnblog/tarn/internal/common"
	"github.com/tarnblog/tarn/internal/common/security"
	"github.com/tarnblog/tarn/internal/domain/model"
	"github.com/tarnblog/tarn/internal/domain/repository"
	"github.com/tarnblog/tarn/internal/platform/mail"
	"github.com/tarnblog/tarn/internal/web/session"
	"github.com/tarnblog/tarn/internal/web/view"

	"github.com/stretchr/testify/require"
)

// In-memory repositories with the same contracts as the postgres
// implementations, enough to drive the handlers end to end.

type memArticleRepo struct {
	mu       sync.Mutex
	nextID   int64
	articles map[int64]model.Article
	deleted  []model.DeletedArticle
}

func newMemArticleRepo() *memArticleRepo {
	return &memArticleRepo{nextID: 1, articles: make(map[int64]model.Article)}
}

func (r *memArticleRepo) Create(ctx context.Context, article *model.Article) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	article.ID = r.nextID
	article.Created = time.Now().Add(time.Duration(r.nextID) * time.Millisecond)
	r.nextID++
	r.articles[article.ID] = *article
	return nil
}

func (r *memArticleRepo) ByID(ctx context.Context, id int64) (*model.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	article, ok := r.articles[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &article, nil
}

func (r *memArticleRepo) Recent(ctx context.Context, limit int) ([]model.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := make([]model.Article, 0, len(r.articles))
	for _, a := range r.articles {
		list = append(list, a)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Created.After(list[j].Created) })
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (r *memArticleRepo) Update(ctx context.Context, article *model.Article) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.articles[article.ID]; !ok {
		return common.ErrNotFound
	}
	r.articles[article.ID] = *article
	return nil
}

func (r *memArticleRepo) Delete(ctx context.Context, article *model.Article) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.articles[article.ID]; !ok {
		return common.ErrNotFound
	}
	r.deleted = append(r.deleted, model.DeletedArticle{
		Title: article.Title, Body: article.Body, Author: article.Author,
	})
	delete(r.articles, article.ID)
	return nil
}

type memUserRepo struct {
	mu       sync.Mutex
	nextID   int64
	users    map[int64]model.User
	articles *memArticleRepo
	deleted  []model.DeletedUser
}

func newMemUserRepo(articles *memArticleRepo) *memUserRepo {
	return &memUserRepo{nextID: 1, users: make(map[int64]model.User), articles: articles}
}

func (r *memUserRepo) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Name == user.Name {
			return repository.ErrDuplicateName
		}
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	user.ID = r.nextID
	user.Created = time.Now()
	r.nextID++
	r.users[user.ID] = *user
	return nil
}

func (r *memUserRepo) ByID(ctx context.Context, id int64) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &user, nil
}

func (r *memUserRepo) ByName(ctx context.Context, name string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Name == name {
			u := u
			return &u, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *memUserRepo) ByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *memUserRepo) Update(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return common.ErrNotFound
	}
	for id, u := range r.users {
		if id == user.ID {
			continue
		}
		if u.Name == user.Name {
			return repository.ErrDuplicateName
		}
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	r.users[user.ID] = *user
	return nil
}

func (r *memUserRepo) DeleteAccount(ctx context.Context, user *model.User) ([]int64, error) {
	r.mu.Lock()
	if _, ok := r.users[user.ID]; !ok {
		r.mu.Unlock()
		return nil, common.ErrNotFound
	}
	r.deleted = append(r.deleted, model.DeletedUser{
		UserID: user.ID, Name: user.Name, Email: user.Email,
	})
	delete(r.users, user.ID)
	r.mu.Unlock()

	var ids []int64
	r.articles.mu.Lock()
	for id, a := range r.articles.articles {
		if a.Author == user.ID {
			r.articles.deleted = append(r.articles.deleted, model.DeletedArticle{
				Title: a.Title, Body: a.Body, Author: a.Author,
			})
			delete(r.articles.articles, id)
			ids = append(ids, id)
		}
	}
	r.articles.mu.Unlock()
	return ids, nil
}

type memResetRepo struct {
	mu       sync.Mutex
	nextID   int64
	requests map[int64]*model.ResetRequest
}

func newMemResetRepo() *memResetRepo {
	return &memResetRepo{nextID: 1, requests: make(map[int64]*model.ResetRequest)}
}

func (r *memResetRepo) Create(ctx context.Context, req *model.ResetRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req.ID = r.nextID
	req.Created = time.Now().Add(time.Duration(r.nextID) * time.Millisecond)
	r.nextID++
	stored := *req
	r.requests[req.ID] = &stored
	return nil
}

func (r *memResetRepo) ByID(ctx context.Context, id int64) (*model.ResetRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	copied := *req
	return &copied, nil
}

func (r *memResetRepo) LatestByEmail(ctx context.Context, email string) (*model.ResetRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *model.ResetRequest
	for _, req := range r.requests {
		if req.Email != email {
			continue
		}
		if latest == nil || req.Created.After(latest.Created) {
			latest = req
		}
	}
	if latest == nil {
		return nil, common.ErrNotFound
	}
	copied := *latest
	return &copied, nil
}

func (r *memResetRepo) Consume(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return common.ErrNotFound
	}
	req.TempPasswordHash = model.ConsumedHashSentinel
	return nil
}

// backdate rewinds a stored request's creation time, for expiry tests.
func (r *memResetRepo) backdate(id int64, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if req, ok := r.requests[id]; ok {
		req.Created = req.Created.Add(-d)
	}
}

type testApp struct {
	t        *testing.T
	server   *httptest.Server
	client   *http.Client
	mailer   *mail.Recorder
	users    *memUserRepo
	articles *memArticleRepo
	resets   *memResetRepo
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	views, err := view.NewRenderer()
	require.NoError(t, err)

	articles := newMemArticleRepo()
	users := newMemUserRepo(articles)
	resets := newMemResetRepo()
	mailer := mail.NewRecorder()
	sessions := session.NewManager(security.NewSigner("test-secret"), users)

	router := api.NewRouter(api.RouterDeps{
		Users:            users,
		Auth:             service.NewAuthService(users, mailer),
		Articles:         service.NewArticleService(articles),
		Accounts:         service.NewAccountService(users, mailer),
		Resets:           service.NewResetService(users, resets, mailer, "http://blog.test"),
		Contact:          service.NewContactService(mailer, "admin@blog.test"),
		Sessions:         sessions,
		Views:            views,
		HomeArticleLimit: 100,
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testApp{
		t:        t,
		server:   server,
		client:   &http.Client{Jar: jar},
		mailer:   mailer,
		users:    users,
		articles: articles,
		resets:   resets,
	}
}

func (a *testApp) get(path string) string {
	a.t.Helper()
	resp, err := a.client.Get(a.server.URL + path)
	require.NoError(a.t, err)
	defer resp.Body.Close()
	return readBody(a.t, resp)
}

func (a *testApp) postForm(path string, form url.Values) string {
	a.t.Helper()
	resp, err := a.client.PostForm(a.server.URL+path, form)
	require.NoError(a.t, err)
	defer resp.Body.Close()
	return readBody(a.t, resp)
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(raw)
}

var stateRE = regexp.MustCompile(`name="state" value="([A-Z0-9]{32})"`)

// stateFor fetches a form page and pulls the hidden anti-forgery token
// out of it; the matching cookie lands in the client's jar.
func (a *testApp) stateFor(path string) string {
	a.t.Helper()
	body := a.get(path)
	match := stateRE.FindStringSubmatch(body)
	require.NotNil(a.t, match, "no state token on %s", path)
	return match[1]
}

// signup drives the real signup flow and leaves the client logged in.
func (a *testApp) signup(name, email, password string) {
	a.t.Helper()
	state := a.stateFor("/signup")
	body := a.postForm("/signup", url.Values{
		"state":           {state},
		"username":        {name},
		"password":        {password},
		"verify_password": {password},
		"email":           {email},
		"verify_email":    {email},
	})
	require.Contains(a.t, body, "Welcome, "+name)
}

func (a *testApp) logout() {
	a.t.Helper()
	a.get("/logout")
}
