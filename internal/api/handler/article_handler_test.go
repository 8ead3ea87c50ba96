package handler_test

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewArticleRequiresLogin(t *testing.T) {
	app := newTestApp(t)

	body := app.get("/new_article")
	require.Contains(t, body, "Please log in to use this page.")

	body = app.postForm("/new_article", url.Values{
		"title": {"Title"}, "body": {"Body"},
	})
	require.Contains(t, body, "Please log in to use this page.")
	require.Empty(t, app.articles.articles)
}

func TestNewArticleForgedStateRedirectsHome(t *testing.T) {
	app := newTestApp(t)
	app.signup("alice", "alice@example.com", "Abcdef12")

	// Prime the state cookie, then submit a different token.
	app.stateFor("/new_article")
	body := app.postForm("/new_article", url.Values{
		"state": {"FORGEDFORGEDFORGEDFORGEDFORGEDFO"},
		"title": {"Title"},
		"body":  {"Body"},
	})

	require.Contains(t, body, "Latest articles")
	require.Empty(t, app.articles.articles)
}

func TestNewArticlePublishes(t *testing.T) {
	app := newTestApp(t)
	app.signup("alice", "alice@example.com", "Abcdef12")

	state := app.stateFor("/new_article")
	body := app.postForm("/new_article", url.Values{
		"state": {state},
		"title": {"First post"},
		"body":  {"Hello\nworld"},
	})

	require.Contains(t, body, "First post")
	require.Contains(t, body, "by alice")
	require.Contains(t, body, "Hello<br>world")
	require.Contains(t, body, "/edit_article/?article=1")
	require.Len(t, app.articles.articles, 1)
}

func TestNewArticleValidation(t *testing.T) {
	app := newTestApp(t)
	app.signup("alice", "alice@example.com", "Abcdef12")

	state := app.stateFor("/new_article")
	body := app.postForm("/new_article", url.Values{
		"state": {state},
		"title": {""},
		"body":  {"Body"},
	})

	require.Contains(t, body, "The title must be 1 to 78 characters")
	// The body value is echoed for another attempt.
	require.Contains(t, body, ">Body</textarea>")
	require.Empty(t, app.articles.articles)
}

func TestEditArticleOnlyAuthor(t *testing.T) {
	app := newTestApp(t)
	app.signup("alice", "alice@example.com", "Abcdef12")
	state := app.stateFor("/new_article")
	app.postForm("/new_article", url.Values{
		"state": {state}, "title": {"First post"}, "body": {"Body"},
	})
	app.logout()

	app.signup("bob", "bob@example.com", "Abcdef12")
	body := app.get("/edit_article/?article=1")
	require.Contains(t, body, "Only the author of an article can change it.")

	state = app.stateFor("/new_article")
	body = app.postForm("/edit_article/", url.Values{
		"state":        {state},
		"edit_article": {"1"},
		"title":        {"Hijacked"},
		"body":         {"Body"},
	})
	require.Contains(t, body, "Only the author of an article can change it.")
	require.Equal(t, "First post", app.articles.articles[1].Title)
}

func TestEditArticleUpdates(t *testing.T) {
	app := newTestApp(t)
	app.signup("alice", "alice@example.com", "Abcdef12")
	state := app.stateFor("/new_article")
	app.postForm("/new_article", url.Values{
		"state": {state}, "title": {"First post"}, "body": {"Body"},
	})

	body := app.get("/edit_article/?article=1")
	require.Contains(t, body, `value="First post"`)
	state = app.stateFor("/edit_article/?article=1")
	body = app.postForm("/edit_article/", url.Values{
		"state":        {state},
		"edit_article": {"1"},
		"title":        {"Revised"},
		"body":         {"New body"},
	})

	require.Contains(t, body, "Revised")
	require.Equal(t, "Revised", app.articles.articles[1].Title)
	require.Equal(t, "New body", app.articles.articles[1].Body)
}

func TestDeleteArticleLeavesTombstone(t *testing.T) {
	app := newTestApp(t)
	app.signup("alice", "alice@example.com", "Abcdef12")
	state := app.stateFor("/new_article")
	app.postForm("/new_article", url.Values{
		"state": {state}, "title": {"First post"}, "body": {"Body"},
	})

	state = app.stateFor("/edit_article/?article=1")
	body := app.postForm("/edit_article/", url.Values{
		"state":          {state},
		"delete_article": {"1"},
	})

	require.Contains(t, body, "The article was deleted.")
	require.Empty(t, app.articles.articles)
	require.Len(t, app.articles.deleted, 1)
	require.Equal(t, "First post", app.articles.deleted[0].Title)

	body = app.get("/")
	require.Contains(t, body, "No articles yet.")
}

func TestEditMissingArticle(t *testing.T) {
	app := newTestApp(t)
	app.signup("alice", "alice@example.com", "Abcdef12")

	body := app.get("/edit_article/?article=99")
	require.Contains(t, body, "That article does not exist.")

	body = app.get("/edit_article/?article=junk")
	require.Contains(t, body, "That article does not exist.")
}
