// Package handler contains the per-endpoint glue. Every mutating
// endpoint reproduces the same sequence: resolve identity, gate on
// login, verify the anti-forgery state, validate fields (re-rendering
// the form with error flags and echoed values on failure, passwords
// excepted), mutate the store, and respond. Cache maintenance lives
// inside the repositories, so handlers never touch it directly.
package handler

import (
	"net/http"

	"github.com/tarnblog/tarn/internal/web/view"
)

// Visitor-facing messages rendered on the shared message page.
const (
	msgPleaseLogIn   = "Please log in to use this page."
	msgPleaseLogOut  = "You are already logged in. Please log out first."
	msgNotAuthorized = "Only the author of an article can change it."
	msgArticleGone   = "The article was deleted."
	msgNoSuchArticle = "That article does not exist."
	msgResetInvalid  = "This password reset link is not valid. You can request a new one."
	msgResetExpired  = "This password reset link has expired. You can request a new one."
	msgResetUseLink  = "Please open the reset page through the link in the email we sent you."
	msgResetDone     = "Your password has been changed. You are now logged in."
)

func renderMessage(views *view.Renderer, w http.ResponseWriter, data view.Data, message string) {
	if data == nil {
		data = view.Data{}
	}
	data["message"] = message
	views.Render(w, "message.html", data)
}
