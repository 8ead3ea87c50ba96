package mail

import (
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed templates/*.txt
var templateFS embed.FS

var bodies = template.Must(template.ParseFS(templateFS, "templates/*.txt"))

func render(name string, vars any) string {
	var b strings.Builder
	if err := bodies.ExecuteTemplate(&b, name, vars); err != nil {
		// The template set is embedded and parsed at init; execution
		// only fails on a template bug.
		panic(fmt.Sprintf("mail: rendering %s: %v", name, err))
	}
	return b.String()
}

func Welcome(to, username string) Message {
	return Message{
		To:      to,
		Subject: "Welcome to the blog",
		Body:    render("welcome.txt", map[string]string{"Username": username, "Email": to}),
	}
}

func ForgotPassword(to, username, link string) Message {
	return Message{
		To:      to,
		Subject: "Password reset requested",
		Body:    render("forgot_password.txt", map[string]string{"Username": username, "Link": link}),
	}
}

func EmailChanged(to, username string) Message {
	return Message{
		To:      to,
		Subject: "Your email address was changed",
		Body:    render("email_changed.txt", map[string]string{"Username": username, "Email": to}),
	}
}

func AccountDeleted(to string) Message {
	return Message{
		To:      to,
		Subject: "Your account was deleted",
		Body:    render("account_deleted.txt", nil),
	}
}

func Recommendation(to, from, content string) Message {
	return Message{
		To:      to,
		Subject: "A reading recommendation",
		Body:    render("recommend.txt", map[string]string{"From": from, "Content": content}),
	}
}

func ContactNote(adminTo, fromEmail, subject, content string) Message {
	return Message{
		To:      adminTo,
		Subject: subject,
		Body:    render("contact.txt", map[string]string{"From": fromEmail, "Content": content}),
	}
}
