// Package mail delivers the transactional emails. Delivery is best
// effort: an invalid destination address is logged and skipped, never
// returned as an error, because no handler treats a failed email as a
// failed request.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"sync"

	"github.com/tarnblog/tarn/internal/common/validate"

	"github.com/google/uuid"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender delivers through a plain SMTP relay.
type SMTPSender struct {
	host string
	port string
	from string
}

func NewSMTPSender(host, port, from string) *SMTPSender {
	return &SMTPSender{host: host, port: port, from: from}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if !validate.Email(msg.To) {
		slog.Warn("invalid email address was given, skipping delivery", "to", msg.To)
		return nil
	}

	domain := s.from
	if at := strings.LastIndex(s.from, "@"); at >= 0 {
		domain = strings.TrimRight(s.from[at+1:], ">")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	fmt.Fprintf(&b, "Message-ID: <%s@%s>\r\n", uuid.NewString(), domain)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(msg.Body)

	addr := s.host + ":" + s.port
	if err := smtp.SendMail(addr, nil, envelopeFrom(s.from), []string{msg.To}, []byte(b.String())); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	return nil
}

// envelopeFrom strips a display name like `Blog <blog@example.com>`
// down to the bare address.
func envelopeFrom(from string) string {
	if open := strings.LastIndex(from, "<"); open >= 0 {
		if close := strings.LastIndex(from, ">"); close > open {
			return from[open+1 : close]
		}
	}
	return from
}

// Recorder is a Sender for tests and mail-disabled setups; it keeps
// every accepted message in memory.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Send(ctx context.Context, msg Message) error {
	if !validate.Email(msg.To) {
		slog.Warn("invalid email address was given, skipping delivery", "to", msg.To)
		return nil
	}
	r.mu.Lock()
	r.messages = append(r.messages, msg)
	r.mu.Unlock()
	return nil
}

func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}
