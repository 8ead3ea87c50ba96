package service

import (
	"context"

	"github.com/tarnblog/tarn/internal/platform/mail"
)

// ContactService forwards visitor messages to the site owner and sends
// recommend-the-site notes on behalf of logged-in users.
type ContactService struct {
	mailer     mail.Sender
	adminEmail string
}

func NewContactService(mailer mail.Sender, adminEmail string) *ContactService {
	return &ContactService{mailer: mailer, adminEmail: adminEmail}
}

func (s *ContactService) SendNote(ctx context.Context, fromEmail, subject, content string) error {
	return s.mailer.Send(ctx, mail.ContactNote(s.adminEmail, fromEmail, subject, content))
}

func (s *ContactService) Recommend(ctx context.Context, to, from, content string) error {
	return s.mailer.Send(ctx, mail.Recommendation(to, from, content))
}
