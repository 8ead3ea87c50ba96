package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tarnblog/tarn/internal/common"
	"github.com/tarnblog/tarn/internal/common/security"
	"github.com/tarnblog/tarn/internal/domain/model"
	"github.com/tarnblog/tarn/internal/domain/repository"
	"github.com/tarnblog/tarn/internal/platform/mail"
)

var (
	ErrNameTaken  = fmt.Errorf("username taken: %w", common.ErrConflict)
	ErrEmailTaken = fmt.Errorf("email taken: %w", common.ErrConflict)
)

type AuthService struct {
	users  repository.UserRepository
	mailer mail.Sender
}

func NewAuthService(users repository.UserRepository, mailer mail.Sender) *AuthService {
	return &AuthService{users: users, mailer: mailer}
}

// CheckAvailability runs the advisory uniqueness lookups so the signup
// page can flag both fields at once. The schema constraints remain the
// real guarantee; Signup maps their violations back to the same
// errors.
func (s *AuthService) CheckAvailability(ctx context.Context, name, email string) (nameTaken, emailTaken bool, err error) {
	if _, err := s.users.ByName(ctx, name); err == nil {
		nameTaken = true
	} else if !errors.Is(err, common.ErrNotFound) {
		return false, false, err
	}
	if _, err := s.users.ByEmail(ctx, email); err == nil {
		emailTaken = true
	} else if !errors.Is(err, common.ErrNotFound) {
		return false, false, err
	}
	return nameTaken, emailTaken, nil
}

// Signup registers the account and attempts the welcome email. The
// password hash is keyed on the email so hashes are not portable
// across accounts.
func (s *AuthService) Signup(ctx context.Context, name, password, email string) (*model.User, error) {
	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: security.MakePasswordHash(email, password),
	}
	if err := s.users.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateName):
			return nil, ErrNameTaken
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	if err := s.mailer.Send(ctx, mail.Welcome(user.Email, user.Name)); err != nil {
		slog.Error("welcome email failed", "email", user.Email, "error", err)
	}
	return user, nil
}

// Login authenticates by email and password. Every failure is the
// same ErrUnauthorized; callers show one generic message.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.users.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, err
	}
	if !security.CheckPassword(email, password, user.PasswordHash) {
		return nil, common.ErrUnauthorized
	}
	return user, nil
}
