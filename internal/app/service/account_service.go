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

// ErrWrongPassword flags a failed current-password confirmation on the
// settings pages.
var ErrWrongPassword = fmt.Errorf("current password incorrect: %w", common.ErrUnauthorized)

type AccountService struct {
	users  repository.UserRepository
	mailer mail.Sender
}

func NewAccountService(users repository.UserRepository, mailer mail.Sender) *AccountService {
	return &AccountService{users: users, mailer: mailer}
}

func (s *AccountService) ChangePassword(ctx context.Context, user *model.User, current, newPassword string) (*model.User, error) {
	if !security.CheckPassword(user.Email, current, user.PasswordHash) {
		return nil, ErrWrongPassword
	}
	updated := *user
	updated.PasswordHash = security.MakePasswordHash(user.Email, newPassword)
	if err := s.users.Update(ctx, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// ChangeEmail rehashes the password under the new address, since the
// hash is keyed on the email identity, and notifies the new address.
func (s *AccountService) ChangeEmail(ctx context.Context, user *model.User, current, newEmail string) (*model.User, error) {
	if !security.CheckPassword(user.Email, current, user.PasswordHash) {
		return nil, ErrWrongPassword
	}
	if _, err := s.users.ByEmail(ctx, newEmail); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	updated := *user
	updated.Email = newEmail
	updated.PasswordHash = security.MakePasswordHash(newEmail, current)
	if err := s.users.Update(ctx, &updated); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	if err := s.mailer.Send(ctx, mail.EmailChanged(updated.Email, updated.Name)); err != nil {
		slog.Error("email-changed notification failed", "email", updated.Email, "error", err)
	}
	return &updated, nil
}

func (s *AccountService) ChangeUsername(ctx context.Context, user *model.User, newName string) (*model.User, error) {
	if _, err := s.users.ByName(ctx, newName); err == nil {
		return nil, ErrNameTaken
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	updated := *user
	updated.Name = newName
	if err := s.users.Update(ctx, &updated); err != nil {
		if errors.Is(err, repository.ErrDuplicateName) {
			return nil, ErrNameTaken
		}
		return nil, err
	}
	return &updated, nil
}

// DeleteAccount verifies the password, then removes the account and
// every article it authored in one transaction, leaving tombstones
// for all of them. The goodbye email goes out after the deletion has
// committed.
func (s *AccountService) DeleteAccount(ctx context.Context, user *model.User, password string) error {
	if !security.CheckPassword(user.Email, password, user.PasswordHash) {
		return ErrWrongPassword
	}
	articleIDs, err := s.users.DeleteAccount(ctx, user)
	if err != nil {
		return err
	}
	slog.Info("account deleted", "user", user.ID, "articles", len(articleIDs))

	if err := s.mailer.Send(ctx, mail.AccountDeleted(user.Email)); err != nil {
		slog.Error("account-deleted notification failed", "email", user.Email, "error", err)
	}
	return nil
}
