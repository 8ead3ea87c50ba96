package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/tarnblog/tarn/internal/common"
	"github.com/tarnblog/tarn/internal/common/security"
	"github.com/tarnblog/tarn/internal/common/validate"
	"github.com/tarnblog/tarn/internal/domain/model"
	"github.com/tarnblog/tarn/internal/domain/repository"
	"github.com/tarnblog/tarn/internal/platform/mail"
)

// Reset links expire one hour after the request was created.
const resetTTL = time.Hour

var (
	ErrInvalidLink = errors.New("reset link is not valid")
	ErrExpiredLink = errors.New("reset link has expired")
)

type ResetService struct {
	users   repository.UserRepository
	resets  repository.ResetRepository
	mailer  mail.Sender
	baseURL string
}

func NewResetService(users repository.UserRepository, resets repository.ResetRepository, mailer mail.Sender, baseURL string) *ResetService {
	return &ResetService{users: users, resets: resets, mailer: mailer, baseURL: baseURL}
}

// Request creates a reset request for the account behind email and
// mails the link. ErrNotFound means no such account.
func (s *ResetService) Request(ctx context.Context, email string) error {
	user, err := s.users.ByEmail(ctx, email)
	if err != nil {
		return err
	}

	tempPassword := security.NewTempPassword()
	req := &model.ResetRequest{
		Email:            email,
		TempPasswordHash: security.MakePasswordHash(email, tempPassword),
	}
	if err := s.resets.Create(ctx, req); err != nil {
		return err
	}

	link := fmt.Sprintf("%s/reset_pw/?token=%d-%s", s.baseURL, req.ID, tempPassword)
	if err := s.mailer.Send(ctx, mail.ForgotPassword(user.Email, user.Name, link)); err != nil {
		slog.Error("reset email failed", "email", user.Email, "error", err)
	}
	return nil
}

// Validate checks a reset token end to end and returns the account it
// belongs to. The token locates the request by id, but the temp
// password is always checked against the most recent request for that
// email, so an older link stops working once a newer one is issued.
func (s *ResetService) Validate(ctx context.Context, token string) (*model.User, *model.ResetRequest, error) {
	if !validate.ResetToken(token) {
		return nil, nil, ErrInvalidLink
	}
	idPart, tempPassword, _ := strings.Cut(token, "-")
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		return nil, nil, ErrInvalidLink
	}

	req, err := s.resets.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil, ErrInvalidLink
		}
		return nil, nil, err
	}
	if time.Since(req.Created) > resetTTL {
		return nil, nil, ErrExpiredLink
	}

	latest, err := s.resets.LatestByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil, ErrInvalidLink
		}
		return nil, nil, err
	}
	if latest.Consumed() || !security.CheckPassword(req.Email, tempPassword, latest.TempPasswordHash) {
		return nil, nil, ErrInvalidLink
	}

	user, err := s.users.ByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil, ErrInvalidLink
		}
		return nil, nil, err
	}
	return user, latest, nil
}

// Complete stores the new password and consumes the request so the
// link never validates again.
func (s *ResetService) Complete(ctx context.Context, user *model.User, req *model.ResetRequest, newPassword string) error {
	updated := *user
	updated.PasswordHash = security.MakePasswordHash(user.Email, newPassword)
	if err := s.users.Update(ctx, &updated); err != nil {
		return err
	}
	return s.resets.Consume(ctx, req.ID)
}
