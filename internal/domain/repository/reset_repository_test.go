package repository

import (
	"context"
	"testing"
	"time"

	"github.com/tarnblog/tarn/internal/common"
	"github.com/tarnblog/tarn/internal/domain/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestResetCreate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPgResetRepository(db)

	mock.ExpectQuery(`INSERT INTO reset_requests`).
		WithArgs("eve@example.com", "s,h").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created"}).AddRow(int64(11), time.Now()))

	req := &model.ResetRequest{Email: "eve@example.com", TempPasswordHash: "s,h"}
	require.NoError(t, repo.Create(context.Background(), req))
	require.Equal(t, int64(11), req.ID)
}

func TestResetLatestByEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPgResetRepository(db)

	mock.ExpectQuery(`SELECT id, email, temp_password_hash, created FROM reset_requests WHERE email`).
		WithArgs("eve@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "temp_password_hash", "created"}).
			AddRow(int64(12), "eve@example.com", "s,h2", time.Now()))

	req, err := repo.LatestByEmail(context.Background(), "eve@example.com")
	require.NoError(t, err)
	require.Equal(t, int64(12), req.ID)
	require.False(t, req.Consumed())
}

func TestResetConsume(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPgResetRepository(db)

	mock.ExpectExec(`UPDATE reset_requests SET temp_password_hash`).
		WithArgs(model.ConsumedHashSentinel, int64(11)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Consume(context.Background(), 11))
}

func TestResetConsumeMissing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPgResetRepository(db)

	mock.ExpectExec(`UPDATE reset_requests SET temp_password_hash`).
		WithArgs(model.ConsumedHashSentinel, int64(404)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.ErrorIs(t, repo.Consume(context.Background(), 404), common.ErrNotFound)
}
