package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tarnblog/tarn/internal/common"
	"github.com/tarnblog/tarn/internal/domain/model"
)

// ResetRepository stores password-reset requests. Requests are never
// deleted; consumption overwrites the hash with a sentinel.
type ResetRepository interface {
	Create(ctx context.Context, req *model.ResetRequest) error
	ByID(ctx context.Context, id int64) (*model.ResetRequest, error)
	// LatestByEmail returns the most recent request for the email.
	LatestByEmail(ctx context.Context, email string) (*model.ResetRequest, error)
	// Consume marks the request as used.
	Consume(ctx context.Context, id int64) error
}

type pgResetRepository struct {
	db *sql.DB
}

func NewPgResetRepository(db *sql.DB) ResetRepository {
	return &pgResetRepository{db: db}
}

func (r *pgResetRepository) Create(ctx context.Context, req *model.ResetRequest) error {
	query := `INSERT INTO reset_requests (email, temp_password_hash)
	          VALUES ($1, $2) RETURNING id, created`
	err := r.db.QueryRowContext(ctx, query, req.Email, req.TempPasswordHash).
		Scan(&req.ID, &req.Created)
	if err != nil {
		return fmt.Errorf("pgResetRepository.Create: %w", err)
	}
	return nil
}

func (r *pgResetRepository) ByID(ctx context.Context, id int64) (*model.ResetRequest, error) {
	query := `SELECT id, email, temp_password_hash, created FROM reset_requests WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *pgResetRepository) LatestByEmail(ctx context.Context, email string) (*model.ResetRequest, error) {
	query := `SELECT id, email, temp_password_hash, created FROM reset_requests
	          WHERE email = $1 ORDER BY created DESC LIMIT 1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

func (r *pgResetRepository) scanOne(row *sql.Row) (*model.ResetRequest, error) {
	req := &model.ResetRequest{}
	err := row.Scan(&req.ID, &req.Email, &req.TempPasswordHash, &req.Created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgResetRepository: %w", err)
	}
	return req, nil
}

func (r *pgResetRepository) Consume(ctx context.Context, id int64) error {
	query := `UPDATE reset_requests SET temp_password_hash = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, model.ConsumedHashSentinel, id)
	if err != nil {
		return fmt.Errorf("pgResetRepository.Consume: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}
