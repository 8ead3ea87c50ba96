package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tarnblog/tarn/internal/common"
	"github.com/tarnblog/tarn/internal/domain/model"
	"github.com/tarnblog/tarn/internal/platform/cache"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrDuplicateName and ErrDuplicateEmail surface the schema-level
	// uniqueness constraints. The handler-level existence checks remain
	// advisory; these close the concurrent-signup race.
	ErrDuplicateName  = fmt.Errorf("username already taken: %w", common.ErrConflict)
	ErrDuplicateEmail = fmt.Errorf("email already registered: %w", common.ErrConflict)
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	ByID(ctx context.Context, id int64) (*model.User, error)
	ByName(ctx context.Context, name string) (*model.User, error)
	ByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	// DeleteAccount tombstones the user, tombstones and deletes every
	// article they authored, and removes the user, all in one
	// transaction. It returns the ids of the deleted articles.
	DeleteAccount(ctx context.Context, user *model.User) ([]int64, error)
}

type pgUserRepository struct {
	db    *sql.DB
	cache cache.Cache
}

func NewPgUserRepository(db *sql.DB, c cache.Cache) UserRepository {
	return &pgUserRepository{db: db, cache: c}
}

func (r *pgUserRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (name, email, password_hash)
	          VALUES ($1, $2, $3) RETURNING id, created`
	err := r.db.QueryRowContext(ctx, query, user.Name, user.Email, user.PasswordHash).
		Scan(&user.ID, &user.Created)
	if err != nil {
		if dup := duplicateErr(err); dup != nil {
			return dup
		}
		return fmt.Errorf("pgUserRepository.Create: %w", err)
	}
	r.writeThrough(ctx, user)
	return nil
}

// ByID is the read-through path: cache hit wins, a store hit
// repopulates the cache, a store miss is ErrNotFound and is not
// cached.
func (r *pgUserRepository) ByID(ctx context.Context, id int64) (*model.User, error) {
	user := &model.User{}
	hit, err := r.cache.Get(ctx, cache.UserKey(id), user)
	if err != nil {
		slog.Warn("user cache read failed", "id", id, "error", err)
	}
	if hit {
		return user, nil
	}

	user, err = r.scanOne(ctx, `WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	r.writeThrough(ctx, user)
	return user, nil
}

func (r *pgUserRepository) ByName(ctx context.Context, name string) (*model.User, error) {
	return r.scanOne(ctx, `WHERE name = $1`, name)
}

func (r *pgUserRepository) ByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.scanOne(ctx, `WHERE email = $1`, email)
}

func (r *pgUserRepository) scanOne(ctx context.Context, where string, arg any) (*model.User, error) {
	query := `SELECT id, name, email, password_hash, created FROM users ` + where
	user := &model.User{}
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgUserRepository: %w", err)
	}
	return user, nil
}

func (r *pgUserRepository) Update(ctx context.Context, user *model.User) error {
	query := `UPDATE users SET name = $1, email = $2, password_hash = $3 WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, user.Name, user.Email, user.PasswordHash, user.ID)
	if err != nil {
		if dup := duplicateErr(err); dup != nil {
			return dup
		}
		return fmt.Errorf("pgUserRepository.Update: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	r.writeThrough(ctx, user)
	return nil
}

func (r *pgUserRepository) DeleteAccount(ctx context.Context, user *model.User) ([]int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("pgUserRepository.DeleteAccount: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO deleted_users (user_id, name, email) VALUES ($1, $2, $3)`,
		user.ID, user.Name, user.Email)
	if err != nil {
		return nil, fmt.Errorf("pgUserRepository.DeleteAccount: tombstone user: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO deleted_articles (title, body, author)
		 SELECT title, body, author FROM articles WHERE author = $1`,
		user.ID)
	if err != nil {
		return nil, fmt.Errorf("pgUserRepository.DeleteAccount: tombstone articles: %w", err)
	}

	rows, err := tx.QueryContext(ctx,
		`DELETE FROM articles WHERE author = $1 RETURNING id`, user.ID)
	if err != nil {
		return nil, fmt.Errorf("pgUserRepository.DeleteAccount: delete articles: %w", err)
	}
	var articleIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("pgUserRepository.DeleteAccount: scan article id: %w", err)
		}
		articleIDs = append(articleIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgUserRepository.DeleteAccount: article ids: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, user.ID); err != nil {
		return nil, fmt.Errorf("pgUserRepository.DeleteAccount: delete user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("pgUserRepository.DeleteAccount: commit: %w", err)
	}

	keys := make([]string, 0, len(articleIDs)+1)
	keys = append(keys, cache.UserKey(user.ID))
	for _, id := range articleIDs {
		keys = append(keys, cache.ArticleKey(id))
	}
	if err := r.cache.Delete(ctx, keys...); err != nil {
		slog.Warn("cache eviction failed after account deletion", "user", user.ID, "error", err)
	}
	return articleIDs, nil
}

func (r *pgUserRepository) writeThrough(ctx context.Context, user *model.User) {
	if err := r.cache.Set(ctx, cache.UserKey(user.ID), user); err != nil {
		slog.Warn("user cache write failed", "id", user.ID, "error", err)
	}
}

func duplicateErr(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return nil
	}
	switch pgErr.ConstraintName {
	case "users_name_key":
		return ErrDuplicateName
	case "users_email_key":
		return ErrDuplicateEmail
	}
	return common.ErrConflict
}
