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
)

type ArticleRepository interface {
	Create(ctx context.Context, article *model.Article) error
	ByID(ctx context.Context, id int64) (*model.Article, error)
	// Recent returns up to limit articles, newest first.
	Recent(ctx context.Context, limit int) ([]model.Article, error)
	Update(ctx context.Context, article *model.Article) error
	// Delete tombstones and removes the article in one transaction.
	Delete(ctx context.Context, article *model.Article) error
}

type pgArticleRepository struct {
	db    *sql.DB
	cache cache.Cache
}

func NewPgArticleRepository(db *sql.DB, c cache.Cache) ArticleRepository {
	return &pgArticleRepository{db: db, cache: c}
}

func (r *pgArticleRepository) Create(ctx context.Context, article *model.Article) error {
	query := `INSERT INTO articles (title, body, author)
	          VALUES ($1, $2, $3) RETURNING id, created`
	err := r.db.QueryRowContext(ctx, query, article.Title, article.Body, article.Author).
		Scan(&article.ID, &article.Created)
	if err != nil {
		return fmt.Errorf("pgArticleRepository.Create: %w", err)
	}
	r.writeThrough(ctx, article)
	return nil
}

func (r *pgArticleRepository) ByID(ctx context.Context, id int64) (*model.Article, error) {
	article := &model.Article{}
	hit, err := r.cache.Get(ctx, cache.ArticleKey(id), article)
	if err != nil {
		slog.Warn("article cache read failed", "id", id, "error", err)
	}
	if hit {
		return article, nil
	}

	query := `SELECT id, title, body, author, created FROM articles WHERE id = $1`
	err = r.db.QueryRowContext(ctx, query, id).
		Scan(&article.ID, &article.Title, &article.Body, &article.Author, &article.Created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgArticleRepository.ByID: %w", err)
	}
	r.writeThrough(ctx, article)
	return article, nil
}

func (r *pgArticleRepository) Recent(ctx context.Context, limit int) ([]model.Article, error) {
	query := `SELECT id, title, body, author, created FROM articles
	          ORDER BY created DESC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("pgArticleRepository.Recent: %w", err)
	}
	defer rows.Close()

	var articles []model.Article
	for rows.Next() {
		var a model.Article
		if err := rows.Scan(&a.ID, &a.Title, &a.Body, &a.Author, &a.Created); err != nil {
			return nil, fmt.Errorf("pgArticleRepository.Recent: scan: %w", err)
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgArticleRepository.Recent: %w", err)
	}
	return articles, nil
}

func (r *pgArticleRepository) Update(ctx context.Context, article *model.Article) error {
	query := `UPDATE articles SET title = $1, body = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, article.Title, article.Body, article.ID)
	if err != nil {
		return fmt.Errorf("pgArticleRepository.Update: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	r.writeThrough(ctx, article)
	return nil
}

func (r *pgArticleRepository) Delete(ctx context.Context, article *model.Article) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("pgArticleRepository.Delete: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO deleted_articles (title, body, author) VALUES ($1, $2, $3)`,
		article.Title, article.Body, article.Author)
	if err != nil {
		return fmt.Errorf("pgArticleRepository.Delete: tombstone: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM articles WHERE id = $1`, article.ID); err != nil {
		return fmt.Errorf("pgArticleRepository.Delete: delete: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("pgArticleRepository.Delete: commit: %w", err)
	}

	if err := r.cache.Delete(ctx, cache.ArticleKey(article.ID)); err != nil {
		slog.Warn("article cache eviction failed", "id", article.ID, "error", err)
	}
	return nil
}

func (r *pgArticleRepository) writeThrough(ctx context.Context, article *model.Article) {
	if err := r.cache.Set(ctx, cache.ArticleKey(article.ID), article); err != nil {
		slog.Warn("article cache write failed", "id", article.ID, "error", err)
	}
}
