package service

import (
	"context"
	"fmt"

	"github.com/tarnblog/tarn/internal/common"
	"github.com/tarnblog/tarn/internal/domain/model"
	"github.com/tarnblog/tarn/internal/domain/repository"
)

type ArticleService struct {
	articles repository.ArticleRepository
}

func NewArticleService(articles repository.ArticleRepository) *ArticleService {
	return &ArticleService{articles: articles}
}

func (s *ArticleService) Create(ctx context.Context, author *model.User, title, body string) (*model.Article, error) {
	article := &model.Article{
		Title:  title,
		Body:   body,
		Author: author.ID,
	}
	if err := s.articles.Create(ctx, article); err != nil {
		return nil, err
	}
	return article, nil
}

func (s *ArticleService) Recent(ctx context.Context, limit int) ([]model.Article, error) {
	return s.articles.Recent(ctx, limit)
}

// ByIDForAuthor loads an article and enforces that only its author may
// touch it.
func (s *ArticleService) ByIDForAuthor(ctx context.Context, id int64, author *model.User) (*model.Article, error) {
	article, err := s.articles.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if article.Author != author.ID {
		return nil, fmt.Errorf("article %d not owned by user %d: %w", id, author.ID, common.ErrForbidden)
	}
	return article, nil
}

func (s *ArticleService) Edit(ctx context.Context, id int64, author *model.User, title, body string) (*model.Article, error) {
	article, err := s.ByIDForAuthor(ctx, id, author)
	if err != nil {
		return nil, err
	}
	article.Title = title
	article.Body = body
	if err := s.articles.Update(ctx, article); err != nil {
		return nil, err
	}
	return article, nil
}

func (s *ArticleService) Delete(ctx context.Context, id int64, author *model.User) error {
	article, err := s.ByIDForAuthor(ctx, id, author)
	if err != nil {
		return err
	}
	return s.articles.Delete(ctx, article)
}
