package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/up2d8/up2d8-backend/internal/domain"
	"github.com/up2d8/up2d8-backend/internal/repo"
)

// ArticleService exposes the curated article catalogue.
type ArticleService struct {
	DB *gorm.DB
}

// NewArticleService constructs an ArticleService.
func NewArticleService(db *gorm.DB) *ArticleService {
	return &ArticleService{DB: db}
}

// List returns the catalogue, newest first, capped at limit when positive.
func (s *ArticleService) List(ctx context.Context, limit int) ([]domain.Article, error) {
	return repo.ListArticles(ctx, s.DB, limit)
}

// Get fetches a single article by ID.
func (s *ArticleService) Get(ctx context.Context, id string) (*domain.Article, error) {
	a, err := repo.GetArticle(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, err
	}
	return a, nil
}
