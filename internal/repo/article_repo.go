// Package repo implements the persistence gateway for domain entities,
// backed by GORM. This file provides read-only access to the article
// catalogue.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/up2d8/up2d8-backend/internal/domain"
)

// ListArticles returns the catalogue, newest first. A limit <= 0 returns the
// whole catalogue.
func ListArticles(ctx context.Context, db *gorm.DB, limit int) ([]domain.Article, error) {
	q := db.WithContext(ctx).Order("published_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []domain.Article
	err := q.Find(&out).Error
	return out, err
}

// GetArticle fetches a single article by ID, or ErrNotFound if missing.
func GetArticle(ctx context.Context, db *gorm.DB, id string) (*domain.Article, error) {
	var a domain.Article
	if err := db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}
