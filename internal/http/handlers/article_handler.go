// Article HTTP handlers.
//
//   - GET /articles               (catalogue, newest first, optional ?limit=N)
//   - GET /articles/{article_id}  (single article)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/up2d8/up2d8-backend/internal/domain"
	"github.com/up2d8/up2d8-backend/internal/services"
	"github.com/up2d8/up2d8-backend/internal/utils"
)

// maxArticleLimit caps the ?limit query parameter.
const maxArticleLimit = 100

// ListArticlesResponse wraps the article catalogue.
type ListArticlesResponse struct {
	Articles []domain.Article `json:"articles"`
}

// ListArticles handles GET /articles.
func (h *Handlers) ListArticles(c *gin.Context) {
	limit := utils.AtoiDefault(c.Query("limit"), 0)
	if limit < 0 {
		limit = 0
	}
	if limit > maxArticleLimit {
		limit = maxArticleLimit
	}

	articles, err := h.articleSvc.List(c.Request.Context(), limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	if articles == nil {
		articles = []domain.Article{}
	}
	ok(c, http.StatusOK, ListArticlesResponse{Articles: articles})
}

// GetArticle handles GET /articles/{article_id}.
func (h *Handlers) GetArticle(c *gin.Context) {
	a, err := h.articleSvc.Get(c.Request.Context(), c.Param("article_id"))
	if err != nil {
		if errors.Is(err, services.ErrArticleNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "article not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, a)
}
