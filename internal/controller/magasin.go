package controller

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/rryowa/backoffice/internal/models"
)

// (POST /api/magasin/articles).
func (c *Controller) CreateArticle(ctx echo.Context) error {
	var req models.CreateArticleRequest
	if err := bindBody(ctx, &req); err != nil {
		return err
	}

	article, err := c.magasinService.CreateArticle(ctx.Request().Context(), apiKeyActor(ctx), tenant(ctx), req)
	if err != nil {
		return err
	}
	return Created(ctx, article)
}

// (GET /api/magasin/articles).
func (c *Controller) ListArticles(ctx echo.Context) error {
	articles, err := c.magasinService.ListArticles(ctx.Request().Context(), tenant(ctx))
	if err != nil {
		return err
	}
	return OK(ctx, articles)
}

// (POST /api/magasin/movements).
func (c *Controller) RecordMovement(ctx echo.Context) error {
	var req models.CreateStockMovementRequest
	if err := bindBody(ctx, &req); err != nil {
		return err
	}

	movement, err := c.magasinService.RecordMovement(ctx.Request().Context(), apiKeyActor(ctx), tenant(ctx), req)
	if err != nil {
		return err
	}
	return Created(ctx, movement)
}

// (GET /api/magasin/movements).
func (c *Controller) ListMovements(ctx echo.Context) error {
	var articleID *uuid.UUID
	if err := bindQuery(ctx, "articleId", &articleID); err != nil {
		return err
	}

	movements, err := c.magasinService.ListMovements(ctx.Request().Context(), tenant(ctx), articleID)
	if err != nil {
		return err
	}
	return OK(ctx, movements)
}

// (GET /api/magasin/stock).
func (c *Controller) StockLevels(ctx echo.Context) error {
	levels, err := c.magasinService.StockLevels(ctx.Request().Context(), tenant(ctx))
	if err != nil {
		return err
	}
	return OK(ctx, levels)
}
