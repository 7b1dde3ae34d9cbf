package controller

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/rryowa/backoffice/internal/models"
)

// (POST /apikeys).
func (c *Controller) IssueAPIKey(ctx echo.Context) error {
	var req models.IssueAPIKeyRequest
	if err := bindBody(ctx, &req); err != nil {
		return err
	}

	issued, err := c.apiKeyService.Issue(ctx.Request().Context(), req)
	if err != nil {
		return err
	}
	return Created(ctx, issued)
}

// (GET /apikeys).
func (c *Controller) ListAPIKeys(ctx echo.Context) error {
	var applicationID *uuid.UUID
	if err := bindQuery(ctx, "applicationId", &applicationID); err != nil {
		return err
	}

	keys, err := c.apiKeyService.List(ctx.Request().Context(), applicationID)
	if err != nil {
		return err
	}
	return OK(ctx, keys)
}

// (POST /apikeys/{id}/rotate).
func (c *Controller) RotateAPIKey(ctx echo.Context) error {
	var id uuid.UUID
	if err := bindPath(ctx, "id", &id); err != nil {
		return err
	}
	var req models.RotateAPIKeyRequest
	if err := bindBody(ctx, &req); err != nil {
		return err
	}

	issued, err := c.apiKeyService.Rotate(ctx.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return Created(ctx, issued)
}

// (POST /apikeys/{id}/revoke).
func (c *Controller) RevokeAPIKey(ctx echo.Context) error {
	var id uuid.UUID
	if err := bindPath(ctx, "id", &id); err != nil {
		return err
	}
	var req models.RevokeAPIKeyRequest
	if err := bindBody(ctx, &req); err != nil {
		return err
	}

	key, err := c.apiKeyService.Revoke(ctx.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return OK(ctx, key)
}
