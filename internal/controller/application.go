package controller

import (
	"github.com/labstack/echo/v4"

	"github.com/rryowa/backoffice/internal/models"
)

// (POST /application).
func (c *Controller) CreateApplication(ctx echo.Context) error {
	var req models.CreateApplicationRequest
	if err := bindBody(ctx, &req); err != nil {
		return err
	}

	app, err := c.applicationService.Create(ctx.Request().Context(), principal(ctx).Email, req)
	if err != nil {
		return err
	}
	return Created(ctx, app)
}

// (GET /application).
func (c *Controller) ListApplications(ctx echo.Context) error {
	apps, err := c.applicationService.List(ctx.Request().Context())
	if err != nil {
		return err
	}
	return OK(ctx, apps)
}

// (GET /menu/{appAdminReference}).
func (c *Controller) ListMenus(ctx echo.Context) error {
	var appRef string
	if err := bindPath(ctx, "appAdminReference", &appRef); err != nil {
		return err
	}

	menus, err := c.menuService.List(ctx.Request().Context(), appRef)
	if err != nil {
		return err
	}
	return OK(ctx, menus)
}

// (POST /menu/{appAdminReference}).
func (c *Controller) CreateMenu(ctx echo.Context) error {
	var appRef string
	if err := bindPath(ctx, "appAdminReference", &appRef); err != nil {
		return err
	}
	var req models.CreateMenuRequest
	if err := bindBody(ctx, &req); err != nil {
		return err
	}

	menu, err := c.menuService.Create(ctx.Request().Context(), principal(ctx).Email, appRef, req)
	if err != nil {
		return err
	}
	return Created(ctx, menu)
}

// (PUT /menu/{appAdminReference}).
func (c *Controller) UpdateMenu(ctx echo.Context) error {
	var appRef string
	if err := bindPath(ctx, "appAdminReference", &appRef); err != nil {
		return err
	}
	var req models.UpdateMenuRequest
	if err := bindBody(ctx, &req); err != nil {
		return err
	}

	menu, err := c.menuService.Update(ctx.Request().Context(), principal(ctx).Email, appRef, req)
	if err != nil {
		return err
	}
	return OK(ctx, menu)
}

// (PATCH /menu/active).
func (c *Controller) ActivateMenu(ctx echo.Context) error {
	return c.setMenuActive(ctx, true)
}

// (PATCH /menu/inactive).
func (c *Controller) DeactivateMenu(ctx echo.Context) error {
	return c.setMenuActive(ctx, false)
}

func (c *Controller) setMenuActive(ctx echo.Context, active bool) error {
	var req models.ToggleMenuRequest
	if err := bindBody(ctx, &req); err != nil {
		return err
	}

	menu, err := c.menuService.SetActive(ctx.Request().Context(), principal(ctx).Email, req, active)
	if err != nil {
		return err
	}
	return OK(ctx, menu)
}
