package controller

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rryowa/backoffice/internal/models"
)

// (POST /api/categories).
func (c *Controller) CreateCategory(ctx echo.Context) error {
	var req models.CreateCategoryRequest
	if err := bindBody(ctx, &req); err != nil {
		return err
	}

	category, err := c.treasuryService.CreateCategory(ctx.Request().Context(), apiKeyActor(ctx), tenant(ctx), req)
	if err != nil {
		return err
	}
	return Created(ctx, category)
}

// (GET /api/categories).
func (c *Controller) ListCategories(ctx echo.Context) error {
	var flowType *models.FlowType
	if err := bindQuery(ctx, "type", &flowType); err != nil {
		return err
	}

	categories, err := c.treasuryService.ListCategories(ctx.Request().Context(), tenant(ctx), flowType)
	if err != nil {
		return err
	}
	return OK(ctx, categories)
}

// (POST /api/payment-methods).
func (c *Controller) CreatePaymentMethod(ctx echo.Context) error {
	var req models.CreatePaymentMethodRequest
	if err := bindBody(ctx, &req); err != nil {
		return err
	}

	method, err := c.treasuryService.CreatePaymentMethod(ctx.Request().Context(), apiKeyActor(ctx), tenant(ctx), req)
	if err != nil {
		return err
	}
	return Created(ctx, method)
}

// (GET /api/payment-methods).
func (c *Controller) ListPaymentMethods(ctx echo.Context) error {
	methods, err := c.treasuryService.ListPaymentMethods(ctx.Request().Context(), tenant(ctx))
	if err != nil {
		return err
	}
	return OK(ctx, methods)
}

// (POST /api/cash-flows).
func (c *Controller) CreateCashFlow(ctx echo.Context) error {
	var req models.CreateCashFlowRequest
	if err := bindBody(ctx, &req); err != nil {
		return err
	}

	flow, err := c.treasuryService.CreateCashFlow(ctx.Request().Context(), apiKeyActor(ctx), tenant(ctx), req)
	if err != nil {
		return err
	}
	return Created(ctx, flow)
}

// (GET /api/cash-flows).
func (c *Controller) ListCashFlows(ctx echo.Context) error {
	filter, err := bindPeriod(ctx)
	if err != nil {
		return err
	}

	flows, err := c.treasuryService.ListCashFlows(ctx.Request().Context(), tenant(ctx), filter)
	if err != nil {
		return err
	}
	return OK(ctx, flows)
}

// (POST /api/recurring-cash-flows).
func (c *Controller) CreateRecurringCashFlow(ctx echo.Context) error {
	var req models.CreateRecurringCashFlowRequest
	if err := bindBody(ctx, &req); err != nil {
		return err
	}

	flow, err := c.treasuryService.CreateRecurringCashFlow(ctx.Request().Context(), apiKeyActor(ctx), tenant(ctx), req)
	if err != nil {
		return err
	}
	return Created(ctx, flow)
}

// (GET /api/recurring-cash-flows).
func (c *Controller) ListRecurringCashFlows(ctx echo.Context) error {
	flows, err := c.treasuryService.ListRecurringCashFlows(ctx.Request().Context(), tenant(ctx))
	if err != nil {
		return err
	}
	return OK(ctx, flows)
}

// (GET /api/treasury/dashboard).
func (c *Controller) Dashboard(ctx echo.Context) error {
	filter, err := bindPeriod(ctx)
	if err != nil {
		return err
	}

	dashboard, err := c.treasuryService.Dashboard(ctx.Request().Context(), tenant(ctx), filter)
	if err != nil {
		return err
	}
	return OK(ctx, dashboard)
}

// (GET /api/treasury/forecast).
func (c *Controller) Forecast(ctx echo.Context) error {
	var days *int
	if err := bindQuery(ctx, "days", &days); err != nil {
		return err
	}

	n := 0
	if days != nil {
		n = *days
	}
	forecast, err := c.treasuryService.Forecast(ctx.Request().Context(), tenant(ctx), n)
	if err != nil {
		return err
	}
	return OK(ctx, forecast)
}

func bindPeriod(ctx echo.Context) (models.CashFlowFilter, error) {
	var from, to *time.Time
	if err := bindQuery(ctx, "from", &from); err != nil {
		return models.CashFlowFilter{}, err
	}
	if err := bindQuery(ctx, "to", &to); err != nil {
		return models.CashFlowFilter{}, err
	}
	return models.CashFlowFilter{From: from, To: to}, nil
}
