package api

import (
	"github.com/labstack/echo/v4"

	"github.com/rryowa/backoffice/internal/controller"
)

type Middlewares struct {
	Bearer   echo.MiddlewareFunc
	APIKey   echo.MiddlewareFunc
	Tenant   echo.MiddlewareFunc
	Validate echo.MiddlewareFunc
}

// RegisterHandlers maps every documented operation onto the controller.
// Admin routes take a bearer token, /api routes an API key and tenant headers.
// Requests are checked against the OpenAPI document only once authenticated.
func RegisterHandlers(e *echo.Echo, c *controller.Controller, mw Middlewares) {
	e.GET("/health", c.Health, mw.Validate)

	auth := e.Group("/auth", mw.Validate)
	auth.POST("/signin", c.SignIn)
	auth.POST("/refresh", c.Refresh)
	auth.POST("/logout", c.Logout)

	app := e.Group("/application", mw.Bearer, mw.Validate)
	app.GET("", c.ListApplications)
	app.POST("", c.CreateApplication)

	menu := e.Group("/menu", mw.Bearer, mw.Validate)
	menu.PATCH("/active", c.ActivateMenu)
	menu.PATCH("/inactive", c.DeactivateMenu)
	menu.GET("/:appAdminReference", c.ListMenus)
	menu.POST("/:appAdminReference", c.CreateMenu)
	menu.PUT("/:appAdminReference", c.UpdateMenu)

	keys := e.Group("/apikeys", mw.Bearer, mw.Validate)
	keys.GET("", c.ListAPIKeys)
	keys.POST("", c.IssueAPIKey)
	keys.POST("/:id/rotate", c.RotateAPIKey)
	keys.POST("/:id/revoke", c.RevokeAPIKey)

	g := e.Group("/api", mw.APIKey, mw.Tenant, mw.Validate)
	g.GET("/categories", c.ListCategories)
	g.POST("/categories", c.CreateCategory)
	g.GET("/payment-methods", c.ListPaymentMethods)
	g.POST("/payment-methods", c.CreatePaymentMethod)
	g.GET("/cash-flows", c.ListCashFlows)
	g.POST("/cash-flows", c.CreateCashFlow)
	g.GET("/recurring-cash-flows", c.ListRecurringCashFlows)
	g.POST("/recurring-cash-flows", c.CreateRecurringCashFlow)
	g.GET("/treasury/dashboard", c.Dashboard)
	g.GET("/treasury/forecast", c.Forecast)
	g.GET("/magasin/articles", c.ListArticles)
	g.POST("/magasin/articles", c.CreateArticle)
	g.GET("/magasin/movements", c.ListMovements)
	g.POST("/magasin/movements", c.RecordMovement)
	g.GET("/magasin/stock", c.StockLevels)
}
