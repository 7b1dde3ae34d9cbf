package controller

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rryowa/backoffice/internal/models"
)

const refreshCookiePath = "/auth"

// (POST /auth/signin).
func (c *Controller) SignIn(ctx echo.Context) error {
	var req models.SignInRequest
	if err := bindBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.authService.SignIn(ctx.Request().Context(), req)
	if err != nil {
		return err
	}

	c.setRefreshCookie(ctx, res.RefreshToken, res.RefreshExpiresAt)
	return OK(ctx, models.TokenResponse{Token: res.AccessToken})
}

// (POST /auth/refresh).
func (c *Controller) Refresh(ctx echo.Context) error {
	var rememberMe *bool
	if err := bindQuery(ctx, "rememberMe", &rememberMe); err != nil {
		return err
	}

	var raw string
	if cookie, err := ctx.Cookie(models.RefreshTokenCookie); err == nil {
		raw = cookie.Value
	}

	res, err := c.authService.Refresh(ctx.Request().Context(), raw, rememberMe != nil && *rememberMe)
	if err != nil {
		return err
	}

	c.setRefreshCookie(ctx, res.RefreshToken, res.RefreshExpiresAt)
	return OK(ctx, models.TokenResponse{Token: res.AccessToken})
}

// (POST /auth/logout).
func (c *Controller) Logout(ctx echo.Context) error {
	var raw string
	if cookie, err := ctx.Cookie(models.RefreshTokenCookie); err == nil {
		raw = cookie.Value
	}

	if err := c.authService.Logout(ctx.Request().Context(), raw, BearerToken(ctx.Request())); err != nil {
		return err
	}

	c.expireRefreshCookie(ctx)
	return Message(ctx, "Déconnexion effectuée")
}

func (c *Controller) setRefreshCookie(ctx echo.Context, value string, expiresAt time.Time) {
	ctx.SetCookie(&http.Cookie{
		Name:     models.RefreshTokenCookie,
		Value:    value,
		Path:     refreshCookiePath,
		Domain:   c.cookieConfig.Domain,
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   c.cookieConfig.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (c *Controller) expireRefreshCookie(ctx echo.Context) {
	ctx.SetCookie(&http.Cookie{
		Name:     models.RefreshTokenCookie,
		Value:    "",
		Path:     refreshCookiePath,
		Domain:   c.cookieConfig.Domain,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.cookieConfig.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// BearerToken returns the token of an "Authorization: Bearer" header, empty otherwise.
func BearerToken(r *http.Request) string {
	header := r.Header.Get(echo.HeaderAuthorization)
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
