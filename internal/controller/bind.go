package controller

import (
	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"

	"github.com/rryowa/backoffice/internal/util"
)

func bindBody(ctx echo.Context, dst interface{}) error {
	if err := ctx.Bind(dst); err != nil {
		return util.BadRequest("Corps de requête invalide")
	}
	return nil
}

func bindPath(ctx echo.Context, name string, dst interface{}) error {
	err := runtime.BindStyledParameterWithOptions("simple", name, ctx.Param(name), dst,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return util.BadRequest("Format de paramètre invalide pour %s", name)
	}
	return nil
}

// bindQuery binds an optional query parameter; dst must point to a pointer.
func bindQuery(ctx echo.Context, name string, dst interface{}) error {
	if err := runtime.BindQueryParameter("form", true, false, name, ctx.QueryParams(), dst); err != nil {
		return util.BadRequest("Format de paramètre invalide pour %s", name)
	}
	return nil
}
