package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/rryowa/backoffice/internal/controller"
	"github.com/rryowa/backoffice/internal/util"
)

const msgInternal = "Une erreur interne est survenue"

// ErrorHandler renders every error as the response envelope. Business errors
// keep their message, anything unknown becomes a generic 500.
func ErrorHandler(log *zap.SugaredLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, msg, fields := http.StatusInternalServerError, msgInternal, map[string]string(nil)

		var he *echo.HTTPError
		if appErr, ok := util.AsAppError(err); ok {
			status, msg, fields = appErr.Kind.Status(), appErr.Msg, appErr.Fields
		} else if errors.As(err, &he) {
			status, msg = he.Code, fmt.Sprint(he.Message)
			if status >= http.StatusInternalServerError {
				log.Errorw("HTTP error", "error", err, "uri", c.Request().RequestURI)
				msg = msgInternal
			}
		} else {
			log.Errorw("Unhandled error", "error", err, "uri", c.Request().RequestURI)
		}

		if err := controller.Fail(c, status, msg, fields); err != nil {
			log.Errorw("Failed to write json response", "error", err)
		}
	}
}
