package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Response is the envelope of every JSON answer, errors included.
type Response struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Data    interface{}       `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func OK(ctx echo.Context, data interface{}) error {
	return ctx.JSON(http.StatusOK, Response{Success: true, Data: data})
}

func Created(ctx echo.Context, data interface{}) error {
	return ctx.JSON(http.StatusCreated, Response{Success: true, Data: data})
}

func Message(ctx echo.Context, msg string) error {
	return ctx.JSON(http.StatusOK, Response{Success: true, Message: msg})
}

func Fail(ctx echo.Context, status int, msg string, fields map[string]string) error {
	return ctx.JSON(status, Response{Success: false, Message: msg, Errors: fields})
}
