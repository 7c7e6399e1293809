package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Response is the envelope of every API response.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

func respond(ctx echo.Context, code int, data interface{}) error {
	return ctx.JSON(code, Response{Success: true, Data: data})
}

func respondOK(ctx echo.Context, data interface{}) error {
	return respond(ctx, http.StatusOK, data)
}

func respondMessage(ctx echo.Context, msg string) error {
	return ctx.JSON(http.StatusOK, Response{Success: true, Message: msg})
}
