package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Envelope is the wire shape of every response.
type Envelope struct {
	Message  string `json:"message"`
	Category string `json:"category"`
	Data     any    `json:"data"`
}

func successResponse(c echo.Context, code int, message string, data any) error {
	return c.JSON(code, Envelope{Message: message, Category: "success", Data: data})
}

func errorResponse(c echo.Context, code int, message string, data any) error {
	return c.JSON(code, Envelope{Message: message, Category: "error", Data: data})
}

// HTTPErrorHandler folds echo.HTTPError values (guards included) into the
// envelope. Anything else is a store or connectivity failure and surfaces
// as a generic server error.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := "Internal server error."
	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		}
	}
	_ = errorResponse(c, code, message, nil)
}
