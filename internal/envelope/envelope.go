// Package envelope implements the uniform JSON response wrapper used by
// every endpoint: {"data": ..., "status": "success"|"error", "code": N,
// "messages": ...}. The HTTP status code is echoed inside the body as
// well as on the status line, and the key is "messages" (plural) — both
// are part of the stable wire contract.
package envelope

import "github.com/labstack/echo/v4"

// Envelope is the response body shape shared by all endpoints.
// Messages is either a plain string or a field→error object for
// validation failures.
type Envelope struct {
	Data     any    `json:"data"`
	Status   string `json:"status"`
	Code     int    `json:"code"`
	Messages any    `json:"messages"`
}

// Success writes a success envelope with the given transport status.
func Success(c echo.Context, code int, data any, messages any) error {
	return c.JSON(code, Envelope{Data: data, Status: "success", Code: code, Messages: messages})
}

// Error writes an error envelope. The transport status matches the code
// echoed in the body.
func Error(c echo.Context, code int, messages any) error {
	return ErrorData(c, code, nil, messages)
}

// ErrorData writes an error envelope carrying a payload, used when a
// validation failure needs to report per-field details alongside the
// summary message.
func ErrorData(c echo.Context, code int, data any, messages any) error {
	return c.JSON(code, Envelope{Data: data, Status: "error", Code: code, Messages: messages})
}
