package response

import (
	"net/http"

	"github.com/alimikegami/campus-platform/auth-service/pkg/errs"
	"github.com/labstack/echo/v4"
)

type SuccessResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type ErrorResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Errors  interface{} `json:"errors,omitempty"`
}

func WriteSuccessResponse(c echo.Context, message string, data interface{}) error {
	resp := SuccessResponse{}
	resp.Status = "success"
	resp.Data = data
	resp.Message = message

	return c.JSON(http.StatusOK, resp)
}

// WriteErrorResponse maps err to its status code. Wrapped detail is never
// written to the client, only the public sentinel message.
func WriteErrorResponse(c echo.Context, err error, errors interface{}) error {
	resp := ErrorResponse{}
	resp.Status = "error"
	resp.Message = errs.Public(err).Error()
	resp.Errors = errors

	return c.JSON(errs.GetErrorStatusCode(err), resp)
}
