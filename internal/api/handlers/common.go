package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/voicememo/internal/utils"
)

// APIError is the body of every non-2xx response.
type APIError struct {
	Error string     `json:"error"`
	Code  utils.Code `json:"code"`
}

func writeError(c *gin.Context, err error) {
	status := utils.HTTPStatus(err)

	var ae *utils.AppError
	if errors.As(err, &ae) {
		msg := ae.Message
		if msg == "" {
			msg = http.StatusText(status)
		}
		c.JSON(status, APIError{Error: msg, Code: ae.Code})
		return
	}

	c.JSON(status, APIError{
		Error: http.StatusText(status),
		Code:  utils.CodeInternal,
	})
}

func badBody(op string, err error) error {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return utils.E(utils.CodeTooLarge, op, "request body too large", err)
	}
	return utils.E(utils.CodeInvalidArgument, op, "invalid request body", err)
}
