package response

import (
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Err is the JSON error body: {"error": "...", "details": "..."}.
type Err struct {
	HTTPStatusCode int    `json:"-"`
	Message        string `json:"error"`
	Details        string `json:"details,omitempty"`
	Err            error  `json:"-"`
}

func (e *Err) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func RenderErr(ctx *gin.Context, e *Err) {
	fields := []zap.Field{
		zap.String("request_id", requestid.Get(ctx)),
		zap.Int("status", e.HTTPStatusCode),
		zap.String("path", ctx.FullPath()),
		zap.Error(e.Err),
	}
	if e.HTTPStatusCode >= http.StatusInternalServerError {
		zap.L().Error(e.Message, fields...)
	} else {
		zap.L().Debug(e.Message, fields...)
	}

	ctx.AbortWithStatusJSON(e.HTTPStatusCode, e)
}

func ErrBadRequest(err error) *Err {
	return &Err{
		HTTPStatusCode: http.StatusBadRequest,
		Message:        err.Error(),
		Err:            err,
	}
}

// ErrInvalidInput is a 400 with a fixed message and the cause as details.
func ErrInvalidInput(message string, err error) *Err {
	e := &Err{
		HTTPStatusCode: http.StatusBadRequest,
		Message:        message,
		Err:            err,
	}
	if err != nil {
		e.Details = err.Error()
	}
	return e
}

func ErrRequestTooLarge(err error) *Err {
	return &Err{
		HTTPStatusCode: http.StatusRequestEntityTooLarge,
		Message:        "Request body too large.",
		Err:            err,
	}
}

func ErrNotFound(message string, err error) *Err {
	return &Err{
		HTTPStatusCode: http.StatusNotFound,
		Message:        message,
		Err:            err,
	}
}

func ErrWrongCredentials(err error) *Err {
	return &Err{
		HTTPStatusCode: http.StatusUnauthorized,
		Message:        "Invalid password.",
		Err:            err,
	}
}

func ErrUnauthorized(err error) *Err {
	return &Err{
		HTTPStatusCode: http.StatusUnauthorized,
		Message:        "Unauthorized.",
		Err:            err,
	}
}

// ErrStorage is a 500 for a failed write; the cause is exposed as details.
func ErrStorage(message string, err error) *Err {
	e := &Err{
		HTTPStatusCode: http.StatusInternalServerError,
		Message:        message,
		Err:            err,
	}
	if err != nil {
		e.Details = err.Error()
	}
	return e
}

func ErrInternalServerError(err error) *Err {
	return &Err{
		HTTPStatusCode: http.StatusInternalServerError,
		Message:        "An unexpected error occurred.",
		Err:            err,
	}
}
