package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// AErr 带业务码的错误，服务层返回，JSONError 统一落回信封
type AErr struct {
	Code int
	Msg  string
	Err  error
}

func (e *AErr) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "error"
}

func (e *AErr) Unwrap() error { return e.Err }

func BadRequest(msg string) error   { return &AErr{Code: CodeBadRequest, Msg: msg} }
func Unauthorized(msg string) error { return &AErr{Code: CodeUnauthorized, Msg: msg} }
func Forbidden(msg string) error    { return &AErr{Code: CodeForbidden, Msg: msg} }
func NotFound(msg string) error     { return &AErr{Code: CodeNotFound, Msg: msg} }
func Internal(msg string, err error) error {
	return &AErr{Code: CodeServerError, Msg: msg, Err: err}
}

// JSONError 统一错误映射：HTTP 始终 200，错误走业务码
func JSONError(c *gin.Context, err error) {
	var ae *AErr
	if errors.As(err, &ae) {
		c.JSON(http.StatusOK, Error(ae.Code, ae.Error()))
		return
	}
	c.JSON(http.StatusOK, Error(CodeServerError, err.Error()))
}
