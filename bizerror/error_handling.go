package bizerror

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"stocktrack/misc"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"
)

const CommonInternalServerError = "common.internal_server_error"

func ErrorHandling() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handle(c)
		c.Next()
	}
}

func handle(c *gin.Context) {
	if ret := recover(); ret != nil {
		err, ok := ret.(error)
		if !ok {
			err = fmt.Errorf("%v", ret)
		}
		HandleError(c, err)
	} else {
		if err := c.Errors.Last(); err != nil {
			HandleError(c, err)
		}
	}
}

func HandleError(c *gin.Context, err error) {
	logrus.WithField("path", c.Request.URL.Path).Error(err)

	genericErr := err
	var ginErr *gin.Error
	if errors.As(err, &ginErr) {
		genericErr = ginErr.Err
	}

	var bizErr BizError
	if errors.As(genericErr, &bizErr) {
		respond := bizErr.Respond()
		abortWith(c, respond.Status, respond.Code, respond.Message, respond.Data)
		return
	}

	// bad request: io.EOF (no body)
	if errors.Is(genericErr, io.EOF) {
		abortWith(c, http.StatusBadRequest, "common.bad_param", "body not found", nil)
		return
	}
	var syntaxErr *json.SyntaxError
	if errors.As(genericErr, &syntaxErr) {
		abortWith(c, http.StatusBadRequest, "common.bad_param", syntaxErr.Error(), nil)
		return
	}
	var validationErr validator.ValidationErrors
	if errors.As(genericErr, &validationErr) {
		abortWith(c, http.StatusBadRequest, "common.bad_param", validationErr.Error(), nil)
		return
	}

	switch {
	case errors.Is(genericErr, ErrUnauthenticated):
		abortWith(c, http.StatusUnauthorized, "common.unauthenticated", "unauthenticated", nil)
	case errors.Is(genericErr, ErrBlocked):
		abortWith(c, http.StatusForbidden, "security.blocked", "account is blocked", nil)
	case errors.Is(genericErr, ErrForbidden):
		abortWith(c, http.StatusForbidden, "security.forbidden", "access forbidden", nil)
	case errors.Is(genericErr, ErrTooManyRequests):
		abortWith(c, http.StatusTooManyRequests, "common.too_many_requests", "too many requests", nil)
	case errors.Is(genericErr, gorm.ErrRecordNotFound) || errors.Is(genericErr, ErrNotFound):
		abortWith(c, http.StatusNotFound, "common.record_not_found", "record not found", nil)
	default:
		abortWith(c, http.StatusInternalServerError, CommonInternalServerError, err.Error(), nil)
	}
}

func abortWith(c *gin.Context, status int, code, message string, data interface{}) {
	c.JSON(status, &misc.ErrorBody{Code: code, Message: message, Data: data})
	c.Abort()
}
