package misc

import (
	"errors"
	"strings"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
)

var ErrEmptyPathParam = errors.New("path parameter is empty")

func BindingPathID(c *gin.Context) (types.ID, error) {
	return types.ParseID(c.Param("id"))
}

// BindingPathParam returns the trimmed path parameter, or an error when it is blank.
func BindingPathParam(c *gin.Context, name string) (string, error) {
	v := strings.TrimSpace(c.Param(name))
	if v == "" {
		return "", ErrEmptyPathParam
	}
	return v, nil
}
