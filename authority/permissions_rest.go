package authority

import (
	"net/http"
	"stocktrack/bizerror"
	"stocktrack/misc"
	"stocktrack/session"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var (
	PathUsers              = "/v1/users"
	PathActionPermissions  = "/v1/action-permissions"
	PathSessionPermissions = "/v1/session/permissions"
)

func RegisterPermissionsRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathUsers, middleWares...)
	g.GET(":id/table-permissions", handleQueryTablePermissions)
	g.PUT(":id/table-permissions", handleSetTablePermission)
	g.GET(":id/action-permissions", handleQueryActionPermissions)

	a := r.Group(PathActionPermissions, middleWares...)
	a.PUT(":id", handleSetActionPermission)

	r.GET(PathSessionPermissions, append(middleWares, handleSessionPermissions)...)
}

func handleQueryTablePermissions(c *gin.Context) {
	uid, err := misc.BindingPathID(c)
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	records, err := QueryTablePermissionsFunc(uid, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, records)
}

func handleSetTablePermission(c *gin.Context) {
	uid, err := misc.BindingPathID(c)
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	updating := TablePermissionUpdating{}
	if err := c.ShouldBindBodyWith(&updating, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	level, err := ParseLevel(updating.Permission)
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	rec, err := SetTablePermissionFunc(uid, updating.TableName, level, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, rec)
}

func handleQueryActionPermissions(c *gin.Context) {
	uid, err := misc.BindingPathID(c)
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	records, err := QueryActionPermissionsFunc(uid, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, records)
}

func handleSetActionPermission(c *gin.Context) {
	id, err := misc.BindingPathID(c)
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	updating := ActionPermissionUpdating{}
	if err := c.ShouldBindBodyWith(&updating, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	rec, err := SetActionPermissionFunc(id, *updating.Enabled, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, rec)
}

func handleSessionPermissions(c *gin.Context) {
	m, err := EffectivePermissionsFunc(session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, m)
}
