package account

import (
	"net/http"
	"stocktrack/bizerror"
	"stocktrack/misc"
	"stocktrack/session"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var (
	PathProfiles       = "/v1/profiles"
	PathSessionUsers   = "/v1/session-users"
	PathBasicAuthsPart = "/basic-auths"
)

func RegisterProfilesRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathProfiles, middleWares...)
	g.GET("", handleQueryProfiles)
	g.GET(":id", handleDetailProfile)
	g.PUT(":id", handleUpdateProfile)
	g.PUT(":id/role", handleSetRole)

	u := r.Group(PathSessionUsers, middleWares...)
	u.PUT(PathBasicAuthsPart, handleUpdateBasicAuth)
}

func handleQueryProfiles(c *gin.Context) {
	profiles, err := QueryProfilesFunc(session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, profiles)
}

func handleDetailProfile(c *gin.Context) {
	id, err := misc.BindingPathID(c)
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	p, err := DetailProfileFunc(id, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, p)
}

func handleUpdateProfile(c *gin.Context) {
	id, err := misc.BindingPathID(c)
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	updating := ProfileUpdating{}
	if err := c.ShouldBindBodyWith(&updating, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	p, err := UpdateProfileFunc(id, &updating, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, p)
}

func handleSetRole(c *gin.Context) {
	id, err := misc.BindingPathID(c)
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	updating := RoleUpdating{}
	if err := c.ShouldBindBodyWith(&updating, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	role, err := ParseRole(updating.Role)
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	p, err := SetRoleFunc(id, role, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, p)
}

func handleUpdateBasicAuth(c *gin.Context) {
	updating := BasicAuthUpdating{}
	if err := c.ShouldBindBodyWith(&updating, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err := UpdateBasicAuthSecretFunc(&updating, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusOK)
}
