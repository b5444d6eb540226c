package avatar

import (
	"errors"
	"net/http"
	"stocktrack/bizerror"
	"stocktrack/misc"
	"stocktrack/session"

	"github.com/gin-gonic/gin"
)

var (
	PathAccountAvatars = "/v1/account-avatars"

	// MaxAvatarSize bounds uploaded avatars, in bytes.
	MaxAvatarSize int64 = 2 << 20

	errAvatarTooLarge = errors.New("avatar must not exceed 2MB")
	errAvatarNotPNG   = errors.New("avatar must be a png image")
)

func RegisterAvatarAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathAccountAvatars, middleWares...)
	g.GET(":id", handleGetAvatar)
	g.POST(":id", handleCreateAvatar)
}

func handleGetAvatar(c *gin.Context) {
	id, err := misc.BindingPathID(c)
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	bytes, err := DetailAvatarFunc(id, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.Data(http.StatusOK, "image/png", bytes)
}

func handleCreateAvatar(c *gin.Context) {
	id, err := misc.BindingPathID(c)
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	file, err := c.FormFile("file")
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if file.Size > MaxAvatarSize {
		panic(&bizerror.ErrBadParam{Cause: errAvatarTooLarge})
	}
	if ct := file.Header.Get("Content-Type"); ct != "" && ct != "image/png" {
		panic(&bizerror.ErrBadParam{Cause: errAvatarNotPNG})
	}
	src, err := file.Open()
	if err != nil {
		panic(err)
	}
	defer src.Close()

	if err := CreateAvatarFunc(id, src, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, gin.H{})
}
