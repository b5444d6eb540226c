package sessions

import (
	"net/http"
	"stocktrack/account"
	"stocktrack/bizerror"
	"stocktrack/session"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/sirupsen/logrus"
)

var (
	PathRegistrations = "/v1/registrations"
	PathSessions      = "/v1/sessions"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func RegisterSessionsRestAPI(r *gin.Engine, store *session.Store) {
	r.POST(PathRegistrations, handleSignUp)

	g := r.Group(PathSessions)
	g.POST("", signInHandler(store))
	g.DELETE("", signOutHandler(store))
}

func handleSignUp(c *gin.Context) {
	req := account.SignUpRequest{}
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	profile, err := account.SignUpFunc(&req, c.Request.Context())
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, profile)
}

func signInHandler(store *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		login := LoginRequest{}
		if err := c.ShouldBindBodyWith(&login, binding.JSON); err != nil {
			panic(&bizerror.ErrBadParam{Cause: err})
		}
		identity, role, err := account.AuthenticateFunc(login.Email, login.Password, c.Request.Context())
		if err != nil {
			panic(err)
		}

		sess := store.SignIn(*identity, string(role))
		logrus.WithField("uid", identity.ID).Info("signed in")
		c.SetCookie(session.KeySecToken, sess.Token, int(store.TTL()/time.Second), "/", "", false, true)
		c.JSON(http.StatusOK, sess)
	}
}

// signOutHandler always succeeds and clears the cookie, known token or not.
func signOutHandler(store *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(session.KeySecToken) // ErrNoCookie
		if token != "" {
			store.SignOut(token)
		}
		c.SetCookie(session.KeySecToken, "", -1, "/", "", false, true)
		c.AbortWithStatus(http.StatusNoContent)
	}
}
