package sessions

import (
	"fmt"
	"net/http"
	"stocktrack/account"
	"stocktrack/bizerror"
	"stocktrack/session"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var (
	PathSession = "/v1/session"

	// KeepAliveInterval is the period of comment frames on an idle event stream.
	KeepAliveInterval = 30 * time.Second
	eventBufferSize   = 16
)

type authChangeBody struct {
	Event   session.ChangeEvent `json:"event"`
	Session session.Session     `json:"session"`
	Time    time.Time           `json:"time"`
}

func RegisterSessionRestAPI(r *gin.Engine, store *session.Store, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathSession, middleWares...)
	g.GET("", detailSessionHandler(store))
	g.GET("/events", sessionEventsHandler(store))
}

// detailSessionHandler restarts the expiration of the current token and reports the role
// currently held by the profile.
func detailSessionHandler(store *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		sec := session.ExtractSessionFromGinContext(c)
		role, err := account.ResolveRoleFunc(sec.Ctx(), sec.Identity.ID)
		if err != nil {
			logrus.Warnf("resolve role of user %d on refresh: %v", sec.Identity.ID, err)
		}
		refreshed, found := store.Refresh(sec.Token, string(role))
		if !found {
			panic(bizerror.ErrUnauthenticated)
		}
		c.JSON(http.StatusOK, refreshed)
	}
}

// sessionEventsHandler streams the auth changes of the current token until it is signed out
// or the client goes away.
func sessionEventsHandler(store *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		sec := session.ExtractSessionFromGinContext(c)

		changes := make(chan session.AuthChange, eventBufferSize)
		unsubscribe := store.Subscribe(func(change session.AuthChange) {
			if change.Session.Token != sec.Token {
				return
			}
			select {
			case changes <- change:
			default:
				logrus.Warnf("auth change %s of user %d dropped, stream is lagging", change.Event, sec.Identity.ID)
			}
		})
		defer unsubscribe()

		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Status(http.StatusOK)
		c.Writer.Flush()

		keepAlive := time.NewTicker(KeepAliveInterval)
		defer keepAlive.Stop()

		done := c.Request.Context().Done()
		for {
			select {
			case <-done:
				return
			case change := <-changes:
				c.SSEvent(string(change.Event), authChangeBody{Event: change.Event, Session: change.Session, Time: change.Time})
				c.Writer.Flush()
				if change.Event == session.SignedOut {
					return
				}
			case <-keepAlive.C:
				if _, err := fmt.Fprint(c.Writer, ": keep-alive\n\n"); err != nil {
					return
				}
				c.Writer.Flush()
			}
		}
	}
}
