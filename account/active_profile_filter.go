package account

import (
	"stocktrack/bizerror"
	"stocktrack/session"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ActiveProfileFilter rejects blocked identities. It must run after session.SimpleAuthFilter.
func ActiveProfileFilter() gin.HandlerFunc {
	return func(c *gin.Context) {
		s := session.ExtractSessionFromGinContext(c)
		role, err := ResolveRoleFunc(s.Ctx(), s.Identity.ID)
		if err != nil {
			logrus.Warnf("check block status of user %d: %v", s.Identity.ID, err)
			c.Next()
			return
		}
		if role == RoleBlocked {
			panic(bizerror.ErrBlocked)
		}
		c.Next()
	}
}
