package session

import (
	"stocktrack/bizerror"

	"github.com/gin-gonic/gin"
)

const KeySecCtx = "SecCtx"
const KeySecToken = "sec_token"

func ExtractSessionFromGinContext(ctx *gin.Context) *Session {
	value, found := ctx.Get(KeySecCtx)
	if !found {
		return &Session{Context: ctx.Request.Context()}
	}
	s0, ok := value.(*Session)
	if !ok || s0.Token == "" {
		return &Session{Context: ctx.Request.Context()}
	}
	s := s0.Clone()
	s.Context = ctx.Request.Context() // trace context
	return &s
}

func SimpleAuthFilter(store *Store) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, err := ctx.Cookie(KeySecToken)
		if err != nil {
			panic(bizerror.ErrUnauthenticated)
		}
		sess, found := store.Find(token)
		if !found {
			panic(bizerror.ErrUnauthenticated)
		}
		InjectSessionIntoGinContext(ctx, sess)
		ctx.Next()
	}
}

func InjectSessionIntoGinContext(ctx *gin.Context, sess *Session) {
	if sess != nil && sess.Token != "" {
		ctx.Set(KeySecCtx, sess)
	}
}
