package session

import (
	"context"
	"time"

	"github.com/fundwit/go-commons/types"
)

type Identity struct {
	ID       types.ID `json:"id"`
	Email    string   `json:"email"`
	FullName string   `json:"fullName"`
}

// Session is the authenticated state of one token. Role is the role observed at sign-in or
// at the last refresh; authority decisions always re-read the profile.
type Session struct {
	Token    string   `json:"token"`
	Identity Identity `json:"identity"`
	Role     string   `json:"role"`

	SigningTime time.Time       `json:"-"`
	Context     context.Context `json:"-"`
}

func (s Session) Clone() Session {
	return s
}

// Ctx returns the request context of the session, never nil.
func (s *Session) Ctx() context.Context {
	if s == nil || s.Context == nil {
		return context.Background()
	}
	return s.Context
}
