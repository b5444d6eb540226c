package session

import (
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

const TokenExpiration = 24 * time.Hour

// Store keeps live sessions by token and notifies subscribers of their lifecycle.
// Expired and revoked tokens are both reported as SIGNED_OUT.
type Store struct {
	ttl    time.Duration
	tokens *cache.Cache
	broker *Broker
}

func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = TokenExpiration
	}
	cleanup := time.Minute
	if ttl < cleanup {
		cleanup = ttl
	}
	s := &Store{ttl: ttl, tokens: cache.New(ttl, cleanup), broker: NewBroker()}
	s.tokens.OnEvicted(func(token string, v interface{}) {
		if sess, ok := v.(*Session); ok {
			s.broker.Publish(AuthChange{Event: SignedOut, Session: sess.Clone()})
		}
	})
	return s
}

func (s *Store) TTL() time.Duration {
	return s.ttl
}

func (s *Store) SignIn(identity Identity, role string) *Session {
	sess := &Session{Token: uuid.New().String(), Identity: identity, Role: role, SigningTime: time.Now()}
	s.tokens.Set(sess.Token, sess, cache.DefaultExpiration)
	s.broker.Publish(AuthChange{Event: SignedIn, Session: sess.Clone()})
	return sess
}

// Put stores sess as is, without notification.
func (s *Store) Put(sess *Session) {
	s.tokens.Set(sess.Token, sess, cache.DefaultExpiration)
}

func (s *Store) Find(token string) (*Session, bool) {
	v, found := s.tokens.Get(token)
	if !found {
		return nil, false
	}
	sess, ok := v.(*Session)
	if !ok {
		return nil, false
	}
	return sess, true
}

// Refresh restarts the expiration of token and records the current role.
func (s *Store) Refresh(token string, role string) (*Session, bool) {
	old, found := s.Find(token)
	if !found {
		return nil, false
	}
	refreshed := old.Clone()
	refreshed.Role = role
	refreshed.SigningTime = time.Now()
	refreshed.Context = nil
	s.tokens.Set(token, &refreshed, cache.DefaultExpiration)
	s.broker.Publish(AuthChange{Event: TokenRefreshed, Session: refreshed.Clone()})
	return &refreshed, true
}

func (s *Store) SignOut(token string) {
	s.tokens.Delete(token)
}

// UpdateUser applies mutate to every live session of uid and reports how many changed.
func (s *Store) UpdateUser(uid types.ID, mutate func(sess *Session)) int {
	now := time.Now()
	count := 0
	for token, item := range s.tokens.Items() {
		sess, ok := item.Object.(*Session)
		if !ok || sess.Identity.ID != uid {
			continue
		}
		updated := sess.Clone()
		mutate(&updated)

		ttl := cache.DefaultExpiration
		if item.Expiration > 0 {
			ttl = time.Duration(item.Expiration - now.UnixNano())
			if ttl <= 0 {
				continue
			}
		}
		s.tokens.Set(token, &updated, ttl)
		s.broker.Publish(AuthChange{Event: UserUpdated, Session: updated.Clone()})
		count++
	}
	return count
}

func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	return s.broker.Subscribe(l)
}

func (s *Store) ListenerCount() int {
	return s.broker.Len()
}

// Close drops all sessions and listeners without notification.
func (s *Store) Close() {
	s.broker.Close()
	s.tokens.Flush()
}
