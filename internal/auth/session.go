package auth

import (
	"context"
	"sync"

	"github.com/fjod/go_cart/mobile-cart/internal/domain"
)

// Session is the process-wide sign-in state of the app.
type Session struct {
	mu    sync.RWMutex
	user  *domain.User
	token string
}

func NewSession() *Session {
	return &Session{}
}

func (s *Session) Login(user domain.User, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = &user
	s.token = token
}

func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.token = ""
}

func (s *Session) IsAuthenticated(context.Context) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

func (s *Session) CurrentUser(context.Context) (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return domain.User{}, false
	}
	return *s.user, true
}

// Token returns the bearer token of the signed-in user.
func (s *Session) Token(context.Context) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}
