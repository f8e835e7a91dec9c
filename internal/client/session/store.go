// Package session holds the client's belief about its own authentication
// state: a single owned cell with a narrow mutation API, so the
// cross-cutting "any authorization failure logs you out" rule lives in
// exactly one place.
package session

import (
	"context"
	"sync"

	"github.com/spec-kit/user-directory/internal/client/api"
	"github.com/spec-kit/user-directory/internal/domain"
)

// State enumerates the belief states.
type State int

const (
	StateUnknown State = iota
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// SessionExpiredNotice is the user-visible message raised when a request
// comes back with an authorization failure.
const SessionExpiredNotice = "Session expired. Please log in again."

// Store is the client-side session belief cell.
type Store struct {
	mu       sync.Mutex
	state    State
	identity *domain.Summary
	notify   func(message string)
}

// NewStore starts in the Unknown state.
func NewStore() *Store {
	return &Store{state: StateUnknown}
}

// OnNotice registers the callback for user-visible session notices.
func (s *Store) OnNotice(fn func(message string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notify = fn
}

// State returns the current belief.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Identity returns the current account, or nil when not authenticated.
func (s *Store) Identity() *domain.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return nil
	}
	copied := *s.identity
	return &copied
}

// MarkAuthenticated records a confirmed identity.
func (s *Store) MarkAuthenticated(identity domain.Summary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateAuthenticated
	s.identity = &identity
}

// MarkUnauthenticated clears the belief synchronously.
func (s *Store) MarkUnauthenticated() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateUnauthenticated
	s.identity = nil
}

// HandleAuthFailure is registered as the API client's OnUnauthenticated
// hook. It fires for any request's authorization failure, regardless of
// which feature issued the request.
func (s *Store) HandleAuthFailure() {
	s.mu.Lock()
	wasAuthenticated := s.state == StateAuthenticated
	s.state = StateUnauthenticated
	s.identity = nil
	notify := s.notify
	s.mu.Unlock()

	if wasAuthenticated && notify != nil {
		notify(SessionExpiredNotice)
	}
}

// Bootstrap runs the startup sequence: verify the credential, then hydrate
// the identity projection. Any failure, network or authorization, leaves
// the store Unauthenticated.
func (s *Store) Bootstrap(ctx context.Context, client *api.Client) {
	ok, err := client.CheckAuth(ctx)
	if err != nil || !ok {
		s.MarkUnauthenticated()
		return
	}

	identity, err := client.Self(ctx)
	if err != nil {
		s.MarkUnauthenticated()
		return
	}

	s.MarkAuthenticated(*identity)
}

// Logout clears local belief first, then revokes the token server-side on
// a best-effort basis. The local clear never waits on the network.
func (s *Store) Logout(ctx context.Context, client *api.Client) {
	s.MarkUnauthenticated()
	_ = client.Logout(ctx)
}
