// Package auth runs the login, registration and logout round-trips and
// keeps the persisted and in-memory session in step with them.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nissyi-gh/teamflow/internal/api"
	"github.com/nissyi-gh/teamflow/internal/clock"
	"github.com/nissyi-gh/teamflow/internal/model"
	"github.com/nissyi-gh/teamflow/internal/session"
)

// Remote is the auth half of the service API.
type Remote interface {
	Login(ctx context.Context, email, password string) (api.AuthResponse, error)
	Signup(ctx context.Context, name, email, password, confirmation string) (api.AuthResponse, error)
	Logout(ctx context.Context) error
}

// Persister is durable session storage.
type Persister interface {
	Load(ctx context.Context) (model.Session, error)
	Save(ctx context.Context, sess model.Session) error
	Clear(ctx context.Context) error
}

// Service is the single writer of the client session.
type Service struct {
	remote Remote
	store  Persister
	holder *session.Holder
	clock  clock.Clock
	logger *slog.Logger

	// mu serializes login, register, logout and restore.
	mu sync.Mutex
}

// NewService wires a Service. The holder must be the one the API client
// reads its bearer token from.
func NewService(remote Remote, store Persister, holder *session.Holder, clk clock.Clock, logger *slog.Logger) *Service {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{remote: remote, store: store, holder: holder, clock: clk, logger: logger}
}

// Current returns the active session.
func (s *Service) Current() model.Session {
	return s.holder.Session()
}

// Restore loads the persisted session at startup. A token that is
// already expired is discarded instead of restored.
func (s *Service) Restore(ctx context.Context) (model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.store.Load(ctx)
	if err != nil {
		return model.Session{}, fmt.Errorf("restore session: %w", err)
	}
	if !sess.Authenticated() {
		s.holder.Clear()
		return model.Session{}, nil
	}
	if session.Expired(sess.Token, s.clock.Now()) {
		s.logger.Info("discarding expired session", "user_id", sess.User.ID)
		if err := s.store.Clear(ctx); err != nil {
			return model.Session{}, fmt.Errorf("clear expired session: %w", err)
		}
		s.holder.Clear()
		return model.Session{}, nil
	}
	s.holder.Set(sess)
	return sess, nil
}

// Login authenticates and installs the new session. On failure the
// current session is left as it was.
func (s *Service) Login(ctx context.Context, email, password string) (model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp, err := s.remote.Login(ctx, email, password)
	if err != nil {
		return model.Session{}, classifyLogin(err)
	}
	return s.install(ctx, resp)
}

// Register creates an account and installs its session. Only the first
// field error the service reports is surfaced.
func (s *Service) Register(ctx context.Context, name, email, password, confirmation string) (model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp, err := s.remote.Signup(ctx, name, email, password, confirmation)
	if err != nil {
		return model.Session{}, classify(err)
	}
	return s.install(ctx, resp)
}

func (s *Service) install(ctx context.Context, resp api.AuthResponse) (model.Session, error) {
	sess := model.Session{Token: resp.Token, User: resp.User}
	if err := s.store.Save(ctx, sess); err != nil {
		return model.Session{}, fmt.Errorf("persist session: %w", err)
	}
	s.holder.Set(sess)
	s.logger.Info("signed in", "user_id", sess.User.ID)
	return sess, nil
}

// Logout asks the service to invalidate the token, then clears the
// session locally no matter how that went. Only a local storage failure
// is returned.
func (s *Service) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.holder.Session().Authenticated() {
		if err := s.remote.Logout(ctx); err != nil {
			s.logger.Warn("remote logout failed; clearing local session anyway", "error", err)
		}
	}
	s.holder.Clear()
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.logger.Info("signed out")
	return nil
}
