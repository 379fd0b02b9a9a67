// Package session owns the authenticated identity of the running client.
// All mutations go through the named operations of Store.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/golang-jwt/jwt/v5"

	"smilegift/internal/api"
	"smilegift/internal/models"
	"smilegift/internal/notify"
	"smilegift/internal/observability"
	"smilegift/internal/tokenstore"
)

// ErrInvalidResponse is returned when a login or registration response lacks the token or the profile.
var ErrInvalidResponse = errors.New("invalid response from server")

// Notification texts.
const (
	MsgWelcomeBack        = "Welcome back!"
	MsgLoginFailed        = "Login failed"
	MsgAccountCreated     = "Account created successfully!"
	MsgRegistrationFailed = "Registration failed"
	MsgLoggedOut          = "Logged out successfully"
)

// AuthClient is the subset of the auth resource the store uses.
type AuthClient interface {
	Login(ctx context.Context, email, password string) (*api.AuthResult, error)
	Register(ctx context.Context, in models.RegisterInput) (*api.AuthResult, error)
	Me(ctx context.Context) (*models.User, error)
}

// Session is the authenticated identity and its credential.
type Session struct {
	UserID  string
	Token   string
	Profile *models.User
}

// Store holds at most one Session. A non-nil profile always has a persisted token behind it.
type Store struct {
	auth     AuthClient
	tokens   tokenstore.Store
	notifier notify.Notifier
	logger   *observability.SessionLogger

	initOnce sync.Once

	mu      sync.RWMutex
	current *Session
	loading bool
}

func New(auth AuthClient, tokens tokenstore.Store, notifier notify.Notifier) *Store {
	return &Store{
		auth:     auth,
		tokens:   tokens,
		notifier: notifier,
		logger:   observability.NewSessionLogger(),
		loading:  true,
	}
}

// Initialize restores the session from the persisted token. It runs once per
// Store; later calls return immediately. Failures leave the store logged out
// with the token cleared and are only logged.
func (s *Store) Initialize(ctx context.Context) {
	s.initOnce.Do(func() {
		s.restore(ctx)
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	})
}

func (s *Store) restore(ctx context.Context) {
	token, err := s.tokens.Get(ctx)
	if err != nil {
		s.logger.LogError(ctx, "restore", err)
		return
	}
	if token == "" {
		return
	}

	user, err := s.auth.Me(ctx)
	if err == nil && user == nil {
		err = ErrInvalidResponse
	}
	if err != nil {
		s.logger.LogError(ctx, "restore", err)
		if clearErr := s.tokens.Clear(ctx); clearErr != nil {
			s.logger.LogError(ctx, "restore", clearErr)
		}
		observability.SessionTeardowns.WithLabelValues("restore_failed").Inc()
		return
	}

	s.set(token, user)
	s.logger.LogEvent(ctx, "restore", map[string]interface{}{"user_id": user.ID})
}

// Login authenticates with credentials. On failure the server's message (or a
// generic one) is shown and the error returned.
func (s *Store) Login(ctx context.Context, email, password string) error {
	res, err := s.auth.Login(ctx, email, password)
	return s.establish(ctx, "login", res, err, MsgWelcomeBack, MsgLoginFailed)
}

// Register creates an account and signs in with it.
func (s *Store) Register(ctx context.Context, in models.RegisterInput) error {
	res, err := s.auth.Register(ctx, in)
	return s.establish(ctx, "register", res, err, MsgAccountCreated, MsgRegistrationFailed)
}

func (s *Store) establish(ctx context.Context, event string, res *api.AuthResult, err error, success, fallback string) error {
	if err == nil && (res == nil || res.Token == "" || res.User == nil) {
		err = ErrInvalidResponse
	}
	if err == nil {
		err = s.tokens.Set(ctx, res.Token)
	}
	if err != nil {
		s.logger.LogError(ctx, event, err)
		s.notifier.Error(models.MessageOr(err, fallback))
		return err
	}

	s.set(res.Token, res.User)
	s.logger.LogEvent(ctx, event, map[string]interface{}{"user_id": res.User.ID})
	s.notifier.Success(success)
	return nil
}

// Logout clears the token and the session. It cannot fail.
func (s *Store) Logout(ctx context.Context) {
	if err := s.tokens.Clear(ctx); err != nil {
		s.logger.LogError(ctx, "logout", err)
	}
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()

	observability.SessionTeardowns.WithLabelValues("logout").Inc()
	s.logger.LogEvent(ctx, "logout", nil)
	s.notifier.Success(MsgLoggedOut)
}

// Expire drops the in-memory session after the token was cleared elsewhere,
// e.g. by the HTTP client on a 401.
func (s *Store) Expire(ctx context.Context) {
	s.mu.Lock()
	had := s.current != nil
	s.current = nil
	s.mu.Unlock()

	if had {
		s.logger.LogEvent(ctx, "expire", nil)
	}
}

// UpdateUser shallow-merges p into the profile. No-op without a session.
func (s *Store) UpdateUser(p models.UserPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return
	}
	profile := *s.current.Profile
	profile.Apply(p)
	s.current.Profile = &profile
}

// RefreshUser replaces the profile with the server's. Any failure ends the session.
func (s *Store) RefreshUser(ctx context.Context) error {
	user, err := s.auth.Me(ctx)
	if err == nil && user == nil {
		err = ErrInvalidResponse
	}
	if err != nil {
		s.logger.LogError(ctx, "refresh", err)
		observability.SessionTeardowns.WithLabelValues("refresh_failed").Inc()
		s.Logout(ctx)
		return err
	}

	s.mu.Lock()
	if s.current != nil {
		s.current.Profile = user
		s.current.UserID = userID(user, s.current.Token)
	}
	s.mu.Unlock()
	return nil
}

// Current returns a copy of the session, if any.
func (s *Store) Current() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return Session{}, false
	}
	out := *s.current
	profile := *s.current.Profile
	out.Profile = &profile
	return out, true
}

// User returns the current profile or nil.
func (s *Store) User() *models.User {
	if sess, ok := s.Current(); ok {
		return sess.Profile
	}
	return nil
}

// ViewerID returns the signed-in user's id, or "" without a session.
func (s *Store) ViewerID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.UserID
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current != nil
}

// Loading reports whether Initialize has not finished yet.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Store) set(token string, user *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = &Session{UserID: userID(user, token), Token: token, Profile: user}
}

// userID prefers the profile id and falls back to the token's subject claim.
// The token is read without verification; the server is the authority.
func userID(user *models.User, token string) string {
	if user != nil && user.ID != "" {
		return user.ID
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return ""
	}
	for _, key := range []string{"userId", "id", "sub"} {
		if v, ok := claims[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
