package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/pulsechat/internal/store"
)

var (
	// ErrCredentialsRequired is returned when nickname or key is empty.
	ErrCredentialsRequired = errors.New("nickname and key required")
	// ErrGuestNickname is returned when a guest-prefixed nickname tries to use credentials.
	ErrGuestNickname = errors.New("guest nickname cannot sign up")
	// ErrIncorrectKey is returned when the key does not match the stored hash.
	ErrIncorrectKey = errors.New("incorrect key")
	// ErrSignupFailed is returned when a new account could not be persisted.
	ErrSignupFailed = errors.New("signup failed")
	// ErrStoreUnavailable is returned when the credential store could not be read.
	ErrStoreUnavailable = errors.New("credential store unavailable")
)

// Identity is the resolved profile of a successfully authenticated nickname.
type Identity struct {
	Nickname   string
	Decoration string
	Avatar     string
	// Created is true when this call created the account.
	Created bool
}

// Service provides the signup-or-login flow against the credential store.
type Service struct {
	users       store.UserStore
	guestPrefix string
	hashCost    int
	log         *zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithGuestPrefix sets the reserved nickname prefix of ephemeral guests.
func WithGuestPrefix(prefix string) Option {
	return func(s *Service) {
		if prefix != "" {
			s.guestPrefix = prefix
		}
	}
}

// WithHashCost sets the bcrypt cost for new accounts.
func WithHashCost(cost int) Option {
	return func(s *Service) {
		s.hashCost = cost
	}
}

// WithLogger attaches a logger for failures that do not fail the login.
func WithLogger(logger *zerolog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.log = logger
		}
	}
}

// NewService creates a new authentication service.
func NewService(users store.UserStore, opts ...Option) *Service {
	nop := zerolog.Nop()
	s := &Service{
		users:       users,
		guestPrefix: "Guest",
		hashCost:    DefaultHashCost,
		log:         &nop,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GuestPrefix returns the reserved guest nickname prefix.
func (s *Service) GuestPrefix() string {
	return s.guestPrefix
}

// IsGuest reports whether nickname marks an ephemeral guest identity.
func (s *Service) IsGuest(nickname string) bool {
	return strings.HasPrefix(nickname, s.guestPrefix)
}

// SignupOrLogin creates the account on first use of a nickname and authenticates against it afterwards.
// Empty decoration or avatar fall back to the stored values; non-empty values that differ are persisted.
func (s *Service) SignupOrLogin(ctx context.Context, nickname, key, decoration, avatar string) (*Identity, error) {
	if nickname == "" || key == "" {
		return nil, ErrCredentialsRequired
	}
	if s.IsGuest(nickname) {
		return nil, ErrGuestNickname
	}

	user, err := s.users.GetUser(ctx, nickname)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return s.signup(ctx, nickname, key, decoration, avatar)
	case err != nil:
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	return s.login(ctx, user, key, decoration, avatar)
}

func (s *Service) signup(ctx context.Context, nickname, key, decoration, avatar string) (*Identity, error) {
	hash, err := HashKey(key, s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSignupFailed, err)
	}

	err = s.users.CreateUser(ctx, &store.User{
		Nickname:     nickname,
		PasswordHash: hash,
		Decoration:   decoration,
		Avatar:       avatar,
	})
	if errors.Is(err, store.ErrUserExists) {
		// Another connection created the account first; authenticate against it.
		user, getErr := s.users.GetUser(ctx, nickname)
		if getErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrSignupFailed, getErr)
		}
		return s.login(ctx, user, key, decoration, avatar)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSignupFailed, err)
	}

	return &Identity{
		Nickname:   nickname,
		Decoration: decoration,
		Avatar:     avatar,
		Created:    true,
	}, nil
}

func (s *Service) login(ctx context.Context, user *store.User, key, decoration, avatar string) (*Identity, error) {
	if err := CompareKey(user.PasswordHash, key); err != nil {
		return nil, ErrIncorrectKey
	}
	if NeedsRehash(user.PasswordHash) {
		s.upgradeHash(ctx, user.Nickname, key)
	}

	identity := &Identity{
		Nickname:   user.Nickname,
		Decoration: firstNonEmpty(decoration, user.Decoration),
		Avatar:     firstNonEmpty(avatar, user.Avatar),
	}

	changed := (decoration != "" && decoration != user.Decoration) ||
		(avatar != "" && avatar != user.Avatar)
	if changed {
		if err := s.users.UpdateUserProfile(ctx, user.Nickname, identity.Decoration, identity.Avatar); err != nil {
			s.log.Error().Err(err).Str("nickname", user.Nickname).Msg("failed to persist profile update")
		}
	}

	return identity, nil
}

// upgradeHash replaces a legacy hash after a successful login. Failures keep the old hash.
func (s *Service) upgradeHash(ctx context.Context, nickname, key string) {
	hash, err := HashKey(key, s.hashCost)
	if err == nil {
		err = s.users.UpdateUserKey(ctx, nickname, hash)
	}
	if err != nil {
		s.log.Warn().Err(err).Str("nickname", nickname).Msg("failed to upgrade legacy key hash")
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
