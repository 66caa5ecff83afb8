// Package account implements the signup, login and identity resolution flows
// on top of the password hasher, the token manager and a user store.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/geocoder89/accounts/internal/auth"
	"github.com/geocoder89/accounts/internal/domain/user"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/geocoder89/accounts/internal/account")

var (
	ErrDuplicateUser      = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrUnauthenticated    = errors.New("could not validate credentials")
	ErrAccountDisabled    = errors.New("inactive user")
	ErrUserNotFound       = errors.New("user not found")
)

const TokenTypeBearer = "bearer"

type UserStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id int64) (user.User, error)
	Create(ctx context.Context, u user.NewUser) (user.User, error)
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, stored string) bool
	DummyVerify(plain string)
}

type TokenManager interface {
	NewAccessToken(subject string) (string, error)
	NewRefreshToken(subject string) (string, error)
	ValidateAccess(token string) (string, error)
	ValidateRefresh(token string) (string, error)
}

// Recorder receives one event per flow outcome, e.g. ("login", "invalid_credentials").
type Recorder interface {
	AuthEvent(op, result string)
}

type NewAccount struct {
	Email     string
	FirstName string
	LastName  string
	Password  string
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

type Service struct {
	users    UserStore
	hasher   PasswordHasher
	tokens   TokenManager
	recorder Recorder
	log      *slog.Logger
}

func NewService(users UserStore, hasher PasswordHasher, tokens TokenManager, recorder Recorder, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}

	return &Service{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		recorder: recorder,
		log:      log,
	}
}

func (s *Service) SignUp(ctx context.Context, in NewAccount) (user.User, error) {
	ctx, span := tracer.Start(ctx, "account.SignUp")
	defer span.End()

	_, err := s.users.GetByEmail(ctx, in.Email)

	switch {
	case err == nil:
		s.record(ctx, "signup", "duplicate_user")
		return user.User{}, ErrDuplicateUser
	case !errors.Is(err, user.ErrNotFound):
		s.record(ctx, "signup", "error")
		return user.User{}, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)

	if err != nil {
		s.record(ctx, "signup", "error")
		return user.User{}, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.users.Create(ctx, user.NewUser{
		Email:          in.Email,
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		HashedPassword: hash,
	})

	if err != nil {
		// lost a race with a concurrent signup for the same email
		if errors.Is(err, user.ErrEmailTaken) {
			s.record(ctx, "signup", "duplicate_user")
			return user.User{}, ErrDuplicateUser
		}

		s.record(ctx, "signup", "error")
		return user.User{}, fmt.Errorf("create user: %w", err)
	}

	s.record(ctx, "signup", "ok")
	s.log.InfoContext(ctx, "user signed up", "user_id", created.ID)

	return created, nil
}

// Login never tells an unknown email apart from a wrong password: both return
// ErrInvalidCredentials after one bcrypt comparison.
func (s *Service) Login(ctx context.Context, email, password string) (TokenPair, error) {
	ctx, span := tracer.Start(ctx, "account.Login")
	defer span.End()

	found, err := s.users.GetByEmail(ctx, email)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			s.hasher.DummyVerify(password)
			s.record(ctx, "login", "invalid_credentials")
			return TokenPair{}, ErrInvalidCredentials
		}

		s.record(ctx, "login", "error")
		return TokenPair{}, fmt.Errorf("lookup user: %w", err)
	}

	if !s.hasher.Verify(password, found.HashedPassword) {
		s.record(ctx, "login", "invalid_credentials")
		return TokenPair{}, ErrInvalidCredentials
	}

	pair, err := s.issuePair(found.Email)

	if err != nil {
		s.record(ctx, "login", "error")
		return TokenPair{}, err
	}

	s.record(ctx, "login", "ok")

	return pair, nil
}

// ResolveIdentity turns an access token into the user it was issued for.
// Every failure wraps ErrUnauthenticated together with its cause, except a
// disabled account which yields ErrAccountDisabled.
func (s *Service) ResolveIdentity(ctx context.Context, accessToken string) (user.User, error) {
	ctx, span := tracer.Start(ctx, "account.ResolveIdentity")
	defer span.End()

	subject, err := s.tokens.ValidateAccess(accessToken)

	if err != nil {
		return user.User{}, s.unauthenticated(ctx, "identity", err)
	}

	return s.activeUser(ctx, "identity", subject)
}

// Refresh mints a new access token from a refresh token. The refresh token is
// handed back unchanged; nothing is stored, so nothing can be revoked.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	ctx, span := tracer.Start(ctx, "account.Refresh")
	defer span.End()

	subject, err := s.tokens.ValidateRefresh(refreshToken)

	if err != nil {
		return TokenPair{}, s.unauthenticated(ctx, "refresh", err)
	}

	u, err := s.activeUser(ctx, "refresh", subject)

	if err != nil {
		return TokenPair{}, err
	}

	access, err := s.tokens.NewAccessToken(u.Email)

	if err != nil {
		s.record(ctx, "refresh", "error")
		return TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}

	return TokenPair{
		AccessToken:  access,
		RefreshToken: refreshToken,
		TokenType:    TokenTypeBearer,
	}, nil
}

func (s *Service) Profile(ctx context.Context, id int64) (user.User, error) {
	ctx, span := tracer.Start(ctx, "account.Profile")
	defer span.End()

	u, err := s.users.GetByID(ctx, id)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, fmt.Errorf("%w: id %d", ErrUserNotFound, id)
		}
		return user.User{}, fmt.Errorf("lookup user: %w", err)
	}

	return u, nil
}

func (s *Service) activeUser(ctx context.Context, op, email string) (user.User, error) {
	u, err := s.users.GetByEmail(ctx, email)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, s.unauthenticated(ctx, op, ErrUserNotFound)
		}

		s.record(ctx, op, "error")
		return user.User{}, fmt.Errorf("lookup user: %w", err)
	}

	if u.Disabled {
		s.record(ctx, op, "account_disabled")
		return user.User{}, ErrAccountDisabled
	}

	s.record(ctx, op, "ok")

	return u, nil
}

func (s *Service) unauthenticated(ctx context.Context, op string, cause error) error {
	reason := Reason(cause)
	s.record(ctx, op, reason)
	s.log.DebugContext(ctx, "token rejected", "op", op, "reason", reason, "err", cause)

	return fmt.Errorf("%w: %w", ErrUnauthenticated, cause)
}

func (s *Service) issuePair(subject string) (TokenPair, error) {
	access, err := s.tokens.NewAccessToken(subject)

	if err != nil {
		return TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}

	refresh, err := s.tokens.NewRefreshToken(subject)

	if err != nil {
		return TokenPair{}, fmt.Errorf("issue refresh token: %w", err)
	}

	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    TokenTypeBearer,
	}, nil
}

func (s *Service) record(ctx context.Context, op, result string) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("auth.result", result))

	if s.recorder != nil {
		s.recorder.AuthEvent(op, result)
	}
}

// Reason is a short label for why a token or identity was rejected.
func Reason(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, auth.ErrExpired):
		return "expired"
	case errors.Is(err, auth.ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, auth.ErrMissingSubject):
		return "missing_subject"
	case errors.Is(err, auth.ErrMalformed):
		return "malformed"
	case errors.Is(err, ErrUserNotFound):
		return "user_not_found"
	case errors.Is(err, ErrAccountDisabled):
		return "account_disabled"
	default:
		return "unknown"
	}
}
