package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aidbridge-api/internal/changefeed"
	"github.com/aidbridge-api/internal/domain"
	"github.com/aidbridge-api/internal/pkg/id"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultRoleCacheSize = 4096
	defaultRoleCacheTTL  = 30 * time.Second
)

type accountStore interface {
	Put(ctx context.Context, a *domain.Account) error
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
}

type sessionStore interface {
	Put(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	Disable(ctx context.Context, sessionID string) error
}

type profileStore interface {
	Put(ctx context.Context, p *domain.Profile) error
}

type roleStore interface {
	Put(ctx context.Context, ur *domain.UserRole) error
	Get(ctx context.Context, userID string) (*domain.UserRole, error)
}

var errSigningDisabled = fmt.Errorf("token signing is not configured: %w", domain.ErrUnauthorized)

type tokenSigner interface {
	Sign(userID, email, role, sessionID string) (string, error)
}

// Result is what a successful sign-up or sign-in hands back.
type Result struct {
	Bearer  string                `json:"bearer"`
	Session *domain.Session       `json:"session"`
	User    domain.SessionContext `json:"user"`
}

type Service interface {
	SignUp(ctx context.Context, req domain.SignUpRequest) (*Result, error)
	SignIn(ctx context.Context, req domain.SignInRequest) (*Result, error)
	SignOut(ctx context.Context, sessionID string) error
	// Current rebuilds the caller's session context from verified token
	// claims. The role is cached per user for at most the cache TTL.
	Current(ctx context.Context, userID, email, sessionID string) (*domain.SessionContext, error)
	InvalidateRole(userID string)
	// WatchRoles drops cached roles named by user_roles change events until
	// ctx is done, so assignments made on another replica apply here too.
	WatchRoles(ctx context.Context, sub changefeed.Subscriber)
}

type ServiceDeps struct {
	AccountRepo   accountStore
	SessionRepo   sessionStore
	ProfileRepo   profileStore
	RoleRepo      roleStore
	JWTProvider   tokenSigner // nil disables sign-in
	RoleCacheSize int
	RoleCacheTTL  time.Duration
}

type service struct {
	accounts accountStore
	sessions sessionStore
	profiles profileStore
	roles    roleStore
	signer   tokenSigner
	roleByID *expirable.LRU[string, domain.Role]
}

func NewService(deps ServiceDeps) Service {
	size := deps.RoleCacheSize
	if size <= 0 {
		size = defaultRoleCacheSize
	}
	ttl := deps.RoleCacheTTL
	if ttl <= 0 {
		ttl = defaultRoleCacheTTL
	}
	return &service{
		accounts: deps.AccountRepo,
		sessions: deps.SessionRepo,
		profiles: deps.ProfileRepo,
		roles:    deps.RoleRepo,
		signer:   deps.JWTProvider,
		roleByID: expirable.NewLRU[string, domain.Role](size, nil, ttl),
	}
}

func (s *service) SignUp(ctx context.Context, req domain.SignUpRequest) (*Result, error) {
	if err := domain.ValidateSignUp(req); err != nil {
		return nil, err
	}
	if s.signer == nil {
		return nil, errSigningDisabled
	}
	email := normalizeEmail(req.Email)
	if _, err := s.accounts.GetByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC()
	account := &domain.Account{
		UserID:       id.New(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
	}
	// The account row goes last. It is what takes the email, so a failure
	// before it leaves only rows keyed by an unused user id, and the caller
	// can retry.
	if err := s.profiles.Put(ctx, &domain.Profile{
		UserID:    account.UserID,
		FullName:  strings.TrimSpace(req.FullName),
		CreatedAt: now,
	}); err != nil {
		return nil, err
	}
	role := domain.RoleForSignUp(req.Role)
	if err := s.roles.Put(ctx, &domain.UserRole{UserID: account.UserID, Role: role, CreatedAt: now}); err != nil {
		return nil, err
	}
	if err := s.accounts.Put(ctx, account); err != nil {
		return nil, err
	}
	s.roleByID.Add(account.UserID, role)

	return s.open(ctx, account, role)
}

func (s *service) SignIn(ctx context.Context, req domain.SignInRequest) (*Result, error) {
	account, err := s.accounts.GetByEmail(ctx, normalizeEmail(req.Email))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	role, err := s.role(ctx, account.UserID)
	if err != nil {
		return nil, err
	}
	return s.open(ctx, account, role)
}

func (s *service) open(ctx context.Context, account *domain.Account, role domain.Role) (*Result, error) {
	if s.signer == nil {
		return nil, errSigningDisabled
	}
	now := time.Now().UTC()
	sess := &domain.Session{
		SessionID: id.New(),
		UserID:    account.UserID,
		Enable:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.sessions.Put(ctx, sess); err != nil {
		return nil, err
	}
	bearer, err := s.signer.Sign(account.UserID, account.Email, string(role), sess.SessionID)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Result{
		Bearer:  bearer,
		Session: sess,
		User: domain.SessionContext{
			UserID:    account.UserID,
			Email:     account.Email,
			SessionID: sess.SessionID,
			Role:      role,
		},
	}, nil
}

func (s *service) SignOut(ctx context.Context, sessionID string) error {
	return s.sessions.Disable(ctx, sessionID)
}

func (s *service) Current(ctx context.Context, userID, email, sessionID string) (*domain.SessionContext, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("unknown session: %w", domain.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	if !sess.Enable || sess.UserID != userID {
		return nil, fmt.Errorf("session expired: %w", domain.ErrUnauthorized)
	}
	role, err := s.role(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &domain.SessionContext{UserID: userID, Email: email, SessionID: sessionID, Role: role}, nil
}

func (s *service) InvalidateRole(userID string) {
	s.roleByID.Remove(userID)
}

func (s *service) WatchRoles(ctx context.Context, sub changefeed.Subscriber) {
	events, cancel := sub.Subscribe(ctx, changefeed.Subscription{Table: domain.TableUserRoles})
	defer cancel()
	for ev := range events {
		s.InvalidateRole(ev.RecordID)
	}
}

// role reads a user's role through the cache. A user without a role row is
// a recipient.
func (s *service) role(ctx context.Context, userID string) (domain.Role, error) {
	if r, ok := s.roleByID.Get(userID); ok {
		return r, nil
	}
	ur, err := s.roles.Get(ctx, userID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		s.roleByID.Add(userID, domain.RoleRecipient)
		return domain.RoleRecipient, nil
	case err != nil:
		return "", err
	}
	s.roleByID.Add(userID, ur.Role)
	return ur.Role, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
