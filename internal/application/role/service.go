package role

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aidbridge-api/internal/changefeed"
	"github.com/aidbridge-api/internal/domain"
)

type roleStore interface {
	Put(ctx context.Context, ur *domain.UserRole) error
	Get(ctx context.Context, userID string) (*domain.UserRole, error)
}

// roleCache drops a user's cached role after it changes.
type roleCache interface {
	InvalidateRole(userID string)
}

type Service interface {
	// Get returns the user's role. A user without a role row is a recipient.
	Get(ctx context.Context, userID string) (*domain.UserRole, error)
	Assign(ctx context.Context, userID string, role domain.Role) (*domain.UserRole, error)
}

type service struct {
	repo      roleStore
	cache     roleCache
	publisher changefeed.Publisher
}

// NewService wires role management. cache is this replica's role cache and
// publisher carries the change to every other replica. Either may be nil.
func NewService(repo roleStore, cache roleCache, publisher changefeed.Publisher) Service {
	return &service{repo: repo, cache: cache, publisher: publisher}
}

func (s *service) Get(ctx context.Context, userID string) (*domain.UserRole, error) {
	ur, err := s.repo.Get(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.UserRole{UserID: userID, Role: domain.RoleRecipient}, nil
	}
	return ur, err
}

func (s *service) Assign(ctx context.Context, userID string, role domain.Role) (*domain.UserRole, error) {
	if !role.Valid() {
		return nil, &domain.ValidationError{Field: "role", Message: "Invalid role"}
	}
	ur := &domain.UserRole{UserID: userID, Role: role, CreatedAt: time.Now().UTC()}
	existing, err := s.repo.Get(ctx, userID)
	switch {
	case err == nil:
		ur.CreatedAt = existing.CreatedAt
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}
	if err := s.repo.Put(ctx, ur); err != nil {
		return nil, fmt.Errorf("assign role: %w", err)
	}
	if s.cache != nil {
		s.cache.InvalidateRole(userID)
	}
	if s.publisher != nil {
		ev := domain.ChangeEvent{
			Table:    domain.TableUserRoles,
			Type:     domain.ChangeUpdate,
			RecordID: userID,
			Columns:  map[string]string{"user_id": userID},
			At:       time.Now().UTC(),
		}
		if err := s.publisher.Publish(ctx, ev); err != nil {
			slog.Warn("role change not broadcast, other replicas rely on cache expiry", "user_id", userID, "err", err)
		}
	}
	return ur, nil
}
