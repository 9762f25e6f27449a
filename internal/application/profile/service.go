package profile

import (
	"context"
	"fmt"
	"time"

	"github.com/aidbridge-api/internal/domain"
)

type profileStore interface {
	Get(ctx context.Context, userID string) (*domain.Profile, error)
	UpdateLocation(ctx context.Context, userID string, loc domain.Location, at time.Time) (*domain.Profile, error)
}

type locator interface {
	FromReport(ctx context.Context, report domain.PositionReport) (domain.Location, error)
}

type Service interface {
	Get(ctx context.Context, sc *domain.SessionContext) (*domain.Profile, error)
	// UpdateLocation stores the helper's position from a device reading or a
	// map pick, with its address resolved.
	UpdateLocation(ctx context.Context, sc *domain.SessionContext, report domain.PositionReport) (*domain.Profile, error)
}

type service struct {
	repo    profileStore
	locator locator
}

func NewService(repo profileStore, locator locator) Service {
	return &service{repo: repo, locator: locator}
}

func (s *service) Get(ctx context.Context, sc *domain.SessionContext) (*domain.Profile, error) {
	if !sc.Authenticated() {
		return nil, fmt.Errorf("sign in to view your profile: %w", domain.ErrPermission)
	}
	return s.repo.Get(ctx, sc.UserID)
}

func (s *service) UpdateLocation(ctx context.Context, sc *domain.SessionContext, report domain.PositionReport) (*domain.Profile, error) {
	if !sc.Authenticated() {
		return nil, fmt.Errorf("sign in to set your location: %w", domain.ErrPermission)
	}
	loc, err := s.locator.FromReport(ctx, report)
	if err != nil {
		return nil, err
	}
	return s.repo.UpdateLocation(ctx, sc.UserID, loc, time.Now().UTC())
}
