package location

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aidbridge-api/internal/domain"
	"github.com/aidbridge-api/internal/pkg/geo"
)

// Geocoder turns coordinates into a human-readable address.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lng float64) (string, error)
}

type Service interface {
	// Resolve always yields a located address; when the geocoder fails the
	// address is the formatted coordinates.
	Resolve(ctx context.Context, lat, lng float64) domain.Location
	FromReport(ctx context.Context, report domain.PositionReport) (domain.Location, error)
	MapCenter(requests []domain.AidRequest) domain.Coordinates
}

type service struct {
	geocoder Geocoder
	timeout  time.Duration
}

// NewService builds a resolver. geocoder may be nil, in which case every
// address is the coordinate fallback.
func NewService(geocoder Geocoder, timeout time.Duration) Service {
	return &service{geocoder: geocoder, timeout: timeout}
}

func (s *service) Resolve(ctx context.Context, lat, lng float64) domain.Location {
	loc := domain.Location{Lat: lat, Lng: lng, Address: geo.FormatCoordinates(lat, lng)}
	if s.geocoder == nil {
		return loc
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	addr, err := s.geocoder.Reverse(ctx, lat, lng)
	if err != nil {
		slog.Warn("reverse geocoding failed, using coordinates", "lat", lat, "lng", lng, "err", err)
		return loc
	}
	if addr = strings.TrimSpace(addr); addr != "" {
		loc.Address = addr
	}
	return loc
}

var geoMessages = map[string]string{
	domain.GeoPermissionDenied:    "location permission denied",
	domain.GeoPositionUnavailable: "location information unavailable",
	domain.GeoTimeout:             "location request timed out",
	domain.GeoUnsupported:         "geolocation is not supported by this device",
}

// FromReport turns a device geolocation result or a map pick into a
// resolved location. A device error leaves the location unset.
func (s *service) FromReport(ctx context.Context, report domain.PositionReport) (domain.Location, error) {
	if report.Error != "" {
		msg, ok := geoMessages[report.Error]
		if !ok {
			msg = "unable to get location"
		}
		return domain.Location{}, fmt.Errorf("%s: %w", msg, domain.ErrPermission)
	}
	if report.Lat == nil || report.Lng == nil {
		return domain.Location{}, &domain.ValidationError{Field: "location", Message: "Coordinates are required"}
	}
	if err := domain.ValidateCoordinates(*report.Lat, *report.Lng); err != nil {
		return domain.Location{}, err
	}
	return s.Resolve(ctx, *report.Lat, *report.Lng), nil
}

// MapCenter centers a map on the first request that has a location.
func (s *service) MapCenter(requests []domain.AidRequest) domain.Coordinates {
	for _, r := range requests {
		if r.Location.IsSet() {
			return r.Location.Coordinates()
		}
	}
	return domain.DefaultMapCenter
}
