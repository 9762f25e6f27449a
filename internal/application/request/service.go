package request

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"sort"
	"strings"
	"time"

	"github.com/aidbridge-api/internal/application/notification"
	"github.com/aidbridge-api/internal/changefeed"
	"github.com/aidbridge-api/internal/domain"
	"github.com/aidbridge-api/internal/metrics"
	"github.com/aidbridge-api/internal/pkg/geo"
	"github.com/aidbridge-api/internal/pkg/id"
)

type requestStore interface {
	Put(ctx context.Context, req *domain.AidRequest) error
	Get(ctx context.Context, requestID string) (*domain.AidRequest, error)
	Claim(ctx context.Context, requestID, claimant, claimSeq string, at time.Time) (*domain.AidRequest, error)
	SetImage(ctx context.Context, requestID, url string, at time.Time) (*domain.AidRequest, error)
	List(ctx context.Context, f domain.RequestFilter) (domain.RequestPage, error)
}

type profileReader interface {
	Get(ctx context.Context, userID string) (*domain.Profile, error)
}

type locator interface {
	Resolve(ctx context.Context, lat, lng float64) domain.Location
	MapCenter(requests []domain.AidRequest) domain.Coordinates
}

type notifier interface {
	Notify(ctx context.Context, recipient, requestID, message string) (*domain.Notification, error)
}

type imageStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
}

// Upload is an image attached to an existing request.
type Upload struct {
	Body        io.Reader
	Size        int64
	ContentType string
}

type Service interface {
	Create(ctx context.Context, sc *domain.SessionContext, in domain.CreateRequestInput) (*domain.AidRequest, error)
	Get(ctx context.Context, requestID string) (*domain.AidRequest, error)
	Claim(ctx context.Context, sc *domain.SessionContext, requestID string) (*domain.AidRequest, error)
	AttachImage(ctx context.Context, sc *domain.SessionContext, requestID string, up Upload) (*domain.AidRequest, error)
	List(ctx context.Context, f domain.RequestFilter) (domain.RequestPage, error)
	Dashboard(ctx context.Context, sc *domain.SessionContext) (*domain.Dashboard, error)
	Nearby(ctx context.Context, sc *domain.SessionContext, radiusKm float64) ([]domain.NearbyRequest, error)
	MapPins(ctx context.Context) (*domain.MapView, error)
}

// Limits bound listings and uploads.
type Limits struct {
	DefaultPage    int
	MaxPage        int
	NearbyRadiusKm float64
	MaxImageBytes  int64
	// ScanCap bounds how many open requests Nearby and MapPins read.
	ScanCap int
}

type ServiceDeps struct {
	Repo      requestStore
	Profiles  profileReader
	Locator   locator
	Notifier  notifier
	Images    imageStore // nil disables image upload
	Publisher changefeed.Publisher
	Limits    Limits
}

type service struct {
	repo      requestStore
	profiles  profileReader
	locator   locator
	notifier  notifier
	images    imageStore
	publisher changefeed.Publisher
	limits    Limits
	now       func() time.Time
}

func NewService(deps ServiceDeps) Service {
	l := deps.Limits
	if l.DefaultPage <= 0 {
		l.DefaultPage = 50
	}
	if l.MaxPage < l.DefaultPage {
		l.MaxPage = l.DefaultPage
	}
	if l.NearbyRadiusKm <= 0 {
		l.NearbyRadiusKm = 50
	}
	if l.MaxImageBytes <= 0 {
		l.MaxImageBytes = 5 * 1024 * 1024
	}
	if l.ScanCap <= 0 {
		l.ScanCap = 1000
	}
	return &service{
		repo:      deps.Repo,
		profiles:  deps.Profiles,
		locator:   deps.Locator,
		notifier:  deps.Notifier,
		images:    deps.Images,
		publisher: deps.Publisher,
		limits:    l,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create validates in and stores it as a new open request. Coordinates
// without an address get one from the location resolver.
func (s *service) Create(ctx context.Context, sc *domain.SessionContext, in domain.CreateRequestInput) (*domain.AidRequest, error) {
	if !sc.Authenticated() {
		return nil, fmt.Errorf("sign in to create a request: %w", domain.ErrPermission)
	}
	if strings.TrimSpace(in.Address) == "" && (domain.Coordinates{Lat: in.Lat, Lng: in.Lng}).IsSet() {
		if err := domain.ValidateCoordinates(in.Lat, in.Lng); err != nil {
			return nil, err
		}
		in.Address = s.locator.Resolve(ctx, in.Lat, in.Lng).Address
	}
	v, err := domain.ValidateRequest(in)
	if err != nil {
		return nil, err
	}

	now := s.now()
	req := &domain.AidRequest{
		RequestID:   id.At(now),
		Requester:   sc.UserID,
		Title:       v.Title,
		Description: v.Description,
		Category:    v.Category,
		Urgency:     v.Urgency,
		Status:      domain.StatusOpen,
		Location:    v.Location,
		CreatedAt:   now,
		UpdatedAt:   &now,
	}
	if err := s.repo.Put(ctx, req); err != nil {
		return nil, err
	}
	s.publish(ctx, domain.ChangeInsert, req)
	return req, nil
}

func (s *service) Get(ctx context.Context, requestID string) (*domain.AidRequest, error) {
	return s.repo.Get(ctx, requestID)
}

// Claim assigns an open request to the caller. The store applies the
// transition conditionally, so among concurrent claimers exactly one wins
// and the rest get ErrAlreadyClaimed. The requester is notified after the
// claim is committed; a notification failure does not undo the claim.
func (s *service) Claim(ctx context.Context, sc *domain.SessionContext, requestID string) (*domain.AidRequest, error) {
	if !sc.Authenticated() {
		metrics.RecordClaim("forbidden")
		return nil, fmt.Errorf("sign in to claim a request: %w", domain.ErrPermission)
	}
	current, err := s.repo.Get(ctx, requestID)
	if err != nil {
		recordClaimError(err)
		return nil, err
	}
	if current.Requester == sc.UserID {
		metrics.RecordClaim("forbidden")
		return nil, fmt.Errorf("cannot claim your own request: %w", domain.ErrPermission)
	}
	if !current.Status.CanTransitionTo(domain.StatusClaimed) {
		metrics.RecordClaim("already_claimed")
		return nil, fmt.Errorf("request is %s: %w", current.Status, domain.ErrAlreadyClaimed)
	}

	now := s.now()
	claimed, err := s.repo.Claim(ctx, requestID, sc.UserID, id.At(now), now)
	if err != nil {
		recordClaimError(err)
		return nil, err
	}
	metrics.RecordClaim("claimed")

	if _, err := s.notifier.Notify(ctx, claimed.Requester, claimed.RequestID, notification.ClaimMessage(claimed.Title)); err != nil {
		slog.Warn("claim committed but requester not notified",
			"request_id", claimed.RequestID, "requester", claimed.Requester, "err", err)
	}
	s.publish(ctx, domain.ChangeUpdate, claimed)
	return claimed, nil
}

func recordClaimError(err error) {
	switch {
	case errors.Is(err, domain.ErrAlreadyClaimed):
		metrics.RecordClaim("already_claimed")
	case errors.Is(err, domain.ErrNotFound):
		metrics.RecordClaim("not_found")
	default:
		metrics.RecordClaim("error")
	}
}

var imageExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// AttachImage uploads a photo for a request the caller owns and records its
// public URL on the request.
func (s *service) AttachImage(ctx context.Context, sc *domain.SessionContext, requestID string, up Upload) (*domain.AidRequest, error) {
	if !sc.Authenticated() {
		return nil, fmt.Errorf("sign in to upload images: %w", domain.ErrPermission)
	}
	if s.images == nil {
		return nil, fmt.Errorf("image storage is not configured: %w", domain.ErrNetwork)
	}
	mediaType, _, err := mime.ParseMediaType(up.ContentType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return nil, &domain.ValidationError{Field: "image", Message: "Please upload an image file"}
	}
	if up.Size <= 0 || up.Size > s.limits.MaxImageBytes {
		return nil, &domain.ValidationError{Field: "image", Message: "Image must be less than 5MB"}
	}

	req, err := s.repo.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Requester != sc.UserID {
		return nil, fmt.Errorf("only the requester can attach images: %w", domain.ErrPermission)
	}

	now := s.now()
	key := fmt.Sprintf("%s/%d.%s", sc.UserID, now.UnixMilli(), extensionFor(mediaType))
	url, err := s.images.Put(ctx, key, io.LimitReader(up.Body, up.Size), up.Size, mediaType)
	if err != nil {
		return nil, err
	}
	updated, err := s.repo.SetImage(ctx, requestID, url, now)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, domain.ChangeUpdate, updated)
	return updated, nil
}

func extensionFor(mediaType string) string {
	if ext, ok := imageExtensions[mediaType]; ok {
		return ext
	}
	if exts, _ := mime.ExtensionsByType(mediaType); len(exts) > 0 {
		return strings.TrimPrefix(exts[0], ".")
	}
	return strings.TrimPrefix(mediaType, "image/")
}

// List returns one page of requests, newest first.
func (s *service) List(ctx context.Context, f domain.RequestFilter) (domain.RequestPage, error) {
	if err := checkFilter(f); err != nil {
		return domain.RequestPage{}, err
	}
	f.Limit = s.pageSize(f.Limit)
	page, err := s.repo.List(ctx, f)
	if err != nil {
		return domain.RequestPage{}, err
	}
	if page.Items == nil {
		page.Items = []domain.AidRequest{}
	}
	return page, nil
}

func checkFilter(f domain.RequestFilter) error {
	if f.Category != "" && !f.Category.Valid() {
		return fmt.Errorf("unknown category %q: %w", f.Category, domain.ErrBadRequest)
	}
	if f.Urgency != "" && !f.Urgency.Valid() {
		return fmt.Errorf("unknown urgency %q: %w", f.Urgency, domain.ErrBadRequest)
	}
	if f.Status != "" && !f.Status.Valid() {
		return fmt.Errorf("unknown status %q: %w", f.Status, domain.ErrBadRequest)
	}
	return nil
}

func (s *service) pageSize(limit int) int {
	switch {
	case limit <= 0:
		return s.limits.DefaultPage
	case limit > s.limits.MaxPage:
		return s.limits.MaxPage
	}
	return limit
}

// Dashboard frames the first page of listings by the caller's role.
func (s *service) Dashboard(ctx context.Context, sc *domain.SessionContext) (*domain.Dashboard, error) {
	if !sc.Authenticated() {
		return nil, fmt.Errorf("sign in to view your dashboard: %w", domain.ErrPermission)
	}
	d := &domain.Dashboard{Role: sc.Role}
	if !sc.Role.IsHelper() {
		mine, err := s.List(ctx, domain.RequestFilter{Owner: sc.UserID})
		if err != nil {
			return nil, err
		}
		d.MyRequests = mine.Items
		return d, nil
	}

	available, err := s.List(ctx, domain.RequestFilter{Status: domain.StatusOpen})
	if err != nil {
		return nil, err
	}
	claimed, err := s.List(ctx, domain.RequestFilter{Claimant: sc.UserID})
	if err != nil {
		return nil, err
	}
	d.Available = available.Items
	d.Claimed = claimed.Items
	return d, nil
}

// Nearby lists open requests within radiusKm of the caller's saved
// location, closest first. Requests without a location are skipped.
func (s *service) Nearby(ctx context.Context, sc *domain.SessionContext, radiusKm float64) ([]domain.NearbyRequest, error) {
	if !sc.Authenticated() {
		return nil, fmt.Errorf("sign in to browse nearby requests: %w", domain.ErrPermission)
	}
	if radiusKm <= 0 {
		radiusKm = s.limits.NearbyRadiusKm
	}
	p, err := s.profiles.Get(ctx, sc.UserID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if !p.HasLocation() {
		return nil, fmt.Errorf("set your location to see nearby requests: %w", domain.ErrLocationRequired)
	}

	open, err := s.openRequests(ctx)
	if err != nil {
		return nil, err
	}
	origin := p.Location
	out := []domain.NearbyRequest{}
	for _, r := range open {
		if !r.Location.IsSet() {
			continue
		}
		d := geo.DistanceKm(origin.Lat, origin.Lng, r.Location.Lat, r.Location.Lng)
		if d <= radiusKm {
			out = append(out, domain.NearbyRequest{AidRequest: r, DistanceKm: d})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	return out, nil
}

// MapPins returns the open requests that can be placed on a map.
func (s *service) MapPins(ctx context.Context) (*domain.MapView, error) {
	open, err := s.openRequests(ctx)
	if err != nil {
		return nil, err
	}
	pins := []domain.AidRequest{}
	for _, r := range open {
		if r.Location.IsSet() {
			pins = append(pins, r)
		}
	}
	return &domain.MapView{Center: s.locator.MapCenter(pins), Pins: pins}, nil
}

// openRequests reads open requests newest first, up to the scan cap.
func (s *service) openRequests(ctx context.Context) ([]domain.AidRequest, error) {
	var all []domain.AidRequest
	f := domain.RequestFilter{Status: domain.StatusOpen}
	for len(all) < s.limits.ScanCap {
		f.Limit = min(s.limits.MaxPage, s.limits.ScanCap-len(all))
		page, err := s.repo.List(ctx, f)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Items...)
		if page.NextCursor == "" {
			break
		}
		f.Cursor = page.NextCursor
	}
	return all, nil
}

func (s *service) publish(ctx context.Context, typ domain.ChangeType, req *domain.AidRequest) {
	if s.publisher == nil {
		return
	}
	record, err := json.Marshal(req)
	if err != nil {
		slog.Warn("marshal request event", "request_id", req.RequestID, "err", err)
		return
	}
	cols := map[string]string{
		"user_id": req.Requester,
		"status":  string(req.Status),
	}
	if req.Claimant != nil {
		cols["claimed_by"] = *req.Claimant
	}
	ev := domain.ChangeEvent{
		Table:    domain.TableRequests,
		Type:     typ,
		RecordID: req.RequestID,
		Columns:  cols,
		Record:   record,
		At:       s.now(),
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		slog.Warn("publish request event", "request_id", req.RequestID, "err", err)
	}
}
