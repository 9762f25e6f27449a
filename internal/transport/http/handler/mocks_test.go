package handler

import (
	"context"
	"net/http"

	"github.com/aidbridge-api/internal/application/request"
	"github.com/aidbridge-api/internal/application/session"
	"github.com/aidbridge-api/internal/changefeed"
	"github.com/aidbridge-api/internal/domain"
	"github.com/aidbridge-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
)

// --- mocks ---

type mockRequestSvc struct{ mock.Mock }

func (m *mockRequestSvc) Create(ctx context.Context, sc *domain.SessionContext, in domain.CreateRequestInput) (*domain.AidRequest, error) {
	args := m.Called(ctx, sc, in)
	return reqOrNil(args.Get(0)), args.Error(1)
}

func (m *mockRequestSvc) Get(ctx context.Context, requestID string) (*domain.AidRequest, error) {
	args := m.Called(ctx, requestID)
	return reqOrNil(args.Get(0)), args.Error(1)
}

func (m *mockRequestSvc) Claim(ctx context.Context, sc *domain.SessionContext, requestID string) (*domain.AidRequest, error) {
	args := m.Called(ctx, sc, requestID)
	return reqOrNil(args.Get(0)), args.Error(1)
}

func (m *mockRequestSvc) AttachImage(ctx context.Context, sc *domain.SessionContext, requestID string, up request.Upload) (*domain.AidRequest, error) {
	args := m.Called(ctx, sc, requestID, up)
	return reqOrNil(args.Get(0)), args.Error(1)
}

func (m *mockRequestSvc) List(ctx context.Context, f domain.RequestFilter) (domain.RequestPage, error) {
	args := m.Called(ctx, f)
	return args.Get(0).(domain.RequestPage), args.Error(1)
}

func (m *mockRequestSvc) Dashboard(ctx context.Context, sc *domain.SessionContext) (*domain.Dashboard, error) {
	args := m.Called(ctx, sc)
	if d, _ := args.Get(0).(*domain.Dashboard); d != nil {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRequestSvc) Nearby(ctx context.Context, sc *domain.SessionContext, radiusKm float64) ([]domain.NearbyRequest, error) {
	args := m.Called(ctx, sc, radiusKm)
	if n, _ := args.Get(0).([]domain.NearbyRequest); n != nil {
		return n, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRequestSvc) MapPins(ctx context.Context) (*domain.MapView, error) {
	args := m.Called(ctx)
	if v, _ := args.Get(0).(*domain.MapView); v != nil {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func reqOrNil(v interface{}) *domain.AidRequest {
	r, _ := v.(*domain.AidRequest)
	return r
}

type mockNotificationSvc struct{ mock.Mock }

func (m *mockNotificationSvc) Notify(ctx context.Context, recipient, requestID, message string) (*domain.Notification, error) {
	args := m.Called(ctx, recipient, requestID, message)
	if n, _ := args.Get(0).(*domain.Notification); n != nil {
		return n, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockNotificationSvc) ListUnread(ctx context.Context, userID string) ([]domain.Notification, error) {
	args := m.Called(ctx, userID)
	if n, _ := args.Get(0).([]domain.Notification); n != nil {
		return n, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockNotificationSvc) MarkRead(ctx context.Context, notificationID, userID string) error {
	return m.Called(ctx, notificationID, userID).Error(0)
}

type mockSessionSvc struct{ mock.Mock }

func (m *mockSessionSvc) SignUp(ctx context.Context, req domain.SignUpRequest) (*session.Result, error) {
	args := m.Called(ctx, req)
	if r, _ := args.Get(0).(*session.Result); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSessionSvc) SignIn(ctx context.Context, req domain.SignInRequest) (*session.Result, error) {
	args := m.Called(ctx, req)
	if r, _ := args.Get(0).(*session.Result); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSessionSvc) SignOut(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

func (m *mockSessionSvc) Current(ctx context.Context, userID, email, sessionID string) (*domain.SessionContext, error) {
	args := m.Called(ctx, userID, email, sessionID)
	if sc, _ := args.Get(0).(*domain.SessionContext); sc != nil {
		return sc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSessionSvc) InvalidateRole(userID string) { m.Called(userID) }
func (m *mockSessionSvc) WatchRoles(ctx context.Context, sub changefeed.Subscriber) {
	m.Called(ctx, sub)
}

// --- helpers ---

var (
	recipientSC = &domain.SessionContext{UserID: "u-recipient", SessionID: "s1", Role: domain.RoleRecipient}
	helperSC    = &domain.SessionContext{UserID: "u-helper", SessionID: "s2", Role: domain.RoleDonor}
)

// as attaches sc to r the way the auth middleware does.
func as(r *http.Request, sc *domain.SessionContext) *http.Request {
	return r.WithContext(middleware.WithSession(r.Context(), sc))
}

// withChiID injects a chi URL param "id" into the request context.
func withChiID(r *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
