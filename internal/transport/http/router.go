package http

import (
	"context"
	"log"
	"net/http"

	"github.com/aidbridge-api/internal/application/location"
	"github.com/aidbridge-api/internal/application/notification"
	"github.com/aidbridge-api/internal/application/profile"
	"github.com/aidbridge-api/internal/application/request"
	"github.com/aidbridge-api/internal/application/role"
	"github.com/aidbridge-api/internal/application/session"
	"github.com/aidbridge-api/internal/config"
	"github.com/aidbridge-api/internal/domain"
	"github.com/aidbridge-api/internal/metrics"
	"github.com/aidbridge-api/internal/transport/http/handler"
	appmiddleware "github.com/aidbridge-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router. Background work the
// router starts, such as following role changes, stops when ctx is done.
func NewRouter(ctx context.Context, cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	if cfg.TrustProxyHeaders {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(chimiddleware.RequestLogger(&chimiddleware.DefaultLogFormatter{Logger: log.Default(), NoColor: true}))
	r.Use(chimiddleware.Recoverer)
	r.Use(metrics.InstrumentHandler)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var signer interface {
		Sign(userID, email, role, sessionID string) (string, error)
	}
	var verifier appmiddleware.TokenVerifier
	if deps.JWTProvider != nil {
		signer, verifier = deps.JWTProvider, deps.JWTProvider
	}

	// 5 requests/second, burst of 10, per client IP on sign-in, sign-up and writes.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	sessionSvc := session.NewService(session.ServiceDeps{
		AccountRepo:  deps.AccountRepo,
		SessionRepo:  deps.SessionRepo,
		ProfileRepo:  deps.ProfileRepo,
		RoleRepo:     deps.RoleRepo,
		JWTProvider:  signer,
		RoleCacheTTL: cfg.RoleCacheTTL,
	})
	if deps.Feed != nil {
		go sessionSvc.WatchRoles(ctx, deps.Feed)
	}
	locationSvc := location.NewService(deps.Geocoder, cfg.GeocoderTimeout)
	notifSvc := notification.NewService(deps.NotificationRepo, deps.ProfileRepo, deps.Feed, deps.SMSSender)
	profileSvc := profile.NewService(deps.ProfileRepo, locationSvc)
	requestSvc := request.NewService(request.ServiceDeps{
		Repo:      deps.RequestRepo,
		Profiles:  deps.ProfileRepo,
		Locator:   locationSvc,
		Notifier:  notifSvc,
		Images:    deps.ImageStore,
		Publisher: deps.Feed,
		Limits: request.Limits{
			DefaultPage:    cfg.ListDefaultLimit,
			MaxPage:        cfg.ListMaxLimit,
			NearbyRadiusKm: cfg.NearbyRadiusKm,
			MaxImageBytes:  cfg.MaxImageBytes,
		},
	})

	roleSvc := role.NewService(deps.RoleRepo, sessionSvc, deps.Feed)

	authMw := appmiddleware.Auth(verifier, sessionSvc)

	healthH := handler.NewHealthHandler()
	sessionH := handler.NewSessionHandler(sessionSvc)
	requestH := handler.NewRequestHandler(requestSvc, cfg.MaxImageBytes)
	notifH := handler.NewNotificationHandler(notifSvc)
	profileH := handler.NewProfileHandler(profileSvc)
	locationH := handler.NewLocationHandler(locationSvc)
	feedH := handler.NewFeedHandler(deps.Feed, cfg.AllowedOrigins)
	roleH := handler.NewRoleHandler(roleSvc)

	r.Handle("/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/sessions/signup", sessionH.SignUp)
		r.With(sensitiveRL.Limit).Post("/sessions/signin", sessionH.SignIn)
		r.Get("/requests", requestH.List)
		r.Get("/requests/map", requestH.Map)
		r.Get("/requests/{id}", requestH.Get)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/sessions", sessionH.Current)
			r.Post("/sessions/signout", sessionH.SignOut)

			r.With(sensitiveRL.Limit).Post("/requests", requestH.Create)
			r.Put("/requests/{id}/image", requestH.AttachImage)
			r.Get("/dashboard", requestH.Dashboard)

			r.Get("/notifications", notifH.ListUnread)
			r.Put("/notifications/{id}/read", notifH.MarkRead)

			r.Get("/profile", profileH.Get)
			r.Put("/profile/location", profileH.UpdateLocation)
			r.With(sensitiveRL.Limit).Post("/locations/resolve", locationH.Resolve)

			r.Get("/feed", feedH.Stream)

			// Helper-only routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireHelper)

				r.With(sensitiveRL.Limit).Post("/requests/{id}/claim", requestH.Claim)
				r.Get("/requests/nearby", requestH.Nearby)
			})

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.Get("/users/{id}/role", roleH.Get)
				r.Put("/users/{id}/role", roleH.Assign)
			})
		})
	})

	return r
}
