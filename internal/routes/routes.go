package routes

import (
	"log/slog"

	"github.com/ezhulati/texaslobbyorg-sub001/internal/auth"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/handlers"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/middleware"
	"github.com/go-chi/chi/v5"
)

// Handlers groups every HTTP handler mounted under /api.
type Handlers struct {
	Auth         *handlers.AuthHandler
	MFA          *handlers.MFAHandler
	Profile      *handlers.ProfileHandler
	Moderation   *handlers.ModerationHandler
	Admin        *handlers.AdminHandler
	Audit        *handlers.AuditHandler
	Subscription *handlers.SubscriptionHandler
	Search       *handlers.SearchHandler
	Bills        *handlers.BillHandler
	Support      *handlers.SupportHandler
}

// Guards are the authentication and limiting dependencies of the routes.
type Guards struct {
	Tokens        *auth.TokenManager
	Users         auth.UserRepository
	MFA           auth.MFAVerifier
	ReportLimiter middleware.Limiter
	Logger        *slog.Logger
}

// RegisterRoutes registers all application routes
func RegisterRoutes(router chi.Router, h Handlers, g Guards) {
	authLimit := middleware.RateLimitByIP(middleware.DefaultAuthRateLimit())
	writeLimit := middleware.RateLimitByUser(middleware.DefaultWriteRateLimit())
	authenticate := auth.Authenticate(g.Tokens, g.Users, g.Logger)

	// Public routes - no authentication required
	router.Route("/auth", func(r chi.Router) {
		r.With(authLimit).Post("/register", h.Auth.Register)
		r.With(authLimit).Post("/login", h.Auth.Login)
		r.With(authLimit).Post("/refresh", h.Auth.Refresh)
		r.With(authenticate).Get("/me", h.Auth.Me)
	})

	router.Get("/lobbyists", h.Search.ListLobbyists)
	router.Get("/lobbyists/{slug}", h.Search.GetBySlug)
	router.Get("/search", h.Search.Search)
	router.With(middleware.RateLimitByIP(middleware.DefaultWriteRateLimit())).Post("/ai-search", h.Search.AISearch)

	// The signature covers the raw body, so the webhook sits outside auth.
	router.Post("/stripe/webhook", h.Subscription.Webhook)

	router.With(
		auth.OptionalAuth(g.Tokens, g.Users, g.Logger),
		middleware.SharedRateLimit(g.ReportLimiter, g.Logger),
	).Post("/report-issue", h.Support.ReportIssue)

	// Protected routes - authentication required
	router.Group(func(r chi.Router) {
		r.Use(authenticate)

		r.Get("/profile/dashboard", h.Profile.Dashboard)
		r.Get("/favorites", h.Bills.Favorites)
		r.Get("/watchlist", h.Bills.Watchlist)
		r.Get("/bills/{billId}/tags", h.Bills.ListTags)

		// Writes
		r.Group(func(r chi.Router) {
			r.Use(writeLimit)

			r.Post("/profile/create", h.Profile.Create)
			r.Post("/profile/claim", h.Profile.Claim)
			r.Post("/profile/resubmit", h.Profile.Resubmit)
			r.Post("/profile/update-field", h.Profile.UpdateField)
			r.Post("/profile/request-role-upgrade", h.Profile.RequestRoleUpgrade)
			r.Post("/profile/request-merge", h.Profile.RequestMerge)
			r.Post("/profile/upload-document", h.Profile.UploadDocument)
			r.Post("/profile/{id}/photo", h.Profile.UploadPhoto)

			r.Post("/stripe/create-checkout-session", h.Subscription.Checkout)
			r.Post("/stripe/upgrade-subscription", h.Subscription.Upgrade)

			r.Post("/bills/{billId}/tags", h.Bills.AddTag)
			r.Post("/bills/{billId}/watch", h.Bills.ToggleWatch)
			r.Post("/favorites/toggle", h.Bills.ToggleFavorite)
		})

		// Admin-only routes
		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.RequireAdmin)

			r.Get("/dashboard", h.Admin.Dashboard)
			r.Get("/pending", h.Moderation.ListPending)
			r.Get("/claims/{id}/document", h.Moderation.ClaimDocumentURL)
			r.Get("/users", h.Admin.ListUsers)
			r.Get("/users/{id}/suspensions", h.Admin.ListSuspensions)
			r.Get("/audit-log", h.Audit.Recent)
			r.Get("/audit-log/{targetType}/{id}", h.Audit.ForTarget)
			r.Get("/mfa/status", h.MFA.GetStatus)

			r.Group(func(r chi.Router) {
				r.Use(writeLimit)

				r.Post("/mfa/setup", h.MFA.InitiateSetup)
				r.Post("/mfa/verify", h.MFA.VerifySetup)

				r.Post("/approve-lobbyist", h.Moderation.ApproveLobbyist)
				r.Post("/reject-lobbyist", h.Moderation.RejectLobbyist)
				r.Post("/approve-claim", h.Moderation.ApproveClaim)
				r.Post("/reject-claim", h.Moderation.RejectClaim)
				r.Post("/approve-role-upgrade", h.Moderation.ApproveRoleUpgrade)
				r.Post("/reject-role-upgrade", h.Moderation.RejectRoleUpgrade)
				r.Post("/approve-merge", h.Moderation.ApproveMerge)
				r.Post("/reject-merge", h.Moderation.RejectMerge)

				r.Post("/suspend-user", h.Admin.SuspendUser)
				r.Post("/unsuspend-user", h.Admin.UnsuspendUser)
				r.Post("/edit-user", h.Admin.EditUser)
				r.Post("/edit-lobbyist", h.Admin.EditLobbyist)
				r.Post("/update-lobbyist-tier", h.Admin.UpdateLobbyistTier)

				// Destructive actions require a current TOTP code once enrolled.
				r.With(auth.RequireMFA(g.MFA)).Post("/delete-user", h.Admin.DeleteUser)
				r.With(auth.RequireMFA(g.MFA)).Post("/delete-lobbyist", h.Admin.DeleteLobbyist)
			})
		})
	})
}
