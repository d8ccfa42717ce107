package routes

import (
	"strings"
	"time"

	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/websocket/v2"

	"github.com/Bla-nqo/fundiconnect-builder/internal/config"
	"github.com/Bla-nqo/fundiconnect-builder/internal/handlers"
	"github.com/Bla-nqo/fundiconnect-builder/internal/middleware"
	"github.com/Bla-nqo/fundiconnect-builder/internal/models"
	"github.com/Bla-nqo/fundiconnect-builder/internal/realtime"
)

// NewApp builds the fiber app with global middleware and every route.
func NewApp(cfg config.Config, svc *Services, hub *realtime.Hub) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: handlers.ErrorHandler,
	})

	if cfg.SentryDSN != "" {
		app.Use(sentryfiber.New(sentryfiber.Options{
			Repanic:         true,
			WaitForDelivery: false,
		}))
	}
	app.Use(recover.New())
	app.Use(requestid.New())
	if cfg.AppEnv != "test" {
		app.Use(fiberlogger.New(fiberlogger.Config{
			Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
		}))
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.TrimSpace(cfg.CORSOrigins),
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders:    "Content-Length",
		AllowCredentials: true,
	}))

	Setup(app, cfg, svc, hub)
	return app
}

func Setup(app *fiber.App, cfg config.Config, svc *Services, hub *realtime.Hub) {
	secure := cfg.AppEnv == "production"

	authH := &handlers.AuthHandler{Auth: svc.Auth, Expires: cfg.JWTExpiresMin, Secure: secure}
	googleH := &handlers.GoogleOAuthHandler{
		Tokens:          authH,
		GoogleClientID:  cfg.GoogleClientID,
		GoogleSecret:    cfg.GoogleSecret,
		GoogleRedirect:  cfg.GoogleRedirect,
		FrontendBaseURL: cfg.FrontendBaseURL,
	}
	jobH := handlers.NewJobHandler(svc.Jobs)
	fundiH := handlers.NewFundiOnboardingHandler(svc.Fundi, authH)
	dashH := &handlers.DashboardHandler{Dashboard: svc.Dashboard, Fundi: svc.Fundi, Wallet: svc.Wallet, Stats: svc.Stats}
	chatH := handlers.NewChatHandler(svc.Messaging)
	ratingH := &handlers.RatingHandler{Ratings: svc.Ratings}
	modH := &handlers.ModerationHandler{Moderation: svc.Moderation}
	categoryH := handlers.NewCategoryHandler(svc.Catalog)
	healthH := handlers.NewHealthHandler(svc.Store, hub)
	feedH := handlers.NewFeedHandler(hub, cfg.FeedRatePerSec, cfg.FeedBurst)

	authenticated := []fiber.Handler{
		middleware.JWTProtected(cfg.JWTSecret),
		middleware.AttachSession(svc.Moderation.Current),
	}
	// guarded routes are closed to restricted users
	guarded := append(chain(authenticated), middleware.RequireUnrestricted())

	// feed sits outside /api so the HTTP rate limiter does not count the socket
	app.Get("/ws/feed", chain(authenticated, feedH.Upgrade, websocket.New(feedH.Serve))...)

	api := app.Group("/api")
	api.Use(limiter.New(limiter.Config{
		Max:               120,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	// public
	api.Get("/health", healthH.Check)
	api.Get("/categories", categoryH.GetCategories)
	api.Get("/stats", dashH.Platform)

	authG := api.Group("/auth")
	authG.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	authG.Post("/register", authH.Register)
	authG.Post("/login", authH.Login)
	authG.Post("/logout", authH.Logout)
	if cfg.GoogleEnabled() {
		authG.Get("/google/start", googleH.GoogleStart)
		authG.Get("/google/callback", googleH.GoogleCallback)
	}

	// signed in, restricted or not
	me := api.Group("/me", authenticated...)
	me.Get("/", authH.Me)
	me.Get("/roles/:role", authH.HasRole)
	me.Get("/restriction", modH.MyRestriction)
	me.Post("/restriction/appeals", modH.SubmitAppeal)
	me.Post("/role", middleware.RequireUnrestricted(), authH.SwitchRole)
	api.Get("/dashboard", chain(authenticated, dashH.Get)...)

	client := middleware.RequireRoles(models.RoleClient)
	fundiRole := middleware.RequireRoles(models.RoleFundi)

	jobsG := api.Group("/jobs", guarded...)
	jobsG.Post("/", client, jobH.Create)
	jobsG.Get("/mine", client, jobH.Mine)
	jobsG.Get("/opportunities", fundiRole, jobH.Opportunities)
	jobsG.Get("/assigned", fundiRole, jobH.Assigned)
	jobsG.Get("/:id", jobH.Get)
	jobsG.Post("/:id/apply", fundiRole, jobH.Apply())
	jobsG.Post("/:id/start", fundiRole, jobH.Start())
	jobsG.Post("/:id/complete", client, jobH.Complete())
	jobsG.Post("/:id/cancel", client, jobH.Cancel())

	fundiG := api.Group("/fundi", guarded...)
	fundiG.Post("/apply", fundiH.Apply)
	fundiG.Get("/me", fundiRole, fundiH.Me)
	fundiG.Get("/stats", fundiRole, dashH.FundiStats)
	fundiG.Get("/wallet", fundiRole, dashH.WalletSummary)

	fundisG := api.Group("/fundis", guarded...)
	fundisG.Get("/recommended", dashH.Recommended)
	fundisG.Get("/:id/ratings", ratingH.ForFundi)

	msgG := api.Group("/messages", guarded...)
	msgG.Get("/:peer", chatH.GetMessages)
	msgG.Post("/", chatH.SendMessage)

	api.Post("/ratings", chain(guarded, client, ratingH.Submit)...)

	admin := api.Group("/admin", chain(authenticated,
		middleware.RequireRoles(models.RoleAdmin),
		middleware.VerifyRole(svc.Store.Users, models.RoleAdmin),
	)...)
	admin.Get("/fundis/pending", fundiH.Pending)
	admin.Post("/fundis/:id/approve", fundiH.Approve)
	admin.Post("/fundis/:id/reject", fundiH.Reject)
	admin.Post("/fundis/:id/verify-mobile", fundiH.VerifyMobile)
	admin.Post("/restrictions", modH.Restrict)
	admin.Get("/restrictions", modH.ListActive)
	admin.Post("/restrictions/:id/lift", modH.Lift)
	admin.Get("/appeals", modH.PendingAppeals)
	admin.Post("/appeals/:id/resolve", modH.ResolveAppeal)
	admin.Post("/categories", categoryH.Create)
	admin.Put("/categories/:id", categoryH.Update)
	admin.Delete("/categories/:id", categoryH.Delete)
}

// chain copies base before appending so shared prefixes never alias.
func chain(base []fiber.Handler, more ...fiber.Handler) []fiber.Handler {
	out := make([]fiber.Handler, 0, len(base)+len(more))
	out = append(out, base...)
	return append(out, more...)
}
