package app

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/collabwave/collabwave/internal/database"
	"github.com/collabwave/collabwave/internal/middleware"
	"github.com/collabwave/collabwave/internal/plugins/activity"
	"github.com/collabwave/collabwave/internal/plugins/auth"
	"github.com/collabwave/collabwave/internal/plugins/categories"
	"github.com/collabwave/collabwave/internal/plugins/tasks"
	"github.com/collabwave/collabwave/internal/templates/layouts"
)

// healthTimeout bounds the store pings of /healthz.
const healthTimeout = 2 * time.Second

// RegisterRoutes wires every plugin and registers its routes. ctx controls
// the lifetime of background workers; cancel it before calling Shutdown.
//
// This is the single place where all routes are aggregated. When a new
// plugin is added, its routes are registered here.
func (a *App) RegisterRoutes(ctx context.Context) {
	e := a.Echo
	cfg := a.Config

	// --- Public Routes (no auth required) ---

	e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusSeeOther, "/admin/activity")
	})

	e.GET("/healthz", func(c echo.Context) error {
		hctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
		defer cancel()
		if err := database.Check(hctx, a.DB, a.Redis); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"error":  err.Error(),
			})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// --- Auth ---
	authSvc := auth.NewAuthService(auth.NewUserRepository(a.DB), a.Redis, cfg.Auth.SessionTTL)

	// Copy the session into the Go context so the layout header can show
	// the signed-in user and the admin navigation.
	middleware.LayoutInjector = func(c echo.Context, ctx context.Context) context.Context {
		ctx = layouts.WithActivePath(ctx, c.Request().URL.Path)
		if s := auth.GetSession(c); s != nil {
			ctx = layouts.WithViewer(ctx, layouts.Viewer{ID: s.UserID, Name: s.Name, IsAdmin: s.IsAdmin})
		}
		return ctx
	}

	// --- Activity ---
	activityRepo := activity.NewActivityRepository(a.DB)
	activitySvc := activity.NewActivityService(activityRepo,
		activity.NewRedisSummaryCache(a.Redis, cfg.Activity.SummaryTTL))
	gen := activity.NewGenerator(activity.ParseLocale(cfg.Activity.Locale))

	a.recorder = activity.NewRecorder(activityRepo, authSvc, gen, activity.RecorderConfig{
		Workers:       cfg.Activity.Workers,
		QueueSize:     cfg.Activity.QueueSize,
		AppendTimeout: cfg.Activity.AppendTimeout,
	})

	a.retention = activity.NewRetentionWorker(activitySvc, cfg.Activity.Retention(), cfg.Activity.RetentionInterval)
	go a.retention.Start(ctx)

	activity.RegisterRoutes(e,
		activity.NewHandler(activitySvc, a.recorder, gen, cfg.Activity.Retention()),
		authSvc,
		middleware.RateLimit(cfg.Activity.TrackRate, time.Minute),
	)

	// --- Collaborator CRUD ---
	// Both plugins report their writes through the shared recorder.
	tasks.RegisterRoutes(e,
		tasks.NewHandler(tasks.NewTaskService(tasks.NewTaskRepository(a.DB), a.recorder)),
		authSvc,
	)
	categories.RegisterRoutes(e,
		categories.NewHandler(categories.NewCategoryService(categories.NewCategoryRepository(a.DB), a.recorder)),
		authSvc,
	)
}
