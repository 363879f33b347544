package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"go-dashboard/internal/backend"
	"go-dashboard/internal/backend/inmemory"
	"go-dashboard/internal/backend/mongostore"
	common_api "go-dashboard/internal/common/api"
	"go-dashboard/internal/config"
	"go-dashboard/internal/database"
	"go-dashboard/internal/features/audit"
	"go-dashboard/internal/features/automation"
	"go-dashboard/internal/features/dashboard"
	"go-dashboard/internal/features/export"
	"go-dashboard/internal/features/handlers"
	"go-dashboard/internal/features/plugin"
	"go-dashboard/internal/features/session"
	"go-dashboard/internal/features/system"
	"go-dashboard/internal/logger"
	"go-dashboard/internal/middleware"
	"go-dashboard/pkg/objref"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer(cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(middleware.CORSMiddleware(cfg.CORSOrigins))

	return app
}

// AsRoute tags the constructor so Fx adds it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),
		fx.ResultTags(`group:"routes"`),
	)
}

// RegisterAllRoutes calls Setup() on every route of the "routes" group.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route) {
	log.Printf("Registering %d routes...\n", len(routes))
	for i, route := range routes {
		log.Printf("Setting up route %d: %T\n", i+1, route)
		route.Setup(app)
	}
	log.Println("All routes registered successfully")
}

var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`),
)

// StartServer starts Fiber in a goroutine and shuts it down when the app exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				if err := app.Listen(port); err != nil {
					log.Fatalf("Server failed to start: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}

// NewWorkspace picks the backend and opens the configured workspace.
func NewWorkspace(cfg *config.Config, mongodb *database.MongodbDB, logger *zap.Logger) (backend.Workspace, error) {
	if cfg.UsesMongo() {
		return mongostore.NewBackend(mongodb).Workspace(cfg.WorkspaceID), nil
	}
	fixtures, err := backend.LoadFixtures(cfg.FixturesFile)
	if err != nil {
		return nil, err
	}
	logger.Info("Using in-memory backend",
		zap.String("fixtures", cfg.FixturesFile),
		zap.Int("dashboards", len(fixtures.Dashboards)))
	return inmemory.New(fixtures).Workspace(cfg.WorkspaceID), nil
}

// InitializeIndexes ensures the backend collections are indexed.
func InitializeIndexes(lc fx.Lifecycle, cfg *config.Config, mongodb *database.MongodbDB, logger *zap.Logger) {
	if !mongodb.Enabled() {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				if err := mongostore.NewBackend(mongodb).EnsureIndexes(ctx); err != nil {
					logger.Error("Failed to ensure backend indexes", zap.Error(err))
				}
			}()
			return nil
		},
	})
}

func NewPluginRegistry(cfg *config.Config, logger *zap.Logger) *plugin.Registry {
	registry := plugin.NewRegistry(logger)
	count, err := registry.LoadDir(cfg.PluginDir)
	if err != nil {
		logger.Warn("Failed to load plugin commands", zap.String("dir", cfg.PluginDir), zap.Error(err))
	} else {
		logger.Info("Plugin commands loaded", zap.Int("count", count))
	}
	return registry
}

// NewExportScheduler hands sessions the scheduler, or nothing when scheduling is off.
func NewExportScheduler(cfg *config.Config, scheduler automation.SchedulerService) handlers.ExportScheduler {
	if !cfg.SchedulerEnabled {
		return nil
	}
	return scheduler
}

func NewSessionManager(
	cfg *config.Config,
	ws backend.Workspace,
	registry *handlers.Registry,
	plugins *plugin.Registry,
	exporter export.ExportService,
	scheduler handlers.ExportScheduler,
	logger *zap.Logger,
) *session.Manager {
	return session.NewManager(session.Options{
		Workspace:      ws,
		Resolver:       objref.PrefixResolver(mongostore.URIPrefix),
		Logger:         logger,
		Plugins:        plugins,
		Handlers:       registry,
		Exporter:       exporter,
		Scheduler:      scheduler,
		CommandTimeout: cfg.CommandTimeout,
	})
}

// StartBackground runs the audit writer and the export scheduler for the
// lifetime of the app and closes open sessions on shutdown.
func StartBackground(
	lc fx.Lifecycle,
	cfg *config.Config,
	manager *session.Manager,
	auditService audit.AuditService,
	scheduler automation.SchedulerService,
	logger *zap.Logger,
) {
	manager.Observe(auditService.Observe)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			auditService.Start()
			if !cfg.SchedulerEnabled {
				logger.Info("Export scheduler disabled")
				return nil
			}
			return scheduler.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			if err := manager.CloseAll(ctx); err != nil {
				logger.Warn("Sessions did not stop in time", zap.Error(err))
			}
			if cfg.SchedulerEnabled {
				scheduler.Stop()
			}
			auditService.Stop()
			return nil
		},
	})
}

// @title           Dashboard Session API
// @version         1.0
// @description     Opens dashboard sessions and runs commands against them.

// @host            localhost:8080
// @BasePath        /
func main() {
	app := fx.New(
		fx.Provide(
			config.LoadConfig,
			logger.NewLogger,
			NewFiberServer,
			database.NewDatabase,

			NewWorkspace,
			NewPluginRegistry,
			NewExportScheduler,
			NewSessionManager,
			handlers.DefaultRegistry,
			export.NewExportService,
			automation.NewDelivery,
			automation.NewSchedulerService,

			audit.NewAuditRepository,
			audit.NewAuditService,
			dashboard.NewDashboardService,
			func(s dashboard.DashboardService) system.SessionCounter { return s },

			audit.NewAuditController,
			automation.NewAutomationController,
			dashboard.NewDashboardController,
			system.NewSystemController,

			AsRoute(audit.NewAuditApi),
			AsRoute(automation.NewAutomationApi),
			AsRoute(dashboard.NewDashboardApi),
			AsRoute(system.NewHealthApi),
			AsRoute(system.NewDebugApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			RegisterAllRoutesWithAnnotation,
			InitializeIndexes,
			StartBackground,
			StartServer,
		),
	)

	app.Run()
}
