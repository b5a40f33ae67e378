package main

import (
	"context"
	"fmt"
	"log"

	common_api "crm-support/internal/common/api"
	"crm-support/internal/config"
	"crm-support/internal/database"
	"crm-support/internal/email"
	"crm-support/internal/features/analytics"
	"crm-support/internal/features/auth"
	"crm-support/internal/features/complaint"
	"crm-support/internal/features/presence"
	"crm-support/internal/features/reminder"
	"crm-support/internal/features/report"
	"crm-support/internal/features/system"
	"crm-support/internal/features/ticket"
	"crm-support/internal/features/user"
	"crm-support/internal/logger"
	"crm-support/internal/middleware"
	"crm-support/pkg/utils"

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

	app.Use(middleware.CORSMiddleware(cfg.AllowOrigins))

	return app
}

// AsRoute tags a constructor so fx adds its result to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),
		fx.ResultTags(`group:"routes"`),
	)
}

// RegisterAllRoutes takes the group "routes" and calls Setup() on each one.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route) {
	for _, route := range routes {
		route.Setup(app)
	}
}

var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`),
)

// StartServer creates a lifecycle hook to start Fiber in a goroutine
// and shut it down when the app exits.
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

func main() {
	app := fx.New(
		fx.Provide(
			config.LoadConfig,
			logger.NewLogger,
			NewFiberServer,
			database.NewDatabase,

			// Repositories
			user.NewUserRepository,
			complaint.NewComplaintRepository,
			ticket.NewTicketRepository,
			report.NewReportRepository,
			analytics.NewAnalyticsRepository,
			email.NewEmailRepository,

			// Services
			email.NewEmailService,
			auth.NewAuthService,
			user.NewUserService,
			complaint.NewComplaintService,
			ticket.NewTicketService,
			report.NewReportService,
			analytics.NewAnalyticsService,
			reminder.NewReminderService,
			presence.NewHub,

			// Controllers
			auth.NewAuthController,
			user.NewUserController,
			complaint.NewComplaintController,
			ticket.NewTicketController,
			report.NewReportController,
			analytics.NewAnalyticsController,
			presence.NewPresenceController,

			// API Routes
			AsRoute(auth.NewAuthApi),
			AsRoute(user.NewUserApi),
			AsRoute(complaint.NewComplaintApi),
			AsRoute(ticket.NewTicketApi),
			AsRoute(report.NewReportApi),
			AsRoute(analytics.NewAnalyticsApi),
			AsRoute(presence.NewPresenceApi),
			AsRoute(system.NewHealthApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			func(cfg *config.Config) {
				utils.SetSecret(cfg.JWTSecret)
			},
			RegisterAllRoutesWithAnnotation,
			StartServer,
			func(lc fx.Lifecycle, reminders *reminder.ReminderService) {
				lc.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						return reminders.Start()
					},
					OnStop: func(ctx context.Context) error {
						reminders.Stop()
						return nil
					},
				})
			},
		),
	)

	app.Run()
}
