package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	_ "Backend-Attendance/docs"
	"Backend-Attendance/src/config"
	"Backend-Attendance/src/controllers"
	"Backend-Attendance/src/database"
	"Backend-Attendance/src/jobs"
	"Backend-Attendance/src/metrics"
	"Backend-Attendance/src/routes"
	"Backend-Attendance/src/seeder"
	"Backend-Attendance/src/services/attendance"
	"Backend-Attendance/src/services/directory"
	"Backend-Attendance/src/services/sessions"
	"Backend-Attendance/src/services/teams"
	"Backend-Attendance/src/utils"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

// @title        Attendance API
// @version      1.0
// @description  QR session issuing and attendance marking
// @BasePath     /api
// @securityDefinitions.apikey BearerAuth
// @in           header
// @name         Authorization
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, config.Load()); err != nil {
		log.Fatalf("❌ %v", err)
	}
	log.Println("👋 Shutdown complete")
}

func run(ctx context.Context, cfg config.Config) error {
	// เชื่อมต่อกับ MongoDB
	if err := database.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDB); err != nil {
		return fmt.Errorf("connect MongoDB: %w", err)
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = database.DisconnectMongoDB(dctx)
	}()
	if err := database.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}

	if err := database.InitRedis(ctx, cfg.RedisURI); err != nil {
		// Redis only backs the cache and the task queue; run without both
		log.Printf("⚠️ %v, continuing without Redis", err)
	}
	defer database.CloseRedis()
	database.InitAsynq()
	defer database.CloseAsynq()

	m := metrics.New(prometheus.DefaultRegisterer)

	dir := directory.NewMongoDirectory(database.EventCollection, database.ParticipantCollection)
	sessionStore := sessions.NewCachedStore(sessions.NewMongoStore(database.SessionCollection), database.RedisClient)
	ledger := attendance.NewMongoLedger(database.AttendanceCollection)
	teamStore := teams.NewMongoStore(database.TeamCollection)

	aggregator := teams.NewAggregator(teamStore, ledger, teams.NewMongoSummaryStore(database.TeamSummaryCollection),
		teams.WithOnApplied(m.ObserveTeamRecompute))

	var dispatcher attendance.Dispatcher = jobs.NewInlineDispatcher(aggregator)
	if database.AsynqClient != nil {
		dispatcher = jobs.NewAsynqDispatcher(database.AsynqClient)
	}

	registry := teams.NewRegistry(teamStore, dir)
	if cfg.SeedDemoData {
		if err := seeder.SeedDemoData(ctx, dir, registry); err != nil {
			log.Printf("⚠️ Demo seeding failed: %v", err)
		}
	}

	issuer := sessions.NewIssuer(sessionStore, dir, sessions.WithTTLBounds(cfg.SessionDefaultTTL, cfg.SessionMaxTTL))
	marker := attendance.NewService(sessionStore, ledger, dir,
		attendance.WithTeams(teamStore, dispatcher),
		attendance.WithRecorder(m))

	reaper, err := sessions.NewReaper(sessionStore, cfg.SessionReapCron, sessions.WithReapHook(m.AddSessionsReaped))
	if err != nil {
		return err
	}

	app := newApp(cfg, routes.Deps{
		Tokens:                 utils.NewTokenManager(cfg.JWTSecret, 0),
		Sessions:               controllers.NewSessionController(issuer, m),
		Attendance:             controllers.NewAttendanceController(marker),
		Teams:                  controllers.NewTeamController(registry, aggregator),
		ScanRateLimitPerMinute: cfg.ScanRateLimitPerMinute,
		Health: func(c *fiber.Ctx) error {
			if err := database.Ping(c.UserContext()); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "error": err.Error()})
			}
			return c.JSON(fiber.Map{"status": "ok"})
		},
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Println("Server is running on port " + cfg.AppPort)
		if err := app.Listen(":" + cfg.AppPort); err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Println("🛑 Shutting down HTTP server")
		return app.ShutdownWithTimeout(10 * time.Second)
	})

	g.Go(func() error {
		reaper.Start()
		<-gctx.Done()
		<-reaper.Stop().Done()
		return nil
	})

	if database.AsynqClient != nil {
		worker := jobs.NewWorker(database.RedisURI, cfg.WorkerConcurrency, aggregator)
		g.Go(func() error { return worker.Run(gctx) })
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func newApp(cfg config.Config, deps routes.Deps) *fiber.App {
	// สร้าง app instance
	app := fiber.New(fiber.Config{
		AppName:     "Backend-Attendance",
		JSONEncoder: sonic.Marshal,
		JSONDecoder: sonic.Unmarshal,
	})

	app.Use(recover.New())
	app.Use(logger.New())

	// ✅ เปิดใช้งาน CORS Middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false, // ❌ ต้องเป็น false ถ้าใช้ "*"
	}))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// รวม routes จากแต่ละ module
	routes.InitRoutes(app, deps)
	return app
}
