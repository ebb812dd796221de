package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lshigami/quizsync/config"
	"github.com/lshigami/quizsync/database"
	_ "github.com/lshigami/quizsync/docs" // Swagger docs
	"github.com/lshigami/quizsync/internal/auth"
	"github.com/lshigami/quizsync/internal/backend"
	"github.com/lshigami/quizsync/internal/controller"
	adminctrl "github.com/lshigami/quizsync/internal/controller/admin"
	userctrl "github.com/lshigami/quizsync/internal/controller/user"
	"github.com/lshigami/quizsync/internal/gateway"
	"github.com/lshigami/quizsync/internal/logger"
	"github.com/lshigami/quizsync/internal/monitor"
	"github.com/lshigami/quizsync/internal/queue"
	"github.com/lshigami/quizsync/internal/realtime"
	"github.com/lshigami/quizsync/internal/reconcile"
	"github.com/lshigami/quizsync/internal/repository"
	"github.com/lshigami/quizsync/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var rootCmd = &cobra.Command{
	Use:   "quizsync",
	Short: "run the offline-capable quiz attempt service",
	RunE:  serve,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "serve the local API and replay the queue in the background",
	RunE:  serve,
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "replay the mutation queue once and print the report",
	RunE:  syncOnce,
}

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "print the pending mutations",
	RunE:  printQueue,
}

func init() {
	rootCmd.AddCommand(serveCmd, syncCmd, queueCmd)
}

// @title QuizSync API
// @version 1.0
// @description Local API for quiz attempts that keep working offline and synchronize with the learning backend.
// @host localhost:8090
// @BasePath /api/v1
// @schemes http
func main() {
	logger.Init()
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("quizsync failed")
	}
}

// core provides everything except the HTTP surface.
var core = fx.Options(
	fx.Provide(
		config.NewConfig,
		database.NewDatabase,
		NewQueueStore,
		auth.NewHolder,
		func(h *auth.Holder) auth.TokenSource { return h },
		backend.NewClient,
		queue.New,
		monitor.New,
		func(m *monitor.Monitor) gateway.Connectivity { return m },
		gateway.New,
		reconcile.New,
	),
	fx.Provide(
		repository.NewAttemptRepository,
		repository.NewQuizRepository,
	),
	fx.Provide(
		service.NewScoreCalculatorService,
		service.NewQuizCatalogService,
		service.NewQuizSessionService,
		service.NewProgressService,
		service.NewSyncService,
		service.NewAdminQueueService,
	),
	fx.Invoke(database.Migrate),
	fx.Invoke(WireSynchronization),
)

func serve(cmd *cobra.Command, args []string) error {
	app := fx.New(
		core,
		fx.Provide(
			realtime.NewHub,
			NewGinEngine,
			userctrl.NewQuizSessionController,
			adminctrl.NewQueueController,
			controller.NewSyncController,
		),
		fx.Invoke(WireRealtime),
		fx.Invoke(RegisterRoutesAndStartServer),
		fx.Invoke(StartBackgroundWorkers),
	)
	if err := app.Start(context.Background()); err != nil {
		return fmt.Errorf("failed to start application: %w", err)
	}
	<-app.Done()
	log.Info().Msg("Application shutting down gracefully...")
	stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return app.Stop(stopCtx)
}

func syncOnce(cmd *cobra.Command, args []string) error {
	var synchronizer *reconcile.Synchronizer
	app := fx.New(core, fx.NopLogger, fx.Populate(&synchronizer))
	if err := app.Start(cmd.Context()); err != nil {
		return err
	}
	defer app.Stop(context.Background())

	report, err := synchronizer.Sync(cmd.Context())
	if report != nil {
		if encErr := printJSON(report.DTO()); encErr != nil {
			return encErr
		}
	}
	return err
}

func printQueue(cmd *cobra.Command, args []string) error {
	var admin service.AdminQueueService
	app := fx.New(core, fx.NopLogger, fx.Populate(&admin))
	if err := app.Start(cmd.Context()); err != nil {
		return err
	}
	defer app.Stop(context.Background())

	overview, err := admin.QueueOverview(cmd.Context())
	if err != nil {
		return err
	}
	return printJSON(overview)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// NewQueueStore selects where pending mutations are kept.
func NewQueueStore(lc fx.Lifecycle, cfg *config.Config, db *gorm.DB) (queue.Store, error) {
	if cfg.Queue.Backend != "redis" {
		return queue.NewGormStore(db), nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error { return client.Close() },
	})
	log.Info().Str("addr", cfg.Redis.Addr).Msg("Mutation queue stored in redis")
	return queue.NewRedisStore(client, cfg.Redis.Prefix), nil
}

// WireSynchronization connects the queue, the monitor and the replay loop.
func WireSynchronization(
	q *queue.Queue,
	m *monitor.Monitor,
	gw *gateway.Gateway,
	synchronizer *reconcile.Synchronizer,
	sessions service.QuizSessionService,
) {
	synchronizer.SetLedger(sessions)
	synchronizer.SetConnectivity(m)
	q.OnChange(m.SetPending)
	m.OnReconnect(synchronizer.Trigger)
	gw.OnQueuedWhileOnline(synchronizer.Trigger)
}

// WireRealtime forwards status, reports and reconciled scores to websocket clients.
func WireRealtime(hub *realtime.Hub, m *monitor.Monitor, synchronizer *reconcile.Synchronizer) {
	hub.SetGreeting(func() *realtime.Message {
		return &realtime.Message{Type: realtime.MessageStatus, Payload: m.Status()}
	})
	synchronizer.OnReport(func(r *reconcile.Report) {
		hub.Broadcast(realtime.MessageSyncReport, r.DTO())
	})
	synchronizer.OnDiscrepancy(func(d reconcile.ScoreDiscrepancy) {
		hub.Broadcast(realtime.MessageScoreReconciled, d.DTO())
	})
}

// StartBackgroundWorkers runs the hub, the replay loop, the prober and the
// status feed for the lifetime of the app.
func StartBackgroundWorkers(
	lc fx.Lifecycle,
	cfg *config.Config,
	hub *realtime.Hub,
	m *monitor.Monitor,
	q *queue.Queue,
	client backend.Client,
	synchronizer *reconcile.Synchronizer,
) {
	ctx, cancel := context.WithCancel(context.Background())
	prober := monitor.NewProber(client, m, cfg)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			if pending, err := q.Pending(ctx); err == nil {
				m.SetPending(pending)
			}
			go hub.Run(ctx)
			go synchronizer.Run(ctx)
			go prober.Run(ctx)
			go func() {
				statuses, unsubscribe := m.Subscribe()
				defer unsubscribe()
				for {
					select {
					case <-ctx.Done():
						return
					case status := <-statuses:
						hub.Broadcast(realtime.MessageStatus, status)
					}
				}
			}()
			// replay whatever an earlier run left behind
			synchronizer.Trigger()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			m.Stop()
			return nil
		},
	})
}

func NewGinEngine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		log.Info().
			Str("client_ip", param.ClientIP).
			Str("method", param.Method).
			Str("path", param.Path).
			Int("status_code", param.StatusCode).
			Dur("latency", param.Latency).
			Str("error_message", param.ErrorMessage).
			Msg("gin_request")
		return ""
	}))
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// URL: http://localhost:PORT/swagger/index.html
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	return r
}

// RegisterRoutesAndStartServer configures API routes and manages server lifecycle.
func RegisterRoutesAndStartServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	tokens *auth.Holder,
	sessionCtrl *userctrl.QuizSessionController,
	queueCtrl *adminctrl.QueueController,
	syncCtrl *controller.SyncController,
) {
	api := router.Group("/api/v1", tokens.Middleware())
	sessionCtrl.RegisterRoutes(api)
	syncCtrl.RegisterRoutes(api)
	queueCtrl.RegisterRoutes(api.Group("/admin"))

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("QuizSync server starting on port %s", cfg.Server.Port)
			log.Info().Msgf("Swagger UI available at http://localhost:%s/swagger/index.html", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}
