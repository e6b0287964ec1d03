package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noriskclient/launcherd/internal/common/config"
	"github.com/noriskclient/launcherd/internal/common/httpmw"
	"github.com/noriskclient/launcherd/internal/common/logger"
	"github.com/noriskclient/launcherd/internal/events"
	gateway "github.com/noriskclient/launcherd/internal/gateway/websocket"
	launchapi "github.com/noriskclient/launcherd/internal/launch/api"
	"github.com/noriskclient/launcherd/internal/launch/lifecycle"
	"github.com/noriskclient/launcherd/internal/launch/registry"
	"github.com/noriskclient/launcherd/internal/metrics"
	profileapi "github.com/noriskclient/launcherd/internal/profile/api"
	"github.com/noriskclient/launcherd/internal/profile/service"
	"github.com/noriskclient/launcherd/internal/tracing"
)

const shutdownTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", "", "path to the config file directory")
	flag.Parse()

	// 1. Load configuration
	cfg, err := config.LoadWithPath(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize logger
	log, err := logger.NewLogger(logger.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		OutputPath: cfg.Logging.OutputPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	logger.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("launcherd exited with error", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	log.Info("Starting launcherd...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Tracing
	if err := tracing.Init(ctx, cfg.Tracing); err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracing.Shutdown(shutdownCtx); err != nil {
			log.Warn("Tracing shutdown error", zap.Error(err))
		}
	}()

	// 4. Event bus
	provided, closeBus, err := events.Provide(cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = closeBus() }()
	eventBus := provided.Bus

	// 5. Profiles
	repo, closeRepo, err := provideRepository(cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = closeRepo() }()
	profileSvc := service.NewService(repo, events.NewEmitter(eventBus, events.SourceProfiles, log), log)

	// 6. Launch lifecycle
	launchMgr := lifecycle.NewManager(
		registry.New(),
		profileSvc,
		&lifecycle.CommandPreparer{JavaPath: cfg.Launch.JavaPath, GameRoot: cfg.Launch.GameRoot},
		events.NewEmitter(eventBus, events.SourceLifecycle, log),
		lifecycle.OptionsFromConfig(cfg.Launch),
		log,
	)
	if err := launchMgr.Start(ctx); err != nil {
		return fmt.Errorf("start launch manager: %w", err)
	}

	// 7. WebSocket gateway
	gw := gateway.NewGateway(launchMgr, cfg.Server.AllowOrigins, log)
	broadcaster, err := gateway.RegisterStateNotifications(eventBus, gw.Hub, log)
	if err != nil {
		return fmt.Errorf("subscribe state events: %w", err)
	}

	// 8. HTTP server
	router := newRouter(cfg, log, profileSvc, launchMgr, gw)
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	g, gctx := errgroup.WithContext(ctx)

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	g.Go(func() error {
		gw.Hub.Run(hubCtx)
		return nil
	})

	g.Go(func() error {
		log.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down launcherd...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server shutdown error", zap.Error(err))
		}
		// Stop launches first so their final events still reach connected clients.
		if err := launchMgr.Stop(shutdownCtx); err != nil {
			log.Error("Launch manager stop error", zap.Error(err))
		}
		broadcaster.Close()
		stopHub()
		return nil
	})

	err = g.Wait()
	log.Info("launcherd stopped")
	return err
}

func newRouter(
	cfg *config.Config,
	log *logger.Logger,
	profileSvc *service.Service,
	launchMgr *lifecycle.Manager,
	gw *gateway.Gateway,
) *gin.Engine {
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		httpmw.Recovery(log),
		httpmw.RequestLogger(log),
		httpmw.Tracing(cfg.Tracing.ServiceName),
		httpmw.CORS(cfg.Server.AllowOrigins),
		httpmw.ErrorHandler(log),
	)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":          "ok",
			"service":         "launcherd",
			"active_launches": len(launchMgr.ListLaunches()),
			"ws_clients":      gw.Hub.GetClientCount(),
		})
	})
	if cfg.Metrics.Enabled {
		router.GET(cfg.Metrics.Path, gin.WrapH(metrics.Handler()))
	}

	v1 := router.Group("/api/v1")
	profileapi.SetupRoutes(v1, profileSvc, log)
	launchapi.SetupRoutes(v1, launchMgr, log,
		httpmw.RateLimit(cfg.RateLimit.LaunchPerSecond, cfg.RateLimit.Burst))

	gw.SetupRoutes(router)
	return router
}
