package app

import (
	"context"
	"errors"
	"lingo_edu_backend/internal/config"
	"lingo_edu_backend/internal/controller"
	"lingo_edu_backend/internal/repository"
	"lingo_edu_backend/internal/service"
	"lingo_edu_backend/pkg/configwatcher"
	"lingo_edu_backend/pkg/database"
	"lingo_edu_backend/pkg/logger"
	"lingo_edu_backend/pkg/monitoring"
	"lingo_edu_backend/pkg/tracing"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"k8s.io/utils/clock"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	Config *config.Config
	// ConfigFile is watched for changes when set.
	ConfigFile string
	Router     *gin.Engine
	DB         *gorm.DB
	Redis      *redis.Client

	services        *services
	shutdownTracing func(context.Context) error

	mu              sync.Mutex
	configCallbacks []func(*config.Config)
}

type services struct {
	gateway  *repository.Gateway
	storage  *service.StorageService
	hub      *service.AttemptHub
	attempts *service.AttemptService
	proctor  *service.Proctor
}

type controllers struct {
	attempt *controller.AttemptController
	health  *controller.HealthController
}

// RegisterConfigCallback adds a function run with every reloaded configuration.
func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) applyConfig(cfg *config.Config) {
	a.mu.Lock()
	callbacks := append([]func(*config.Config){}, a.configCallbacks...)
	a.mu.Unlock()

	for _, cb := range callbacks {
		cb(cfg)
	}
}

func (a *App) initServices(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *services {
	s := &services{}
	clk := clock.RealClock{}

	s.gateway = repository.NewGateway(db)
	s.storage = service.NewStorageService(cfg)
	s.hub = service.NewAttemptHub(rdb)
	s.attempts = service.NewAttemptService(s.gateway, clk, s.hub, service.PolicyFromConfig(cfg.Assessment))
	s.attempts.UseAnswerStore(s.storage)
	s.proctor = service.NewProctor(clk, s.attempts, s.hub, s.gateway, cfg.Assessment.ForcedSubmitTimeout())

	a.RegisterConfigCallback(func(newCfg *config.Config) {
		s.attempts.UpdatePolicy(service.PolicyFromConfig(newCfg.Assessment))
		logger.Log.Info("Assessment policy updated",
			zap.Bool("enforceExerciseAttemptLimit", newCfg.Assessment.EnforceExerciseAttemptLimit),
			zap.Float64("passTolerance", newCfg.Assessment.PassTolerance))
	})
	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		attempt: controller.NewAttemptController(s.attempts, s.proctor, s.hub),
		health:  controller.NewHealthController(db, rdb),
	}
}

// NewApp connects to the configured stores and builds the router. configDir is the directory
// holding config.yaml; it is watched for changes when not empty.
func NewApp(cfg *config.Config, configDir string) (*App, error) {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "initialize database")
	}
	if cfg.Server.Mode != gin.ReleaseMode || cfg.ForceMigrate {
		if err := database.Migrate(db); err != nil {
			return nil, pkgerrors.Wrap(err, "migrate database")
		}
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		if rdb, err = database.InitRedis(&cfg.Redis); err != nil {
			return nil, pkgerrors.Wrap(err, "initialize redis")
		}
	} else {
		logger.Log.Info("Redis disabled, attempt events are delivered in-process only")
	}

	a := New(cfg, db, rdb)
	if configDir != "" {
		a.ConfigFile = filepath.Join(configDir, "config.yaml")
	}

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(cfg.Tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			return nil, pkgerrors.Wrap(err, "initialize tracing")
		}
		a.shutdownTracing = tp.Shutdown
	}
	return a, nil
}

// New wires services and routes over already opened stores. rdb may be nil.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *App {
	if cfg.Server.Mode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	a := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	monitoring.Init()

	a.services = a.initServices(cfg, db, rdb)
	ctrls := a.initControllers(a.services, db, rdb)

	router := gin.New()
	router.Use(gin.Recovery())
	a.setupMiddlewares(router, cfg)
	a.registerRoutes(router, ctrls, cfg)
	a.Router = router

	return a
}

// Run serves HTTP and runs the countdown sweeper, the event hub and the config watcher until ctx is
// done or one of them fails.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:              ":" + a.Config.Server.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return pkgerrors.Wrap(err, "listen")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Log.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return a.services.hub.Run(gctx)
	})
	g.Go(func() error {
		return a.services.proctor.Run(gctx, a.Config.Assessment.SweepInterval())
	})
	if a.ConfigFile != "" {
		g.Go(func() error {
			if err := configwatcher.WatchConfig(gctx, a.ConfigFile, configwatcher.DefaultDebounce, a.applyConfig); err != nil {
				// hot reload is optional; the server keeps its current config
				logger.Log.Warn("Config watcher stopped", zap.Error(err))
			}
			return nil
		})
	}

	err := g.Wait()
	a.Close()
	logger.Log.Info("Server exiting")
	return err
}

// Close releases the stores and flushes traces.
func (a *App) Close() {
	if a.shutdownTracing != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.shutdownTracing(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			logger.Log.Warn("Failed to close redis", zap.Error(err))
		}
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		sqlDB.Close()
	}
}
