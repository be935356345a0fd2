package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"progressboard/internal/board"
	"progressboard/internal/config"
	"progressboard/internal/events"
	"progressboard/internal/handler"
	"progressboard/internal/middleware"
	"progressboard/internal/remote"
	"progressboard/internal/repository"
	"progressboard/internal/stream"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Server struct {
	Engine *gin.Engine
	Board  *board.Manager
	Events *stream.Hub
	Config *config.Config

	// cancelled on shutdown; ends hydration and open event streams
	ctx        context.Context
	cancel     context.CancelFunc
	closeStore func() error
}

func Init(cfg *config.Config) (*Server, error) {
	ctx, cancel := context.WithCancel(context.Background())

	store, closeStore, err := OpenStore(ctx, cfg)
	if err != nil {
		cancel()
		return nil, err
	}

	hub := stream.NewHub(8)
	observers := []board.Observer{hub}
	if cfg.EventsQueue != "" {
		publisher, err := newPublisher(ctx, cfg)
		if err != nil {
			cancel()
			_ = closeStore()
			return nil, err
		}
		go publisher.Run(ctx)
		observers = append(observers, publisher)
	}
	manager := NewBoard(cfg, store, observers...)

	// Restore before serving, hydrate in the background. An unreadable store
	// aborts startup so nothing is written over the saved board.
	valid, err := manager.Restore(ctx)
	if err != nil {
		cancel()
		_ = closeStore()
		return nil, fmt.Errorf("❌ failed to read board: %w", err)
	}
	if !valid && cfg.HydrationEnabled() {
		go func() {
			if err := manager.Hydrate(ctx); err != nil {
				log.WithError(err).Debug("hydration finished with error")
			}
		}()
	}

	return &Server{
		Engine:     NewRouter(cfg, manager, hub),
		Board:      manager,
		Events:     hub,
		Config:     cfg,
		ctx:        ctx,
		cancel:     cancel,
		closeStore: closeStore,
	}, nil
}

// NewRouter registers every route. Mutating routes require a bearer token when
// JWT_SECRET is set.
func NewRouter(cfg *config.Config, svc handler.BoardService, events handler.Subscriber) *gin.Engine {
	boardHandler := handler.NewBoardHandler(svc, events, log.StandardLogger())

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log.StandardLogger()))

	// Public routes
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "store": cfg.StoreDriver, "tasks": svc.Snapshot().Len()})
	})
	r.GET("/board", boardHandler.GetBoard)
	r.GET("/board/events", boardHandler.Events)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Protected routes
	authorized := r.Group("/")
	authorized.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	{
		authorized.POST("/tasks", boardHandler.CreateTask)
		authorized.PUT("/tasks/:id", boardHandler.UpdateTask)
		authorized.DELETE("/tasks/:id", boardHandler.DeleteTask)
		authorized.POST("/board/drag-end", boardHandler.DragEnd)
	}

	if cfg.JWTSecret == "" {
		log.Warn("⚠️  JWT_SECRET is empty, board changes are not authenticated")
	}
	return r
}

// NewBoard builds a Manager over store. Hydration is wired only when REMOTE_URL is set.
func NewBoard(cfg *config.Config, store board.Store, observers ...board.Observer) *board.Manager {
	var source board.Source
	if cfg.HydrationEnabled() {
		source = remote.NewSource(cfg.RemoteURL, cfg.RemoteTimeout)
	}

	logger := log.StandardLogger()
	return board.NewManager(store, source, board.Options{
		Strict:    cfg.StrictRestore,
		IDs:       board.NewIDGenerator(cfg.IDStrategy),
		Observers: append([]board.Observer{board.LogObserver{Logger: logger}}, observers...),
		Logger:    logger,
	})
}

func newPublisher(ctx context.Context, cfg *config.Config) (*events.Publisher, error) {
	sender, err := events.NewQueueSender(cfg.EventsConnectionString, cfg.EventsQueue)
	if err != nil {
		return nil, fmt.Errorf("❌ failed to create queue client: %w", err)
	}
	if err := sender.EnsureQueue(ctx); err != nil {
		return nil, fmt.Errorf("❌ failed to ensure queue %s: %w", cfg.EventsQueue, err)
	}
	log.WithField("queue", cfg.EventsQueue).Info("✅ Publishing board events")
	return events.NewPublisher(sender, 64, log.StandardLogger()), nil
}

// OpenStore connects the backend selected by STORE_DRIVER. The returned func
// releases its connections.
func OpenStore(ctx context.Context, cfg *config.Config) (board.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.StoreDriver {
	case config.DriverMemory:
		log.Warn("⚠️  Using in-memory store, the board will not survive a restart")
		return repository.NewMemoryRepository(), noop, nil

	case config.DriverRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("❌ invalid REDIS_URL: %w", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("❌ failed to connect to Redis: %w", err)
		}
		log.Info("✅ Connected to Redis")
		return repository.NewRedisRepository(client, cfg.RedisKeyPrefix), client.Close, nil

	case config.DriverPostgres:
		db, err := gorm.Open(postgres.Open(cfg.PostgresDSN()), &gorm.Config{})
		if err != nil {
			return nil, nil, fmt.Errorf("❌ failed to connect to DB: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, fmt.Errorf("❌ failed to get DB handle: %w", err)
		}
		repo := repository.NewEntryRepository(db)
		if err := repo.Migrate(ctx); err != nil {
			_ = sqlDB.Close()
			return nil, nil, fmt.Errorf("❌ failed to migrate board_entries: %w", err)
		}
		log.Info("✅ Connected to database")
		return repo, sqlDB.Close, nil

	case config.DriverTables:
		repo, err := repository.NewTableRepository(cfg.TablesConnectionString, cfg.TablesName, cfg.TablesPartition)
		if err != nil {
			return nil, nil, fmt.Errorf("❌ failed to create table client: %w", err)
		}
		if err := repo.EnsureTable(ctx); err != nil {
			return nil, nil, fmt.Errorf("❌ failed to ensure table %s: %w", cfg.TablesName, err)
		}
		log.WithField("table", cfg.TablesName).Info("✅ Connected to Azure Tables")
		return repo, noop, nil
	}

	return nil, nil, fmt.Errorf("%w: %q", repository.ErrUnknownDriver, cfg.StoreDriver)
}

func (s *Server) Run() {
	srv := &http.Server{
		Addr:        ":" + s.Config.ServerPort,
		Handler:     s.Engine,
		BaseContext: func(net.Listener) context.Context { return s.ctx },
	}

	go func() {
		log.Infof("🚀 Server running on port %s", s.Config.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Failed to listen: %s", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("🛑 Shutting down server...")
	s.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %s", err)
	}
	if err := s.closeStore(); err != nil {
		log.WithError(err).Warn("⚠️  Failed to close store")
	}

	log.Info("✅ Server exited properly")
}
