package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"pixel-earth/internal/feed"
	httpHandler "pixel-earth/internal/handler/http"
	wsHandler "pixel-earth/internal/handler/websocket"
	"pixel-earth/internal/hub"
	"pixel-earth/internal/infra/chain"
	gormpersistence "pixel-earth/internal/infra/persistence/gorm"
	"pixel-earth/internal/infra/setup"
	redisstate "pixel-earth/internal/infra/state/redis"
	"pixel-earth/internal/middleware"
	"pixel-earth/internal/service"
	"pixel-earth/internal/tasks"
	"pixel-earth/internal/worker"
)

// App 结构体包含应用的所有组件和配置
type App struct {
	Config      *Config
	Log         *logrus.Logger
	DB          *gorm.DB
	RedisClient *redis.Client
	EthClient   *ethclient.Client
	AsynqClient *asynq.Client
	AsynqServer *worker.WorkerServer
	Scheduler   *asynq.Scheduler
	Feed        *feed.Feed
	Controller  *service.BoardController
	Submitter   *chain.Submitter
	Hub         *hub.Hub
	HttpServer  *http.Server

	redisClientOpt asynq.RedisClientOpt
	cancel         context.CancelFunc
	wg             sync.WaitGroup
}

// NewLogger 按配置创建 logger：生产环境输出 JSON，其他环境输出彩色文本
func NewLogger(cfg *Config) *logrus.Logger {
	log := logrus.New()
	if cfg.AppEnv == "production" {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, ForceColors: true})
	}
	logLevel, _ := logrus.ParseLevel(cfg.LogLevel) // cfg.LogLevel 已被 LoadConfig 验证
	log.SetLevel(logLevel)
	log.SetOutput(os.Stdout)
	return log
}

// NewApp 创建并初始化应用的所有组件
func NewApp(ctx context.Context) (*App, error) {
	// 1. 加载配置
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return nil, err
	}

	// 2. 初始化 Logger
	log := NewLogger(cfg)
	// 包级 logrus 调用 (service、handler) 与 App logger 保持一致
	logrus.SetFormatter(log.Formatter)
	logrus.SetLevel(log.Level)
	log.Infof("Logger initialized (Level: %s, Format: %T)", log.Level.String(), log.Formatter)

	network, err := chain.NetworkFor(cfg.AppEnv, cfg.RPCURL)
	if err != nil {
		return nil, err
	}
	payment, err := chain.ParseEther(cfg.PurchasePrice)
	if err != nil {
		return nil, fmt.Errorf("invalid PURCHASE_PRICE: %w", err)
	}

	// 3. 初始化基础设施
	log.Info("Initializing infrastructure...")
	db, err := setup.InitDB(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to init DB: %w", err)
	}
	if err := setup.MigrateDB(db); err != nil {
		return nil, fmt.Errorf("failed to migrate DB: %w", err)
	}
	log.Info("Database migrated")

	redisClient, err := setup.InitRedis(ctx, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to init Redis: %w", err)
	}

	ethClient, err := ethclient.DialContext(ctx, network.RPCURL)
	if err != nil {
		_ = redisClient.Close()
		return nil, fmt.Errorf("failed to dial chain RPC %s: %w", network.RPCURL, err)
	}
	log.WithFields(logrus.Fields{"network": network.Name, "chain_id": network.ChainID, "rpc": network.RPCURL}).Info("Chain client initialized")

	redisClientOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	asynqClient := asynq.NewClient(redisClientOpt)
	log.Info("Infrastructure initialized successfully")

	// 4. 初始化链上组件和 Repositories
	contract := common.HexToAddress(cfg.ContractAddress)
	reader, err := chain.NewReader(contract, ethClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create chain reader: %w", err)
	}
	wallet, err := chain.NewKeyWallet(cfg.WalletKey, network, ethClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}
	submitter, err := chain.NewSubmitter(contract, ethClient, wallet)
	if err != nil {
		return nil, fmt.Errorf("failed to create purchase submitter: %w", err)
	}
	stateRepo := redisstate.NewRedisStateRepository(redisClient, cfg.KeyPrefix)
	purchaseRepo := gormpersistence.NewGormPurchaseRepository(db)
	boardFeed := feed.New(reader, stateRepo, cfg.SnapshotTTL)

	// 5. 初始化 Services
	log.Info("Initializing services...")
	authService, err := service.NewAuthService(cfg.PasswordHash, cfg.JWTSecret, cfg.JWTExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to create AuthService: %w", err)
	}
	controller := service.NewBoardController(boardFeed, submitter, wallet, purchaseRepo, payment)
	hubInstance := hub.NewHub(controller)

	// 6. 初始化 Handlers 和 Worker
	authHandler := httpHandler.NewAuthHandler(authService)
	boardHandler := httpHandler.NewBoardHandler(controller, asynqClient, network)
	walletHandler := httpHandler.NewWalletHandler(controller)
	purchaseHandler := httpHandler.NewPurchaseHandler(controller, purchaseRepo)
	websocketHandler := wsHandler.NewWebSocketHandler(hubInstance, cfg.CORSOrigin)
	workerServer := worker.NewWorkerServer(redisClientOpt, boardFeed, log)

	// 7. 初始化 Gin Engine 和路由
	log.Info("Setting up Gin router...")
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(log))
	router.Use(CORSMiddleware(cfg.CORSOrigin))
	router.Use(middleware.RateLimit(stateRepo, cfg.RateLimitMax, cfg.RateLimitWindow))

	api := router.Group("/api")
	api.POST("/auth/login", authHandler.Login)
	api.GET("/board", boardHandler.GetBoard)
	api.GET("/networks", boardHandler.GetNetworks)

	protected := api.Group("").Use(middleware.Auth(cfg.JWTSecret, service.OperatorSubject))
	{
		protected.POST("/board/refresh", boardHandler.RefreshBoard)
		protected.GET("/wallet", walletHandler.Get)
		protected.POST("/wallet/connect", walletHandler.Connect)
		protected.POST("/wallet/disconnect", walletHandler.Disconnect)
		protected.POST("/selection/tile", boardHandler.SelectTile)
		protected.POST("/selection/color", boardHandler.SelectColor)
		protected.POST("/selection/custom-color", boardHandler.SetCustomColor)
		protected.POST("/selection/image-url", boardHandler.SetImageURL)
		protected.POST("/purchases", purchaseHandler.Submit)
		protected.GET("/purchases", purchaseHandler.List)
		protected.GET("/purchases/:hash", purchaseHandler.Get)
	}
	wsRoutes := router.Group("/ws").Use(middleware.Auth(cfg.JWTSecret, service.OperatorSubject))
	{
		wsRoutes.GET("/board", websocketHandler.HandleConnection)
	}
	router.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "pong"}) })
	log.Info("Router setup complete")

	httpServer := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		Config:         cfg,
		Log:            log,
		DB:             db,
		RedisClient:    redisClient,
		EthClient:      ethClient,
		AsynqClient:    asynqClient,
		AsynqServer:    workerServer,
		Feed:           boardFeed,
		Controller:     controller,
		Submitter:      submitter,
		Hub:            hubInstance,
		HttpServer:     httpServer,
		redisClientOpt: redisClientOpt,
	}, nil
}

// Start 启动所有后台组件和 HTTP 服务器
func (a *App) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	a.wg.Add(2)
	go func() {
		defer a.wg.Done()
		if err := a.Feed.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.Log.WithError(err).Error("Board feed stopped")
		}
	}()
	go func() {
		defer a.wg.Done()
		a.Hub.Run(ctx)
	}()
	a.Log.Info("Board feed and hub routines started")

	// 首次刷新失败不阻止启动，后续定时任务会继续刷新
	if err := a.Controller.Start(ctx); err != nil {
		a.Log.WithError(err).Warn("Initial board refresh failed")
	}

	go a.AsynqServer.Start()
	a.Log.Info("Asynq worker server routine started")

	a.registerPeriodicTasks()

	go func() {
		a.Log.Infof("HTTP server starting to listen on %s", a.HttpServer.Addr)
		if err := a.HttpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Log.Fatalf("Failed to start HTTP server: %v", err)
		}
		a.Log.Info("HTTP server stopped listening.")
	}()
}

func (a *App) registerPeriodicTasks() {
	scheduler := asynq.NewScheduler(a.redisClientOpt, &asynq.SchedulerOpts{
		Logger:   a.Log.WithField("component", "scheduler"),
		LogLevel: asynq.WarnLevel,
	})

	task, err := tasks.NewBoardRefreshTask(tasks.ReasonScheduled)
	if err != nil {
		a.Log.Errorf("Failed to create board refresh task: %v", err)
		return
	}
	schedule := a.Config.RefreshSchedule
	entryID, err := scheduler.Register(schedule, task, asynq.Queue("default"))
	if err != nil {
		a.Log.Errorf("Could not register periodic board refresh task: %v", err)
		return
	}
	a.Log.Infof("Periodic board refresh task registered with schedule '%s' (EntryID: %s)", schedule, entryID)

	if err := scheduler.Start(); err != nil {
		a.Log.Errorf("Asynq scheduler failed to start: %v", err)
		return
	}
	a.Scheduler = scheduler
}

// Shutdown 优雅地关闭应用
func (a *App) Shutdown() {
	a.Log.Info("Shutting down application...")

	// 1. 停止接收新请求
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.HttpServer.Shutdown(ctx); err != nil {
		a.Log.Errorf("Error shutting down HTTP server: %v", err)
	} else {
		a.Log.Info("HTTP server shut down gracefully.")
	}

	// 2. 停止定时任务和 Worker
	if a.Scheduler != nil {
		a.Scheduler.Shutdown()
	}
	if a.AsynqServer != nil {
		a.AsynqServer.Shutdown()
	}

	// 3. 停止交易跟踪，进行中的交易按失败处理
	a.Controller.Close()
	a.Submitter.Close()
	a.Controller.Wait()

	// 4. 停止 Feed 和 Hub，Hub 会关闭所有客户端连接
	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()

	// 5. 关闭客户端连接
	if err := a.AsynqClient.Close(); err != nil {
		a.Log.Errorf("Error closing Asynq client: %v", err)
	}
	a.EthClient.Close()
	if err := a.RedisClient.Close(); err != nil {
		a.Log.Errorf("Error closing Redis connection: %v", err)
	} else {
		a.Log.Info("Redis connection closed.")
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			a.Log.Errorf("Error closing database connection: %v", err)
		}
	}

	a.Log.Info("Application shutdown complete.")
}

// CORSMiddleware 允许配置的前端来源访问 API
func CORSMiddleware(allowedOrigin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// LoggerMiddleware 创建一个 Gin 中间件用于记录请求日志
func LoggerMiddleware(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()
		latency := time.Since(startTime)
		statusCode := c.Writer.Status()
		path := c.Request.URL.Path // 不记录查询参数，WebSocket 的 token 放在查询参数里
		errorMessage := c.Errors.ByType(gin.ErrorTypePrivate).String()

		entry := log.WithFields(logrus.Fields{
			"status_code": statusCode,
			"latency_ms":  latency.Milliseconds(),
			"client_ip":   c.ClientIP(),
			"method":      c.Request.Method,
			"path":        path,
		})

		switch {
		case errorMessage != "":
			entry.Error(errorMessage)
		case statusCode >= 500:
			entry.Error("Server error")
		case statusCode >= 400:
			entry.Warn("Client error")
		default:
			entry.Info("Request handled")
		}
	}
}
