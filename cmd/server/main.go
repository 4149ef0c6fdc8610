package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"restaurant_pos_backend/internal/config"
	"restaurant_pos_backend/internal/database"
	"restaurant_pos_backend/internal/events"
	"restaurant_pos_backend/internal/printing"
	"restaurant_pos_backend/internal/receipt"
	"restaurant_pos_backend/internal/repositories"
	"restaurant_pos_backend/internal/router"
	"restaurant_pos_backend/internal/services"
	"restaurant_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	utils.InitLogger(cfg.LogLevel, cfg.IsDevelopment())
	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		utils.LogError(err, "Server stopped with error")
		os.Exit(1)
	}
	utils.LogInfo("Server stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	orderRepo, menuRepo, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	cache, closeCache := openBoardCache(ctx, cfg.Redis)
	defer closeCache()

	publisher, closePublisher := openPublisher(cfg.Kafka)
	defer closePublisher()

	transport, closeTransport := openPrintTransport(cfg.Print)
	defer closeTransport()

	loc, err := time.LoadLocation(cfg.Receipt.Timezone)
	if err != nil {
		return err
	}
	formatter := receipt.NewFormatter(receipt.DialectByName(cfg.Receipt.Dialect), receipt.StoreHeader{
		Name:         cfg.Receipt.StoreName,
		Tagline:      cfg.Receipt.StoreTagline,
		AddressLines: cfg.Receipt.AddressLines,
		FooterLines:  cfg.Receipt.FooterLines,
	}, loc)
	formatter.QRBaseURL = cfg.Receipt.QRBaseURL

	printer := services.NewPrintService(formatter, transport, services.PrintSettings{
		BillPrinter:    cfg.Print.BillPrinter,
		KitchenPrinter: cfg.Print.KitchenPrinter,
		ReferenceCopy:  cfg.Print.ReferenceCopy,
	})
	notifier := services.NewOrderNotifier(publisher, cache)
	policy := services.TransitionPolicyFor(cfg.StatusPolicy)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	router.Setup(engine, router.Dependencies{
		OrderService:       services.NewOrderService(orderRepo, menuRepo, printer, notifier, cache, policy),
		DineInService:      services.NewDineInService(orderRepo, menuRepo, printer, notifier, policy),
		MenuService:        services.NewMenuService(menuRepo),
		JWTSecret:          []byte(cfg.JWTSecret),
		DeviceKeyHash:      cfg.DeviceKeyHash,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		utils.LogInfo("Server starting", map[string]interface{}{
			"port":          cfg.Port,
			"store":         cfg.StoreDriver,
			"status_policy": cfg.StatusPolicy,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		utils.LogInfo("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openStore(ctx context.Context, cfg *config.Config) (repositories.OrderRepository, repositories.MenuRepository, func(), error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		menuRepo, err := repositories.NewMemoryMenuRepository(repositories.DefaultMenu())
		if err != nil {
			return nil, nil, nil, err
		}
		utils.LogWarn(nil, "Using in-memory store; orders are lost on restart")
		return repositories.NewMemoryOrderRepository(), menuRepo, func() {}, nil
	}

	db, err := database.InitDB(ctx, cfg.Database)
	if err != nil {
		return nil, nil, nil, err
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			utils.LogError(err, "Failed to close database")
		}
	}
	return repositories.NewOrderRepository(db), repositories.NewMenuRepository(db), closeDB, nil
}

// openBoardCache connects Redis when configured. An unreachable Redis only
// disables caching.
func openBoardCache(ctx context.Context, cfg config.RedisConfig) (repositories.BoardCache, func()) {
	if cfg.Addr == "" {
		return repositories.NoopBoardCache{}, func() {}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		utils.LogWarn(err, "Redis unreachable, status board cache disabled", map[string]interface{}{"addr": cfg.Addr})
		_ = client.Close()
		return repositories.NoopBoardCache{}, func() {}
	}
	utils.LogInfo("Status board cache enabled", map[string]interface{}{"addr": cfg.Addr, "ttl": cfg.BoardTTL.String()})
	return repositories.NewRedisBoardCache(client, cfg.BoardTTL), func() { _ = client.Close() }
}

func openPublisher(cfg config.KafkaConfig) (events.Publisher, func()) {
	if len(cfg.Brokers) == 0 {
		return events.NoopPublisher{}, func() {}
	}
	writer := events.NewKafkaWriter(cfg.Brokers, cfg.OrderTopic)
	utils.LogInfo("Order events enabled", map[string]interface{}{"brokers": cfg.Brokers, "topic": cfg.OrderTopic})
	return events.NewKafkaPublisher(writer), func() {
		if err := writer.Close(); err != nil {
			utils.LogError(err, "Failed to close Kafka writer")
		}
	}
}

// openPrintTransport connects the print broker. Without one, jobs are logged
// and dropped so the counter keeps working.
func openPrintTransport(cfg config.PrintConfig) (printing.Transport, func()) {
	if cfg.RabbitMQURL == "" {
		return printing.LogTransport{}, func() {}
	}
	transport, err := printing.NewRabbitMQTransport(cfg.RabbitMQURL, cfg.Exchange)
	if err != nil {
		utils.LogWarn(err, "Print broker unreachable, print jobs will be dropped")
		return printing.LogTransport{}, func() {}
	}
	utils.LogInfo("Print transport connected", map[string]interface{}{"exchange": cfg.Exchange})
	return transport, func() {
		if err := transport.Close(); err != nil {
			utils.LogError(err, "Failed to close print transport")
		}
	}
}
