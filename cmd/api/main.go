package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-seller-marketplace/internal/auth"
	"github.com/ariefcatur/go-seller-marketplace/internal/catalog"
	"github.com/ariefcatur/go-seller-marketplace/internal/chat"
	"github.com/ariefcatur/go-seller-marketplace/internal/config"
	"github.com/ariefcatur/go-seller-marketplace/internal/httpx"
	kafkax "github.com/ariefcatur/go-seller-marketplace/internal/kafka"
	"github.com/ariefcatur/go-seller-marketplace/internal/media"
	"github.com/ariefcatur/go-seller-marketplace/internal/orders"
	"github.com/ariefcatur/go-seller-marketplace/internal/postgres"
	"github.com/ariefcatur/go-seller-marketplace/internal/realtime"
	"github.com/ariefcatur/go-seller-marketplace/internal/redisx"
	"github.com/ariefcatur/go-seller-marketplace/internal/users"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}
	slog.SetDefault(config.NewLogger(cfg.LogLevel, cfg.ServiceName))

	if err := run(cfg); err != nil {
		slog.Error("api exited", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN, cfg.PostgresConns)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		return err
	}

	// Redis
	rdb, err := redisx.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return err
	}
	defer rdb.Close()

	// Kafka producers: one per topic, flushed on shutdown
	prodCtx, stopProducers := context.WithCancel(context.Background())
	defer stopProducers()
	orderProd := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrders, 1024)
	orderProd.Start(prodCtx)
	msgProd := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicMessages, 1024)
	msgProd.Start(prodCtx)

	// Services
	tokens := auth.NewTokens([]byte(cfg.JWTSecret), cfg.JWTTTL)
	uploader := &media.Disk{Dir: cfg.UploadDir, BaseURL: cfg.UploadBaseURL}

	userSvc := users.NewService(&users.Repo{DB: db}, auth.Hasher{Cost: bcrypt.DefaultCost}, tokens, uploader)
	if _, err := userSvc.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return err
	}
	productSvc := catalog.NewService(catalog.NewCachedRepo(&catalog.Repo{DB: db}, rdb), uploader)
	orderSvc := orders.NewService(&orders.Repo{DB: db}, userSvc, productSvc,
		&kafkax.Publisher{Producer: orderProd, Service: cfg.ServiceName})

	presence := &realtime.RedisPresence{Redis: rdb}
	hub := realtime.NewHub(presence, rdb)
	chatStore := &chat.Repo{DB: db}
	engine := chat.NewEngine(chatStore, &chat.RedisReserver{Redis: rdb}, cfg.ConversationRetryDelay)
	chatSvc := chat.NewService(chatStore, engine, userSvc, hub,
		&kafkax.Publisher{Producer: msgProd, Service: cfg.ServiceName})

	router := httpx.NewRouter(httpx.Deps{
		Tokens:   tokens,
		Verifier: userSvc,
		Accounts: &httpx.AccountsHandler{Users: userSvc, Credit: orderSvc},
		Products: &httpx.ProductsHandler{Products: productSvc},
		Orders:   &httpx.OrdersHandler{Orders: orderSvc},
		Chat:     &httpx.ChatHandler{Chat: chatSvc},
		Stream:   &httpx.StreamHandler{Hub: hub, Presence: presence, Heartbeat: 30 * time.Second},
	})
	router.Handle(cfg.UploadBaseURL+"/*", http.StripPrefix(cfg.UploadBaseURL, http.FileServer(http.Dir(cfg.UploadDir))))

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 10 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("http listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error { return hub.Run(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	err = g.Wait()

	// drain producers after the last request that could publish has finished
	orderProd.Close()
	msgProd.Close()
	stopProducers()
	orderProd.WaitClosed()
	msgProd.WaitClosed()
	return err
}
