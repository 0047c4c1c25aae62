package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/watchparty/server/internal/controller"
	"github.com/watchparty/server/internal/metrics"
	"github.com/watchparty/server/internal/notification/kafka"
	pubsubredis "github.com/watchparty/server/internal/pubsub/redis"
	partyredis "github.com/watchparty/server/internal/repository/party/redis"
	"github.com/watchparty/server/internal/service/party"
	"github.com/watchparty/server/internal/upstream"
	"github.com/watchparty/server/pkg/ctxlogger"
	"github.com/watchparty/server/pkg/redisclient"
)

type AppConfig struct {
	Secret           string        `json:"-"`
	Host             string        `json:"host"`
	Port             int           `json:"port"`
	LogLevel         string        `json:"log_level"`
	MaxParticipants  int           `json:"max_participants"`
	PresenceTimeout  time.Duration `json:"presence_timeout"`
	ReapAfter        time.Duration `json:"reap_after"`
	ReapInterval     time.Duration `json:"reap_interval"`
	ChatHistoryLimit int           `json:"chat_history_limit"`
	JoinLinkBase     string        `json:"join_link_base"`
	RedisHost        string        `json:"redis_host"`
	RedisPort        int           `json:"redis_port"`
	RedisPassword    string        `json:"-"`
	KafkaBrokers     []string      `json:"kafka_brokers"`
	KafkaTopic       string        `json:"kafka_topic"`
	CatalogURL       string        `json:"catalog_url"`
	ProfileURL       string        `json:"profile_url"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.Secret == "" {
		return fmt.Errorf("secret must be set")
	}
	if cfg.MaxParticipants < 1 {
		return fmt.Errorf("max participants must be greater than 0")
	}
	if cfg.PresenceTimeout <= 0 {
		return fmt.Errorf("presence timeout must be positive")
	}
	if cfg.ReapAfter < cfg.PresenceTimeout {
		return fmt.Errorf("reap after must be at least the presence timeout")
	}
	if cfg.ChatHistoryLimit < 1 {
		return fmt.Errorf("chat history limit must be greater than 0")
	}
	return nil
}

func Run(ctx context.Context, cfg *AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		log.Fatal(err)
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}

	logger := slog.New(&h)

	rc, err := redisclient.NewRedisClient(ctx, &redisclient.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	defer rc.Close()

	partyRepo := partyredis.NewRepo(rc, logger, 24*time.Hour)
	eventBus := pubsubredis.NewBus(rc, logger)

	notifier := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
	defer notifier.Close()

	catalog := upstream.NewCatalogClient(cfg.CatalogURL, 5*time.Second)
	profile := upstream.NewProfileClient(cfg.ProfileURL, 5*time.Second)

	m := metrics.New()

	partyService := party.NewService(partyRepo, eventBus, notifier, catalog, profile, m, logger, &party.Config{
		MaxParticipants:  cfg.MaxParticipants,
		PresenceTimeout:  cfg.PresenceTimeout,
		ReapAfter:        cfg.ReapAfter,
		ChatHistoryLimit: cfg.ChatHistoryLimit,
		JoinLinkBase:     cfg.JoinLinkBase,
	})

	ctrl := controller.NewController(partyService, logger, &controller.Config{
		Secret: cfg.Secret,
	})
	server := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), Handler: ctrl.GetMux()}

	// graceful shutdown
	serverCtx, serverStopCtx := context.WithCancel(ctx)

	go partyService.RunReaper(serverCtx, cfg.ReapInterval)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig

		shutdownCtx, c := context.WithTimeout(serverCtx, 30*time.Second)
		defer c()

		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		err := server.Shutdown(shutdownCtx)
		if err != nil {
			log.Fatal(err)
		}
		serverStopCtx()
	}()

	logger.InfoContext(serverCtx, "starting server", "address", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	<-serverCtx.Done()

	return nil
}
