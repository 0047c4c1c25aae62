package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/watchparty/server/internal/app"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
}

var (
	secret = configVar[string]{
		envKey:       "SERVER_SECRET",
		flagKey:      "secret",
		defaultValue: "",
	}
	port = configVar[int]{
		envKey:       "SERVER_PORT",
		flagKey:      "port",
		defaultValue: 8080,
	}
	host = configVar[string]{
		envKey:       "SERVER_HOST",
		flagKey:      "host",
		defaultValue: "0.0.0.0",
	}
	logLevel = configVar[string]{
		envKey:       "SERVER_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
	}
	maxParticipants = configVar[int]{
		envKey:       "SERVER_MAX_PARTICIPANTS",
		flagKey:      "max-participants",
		defaultValue: 20,
	}
	presenceTimeout = configVar[time.Duration]{
		envKey:       "SERVER_PRESENCE_TIMEOUT",
		flagKey:      "presence-timeout",
		defaultValue: 75 * time.Second,
	}
	reapAfter = configVar[time.Duration]{
		envKey:       "SERVER_REAP_AFTER",
		flagKey:      "reap-after",
		defaultValue: 5 * time.Minute,
	}
	reapInterval = configVar[time.Duration]{
		envKey:       "SERVER_REAP_INTERVAL",
		flagKey:      "reap-interval",
		defaultValue: 30 * time.Second,
	}
	chatHistoryLimit = configVar[int]{
		envKey:       "SERVER_CHAT_HISTORY_LIMIT",
		flagKey:      "chat-history-limit",
		defaultValue: 50,
	}
	joinLinkBase = configVar[string]{
		envKey:       "SERVER_JOIN_LINK_BASE",
		flagKey:      "join-link-base",
		defaultValue: "https://watchparty.example.com/join",
	}
	redisHost = configVar[string]{
		envKey:       "REDIS_HOST",
		flagKey:      "redis-host",
		defaultValue: "localhost",
	}
	redisPort = configVar[int]{
		envKey:       "REDIS_PORT",
		flagKey:      "redis-port",
		defaultValue: 6379,
	}
	redisPassword = configVar[string]{
		envKey:       "REDIS_PASSWORD",
		flagKey:      "redis-password",
		defaultValue: "",
	}
	kafkaBrokers = configVar[[]string]{
		envKey:       "KAFKA_BROKERS",
		flagKey:      "kafka-brokers",
		defaultValue: []string{"localhost:9092"},
	}
	kafkaTopic = configVar[string]{
		envKey:       "KAFKA_TOPIC",
		flagKey:      "kafka-topic",
		defaultValue: "party-invites",
	}
	catalogURL = configVar[string]{
		envKey:       "CATALOG_URL",
		flagKey:      "catalog-url",
		defaultValue: "http://localhost:8081",
	}
	profileURL = configVar[string]{
		envKey:       "PROFILE_URL",
		flagKey:      "profile-url",
		defaultValue: "http://localhost:8082",
	}
)

func loadAppConfig() *app.AppConfig {
	pflag.String(secret.flagKey, secret.defaultValue, "Server secret")
	pflag.Int(port.flagKey, port.defaultValue, "Server port")
	pflag.String(host.flagKey, host.defaultValue, "Server host")
	pflag.String(logLevel.flagKey, logLevel.defaultValue, "Logging level")
	pflag.Int(maxParticipants.flagKey, maxParticipants.defaultValue, "Maximum number of participants in a party")
	pflag.Duration(presenceTimeout.flagKey, presenceTimeout.defaultValue, "Heartbeat age after which a participant is shown inactive")
	pflag.Duration(reapAfter.flagKey, reapAfter.defaultValue, "Heartbeat age after which a participant is removed")
	pflag.Duration(reapInterval.flagKey, reapInterval.defaultValue, "How often the presence reaper runs")
	pflag.Int(chatHistoryLimit.flagKey, chatHistoryLimit.defaultValue, "Maximum number of chat messages returned per history request")
	pflag.String(joinLinkBase.flagKey, joinLinkBase.defaultValue, "Base URL for invite join links")
	pflag.String(redisHost.flagKey, redisHost.defaultValue, "Redis host")
	pflag.Int(redisPort.flagKey, redisPort.defaultValue, "Redis port")
	pflag.String(redisPassword.flagKey, redisPassword.defaultValue, "Redis password")
	pflag.StringSlice(kafkaBrokers.flagKey, kafkaBrokers.defaultValue, "Kafka broker addresses")
	pflag.String(kafkaTopic.flagKey, kafkaTopic.defaultValue, "Kafka topic for invite notifications")
	pflag.String(catalogURL.flagKey, catalogURL.defaultValue, "Video catalog service base URL")
	pflag.String(profileURL.flagKey, profileURL.defaultValue, "User profile service base URL")
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	viper.BindEnv(secret.flagKey, secret.envKey)
	viper.BindEnv(port.flagKey, port.envKey)
	viper.BindEnv(host.flagKey, host.envKey)
	viper.BindEnv(logLevel.flagKey, logLevel.envKey)
	viper.BindEnv(maxParticipants.flagKey, maxParticipants.envKey)
	viper.BindEnv(presenceTimeout.flagKey, presenceTimeout.envKey)
	viper.BindEnv(reapAfter.flagKey, reapAfter.envKey)
	viper.BindEnv(reapInterval.flagKey, reapInterval.envKey)
	viper.BindEnv(chatHistoryLimit.flagKey, chatHistoryLimit.envKey)
	viper.BindEnv(joinLinkBase.flagKey, joinLinkBase.envKey)
	viper.BindEnv(redisHost.flagKey, redisHost.envKey)
	viper.BindEnv(redisPort.flagKey, redisPort.envKey)
	viper.BindEnv(redisPassword.flagKey, redisPassword.envKey)
	viper.BindEnv(kafkaBrokers.flagKey, kafkaBrokers.envKey)
	viper.BindEnv(kafkaTopic.flagKey, kafkaTopic.envKey)
	viper.BindEnv(catalogURL.flagKey, catalogURL.envKey)
	viper.BindEnv(profileURL.flagKey, profileURL.envKey)

	config := &app.AppConfig{
		Secret:           viper.GetString(secret.flagKey),
		Host:             viper.GetString(host.flagKey),
		Port:             viper.GetInt(port.flagKey),
		LogLevel:         viper.GetString(logLevel.flagKey),
		MaxParticipants:  viper.GetInt(maxParticipants.flagKey),
		PresenceTimeout:  viper.GetDuration(presenceTimeout.flagKey),
		ReapAfter:        viper.GetDuration(reapAfter.flagKey),
		ReapInterval:     viper.GetDuration(reapInterval.flagKey),
		ChatHistoryLimit: viper.GetInt(chatHistoryLimit.flagKey),
		JoinLinkBase:     viper.GetString(joinLinkBase.flagKey),
		RedisHost:        viper.GetString(redisHost.flagKey),
		RedisPort:        viper.GetInt(redisPort.flagKey),
		RedisPassword:    viper.GetString(redisPassword.flagKey),
		KafkaBrokers:     viper.GetStringSlice(kafkaBrokers.flagKey),
		KafkaTopic:       viper.GetString(kafkaTopic.flagKey),
		CatalogURL:       viper.GetString(catalogURL.flagKey),
		ProfileURL:       viper.GetString(profileURL.flagKey),
	}

	return config
}

func main() {
	ctx := context.Background()

	appConfig := loadAppConfig()

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting app with config: %s\n", jsonConfig)

	log.Fatal(app.Run(ctx, appConfig))
}
