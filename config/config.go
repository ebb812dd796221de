package config

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Server   Server
	Database Database
	Queue    Queue
	Redis    Redis
	Backend  Backend
	Auth     Auth
	Sync     Sync
	Quiz     Quiz
}

type Server struct {
	Port string
}

// Database describes the local store. Driver is "sqlite" (default, Path is used)
// or "postgres" (Host..Name are used).
type Database struct {
	Driver   string
	Path     string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// Queue selects the storage engine of the mutation queue: "sql" or "redis".
type Queue struct {
	Backend string
}

type Redis struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

type Backend struct {
	BaseURL string
	Timeout time.Duration
}

type Auth struct {
	Token     string
	TokenFile string
}

type Sync struct {
	Debounce      time.Duration
	Workers       int
	ProbeInterval time.Duration
	StartOnline   bool
}

type Quiz struct {
	CacheTTL time.Duration
}

func NewConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "8090")
	viper.SetDefault("DATABASE_DRIVER", "sqlite")
	viper.SetDefault("DATABASE_PATH", "quizsync.db")
	viper.SetDefault("QUEUE_BACKEND", "sql")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PREFIX", "quizsync:")
	viper.SetDefault("BACKEND_BASE_URL", "http://localhost:8080/api")
	viper.SetDefault("BACKEND_TIMEOUT", "10s")
	viper.SetDefault("SYNC_DEBOUNCE", "2s")
	viper.SetDefault("SYNC_WORKERS", 4)
	viper.SetDefault("SYNC_PROBE_INTERVAL", "15s")
	viper.SetDefault("SYNC_START_ONLINE", true)
	viper.SetDefault("QUIZ_CACHE_TTL", "30m")

	if err := viper.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("Error reading config file")
	}

	var config Config

	config.Server.Port = viper.GetString("SERVER_PORT")

	config.Database.Driver = viper.GetString("DATABASE_DRIVER")
	config.Database.Path = viper.GetString("DATABASE_PATH")
	config.Database.Host = viper.GetString("DATABASE_HOST")
	config.Database.Port = viper.GetString("DATABASE_PORT")
	config.Database.User = viper.GetString("DATABASE_USER")
	config.Database.Password = viper.GetString("DATABASE_PASSWORD")
	config.Database.Name = viper.GetString("DATABASE_NAME")

	config.Queue.Backend = viper.GetString("QUEUE_BACKEND")

	config.Redis.Addr = viper.GetString("REDIS_ADDR")
	config.Redis.Password = viper.GetString("REDIS_PASSWORD")
	config.Redis.DB = viper.GetInt("REDIS_DB")
	config.Redis.Prefix = viper.GetString("REDIS_PREFIX")

	config.Backend.BaseURL = viper.GetString("BACKEND_BASE_URL")
	config.Backend.Timeout = viper.GetDuration("BACKEND_TIMEOUT")

	config.Auth.Token = viper.GetString("AUTH_TOKEN")
	config.Auth.TokenFile = viper.GetString("AUTH_TOKEN_FILE")

	config.Sync.Debounce = viper.GetDuration("SYNC_DEBOUNCE")
	config.Sync.Workers = viper.GetInt("SYNC_WORKERS")
	config.Sync.ProbeInterval = viper.GetDuration("SYNC_PROBE_INTERVAL")
	config.Sync.StartOnline = viper.GetBool("SYNC_START_ONLINE")

	config.Quiz.CacheTTL = viper.GetDuration("QUIZ_CACHE_TTL")

	log.Info().
		Str("port", config.Server.Port).
		Str("databaseDriver", config.Database.Driver).
		Str("queueBackend", config.Queue.Backend).
		Str("backend", config.Backend.BaseURL).
		Msg("Config loaded")
	return &config, nil
}
