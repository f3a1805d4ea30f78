package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"opacbookings/pkg/client"
	"opacbookings/pkg/logger"
)

type Config struct {
	ServiceName string

	Port string

	LogLevel  string
	LogFormat string

	RequestTimeout time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	CatalogBackend string
	KohaBaseURL    string
	KohaTimeout    time.Duration

	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	SessionStore  string
	SessionTTL    time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	KafkaEnabled       bool
	KafkaBrokers       []string
	KafkaBookingsTopic string
	KafkaGroupID       string

	TracingEnabled   bool
	OTLPEndpoint     string
	TraceSampleRatio float64

	Timezone     string
	Location     *time.Location
	FirstWeekday time.Weekday

	Log    *logger.Logger
	Client *client.Client
}

// Load reads .env (when present) and the process environment, validates the
// result and exits on any problem.
func Load(serviceName string) *Config {
	_ = godotenv.Load()

	cfg := FromEnv()
	cfg.ServiceName = serviceName
	cfg.Log = logger.New(logger.Config{
		Level:     cfg.LogLevel,
		Format:    cfg.LogFormat,
		AddSource: true,
		Service:   serviceName,
	})

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

// FromEnv builds a Config from environment variables without validating it.
func FromEnv() *Config {
	cfg := &Config{
		Port: getEnvStr(EnvPort, DefaultPort),

		LogLevel:  getEnvStr(EnvLogLevel, DefaultLogLevel),
		LogFormat: getEnvStr(EnvLogFormat, DefaultLogFormat),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		CatalogBackend: strings.ToLower(getEnvStr(EnvCatalogBackend, DefaultCatalogBackend)),
		KohaBaseURL:    strings.TrimRight(getEnvStr(EnvKohaBaseURL, DefaultKohaBaseURL), "/"),
		KohaTimeout:    getEnvDuration(EnvKohaTimeout, DefaultKohaTimeout),

		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		SessionStore:  strings.ToLower(getEnvStr(EnvSessionStore, DefaultSessionStore)),
		SessionTTL:    getEnvDuration(EnvSessionTTL, DefaultSessionTTL),
		RedisAddr:     getEnvStr(EnvRedisAddr, DefaultRedisAddr),
		RedisPassword: getEnvStr(EnvRedisPassword, ""),
		RedisDB:       getEnvNum(EnvRedisDB, DefaultRedisDB),

		KafkaEnabled:       getEnvBool(EnvKafkaEnabled, DefaultKafkaEnabled),
		KafkaBrokers:       splitList(getEnvStr(EnvKafkaBrokers, DefaultKafkaBrokers)),
		KafkaBookingsTopic: getEnvStr(EnvKafkaBookingsTopic, DefaultKafkaBookingsTopic),
		KafkaGroupID:       getEnvStr(EnvKafkaGroupID, DefaultKafkaGroupID),

		TracingEnabled:   getEnvBool(EnvTracingEnabled, DefaultTracingEnabled),
		OTLPEndpoint:     getEnvStr(EnvOTLPEndpoint, DefaultOTLPEndpoint),
		TraceSampleRatio: getEnvFloat(EnvTraceSampleRatio, DefaultTraceSampleRatio),

		Timezone:     getEnvStr(EnvTimezone, DefaultTimezone),
		FirstWeekday: time.Weekday(getEnvNum(EnvFirstWeekday, DefaultFirstWeekday)),

		Client: client.NewClient(),
	}

	if loc, err := time.LoadLocation(cfg.Timezone); err == nil {
		cfg.Location = loc
	}
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) SetRedis() {
	cfg.Client.SetRedis(cfg.Log, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	switch cfg.CatalogBackend {
	case BackendKoha:
		if u, err := url.Parse(cfg.KohaBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errors = append(errors, fmt.Sprintf("KohaBaseURL must be an absolute URL, got: %s", cfg.KohaBaseURL))
		}
		if cfg.KohaTimeout <= 0 {
			errors = append(errors, fmt.Sprintf("KohaTimeout must be positive, got: %s", cfg.KohaTimeout))
		}
	case BackendMongo:
		if cfg.MongoURI == "" {
			errors = append(errors, "MongoURI cannot be empty")
		} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
			errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
		}
		if cfg.MongoDatabaseName == "" {
			errors = append(errors, "MongoDatabaseName cannot be empty")
		}
		if cfg.MongoConnTimeout <= 0 {
			errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
		}
	default:
		errors = append(errors, fmt.Sprintf("CatalogBackend must be %q or %q, got: %s", BackendKoha, BackendMongo, cfg.CatalogBackend))
	}

	switch cfg.SessionStore {
	case StoreMemory:
	case StoreRedis:
		if cfg.RedisAddr == "" {
			errors = append(errors, "RedisAddr cannot be empty")
		}
		if cfg.RedisDB < 0 {
			errors = append(errors, fmt.Sprintf("RedisDB cannot be negative, got: %d", cfg.RedisDB))
		}
	default:
		errors = append(errors, fmt.Sprintf("SessionStore must be %q or %q, got: %s", StoreMemory, StoreRedis, cfg.SessionStore))
	}
	if cfg.SessionTTL <= 0 {
		errors = append(errors, fmt.Sprintf("SessionTTL must be positive, got: %s", cfg.SessionTTL))
	}

	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			errors = append(errors, "KafkaBrokers cannot be empty when Kafka is enabled")
		}
		if cfg.KafkaBookingsTopic == "" {
			errors = append(errors, "KafkaBookingsTopic cannot be empty when Kafka is enabled")
		}
	}

	if cfg.TracingEnabled {
		if cfg.OTLPEndpoint == "" {
			errors = append(errors, "OTLPEndpoint cannot be empty when tracing is enabled")
		}
		if cfg.TraceSampleRatio < 0 || cfg.TraceSampleRatio > 1 {
			errors = append(errors, fmt.Sprintf("TraceSampleRatio must be between 0 and 1, got: %g", cfg.TraceSampleRatio))
		}
	}

	if cfg.Location == nil {
		errors = append(errors, fmt.Sprintf("Timezone must be a valid IANA zone, got: %s", cfg.Timezone))
	}
	if cfg.FirstWeekday < time.Sunday || cfg.FirstWeekday > time.Saturday {
		errors = append(errors, fmt.Sprintf("FirstWeekday must be between 0 (Sunday) and 6 (Saturday), got: %d", cfg.FirstWeekday))
	}

	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"port", cfg.Port,
		"log_level", cfg.LogLevel,
		"catalog_backend", cfg.CatalogBackend,
		"koha_base_url", cfg.KohaBaseURL,
		"koha_timeout", cfg.KohaTimeout,
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"session_store", cfg.SessionStore,
		"session_ttl", cfg.SessionTTL,
		"redis_addr", cfg.RedisAddr,
		"redis_password_set", cfg.RedisPassword != "",
		"kafka_enabled", cfg.KafkaEnabled,
		"kafka_brokers", cfg.KafkaBrokers,
		"kafka_bookings_topic", cfg.KafkaBookingsTopic,
		"tracing_enabled", cfg.TracingEnabled,
		"otlp_endpoint", cfg.OTLPEndpoint,
		"timezone", cfg.Timezone,
		"first_weekday", cfg.FirstWeekday,
		"request_timeout", cfg.RequestTimeout,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
	)
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log, cfg.ShutdownTimeout)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
