package config

import "time"

const (
	BackendKoha  = "koha"
	BackendMongo = "mongo"

	StoreMemory = "memory"
	StoreRedis  = "redis"
)

const (
	DefaultPort      = "8080"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultCatalogBackend = BackendKoha
	DefaultKohaBaseURL    = "http://localhost:8080"
	DefaultKohaTimeout    = 10 * time.Second

	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "opacbookings"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultSessionStore = StoreMemory
	DefaultSessionTTL   = 30 * time.Minute
	DefaultRedisAddr    = "localhost:6379"
	DefaultRedisDB      = 0

	DefaultKafkaEnabled       = false
	DefaultKafkaBrokers       = "localhost:9092"
	DefaultKafkaBookingsTopic = "opac.bookings"
	DefaultKafkaGroupID       = "opacbookings-table"

	DefaultTracingEnabled   = false
	DefaultOTLPEndpoint     = "localhost:4317"
	DefaultTraceSampleRatio = 1.0

	DefaultTimezone     = "UTC"
	DefaultFirstWeekday = 1 // Monday
)
