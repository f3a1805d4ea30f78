package config

const (
	EnvPort      = "PORT"
	EnvLogLevel  = "LOG_LEVEL"
	EnvLogFormat = "LOG_FORMAT"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvCatalogBackend = "CATALOG_BACKEND"
	EnvKohaBaseURL    = "KOHA_BASE_URL"
	EnvKohaTimeout    = "KOHA_TIMEOUT"

	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvSessionStore  = "SESSION_STORE"
	EnvSessionTTL    = "SESSION_TTL"
	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvRedisDB       = "REDIS_DB"

	EnvKafkaEnabled       = "KAFKA_ENABLED"
	EnvKafkaBrokers       = "KAFKA_BROKERS"
	EnvKafkaBookingsTopic = "KAFKA_BOOKINGS_TOPIC"
	EnvKafkaGroupID       = "KAFKA_GROUP_ID"

	EnvTracingEnabled   = "OTEL_ENABLED"
	EnvOTLPEndpoint     = "OTEL_EXPORTER_OTLP_ENDPOINT"
	EnvTraceSampleRatio = "OTEL_SAMPLING_RATIO"

	EnvTimezone     = "TIMEZONE"
	EnvFirstWeekday = "FIRST_WEEKDAY"
)
