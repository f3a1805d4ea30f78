package kafka_config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds the producer and consumer tuning for the bookings topic.
// Brokers, topic and group come from the service configuration.
type Config struct {
	Brokers []string `validate:"min=1,dive,required,hostname_port"`

	ProducerMaxAttempts  int           `validate:"gt=0"`
	ProducerBatchTimeout time.Duration `validate:"gt=0"`
	ProducerRequireAcks  int           `validate:"oneof=-1 0 1"`
	ProducerCompression  string        `validate:"oneof=none gzip snappy lz4 zstd"`

	ConsumerStartOffset    int64         `validate:"oneof=-1 -2"`
	ConsumerMinBytes       int           `validate:"gt=0"`
	ConsumerMaxBytes       int           `validate:"gtefield=ConsumerMinBytes"`
	ConsumerMaxWait        time.Duration `validate:"gt=0"`
	ConsumerCommitInterval time.Duration `validate:"gt=0"`
	ConsumerMaxRetries     int           `validate:"gte=0"`
	ConsumerRetryBackoff   time.Duration `validate:"gte=0"`

	// DLQTopic is empty when dead-lettering is off.
	DLQTopic string
}

var validate = validator.New()

// Load reads the Kafka tuning from the environment for the given brokers.
func Load(brokers []string) (*Config, error) {
	cfg := &Config{
		Brokers: brokers,

		ProducerMaxAttempts:  envOr(EnvKafkaProducerMaxAttempts, DefaultProducerMaxAttempts, strconv.Atoi),
		ProducerBatchTimeout: envOr(EnvKafkaProducerBatchTimeout, DefaultProducerBatchTimeout, time.ParseDuration),
		ProducerRequireAcks:  envOr(EnvKafkaProducerRequireAcks, DefaultProducerRequireAcks, strconv.Atoi),
		ProducerCompression:  strings.ToLower(envOr(EnvKafkaProducerCompression, DefaultProducerCompression, asString)),

		ConsumerStartOffset:    envOr(EnvKafkaConsumerStartOffset, int64(DefaultConsumerStartOffset), parseInt64),
		ConsumerMinBytes:       DefaultConsumerMinBytes,
		ConsumerMaxBytes:       DefaultConsumerMaxBytes,
		ConsumerMaxWait:        envOr(EnvKafkaConsumerMaxWait, DefaultConsumerMaxWait, time.ParseDuration),
		ConsumerCommitInterval: envOr(EnvKafkaConsumerCommitInterval, DefaultConsumerCommitInterval, time.ParseDuration),
		ConsumerMaxRetries:     envOr(EnvKafkaConsumerMaxRetries, DefaultConsumerMaxRetries, strconv.Atoi),
		ConsumerRetryBackoff:   envOr(EnvKafkaConsumerRetryBackoff, DefaultConsumerRetryBackoff, time.ParseDuration),

		DLQTopic: envOr(EnvKafkaDLQTopic, DefaultDLQTopic, asString),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid field at once.
func (cfg *Config) Validate() error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("kafka configuration: %w", err)
	}
	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() == "" {
			problems = append(problems, fmt.Sprintf("%s failed %s (got %v)", fe.Field(), fe.Tag(), fe.Value()))
			continue
		}
		problems = append(problems, fmt.Sprintf("%s failed %s=%s (got %v)", fe.Field(), fe.Tag(), fe.Param(), fe.Value()))
	}
	return fmt.Errorf("kafka configuration: %s", strings.Join(problems, "; "))
}

// LogConfiguration logs the Kafka configuration through logFunc.
func (cfg *Config) LogConfiguration(logFunc func(msg string, keysAndValues ...any)) {
	if logFunc == nil {
		return
	}

	logFunc("Kafka configuration loaded successfully",
		"brokers", cfg.Brokers,
		"producer_max_attempts", cfg.ProducerMaxAttempts,
		"producer_require_acks", cfg.ProducerRequireAcks,
		"producer_compression", cfg.ProducerCompression,
		"consumer_start_offset", cfg.ConsumerStartOffset,
		"consumer_max_retries", cfg.ConsumerMaxRetries,
		"dlq_topic", cfg.DLQTopic,
	)
}

// envOr parses key with parse, keeping fallback when unset or malformed.
func envOr[T any](key string, fallback T, parse func(string) (T, error)) T {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := parse(raw)
	if err != nil {
		return fallback
	}
	return v
}

func asString(s string) (string, error) { return s, nil }

func parseInt64(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) }
