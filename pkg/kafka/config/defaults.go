package kafka_config

import "time"

const (
	// Producer defaults
	DefaultProducerMaxAttempts  = 3
	DefaultProducerBatchTimeout = 10 * time.Millisecond
	DefaultProducerRequireAcks  = -1 // Require all replicas
	DefaultProducerCompression  = "snappy"

	// Consumer defaults
	DefaultConsumerStartOffset    = -1 // Newest messages
	DefaultConsumerMinBytes       = 1
	DefaultConsumerMaxBytes       = 1024 * 1024 // 1MB, booking events are small
	DefaultConsumerMaxWait        = 500 * time.Millisecond
	DefaultConsumerCommitInterval = 1 * time.Second
	DefaultConsumerMaxRetries     = 3
	DefaultConsumerRetryBackoff   = 200 * time.Millisecond

	// No dead letter topic unless configured
	DefaultDLQTopic = ""
)
