package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	kafka_config "opacbookings/pkg/kafka/config"
	"opacbookings/pkg/logger"
)

type Consumer struct {
	reader       *kafka.Reader
	dlqWriter    *kafka.Writer
	topic        string
	groupID      string
	maxRetries   int
	retryBackoff time.Duration
	handler      MessageHandler
	log          *logger.Logger
	middleware   []ConsumerMiddleware
	closed       bool
	mu           sync.RWMutex
	wg           sync.WaitGroup
}

type ConsumerMiddleware func(ctx context.Context, msg Message, next MessageHandler) error

func NewConsumer(cfg *kafka_config.Config, topic string, groupID string, handler MessageHandler, log *logger.Logger) (*Consumer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic cannot be empty")
	}
	if groupID == "" {
		return nil, fmt.Errorf("group ID cannot be empty")
	}
	if handler == nil {
		return nil, fmt.Errorf("message handler cannot be nil")
	}

	log = log.Component("kafka_consumer")

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       cfg.ConsumerMinBytes,
		MaxBytes:       cfg.ConsumerMaxBytes,
		MaxWait:        cfg.ConsumerMaxWait,
		CommitInterval: cfg.ConsumerCommitInterval,
		StartOffset:    cfg.ConsumerStartOffset,
		Logger:         kafka.LoggerFunc(func(msg string, args ...any) {}), // Silence default logger
		ErrorLogger:    errorLogger(log),
	})

	consumer := &Consumer{
		reader:       reader,
		topic:        topic,
		groupID:      groupID,
		maxRetries:   cfg.ConsumerMaxRetries,
		retryBackoff: cfg.ConsumerRetryBackoff,
		handler:      handler,
		log:          log,
		middleware:   make([]ConsumerMiddleware, 0),
	}

	if cfg.DLQTopic != "" {
		consumer.dlqWriter = &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.DLQTopic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Compression:  compressionCodec(cfg.ProducerCompression),
			MaxAttempts:  3,
			Logger:       kafka.LoggerFunc(func(msg string, args ...any) {}),
			ErrorLogger:  errorLogger(log),
		}
	}

	return consumer, nil
}

func (c *Consumer) Use(middleware ConsumerMiddleware) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.middleware = append(c.middleware, middleware)
}

// Start consumes until ctx is cancelled. Offsets are committed after each
// message whether or not its handler succeeded; failures end up in the DLQ
// when one is configured.
func (c *Consumer) Start(ctx context.Context) error {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return ErrConsumerClosed
	}
	c.wg.Add(1)
	c.mu.RUnlock()
	defer c.wg.Done()

	c.log.Info("Kafka consumer started", "topic", c.topic, "group_id", c.groupID)

	for {
		kafkaMsg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				return ErrConsumerClosed
			}
			c.log.Error("Failed to fetch message", "topic", c.topic, "error", err)
			if !sleep(ctx, time.Second) {
				return ctx.Err()
			}
			continue
		}

		msg := fromKafkaMessage(kafkaMsg)
		msgCtx, span := startConsumeSpan(ctx, msg)
		err = c.processMessage(msgCtx, msg)
		endSpan(span, err)
		if err != nil {
			c.log.Error("Failed to process message",
				"topic", msg.Topic,
				"partition", msg.Partition,
				"offset", msg.Offset,
				"event_id", msg.GetEventID(),
				"error", err,
			)
		}

		if err := c.reader.CommitMessages(ctx, kafkaMsg); err != nil {
			c.log.Error("Failed to commit offset", "topic", c.topic, "offset", kafkaMsg.Offset, "error", err)
		}
	}
}

// processMessage runs the handler, retrying transient failures with a fixed
// backoff. A message that still fails goes to the DLQ.
func (c *Consumer) processMessage(ctx context.Context, msg Message) error {
	c.mu.RLock()
	handler := c.handler
	for i := len(c.middleware) - 1; i >= 0; i-- {
		mw := c.middleware[i]
		next := handler
		handler = func(ctx context.Context, m Message) error {
			return mw(ctx, m, next)
		}
	}
	c.mu.RUnlock()

	for {
		err := handler(ctx, msg)
		if err == nil {
			return nil
		}

		retries := msg.GetRetryCount()
		if !ShouldRetry(err, retries, c.maxRetries) {
			c.deadLetter(ctx, msg, err)
			return err
		}

		msg.IncrementRetryCount()
		c.log.Warn("Retrying message",
			"attempt", retries+1,
			"max_retries", c.maxRetries,
			"event_id", msg.GetEventID(),
			"error", err,
		)
		if !sleep(ctx, c.retryBackoff) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) deadLetter(ctx context.Context, msg Message, err error) {
	if c.dlqWriter == nil {
		return
	}
	if dlqErr := c.dlqWriter.WriteMessages(ctx, toKafkaMessage(dlqMessage(msg, c.topic, err))); dlqErr != nil {
		c.log.Error("Failed to send message to DLQ", "event_id", msg.GetEventID(), "error", dlqErr, "original_error", err)
		return
	}
	c.log.Warn("Message sent to DLQ", "event_id", msg.GetEventID(), "retries", msg.GetRetryCount(), "error", err)
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// Close closes the reader, which unblocks Start, then waits for it.
func (c *Consumer) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	var err error
	if c.reader != nil {
		err = c.reader.Close()
	}
	c.wg.Wait()

	if c.dlqWriter != nil {
		if dlqErr := c.dlqWriter.Close(); err == nil {
			err = dlqErr
		}
	}
	return err
}

func (c *Consumer) Lag() int64 {
	return c.reader.Stats().Lag
}
