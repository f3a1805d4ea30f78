package kafka_config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load([]string{"localhost:9092"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ProducerCompression != "snappy" || cfg.ConsumerMaxRetries != 3 || cfg.DLQTopic != "" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv(EnvKafkaProducerCompression, "ZSTD")
	t.Setenv(EnvKafkaConsumerRetryBackoff, "1s")
	t.Setenv(EnvKafkaDLQTopic, "opac.bookings.dlq")

	cfg, err := Load([]string{"a:9092", "b:9092"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ProducerCompression != "zstd" || cfg.ConsumerRetryBackoff != time.Second || cfg.DLQTopic != "opac.bookings.dlq" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
}

func TestValidate_CollectsProblems(t *testing.T) {
	t.Setenv(EnvKafkaProducerRequireAcks, "2")
	t.Setenv(EnvKafkaConsumerStartOffset, "5")

	_, err := Load([]string{""})
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"Brokers[0]", "ProducerRequireAcks", "ConsumerStartOffset"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %s: %v", want, err)
		}
	}
}

func TestValidate_BrokerAddress(t *testing.T) {
	_, err := Load([]string{"kafka-without-port"})
	if err == nil || !strings.Contains(err.Error(), "hostname_port") {
		t.Fatalf("expected hostname_port failure, got %v", err)
	}

	_, err = Load(nil)
	if err == nil || !strings.Contains(err.Error(), "Brokers") {
		t.Fatalf("expected missing broker failure, got %v", err)
	}
}
