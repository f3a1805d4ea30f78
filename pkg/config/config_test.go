package config

import (
	"strings"
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg := FromEnv()

	if cfg.Port != DefaultPort {
		t.Errorf("Port = %s, want %s", cfg.Port, DefaultPort)
	}
	if cfg.CatalogBackend != BackendKoha {
		t.Errorf("CatalogBackend = %s, want %s", cfg.CatalogBackend, BackendKoha)
	}
	if cfg.SessionStore != StoreMemory {
		t.Errorf("SessionStore = %s, want %s", cfg.SessionStore, StoreMemory)
	}
	if cfg.Location != time.UTC {
		t.Errorf("Location = %v, want UTC", cfg.Location)
	}
	if cfg.FirstWeekday != time.Monday {
		t.Errorf("FirstWeekday = %v, want Monday", cfg.FirstWeekday)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate, got: %v", err)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv(EnvCatalogBackend, "MONGO")
	t.Setenv(EnvSessionStore, "redis")
	t.Setenv(EnvSessionTTL, "5m")
	t.Setenv(EnvKafkaEnabled, "true")
	t.Setenv(EnvKafkaBrokers, "k1:9092, k2:9092,")
	t.Setenv(EnvKohaBaseURL, "https://opac.example.org/")

	cfg := FromEnv()

	if cfg.CatalogBackend != BackendMongo {
		t.Errorf("CatalogBackend = %s, want %s", cfg.CatalogBackend, BackendMongo)
	}
	if cfg.SessionTTL != 5*time.Minute {
		t.Errorf("SessionTTL = %s, want 5m", cfg.SessionTTL)
	}
	if !cfg.KafkaEnabled || len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Errorf("unexpected kafka settings: %v %v", cfg.KafkaEnabled, cfg.KafkaBrokers)
	}
	if cfg.KohaBaseURL != "https://opac.example.org" {
		t.Errorf("KohaBaseURL = %s, trailing slash should be trimmed", cfg.KohaBaseURL)
	}
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := FromEnv()
	cfg.Port = "0"
	cfg.CatalogBackend = "sql"
	cfg.SessionStore = "disk"
	cfg.Location = nil
	cfg.Timezone = "Mars/Olympus"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{"Port", "CatalogBackend", "SessionStore", "Timezone"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error should mention %s, got:\n%s", want, msg)
		}
	}
}

func TestValidate_MongoBackendRequiresURI(t *testing.T) {
	cfg := FromEnv()
	cfg.CatalogBackend = BackendMongo
	cfg.MongoURI = "postgres://nope"

	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "MongoURI") {
		t.Errorf("expected MongoURI error, got %v", err)
	}
}

func TestRedactMongoURI(t *testing.T) {
	got := redactMongoURI("mongodb://admin:secret@db:27017")
	if strings.Contains(got, "secret") {
		t.Errorf("password leaked: %s", got)
	}
	if got != "mongodb://***:***@db:27017" {
		t.Errorf("redactMongoURI = %s", got)
	}
}

func TestValidate_TracingSampleRatio(t *testing.T) {
	t.Setenv(EnvTracingEnabled, "true")
	t.Setenv(EnvTraceSampleRatio, "1.5")

	cfg := FromEnv()
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "TraceSampleRatio") {
		t.Fatalf("expected TraceSampleRatio error, got: %v", err)
	}

	t.Setenv(EnvTraceSampleRatio, "0.25")
	cfg = FromEnv()
	if cfg.TraceSampleRatio != 0.25 {
		t.Errorf("TraceSampleRatio = %g, want 0.25", cfg.TraceSampleRatio)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid tracing config, got: %v", err)
	}
}
