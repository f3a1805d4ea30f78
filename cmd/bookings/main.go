package main

import (
	"context"
	"os"

	"opacbookings/internal/bookingmodal/handler"
	"opacbookings/internal/bookingmodal/repository"
	"opacbookings/internal/bookingmodal/service"
	"opacbookings/internal/bookingmodal/validator"
	tablehandler "opacbookings/internal/bookingstable/handler"
	tableservice "opacbookings/internal/bookingstable/service"
	"opacbookings/internal/catalog"
	catalogrepository "opacbookings/internal/catalog/repository"
	"opacbookings/pkg/app"
	"opacbookings/pkg/client"
	"opacbookings/pkg/config"
	"opacbookings/pkg/kafka"
	kafka_config "opacbookings/pkg/kafka/config"
	kafka_middleware "opacbookings/pkg/kafka/middleware"
	"opacbookings/pkg/tracing"
)

const ServiceName = "opacbookings"

func main() {
	cfg := config.Load(ServiceName)
	cfg.Log.Info("Starting OPAC bookings service")

	serverApp := app.NewApplication(cfg)
	initTracing(cfg, serverApp)

	bookingCatalog := initCatalog(cfg)
	sessions := initSessionStore(cfg)
	table := tableservice.NewBookingsTableService(bookingCatalog, cfg)

	listeners := []service.BookingListener{table}
	if cfg.KafkaEnabled {
		listeners = append(listeners, initKafka(cfg, serverApp, table))
	}

	modal := service.NewBookingModalService(
		bookingCatalog,
		sessions,
		validator.NewBookingValidator(cfg.Log),
		cfg,
		listeners...,
	)

	deps := []handler.Dependency{{Name: "sessions", Ping: sessions.Ping}}
	if cfg.Client.Mongo != nil || cfg.Client.Redis != nil {
		deps = append(deps, handler.Dependency{Name: "connections", Ping: cfg.Client.Ping})
	}

	serverApp.SetApp(
		handler.NewHealthHandler(cfg.Log, deps...),
		handler.NewBookingModalHandler(modal, cfg.Log),
		tablehandler.NewBookingsTableHandler(table, cfg.Log),
	)
	serverApp.Run()
}

func initTracing(cfg *config.Config, serverApp *app.Application) {
	provider, err := tracing.Setup(context.Background(), tracing.Config{
		Enabled:      cfg.TracingEnabled,
		ServiceName:  cfg.ServiceName,
		OTLPEndpoint: cfg.OTLPEndpoint,
		SampleRatio:  cfg.TraceSampleRatio,
	})
	if err != nil {
		cfg.Log.Fatal("Failed to set up tracing", "error", err)
	}
	serverApp.AddCloser(provider)
}

func initCatalog(cfg *config.Config) catalog.Catalog {
	if cfg.CatalogBackend == config.BackendMongo {
		cfg.SetMongo()
		cfg.Log.Info("Catalog backend initialized", "backend", cfg.CatalogBackend, "database", cfg.MongoDatabaseName)
		return catalogrepository.NewMongoCatalogRepository(cfg)
	}

	cfg.Log.Info("Catalog backend initialized", "backend", cfg.CatalogBackend, "base_url", cfg.KohaBaseURL)
	return client.NewKohaClient(cfg.KohaBaseURL, cfg.KohaTimeout)
}

func initSessionStore(cfg *config.Config) repository.SessionRepository {
	if cfg.SessionStore == config.StoreRedis {
		cfg.SetRedis()
		cfg.Log.Info("Session store initialized", "store", cfg.SessionStore, "ttl", cfg.SessionTTL)
		return repository.NewRedisSessionRepository(cfg.Client.Redis, cfg.SessionTTL)
	}

	cfg.Log.Info("Session store initialized", "store", cfg.SessionStore, "ttl", cfg.SessionTTL)
	return repository.NewMemorySessionRepository(cfg.SessionTTL)
}

// initKafka publishes created bookings and consumes them back so every
// instance drops its cached patron tables. Each instance uses its own
// consumer group to see every event.
func initKafka(cfg *config.Config, serverApp *app.Application, table tableservice.BookingsTableService) service.BookingListener {
	kafkaCfg, err := kafka_config.Load(cfg.KafkaBrokers)
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	producer, err := kafka.NewProducer(kafkaCfg, cfg.KafkaBookingsTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	serverApp.AddCloser(producer)

	groupID := cfg.KafkaGroupID
	if host, err := os.Hostname(); err == nil && host != "" {
		groupID += "-" + host
	}

	consumer, err := kafka.NewConsumer(kafkaCfg, cfg.KafkaBookingsTopic, groupID, tableservice.NewBookingEventHandler(table, cfg.Log), cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}
	consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
	serverApp.AddWorker("bookings-consumer", consumer)

	cfg.Log.Info("Kafka booking events enabled", "topic", cfg.KafkaBookingsTopic, "group_id", groupID)
	return service.NewEventPublisher(producer, ServiceName, cfg.Log)
}
