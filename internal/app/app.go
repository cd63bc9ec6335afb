// Package app arma las dependencias compartidas por la API y el worker.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jhoicas/inventory-service/internal/application/events"
	"github.com/jhoicas/inventory-service/internal/application/idempotency"
	"github.com/jhoicas/inventory-service/internal/application/inventory"
	"github.com/jhoicas/inventory-service/internal/infrastructure/kafka"
	"github.com/jhoicas/inventory-service/internal/infrastructure/metrics"
	"github.com/jhoicas/inventory-service/internal/infrastructure/postgres"
	"github.com/jhoicas/inventory-service/internal/infrastructure/redis"
	"github.com/jhoicas/inventory-service/pkg/config"
	"github.com/jhoicas/inventory-service/pkg/logger"
)

// Container dependencias construidas a partir de la configuración.
type Container struct {
	Config      *config.Config
	Pool        *pgxpool.Pool
	Inventories *postgres.InventoryRepo
	Ledger      *inventory.LedgerUseCase
	Idempotency *idempotency.Service
	Metrics     *metrics.Metrics // nil si no se pidió registro de métricas

	producer *kafka.Producer
	redis    *goredis.Client
	log      zerolog.Logger
}

// Options ajustes del arranque.
type Options struct {
	// Registerer registra métricas Prometheus; nil las desactiva.
	Registerer prometheus.Registerer
	// Publish habilita la publicación de inventory.movement_recorded si KAFKA_PUBLISH_TOPIC no está vacío.
	Publish bool
	// Cache habilita el atajo Redis si REDIS_ENABLED.
	Cache bool
}

// New conecta PostgreSQL (y Redis/Kafka según opts) y construye los casos de uso.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger, opts Options) (*Container, error) {
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	c := &Container{Config: cfg, Pool: pool, log: log.Component("app")}

	if cfg.DB.EnsureSchema {
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			c.Close()
			return nil, err
		}
		c.log.Info().Msg("esquema de base de datos verificado")
	}

	txRunner := postgres.NewTxRunner(pool)
	c.Inventories = postgres.NewInventoryRepository(pool)
	movements := postgres.NewInventoryMovementRepository(pool)
	processed := postgres.NewProcessedEventRepository(pool)

	var publisher inventory.MovementPublisher
	if opts.Publish && cfg.Kafka.PublishTopic != "" {
		c.producer = kafka.NewProducer(kafka.Config{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.PublishTopic})
		publisher = events.NewMovementPublisher(c.producer, cfg.App.Name)
		c.log.Info().Str("topic", cfg.Kafka.PublishTopic).Msg("publicación de movimientos habilitada")
	}
	c.Ledger = inventory.NewLedgerUseCase(txRunner, c.Inventories, movements, publisher, log.Component("ledger"))

	svcOpts := []idempotency.Option{idempotency.WithLogger(log.Component("idempotency"))}
	if opts.Registerer != nil {
		c.Metrics = metrics.New(opts.Registerer)
		svcOpts = append(svcOpts, idempotency.WithRecorder(c.Metrics))
	}
	if opts.Cache && cfg.Redis.Enabled {
		client, err := redis.NewClient(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			// La cache es opcional: sin ella se consulta siempre PostgreSQL.
			c.log.Warn().Err(err).Msg("Redis no disponible, se continúa sin cache de idempotencia")
		} else {
			c.redis = client
			svcOpts = append(svcOpts, idempotency.WithCache(redis.NewProcessedCache(client, cfg.Idempotency.CacheTTL)))
		}
	}
	c.Idempotency = idempotency.NewService(processed, txRunner, svcOpts...)
	return c, nil
}

// Registry tabla de handlers de eventos sobre el ledger del contenedor.
func (c *Container) Registry(log zerolog.Logger) map[string]idempotency.Handler {
	return events.NewRegistry(events.Deps{Ledger: c.Ledger, Inventories: c.Inventories, Log: log})
}

// Close libera conexiones en orden inverso a su creación.
func (c *Container) Close() {
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			c.log.Warn().Err(err).Msg("cerrar Redis")
		}
	}
	if c.producer != nil {
		if err := c.producer.Close(); err != nil {
			c.log.Warn().Err(err).Msg("cerrar productor Kafka")
		}
	}
	c.Pool.Close()
}
