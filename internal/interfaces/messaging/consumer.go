// Package messaging conecta el bus Kafka con el servicio de idempotencia.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/inventory-service/internal/application/idempotency"
	"github.com/jhoicas/inventory-service/internal/domain"
	"github.com/jhoicas/inventory-service/internal/domain/entity"
	"github.com/jhoicas/inventory-service/pkg/telemetry"
	"github.com/jhoicas/inventory-service/pkg/validation"
)

// Decision qué hacer con el offset de un mensaje.
type Decision int

const (
	// DecisionCommit procesado u omitido por duplicado: confirmar offset.
	DecisionCommit Decision = iota
	// DecisionPoison nunca podrá procesarse: confirmar para no reentregar indefinidamente.
	DecisionPoison
	// DecisionRetry fallo transitorio: no confirmar, el grupo reentrega desde el último offset.
	DecisionRetry
)

func (d Decision) String() string {
	switch d {
	case DecisionCommit:
		return "commit"
	case DecisionPoison:
		return "poison"
	case DecisionRetry:
		return "retry"
	}
	return "unknown"
}

// Registry tabla de despacho tipo de evento → handler, construida al arrancar.
type Registry map[string]idempotency.Handler

// Reader subconjunto de *kafka.Reader (commit manual).
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ReaderFactory abre un lector nuevo del grupo; reabrir rebobina al último offset confirmado.
type ReaderFactory func() Reader

// Processor ejecuta un handler con garantía de idempotencia.
type Processor interface {
	ProcessEvent(ctx context.Context, event entity.Event, handler idempotency.Handler) (idempotency.Outcome, error)
}

// Observer métricas por mensaje.
type Observer interface {
	ObserveMessage(eventType, decision string, elapsed time.Duration)
}

// Config parámetros del consumidor.
type Config struct {
	Workers        int
	ProcessTimeout time.Duration
	RetryBackoff   time.Duration
	CommitTimeout  time.Duration
}

// Consumer lee del tópico, despacha por tipo y confirma offsets según la Decision.
type Consumer struct {
	newReader ReaderFactory
	processor Processor
	registry  Registry
	observer  Observer
	cfg       Config
	tracer    trace.Tracer
	log       zerolog.Logger
}

// NewConsumer construye el consumidor. observer puede ser nil.
func NewConsumer(newReader ReaderFactory, processor Processor, registry Registry, observer Observer, cfg Config, log zerolog.Logger) *Consumer {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.ProcessTimeout <= 0 {
		cfg.ProcessTimeout = 30 * time.Second
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 5 * time.Second
	}
	if cfg.CommitTimeout <= 0 {
		cfg.CommitTimeout = 10 * time.Second
	}
	return &Consumer{
		newReader: newReader,
		processor: processor,
		registry:  registry,
		observer:  observer,
		cfg:       cfg,
		tracer:    otel.Tracer("inventory-service/messaging"),
		log:       log,
	}
}

// Run lanza cfg.Workers lectores del mismo grupo y bloquea hasta que ctx se cancele.
// Al cancelar, cada worker termina el mensaje en curso antes de cerrar su lector.
func (c *Consumer) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < c.cfg.Workers; i++ {
		worker := i
		g.Go(func() error {
			return c.work(ctx, worker)
		})
	}
	return g.Wait()
}

func (c *Consumer) work(ctx context.Context, worker int) error {
	log := c.log.With().Int("worker", worker).Logger()
	reader := c.newReader()
	defer func() {
		if reader != nil {
			_ = reader.Close()
		}
	}()
	log.Info().Msg("consumidor iniciado")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info().Msg("consumidor detenido")
				return nil
			}
			log.Error().Err(err).Msg("error leyendo mensaje")
			reader = c.reopen(ctx, reader, log)
			if reader == nil {
				return nil
			}
			continue
		}

		switch c.HandleMessage(ctx, msg) {
		case DecisionCommit, DecisionPoison:
			commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.CommitTimeout)
			err := reader.CommitMessages(commitCtx, msg)
			cancel()
			if err != nil {
				// Sin commit el mensaje se reentrega; la idempotencia lo omitirá.
				log.Error().Err(err).Int64("offset", msg.Offset).Msg("no se pudo confirmar el offset")
				reader = c.reopen(ctx, reader, log)
			}
		case DecisionRetry:
			reader = c.reopen(ctx, reader, log)
		}
		if reader == nil {
			return nil
		}
	}
}

// reopen cierra el lector, espera RetryBackoff y abre otro. Devuelve nil si ctx terminó.
func (c *Consumer) reopen(ctx context.Context, reader Reader, log zerolog.Logger) Reader {
	if err := reader.Close(); err != nil {
		log.Warn().Err(err).Msg("error cerrando lector")
	}
	select {
	case <-ctx.Done():
		return nil
	case <-time.After(c.cfg.RetryBackoff):
	}
	return c.newReader()
}

// HandleMessage decodifica, despacha y clasifica el resultado de un mensaje.
func (c *Consumer) HandleMessage(ctx context.Context, msg kafka.Message) Decision {
	start := time.Now()
	log := c.log.With().
		Str("topic", msg.Topic).
		Int("partition", msg.Partition).
		Int64("offset", msg.Offset).
		Logger()

	var ev entity.Event
	eventType := ""
	decision := func() Decision {
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			log.Error().Err(fmt.Errorf("%w: %v", domain.ErrPoisonMessage, err)).Msg("mensaje descartado: JSON inválido")
			return DecisionPoison
		}
		if err := validation.Struct(ev); err != nil {
			log.Error().Err(fmt.Errorf("%w: %v", domain.ErrPoisonMessage, err)).Msg("mensaje descartado: sobre inválido")
			return DecisionPoison
		}
		eventType = ev.Type
		handler, ok := c.registry[ev.Type]
		if !ok {
			log.Error().Err(domain.ErrUnknownEventType).Str("event_type", ev.Type).Msg("mensaje descartado: tipo desconocido")
			return DecisionPoison
		}
		return c.process(ctx, msg, ev, handler, log)
	}()

	if c.observer != nil {
		c.observer.ObserveMessage(eventType, decision.String(), time.Since(start))
	}
	return decision
}

func (c *Consumer) process(ctx context.Context, msg kafka.Message, ev entity.Event, handler idempotency.Handler, log zerolog.Logger) Decision {
	// El procesamiento no se corta con el apagado: termina (o expira) antes de cerrar el lector.
	procCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.ProcessTimeout)
	defer cancel()

	procCtx, span := c.tracer.Start(telemetry.Extract(procCtx, msg.Headers), "consume "+ev.Type,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination.name", msg.Topic),
			attribute.Int("messaging.kafka.partition", msg.Partition),
			attribute.Int64("messaging.kafka.offset", msg.Offset),
			attribute.String("event.type", ev.Type),
		),
	)
	defer span.End()

	outcome, err := c.processor.ProcessEvent(procCtx, ev, handler)
	span.SetAttributes(attribute.String("idempotency.outcome", string(outcome)))
	if err == nil {
		return DecisionCommit
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	var herr *idempotency.HandlerError
	if errors.As(err, &herr) {
		log = log.With().Str("event_id", herr.EventID).Str("event_type", herr.EventType).Logger()
	}
	if domain.IsPermanent(err) {
		log.Error().Err(err).Msg("mensaje descartado: fallo permanente")
		return DecisionPoison
	}
	log.Warn().Err(err).Msg("fallo transitorio, se reintentará")
	return DecisionRetry
}
