package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/jhoicas/inventory-service/internal/domain/entity"
	"github.com/jhoicas/inventory-service/pkg/telemetry"
)

// Config destino de publicación.
type Config struct {
	Brokers []string
	Topic   string
}

// messageWriter subconjunto de *kafka.Writer.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publica sobres de eventos. La key fija la partición (balanceo Hash),
// así los eventos de un mismo inventario conservan el orden.
type Producer struct {
	writer messageWriter
	topic  string
}

// NewProducer crea el productor síncrono.
func NewProducer(cfg Config) *Producer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		MaxAttempts:            5,
		ReadTimeout:            10 * time.Second,
		WriteTimeout:           10 * time.Second,
		RequiredAcks:           kafka.RequireAll,
		Async:                  false,
		AllowAutoTopicCreation: true,
	}
	return &Producer{writer: w, topic: cfg.Topic}
}

// Publish serializa ev y lo escribe con el contexto de traza en los headers.
func (p *Producer) Publish(ctx context.Context, key string, ev entity.Event) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("serializar evento: %w", err)
	}
	headers := []kafka.Header{{Key: "event_type", Value: []byte(ev.Type)}}
	telemetry.Inject(ctx, &headers)

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(key),
		Value:   value,
		Headers: headers,
	})
	if err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return nil
}

// Topic devuelve el tópico de destino.
func (p *Producer) Topic() string {
	return p.topic
}

// Close vacía y cierra el writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
