package kafka

import (
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// ReaderConfig parámetros del lector del grupo de consumidores.
type ReaderConfig struct {
	Brokers     []string
	Topic       string
	GroupID     string
	StartOffset string // "earliest" (por defecto) o "latest"
}

// NewReader crea un *kafka.Reader en modo commit manual (FetchMessage + CommitMessages):
// el offset solo avanza cuando el consumidor lo confirma explícitamente.
func NewReader(cfg ReaderConfig) *kafka.Reader {
	startOffset := kafka.FirstOffset
	if strings.EqualFold(strings.TrimSpace(cfg.StartOffset), "latest") {
		startOffset = kafka.LastOffset
	}

	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}

	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.Topic,
		GroupID:        cfg.GroupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		MaxWait:        time.Second,
		Dialer:         dialer,
		StartOffset:    startOffset,
		CommitInterval: 0, // commits síncronos
	})
}
