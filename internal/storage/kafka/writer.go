package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"priceScope/internal/keys"
	"priceScope/internal/storage"
)

// Message is the payload of one published delta.
type Message struct {
	BlockNumber uint64 `json:"block_number"`
	BlockHash   string `json:"block_hash"`
	Timestamp   uint64 `json:"timestamp"`
	Store       string `json:"store"`
	Kind        string `json:"kind"`
	Key         string `json:"key"`
	Ordinal     uint64 `json:"ordinal"`
	Operation   string `json:"operation"`
	OldValue    string `json:"old_value,omitempty"`
	NewValue    string `json:"new_value"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Sink writes one Kafka message per delta, keyed by store and key so that
// updates to the same key land on the same partition in order.
type Sink struct {
	writer messageWriter
}

func NewSink(server, topic string) (*Sink, error) {
	if server == "" || topic == "" {
		return nil, fmt.Errorf("kafka server and topic are required")
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(server),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireAll,
	}
	return &Sink{writer: writer}, nil
}

func (s *Sink) Name() string { return "kafka" }

func (s *Sink) Publish(ctx context.Context, batch storage.BlockDeltas) error {
	msgs, err := Messages(batch)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		return nil
	}
	return s.writer.WriteMessages(ctx, msgs...)
}

func (s *Sink) Close() error { return s.writer.Close() }

// Messages converts a batch into Kafka messages in delta order. Each message
// carries the key kind so consumers can route without parsing keys.
func Messages(batch storage.BlockDeltas) ([]kafka.Message, error) {
	msgs := make([]kafka.Message, 0, len(batch.Deltas))
	for _, d := range batch.Deltas {
		key, err := keys.Parse(d.Key)
		if err != nil {
			return nil, fmt.Errorf("delta key: %w", err)
		}
		kind := key.Kind.String()
		value, err := json.Marshal(Message{
			BlockNumber: batch.BlockNumber,
			BlockHash:   batch.BlockHash,
			Timestamp:   batch.Timestamp,
			Store:       d.Store,
			Kind:        kind,
			Key:         d.Key,
			Ordinal:     d.Ordinal,
			Operation:   string(d.Operation),
			OldValue:    string(d.OldValue),
			NewValue:    string(d.NewValue),
		})
		if err != nil {
			return nil, fmt.Errorf("marshal delta %s: %w", d.Key, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:     []byte(d.Store + ":" + d.Key),
			Value:   value,
			Headers: []kafka.Header{{Key: "kind", Value: []byte(kind)}},
		})
	}
	return msgs, nil
}
