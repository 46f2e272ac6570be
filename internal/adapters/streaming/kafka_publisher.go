package streaming

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/andrescamacho/factorysim-go/internal/application/simulation"
	"github.com/andrescamacho/factorysim-go/internal/domain/shared"
	"github.com/andrescamacho/factorysim-go/internal/infrastructure/config"
)

var _ simulation.SnapshotPublisher = (*KafkaPublisher)(nil)

// MessageWriter is the subset of *kafka.Writer the publisher needs
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// SnapshotEvent is the JSON value of one streamed machine snapshot
type SnapshotEvent struct {
	World     string          `json:"world"`
	MachineID string          `json:"machine_id"`
	Kind      string          `json:"kind"`
	Pos       shared.BlockPos `json:"pos"`
	Facing    string          `json:"facing"`
	Tick      uint64          `json:"tick"`
	State     shared.Fields   `json:"state"`
}

// KafkaPublisher streams machine snapshots to a Kafka topic, keyed by machine id
// so every machine's history lands on one partition in order.
type KafkaPublisher struct {
	writer  MessageWriter
	timeout time.Duration
	breaker *Breaker
}

// NewKafkaPublisher creates a publisher over writer. A zero timeout leaves ctx as is.
func NewKafkaPublisher(writer MessageWriter, timeout time.Duration) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, timeout: timeout}
}

// WithBreaker skips batches while b is open
func (p *KafkaPublisher) WithBreaker(b *Breaker) *KafkaPublisher {
	p.breaker = b
	return p
}

// NewKafkaWriter builds a synchronous writer for the streaming configuration
func NewKafkaWriter(cfg config.StreamingConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}
}

// Publish writes one message per snapshot as a single batch
func (p *KafkaPublisher) Publish(ctx context.Context, world string, snapshots []simulation.Snapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(snapshots))
	for _, s := range snapshots {
		value, err := json.Marshal(SnapshotEvent{
			World:     world,
			MachineID: s.ID.String(),
			Kind:      string(s.Kind),
			Pos:       s.Pos,
			Facing:    s.Facing.String(),
			Tick:      s.Tick,
			State:     s.Blob,
		})
		if err != nil {
			return fmt.Errorf("failed to encode snapshot %s: %w", s.ID, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(s.ID.String()),
			Value: value,
			Headers: []kafka.Header{
				{Key: "world", Value: []byte(world)},
			},
		})
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	write := func() error { return p.writer.WriteMessages(ctx, msgs...) }
	var err error
	if p.breaker != nil {
		err = p.breaker.Call(write)
	} else {
		err = write()
	}
	if err != nil {
		return fmt.Errorf("failed to write %d snapshots: %w", len(msgs), err)
	}
	return nil
}

// Close flushes and closes the underlying writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
