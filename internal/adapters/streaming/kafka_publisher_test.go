package streaming_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/factorysim-go/internal/adapters/streaming"
	"github.com/andrescamacho/factorysim-go/internal/application/simulation"
	"github.com/andrescamacho/factorysim-go/internal/domain/machine"
	"github.com/andrescamacho/factorysim-go/internal/domain/shared"
)

type fakeWriter struct {
	msgs        []kafka.Message
	err         error
	hadDeadline bool
	closed      bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	_, w.hadDeadline = ctx.Deadline()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func snapshot(tick uint64) simulation.Snapshot {
	blob := shared.NewFields()
	blob.Set("Energy", int64(250))
	return simulation.Snapshot{
		ID:     machine.NewID(),
		Kind:   machine.KindCoalGenerator,
		Pos:    shared.BlockPos{X: 1, Y: 2, Z: 3},
		Facing: shared.South,
		Tick:   tick,
		Blob:   blob,
	}
}

func TestKafkaPublisher_PublishesOneMessagePerMachine(t *testing.T) {
	// Arrange
	w := &fakeWriter{}
	p := streaming.NewKafkaPublisher(w, time.Second)
	a, b := snapshot(7), snapshot(7)

	// Act
	err := p.Publish(context.Background(), "plant", []simulation.Snapshot{a, b})

	// Assert
	require.NoError(t, err)
	require.Len(t, w.msgs, 2)
	assert.True(t, w.hadDeadline)
	assert.Equal(t, a.ID.String(), string(w.msgs[0].Key))
	assert.Equal(t, b.ID.String(), string(w.msgs[1].Key))
	assert.Equal(t, "world", w.msgs[0].Headers[0].Key)
	assert.Equal(t, "plant", string(w.msgs[0].Headers[0].Value))

	var event streaming.SnapshotEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &event))
	assert.Equal(t, "plant", event.World)
	assert.Equal(t, string(machine.KindCoalGenerator), event.Kind)
	assert.Equal(t, shared.BlockPos{X: 1, Y: 2, Z: 3}, event.Pos)
	assert.Equal(t, shared.South.String(), event.Facing)
	assert.Equal(t, uint64(7), event.Tick)
	assert.Equal(t, int64(250), event.State.Int("Energy"))
}

func TestKafkaPublisher_EmptyBatchIsNoop(t *testing.T) {
	w := &fakeWriter{err: errors.New("should not be called")}
	p := streaming.NewKafkaPublisher(w, 0)

	err := p.Publish(context.Background(), "plant", nil)

	assert.NoError(t, err)
}

func TestKafkaPublisher_WrapsWriterErrors(t *testing.T) {
	// Arrange
	w := &fakeWriter{err: kafka.LeaderNotAvailable}
	p := streaming.NewKafkaPublisher(w, 0)

	// Act
	err := p.Publish(context.Background(), "plant", []simulation.Snapshot{snapshot(1)})

	// Assert
	require.Error(t, err)
	assert.ErrorIs(t, err, kafka.LeaderNotAvailable)
	assert.False(t, w.hadDeadline)
	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}
