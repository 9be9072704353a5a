package signalbus_test

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/signalbus/pkg/signalbus"
	"github.com/randalmurphal/signalbus/pkg/signalbus/checkpoint"
)

func TestNewSource(t *testing.T) {
	bus := signalbus.NewBus()

	src, err := signalbus.NewSource(bus, "a", "b")
	require.NoError(t, err)
	assert.NotEmpty(t, src.ID())
	assert.Same(t, bus, src.Bus())
	assert.Equal(t, []string{"a", "b"}, src.Signals())

	_, err = signalbus.NewSource(nil, "a")
	assert.ErrorIs(t, err, signalbus.ErrNilBus)

	_, err = signalbus.NewSource(bus, "a", "a")
	assert.ErrorIs(t, err, signalbus.ErrDuplicateSignal)

	other := newSource(t, bus, "a")
	assert.NotEqual(t, src.ID(), other.ID())
}

func TestSource_SendSignal(t *testing.T) {
	bus := signalbus.NewBus()
	src := newSource(t, bus, "a", "b")

	emit(t, src, "a", 2)
	emit(t, src, "b", 1)

	assert.Equal(t, uint64(3), src.SourceCounter())
	assert.Equal(t, map[string]uint64{"a": 2, "b": 1}, src.SignalsCounters("a", "b", "c"))
	assert.Equal(t, uint64(3), bus.Stats().Activity)

	err := src.SendSignal("c")
	assert.ErrorIs(t, err, signalbus.ErrUnknownSignal)
	assert.Equal(t, uint64(3), bus.Stats().Activity, "failed sends are not activity")
}

func TestSource_LinkedCounters(t *testing.T) {
	src := newSource(t, signalbus.NewBus(), "a")
	emit(t, src, "a", 4)

	linked, err := src.LinkedCounters("a")
	require.NoError(t, err)
	assert.Equal(t, uint64(4), linked["a"].Value())

	_, err = src.LinkedCounters("nope")
	assert.ErrorIs(t, err, signalbus.ErrUnknownSignal)
}

func TestSource_SnapshotRestore(t *testing.T) {
	mock := clock.NewMock()
	mock.Set(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	bus := signalbus.NewBus(signalbus.WithClock(mock))

	src := newSource(t, bus, "a", "b")
	emit(t, src, "a", 3)
	emit(t, src, "b", 2)

	snap := src.Snapshot()
	assert.Equal(t, src.ID(), snap.SourceID)
	assert.Equal(t, map[string]uint64{"a": 3, "b": 2}, snap.Signals)
	assert.Equal(t, uint64(5), snap.Total)
	assert.Equal(t, mock.Now(), snap.Timestamp)

	stores := map[string]func(t *testing.T) checkpoint.Store{
		"memory": func(*testing.T) checkpoint.Store { return checkpoint.NewMemoryStore() },
		"sqlite": func(t *testing.T) checkpoint.Store {
			s, err := checkpoint.NewSQLiteStore(":memory:")
			require.NoError(t, err)
			return s
		},
	}

	for name, open := range stores {
		t.Run(name, func(t *testing.T) {
			store := open(t)
			defer store.Close()

			require.NoError(t, store.Save(snap))
			loaded, err := store.Load(src.ID())
			require.NoError(t, err)

			restored, err := signalbus.RestoreSource(bus, loaded)
			require.NoError(t, err)
			assert.Equal(t, src.ID(), restored.ID())
			assert.Equal(t, uint64(5), restored.SourceCounter())
			assert.Equal(t, map[string]uint64{"a": 3, "b": 2}, restored.SignalsCounters("a", "b"))
		})
	}
}

func TestRestoreSource_OnlyNewOccurrencesDelivered(t *testing.T) {
	ctx := context.Background()
	bus := signalbus.NewBus()

	restored, err := signalbus.RestoreSource(bus, checkpoint.Snapshot{
		SourceID: "src-restored",
		Signals:  map[string]uint64{"a": 10},
		Total:    10,
	})
	require.NoError(t, err)

	rec := &recorder{}
	require.NoError(t, signalbus.Connect(ctx, bus, restored, "a", rec))
	require.NoError(t, bus.ProcessSignals(ctx))
	assert.Empty(t, rec.snapshot())

	emit(t, restored, "a", 2)
	require.NoError(t, bus.ProcessSignals(ctx))
	assert.Equal(t, uint64(2), rec.total("a"))
}

func TestRestoreSource_Errors(t *testing.T) {
	_, err := signalbus.RestoreSource(nil, checkpoint.Snapshot{})
	assert.ErrorIs(t, err, signalbus.ErrNilBus)

	src, err := signalbus.RestoreSource(signalbus.NewBus(), checkpoint.Snapshot{})
	require.NoError(t, err)
	assert.NotEmpty(t, src.ID(), "missing IDs are generated")
	assert.Empty(t, src.Signals())
}
