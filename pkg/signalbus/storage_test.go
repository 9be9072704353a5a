package signalbus_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/signalbus/pkg/signalbus"
)

func TestNewStorage(t *testing.T) {
	tests := []struct {
		name    string
		names   []string
		wantErr error
	}{
		{"valid", []string{"a", "b"}, nil},
		{"empty set", nil, nil},
		{"duplicate", []string{"a", "b", "a"}, signalbus.ErrDuplicateSignal},
		{"empty name", []string{"a", ""}, signalbus.ErrEmptySignalName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := signalbus.NewStorage(tt.names...)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, s)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, uint64(0), s.Total())
		})
	}
}

func TestStorage_Emit(t *testing.T) {
	s, err := signalbus.NewStorage("a", "b")
	require.NoError(t, err)

	require.NoError(t, s.Emit("a"))
	require.NoError(t, s.Emit("a"))
	require.NoError(t, s.Emit("b"))

	assert.Equal(t, map[string]uint64{"a": 2, "b": 1}, s.Counters("a", "b"))
	assert.Equal(t, uint64(3), s.Total())

	err = s.Emit("c")
	assert.ErrorIs(t, err, signalbus.ErrUnknownSignal)
	var sigErr *signalbus.SignalError
	require.ErrorAs(t, err, &sigErr)
	assert.Equal(t, "c", sigErr.Signal)
	assert.Equal(t, "emit", sigErr.Op)
	assert.Equal(t, uint64(3), s.Total(), "failed emit changes nothing")
}

func TestStorage_EmptySetEmitsNothing(t *testing.T) {
	s, err := signalbus.NewStorage()
	require.NoError(t, err)
	assert.ErrorIs(t, s.Emit("a"), signalbus.ErrUnknownSignal)
	assert.Empty(t, s.Names())
}

func TestStorage_Counters_OmitsUnknown(t *testing.T) {
	s, err := signalbus.NewStorage("a")
	require.NoError(t, err)
	require.NoError(t, s.Emit("a"))

	assert.Equal(t, map[string]uint64{"a": 1}, s.Counters("a", "missing"))
	assert.Empty(t, s.Counters())
}

func TestStorage_Names(t *testing.T) {
	s, err := signalbus.NewStorage("z", "a", "m")
	require.NoError(t, err)

	names := s.Names()
	assert.Equal(t, []string{"z", "a", "m"}, names)

	names[0] = "changed"
	assert.Equal(t, []string{"z", "a", "m"}, s.Names())
	assert.True(t, s.Has("a"))
	assert.False(t, s.Has("changed"))
}

func TestStorage_LinkedCounters(t *testing.T) {
	s, err := signalbus.NewStorage("a", "b")
	require.NoError(t, err)
	require.NoError(t, s.Emit("a"))
	require.NoError(t, s.Emit("a"))

	linked, err := s.LinkedCounters("a", "b")
	require.NoError(t, err)
	require.Len(t, linked, 2)
	assert.Equal(t, uint64(2), linked["a"].Value(), "linked starts at the origin value")
	assert.Equal(t, uint64(0), linked["b"].Value())

	require.NoError(t, s.Emit("a"))
	pending, ok := linked["a"].Pending()
	require.True(t, ok)
	assert.Equal(t, uint64(1), pending)

	v, ok := linked["a"].Original().Value()
	require.True(t, ok)
	assert.Equal(t, uint64(3), v)

	got, err := s.LinkedCounters("a", "missing")
	assert.ErrorIs(t, err, signalbus.ErrUnknownSignal)
	assert.Nil(t, got)
}

func TestStorage_Increase(t *testing.T) {
	s, err := signalbus.NewStorage("a")
	require.NoError(t, err)

	assert.ErrorIs(t, s.Increase(5), signalbus.ErrDerivedCounter)
	assert.Equal(t, uint64(0), s.Total())
}

func TestRestoreStorage(t *testing.T) {
	s, err := signalbus.RestoreStorage(map[string]uint64{"b": 4, "a": 2})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, s.Names())
	assert.Equal(t, uint64(6), s.Total())
	assert.Equal(t, map[string]uint64{"a": 2, "b": 4}, s.Counters("a", "b"))

	require.NoError(t, s.Emit("a"))
	assert.Equal(t, uint64(7), s.Total())

	_, err = signalbus.RestoreStorage(map[string]uint64{"": 1})
	assert.ErrorIs(t, err, signalbus.ErrEmptySignalName)
}
