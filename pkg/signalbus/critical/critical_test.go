package critical_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/signalbus/pkg/signalbus/critical"
)

func TestSection_Do(t *testing.T) {
	s := critical.New(time.Second)
	assert.Equal(t, time.Second, s.Timeout())

	called := false
	err := s.Do(context.Background(), func() error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)

	fnErr := errors.New("boom")
	err = s.Do(context.Background(), func() error { return fnErr })
	assert.ErrorIs(t, err, fnErr)

	// Released after an error.
	require.NoError(t, s.Do(context.Background(), func() error { return nil }))
}

func TestSection_Timeout(t *testing.T) {
	s := critical.New(50 * time.Millisecond)

	release, err := s.Enter(context.Background())
	require.NoError(t, err)

	start := time.Now()
	_, err = s.Enter(context.Background())
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.ErrorIs(t, err, critical.ErrTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.GreaterOrEqual(t, elapsed, 40*time.Millisecond)

	var timeoutErr *critical.TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, 50*time.Millisecond, timeoutErr.Timeout)
	assert.Contains(t, err.Error(), "unable to enter critical section")

	release()
	release2, err := s.Enter(context.Background())
	require.NoError(t, err)
	release2()
}

func TestSection_NonBlocking(t *testing.T) {
	s := critical.New(0)

	release, err := s.Enter(context.Background())
	require.NoError(t, err)

	_, err = s.Enter(context.Background())
	assert.ErrorIs(t, err, critical.ErrTimeout)

	release()
	require.NoError(t, s.Do(context.Background(), func() error { return nil }))
}

func TestSection_CancelledContext(t *testing.T) {
	s := critical.New(time.Minute)

	release, err := s.Enter(context.Background())
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.Enter(ctx)
	assert.ErrorIs(t, err, critical.ErrTimeout)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSection_MutualExclusion(t *testing.T) {
	s := critical.New(5 * time.Second)

	const goroutines = 20
	var (
		wg     sync.WaitGroup
		inside int
		peak   int
		mu     sync.Mutex
	)

	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			err := s.Do(context.Background(), func() error {
				mu.Lock()
				inside++
				if inside > peak {
					peak = inside
				}
				mu.Unlock()

				time.Sleep(time.Millisecond)

				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, peak)
}
