package retrier

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestDo_FirstAttemptSucceeds(t *testing.T) {
	attempts := 0
	err := New().Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, attempts)
}

func TestDo_RecoversWithinBudget(t *testing.T) {
	r := New(WithMaxRetries(3), WithInitialInterval(time.Millisecond))

	attempts := 0
	err := r.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("upstream unavailable")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, attempts)
}

func TestDo_ReturnsLastErrorWhenBudgetSpent(t *testing.T) {
	r := New(WithMaxRetries(2), WithInitialInterval(time.Millisecond))

	attempts := 0
	err := r.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return errors.New("upstream unavailable")
	})
	require.Error(t, err)
	require.Equal(t, 3, attempts) // first attempt plus two retries
}

func TestDo_ZeroRetriesMeansSingleAttempt(t *testing.T) {
	attempts := 0
	err := New(WithMaxRetries(0)).Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return errors.New("upstream unavailable")
	})
	require.Error(t, err)
	require.Equal(t, 1, attempts)
}

func TestDo_StopsOnContextCancellation(t *testing.T) {
	r := New(WithMaxRetries(5), WithInitialInterval(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	err := r.Do(ctx, func(ctx context.Context) error {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return errors.New("upstream unavailable")
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 2, attempts)
}

func TestDoWithData_ReturnsValue(t *testing.T) {
	got, err := DoWithData(New(), context.Background(), func(ctx context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	require.Equal(t, 42, got)
}

func TestDoWithData_PropagatesError(t *testing.T) {
	r := New(WithMaxRetries(1), WithInitialInterval(time.Millisecond))

	got, err := DoWithData(r, context.Background(), func(ctx context.Context) (string, error) {
		return "", errors.New("upstream unavailable")
	})
	require.Error(t, err)
	require.Empty(t, got)
}
