package lock

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) Acquire(ctx context.Context, key string) (*Lease, error) {
	args := m.Called(ctx, key)
	lease, _ := args.Get(0).(*Lease)
	return lease, args.Error(1)
}

func (m *MockLocker) Release(ctx context.Context, lease *Lease) error {
	args := m.Called(ctx, lease)
	return args.Error(0)
}

func TestGuard(t *testing.T) {
	key := AccountKey("1234567890")

	t.Run("releases after success", func(t *testing.T) {
		locker := new(MockLocker)
		lease := &Lease{Key: key}
		locker.On("Acquire", mock.Anything, key).Return(lease, nil).Once()
		locker.On("Release", mock.Anything, lease).Return(nil).Once()

		got, err := Guard(context.Background(), locker, key, func(context.Context) (string, error) {
			return "done", nil
		})

		require.NoError(t, err)
		assert.Equal(t, "done", got)
		locker.AssertExpectations(t)
	})

	t.Run("releases and keeps the original error", func(t *testing.T) {
		locker := new(MockLocker)
		lease := &Lease{Key: key}
		bizErr := errors.New("insufficient balance")
		locker.On("Acquire", mock.Anything, key).Return(lease, nil).Once()
		locker.On("Release", mock.Anything, lease).Return(errors.New("redis gone")).Once()

		_, err := Guard(context.Background(), locker, key, func(context.Context) (int, error) {
			return 0, bizErr
		})

		assert.Same(t, bizErr, err)
		locker.AssertExpectations(t)
	})

	t.Run("releases when fn panics", func(t *testing.T) {
		locker := new(MockLocker)
		lease := &Lease{Key: key}
		locker.On("Acquire", mock.Anything, key).Return(lease, nil).Once()
		locker.On("Release", mock.Anything, lease).Return(nil).Once()

		assert.Panics(t, func() {
			_, _ = Guard(context.Background(), locker, key, func(context.Context) (int, error) {
				panic("boom")
			})
		})
		locker.AssertExpectations(t)
	})

	t.Run("does not run fn without a lease", func(t *testing.T) {
		locker := new(MockLocker)
		locker.On("Acquire", mock.Anything, key).Return(nil, ErrLockUnavailable).Once()

		called := false
		_, err := Guard(context.Background(), locker, key, func(context.Context) (int, error) {
			called = true
			return 0, nil
		})

		assert.ErrorIs(t, err, ErrLockUnavailable)
		assert.False(t, called)
		locker.AssertNotCalled(t, "Release", mock.Anything, mock.Anything)
	})

	t.Run("fn survives caller cancellation", func(t *testing.T) {
		locker := NewMemoryLocker(0)
		ctx, cancel := context.WithCancel(context.Background())

		_, err := Guard(ctx, locker, key, func(inner context.Context) (struct{}, error) {
			cancel()
			return struct{}{}, inner.Err()
		})

		assert.NoError(t, err)

		lease, err := locker.Acquire(context.Background(), key)
		require.NoError(t, err, "lease must be released")
		require.NoError(t, locker.Release(context.Background(), lease))
	})
}
