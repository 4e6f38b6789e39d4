package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]byte), args.Bool(1), args.Error(2)
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return m.Called(ctx, key, value, ttl).Error(0)
}

func (m *mockCache) Delete(ctx context.Context, keys ...string) error {
	return m.Called(ctx, keys).Error(0)
}

func TestFailover(t *testing.T) {
	ctx := context.Background()
	primary := new(mockCache)
	fallback := NewMemory(10)
	f := NewFailover(primary, fallback, zerolog.Nop())

	t.Run("PrimarySuccess", func(t *testing.T) {
		primary.On("Get", ctx, "k").Return([]byte("p"), true, nil).Once()
		val, ok, err := f.Get(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []byte("p"), val)
	})

	t.Run("PrimaryFailsUsesFallback", func(t *testing.T) {
		primary.On("Set", ctx, "k", []byte("v"), time.Minute).Return(errors.New("conn refused")).Once()
		require.NoError(t, f.Set(ctx, "k", []byte("v"), time.Minute))
		assert.True(t, f.isDown.Load())

		// primary is not consulted while down
		val, ok, err := f.Get(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []byte("v"), val)
	})

	t.Run("Recovers", func(t *testing.T) {
		f.recoverAfter = 0
		time.Sleep(time.Millisecond)
		primary.On("Get", ctx, "k").Return(nil, false, nil).Once()

		_, ok, err := f.Get(ctx, "k")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.False(t, f.isDown.Load())
	})

	primary.AssertExpectations(t)
}
