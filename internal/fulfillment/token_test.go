package fulfillment

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenProvider(t *testing.T) {
	ctx := context.Background()

	t.Run("CachesUntilExpiry", func(t *testing.T) {
		var calls int32
		p := NewTokenProvider(func(ctx context.Context) (string, time.Time, error) {
			atomic.AddInt32(&calls, 1)
			return "tok-1", time.Now().Add(time.Hour), nil
		})

		for i := 0; i < 5; i++ {
			token, err := p.Token(ctx)
			require.NoError(t, err)
			assert.Equal(t, "tok-1", token)
		}
		assert.Equal(t, int32(1), calls)
	})

	t.Run("RefreshesAfterExpiry", func(t *testing.T) {
		var calls int32
		p := NewTokenProvider(func(ctx context.Context) (string, time.Time, error) {
			n := atomic.AddInt32(&calls, 1)
			if n == 1 {
				return "tok-1", time.Now().Add(time.Hour), nil
			}
			return "tok-2", time.Now().Add(time.Hour), nil
		})

		token, err := p.Token(ctx)
		require.NoError(t, err)
		assert.Equal(t, "tok-1", token)

		// Move the clock past the cached expiry.
		p.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

		token, err = p.Token(ctx)
		require.NoError(t, err)
		assert.Equal(t, "tok-2", token)
		assert.Equal(t, int32(2), calls)
	})

	t.Run("RefreshesInsideSkewWindow", func(t *testing.T) {
		var calls int32
		p := NewTokenProvider(func(ctx context.Context) (string, time.Time, error) {
			atomic.AddInt32(&calls, 1)
			// Expires in 30s, inside the one minute skew.
			return "tok", time.Now().Add(30 * time.Second), nil
		})

		_, err := p.Token(ctx)
		require.NoError(t, err)
		_, err = p.Token(ctx)
		require.NoError(t, err)
		assert.Equal(t, int32(2), calls)
	})

	t.Run("ConcurrentCallersFetchOnce", func(t *testing.T) {
		var calls int32
		p := NewTokenProvider(func(ctx context.Context) (string, time.Time, error) {
			atomic.AddInt32(&calls, 1)
			time.Sleep(10 * time.Millisecond)
			return "tok", time.Now().Add(time.Hour), nil
		})

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				token, err := p.Token(ctx)
				assert.NoError(t, err)
				assert.Equal(t, "tok", token)
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), calls)
	})

	t.Run("FetchErrorPropagates", func(t *testing.T) {
		p := NewTokenProvider(func(ctx context.Context) (string, time.Time, error) {
			return "", time.Time{}, errors.New("login failed")
		})

		_, err := p.Token(ctx)
		assert.Error(t, err)
	})
}

func TestRemoteOrderCode(t *testing.T) {
	code := RemoteOrderCode("1f0e2d3c-4b5a-6978-8796-a5b4c3d2e1f0")
	assert.Equal(t, "KO-1F0E2D3C", code)

	// Deterministic: the same order always maps to the same remote code.
	assert.Equal(t, code, RemoteOrderCode("1f0e2d3c-4b5a-6978-8796-a5b4c3d2e1f0"))

	// Short ids survive without padding.
	assert.Equal(t, "KO-AB12", RemoteOrderCode("ab12"))
}
