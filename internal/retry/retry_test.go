package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"daylist/internal/shared"
)

var fastCfg = Config{
	MaxAttempts:    3,
	InitialBackoff: time.Millisecond,
	MaxBackoff:     5 * time.Millisecond,
	Multiplier:     2.0,
	JitterFraction: 0,
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"transient API error", fmt.Errorf("%w: 503", shared.ErrTransientAPI), true},
		{"wrapped transient error", fmt.Errorf("insert: %w", fmt.Errorf("%w: rateLimitExceeded", shared.ErrTransientAPI)), true},
		{"auth error", shared.ErrAuthFailed, false},
		{"refresh error", shared.ErrRefreshFailed, false},
		{"quota error", shared.ErrQuotaExceeded, false},
		{"context canceled", context.Canceled, false},
		{"deadline exceeded", context.DeadlineExceeded, false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestDo(t *testing.T) {
	transient := fmt.Errorf("%w: backendError", shared.ErrTransientAPI)

	t.Run("succeeds first try", func(t *testing.T) {
		calls := 0
		err := Do(context.Background(), fastCfg, IsRetryable, func(ctx context.Context) error {
			calls++
			return nil
		})
		if err != nil {
			t.Fatalf("Do() error = %v", err)
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})

	t.Run("retries transient errors until success", func(t *testing.T) {
		calls := 0
		err := Do(context.Background(), fastCfg, IsRetryable, func(ctx context.Context) error {
			calls++
			if calls < 3 {
				return transient
			}
			return nil
		})
		if err != nil {
			t.Fatalf("Do() error = %v", err)
		}
		if calls != 3 {
			t.Errorf("calls = %d, want 3", calls)
		}
	})

	t.Run("stops after max attempts", func(t *testing.T) {
		calls := 0
		err := Do(context.Background(), fastCfg, IsRetryable, func(ctx context.Context) error {
			calls++
			return transient
		})
		if err == nil {
			t.Fatal("Do() expected error")
		}
		if !errors.Is(err, shared.ErrTransientAPI) {
			t.Errorf("Do() error = %v, want wrapped transient error", err)
		}
		if calls != fastCfg.MaxAttempts {
			t.Errorf("calls = %d, want %d", calls, fastCfg.MaxAttempts)
		}
	})

	t.Run("permanent errors are not retried", func(t *testing.T) {
		calls := 0
		err := Do(context.Background(), fastCfg, IsRetryable, func(ctx context.Context) error {
			calls++
			return fmt.Errorf("%w: 401", shared.ErrAuthFailed)
		})
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Fatalf("Do() error = %v, want auth error", err)
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1 (no retry on permanent error)", calls)
		}
	})

	t.Run("nil classifier falls back to IsRetryable", func(t *testing.T) {
		calls := 0
		err := Do(context.Background(), fastCfg, nil, func(ctx context.Context) error {
			calls++
			if calls < 2 {
				return transient
			}
			return nil
		})
		if err != nil {
			t.Fatalf("Do() error = %v", err)
		}
		if calls != 2 {
			t.Errorf("calls = %d, want 2", calls)
		}
	})

	t.Run("canceled context stops the loop", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		err := Do(ctx, fastCfg, IsRetryable, func(ctx context.Context) error {
			calls++
			cancel()
			return transient
		})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Do() error = %v, want context.Canceled", err)
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})
}

func TestJitter(t *testing.T) {
	t.Run("zero fraction yields zero jitter", func(t *testing.T) {
		if got := jitter(time.Second, 0); got != 0 {
			t.Errorf("jitter(1s, 0) = %v, want 0", got)
		}
	})

	t.Run("stays inside the fraction bounds", func(t *testing.T) {
		base := time.Second
		bound := time.Duration(float64(base) * 0.2)
		for i := 0; i < 100; i++ {
			got := jitter(base, 0.2)
			if got < -bound || got > bound {
				t.Fatalf("jitter(1s, 0.2) = %v, outside [-%v, %v]", got, bound, bound)
			}
		}
	})
}
