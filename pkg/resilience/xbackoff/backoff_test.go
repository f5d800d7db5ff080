package xbackoff

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/omeyang/fetchkit/pkg/resilience/xthrottle"
)

var errTransient = errors.New("transient failure")

func TestDo_NilArgs(t *testing.T) {
	//nolint:staticcheck // 刻意传入 nil ctx 验证防御
	if err := Do(nil, func(ctx context.Context) error { return nil }); !errors.Is(err, ErrNilContext) {
		t.Errorf("nil ctx = %v, want ErrNilContext", err)
	}
	if err := Do(context.Background(), nil); !errors.Is(err, ErrNilFunc) {
		t.Errorf("nil fn = %v, want ErrNilFunc", err)
	}
}

func TestDo_SucceedsFirstTry(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})
	if err != nil || calls != 1 {
		t.Errorf("err = %v, calls = %d", err, calls)
	}
}

func TestDo_RetriesThenSucceeds(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errTransient
		}
		return nil
	}, WithDelay(time.Millisecond), WithMaxDelay(5*time.Millisecond))
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDo_AttemptsExhausted(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errTransient
	}, WithAttempts(3), WithDelay(time.Millisecond), WithMaxDelay(2*time.Millisecond))

	if !errors.Is(err, errTransient) {
		t.Errorf("err = %v, want last error", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDo_TerminalErrorsNotRetried(t *testing.T) {
	for _, terminal := range []error{xthrottle.ErrClosed, xthrottle.ErrInvalidURL} {
		calls := 0
		err := Do(context.Background(), func(ctx context.Context) error {
			calls++
			return terminal
		}, WithDelay(time.Millisecond))
		if !errors.Is(err, terminal) {
			t.Errorf("err = %v, want %v", err, terminal)
		}
		if calls != 1 {
			t.Errorf("terminal error %v retried %d times", terminal, calls)
		}
	}
}

func TestDo_CustomRetryIf(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errTransient
	}, WithRetryIf(func(err error) bool { return false }))
	if !errors.Is(err, errTransient) || calls != 1 {
		t.Errorf("err = %v, calls = %d", err, calls)
	}
}

func TestDo_ThrottledDelayFloor(t *testing.T) {
	calls := 0
	start := time.Now()
	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return &xthrottle.ThrottledError{
				Host:       "site.example",
				RetryAfter: 60 * time.Millisecond,
			}
		}
		return nil
	}, WithDelay(time.Millisecond), WithMaxDelay(2*time.Millisecond))
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}

	// 延迟下限来自 RetryAfter，即使指数退避上限远小于它
	if elapsed := time.Since(start); elapsed < 60*time.Millisecond {
		t.Errorf("elapsed = %s, want at least RetryAfter floor", elapsed)
	}
}

func TestDo_ContextCancelledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := Do(ctx, func(ctx context.Context) error {
		calls++
		return errTransient
	}, WithAttempts(100), WithDelay(time.Hour))

	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDo_OnRetryNumbering(t *testing.T) {
	var attempts []int
	Do(context.Background(), func(ctx context.Context) error { //nolint:errcheck // 必然失败
		return errTransient
	},
		WithAttempts(3),
		WithDelay(time.Millisecond),
		WithMaxDelay(2*time.Millisecond),
		WithOnRetry(func(attempt int, err error) {
			attempts = append(attempts, attempt)
		}))

	// OnRetry 在每次失败后触发，attempt 从 1 开始
	if len(attempts) < 2 || attempts[0] != 1 || attempts[1] != 2 {
		t.Errorf("attempts = %v", attempts)
	}
}

func TestDoWithResult(t *testing.T) {
	calls := 0
	got, err := DoWithResult(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		if calls < 2 {
			return "", errTransient
		}
		return "payload", nil
	}, WithDelay(time.Millisecond), WithMaxDelay(2*time.Millisecond))
	if err != nil || got != "payload" {
		t.Errorf("got = %q, err = %v", got, err)
	}
}

func TestDoWithResult_NilArgs(t *testing.T) {
	got, err := DoWithResult[int](context.Background(), nil)
	if !errors.Is(err, ErrNilFunc) || got != 0 {
		t.Errorf("got = %d, err = %v", got, err)
	}
}
