package internal

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryPolicy(t *testing.T) {
	t.Parallel()

	policy := retryPolicy{attempts: 3, backoff: time.Millisecond, timeout: time.Second}

	cases := []struct {
		name      string
		failures  int
		err       error
		wantCalls int
		wantErr   error
	}{
		{name: "first attempt", failures: 0, err: errConnection, wantCalls: 1},
		{name: "recovers", failures: 2, err: errConnection, wantCalls: 3},
		{name: "exhausted", failures: 5, err: errConnection, wantCalls: 3, wantErr: ErrStoreUnavailable},
		{name: "permanent", failures: 5, err: permanent(ErrReservationNotFound), wantCalls: 1, wantErr: ErrReservationNotFound},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			calls, retries := 0, 0
			err := policy.do(context.Background(), "test", func(ctx context.Context) error {
				calls++
				if calls <= tc.failures {
					return tc.err
				}
				return nil
			}, func(int, error) { retries++ })

			if calls != tc.wantCalls {
				t.Fatalf("calls = %d, want %d", calls, tc.wantCalls)
			}
			if tc.wantErr == nil && err != nil {
				t.Fatalf("unexpected error %v", err)
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("error = %v, want %v", err, tc.wantErr)
			}
			if _, ok := err.(errPermanent); ok {
				t.Fatalf("permanent wrapper leaked to the caller")
			}
			if limit := tc.wantCalls - 1; retries > limit {
				t.Fatalf("retries = %d, more than %d", retries, limit)
			}
		})
	}
}

func TestRetryPolicyStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := retryPolicy{attempts: 5, backoff: time.Hour}

	calls := 0
	err := policy.do(ctx, "test", func(context.Context) error {
		calls++
		cancel()
		return errConnection
	}, nil)
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("error = %v, want %v", err, ErrStoreUnavailable)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}
