package internal

import (
	"errors"
	"math"
	"redsyspay/entity"
	"testing"
	"time"
)

func TestCheckFreshnessBoundary(t *testing.T) {
	t.Parallel()

	const now int64 = 1_760_000_000
	maxAge := DefaultMaxAgeSeconds

	cases := []struct {
		name      string
		delivered int64
		wantStale bool
	}{
		{name: "now", delivered: now},
		{name: "exactly max age in the past", delivered: now - int64(maxAge)},
		{name: "one second older", delivered: now - int64(maxAge) - 1, wantStale: true},
		{name: "exactly max age in the future", delivered: now + int64(maxAge)},
		{name: "one second further in the future", delivered: now + int64(maxAge) + 1, wantStale: true},
		{name: "epoch", delivered: 0, wantStale: true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := CheckFreshness(tc.delivered, now, maxAge)
			if tc.wantStale && !errors.Is(err, ErrStale) {
				t.Fatalf("error = %v, want %v", err, ErrStale)
			}
			if !tc.wantStale && err != nil {
				t.Fatalf("unexpected error %v", err)
			}
		})
	}
}

func TestCheckFreshnessZeroWindow(t *testing.T) {
	if err := CheckFreshness(100, 100, 0); err != nil {
		t.Fatalf("same second rejected: %v", err)
	}
	if err := CheckFreshness(99, 100, 0); !errors.Is(err, ErrStale) {
		t.Fatalf("error = %v, want %v", err, ErrStale)
	}
}

func TestCheckFreshnessExtremeValues(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		delivered int64
		now       int64
	}{
		{name: "min delivered", delivered: math.MinInt64, now: 0},
		{name: "max delivered", delivered: math.MaxInt64, now: 0},
		{name: "min now", delivered: 0, now: math.MinInt64},
		{name: "opposite extremes", delivered: math.MinInt64, now: math.MaxInt64},
		{name: "opposite extremes reversed", delivered: math.MaxInt64, now: math.MinInt64},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if err := CheckFreshness(tc.delivered, tc.now, math.MaxUint32); !errors.Is(err, ErrStale) {
				t.Fatalf("error = %v, want %v", err, ErrStale)
			}
		})
	}

	if err := CheckFreshness(math.MaxInt64, math.MaxInt64-300, 300); err != nil {
		t.Fatalf("window at the top of the range rejected: %v", err)
	}
	if err := CheckFreshness(math.MinInt64, math.MinInt64+300, 300); err != nil {
		t.Fatalf("window at the bottom of the range rejected: %v", err)
	}
}

func TestNotificationTime(t *testing.T) {
	t.Parallel()

	madrid := time.FixedZone("CEST", 2*60*60)
	cases := []struct {
		name     string
		params   entity.PaymentParameters
		location *time.Location
		want     int64
		ok       bool
	}{
		{
			name:   "utc",
			params: entity.PaymentParameters{Date: "15/10/2026", Hour: "10:30"},
			want:   time.Date(2026, 10, 15, 10, 30, 0, 0, time.UTC).Unix(),
			ok:     true,
		},
		{
			name:     "gateway zone",
			params:   entity.PaymentParameters{Date: "15/10/2026", Hour: "10:30"},
			location: madrid,
			want:     time.Date(2026, 10, 15, 8, 30, 0, 0, time.UTC).Unix(),
			ok:       true,
		},
		{
			name:   "with seconds",
			params: entity.PaymentParameters{Date: "01/02/2026", Hour: "23:59:30"},
			want:   time.Date(2026, 2, 1, 23, 59, 30, 0, time.UTC).Unix(),
			ok:     true,
		},
		{name: "no date", params: entity.PaymentParameters{Hour: "10:30"}},
		{name: "no hour", params: entity.PaymentParameters{Date: "15/10/2026"}},
		{name: "garbage", params: entity.PaymentParameters{Date: "2026-10-15", Hour: "10:30"}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := NotificationTime(tc.params, tc.location)
			if ok != tc.ok || got != tc.want {
				t.Fatalf("NotificationTime = %d, %v; want %d, %v", got, ok, tc.want, tc.ok)
			}
		})
	}
}
