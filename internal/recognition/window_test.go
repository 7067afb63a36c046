package recognition

import (
	"testing"
	"time"
)

func TestWindowPolicyDaily(t *testing.T) {
	utc := WindowPolicy{Mode: WindowDaily, Location: time.UTC}

	morning := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 3, 14, 23, 59, 59, 0, time.UTC)
	nextDay := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	if utc.Key(morning) != "2026-03-14" {
		t.Fatalf("unexpected key %q", utc.Key(morning))
	}
	if utc.Key(morning) != utc.Key(evening) {
		t.Errorf("same day produced different keys: %q vs %q", utc.Key(morning), utc.Key(evening))
	}
	if utc.Key(evening) == utc.Key(nextDay) {
		t.Errorf("midnight rollover did not change the key: %q", utc.Key(nextDay))
	}
}

func TestWindowPolicyDailyTimezone(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	p := WindowPolicy{Mode: WindowDaily, Location: tokyo}

	// 16:00 UTC on the 14th is already the 15th in Tokyo.
	at := time.Date(2026, 3, 14, 16, 0, 0, 0, time.UTC)
	if got := p.Key(at); got != "2026-03-15" {
		t.Errorf("Key(%v) = %q; want 2026-03-15", at, got)
	}
}

func TestWindowPolicyInterval(t *testing.T) {
	p := WindowPolicy{Mode: WindowInterval, Interval: 10 * time.Minute}

	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	within := base.Add(9 * time.Minute)
	next := base.Add(10 * time.Minute)

	if p.Key(base) != p.Key(within) {
		t.Errorf("times inside one interval got different keys: %q vs %q", p.Key(base), p.Key(within))
	}
	if p.Key(base) == p.Key(next) {
		t.Errorf("interval boundary did not change the key: %q", p.Key(next))
	}
}

func TestWindowPolicyKeyStable(t *testing.T) {
	p := WindowPolicy{Mode: WindowDaily, Location: time.UTC}
	at := time.Date(2026, 3, 14, 12, 30, 0, 0, time.UTC)

	first := p.Key(at)
	for i := 0; i < 10; i++ {
		if got := p.Key(at); got != first {
			t.Fatalf("Key is not stable: %q vs %q", got, first)
		}
	}
}
