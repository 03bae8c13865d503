package database

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/collabwave/collabwave/internal/config"
)

func TestCheck_RedisUp(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	if err := Check(context.Background(), nil, rdb); err != nil {
		t.Errorf("expected healthy, got %v", err)
	}
}

func TestCheck_RedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	mr.Close()

	err := Check(context.Background(), nil, rdb)
	if err == nil || !strings.Contains(err.Error(), "redis") {
		t.Errorf("expected redis error, got %v", err)
	}
}

func TestWaitReady_RetriesWithBackoff(t *testing.T) {
	var slept []time.Duration
	sleep = func(d time.Duration) { slept = append(slept, d) }
	t.Cleanup(func() { sleep = time.Sleep })

	calls := 0
	err := waitReady("mariadb", func(ctx context.Context) error {
		calls++
		if calls < 4 {
			return errors.New("connection refused")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	if len(slept) != len(want) {
		t.Fatalf("expected %d sleeps, got %v", len(want), slept)
	}
	for i := range want {
		if slept[i] != want[i] {
			t.Errorf("sleep %d: expected %s, got %s", i, want[i], slept[i])
		}
	}
}

func TestWaitReady_GivesUp(t *testing.T) {
	var total time.Duration
	sleep = func(d time.Duration) { total += d }
	t.Cleanup(func() { sleep = time.Sleep })

	err := waitReady("redis", func(ctx context.Context) error {
		return errors.New("connection refused")
	})
	if err == nil || !strings.Contains(err.Error(), "redis after 10 attempts") {
		t.Fatalf("expected give-up error, got %v", err)
	}
	// 1+2+4+8+16 then capped at 30 for the remaining four waits.
	if want := 151 * time.Second; total != want {
		t.Errorf("expected %s of backoff, got %s", want, total)
	}
}

func TestNewRedis_Connects(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewRedis(config.RedisConfig{URL: "redis://" + mr.Addr()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer client.Close()
	if err := mr.Set("k", "v"); err != nil {
		t.Fatal(err)
	}
	if v, _ := client.Get(context.Background(), "k").Result(); v != "v" {
		t.Errorf("expected v, got %q", v)
	}
}

func TestNewRedis_BadURL(t *testing.T) {
	if _, err := NewRedis(config.RedisConfig{URL: "not-a-url"}); err == nil {
		t.Error("expected parse error")
	}
}
