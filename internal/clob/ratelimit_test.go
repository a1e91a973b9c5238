package clob

import (
	"context"
	"testing"
	"time"
)

func TestTokenBucketStartsFull(t *testing.T) {
	t.Parallel()
	tb := NewTokenBucket(10, 1)
	if tb.tokens != 10 {
		t.Errorf("tokens = %v, want 10", tb.tokens)
	}
}

func TestTokenBucketBurstDoesNotBlock(t *testing.T) {
	t.Parallel()
	tb := NewTokenBucket(5, 1)

	start := time.Now()
	for i := 0; i < 5; i++ {
		if err := tb.Wait(context.Background()); err != nil {
			t.Fatalf("Wait() returned error: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("burst took %v, expected immediate", elapsed)
	}
}

func TestTokenBucketBlocksWhenEmpty(t *testing.T) {
	t.Parallel()
	// 1 token, refills at 10/sec → ~100ms per token
	tb := NewTokenBucket(1, 10)
	if err := tb.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	if err := tb.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}
	elapsed := time.Since(start)
	if elapsed < 50*time.Millisecond {
		t.Errorf("expected ~100ms block, got %v", elapsed)
	}
	if elapsed > 300*time.Millisecond {
		t.Errorf("blocked too long: %v", elapsed)
	}
}

func TestTokenBucketRespectsContext(t *testing.T) {
	t.Parallel()
	tb := NewTokenBucket(1, 0.1) // very slow refill
	_ = tb.Wait(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := tb.Wait(ctx); err == nil {
		t.Error("expected context error, got nil")
	}
}

func TestNewRateLimiterCategories(t *testing.T) {
	t.Parallel()
	rl := NewRateLimiter()
	if rl.Price == nil || rl.Book == nil {
		t.Fatal("rate limiter categories not initialized")
	}
	if rl.Price.capacity != 100 || rl.Book.capacity != 150 {
		t.Errorf("capacities = %v, %v, want 100, 150", rl.Price.capacity, rl.Book.capacity)
	}
}
