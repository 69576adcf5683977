package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestFirstRequestProceedsImmediately(t *testing.T) {
	r := NewSiteRateLimiter(time.Second)

	start := time.Now()
	if err := r.Wait(context.Background(), "keejob"); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("first request should not wait, took %v", elapsed)
	}
}

func TestSecondRequestWaits(t *testing.T) {
	r := NewSiteRateLimiter(150 * time.Millisecond)

	if err := r.Wait(context.Background(), "keejob"); err != nil {
		t.Fatalf("first Wait: %v", err)
	}

	start := time.Now()
	if err := r.Wait(context.Background(), "keejob"); err != nil {
		t.Fatalf("second Wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Errorf("second request to the same site should wait, took %v", elapsed)
	}
}

func TestDifferentSitesDoNotBlockEachOther(t *testing.T) {
	r := NewSiteRateLimiter(time.Second)

	if err := r.Wait(context.Background(), "keejob"); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	start := time.Now()
	if err := r.Wait(context.Background(), "tunisietravail"); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("different site should not wait, took %v", elapsed)
	}
}

func TestWaitRespectsCancellation(t *testing.T) {
	r := NewSiteRateLimiter(10 * time.Second)

	if err := r.Wait(context.Background(), "keejob"); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := r.Wait(ctx, "keejob"); err == nil {
		t.Error("expected cancellation error while waiting")
	}
}
