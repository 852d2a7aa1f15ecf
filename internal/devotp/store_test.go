package devotp

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"
)

func TestMemoryStore_PutGet(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()

	store.Put(ctx, "+15550100", "123456", time.Now().UTC().Add(5*time.Minute))

	code, ok := store.Get(ctx, "+15550100")
	if !ok {
		t.Fatal("Get should return code after Put")
	}
	if code != "123456" {
		t.Errorf("code = %q, want %q", code, "123456")
	}
}

func TestMemoryStore_Get_ReturnsFalseWhenMissing(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	code, ok := store.Get(context.Background(), "+15550100")
	if ok {
		t.Error("Get should return false when code is missing")
	}
	if code != "" {
		t.Errorf("code = %q, want empty string", code)
	}
}

func TestMemoryStore_Get_ExpiredIsRemoved(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()
	store.Put(ctx, "+15550100", "123456", time.Now().UTC().Add(-time.Minute))

	if _, ok := store.Get(ctx, "+15550100"); ok {
		t.Error("Get should return false for expired code")
	}
	store.mu.RLock()
	_, present := store.m["+15550100"]
	store.mu.RUnlock()
	if present {
		t.Error("expired entry should be removed")
	}
}

func TestMemoryStore_SendOTPKeepsLatest(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewMemoryStore(5 * time.Minute)
	store.nowF = func() time.Time { return now }
	ctx := context.Background()

	if err := store.SendOTP(ctx, "+15550100", "111111"); err != nil {
		t.Fatalf("SendOTP: %v", err)
	}
	if err := store.SendOTP(ctx, "+15550100", "222222"); err != nil {
		t.Fatalf("SendOTP: %v", err)
	}
	code, ok := store.Get(ctx, "+15550100")
	if !ok || code != "222222" {
		t.Errorf("Get = %q, %v; want latest code", code, ok)
	}

	now = now.Add(5 * time.Minute)
	if _, ok := store.Get(ctx, "+15550100"); ok {
		t.Error("code should expire after ttl")
	}
}

func TestMemoryStore_SendOTPCanceled(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := store.SendOTP(ctx, "+15550100", "123456"); err == nil {
		t.Error("SendOTP should fail on canceled context")
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		phone := "+1555010" + strconv.Itoa(i)
		go func() {
			defer wg.Done()
			_ = store.SendOTP(ctx, phone, "123456")
		}()
		go func() {
			defer wg.Done()
			store.Get(ctx, phone)
		}()
	}
	wg.Wait()
}
