package gate_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mguerin/materiguard/gate"
)

// countingResolver counts how many times Resolve hits the inner source.
type countingResolver struct {
	calls   atomic.Int64
	profile gate.Profile
}

func (r *countingResolver) Resolve(_ context.Context, _ uint) (gate.Profile, error) {
	r.calls.Add(1)
	return r.profile, nil
}

func TestCachedResolver_CachesWithinTTL(t *testing.T) {
	inner := &countingResolver{profile: gate.NewStaticProfile(gate.RoleManager)}
	cached := gate.NewCachedResolver[uint](inner, time.Minute)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		p, err := cached.Resolve(ctx, 7)
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if p.Role() != gate.RoleManager {
			t.Fatalf("unexpected role %s", p.Role())
		}
	}
	if n := inner.calls.Load(); n != 1 {
		t.Errorf("expected 1 inner call, got %d", n)
	}
}

func TestCachedResolver_CachesNilProfile(t *testing.T) {
	inner := &countingResolver{profile: nil}
	cached := gate.NewCachedResolver[uint](inner, time.Minute)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if p, _ := cached.Resolve(ctx, 1); p != nil {
			t.Fatal("expected nil profile")
		}
	}
	if n := inner.calls.Load(); n != 1 {
		t.Errorf("expected nil result to be cached, got %d inner calls", n)
	}
}

func TestCachedResolver_Invalidate(t *testing.T) {
	inner := &countingResolver{profile: gate.NewStaticProfile(gate.RoleUser)}
	cached := gate.NewCachedResolver[uint](inner, time.Minute)

	ctx := context.Background()
	_, _ = cached.Resolve(ctx, 3)
	cached.Invalidate(3)
	_, _ = cached.Resolve(ctx, 3)
	if n := inner.calls.Load(); n != 2 {
		t.Errorf("expected re-fetch after Invalidate, got %d inner calls", n)
	}

	cached.InvalidateAll()
	_, _ = cached.Resolve(ctx, 3)
	if n := inner.calls.Load(); n != 3 {
		t.Errorf("expected re-fetch after InvalidateAll, got %d inner calls", n)
	}
}
