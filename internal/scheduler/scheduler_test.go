package scheduler

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/reconly/reconly/internal/digest"
)

func openTestStore(t *testing.T) *digest.Store {
	t.Helper()
	s, err := digest.Open(filepath.Join(t.TempDir(), "digests.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestReloadTracksSources(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	sched := New(store, RunnerFunc(func(context.Context, int64) error { return nil }))

	src, err := store.AddSource(ctx, digest.Source{Name: "a", URL: "https://a.example", Schedule: "@hourly", Enabled: true})
	if err != nil {
		t.Fatalf("add source: %v", err)
	}
	noSched, err := store.AddSource(ctx, digest.Source{Name: "b", URL: "https://b.example", Enabled: true})
	if err != nil {
		t.Fatalf("add source: %v", err)
	}

	if err := sched.Reload(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !sched.Scheduled(src.ID) {
		t.Fatalf("expected source %d to be scheduled", src.ID)
	}
	if sched.Scheduled(noSched.ID) {
		t.Fatalf("source without schedule must not be scheduled")
	}

	src.Enabled = false
	if err := store.UpdateSource(ctx, *src); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := sched.Reload(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if sched.Scheduled(src.ID) {
		t.Fatalf("disabled source must lose its entry")
	}

	if err := store.DeleteSource(ctx, noSched.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := sched.Reload(ctx); err != nil {
		t.Fatalf("reload after delete: %v", err)
	}
}

func TestReloadSkipsInvalidSchedule(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	sched := New(store, RunnerFunc(func(context.Context, int64) error { return nil }))

	src, err := store.AddSource(ctx, digest.Source{Name: "bad", URL: "https://bad.example", Schedule: "not a cron expr", Enabled: true})
	if err != nil {
		t.Fatalf("add source: %v", err)
	}
	if err := sched.Reload(ctx); err != nil {
		t.Fatalf("reload must not fail on one bad schedule: %v", err)
	}
	if sched.Scheduled(src.ID) {
		t.Fatalf("invalid schedule must be skipped")
	}
}

func TestValidateSchedule(t *testing.T) {
	for _, ok := range []string{"", "@hourly", "@every 15m", "0 6 * * *"} {
		if err := ValidateSchedule(ok); err != nil {
			t.Fatalf("expected %q to validate: %v", ok, err)
		}
	}
	if err := ValidateSchedule("nonsense"); err == nil {
		t.Fatalf("expected error for invalid expression")
	}
}
