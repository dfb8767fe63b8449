package runstate

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func testStores(t *testing.T) map[string]Store {
	t.Helper()
	mr := miniredis.RunT(t)
	rs, err := NewRedisStore(mr.Addr())
	if err != nil {
		t.Fatalf("redis store: %v", err)
	}
	return map[string]Store{
		"memory": NewMemoryStore(),
		"redis":  rs,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if _, ok, err := store.Get(ctx, "src-1"); err != nil || ok {
				t.Fatalf("expected no state yet, got ok=%v err=%v", ok, err)
			}

			st := RunState{
				SourceID:  "src-1",
				Status:    StatusOK,
				StartedAt: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
				EndedAt:   time.Date(2025, 6, 1, 10, 0, 5, 0, time.UTC),
				Items:     7,
				Stored:    3,
			}
			if err := store.Set(ctx, st); err != nil {
				t.Fatalf("set: %v", err)
			}

			got, ok, err := store.Get(ctx, "src-1")
			if err != nil || !ok {
				t.Fatalf("get: ok=%v err=%v", ok, err)
			}
			if got.Status != StatusOK || got.Items != 7 || got.Stored != 3 {
				t.Fatalf("unexpected state %+v", got)
			}
			if !got.StartedAt.Equal(st.StartedAt) {
				t.Fatalf("started at %v, want %v", got.StartedAt, st.StartedAt)
			}

			st.Status = StatusError
			st.LastError = "feed unreachable"
			if err := store.Set(ctx, st); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			got, _, _ = store.Get(ctx, "src-1")
			if got.Status != StatusError || got.LastError != "feed unreachable" {
				t.Fatalf("overwrite not applied: %+v", got)
			}

			if err := store.Set(ctx, RunState{SourceID: "src-2", Status: StatusRunning}); err != nil {
				t.Fatalf("set second: %v", err)
			}
			all, err := store.All(ctx)
			if err != nil {
				t.Fatalf("all: %v", err)
			}
			if len(all) != 2 {
				t.Fatalf("expected 2 states, got %d", len(all))
			}

			if err := store.Delete(ctx, "src-1"); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if _, ok, _ := store.Get(ctx, "src-1"); ok {
				t.Fatalf("state survived delete")
			}
		})
	}
}

func TestParseRedisURL(t *testing.T) {
	opts, err := parseRedisURL("localhost:6379")
	if err != nil || len(opts.Addrs) != 1 || opts.Addrs[0] != "localhost:6379" {
		t.Fatalf("plain addr: %+v %v", opts, err)
	}

	opts, err = parseRedisURL("redis://user:pw@host1:6379,host2:6379/2")
	if err != nil {
		t.Fatalf("url: %v", err)
	}
	if opts.Username != "user" || opts.Password != "pw" || opts.DB != 2 || len(opts.Addrs) != 2 {
		t.Fatalf("unexpected opts %+v", opts)
	}

	if opts, err = parseRedisURL("rediss://host:6380"); err != nil || opts.TLSConfig == nil {
		t.Fatalf("rediss must enable TLS: %+v %v", opts, err)
	}

	if _, err = parseRedisURL("http://host"); err == nil {
		t.Fatalf("expected error for unsupported scheme")
	}
}
