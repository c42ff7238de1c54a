package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/suyash-sneo/lifeback/internal/redis_scripts"
)

func TestSaveLoadListDelete(t *testing.T) {
	store, mr := newStore(t)
	defer store.Close()

	ctx := context.Background()
	if err := store.SavePattern(ctx, "glider", []byte(`{"rows":[".O.","..O","OOO"]}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.SavePattern(ctx, "block", []byte(`{"rows":["OO","OO"]}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !mr.Exists("lifeback:pattern:glider") {
		t.Fatalf("expected prefixed pattern key")
	}

	data, ok, err := store.LoadPattern(ctx, "glider")
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if string(data) != `{"rows":[".O.","..O","OOO"]}` {
		t.Fatalf("unexpected body %s", data)
	}

	names, err := store.ListPatterns(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(names) != 2 || names[0] != "block" || names[1] != "glider" {
		t.Fatalf("expected sorted [block glider], got %v", names)
	}

	deleted, err := store.DeletePattern(ctx, "glider")
	if err != nil || !deleted {
		t.Fatalf("delete: deleted=%v err=%v", deleted, err)
	}
	deleted, err = store.DeletePattern(ctx, "glider")
	if err != nil || deleted {
		t.Fatalf("second delete should report false: deleted=%v err=%v", deleted, err)
	}
	if _, ok, err := store.LoadPattern(ctx, "glider"); err != nil || ok {
		t.Fatalf("expected glider gone, ok=%v err=%v", ok, err)
	}
	names, _ = store.ListPatterns(ctx)
	if len(names) != 1 {
		t.Fatalf("expected index to drop deleted name, got %v", names)
	}
}

func TestWatchPatterns(t *testing.T) {
	store, _ := newStore(t)
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, err := store.WatchPatterns(ctx)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	if err := store.SavePattern(ctx, "toad", []byte(`{}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := store.DeletePattern(ctx, "toad"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	want := []struct {
		name    string
		deleted bool
	}{{"toad", false}, {"toad", true}}
	for i, w := range want {
		select {
		case ev := <-events:
			if ev.Err != nil || ev.Name != w.name || ev.Deleted != w.deleted {
				t.Fatalf("event %d: unexpected %+v", i, ev)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("event %d not delivered", i)
		}
	}
}

func TestSessionPresenceExpires(t *testing.T) {
	store, mr := newStore(t)
	defer store.Close()

	ctx := context.Background()
	if err := store.HeartbeatSession(ctx, "s-1", 2*time.Second); err != nil {
		t.Fatalf("heartbeat: %v", err)
	}
	if err := store.HeartbeatSession(ctx, "s-2", 10*time.Second); err != nil {
		t.Fatalf("heartbeat: %v", err)
	}
	sessions, err := store.ListSessions(ctx)
	if err != nil || len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %v err=%v", sessions, err)
	}

	mr.FastForward(3 * time.Second)
	sessions, err = store.ListSessions(ctx)
	if err != nil {
		t.Fatalf("list after expiry: %v", err)
	}
	if len(sessions) != 1 || sessions[0] != "s-2" {
		t.Fatalf("expected only s-2 live, got %v", sessions)
	}
	if members, _ := mr.Members("lifeback:sessions:all"); len(members) != 1 {
		t.Fatalf("expected expired session pruned from set, got %v", members)
	}
}

func TestScriptFallsBackToEval(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()

	s := newScript(redis_scripts.NewScript(redis_scripts.SavePattern))
	ctx := context.Background()
	n, err := s.run(ctx, client, []string{"k", "idx"}, "name", "body", "chan")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected new pattern to report 1, got %d", n)
	}
	n, err = s.run(ctx, client, []string{"k", "idx"}, "name", "body2", "chan")
	if err != nil || n != 0 {
		t.Fatalf("expected overwrite to report 0, n=%d err=%v", n, err)
	}
	if got, _ := mr.Get("k"); got != "body2" {
		t.Fatalf("expected overwritten body, got %q", got)
	}
}

func TestParseNotification(t *testing.T) {
	if _, err := parseNotification("bogus"); err == nil {
		t.Fatalf("expected error for payload without separator")
	}
	if _, err := parseNotification("rename:x"); err == nil {
		t.Fatalf("expected error for unknown op")
	}
	ev, err := parseNotification("delete:a:b")
	if err != nil || ev.Name != "a:b" || !ev.Deleted {
		t.Fatalf("unexpected event %+v err=%v", ev, err)
	}
}

func newStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := New(Options{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store, mr
}
