package session

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/suyash-sneo/lifeback"
	"github.com/suyash-sneo/lifeback/internal/fakestore"
)

func TestStepBackRestoresGeneration(t *testing.T) {
	eng := newTestEngine(t, nil)
	start := eng.Current()
	for i := 0; i < 3; i++ {
		eng.StepForward()
	}

	for i := 0; i < 2; i++ {
		if _, ok := eng.StepBackward(); !ok {
			t.Fatalf("backward %d failed", i)
		}
	}
	cur := eng.Current()
	if eng.Depth() != 1 {
		t.Fatalf("expected depth 1, got %d", eng.Depth())
	}
	if cur.Generation != 1 {
		t.Fatalf("expected generation 1 after two backs, got %d", cur.Generation)
	}
	if _, ok := eng.StepBackward(); !ok {
		t.Fatalf("expected one more backward step")
	}
	if !eng.Current().Grid.Equal(start.Grid) {
		t.Fatalf("expected initial board restored")
	}
	if _, ok := eng.StepBackward(); ok {
		t.Fatalf("expected history exhausted")
	}
	if !hasEvent(eng, EventHistoryEmpty) {
		t.Fatalf("expected history.empty event")
	}
}

func TestToggleIsNotUndoable(t *testing.T) {
	eng := newTestEngine(t, nil)
	eng.Clear()
	depth := eng.Depth()
	f, err := eng.Toggle(2, 3)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !f.Grid.Alive(2, 3) || eng.Depth() != depth {
		t.Fatalf("toggle should change the board without a history entry")
	}
	if _, err := eng.Toggle(99, 0); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("expected ErrOutOfBounds, got %v", err)
	}
	eng.StepBackward()
	if eng.Current().Grid.Population() == 0 {
		t.Fatalf("backward step should restore the board before clear")
	}
}

func TestClearAndRandomAreUndoable(t *testing.T) {
	eng := newTestEngine(t, nil)
	before := eng.Current()
	eng.Clear()
	if eng.Current().Grid.Population() != 0 || eng.Depth() != 1 {
		t.Fatalf("clear should empty the board and record history")
	}
	if _, err := eng.Randomize(1); err != nil {
		t.Fatalf("random: %v", err)
	}
	if eng.Current().Grid.Population() != 16*12 {
		t.Fatalf("density 1 should fill the board")
	}
	if _, err := eng.Randomize(2); err == nil {
		t.Fatalf("expected density error")
	}
	eng.StepBackward()
	eng.StepBackward()
	if !eng.Current().Grid.Equal(before.Grid) {
		t.Fatalf("two backs should restore the original board")
	}
}

func TestCycleDetection(t *testing.T) {
	eng := newTestEngine(t, nil)
	ctx := context.Background()

	if _, err := eng.LoadPattern(ctx, "block", nil); err != nil {
		t.Fatalf("load block: %v", err)
	}
	eng.StepForward()
	if p := eng.Snapshot().Period; p != 1 {
		t.Fatalf("block should report still life, period %d", p)
	}

	if _, err := eng.LoadPattern(ctx, "blinker", nil); err != nil {
		t.Fatalf("load blinker: %v", err)
	}
	if p := eng.Snapshot().Period; p != 0 {
		t.Fatalf("loading a pattern should reset the period, got %d", p)
	}
	eng.StepForward()
	eng.StepForward()
	if p := eng.Snapshot().Period; p != 2 {
		t.Fatalf("blinker should report period 2, got %d", p)
	}
}

func TestRunLoopStopsOnCycle(t *testing.T) {
	eng := newTestEngine(t, func(cfg *lifeback.Config) { cfg.StopOnCycle = true })
	if _, err := eng.LoadPattern(context.Background(), "blinker", nil); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := eng.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	waitUntil(t, 2*time.Second, func() bool { return !eng.Running() })
	if eng.Current().Generation != 2 {
		t.Fatalf("expected the loop to stop at generation 2, got %d", eng.Current().Generation)
	}
}

func TestConcurrentSteppersDoNotReportFalseCycles(t *testing.T) {
	// A glider on a 16x12 torus repeats only every 192 generations, longer
	// than the retained history, so no cycle may ever be reported.
	eng := newTestEngine(t, func(c *lifeback.Config) {
		c.Edges = "wrap"
		c.Density = 0
	})
	if _, err := eng.LoadPattern(context.Background(), "glider", &[2]int{1, 1}); err != nil {
		t.Fatalf("load glider: %v", err)
	}
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 300; j++ {
				eng.StepForward()
			}
		}()
	}
	wg.Wait()
	if got := eng.Current().Generation; got != 1200 {
		t.Fatalf("expected generation 1200, got %d", got)
	}
	events, _ := eng.EventsSince(0)
	for _, ev := range events {
		if ev.Type == EventCycle {
			t.Fatalf("unexpected cycle event: %s %v", ev.Message, ev.Fields)
		}
	}
}

func TestRandomRejectsNaNDensity(t *testing.T) {
	eng := newTestEngine(t, nil)
	depth := eng.Depth()
	if _, err := eng.Randomize(math.NaN()); err == nil {
		t.Fatalf("expected NaN density to be rejected")
	}
	if _, err := eng.ExecCommand(context.Background(), "random NaN"); err == nil {
		t.Fatalf("expected random NaN command to fail")
	}
	if eng.Depth() != depth {
		t.Fatalf("rejected randomize must not record history")
	}
}

func TestStartCanBeRetriedAfterFailure(t *testing.T) {
	eng := newTestEngine(t, func(c *lifeback.Config) { c.Pattern = "no-such-pattern" })
	if err := eng.Start(context.Background()); err == nil {
		t.Fatalf("expected unknown initial pattern to fail")
	}
	if err := eng.Start(context.Background()); err == nil {
		t.Fatalf("retried Start must fail again, not report success")
	}
}

func TestClosedEngineRefusesBackgroundWork(t *testing.T) {
	eng := newTestEngine(t, nil)
	if err := eng.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := eng.Run(); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed from Run, got %v", err)
	}
	if _, err := eng.ExecCommand(context.Background(), "script whatever.yaml"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed from script, got %v", err)
	}
}

func TestRunAndStop(t *testing.T) {
	eng := newTestEngine(t, nil)
	if _, err := eng.LoadPattern(context.Background(), "glider", nil); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := eng.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if err := eng.Run(); !errors.Is(err, ErrAlreadyActive) {
		t.Fatalf("expected ErrAlreadyActive, got %v", err)
	}
	waitUntil(t, 2*time.Second, func() bool { return eng.Current().Generation >= 3 })
	if err := eng.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	// let an in-flight step finish
	time.Sleep(30 * time.Millisecond)
	gen := eng.Current().Generation
	time.Sleep(50 * time.Millisecond)
	if eng.Current().Generation != gen {
		t.Fatalf("generation advanced after stop: %d -> %d", gen, eng.Current().Generation)
	}
	if err := eng.Stop(); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning, got %v", err)
	}
}

func TestExecCommand(t *testing.T) {
	eng := newTestEngine(t, nil)
	ctx := context.Background()

	if _, err := eng.ExecCommand(ctx, "step 3"); err != nil {
		t.Fatalf("step: %v", err)
	}
	res, err := eng.ExecCommand(ctx, "back 2")
	if err != nil {
		t.Fatalf("back: %v", err)
	}
	if !strings.Contains(res.Message, "generation 1") || eng.Depth() != 1 {
		t.Fatalf("unexpected back result %q depth %d", res.Message, eng.Depth())
	}
	res, err = eng.ExecCommand(ctx, "back 5")
	if err != nil || !strings.Contains(res.Message, "exhausted") {
		t.Fatalf("expected exhausted message, got %q err=%v", res.Message, err)
	}
	if _, err := eng.ExecCommand(ctx, "speed 250ms"); err != nil || eng.Interval() != 250*time.Millisecond {
		t.Fatalf("speed: interval %v err=%v", eng.Interval(), err)
	}
	if _, err := eng.ExecCommand(ctx, "speed 1ms"); err == nil {
		t.Fatalf("expected interval below minimum to fail")
	}
	if _, err := eng.ExecCommand(ctx, "rule B36/S23"); err != nil {
		t.Fatalf("rule: %v", err)
	}
	if eng.Snapshot().Board.Rule != "B36/S23" {
		t.Fatalf("rule not applied")
	}
	if _, err := eng.ExecCommand(ctx, "toggle x 1"); err == nil {
		t.Fatalf("expected usage error")
	}
	if _, err := eng.ExecCommand(ctx, "frobnicate"); err == nil {
		t.Fatalf("expected unknown command error")
	}
	if !hasEvent(eng, EventError) {
		t.Fatalf("expected failures to be emitted as error events")
	}
	if res, _ := eng.ExecCommand(ctx, "patterns"); !strings.Contains(res.Message, "glider") {
		t.Fatalf("patterns should list builtins, got %q", res.Message)
	}
}

func TestSaveAndLoadThroughStore(t *testing.T) {
	st := fakestore.New()
	eng := newTestEngineWith(t, Options{Store: st}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := eng.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	if _, err := eng.LoadPattern(ctx, "glider", nil); err != nil {
		t.Fatalf("load glider: %v", err)
	}
	eng.StepForward()
	if _, err := eng.ExecCommand(ctx, "save mine"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, ok, _ := st.LoadPattern(ctx, "mine"); !ok {
		t.Fatalf("expected pattern in store")
	}
	eng.Clear()
	if _, err := eng.ExecCommand(ctx, "load mine 0 0"); err != nil {
		t.Fatalf("load saved: %v", err)
	}
	if eng.Current().Grid.Population() != 5 {
		t.Fatalf("expected glider population 5, got %d", eng.Current().Grid.Population())
	}
	if _, err := eng.ExecCommand(ctx, "load glidr"); !errors.Is(err, lifeback.ErrPatternNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	waitUntil(t, time.Second, func() bool { return hasEvent(eng, EventPatternRemote) })
	waitUntil(t, time.Second, func() bool { return len(eng.Snapshot().Sessions) == 1 })
}

func TestOfflineSaveIsReadOnly(t *testing.T) {
	eng := newTestEngineWith(t, Options{Mode: ModeOffline}, nil)
	if err := eng.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := eng.SavePattern(context.Background(), "x"); !errors.Is(err, lifeback.ErrReadOnlyProvider) {
		t.Fatalf("expected read-only error, got %v", err)
	}
}

func TestSimulatedModeUsesEmbeddedRedis(t *testing.T) {
	eng := newTestEngineWith(t, Options{Mode: ModeSimulated}, func(cfg *lifeback.Config) {
		cfg.Pattern = "r-pentomino"
	})
	if err := eng.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	snap := eng.Snapshot()
	if snap.RedisAddr == "" || snap.Mode != "simulated" {
		t.Fatalf("expected embedded redis address, got %+v", snap)
	}
	if snap.Board.Population != 5 || eng.Depth() != 0 {
		t.Fatalf("initial pattern should be placed without history, pop %d depth %d", snap.Board.Population, eng.Depth())
	}
	if _, err := eng.SavePattern(context.Background(), "seed"); err != nil {
		t.Fatalf("save: %v", err)
	}
	list, err := eng.Patterns(context.Background())
	if err != nil {
		t.Fatalf("patterns: %v", err)
	}
	found := false
	for _, p := range list {
		if p.Name == "seed" {
			found = true
		}
	}
	if !found {
		t.Fatalf("saved pattern missing from list")
	}
}

func TestRunScript(t *testing.T) {
	eng := newTestEngine(t, nil)
	path := filepath.Join(t.TempDir(), "demo.yaml")
	body := "events:\n  - at: 0s\n    command: load blinker\n  - at: 10ms\n    command: step 2\n  - at: 20ms\n    command: back\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write script: %v", err)
	}
	if err := eng.RunScript(context.Background(), path); err != nil {
		t.Fatalf("run script: %v", err)
	}
	if eng.Current().Generation != 1 {
		t.Fatalf("expected generation 1 after script, got %d", eng.Current().Generation)
	}
	if !hasEvent(eng, EventScriptDone) {
		t.Fatalf("expected script.done event")
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(bad, []byte(`{"events":[{"at":"soon","command":"step"}]}`), 0o600); err != nil {
		t.Fatalf("write script: %v", err)
	}
	if err := eng.RunScript(context.Background(), bad); err == nil {
		t.Fatalf("expected invalid offset to fail")
	}
}

func TestScriptsCannotStartScripts(t *testing.T) {
	eng := newTestEngine(t, nil)
	path := filepath.Join(t.TempDir(), "self.yaml")
	body := "events:\n  - at: 1ms\n    command: SCRIPT " + path + "\n  - at: 2ms\n    command: \"  script " + path + "\"\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write script: %v", err)
	}
	if err := eng.RunScript(context.Background(), path); err != nil {
		t.Fatalf("run script: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	starts, refused := 0, 0
	events, _ := eng.EventsSince(0)
	for _, ev := range events {
		switch {
		case ev.Type == EventScriptStart:
			starts++
		case ev.Type == EventError && ev.Message == ErrScriptNotAllowed.Error():
			refused++
		}
	}
	if starts != 1 || refused != 2 {
		t.Fatalf("expected 1 script start and 2 refusals, got %d and %d", starts, refused)
	}

	if _, err := eng.ExecCommand(WithoutScripts(context.Background()), "script "+path); !errors.Is(err, ErrScriptNotAllowed) {
		t.Fatalf("expected ErrScriptNotAllowed, got %v", err)
	}
}

func TestMetricsRecorded(t *testing.T) {
	metrics := lifeback.NewMemoryMetrics()
	eng := newTestEngineWith(t, Options{Metrics: metrics}, func(cfg *lifeback.Config) { cfg.HistoryCapacity = 3 })
	for i := 0; i < 4; i++ {
		eng.StepForward()
	}
	eng.StepBackward()
	if metrics.Counter(lifeback.MetricEvictions) != 2 {
		t.Fatalf("expected 2 evictions, got %v", metrics.Counter(lifeback.MetricEvictions))
	}
	if metrics.Counter(lifeback.MetricStepsBackward) != 1 {
		t.Fatalf("expected 1 backward step")
	}
	if eng.Metrics()[lifeback.MetricUndoDepth] != 1 {
		t.Fatalf("engine memory metrics should mirror the undo depth")
	}
}

func TestRingBufferSince(t *testing.T) {
	rb := NewRingBuffer(3)
	for i := 0; i < 5; i++ {
		rb.Append(Event{Type: EventInfo})
	}
	events, latest := rb.Since(0)
	if len(events) != 3 || events[0].Seq != 3 || latest != 5 {
		t.Fatalf("expected seqs 3..5, got %d events latest %d", len(events), latest)
	}
	events, latest = rb.Since(5)
	if len(events) != 0 || latest != 5 {
		t.Fatalf("expected nothing new, got %d latest %d", len(events), latest)
	}
	if last := rb.Last(2); len(last) != 2 || last[1].Seq != 5 {
		t.Fatalf("unexpected tail %+v", last)
	}
}

func newTestEngine(t *testing.T, mutate func(*lifeback.Config)) *Engine {
	return newTestEngineWith(t, Options{Mode: ModeOffline}, mutate)
}

func newTestEngineWith(t *testing.T, opts Options, mutate func(*lifeback.Config)) *Engine {
	t.Helper()
	cfg := lifeback.DefaultConfig()
	cfg.Width, cfg.Height = 16, 12
	cfg.StepInterval = 10 * time.Millisecond
	cfg.MinInterval = 10 * time.Millisecond
	cfg.Density = 0.4
	if mutate != nil {
		mutate(&cfg)
	}
	opts.Config = cfg
	if opts.SessionIDs == nil {
		opts.SessionIDs = lifeback.StaticSessionID("test")
	}
	if opts.HeartbeatTTL == 0 {
		opts.HeartbeatTTL = 300 * time.Millisecond
	}
	eng, err := NewEngine(opts)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	t.Cleanup(func() { _ = eng.Close() })
	return eng
}

func hasEvent(eng *Engine, typ EventType) bool {
	events, _ := eng.EventsSince(0)
	for _, ev := range events {
		if ev.Type == typ {
			return true
		}
	}
	return false
}

func waitUntil(t *testing.T, timeout time.Duration, ok func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if ok() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timeout after %v", timeout)
}
