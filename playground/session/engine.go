package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/suyash-sneo/lifeback"
	"github.com/suyash-sneo/lifeback/hash"
	"github.com/suyash-sneo/lifeback/life"
	"github.com/suyash-sneo/lifeback/store"
	redisstore "github.com/suyash-sneo/lifeback/store/redis"
)

type Mode string

const (
	// ModeSimulated serves patterns from an embedded miniredis.
	ModeSimulated Mode = "simulated"
	// ModeReal connects to RedisAddr.
	ModeReal Mode = "real"
	// ModeOffline uses only the built-in patterns.
	ModeOffline Mode = "offline"
)

var (
	ErrOutOfBounds   = errors.New("cell out of bounds")
	ErrAlreadyActive = errors.New("run loop already active")
	ErrNotRunning    = errors.New("run loop not active")
	ErrClosed        = errors.New("session closed")
)

type Options struct {
	Config    lifeback.Config
	Mode      Mode
	RedisAddr string

	// Store overrides the store selected by Mode.
	Store      store.Store
	Patterns   lifeback.PatternProvider
	SessionIDs lifeback.SessionIDProvider
	Logger     lifeback.Logger
	Metrics    lifeback.Metrics

	HeartbeatTTL time.Duration
}

// Engine is one viewer session: a board, its undo history and a run loop.
type Engine struct {
	// stepMu spans a forward step and its cycle check, so a concurrent
	// stepper cannot push the new frame before it is compared.
	stepMu    sync.Mutex
	mu        sync.Mutex
	closed    bool
	cfg       lifeback.Config
	rule      life.Rule
	edges     life.Edges
	rng       *rand.Rand
	interval  time.Duration
	run       *runHandle
	period    int
	sessions  []string
	mode      Mode
	redisAddr string
	sessionID string

	coord    *lifeback.Coordinator[Frame]
	events   *RingBuffer
	logger   lifeback.Logger
	metrics  lifeback.Metrics
	memory   *lifeback.MemoryMetrics
	patterns lifeback.PatternProvider

	st           store.Store
	ownedStore   *redisstore.Store
	server       *miniredis.Miniredis
	heartbeatTTL time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// runHandle is invalidated to stop a run loop. The loop checks it at the
// start of each iteration; a step already in flight completes.
type runHandle struct {
	active atomic.Bool
}

type CommandResult struct {
	Message string
}

func NewEngine(opts Options) (*Engine, error) {
	cfg := opts.Config
	if cfg == (lifeback.Config{}) {
		cfg = lifeback.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("session config: %w", err)
	}
	rule, err := life.ParseRule(cfg.Rule)
	if err != nil {
		return nil, err
	}
	edges, err := life.ParseEdges(cfg.Edges)
	if err != nil {
		return nil, err
	}
	if opts.Mode == "" {
		opts.Mode = ModeSimulated
	}
	if opts.RedisAddr == "" {
		opts.RedisAddr = "127.0.0.1:6379"
	}
	if opts.HeartbeatTTL <= 0 {
		opts.HeartbeatTTL = 15 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = lifeback.NopLogger()
	}
	memory := lifeback.NewMemoryMetrics()
	var metrics lifeback.Metrics = memory
	if opts.Metrics != nil {
		metrics = teeMetrics{memory, opts.Metrics}
	}
	ids := opts.SessionIDs
	if ids == nil {
		ids = lifeback.NewDefaultSessionIDProvider(lifeback.WithSessionPrefix("life"))
	}
	sessionID, err := ids.SessionID()
	if err != nil {
		return nil, fmt.Errorf("session id: %w", err)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	board, err := life.NewGrid(cfg.Width, cfg.Height)
	if err != nil {
		return nil, err
	}
	if cfg.Density > 0 {
		board = board.Randomize(rng, cfg.Density)
	}
	coord, err := lifeback.NewCoordinator(cfg.HistoryCapacity, newFrame(board, 0),
		lifeback.WithCoordinatorLogger(logger),
		lifeback.WithCoordinatorMetrics(metrics))
	if err != nil {
		return nil, err
	}

	patterns := opts.Patterns
	if patterns == nil {
		patterns = lifeback.NewStaticPatternProvider()
	}
	eng := &Engine{
		cfg:          cfg,
		rule:         rule,
		edges:        edges,
		rng:          rng,
		interval:     cfg.StepInterval,
		mode:         opts.Mode,
		redisAddr:    opts.RedisAddr,
		sessionID:    sessionID,
		coord:        coord,
		events:       NewRingBuffer(cfg.EventBuffer),
		logger:       logger,
		metrics:      metrics,
		memory:       memory,
		patterns:     patterns,
		st:           opts.Store,
		heartbeatTTL: opts.HeartbeatTTL,
	}
	eng.metrics.SetGauge(lifeback.MetricPopulation, float64(board.Population()))
	return eng, nil
}

// Start connects the pattern store, loads the configured starting pattern
// and starts background loops. It does not start the run loop unless
// Config.AutoRun is set.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.ctx != nil {
		e.mu.Unlock()
		return nil
	}
	e.ctx, e.cancel = context.WithCancel(ctx)
	e.mu.Unlock()

	if err := e.connectStore(); err != nil {
		e.abortStart()
		return err
	}

	if e.cfg.Pattern != "" {
		pat, err := e.patterns.Get(e.ctx, e.cfg.Pattern)
		if err != nil {
			e.abortStart()
			return fmt.Errorf("initial pattern: %w", err)
		}
		g, _ := life.NewGrid(e.cfg.Width, e.cfg.Height)
		g = life.PlaceCentered(g, pat)
		e.coord.Reset(newFrame(g, 0))
	}

	if e.st != nil {
		e.wg.Add(1)
		go e.heartbeatLoop()
		if events, err := e.st.WatchPatterns(e.ctx); err != nil {
			e.logger.Warn("pattern watch unavailable", lifeback.Field{Key: "err", Value: err})
		} else {
			e.wg.Add(1)
			go e.relayPatternEvents(events)
		}
	}
	e.emit(EventSessionStart, "session started", map[string]interface{}{
		"session": e.sessionID,
		"mode":    string(e.mode),
		"board":   fmt.Sprintf("%dx%d", e.cfg.Width, e.cfg.Height),
	})
	e.logger.Info("session started", lifeback.Field{Key: "session", Value: e.sessionID}, lifeback.Field{Key: "mode", Value: e.mode})

	if e.cfg.Script != "" {
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			if err := e.RunScript(e.ctx, e.cfg.Script); err != nil {
				e.logger.Warn("startup script failed", lifeback.Field{Key: "err", Value: err})
			}
		}()
	}
	if e.cfg.AutoRun {
		return e.Run()
	}
	return nil
}

// abortStart undoes a failed Start so it can be retried.
func (e *Engine) abortStart() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancel()
	e.ctx, e.cancel = nil, nil
}

// track runs fn on a goroutine counted by Close, unless Close has begun.
func (e *Engine) track(fn func()) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		fn()
	}()
	return true
}

func (e *Engine) connectStore() error {
	if e.st == nil {
		switch e.mode {
		case ModeOffline:
			return nil
		case ModeSimulated:
			server, err := miniredis.Run()
			if err != nil {
				return fmt.Errorf("embedded redis: %w", err)
			}
			e.server = server
			e.redisAddr = server.Addr()
		}
		rs, err := redisstore.New(redisstore.Options{Addr: e.redisAddr})
		if err != nil {
			if e.server != nil {
				e.server.Close()
				e.server = nil
			}
			return err
		}
		e.ownedStore = rs
		e.st = rs
	}
	if static, ok := e.patterns.(*lifeback.StaticPatternProvider); ok {
		e.patterns = lifeback.NewStorePatternProvider(e.st, static, e.sessionID)
	}
	return nil
}

// Close stops the run loop and background work and releases the store.
func (e *Engine) Close() error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	e.stopRun("close")
	e.mu.Lock()
	cancel := e.cancel
	e.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	e.wg.Wait()

	var err error
	if e.ownedStore != nil {
		err = e.ownedStore.Close()
		e.ownedStore = nil
	}
	if e.server != nil {
		e.server.Close()
		e.server = nil
	}
	e.emit(EventSessionStop, "session stopped", nil)
	return err
}

func (e *Engine) emit(t EventType, msg string, fields map[string]interface{}) {
	e.events.Append(Event{At: time.Now(), Type: t, Message: msg, Fields: fields})
}

// EmitErrorEvent records a failure that happened outside the engine, for
// example a malformed API request.
func (e *Engine) EmitErrorEvent(msg string, fields map[string]interface{}) {
	e.emit(EventError, msg, fields)
}

func (e *Engine) emitError(err error, fields map[string]interface{}) error {
	e.emit(EventError, err.Error(), fields)
	return err
}

// StepForward advances one generation and reports whether the new board
// repeats a retained one.
func (e *Engine) StepForward() Frame {
	e.stepMu.Lock()
	defer e.stepMu.Unlock()
	e.mu.Lock()
	rule, edges := e.rule, e.edges
	e.mu.Unlock()

	start := time.Now()
	f := e.coord.StepForward(func(cur Frame) Frame {
		return newFrame(cur.Grid.Step(rule, edges), cur.Generation+1)
	})
	e.metrics.ObserveHistogram(lifeback.MetricStepDuration, time.Since(start).Seconds())
	e.metrics.SetGauge(lifeback.MetricPopulation, float64(f.Grid.Population()))
	e.emit(EventStepForward, fmt.Sprintf("generation %d", f.Generation), map[string]interface{}{
		"generation": f.Generation,
		"population": f.Grid.Population(),
		"depth":      e.coord.Depth(),
	})
	e.detectCycle(f)
	return f
}

// StepBackward restores the previous board. ok is false when the history
// is exhausted and the board is unchanged.
func (e *Engine) StepBackward() (Frame, bool) {
	e.stepMu.Lock()
	defer e.stepMu.Unlock()
	f, ok := e.coord.StepBackward()
	if !ok {
		e.emit(EventHistoryEmpty, "no earlier generation retained", nil)
		return f, false
	}
	e.mu.Lock()
	e.period = 0
	e.mu.Unlock()
	e.metrics.SetGauge(lifeback.MetricPopulation, float64(f.Grid.Population()))
	e.emit(EventStepBackward, fmt.Sprintf("generation %d", f.Generation), map[string]interface{}{
		"generation": f.Generation,
		"depth":      e.coord.Depth(),
	})
	return f, true
}

func (e *Engine) detectCycle(f Frame) {
	var frames []Frame
	e.coord.History(func(_ int, prev Frame) bool {
		frames = append(frames, prev)
		return true
	})
	prints := make([]uint64, len(frames))
	for i, prev := range frames {
		prints[i] = prev.Fingerprint
	}
	period, found := hash.Period(f.Fingerprint, prints)
	if found && !frames[period-1].Grid.Equal(f.Grid) {
		found = false
	}

	e.mu.Lock()
	if !found {
		e.period = 0
		e.mu.Unlock()
		return
	}
	changed := e.period != period
	e.period = period
	stop := e.cfg.StopOnCycle
	e.mu.Unlock()

	if changed {
		e.metrics.IncCounter(lifeback.MetricCyclesDetected, 1)
		e.emit(EventCycle, describePeriod(period), map[string]interface{}{
			"period":     period,
			"generation": f.Generation,
		})
	}
	if stop {
		e.stopRun("cycle")
	}
}

func describePeriod(period int) string {
	if period == 1 {
		return "still life reached"
	}
	return "oscillator with period " + strconv.Itoa(period)
}

// Run starts the automated run loop.
func (e *Engine) Run() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	if e.run != nil && e.run.active.Load() {
		e.mu.Unlock()
		return ErrAlreadyActive
	}
	h := &runHandle{}
	h.active.Store(true)
	e.run = h
	interval := e.interval
	e.wg.Add(1)
	e.mu.Unlock()

	go e.runLoop(h)
	e.emit(EventRunStart, "running", map[string]interface{}{"interval": interval.String()})
	return nil
}

// Stop invalidates the current run loop.
func (e *Engine) Stop() error {
	if !e.stopRun("stop") {
		return ErrNotRunning
	}
	return nil
}

func (e *Engine) stopRun(reason string) bool {
	e.mu.Lock()
	h := e.run
	e.run = nil
	e.mu.Unlock()
	if h == nil || !h.active.Swap(false) {
		return false
	}
	e.emit(EventRunStop, "stopped", map[string]interface{}{"reason": reason})
	return true
}

// Running reports whether a run loop is active.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.run != nil && e.run.active.Load()
}

func (e *Engine) runLoop(h *runHandle) {
	defer e.wg.Done()
	ctxDone := e.done()
	for {
		if !h.active.Load() {
			return
		}
		e.StepForward()

		e.mu.Lock()
		interval := e.interval
		e.mu.Unlock()
		timer := time.NewTimer(interval)
		select {
		case <-ctxDone:
			timer.Stop()
			h.active.Store(false)
			return
		case <-timer.C:
		}
	}
}

func (e *Engine) done() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ctx == nil {
		return nil
	}
	return e.ctx.Done()
}

// SetInterval changes the run loop delay. It takes effect after the
// current sleep.
func (e *Engine) SetInterval(d time.Duration) error {
	if d < e.cfg.MinInterval {
		return e.emitError(fmt.Errorf("interval %v below minimum %v", d, e.cfg.MinInterval), nil)
	}
	e.mu.Lock()
	e.interval = d
	e.mu.Unlock()
	e.emit(EventSpeed, "interval "+d.String(), map[string]interface{}{"interval": d.String()})
	return nil
}

// Interval returns the run loop delay.
func (e *Engine) Interval() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.interval
}

// Faster halves the interval, bounded by the configured minimum.
func (e *Engine) Faster() time.Duration {
	d := max(e.Interval()/2, e.cfg.MinInterval)
	_ = e.SetInterval(d)
	return d
}

// Slower doubles the interval, capped at ten seconds.
func (e *Engine) Slower() time.Duration {
	d := min(e.Interval()*2, 10*time.Second)
	_ = e.SetInterval(d)
	return d
}

// Toggle flips one cell in place. The edit is not recorded in history, so
// a backward step discards it.
func (e *Engine) Toggle(x, y int) (Frame, error) {
	cur := e.coord.Current()
	if !cur.Grid.InBounds(x, y) {
		return cur, e.emitError(fmt.Errorf("%w: (%d,%d)", ErrOutOfBounds, x, y), nil)
	}
	f := e.coord.Amend(func(cur Frame) Frame {
		return newFrame(cur.Grid.Toggle(x, y), cur.Generation)
	})
	e.metrics.SetGauge(lifeback.MetricPopulation, float64(f.Grid.Population()))
	e.emit(EventBoardEdit, fmt.Sprintf("toggle %d,%d", x, y), map[string]interface{}{
		"x": x, "y": y, "alive": f.Grid.Alive(x, y),
	})
	return f, nil
}

// Clear empties the board. Undoable.
func (e *Engine) Clear() Frame {
	cur := e.coord.Current()
	return e.commit(newFrame(cur.Grid.Clear(), 0), "clear")
}

// Randomize fills the board at the given density. Undoable.
func (e *Engine) Randomize(density float64) (Frame, error) {
	if !(density >= 0 && density <= 1) {
		return e.coord.Current(), e.emitError(fmt.Errorf("density %v outside [0,1]", density), nil)
	}
	cur := e.coord.Current()
	e.mu.Lock()
	g := cur.Grid.Randomize(e.rng, density)
	e.mu.Unlock()
	return e.commit(newFrame(g, 0), fmt.Sprintf("random %.2f", density)), nil
}

func (e *Engine) commit(f Frame, what string) Frame {
	e.stepMu.Lock()
	f = e.coord.Commit(f)
	e.stepMu.Unlock()
	e.mu.Lock()
	e.period = 0
	e.mu.Unlock()
	e.metrics.SetGauge(lifeback.MetricPopulation, float64(f.Grid.Population()))
	e.emit(EventBoardEdit, what, map[string]interface{}{
		"population": f.Grid.Population(),
		"depth":      e.coord.Depth(),
	})
	return f
}

// LoadPattern places a named pattern on an empty board. When at is nil the
// pattern is centered. Undoable.
func (e *Engine) LoadPattern(ctx context.Context, name string, at *[2]int) (Frame, error) {
	pat, err := e.patterns.Get(ctx, name)
	if err != nil {
		return e.coord.Current(), e.emitError(err, map[string]interface{}{"pattern": name})
	}
	g := e.coord.Current().Grid.Clear()
	if at == nil {
		g = life.PlaceCentered(g, pat)
	} else {
		g = life.Place(g, pat, at[0], at[1])
	}
	f := e.commit(newFrame(g, 0), "load "+pat.Name)
	e.emit(EventPatternLoad, "loaded "+pat.Name, map[string]interface{}{"pattern": pat.Name})
	return f, nil
}

// SavePattern stores the live cells of the current board under name.
func (e *Engine) SavePattern(ctx context.Context, name string) (life.Pattern, error) {
	saver, ok := e.patterns.(lifeback.PatternSaver)
	if !ok {
		return life.Pattern{}, e.emitError(lifeback.ErrReadOnlyProvider, nil)
	}
	pat := life.FromGrid(name, e.coord.Current().Grid)
	if err := saver.Save(ctx, pat); err != nil {
		return life.Pattern{}, e.emitError(fmt.Errorf("save pattern: %w", err), map[string]interface{}{"pattern": name})
	}
	e.emit(EventPatternSave, "saved "+name, map[string]interface{}{"pattern": name})
	e.logger.Info("pattern saved", lifeback.Field{Key: "pattern", Value: name}, lifeback.Field{Key: "session", Value: e.sessionID})
	return pat, nil
}

// ImportPattern stores an externally supplied pattern, such as an uploaded
// .cells file.
func (e *Engine) ImportPattern(ctx context.Context, pat life.Pattern) error {
	saver, ok := e.patterns.(lifeback.PatternSaver)
	if !ok {
		return e.emitError(lifeback.ErrReadOnlyProvider, nil)
	}
	if err := saver.Save(ctx, pat); err != nil {
		return e.emitError(fmt.Errorf("import pattern: %w", err), map[string]interface{}{"pattern": pat.Name})
	}
	e.emit(EventPatternSave, "imported "+pat.Name, map[string]interface{}{"pattern": pat.Name})
	return nil
}

// DeletePattern removes a saved pattern.
func (e *Engine) DeletePattern(ctx context.Context, name string) error {
	saver, ok := e.patterns.(lifeback.PatternSaver)
	if !ok {
		return e.emitError(lifeback.ErrReadOnlyProvider, nil)
	}
	if err := saver.Delete(ctx, name); err != nil {
		return e.emitError(err, map[string]interface{}{"pattern": name})
	}
	e.emit(EventPatternDelete, "deleted "+name, map[string]interface{}{"pattern": name})
	return nil
}

// Patterns lists every pattern the session can load.
func (e *Engine) Patterns(ctx context.Context) ([]life.Pattern, error) {
	return e.patterns.List(ctx)
}

// SetRule changes the transition rule for future steps.
func (e *Engine) SetRule(spec string) error {
	rule, err := life.ParseRule(spec)
	if err != nil {
		return e.emitError(err, nil)
	}
	e.mu.Lock()
	e.rule = rule
	e.mu.Unlock()
	e.emit(EventRuleChange, "rule "+rule.String(), map[string]interface{}{"rule": rule.String()})
	return nil
}

// SetEdges changes how the board border is treated for future steps.
func (e *Engine) SetEdges(mode string) error {
	edges, err := life.ParseEdges(mode)
	if err != nil {
		return e.emitError(err, nil)
	}
	e.mu.Lock()
	e.edges = edges
	e.mu.Unlock()
	e.emit(EventRuleChange, "edges "+string(edges), map[string]interface{}{"edges": string(edges)})
	return nil
}

// Current returns the adopted frame.
func (e *Engine) Current() Frame {
	return e.coord.Current()
}

// Depth returns the number of backward steps available.
func (e *Engine) Depth() int {
	return e.coord.Depth()
}

// Snapshot captures the session for rendering.
func (e *Engine) Snapshot() Snapshot {
	f := e.coord.Current()
	e.mu.Lock()
	rule, edges := e.rule, e.edges
	running := e.run != nil && e.run.active.Load()
	interval := e.interval
	period := e.period
	sessions := append([]string(nil), e.sessions...)
	redisAddr := e.redisAddr
	e.mu.Unlock()

	capacity := e.coord.Capacity()
	if e.mode == ModeOffline && e.st == nil {
		redisAddr = ""
	}
	return Snapshot{
		Now:       time.Now(),
		SessionID: e.sessionID,
		Mode:      string(e.mode),
		RedisAddr: redisAddr,
		Sessions:  sessions,
		Board: Board{
			Width:       f.Grid.Width(),
			Height:      f.Grid.Height(),
			Generation:  f.Generation,
			Population:  f.Grid.Population(),
			Fingerprint: fmt.Sprintf("%016x", f.Fingerprint),
			Rule:        rule.String(),
			Edges:       string(edges),
			Rows:        f.Grid.Rows('O', '.'),
		},
		History: History{
			Depth:    e.coord.Depth(),
			Capacity: capacity,
			Limit:    capacity - 1,
		},
		Run: RunState{
			Running:     running,
			Interval:    interval,
			StopOnCycle: e.cfg.StopOnCycle,
		},
		Period:  period,
		Metrics: e.memory.Values(),
		Grid:    f.Grid,
	}
}

// EventsSince returns events newer than seq and the latest seq delivered.
func (e *Engine) EventsSince(seq uint64) ([]Event, uint64) {
	return e.events.Since(seq)
}

// RecentEvents returns the newest n events, oldest first.
func (e *Engine) RecentEvents(n int) []Event {
	return e.events.Last(n)
}

// Metrics returns the in-memory metric values.
func (e *Engine) Metrics() map[string]float64 {
	return e.memory.Values()
}

func (e *Engine) heartbeatLoop() {
	defer e.wg.Done()
	beat := func() {
		if err := e.st.HeartbeatSession(e.ctx, e.sessionID, e.heartbeatTTL); err != nil {
			e.logger.Warn("session heartbeat failed", lifeback.Field{Key: "err", Value: err})
			return
		}
		live, err := e.st.ListSessions(e.ctx)
		if err != nil {
			e.logger.Warn("list sessions failed", lifeback.Field{Key: "err", Value: err})
			return
		}
		e.mu.Lock()
		e.sessions = live
		e.mu.Unlock()
	}
	beat()
	ticker := time.NewTicker(e.heartbeatTTL / 3)
	defer ticker.Stop()
	for {
		select {
		case <-e.ctx.Done():
			return
		case <-ticker.C:
			beat()
		}
	}
}

func (e *Engine) relayPatternEvents(events <-chan store.PatternEvent) {
	defer e.wg.Done()
	for ev := range events {
		if ev.Err != nil {
			e.logger.Warn("pattern watch", lifeback.Field{Key: "err", Value: ev.Err})
			continue
		}
		verb := "saved"
		if ev.Deleted {
			verb = "deleted"
		}
		e.emit(EventPatternRemote, fmt.Sprintf("pattern %s %s", ev.Name, verb), map[string]interface{}{
			"pattern": ev.Name,
			"deleted": ev.Deleted,
		})
	}
}

// teeMetrics records into the engine's memory recorder and a caller's one.
type teeMetrics [2]lifeback.Metrics

func (t teeMetrics) IncCounter(name string, value float64, labels ...lifeback.Label) {
	t[0].IncCounter(name, value, labels...)
	t[1].IncCounter(name, value, labels...)
}

func (t teeMetrics) SetGauge(name string, value float64, labels ...lifeback.Label) {
	t[0].SetGauge(name, value, labels...)
	t[1].SetGauge(name, value, labels...)
}

func (t teeMetrics) ObserveHistogram(name string, value float64, labels ...lifeback.Label) {
	t[0].ObserveHistogram(name, value, labels...)
	t[1].ObserveHistogram(name, value, labels...)
}
