package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const helpText = "commands: step [n], back [n], run, stop, toggle <x> <y>, clear, random [density], load <pattern> [x y], save <name>, delete <name>, patterns, speed <duration|faster|slower>, rule <B3/S23>, edges dead|wrap, script <file>, info"

// maxBatch bounds step and back counts from a single command.
const maxBatch = 10000

// ErrScriptNotAllowed is returned for the script command when the caller
// context forbids it: inside a running script, or from a network client.
var ErrScriptNotAllowed = errors.New("script command not allowed here")

type noScriptsKey struct{}

// WithoutScripts marks ctx so ExecCommand refuses the script command.
func WithoutScripts(ctx context.Context) context.Context {
	return context.WithValue(ctx, noScriptsKey{}, true)
}

func scriptsAllowed(ctx context.Context) bool {
	blocked, _ := ctx.Value(noScriptsKey{}).(bool)
	return !blocked
}

// ExecCommand runs one textual command. Failures are returned and also
// emitted as error events.
func (e *Engine) ExecCommand(ctx context.Context, line string) (CommandResult, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return CommandResult{}, nil
	}
	e.emit(EventCommand, line, map[string]interface{}{"command": line})
	fields := strings.Fields(line)
	cmd := strings.ToLower(fields[0])
	args := fields[1:]
	usage := func(u string) (CommandResult, error) {
		return CommandResult{}, e.emitError(fmt.Errorf("usage: %s", u), nil)
	}
	switch cmd {
	case "help", "?":
		e.emit(EventInfo, helpText, nil)
		return CommandResult{Message: helpText}, nil
	case "step", "n":
		n, err := countArg(args)
		if err != nil {
			return usage("step [n]")
		}
		var f Frame
		for i := 0; i < n; i++ {
			f = e.StepForward()
		}
		return CommandResult{Message: fmt.Sprintf("generation %d, depth %d", f.Generation, e.Depth())}, nil
	case "back", "b":
		n, err := countArg(args)
		if err != nil {
			return usage("back [n]")
		}
		done := 0
		for ; done < n; done++ {
			if _, ok := e.StepBackward(); !ok {
				break
			}
		}
		f := e.Current()
		if done < n {
			return CommandResult{Message: fmt.Sprintf("history exhausted after %d of %d, generation %d", done, n, f.Generation)}, nil
		}
		return CommandResult{Message: fmt.Sprintf("generation %d, depth %d", f.Generation, e.Depth())}, nil
	case "run":
		if err := e.Run(); err != nil {
			return CommandResult{}, e.emitError(err, nil)
		}
		return CommandResult{Message: "running"}, nil
	case "stop":
		if err := e.Stop(); err != nil {
			return CommandResult{}, e.emitError(err, nil)
		}
		return CommandResult{Message: "stopped"}, nil
	case "toggle", "t":
		if len(args) != 2 {
			return usage("toggle <x> <y>")
		}
		x, errX := strconv.Atoi(args[0])
		y, errY := strconv.Atoi(args[1])
		if errX != nil || errY != nil {
			return usage("toggle <x> <y>")
		}
		if _, err := e.Toggle(x, y); err != nil {
			return CommandResult{}, err
		}
		return CommandResult{Message: fmt.Sprintf("toggled %d,%d", x, y)}, nil
	case "clear":
		e.Clear()
		return CommandResult{Message: "cleared"}, nil
	case "random":
		density := e.cfg.Density
		if len(args) > 0 {
			v, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return usage("random [density]")
			}
			density = v
		}
		f, err := e.Randomize(density)
		if err != nil {
			return CommandResult{}, err
		}
		return CommandResult{Message: fmt.Sprintf("population %d", f.Grid.Population())}, nil
	case "load":
		if len(args) != 1 && len(args) != 3 {
			return usage("load <pattern> [x y]")
		}
		var at *[2]int
		if len(args) == 3 {
			x, errX := strconv.Atoi(args[1])
			y, errY := strconv.Atoi(args[2])
			if errX != nil || errY != nil {
				return usage("load <pattern> [x y]")
			}
			at = &[2]int{x, y}
		}
		f, err := e.LoadPattern(ctx, args[0], at)
		if err != nil {
			return CommandResult{}, err
		}
		return CommandResult{Message: fmt.Sprintf("loaded %s, population %d", args[0], f.Grid.Population())}, nil
	case "save":
		if len(args) != 1 {
			return usage("save <name>")
		}
		pat, err := e.SavePattern(ctx, args[0])
		if err != nil {
			return CommandResult{}, err
		}
		w, h := pat.Size()
		return CommandResult{Message: fmt.Sprintf("saved %s (%dx%d)", pat.Name, w, h)}, nil
	case "delete":
		if len(args) != 1 {
			return usage("delete <name>")
		}
		if err := e.DeletePattern(ctx, args[0]); err != nil {
			return CommandResult{}, err
		}
		return CommandResult{Message: "deleted " + args[0]}, nil
	case "patterns":
		list, err := e.Patterns(ctx)
		if err != nil {
			return CommandResult{}, e.emitError(err, nil)
		}
		names := make([]string, 0, len(list))
		for _, p := range list {
			names = append(names, p.Name)
		}
		msg := strings.Join(names, ", ")
		e.emit(EventInfo, msg, nil)
		return CommandResult{Message: msg}, nil
	case "speed":
		if len(args) != 1 {
			return usage("speed <duration|faster|slower>")
		}
		switch strings.ToLower(args[0]) {
		case "faster", "+":
			return CommandResult{Message: "interval " + e.Faster().String()}, nil
		case "slower", "-":
			return CommandResult{Message: "interval " + e.Slower().String()}, nil
		}
		d, err := time.ParseDuration(args[0])
		if err != nil {
			return usage("speed <duration|faster|slower>")
		}
		if err := e.SetInterval(d); err != nil {
			return CommandResult{}, err
		}
		return CommandResult{Message: "interval " + d.String()}, nil
	case "rule":
		if len(args) != 1 {
			return usage("rule <B3/S23>")
		}
		if err := e.SetRule(args[0]); err != nil {
			return CommandResult{}, err
		}
		return CommandResult{Message: "rule " + strings.ToUpper(args[0])}, nil
	case "edges":
		if len(args) != 1 {
			return usage("edges dead|wrap")
		}
		if err := e.SetEdges(args[0]); err != nil {
			return CommandResult{}, err
		}
		return CommandResult{Message: "edges " + strings.ToLower(args[0])}, nil
	case "script":
		if len(args) != 1 {
			return usage("script <file>")
		}
		if !scriptsAllowed(ctx) {
			return CommandResult{}, e.emitError(ErrScriptNotAllowed, map[string]interface{}{"file": args[0]})
		}
		runCtx := e.scriptContext(ctx)
		if !e.track(func() { _ = e.RunScript(runCtx, args[0]) }) {
			return CommandResult{}, e.emitError(ErrClosed, nil)
		}
		return CommandResult{Message: "script " + args[0]}, nil
	case "info":
		msg := e.info()
		e.emit(EventInfo, msg, nil)
		return CommandResult{Message: msg}, nil
	default:
		return CommandResult{}, e.emitError(fmt.Errorf("unknown command %q (try help)", cmd), nil)
	}
}

func countArg(args []string) (int, error) {
	if len(args) == 0 {
		return 1, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > maxBatch {
		return 0, fmt.Errorf("count must be between 1 and %d", maxBatch)
	}
	return n, nil
}

func (e *Engine) info() string {
	s := e.Snapshot()
	period := "none"
	if s.Period > 0 {
		period = strconv.Itoa(s.Period)
	}
	return fmt.Sprintf("session %s gen %d pop %d depth %d/%d rule %s edges %s interval %v running %v period %s",
		s.SessionID, s.Board.Generation, s.Board.Population, s.History.Depth, s.History.Limit,
		s.Board.Rule, s.Board.Edges, s.Run.Interval, s.Run.Running, period)
}

// scriptContext detaches a script from a request-scoped ctx but keeps it
// bound to the session lifetime.
func (e *Engine) scriptContext(ctx context.Context) context.Context {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ctx != nil {
		return e.ctx
	}
	return context.WithoutCancel(ctx)
}

type scriptFile struct {
	Events []ScriptEvent `json:"events" yaml:"events"`
}

// ScriptEvent runs Command once At has elapsed since the script started.
type ScriptEvent struct {
	At      string `json:"at" yaml:"at"`
	Command string `json:"command" yaml:"command"`
}

// LoadScript parses a YAML or JSON script file.
func LoadScript(path string) ([]ScriptEvent, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	var file scriptFile
	if strings.HasSuffix(path, ".json") {
		err = json.Unmarshal(data, &file)
	} else {
		err = yaml.Unmarshal(data, &file)
	}
	if err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	for i, ev := range file.Events {
		if _, err := time.ParseDuration(ev.At); err != nil {
			return nil, fmt.Errorf("script event %d: invalid at %q: %w", i, ev.At, err)
		}
		if strings.TrimSpace(ev.Command) == "" {
			return nil, fmt.Errorf("script event %d: empty command", i)
		}
	}
	return file.Events, nil
}

// RunScript executes each event at its offset from the script start, in
// file order. It blocks until the last event ran or ctx ends.
func (e *Engine) RunScript(ctx context.Context, path string) error {
	events, err := LoadScript(path)
	if err != nil {
		return e.emitError(err, map[string]interface{}{"file": path})
	}
	e.emit(EventScriptStart, "script "+path, map[string]interface{}{"file": path, "events": len(events)})
	ctx = WithoutScripts(ctx)
	start := time.Now()
	for i, ev := range events {
		delay, _ := time.ParseDuration(ev.At)
		if wait := delay - time.Since(start); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return e.emitError(fmt.Errorf("script %s interrupted: %w", path, ctx.Err()), nil)
			case <-timer.C:
			}
		}
		e.emit(EventScriptStep, ev.Command, map[string]interface{}{"file": path, "index": i})
		// failures, including nested script commands, are already
		// reported as error events
		_, _ = e.ExecCommand(ctx, ev.Command)
	}
	e.emit(EventScriptDone, "script "+path+" done", map[string]interface{}{"file": path})
	return nil
}
