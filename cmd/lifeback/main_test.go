package main

import (
	"bytes"
	"context"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/suyash-sneo/lifeback"
	"github.com/suyash-sneo/lifeback/playground/session"
)

func TestFlagsOverrideConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "life.yaml")
	body := "width: 20\nheight: 10\nhistoryCapacity: 7\nrule: B36/S23\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	args := mustParse(t, "-config", path, "-height", "12", "-interval", "5ms")
	cfg, err := args.config()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if cfg.Width != 20 || cfg.Height != 12 || cfg.HistoryCapacity != 7 || cfg.Rule != "B36/S23" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.StepInterval != 5*time.Millisecond || cfg.MinInterval != 5*time.Millisecond {
		t.Fatalf("interval flag should also lower the minimum: %v / %v", cfg.StepInterval, cfg.MinInterval)
	}
}

func TestUnsetFlagsKeepDefaults(t *testing.T) {
	cfg, err := mustParse(t).config()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if cfg != lifeback.DefaultConfig() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
	if _, err := mustParse(t, "-history", "0").config(); err == nil {
		t.Fatalf("expected validation error for zero history")
	}
}

func TestModeSelection(t *testing.T) {
	if m := mustParse(t).mode(); m != session.ModeSimulated {
		t.Fatalf("expected simulated, got %s", m)
	}
	if m := mustParse(t, "-redis", "10.0.0.1:6379").mode(); m != session.ModeReal {
		t.Fatalf("expected real, got %s", m)
	}
	if m := mustParse(t, "-offline", "-redis", "x:1").mode(); m != session.ModeOffline {
		t.Fatalf("offline should win, got %s", m)
	}
}

func TestREPLLine(t *testing.T) {
	cfg := lifeback.DefaultConfig()
	cfg.Width, cfg.Height = 6, 4
	cfg.Density = 0
	eng, err := session.NewEngine(session.Options{Config: cfg, Mode: session.ModeOffline, SessionIDs: lifeback.StaticSessionID("repl")})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	t.Cleanup(func() { _ = eng.Close() })
	ctx := context.Background()

	var out bytes.Buffer
	if replLine(ctx, eng, "toggle 1 1", &out) {
		t.Fatalf("toggle should not quit")
	}
	if !strings.Contains(out.String(), "pop 1") {
		t.Fatalf("expected board after toggle:\n%s", out.String())
	}
	out.Reset()
	replLine(ctx, eng, "toggle 9 9", &out)
	if !strings.HasPrefix(out.String(), "error: ") {
		t.Fatalf("expected error line, got %q", out.String())
	}
	if !replLine(ctx, eng, "quit", io.Discard) {
		t.Fatalf("quit should end the repl")
	}
}

func TestStdLoggerVerbosity(t *testing.T) {
	var buf bytes.Buffer
	l := newStdLogger(&buf, false)
	l.Debug("hidden")
	l.Warn("careful", lifeback.Field{Key: "k", Value: 1})
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "WARN: careful k=1") {
		t.Fatalf("unexpected log output %q", buf.String())
	}
}

func mustParse(t *testing.T, argv ...string) cliArgs {
	t.Helper()
	fs := flag.NewFlagSet("lifeback", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	args, err := parseFlags(fs, argv)
	if err != nil {
		t.Fatalf("parse %v: %v", argv, err)
	}
	return args
}
