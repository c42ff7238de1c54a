package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"

	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/suyash-sneo/lifeback"
	"github.com/suyash-sneo/lifeback/playground/server"
	"github.com/suyash-sneo/lifeback/playground/session"
	"github.com/suyash-sneo/lifeback/playground/ui/tui"
)

func main() {
	args, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	if err := run(args); err != nil {
		fmt.Fprintf(os.Stderr, "lifeback: %v\n", err)
		os.Exit(1)
	}
}

func run(args cliArgs) error {
	cfg, err := args.config()
	if err != nil {
		return err
	}
	ui := args.ui
	if ui == "" {
		ui = "repl"
		if term.IsTerminal(int(os.Stdout.Fd())) {
			ui = "tui"
		}
	}
	listen := args.listen
	switch ui {
	case "tui", "repl":
	case "http":
		if listen == "" {
			listen = "127.0.0.1:8080"
		}
	default:
		return fmt.Errorf("unknown ui %q (tui, repl or http)", ui)
	}

	logOut, closeLog, err := logWriter(args.logFile, ui)
	if err != nil {
		return err
	}
	defer closeLog()
	logger := newStdLogger(logOut, args.verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng, err := session.NewEngine(session.Options{
		Config:    cfg,
		Mode:      args.mode(),
		RedisAddr: args.redisAddr,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("engine init: %w", err)
	}
	if err := eng.Start(ctx); err != nil {
		return fmt.Errorf("engine start: %w", err)
	}
	defer eng.Close()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)
	if listen != "" {
		srv := server.New(eng)
		logger.Info("http api listening", lifeback.Field{Key: "addr", Value: listen})
		url := "http://" + listen
		if ui != "tui" {
			fmt.Printf("lifeback api on %s\n", url)
		}
		if args.open {
			go openBrowser(url)
		}
		g.Go(func() error { return srv.Start(gctx, listen) })
	}
	switch ui {
	case "tui":
		g.Go(func() error {
			defer cancel()
			return tui.Run(gctx, eng)
		})
	case "repl":
		g.Go(func() error {
			defer cancel()
			return runREPL(gctx, eng)
		})
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// logWriter keeps logs off the terminal while the TUI owns it.
func logWriter(path, ui string) (io.Writer, func(), error) {
	if path == "" {
		if ui == "tui" {
			return io.Discard, func() {}, nil
		}
		return os.Stderr, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url) //nolint:gosec
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url) //nolint:gosec
	default:
		cmd = exec.Command("xdg-open", url) //nolint:gosec
	}
	_ = cmd.Start()
}
