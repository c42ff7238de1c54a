package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/suyash-sneo/lifeback"
	"github.com/suyash-sneo/lifeback/playground/session"
)

type cliArgs struct {
	configPath string
	ui         string
	listen     string
	open       bool
	redisAddr  string
	offline    bool
	logFile    string
	verbose    bool

	width       int
	height      int
	history     int
	interval    time.Duration
	rule        string
	edges       string
	pattern     string
	seed        int64
	density     float64
	stopOnCycle bool
	autoRun     bool
	script      string

	// set records which flags were given explicitly.
	set map[string]bool
}

func parseFlags(fs *flag.FlagSet, argv []string) (cliArgs, error) {
	var args cliArgs
	def := lifeback.DefaultConfig()

	fs.StringVar(&args.configPath, "config", "", "YAML or JSON config file")
	fs.StringVar(&args.ui, "ui", "", "tui, repl or http (default: tui on a terminal, repl otherwise)")
	fs.StringVar(&args.listen, "http", "", "also serve the HTTP API on this address")
	fs.BoolVar(&args.open, "open", false, "open the HTTP index in a browser")
	fs.StringVar(&args.redisAddr, "redis", "", "redis address for shared patterns (default: embedded)")
	fs.BoolVar(&args.offline, "offline", false, "built-in patterns only, no redis")
	fs.StringVar(&args.logFile, "log-file", "", "write logs here instead of stderr")
	fs.BoolVar(&args.verbose, "v", false, "verbose logging")

	fs.IntVar(&args.width, "width", def.Width, "board width")
	fs.IntVar(&args.height, "height", def.Height, "board height")
	fs.IntVar(&args.history, "history", def.HistoryCapacity, "history capacity (undo limit is one less)")
	fs.DurationVar(&args.interval, "interval", def.StepInterval, "run loop interval")
	fs.StringVar(&args.rule, "rule", def.Rule, "rule in B/S notation")
	fs.StringVar(&args.edges, "edges", def.Edges, "dead or wrap")
	fs.StringVar(&args.pattern, "pattern", "", "starting pattern instead of a random board")
	fs.Int64Var(&args.seed, "seed", def.Seed, "random seed")
	fs.Float64Var(&args.density, "density", def.Density, "random fill density")
	fs.BoolVar(&args.stopOnCycle, "stop-on-cycle", def.StopOnCycle, "stop the run loop when the board repeats")
	fs.BoolVar(&args.autoRun, "run", false, "start running immediately")
	fs.StringVar(&args.script, "script", "", "YAML/JSON script to run at startup")

	if err := fs.Parse(argv); err != nil {
		return cliArgs{}, err
	}
	args.set = map[string]bool{}
	fs.Visit(func(f *flag.Flag) { args.set[f.Name] = true })
	return args, nil
}

// config layers explicitly set flags over the config file (or defaults).
func (a cliArgs) config() (lifeback.Config, error) {
	cfg := lifeback.DefaultConfig()
	if a.configPath != "" {
		loaded, err := lifeback.LoadConfig(a.configPath)
		if err != nil {
			return lifeback.Config{}, err
		}
		cfg = loaded
	}
	if a.set["width"] {
		cfg.Width = a.width
	}
	if a.set["height"] {
		cfg.Height = a.height
	}
	if a.set["history"] {
		cfg.HistoryCapacity = a.history
	}
	if a.set["interval"] {
		cfg.StepInterval = a.interval
		if cfg.MinInterval > a.interval {
			cfg.MinInterval = a.interval
		}
	}
	if a.set["rule"] {
		cfg.Rule = a.rule
	}
	if a.set["edges"] {
		cfg.Edges = a.edges
	}
	if a.set["pattern"] {
		cfg.Pattern = a.pattern
	}
	if a.set["seed"] {
		cfg.Seed = a.seed
	}
	if a.set["density"] {
		cfg.Density = a.density
	}
	if a.set["stop-on-cycle"] {
		cfg.StopOnCycle = a.stopOnCycle
	}
	if a.set["run"] {
		cfg.AutoRun = a.autoRun
	}
	if a.set["script"] {
		cfg.Script = a.script
	}
	if err := cfg.Validate(); err != nil {
		return lifeback.Config{}, fmt.Errorf("flags: %w", err)
	}
	return cfg, nil
}

func (a cliArgs) mode() session.Mode {
	switch {
	case a.offline:
		return session.ModeOffline
	case a.redisAddr != "":
		return session.ModeReal
	default:
		return session.ModeSimulated
	}
}
