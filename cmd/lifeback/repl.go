package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/suyash-sneo/lifeback/playground/session"
)

// boardCommands print the board after they succeed.
var boardCommands = map[string]bool{
	"step": true, "n": true, "back": true, "b": true, "toggle": true, "t": true,
	"clear": true, "random": true, "load": true, "rule": true, "edges": true,
}

func runREPL(ctx context.Context, eng *session.Engine) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "life> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
		AutoComplete:    completer(ctx, eng),
	})
	if err != nil {
		return fmt.Errorf("readline: %w", err)
	}
	defer rl.Close()
	go func() {
		<-ctx.Done()
		// unblocks Readline with io.EOF
		_ = rl.Close()
	}()

	out := rl.Stdout()
	fmt.Fprintln(out, "lifeback ready. Type 'help' for commands, 'show' to print the board, 'quit' to exit.")
	printBoard(out, eng)
	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return nil
			}
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if quit := replLine(ctx, eng, line, out); quit {
			return nil
		}
	}
}

// replLine handles one line and reports whether the user asked to quit.
func replLine(ctx context.Context, eng *session.Engine, line string, out io.Writer) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	cmd := strings.ToLower(strings.Fields(line)[0])
	switch cmd {
	case "quit", "exit", "q":
		return true
	case "show":
		printBoard(out, eng)
		return false
	}
	res, err := eng.ExecCommand(ctx, line)
	if err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
		return false
	}
	if res.Message != "" {
		fmt.Fprintln(out, res.Message)
	}
	if boardCommands[cmd] {
		printBoard(out, eng)
	}
	return false
}

func printBoard(out io.Writer, eng *session.Engine) {
	snap := eng.Snapshot()
	fmt.Fprintf(out, "gen %d  pop %d  undo %d/%d  %s %s\n",
		snap.Board.Generation, snap.Board.Population, snap.History.Depth, snap.History.Limit,
		snap.Board.Rule, snap.Board.Edges)
	for _, row := range snap.Board.Rows {
		fmt.Fprintln(out, row)
	}
}

func completer(ctx context.Context, eng *session.Engine) *readline.PrefixCompleter {
	patternNames := func(string) []string {
		list, err := eng.Patterns(ctx)
		if err != nil {
			return nil
		}
		names := make([]string, 0, len(list))
		for _, p := range list {
			names = append(names, p.Name)
		}
		return names
	}
	return readline.NewPrefixCompleter(
		readline.PcItem("help"),
		readline.PcItem("step"),
		readline.PcItem("back"),
		readline.PcItem("run"),
		readline.PcItem("stop"),
		readline.PcItem("toggle"),
		readline.PcItem("clear"),
		readline.PcItem("random"),
		readline.PcItem("load", readline.PcItemDynamic(patternNames)),
		readline.PcItem("save"),
		readline.PcItem("delete", readline.PcItemDynamic(patternNames)),
		readline.PcItem("patterns"),
		readline.PcItem("speed", readline.PcItem("faster"), readline.PcItem("slower")),
		readline.PcItem("rule"),
		readline.PcItem("edges", readline.PcItem("dead"), readline.PcItem("wrap")),
		readline.PcItem("script"),
		readline.PcItem("info"),
		readline.PcItem("show"),
		readline.PcItem("quit"),
	)
}
