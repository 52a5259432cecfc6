package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"github.com/jdyer28/LSPI/pkg/engine"
)

// RunInteractive reads requests line by line until exit, quit or EOF.
// A line prefixed with "explain" prints the plan instead of running it.
func RunInteractive(ctx context.Context) error {
	e, closeDB, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	fmt.Println("Interactive mode enabled. Type 'exit' or 'quit' to leave.")
	fmt.Printf("Connected to %s\n", cfg.Driver)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "lspi> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if len(line) == 0 {
				break
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.EqualFold(trimmed, "exit") || strings.EqualFold(trimmed, "quit") {
			break
		}

		if err := executeInteractive(ctx, e, trimmed); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
	return nil
}

func executeInteractive(ctx context.Context, e *engine.Engine, line string) error {
	explain := false
	if head, rest, ok := strings.Cut(line, " "); ok && strings.EqualFold(head, "explain") {
		explain = true
		line = strings.TrimSpace(rest)
	}

	req, err := buildRequest([]string{line}, "", windowFlags{})
	if err != nil {
		return err
	}
	if explain {
		return explainRequest(ctx, os.Stdout, e, req)
	}
	rs, err := e.Aggregate(ctx, req)
	if err != nil {
		return err
	}
	return writeRows(os.Stdout, rs)
}
