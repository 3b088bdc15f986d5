package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"golang.org/x/sys/unix"
)

func isQuit(req string) bool {
	switch strings.TrimSpace(req) {
	case "q", "quit", "exit":
		return true
	}
	return false
}

func (d *NativeDbg) prompt() string {
	return fmt.Sprintf("[%snativeDbg%s:%s%s%s %s%d%s]$ ",
		ColorCyan, ColorReset,
		ColorYellow, d.build, ColorReset,
		ColorCyan, d.inv.Len(), ColorReset)
}

// RunCommands executes ';'-separated commands and stops at the first error.
func (d *NativeDbg) RunCommands(script string) error {
	for _, req := range strings.Split(script, ";") {
		req = strings.TrimSpace(req)
		if req == "" {
			continue
		}
		if isQuit(req) {
			return nil
		}
		if err := d.cmdExec(req); err != nil {
			return fmt.Errorf("%s: %w", req, err)
		}
	}
	return nil
}

func (d *NativeDbg) Interactive() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, unix.SIGINT)
	defer signal.Stop(sigChan)

	go func() {
		for range sigChan {
			Printf("\n^C - interrupting target...\n")
			if err := d.dbg.Interrupt(); err != nil {
				LogError("Failed to interrupt target: %v", err)
			}
		}
	}()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            d.prompt(),
		HistoryFile:       filepath.Join(os.TempDir(), "nativedbg_history.txt"),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
		FuncFilterInputRune: func(r rune) (rune, bool) {
			switch r {
			case readline.CharCtrlZ:
				return r, false
			}
			return r, true
		},
	})
	if err != nil {
		LogError("readline: %v", err)
		return
	}
	defer rl.Close()

	Printf("Type %s for commands. Run %s before calling natives.\n", "help", "dump")

	prev := ""
	for {
		rl.SetPrompt(d.prompt())

		req, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if errors.Is(err, io.EOF) {
				break
			}
			continue
		}

		if req == "" {
			if prev == "" {
				continue
			}
			req = prev
		}
		if isQuit(req) {
			break
		}
		prev = req

		if err := d.cmdExec(req); err != nil {
			LogError("%v", err)
		}
	}
}
