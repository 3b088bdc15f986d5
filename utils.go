package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorPurple = "\033[35m"
	ColorCyan   = "\033[36m"
	ColorWhite  = "\033[37m"
	ColorBold   = "\033[1m"
)

// out receives all command output.
var out io.Writer = os.Stdout

func LogError(msg string, a ...interface{}) {
	fmt.Fprintf(out, "%s[ERROR]%s %s\n", ColorRed, ColorReset, fmt.Sprintf(msg, a...))
}

func Printf(msg string, a ...interface{}) {
	msg = strings.ReplaceAll(msg, "%d", "\033[36m%d\033[0m")
	msg = strings.ReplaceAll(msg, "%08x", "\033[36m%08x\033[0m")
	msg = strings.ReplaceAll(msg, "%x", "\033[36m%x\033[0m")
	msg = strings.ReplaceAll(msg, "%s", "\033[32m%s\033[0m")

	fmt.Fprintf(out, msg, a...)
}

func termWidth() int {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		w, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err == nil && w > 0 {
			return w
		}
	}
	return 80
}

func hLine(msg string) {
	side := (termWidth() - len(msg) - 2) / 2
	if side < 0 {
		side = 0
	}
	fmt.Fprintln(out, strings.Repeat("-", side)+"["+msg+"]"+strings.Repeat("-", side))
}

func hLineRaw() {
	fmt.Fprintln(out, strings.Repeat("-", termWidth()))
}
