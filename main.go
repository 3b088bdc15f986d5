package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"golang.org/x/term"

	"nativeDbg/config"
	"nativeDbg/gdbstub"
	"nativeDbg/native"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfgPath := flag.String("config", "", "config file (default ./"+config.DefaultFilename+" when present)")
	host := flag.String("host", "", "gdb stub host")
	port := flag.Int("port", 0, "gdb stub port")
	build := flag.String("build", "", "target build whose native table dump reads")
	script := flag.String("c", "", "run ';'-separated commands and exit")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		LogError("%v", err)
		return 1
	}
	if *host != "" {
		cfg.Target.Host = *host
	}
	if *port != 0 {
		cfg.Target.Port = *port
	}
	order, err := cfg.Order()
	if err != nil {
		LogError("%v", err)
		return 1
	}

	regs := cfg.Target.Registers
	stub, err := gdbstub.Connect(cfg.Target.Host, cfg.Target.Port,
		gdbstub.WithLogger(logger),
		gdbstub.WithByteOrder(order),
		gdbstub.WithRegisters(gdbstub.Registers{Size: regs.Size, PC: regs.PC, LR: regs.LR, Arg0: regs.Arg0}),
	)
	if err != nil {
		LogError("%v", err)
		return 1
	}
	defer stub.Close()

	inv := native.New(native.NewMemoryTarget(stub, order, stub),
		native.WithLayout(cfg.NativeLayout()),
		native.WithLogger(logger),
	)
	defer inv.Close()

	d, err := NewNativeDbg(stub, inv, cfg)
	if err != nil {
		LogError("%v", err)
		return 1
	}

	interactive := *script == "" && term.IsTerminal(int(os.Stdin.Fd()))
	if interactive {
		d.pick = promptBuild
	}
	switch {
	case *build != "":
		err = d.SetBuild(*build)
	case interactive && len(cfg.Builds) > 1:
		err = d.cmdBuild([]string{"build", "build", ""})
	}
	if err != nil {
		LogError("%v", err)
		return 1
	}

	if *script != "" {
		if err := d.RunCommands(*script); err != nil {
			LogError("%v", err)
			return 1
		}
		return 0
	}
	d.Interactive()
	return 0
}

func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	cfg, err := config.Load(config.DefaultFilename)
	if errors.Is(err, fs.ErrNotExist) {
		return config.Default()
	}
	return cfg, err
}
