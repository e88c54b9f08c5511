package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"gochip8/pkg/cpu"
	"gochip8/pkg/machine"
	"gochip8/pkg/peripherals"
	"gochip8/pkg/utils"
)

func main() {
	hz := flag.Int("hz", 500, "instructions per second")
	keyWait := flag.String("keywait", "last", "key stored by LD Vx, K when several are held: last or first")
	audio := flag.Bool("audio", false, "play the tone through the sound card instead of the terminal bell")
	logPath := flag.String("log", "", "write logs to this file; the terminal is busy drawing")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <rom>\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	logger := slog.New(slog.DiscardHandler)
	if *logPath != "" {
		f, err := os.Create(*logPath)
		if err != nil {
			log.Fatalf("Failed to open log file: %v", err)
		}
		defer f.Close()
		level := slog.LevelInfo
		if *verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	}

	fullPath, _, err := utils.GetPathInfo(flag.Arg(0))
	if err != nil {
		log.Fatalf("Failed to resolve ROM path: %v", err)
	}

	c := cpu.NewCPU()
	if _, err := c.LoadROMFile(fullPath); err != nil {
		log.Fatalf("Failed to load ROM: %v", err)
	}

	cfg := machine.DefaultConfig()
	cfg.InstructionHz = *hz
	if cfg.KeyWait, err = machine.ParseKeyWait(*keyWait); err != nil {
		log.Fatalf("Invalid -keywait: %v", err)
	}

	terminal := peripherals.NewTerminal(os.Stdin, os.Stdout)
	opts := []machine.Option{
		machine.WithConfig(cfg),
		machine.WithLogger(logger),
		machine.WithDisplay(terminal),
		machine.WithInput(terminal),
		machine.WithBeeper(terminal),
	}
	if *audio {
		beeper, err := peripherals.NewBeeper()
		if err != nil {
			log.Fatalf("Audio unavailable: %v", err)
		}
		defer beeper.Close()
		opts = append(opts, machine.WithBeeper(beeper))
	}

	m, err := machine.New(c, opts...)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err := terminal.Start(); err != nil {
		log.Fatalf("Failed to start terminal: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err = m.Run(ctx)
	stop()
	terminal.Stop()

	stats := m.Stats()
	fmt.Printf("stopped after %d ticks (%d skipped)\n", stats.Ticks, stats.Recovered)
	if err != nil && !errors.Is(err, cpu.ErrQuit) && !errors.Is(err, context.Canceled) {
		logger.Error("machine stopped", slog.Any("error", err))
		fmt.Fprintf(os.Stderr, "machine stopped: %v\n", err)
		os.Exit(1)
	}
}
