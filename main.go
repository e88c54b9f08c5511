//go:build !js

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gochip8/pkg/asm"
	"gochip8/pkg/cpu"
	"gochip8/pkg/machine"
	"gochip8/pkg/peripherals"
	"gochip8/pkg/video"
)

// runOptions configures a headless run.
type runOptions struct {
	duration   time.Duration
	hz         int
	keyWait    cpu.KeyWaitPolicy
	screenshot string
	scale      int
	logger     *slog.Logger
}

// runResult is the state at the end of a headless run.
type runResult struct {
	machine  *machine.Machine
	recorder *peripherals.Recorder
	err      error
}

func main() {
	inPath := flag.String("in", "", "input assembly file path")
	outPath := flag.String("out", "", "output ROM path (default: input with .ch8 extension)")
	runProgram := flag.Bool("run", false, "run the assembled ROM headlessly")
	runBinPath := flag.String("run-bin", "", "run an existing ROM headlessly")
	disasmPath := flag.String("disasm", "", "print the disassembly of a ROM")
	duration := flag.Duration("duration", 2*time.Second, "emulated time to run for")
	hz := flag.Int("hz", 500, "instructions per second")
	keyWait := flag.String("keywait", "last", "key stored by LD Vx, K when several are held: last or first")
	screenshot := flag.String("screenshot", "", "write the final frame to this PNG file")
	scale := flag.Int("scale", 8, "screenshot pixels per framebuffer cell")
	printScreen := flag.Bool("print", false, "print the final frame as text")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	if *runProgram && *runBinPath != "" {
		fmt.Fprintln(os.Stderr, "use either -run or -run-bin, not both")
		os.Exit(2)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if *disasmPath != "" {
		rom, err := readBinary(*disasmPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read ROM %q: %v\n", *disasmPath, err)
			os.Exit(1)
		}
		fmt.Print(asm.Disassemble(rom))
		return
	}

	assembledOutput := ""
	if *inPath != "" {
		source, err := os.ReadFile(*inPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read input file %q: %v\n", *inPath, err)
			os.Exit(1)
		}

		code, _, err := asm.Assemble(string(source))
		if err != nil {
			fmt.Fprintf(os.Stderr, "assembly failed: %v\n", err)
			os.Exit(1)
		}

		output := *outPath
		if output == "" {
			output = defaultOutputPath(*inPath)
		}

		if err := writeBinary(output, code); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write ROM %q: %v\n", output, err)
			os.Exit(1)
		}

		fmt.Printf("assembled %d bytes -> %s\n", len(code), output)
		assembledOutput = output
	}

	if *inPath == "" && *runBinPath == "" && !*runProgram {
		fmt.Fprintln(os.Stderr, "nothing to do: provide -in to assemble, -run to run assembled output, -run-bin <file> to run an existing ROM, or -disasm <file>")
		flag.Usage()
		os.Exit(2)
	}

	runTarget := ""
	switch {
	case *runBinPath != "":
		runTarget = *runBinPath
	case *runProgram:
		if assembledOutput == "" {
			fmt.Fprintln(os.Stderr, "-run requires -in, or use -run-bin <file>")
			os.Exit(2)
		}
		runTarget = assembledOutput
	default:
		return
	}

	policy, err := machine.ParseKeyWait(*keyWait)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	res, err := runBinary(runTarget, runOptions{
		duration:   *duration,
		hz:         *hz,
		keyWait:    policy,
		screenshot: *screenshot,
		scale:      *scale,
		logger:     logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "run failed for %q: %v\n", runTarget, err)
		os.Exit(1)
	}

	fmt.Println(summary(runTarget, res))
	if *printScreen {
		fmt.Print(res.recorder.Last.String())
	}
	if res.err != nil {
		os.Exit(1)
	}
}

func defaultOutputPath(inPath string) string {
	ext := filepath.Ext(inPath)
	if ext == "" {
		return inPath + ".ch8"
	}
	return strings.TrimSuffix(inPath, ext) + ".ch8"
}

func writeBinary(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}

func readBinary(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// runBinary loads a ROM and runs it on a virtual clock for opts.duration of
// emulated time. A fatal machine error ends the run early and is reported in
// the result; only setup failures are returned as errors.
func runBinary(path string, opts runOptions) (runResult, error) {
	c := cpu.NewCPU()
	if _, err := c.LoadROMFile(path); err != nil {
		return runResult{}, err
	}

	cfg := machine.DefaultConfig()
	cfg.InstructionHz = opts.hz
	cfg.KeyWait = opts.keyWait

	logger := opts.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	recorder := peripherals.NewRecorder()
	ticks := int(opts.duration * time.Duration(opts.hz) / time.Second)
	input := peripherals.NewScriptedInput().QuitAfter(max(ticks, 1))

	m, err := machine.New(c,
		machine.WithConfig(cfg),
		machine.WithLogger(logger),
		machine.WithClock(machine.NewVirtualClock(time.Unix(0, 0))),
		machine.WithDisplay(recorder),
		machine.WithBeeper(recorder),
		machine.WithInput(input),
	)
	if err != nil {
		return runResult{}, err
	}

	res := runResult{machine: m, recorder: recorder}
	if err := m.Run(context.Background()); !errors.Is(err, cpu.ErrQuit) {
		logger.Error("machine stopped", slog.Any("error", err))
		res.err = err
	}

	if opts.screenshot != "" {
		if err := recorder.Last.SaveScreenshot(opts.screenshot, video.DefaultPalette, opts.scale); err != nil {
			return res, fmt.Errorf("write screenshot: %w", err)
		}
	}
	return res, nil
}

func summary(path string, res runResult) string {
	c := res.machine.CPU
	stats := res.machine.Stats()
	var sb strings.Builder
	fmt.Fprintf(&sb, "run complete (%s): ticks=%d skipped=%d frames=%d PC=0x%03X I=0x%03X SP=%d DT=%d ST=%d",
		path, stats.Ticks, stats.Recovered, stats.Frames, c.PC, c.I, c.Stack.Len(), c.Timers.Delay, c.Timers.Sound)
	if res.err != nil {
		fmt.Fprintf(&sb, " error=%q", res.err)
	}
	sb.WriteString("\n")
	for i, v := range c.V {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "V%X=%02X", i, v)
	}
	return sb.String()
}
