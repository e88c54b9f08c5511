package main

import (
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gochip8/pkg/asm"
	"gochip8/pkg/cpu"
	"gochip8/pkg/video"
)

const digitsProgram = `
        LD V0, 0        ; x
        LD V1, 4        ; y
        LD V2, 0        ; digit
draw:   LD F, V2
        DRW V0, V1, 5
        ADD V0, 5
        ADD V2, 1
        SE V2, 4
        JP draw
        LD V3, 30
        LD ST, V3
done:   JP done
`

func assembleTo(t *testing.T, dir, source string) string {
	t.Helper()
	code, _, err := asm.Assemble(source)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	path := filepath.Join(dir, "prog.ch8")
	if err := writeBinary(path, code); err != nil {
		t.Fatalf("writeBinary failed: %v", err)
	}
	return path
}

func TestAssembleAndRunHeadless(t *testing.T) {
	dir := t.TempDir()
	romPath := assembleTo(t, dir, digitsProgram)
	shot := filepath.Join(dir, "final.png")

	res, err := runBinary(romPath, runOptions{
		duration:   time.Second,
		hz:         500,
		keyWait:    cpu.KeyWaitLast,
		screenshot: shot,
		scale:      2,
	})
	if err != nil {
		t.Fatalf("runBinary failed: %v", err)
	}
	if res.err != nil {
		t.Fatalf("machine stopped: %v", res.err)
	}

	if got := res.machine.Stats().Ticks; got != 500 {
		t.Errorf("ticks = %d; want 500", got)
	}
	// Glyphs 0-3 light 14, 8, 14 and 14 cells.
	if got := res.recorder.Last.Lit(); got != 50 {
		t.Errorf("lit cells = %d; want 50\n%s", got, res.recorder.Last.String())
	}
	if got := res.recorder.Tones; len(got) != 2 || !got[0] || got[1] {
		t.Errorf("tone changes = %v; want [true false]", got)
	}

	f, err := os.Open(shot)
	if err != nil {
		t.Fatalf("screenshot missing: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("screenshot is not a PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != video.Width*2 || b.Dy() != video.Height*2 {
		t.Errorf("screenshot is %dx%d; want %dx%d", b.Dx(), b.Dy(), video.Width*2, video.Height*2)
	}

	out := summary(romPath, res)
	for _, want := range []string{"ticks=500", "V0=14", "V2=04"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestRunBinaryReportsFatalError(t *testing.T) {
	romPath := assembleTo(t, t.TempDir(), "RET")

	res, err := runBinary(romPath, runOptions{duration: time.Second, hz: 500})
	if err != nil {
		t.Fatalf("runBinary failed: %v", err)
	}
	var fault *cpu.StackFault
	if !errors.As(res.err, &fault) {
		t.Fatalf("expected StackFault, got %v", res.err)
	}
	if !strings.Contains(summary(romPath, res), "error=") {
		t.Errorf("summary does not report the error")
	}
}

func TestRunBinarySkipsUnknownOpcodes(t *testing.T) {
	romPath := assembleTo(t, t.TempDir(), "DB 0xFF, 0xFF\nLD V1, 7\nend: JP end")

	res, err := runBinary(romPath, runOptions{duration: 100 * time.Millisecond, hz: 500})
	if err != nil {
		t.Fatalf("runBinary failed: %v", err)
	}
	if res.err != nil {
		t.Fatalf("machine stopped: %v", res.err)
	}
	if got := res.machine.Stats().Recovered; got != 1 {
		t.Errorf("recovered = %d; want 1", got)
	}
	if got := res.machine.CPU.V[1]; got != 7 {
		t.Errorf("V1 = %d; want 7", got)
	}
}

func TestRunBinaryMissingROM(t *testing.T) {
	_, err := runBinary(filepath.Join(t.TempDir(), "nope.ch8"), runOptions{duration: time.Second, hz: 500})
	if err == nil {
		t.Fatal("expected an error for a missing ROM")
	}
}

func TestDefaultOutputPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"pong.asm", "pong.ch8"},
		{"dir/maze.s", "dir/maze.ch8"},
		{"noext", "noext.ch8"},
	}
	for _, tc := range tests {
		if got := defaultOutputPath(tc.in); got != tc.want {
			t.Errorf("defaultOutputPath(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}
