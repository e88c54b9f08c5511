package main

import (
	"log/slog"
	"testing"
	"time"

	"gochip8/pkg/cpu"
	"gochip8/pkg/machine"
	"gochip8/pkg/video"
)

func TestHostKeysCoverKeypad(t *testing.T) {
	seen := make(map[cpu.Key]bool)
	for _, k := range hostKeys {
		if seen[k] {
			t.Errorf("keypad key %X mapped twice", k)
		}
		seen[k] = true
	}
	if len(seen) != cpu.KeyCount {
		t.Errorf("mapped %d keypad keys; want %d", len(seen), cpu.KeyCount)
	}
}

func TestGameLayoutScales(t *testing.T) {
	g := &Game{scale: 8}
	w, h := g.Layout(1000, 1000)
	if w != video.Width*8 || h != video.Height*8 {
		t.Errorf("Layout = %dx%d; want %dx%d", w, h, video.Width*8, video.Height*8)
	}
}

func TestGameIsMachineDisplay(t *testing.T) {
	g := &Game{scale: 1, palette: video.DefaultPalette}
	m, err := machine.New(cpu.NewCPU(), machine.WithDisplay(g))
	if err != nil {
		t.Fatal(err)
	}
	// LD I, 0; DRW V0, V0, 5.
	if _, err := m.Reload([]byte{0xA0, 0x00, 0xD0, 0x05}); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if err := m.Tick(time.Now()); err != nil {
			t.Fatal(err)
		}
	}
	if got := g.frame.Lit(); got != 14 {
		t.Errorf("presented frame has %d lit cells; want 14", got)
	}
}

func TestQuickSaveSlot(t *testing.T) {
	m, err := machine.New(cpu.NewCPU())
	if err != nil {
		t.Fatal(err)
	}
	g := &Game{m: m, logger: slog.New(slog.DiscardHandler)}

	g.loadState()
	m.CPU.V[2] = 5
	g.saveState()
	m.CPU.V[2] = 9
	g.loadState()
	if got := m.CPU.V[2]; got != 5 {
		t.Errorf("V2 after load = %d; want 5", got)
	}
}
