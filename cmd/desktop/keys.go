package main

import (
	"github.com/hajimehoshi/ebiten/v2"

	"gochip8/pkg/cpu"
)

// hostKeys maps keyboard keys onto the keypad: digits 0-9 and letters A-F.
var hostKeys = map[ebiten.Key]cpu.Key{
	ebiten.KeyDigit0: cpu.Key0,
	ebiten.KeyDigit1: cpu.Key1,
	ebiten.KeyDigit2: cpu.Key2,
	ebiten.KeyDigit3: cpu.Key3,
	ebiten.KeyDigit4: cpu.Key4,
	ebiten.KeyDigit5: cpu.Key5,
	ebiten.KeyDigit6: cpu.Key6,
	ebiten.KeyDigit7: cpu.Key7,
	ebiten.KeyDigit8: cpu.Key8,
	ebiten.KeyDigit9: cpu.Key9,
	ebiten.KeyA:      cpu.KeyA,
	ebiten.KeyB:      cpu.KeyB,
	ebiten.KeyC:      cpu.KeyC,
	ebiten.KeyD:      cpu.KeyD,
	ebiten.KeyE:      cpu.KeyE,
	ebiten.KeyF:      cpu.KeyF,
}
