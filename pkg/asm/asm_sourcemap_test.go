package asm

import (
	"testing"
)

func TestAssembleSourceMap(t *testing.T) {
	code := `
; Line 2: comment
LD V0, 10       ; Line 3: 0x200
                ; Line 4: empty
LABEL:          ; Line 5: label only
ADD V0, V1      ; Line 6: 0x202
.ORG 0x210      ; Line 7: padding to 0x210
CLS             ; Line 8: 0x210
DB 1, 2, 3      ; Line 9: 0x212
JP LABEL        ; Line 10: 0x215
`
	rom, sourceMap, err := Assemble(code)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	tests := []struct {
		addr uint16
		line int
	}{
		{0x200, 3},
		{0x202, 6},
		{0x210, 8},
		{0x212, 9},
		{0x215, 10},
	}

	for _, tc := range tests {
		if got := sourceMap[tc.addr]; got != tc.line {
			t.Errorf("sourceMap[0x%03X] = %d; want %d", tc.addr, got, tc.line)
		}
	}

	if len(rom) != 0x17 {
		t.Errorf("len(rom) = %d; want %d", len(rom), 0x17)
	}
	if rom[0x15] != 0x12 || rom[0x16] != 0x02 {
		t.Errorf("JP LABEL = %02X%02X; want 1202", rom[0x15], rom[0x16])
	}
}

func TestAssemblerReuse(t *testing.T) {
	a := NewAssembler()
	code := "START:\nJP START\n"
	for i := 0; i < 2; i++ {
		rom, _, err := a.Assemble(code)
		if err != nil {
			t.Fatalf("pass %d: %v", i, err)
		}
		if len(rom) != 2 || rom[0] != 0x12 || rom[1] != 0x00 {
			t.Errorf("pass %d: rom = % X; want 12 00", i, rom)
		}
	}

	// A label defined only by the first source is not visible to the second.
	if _, _, err := a.Assemble("JP START\n"); err == nil {
		t.Error("expected undefined label error")
	}
}
