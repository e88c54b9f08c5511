package asm

import (
	"fmt"
	"strings"
	"testing"
)

// smallProgram is a countdown loop.
const smallProgram = `
    LD V0, 10
    LD V1, 1
loop:
    SUB V0, V1
    SE V0, 0
    JP loop
done:
    JP done
`

// mediumProgram draws the hex digits across the screen through a subroutine
// and beeps on a key press.
const mediumProgram = `
    JP main

draw_digit:
    LD F, V2
    DRW V0, V1, 5
    ADD V0, 5
    RET

wait_key:
    LD V3, K
    LD V4, 30
    LD ST, V4
    RET

main:
    CLS
    LD V0, 0
    LD V1, 2
    LD V2, 0
digits:
    CALL draw_digit
    ADD V2, 1
    SE V2, 12
    JP digits

    LD V1, 10
    LD V0, 0
    LD I, box
    DRW V0, V1, 8
    CALL wait_key

    LD I, scratch
    LD B, V3
    LD V2, [I]
    LD [I], V2

spin:
    LD V5, DT
    SE V5, 0
    JP spin
    LD V5, 20
    LD DT, V5
    RND V6, 0x3F
    SKP V6
    JP spin
    JP main

box:
    DB 0xFF, 0x81, 0x81, 0x81, 0x81, 0x81, 0x81, 0xFF
scratch:
    DB 0, 0, 0
`

// largeProgram repeats a block of arithmetic with unique labels.
var largeProgram = func() string {
	var sb strings.Builder
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&sb, `
block_%d:
    LD V0, %d
    LD V1, 3
    ADD V0, V1
    SUBN V1, V0
    SHL V1
    XOR V0, V1
    SNE V0, V1
    JP block_%d
`, i, i, i)
	}
	sb.WriteString("end:\n    JP end\n")
	return sb.String()
}()

func BenchmarkAssemble_Small(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _, err := Assemble(smallProgram)
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkAssemble_Medium(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _, err := Assemble(mediumProgram)
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkAssemble_Large(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _, err := Assemble(largeProgram)
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDisassemble(b *testing.B) {
	rom, _, err := Assemble(mediumProgram)
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Disassemble(rom)
	}
}
