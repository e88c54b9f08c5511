package asm

import (
	"fmt"
	"strings"

	"gochip8/pkg/cpu"
)

// Disassemble renders a ROM image as assembler source, one opcode word per
// line with its address as a comment. Words that do not decode, and a
// trailing odd byte, are emitted as DB so the output reassembles to the same
// bytes.
func Disassemble(program []byte) string {
	var sb strings.Builder
	addr := uint16(cpu.ProgramStart)

	for i := 0; i < len(program); i += 2 {
		if i+1 >= len(program) {
			fmt.Fprintf(&sb, "DB 0x%02X ; 0x%03X\n", program[i], addr)
			break
		}
		word := uint16(program[i])<<8 | uint16(program[i+1])
		in, err := cpu.Decode(word)
		if err != nil {
			fmt.Fprintf(&sb, "DB 0x%02X, 0x%02X ; 0x%03X\n", program[i], program[i+1], addr)
		} else {
			fmt.Fprintf(&sb, "%s ; 0x%03X\n", in, addr)
		}
		addr += instructionSize
	}

	return sb.String()
}
