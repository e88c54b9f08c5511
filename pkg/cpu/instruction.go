package cpu

import "fmt"

// Op identifies one of the 35 instruction variants.
type Op uint8

const (
	OpInvalid              Op = iota
	OpClearScreen             // 00E0 CLS
	OpReturn                  // 00EE RET
	OpSys                     // 0nnn SYS addr
	OpJump                    // 1nnn JP addr
	OpCall                    // 2nnn CALL addr
	OpSkipEqualByte           // 3xkk SE Vx, byte
	OpSkipNotEqualByte        // 4xkk SNE Vx, byte
	OpSkipEqualRegister       // 5xy0 SE Vx, Vy
	OpLoadByte                // 6xkk LD Vx, byte
	OpAddByte                 // 7xkk ADD Vx, byte
	OpLoadRegister            // 8xy0 LD Vx, Vy
	OpOr                      // 8xy1 OR Vx, Vy
	OpAnd                     // 8xy2 AND Vx, Vy
	OpXor                     // 8xy3 XOR Vx, Vy
	OpAddRegister             // 8xy4 ADD Vx, Vy
	OpSub                     // 8xy5 SUB Vx, Vy
	OpShiftRight              // 8xy6 SHR Vx
	OpSubN                    // 8xy7 SUBN Vx, Vy
	OpShiftLeft               // 8xyE SHL Vx
	OpSkipNotEqualRegister    // 9xy0 SNE Vx, Vy
	OpLoadIndex               // Annn LD I, addr
	OpJumpV0                  // Bnnn JP V0, addr
	OpRandom                  // Cxkk RND Vx, byte
	OpDraw                    // Dxyn DRW Vx, Vy, nibble
	OpSkipKeyPressed          // Ex9E SKP Vx
	OpSkipKeyNotPressed       // ExA1 SKNP Vx
	OpLoadDelay               // Fx07 LD Vx, DT
	OpWaitKey                 // Fx0A LD Vx, K
	OpSetDelay                // Fx15 LD DT, Vx
	OpSetSound                // Fx18 LD ST, Vx
	OpAddIndex                // Fx1E ADD I, Vx
	OpLoadFont                // Fx29 LD F, Vx
	OpStoreBCD                // Fx33 LD B, Vx
	OpStoreRegisters          // Fx55 LD [I], Vx
	OpLoadRegisters           // Fx65 LD Vx, [I]
)

// Instruction is a decoded opcode. Only the operand fields used by Op are
// meaningful; the rest are the raw nibbles of the opcode.
type Instruction struct {
	Op   Op
	X    uint8  // second nibble, first register operand
	Y    uint8  // third nibble, second register operand
	N    uint8  // low nibble, sprite height
	Byte uint8  // low byte, immediate
	Addr uint16 // low 12 bits, address
}

// Encode returns the opcode word that decodes to in.
func (in Instruction) Encode() uint16 {
	x := uint16(in.X&0xF) << 8
	y := uint16(in.Y&0xF) << 4
	xy := x | y
	addr := in.Addr & 0x0FFF
	kk := uint16(in.Byte)

	switch in.Op {
	case OpClearScreen:
		return 0x00E0
	case OpReturn:
		return 0x00EE
	case OpSys:
		return addr
	case OpJump:
		return 0x1000 | addr
	case OpCall:
		return 0x2000 | addr
	case OpSkipEqualByte:
		return 0x3000 | x | kk
	case OpSkipNotEqualByte:
		return 0x4000 | x | kk
	case OpSkipEqualRegister:
		return 0x5000 | xy
	case OpLoadByte:
		return 0x6000 | x | kk
	case OpAddByte:
		return 0x7000 | x | kk
	case OpLoadRegister:
		return 0x8000 | xy
	case OpOr:
		return 0x8001 | xy
	case OpAnd:
		return 0x8002 | xy
	case OpXor:
		return 0x8003 | xy
	case OpAddRegister:
		return 0x8004 | xy
	case OpSub:
		return 0x8005 | xy
	case OpShiftRight:
		return 0x8006 | xy
	case OpSubN:
		return 0x8007 | xy
	case OpShiftLeft:
		return 0x800E | xy
	case OpSkipNotEqualRegister:
		return 0x9000 | xy
	case OpLoadIndex:
		return 0xA000 | addr
	case OpJumpV0:
		return 0xB000 | addr
	case OpRandom:
		return 0xC000 | x | kk
	case OpDraw:
		return 0xD000 | xy | uint16(in.N&0xF)
	case OpSkipKeyPressed:
		return 0xE09E | x
	case OpSkipKeyNotPressed:
		return 0xE0A1 | x
	case OpLoadDelay:
		return 0xF007 | x
	case OpWaitKey:
		return 0xF00A | x
	case OpSetDelay:
		return 0xF015 | x
	case OpSetSound:
		return 0xF018 | x
	case OpAddIndex:
		return 0xF01E | x
	case OpLoadFont:
		return 0xF029 | x
	case OpStoreBCD:
		return 0xF033 | x
	case OpStoreRegisters:
		return 0xF055 | x
	case OpLoadRegisters:
		return 0xF065 | x
	}
	return 0
}

// String renders the instruction in assembler syntax, e.g. "LD V3, 0xFF".
func (in Instruction) String() string {
	switch in.Op {
	case OpClearScreen:
		return "CLS"
	case OpReturn:
		return "RET"
	case OpSys:
		return fmt.Sprintf("SYS 0x%03X", in.Addr)
	case OpJump:
		return fmt.Sprintf("JP 0x%03X", in.Addr)
	case OpCall:
		return fmt.Sprintf("CALL 0x%03X", in.Addr)
	case OpSkipEqualByte:
		return fmt.Sprintf("SE V%X, 0x%02X", in.X, in.Byte)
	case OpSkipNotEqualByte:
		return fmt.Sprintf("SNE V%X, 0x%02X", in.X, in.Byte)
	case OpSkipEqualRegister:
		return fmt.Sprintf("SE V%X, V%X", in.X, in.Y)
	case OpLoadByte:
		return fmt.Sprintf("LD V%X, 0x%02X", in.X, in.Byte)
	case OpAddByte:
		return fmt.Sprintf("ADD V%X, 0x%02X", in.X, in.Byte)
	case OpLoadRegister:
		return fmt.Sprintf("LD V%X, V%X", in.X, in.Y)
	case OpOr:
		return fmt.Sprintf("OR V%X, V%X", in.X, in.Y)
	case OpAnd:
		return fmt.Sprintf("AND V%X, V%X", in.X, in.Y)
	case OpXor:
		return fmt.Sprintf("XOR V%X, V%X", in.X, in.Y)
	case OpAddRegister:
		return fmt.Sprintf("ADD V%X, V%X", in.X, in.Y)
	case OpSub:
		return fmt.Sprintf("SUB V%X, V%X", in.X, in.Y)
	case OpShiftRight:
		return shiftString("SHR", in)
	case OpSubN:
		return fmt.Sprintf("SUBN V%X, V%X", in.X, in.Y)
	case OpShiftLeft:
		return shiftString("SHL", in)
	case OpSkipNotEqualRegister:
		return fmt.Sprintf("SNE V%X, V%X", in.X, in.Y)
	case OpLoadIndex:
		return fmt.Sprintf("LD I, 0x%03X", in.Addr)
	case OpJumpV0:
		return fmt.Sprintf("JP V0, 0x%03X", in.Addr)
	case OpRandom:
		return fmt.Sprintf("RND V%X, 0x%02X", in.X, in.Byte)
	case OpDraw:
		return fmt.Sprintf("DRW V%X, V%X, %d", in.X, in.Y, in.N)
	case OpSkipKeyPressed:
		return fmt.Sprintf("SKP V%X", in.X)
	case OpSkipKeyNotPressed:
		return fmt.Sprintf("SKNP V%X", in.X)
	case OpLoadDelay:
		return fmt.Sprintf("LD V%X, DT", in.X)
	case OpWaitKey:
		return fmt.Sprintf("LD V%X, K", in.X)
	case OpSetDelay:
		return fmt.Sprintf("LD DT, V%X", in.X)
	case OpSetSound:
		return fmt.Sprintf("LD ST, V%X", in.X)
	case OpAddIndex:
		return fmt.Sprintf("ADD I, V%X", in.X)
	case OpLoadFont:
		return fmt.Sprintf("LD F, V%X", in.X)
	case OpStoreBCD:
		return fmt.Sprintf("LD B, V%X", in.X)
	case OpStoreRegisters:
		return fmt.Sprintf("LD [I], V%X", in.X)
	case OpLoadRegisters:
		return fmt.Sprintf("LD V%X, [I]", in.X)
	}
	return "???"
}

// shiftString omits Vy when it is V0; the shift ignores it either way.
func shiftString(mnemonic string, in Instruction) string {
	if in.Y == 0 {
		return fmt.Sprintf("%s V%X", mnemonic, in.X)
	}
	return fmt.Sprintf("%s V%X, V%X", mnemonic, in.X, in.Y)
}
