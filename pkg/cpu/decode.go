package cpu

// Decode maps an opcode word to an instruction. The top nibble selects the
// group; groups 0x0, 0x8, 0xE and 0xF then dispatch on their own low byte or
// low nibble, so a secondary selector never leaks across groups.
func Decode(opcode uint16) (Instruction, error) {
	in := Instruction{
		X:    uint8(opcode>>8) & 0xF,
		Y:    uint8(opcode>>4) & 0xF,
		N:    uint8(opcode) & 0xF,
		Byte: uint8(opcode),
		Addr: opcode & 0x0FFF,
	}

	switch opcode >> 12 {
	case 0x0:
		switch opcode {
		case 0x00E0:
			in.Op = OpClearScreen
		case 0x00EE:
			in.Op = OpReturn
		default:
			in.Op = OpSys
		}
	case 0x1:
		in.Op = OpJump
	case 0x2:
		in.Op = OpCall
	case 0x3:
		in.Op = OpSkipEqualByte
	case 0x4:
		in.Op = OpSkipNotEqualByte
	case 0x5:
		if in.N != 0 {
			return Instruction{}, &DecodeError{Opcode: opcode}
		}
		in.Op = OpSkipEqualRegister
	case 0x6:
		in.Op = OpLoadByte
	case 0x7:
		in.Op = OpAddByte
	case 0x8:
		op, ok := aluOps[in.N]
		if !ok {
			return Instruction{}, &DecodeError{Opcode: opcode}
		}
		in.Op = op
	case 0x9:
		if in.N != 0 {
			return Instruction{}, &DecodeError{Opcode: opcode}
		}
		in.Op = OpSkipNotEqualRegister
	case 0xA:
		in.Op = OpLoadIndex
	case 0xB:
		in.Op = OpJumpV0
	case 0xC:
		in.Op = OpRandom
	case 0xD:
		in.Op = OpDraw
	case 0xE:
		switch in.Byte {
		case 0x9E:
			in.Op = OpSkipKeyPressed
		case 0xA1:
			in.Op = OpSkipKeyNotPressed
		default:
			return Instruction{}, &DecodeError{Opcode: opcode}
		}
	case 0xF:
		op, ok := miscOps[in.Byte]
		if !ok {
			return Instruction{}, &DecodeError{Opcode: opcode}
		}
		in.Op = op
	}

	return in, nil
}

// aluOps is the 8xyN group keyed by low nibble.
var aluOps = map[uint8]Op{
	0x0: OpLoadRegister,
	0x1: OpOr,
	0x2: OpAnd,
	0x3: OpXor,
	0x4: OpAddRegister,
	0x5: OpSub,
	0x6: OpShiftRight,
	0x7: OpSubN,
	0xE: OpShiftLeft,
}

// miscOps is the FxKK group keyed by the full low byte.
var miscOps = map[uint8]Op{
	0x07: OpLoadDelay,
	0x0A: OpWaitKey,
	0x15: OpSetDelay,
	0x18: OpSetSound,
	0x1E: OpAddIndex,
	0x29: OpLoadFont,
	0x33: OpStoreBCD,
	0x55: OpStoreRegisters,
	0x65: OpLoadRegisters,
}
