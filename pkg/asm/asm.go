// Package asm assembles the mnemonic syntax printed by cpu.Instruction.String
// into ROM images loaded at cpu.ProgramStart.
package asm

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"gochip8/pkg/cpu"
)

const instructionSize = 2

var zeroOperandOps = map[string]cpu.Op{
	"CLS": cpu.OpClearScreen,
	"RET": cpu.OpReturn,
}

var addressOps = map[string]cpu.Op{
	"SYS":  cpu.OpSys,
	"CALL": cpu.OpCall,
}

var oneRegisterOps = map[string]cpu.Op{
	"SKP":  cpu.OpSkipKeyPressed,
	"SKNP": cpu.OpSkipKeyNotPressed,
}

// shiftOps take Vx and an optional, ignored Vy.
var shiftOps = map[string]cpu.Op{
	"SHR": cpu.OpShiftRight,
	"SHL": cpu.OpShiftLeft,
}

var twoRegisterOps = map[string]cpu.Op{
	"OR":   cpu.OpOr,
	"AND":  cpu.OpAnd,
	"XOR":  cpu.OpXor,
	"SUB":  cpu.OpSub,
	"SUBN": cpu.OpSubN,
}

// LD Vx, <special> and LD <special>, Vx forms.
var loadFromOps = map[string]cpu.Op{
	"DT":  cpu.OpLoadDelay,
	"K":   cpu.OpWaitKey,
	"[I]": cpu.OpLoadRegisters,
}

var loadIntoOps = map[string]cpu.Op{
	"DT":  cpu.OpSetDelay,
	"ST":  cpu.OpSetSound,
	"F":   cpu.OpLoadFont,
	"B":   cpu.OpStoreBCD,
	"[I]": cpu.OpStoreRegisters,
}

type Assembler struct {
	labels map[string]uint16
}

type parsedLine struct {
	lineNo   int
	labels   []string
	mnemonic string
	operands []string
}

func NewAssembler() *Assembler {
	return &Assembler{
		labels: make(map[string]uint16),
	}
}

// Assemble returns the ROM bytes and a map from absolute address to source
// line. The first byte of the ROM belongs at cpu.ProgramStart.
func Assemble(code string) ([]byte, map[uint16]int, error) {
	return NewAssembler().Assemble(code)
}

// Assemble may be called repeatedly; labels from earlier sources are
// forgotten.
func (a *Assembler) Assemble(code string) ([]byte, map[uint16]int, error) {
	a.labels = make(map[string]uint16)
	lines := strings.Split(code, "\n")

	if err := a.pass1(lines); err != nil {
		return nil, nil, err
	}

	return a.pass2(lines)
}

func (a *Assembler) pass1(lines []string) error {
	address := uint32(cpu.ProgramStart)

	for i, raw := range lines {
		lineNo := i + 1
		p, err := parseLine(raw, lineNo)
		if err != nil {
			return err
		}

		for _, lbl := range p.labels {
			if address >= cpu.MemorySize {
				return fmt.Errorf("label '%s' on line %d points past addressable memory", lbl, lineNo)
			}
			key := normalizeLabel(lbl)
			if _, exists := a.labels[key]; exists {
				return fmt.Errorf("duplicate label '%s' on line %d", lbl, lineNo)
			}
			a.labels[key] = uint16(address)
		}

		if p.mnemonic == "" {
			continue
		}

		var length uint32
		switch p.mnemonic {
		case ".ORG":
			target, err := parseOrigin(p.operands, lineNo, address)
			if err != nil {
				return err
			}
			address = target
			continue
		case "DB":
			if len(p.operands) == 0 {
				return fmt.Errorf("DB expects at least one operand on line %d", lineNo)
			}
			length = uint32(len(p.operands))
		case ".WORD":
			if len(p.operands) != 1 {
				return fmt.Errorf(".WORD expects exactly one operand on line %d", lineNo)
			}
			length = 2
		default:
			if !isMnemonic(p.mnemonic) {
				return fmt.Errorf("unknown instruction on line %d: %s", lineNo, p.mnemonic)
			}
			length = instructionSize
		}

		if address+length > cpu.MemorySize {
			return fmt.Errorf("program too large near line %d", lineNo)
		}
		address += length
	}

	return nil
}

func (a *Assembler) pass2(lines []string) ([]byte, map[uint16]int, error) {
	program := make([]byte, 0)
	sourceMap := make(map[uint16]int)

	for i, raw := range lines {
		lineNo := i + 1
		p, err := parseLine(raw, lineNo)
		if err != nil {
			return nil, nil, err
		}

		if p.mnemonic == "" {
			continue
		}

		address := uint32(cpu.ProgramStart + len(program))

		switch p.mnemonic {
		case ".ORG":
			target, err := parseOrigin(p.operands, lineNo, address)
			if err != nil {
				return nil, nil, err
			}
			program = append(program, make([]byte, target-address)...)
			continue

		case "DB":
			sourceMap[uint16(address)] = lineNo
			for _, op := range p.operands {
				val, err := a.parseValue(op, 0xFF, lineNo)
				if err != nil {
					return nil, nil, err
				}
				program = append(program, byte(val))
			}
			continue

		case ".WORD":
			sourceMap[uint16(address)] = lineNo
			val, err := a.parseValue(p.operands[0], 0xFFFF, lineNo)
			if err != nil {
				return nil, nil, err
			}
			program = append(program, byte(val>>8), byte(val))
			continue
		}

		in, err := a.encode(p.mnemonic, p.operands, lineNo)
		if err != nil {
			return nil, nil, err
		}
		sourceMap[uint16(address)] = lineNo
		word := in.Encode()
		program = append(program, byte(word>>8), byte(word))
	}

	return program, sourceMap, nil
}

// encode builds the instruction for one mnemonic line.
func (a *Assembler) encode(mnemonic string, ops []string, lineNo int) (cpu.Instruction, error) {
	if op, ok := zeroOperandOps[mnemonic]; ok {
		if len(ops) != 0 {
			return cpu.Instruction{}, fmt.Errorf("%s expects 0 operands on line %d", mnemonic, lineNo)
		}
		return cpu.Instruction{Op: op}, nil
	}

	if op, ok := addressOps[mnemonic]; ok {
		if len(ops) != 1 {
			return cpu.Instruction{}, fmt.Errorf("%s expects 1 operand on line %d", mnemonic, lineNo)
		}
		addr, err := a.parseValue(ops[0], 0xFFF, lineNo)
		if err != nil {
			return cpu.Instruction{}, err
		}
		return cpu.Instruction{Op: op, Addr: addr}, nil
	}

	if op, ok := oneRegisterOps[mnemonic]; ok {
		if len(ops) != 1 {
			return cpu.Instruction{}, fmt.Errorf("%s expects 1 operand on line %d", mnemonic, lineNo)
		}
		x, err := parseRegister(ops[0], lineNo)
		if err != nil {
			return cpu.Instruction{}, err
		}
		return cpu.Instruction{Op: op, X: x}, nil
	}

	if op, ok := shiftOps[mnemonic]; ok {
		if len(ops) != 1 && len(ops) != 2 {
			return cpu.Instruction{}, fmt.Errorf("%s expects 1 or 2 operands on line %d", mnemonic, lineNo)
		}
		regs, err := parseRegisters(ops, lineNo)
		if err != nil {
			return cpu.Instruction{}, err
		}
		in := cpu.Instruction{Op: op, X: regs[0]}
		if len(regs) == 2 {
			in.Y = regs[1]
		}
		return in, nil
	}

	if op, ok := twoRegisterOps[mnemonic]; ok {
		if len(ops) != 2 {
			return cpu.Instruction{}, fmt.Errorf("%s expects 2 operands on line %d", mnemonic, lineNo)
		}
		regs, err := parseRegisters(ops, lineNo)
		if err != nil {
			return cpu.Instruction{}, err
		}
		return cpu.Instruction{Op: op, X: regs[0], Y: regs[1]}, nil
	}

	switch mnemonic {
	case "JP":
		switch len(ops) {
		case 1:
			addr, err := a.parseValue(ops[0], 0xFFF, lineNo)
			return cpu.Instruction{Op: cpu.OpJump, Addr: addr}, err
		case 2:
			if strings.ToUpper(ops[0]) != "V0" {
				return cpu.Instruction{}, fmt.Errorf("JP with offset must use V0 on line %d", lineNo)
			}
			addr, err := a.parseValue(ops[1], 0xFFF, lineNo)
			return cpu.Instruction{Op: cpu.OpJumpV0, Addr: addr}, err
		}
		return cpu.Instruction{}, fmt.Errorf("JP expects 1 or 2 operands on line %d", lineNo)

	case "SE", "SNE":
		byteOp, regOp := cpu.OpSkipEqualByte, cpu.OpSkipEqualRegister
		if mnemonic == "SNE" {
			byteOp, regOp = cpu.OpSkipNotEqualByte, cpu.OpSkipNotEqualRegister
		}
		return a.registerOrByte(mnemonic, ops, regOp, byteOp, lineNo)

	case "RND":
		if len(ops) != 2 {
			return cpu.Instruction{}, fmt.Errorf("RND expects 2 operands on line %d", lineNo)
		}
		x, err := parseRegister(ops[0], lineNo)
		if err != nil {
			return cpu.Instruction{}, err
		}
		kk, err := a.parseValue(ops[1], 0xFF, lineNo)
		return cpu.Instruction{Op: cpu.OpRandom, X: x, Byte: uint8(kk)}, err

	case "DRW":
		if len(ops) != 3 {
			return cpu.Instruction{}, fmt.Errorf("DRW expects 3 operands on line %d", lineNo)
		}
		regs, err := parseRegisters(ops[:2], lineNo)
		if err != nil {
			return cpu.Instruction{}, err
		}
		n, err := a.parseValue(ops[2], 0xF, lineNo)
		return cpu.Instruction{Op: cpu.OpDraw, X: regs[0], Y: regs[1], N: uint8(n)}, err

	case "ADD":
		if len(ops) == 2 && strings.ToUpper(ops[0]) == "I" {
			x, err := parseRegister(ops[1], lineNo)
			return cpu.Instruction{Op: cpu.OpAddIndex, X: x}, err
		}
		return a.registerOrByte(mnemonic, ops, cpu.OpAddRegister, cpu.OpAddByte, lineNo)

	case "LD":
		return a.encodeLoad(ops, lineNo)
	}

	return cpu.Instruction{}, fmt.Errorf("unknown instruction on line %d: %s", lineNo, mnemonic)
}

func (a *Assembler) encodeLoad(ops []string, lineNo int) (cpu.Instruction, error) {
	if len(ops) != 2 {
		return cpu.Instruction{}, fmt.Errorf("LD expects 2 operands on line %d", lineNo)
	}
	dst, src := strings.ToUpper(ops[0]), strings.ToUpper(ops[1])

	if dst == "I" {
		addr, err := a.parseValue(ops[1], 0xFFF, lineNo)
		return cpu.Instruction{Op: cpu.OpLoadIndex, Addr: addr}, err
	}
	if op, ok := loadIntoOps[dst]; ok {
		x, err := parseRegister(ops[1], lineNo)
		return cpu.Instruction{Op: op, X: x}, err
	}
	if op, ok := loadFromOps[src]; ok {
		x, err := parseRegister(ops[0], lineNo)
		return cpu.Instruction{Op: op, X: x}, err
	}
	return a.registerOrByte("LD", ops, cpu.OpLoadRegister, cpu.OpLoadByte, lineNo)
}

// registerOrByte handles the "Vx, Vy" and "Vx, byte" forms shared by SE, SNE,
// LD and ADD.
func (a *Assembler) registerOrByte(mnemonic string, ops []string, regOp, byteOp cpu.Op, lineNo int) (cpu.Instruction, error) {
	if len(ops) != 2 {
		return cpu.Instruction{}, fmt.Errorf("%s expects 2 operands on line %d", mnemonic, lineNo)
	}
	x, err := parseRegister(ops[0], lineNo)
	if err != nil {
		return cpu.Instruction{}, err
	}
	if isRegister(ops[1]) {
		y, err := parseRegister(ops[1], lineNo)
		return cpu.Instruction{Op: regOp, X: x, Y: y}, err
	}
	kk, err := a.parseValue(ops[1], 0xFF, lineNo)
	return cpu.Instruction{Op: byteOp, X: x, Byte: uint8(kk)}, err
}

func parseLine(raw string, lineNo int) (parsedLine, error) {
	p := parsedLine{lineNo: lineNo}

	line := strings.TrimSpace(stripComments(raw))
	if line == "" {
		return p, nil
	}

	for {
		colon := strings.IndexByte(line, ':')
		if colon <= 0 {
			break
		}

		beforeColon := strings.TrimSpace(line[:colon])
		if strings.ContainsAny(beforeColon, " \t") {
			break
		}

		if !isIdentifier(beforeColon) {
			return p, fmt.Errorf("invalid label '%s' on line %d", beforeColon, lineNo)
		}

		p.labels = append(p.labels, beforeColon)
		line = strings.TrimSpace(line[colon+1:])
		if line == "" {
			return p, nil
		}
	}

	fields := strings.Fields(normalizeInstructionText(line))
	if len(fields) == 0 {
		return p, nil
	}

	p.mnemonic = strings.ToUpper(fields[0])
	if len(fields) > 1 {
		p.operands = fields[1:]
	}

	return p, nil
}

func stripComments(line string) string {
	semicolon := strings.Index(line, ";")
	doubleSlash := strings.Index(line, "//")

	cut := -1
	if semicolon >= 0 {
		cut = semicolon
	}
	if doubleSlash >= 0 && (cut == -1 || doubleSlash < cut) {
		cut = doubleSlash
	}
	if cut >= 0 {
		return line[:cut]
	}
	return line
}

func normalizeInstructionText(line string) string {
	return strings.ReplaceAll(line, ",", " ")
}

func parseOrigin(ops []string, lineNo int, address uint32) (uint32, error) {
	if len(ops) != 1 {
		return 0, fmt.Errorf(".ORG expects exactly one operand on line %d", lineNo)
	}
	target, err := strconv.ParseUint(ops[0], 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid .ORG value on line %d: %s", lineNo, ops[0])
	}
	if target >= cpu.MemorySize {
		return 0, fmt.Errorf(".ORG out of range on line %d: %s", lineNo, ops[0])
	}
	if uint32(target) < address {
		return 0, fmt.Errorf("cannot move origin backward on line %d", lineNo)
	}
	return uint32(target), nil
}

func isRegister(token string) bool {
	_, err := parseRegister(token, 0)
	return err == nil
}

func parseRegister(token string, lineNo int) (uint8, error) {
	if len(token) == 2 && (token[0] == 'V' || token[0] == 'v') {
		if n, err := strconv.ParseUint(token[1:], 16, 8); err == nil {
			return uint8(n), nil
		}
	}
	return 0, fmt.Errorf("invalid register '%s' on line %d", token, lineNo)
}

func parseRegisters(tokens []string, lineNo int) ([]uint8, error) {
	regs := make([]uint8, len(tokens))
	for i, tok := range tokens {
		r, err := parseRegister(tok, lineNo)
		if err != nil {
			return nil, err
		}
		regs[i] = r
	}
	return regs, nil
}

// parseValue accepts a number in Go literal syntax or a label, and checks it
// against limit.
func (a *Assembler) parseValue(token string, limit uint16, lineNo int) (uint16, error) {
	if value, err := strconv.ParseUint(token, 0, 32); err == nil {
		if value > uint64(limit) {
			return 0, fmt.Errorf("value out of range on line %d: %s (max 0x%X)", lineNo, token, limit)
		}
		return uint16(value), nil
	}

	label := normalizeLabel(token)
	if addr, ok := a.labels[label]; ok {
		if addr > limit {
			return 0, fmt.Errorf("label '%s' out of range on line %d", token, lineNo)
		}
		return addr, nil
	}

	if isIdentifier(token) {
		return 0, fmt.Errorf("undefined label '%s' on line %d", token, lineNo)
	}

	return 0, fmt.Errorf("invalid value '%s' on line %d", token, lineNo)
}

func isMnemonic(mnemonic string) bool {
	for _, table := range []map[string]cpu.Op{zeroOperandOps, addressOps, oneRegisterOps, shiftOps, twoRegisterOps} {
		if _, ok := table[mnemonic]; ok {
			return true
		}
	}
	switch mnemonic {
	case "JP", "SE", "SNE", "RND", "DRW", "ADD", "LD":
		return true
	}
	return false
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		if i == 0 {
			if !unicode.IsLetter(r) && r != '_' {
				return false
			}
			continue
		}

		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}

	return true
}

func normalizeLabel(label string) string {
	return strings.ToUpper(label)
}
