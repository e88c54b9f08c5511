package cpu

import (
	"errors"
	"fmt"
)

var (
	// ErrPCOutOfBounds is wrapped by BoundsError when the program counter can no
	// longer address a full two-byte instruction.
	ErrPCOutOfBounds = errors.New("program counter out of bounds")

	// ErrInvalidOperand reports an operand the instruction cannot act on, such as
	// a sprite taller than 15 rows.
	ErrInvalidOperand = errors.New("invalid operand")

	// ErrQuit is returned by run loops when the input side asks to stop.
	ErrQuit = errors.New("quit requested")
)

// DecodeError is returned by Decode for opcodes outside the instruction set.
type DecodeError struct {
	Opcode uint16
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("unknown opcode 0x%04X", e.Opcode)
}

// BoundsError is fatal: the fetch at PC would read past the end of memory.
type BoundsError struct {
	PC uint16
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("%v: PC=0x%04X", ErrPCOutOfBounds, e.PC)
}

func (e *BoundsError) Unwrap() error {
	return ErrPCOutOfBounds
}

// StackFault is raised by CALL on a full stack and RET on an empty one.
type StackFault struct {
	Op string
	SP int
}

func (e *StackFault) Error() string {
	if e.Op == "push" {
		return fmt.Sprintf("stack overflow: push with SP=%d", e.SP)
	}
	return fmt.Sprintf("stack underflow: pop with SP=%d", e.SP)
}

// IsRecoverable reports whether err only invalidates the current tick.
// Decode failures and invalid operands are skipped; everything else stops the run.
func IsRecoverable(err error) bool {
	if err == nil {
		return true
	}
	var de *DecodeError
	if errors.As(err, &de) {
		return true
	}
	return errors.Is(err, ErrInvalidOperand)
}
