package cpu

import (
	"fmt"
	"math/rand/v2"

	"gochip8/pkg/video"
)

const (
	MemorySize    = 4096
	RegisterCount = 16
	ProgramStart  = 0x200
	MaxProgram    = MemorySize - ProgramStart

	// FlagRegister is VF, overwritten by carry, borrow, shift-out and collision.
	FlagRegister = 0xF

	// MaxPC is the highest address from which a full opcode can be fetched.
	MaxPC = MemorySize - 2

	instructionSize = 2
)

// CPU is the execution engine. It owns memory, registers, the call stack and
// the timer registers, and draws into Display. It is not safe for concurrent
// use; one goroutine drives Step and touches the boundary fields between steps.
type CPU struct {
	Memory [MemorySize]byte
	V      [RegisterCount]uint8
	I      uint16
	PC     uint16

	Stack  Stack
	Timers Timers

	Display *video.Framebuffer
	Keys    Keypad

	// KeyWait chooses between several keys held during LD Vx, K.
	KeyWait KeyWaitPolicy

	// Waiting is set while LD Vx, K holds the PC for a key.
	Waiting bool

	// Rand supplies RND bytes.
	Rand *rand.Rand

	skipIncrement bool
}

// NewCPU returns a CPU with the font table loaded and PC at ProgramStart.
func NewCPU() *CPU {
	c := &CPU{
		Display: video.New(),
		Rand:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	c.Reset()
	return c
}

// Reset restores the post-construction state: zeroed memory with the font
// table, cleared registers, stack, timers and framebuffer.
func (c *CPU) Reset() {
	c.Memory = [MemorySize]byte{}
	copy(c.Memory[:], fontSet[:])
	c.V = [RegisterCount]uint8{}
	c.I = 0
	c.PC = ProgramStart
	c.Stack = Stack{}
	c.Timers.SetDelay(0)
	c.Timers.SetSound(0)
	c.Keys.Clear()
	c.Waiting = false
	c.skipIncrement = false
	if c.Display == nil {
		c.Display = video.New()
	}
	c.Display.Clear()
}

// Fetch reads the big-endian opcode at PC.
func (c *CPU) Fetch() (uint16, error) {
	if c.PC > MaxPC {
		return 0, &BoundsError{PC: c.PC}
	}
	return uint16(c.Memory[c.PC])<<8 | uint16(c.Memory[c.PC+1]), nil
}

// Step runs one fetch-decode-execute cycle. A DecodeError or invalid operand
// advances PC past the offending opcode; see IsRecoverable.
func (c *CPU) Step() error {
	opcode, err := c.Fetch()
	if err != nil {
		return err
	}

	in, err := Decode(opcode)
	if err != nil {
		c.PC += instructionSize
		return err
	}

	err = c.Execute(in)
	if !c.skipIncrement {
		c.PC += instructionSize
	}
	c.skipIncrement = false
	return err
}

// Run steps until an error that is not recoverable.
func (c *CPU) Run() error {
	for {
		if err := c.Step(); !IsRecoverable(err) {
			return err
		}
	}
}

// Execute applies the semantics of one decoded instruction. It fails only on a
// stack fault or an invalid sprite operand.
func (c *CPU) Execute(in Instruction) error {
	x, y := in.X&0xF, in.Y&0xF

	switch in.Op {
	case OpClearScreen:
		c.Display.Clear()

	case OpReturn:
		addr, err := c.Stack.Pop()
		if err != nil {
			return err
		}
		c.jump(addr)

	case OpSys:
		// Machine-code routines are not emulated.

	case OpJump:
		c.jump(in.Addr)

	case OpCall:
		if err := c.Stack.Push(c.PC + instructionSize); err != nil {
			return err
		}
		c.jump(in.Addr)

	case OpSkipEqualByte:
		c.skipIf(c.V[x] == in.Byte)

	case OpSkipNotEqualByte:
		c.skipIf(c.V[x] != in.Byte)

	case OpSkipEqualRegister:
		c.skipIf(c.V[x] == c.V[y])

	case OpSkipNotEqualRegister:
		c.skipIf(c.V[x] != c.V[y])

	case OpLoadByte:
		c.V[x] = in.Byte

	case OpAddByte:
		sum, carry := add8(c.V[x], in.Byte)
		c.V[x] = sum
		c.setFlag(carry)

	case OpLoadRegister:
		c.V[x] = c.V[y]

	case OpOr:
		c.V[x] |= c.V[y]

	case OpAnd:
		c.V[x] &= c.V[y]

	case OpXor:
		c.V[x] ^= c.V[y]

	case OpAddRegister:
		sum, carry := add8(c.V[x], c.V[y])
		c.V[x] = sum
		c.setFlag(carry)

	case OpSub:
		vx, vy := c.V[x], c.V[y]
		c.V[x] = vx - vy
		c.setFlag(vx >= vy)

	case OpSubN:
		vx, vy := c.V[x], c.V[y]
		c.V[x] = vy - vx
		c.setFlag(vy >= vx)

	case OpShiftRight:
		v := c.V[x]
		c.V[x] = v >> 1
		c.V[FlagRegister] = v & 0x01

	case OpShiftLeft:
		v := c.V[x]
		c.V[x] = v << 1
		c.V[FlagRegister] = (v & 0x80) >> 7

	case OpLoadIndex:
		c.I = in.Addr

	case OpJumpV0:
		c.jump(in.Addr + uint16(c.V[0]))

	case OpRandom:
		c.V[x] = uint8(c.Rand.UintN(256)) & in.Byte

	case OpDraw:
		return c.draw(int(c.V[x]), int(c.V[y]), int(in.N))

	case OpSkipKeyPressed:
		c.skipIf(c.Keys.Pressed(Key(c.V[x])))

	case OpSkipKeyNotPressed:
		c.skipIf(!c.Keys.Pressed(Key(c.V[x])))

	case OpLoadDelay:
		c.V[x] = c.Timers.Delay

	case OpWaitKey:
		key, ok := c.Keys.Scan(c.KeyWait)
		if !ok {
			c.Waiting = true
			c.skipIncrement = true
			return nil
		}
		c.Waiting = false
		c.V[x] = uint8(key)

	case OpSetDelay:
		c.Timers.SetDelay(c.V[x])

	case OpSetSound:
		c.Timers.SetSound(c.V[x])

	case OpAddIndex:
		sum := uint32(c.I) + uint32(c.V[x])
		c.I = uint16(sum)
		c.setFlag(sum > 0xFFFF)

	case OpLoadFont:
		c.I = uint16(c.V[x]) * GlyphSize

	case OpStoreBCD:
		v := c.V[x]
		c.write(c.I, v/100)
		c.write(c.I+1, (v/10)%10)
		c.write(c.I+2, v%10)

	case OpStoreRegisters:
		for n := uint16(0); n <= uint16(x); n++ {
			c.write(c.I+n, c.V[n])
		}

	case OpLoadRegisters:
		for n := uint16(0); n <= uint16(x); n++ {
			c.V[n] = c.read(c.I + n)
		}

	default:
		return &DecodeError{Opcode: in.Encode()}
	}

	return nil
}

func (c *CPU) jump(addr uint16) {
	c.PC = addr
	c.skipIncrement = true
}

// skipIf steps over the next instruction on top of the normal increment.
func (c *CPU) skipIf(cond bool) {
	if cond {
		c.PC += instructionSize
	}
}

// add8 returns a+b modulo 256 and whether the unsigned sum exceeded 255.
func add8(a, b uint8) (uint8, bool) {
	sum := uint16(a) + uint16(b)
	return uint8(sum), sum > 0xFF
}

func (c *CPU) setFlag(set bool) {
	if set {
		c.V[FlagRegister] = 1
	} else {
		c.V[FlagRegister] = 0
	}
}

// Memory accesses through I wrap at the end of the address space.
func (c *CPU) read(addr uint16) uint8 {
	return c.Memory[addr%MemorySize]
}

func (c *CPU) write(addr uint16, v uint8) {
	c.Memory[addr%MemorySize] = v
}

func (c *CPU) draw(x, y, height int) error {
	rows := make([]byte, height)
	for r := range rows {
		rows[r] = c.read(c.I + uint16(r))
	}
	collision, err := c.Display.DrawSprite(x, y, rows)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOperand, err)
	}
	c.setFlag(collision)
	return nil
}
