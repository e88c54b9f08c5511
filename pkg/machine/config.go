package machine

import (
	"fmt"
	"time"

	"gochip8/pkg/cpu"
)

// Config holds the run-loop rates and quirk policies.
type Config struct {
	// InstructionHz is the nominal number of ticks per second.
	InstructionHz int
	// TimerHz is the countdown rate of the delay and sound registers.
	TimerHz int
	// KeyWait selects the key stored by LD Vx, K when several are held.
	KeyWait cpu.KeyWaitPolicy
	// MaxLag bounds how far Update catches up after a stall. Ticks further
	// behind than this are dropped.
	MaxLag time.Duration
}

// DefaultConfig returns 500 instructions per second, 60Hz timers and the
// legacy key-wait policy.
func DefaultConfig() Config {
	return Config{
		InstructionHz: 500,
		TimerHz:       cpu.TimerHz,
		KeyWait:       cpu.KeyWaitLast,
		MaxLag:        100 * time.Millisecond,
	}
}

// MaxHz is the highest rate whose period is still at least a nanosecond.
const MaxHz = int(time.Second)

// Validate rejects rates outside [1, MaxHz].
func (c Config) Validate() error {
	if c.InstructionHz <= 0 || c.InstructionHz > MaxHz {
		return fmt.Errorf("instruction rate must be in [1, %d], got %d", MaxHz, c.InstructionHz)
	}
	if c.TimerHz <= 0 || c.TimerHz > MaxHz {
		return fmt.Errorf("timer rate must be in [1, %d], got %d", MaxHz, c.TimerHz)
	}
	if c.MaxLag < 0 {
		return fmt.Errorf("max lag must not be negative, got %v", c.MaxLag)
	}
	return nil
}

// TickPeriod is the wall time between two instruction ticks.
func (c Config) TickPeriod() time.Duration {
	return time.Second / time.Duration(c.InstructionHz)
}

// TimerPeriod is the wall time between two timer decrements.
func (c Config) TimerPeriod() time.Duration {
	return time.Second / time.Duration(c.TimerHz)
}

// ParseKeyWait maps a flag value onto a key-wait policy.
func ParseKeyWait(s string) (cpu.KeyWaitPolicy, error) {
	switch s {
	case "last", "legacy":
		return cpu.KeyWaitLast, nil
	case "first", "lowest":
		return cpu.KeyWaitFirst, nil
	}
	return 0, fmt.Errorf("unknown key-wait policy %q (want last or first)", s)
}
