package cpu

// StackDepth is the number of return addresses the call stack can hold.
const StackDepth = 16

// Stack is the bounded return-address stack. SP counts entries in use.
type Stack struct {
	Slots [StackDepth]uint16
	SP    int
}

// Push stores a return address, failing with a StackFault when full.
func (s *Stack) Push(addr uint16) error {
	if s.SP >= StackDepth {
		return &StackFault{Op: "push", SP: s.SP}
	}
	s.Slots[s.SP] = addr
	s.SP++
	return nil
}

// Pop removes the most recent return address, failing with a StackFault when empty.
func (s *Stack) Pop() (uint16, error) {
	if s.SP <= 0 {
		return 0, &StackFault{Op: "pop", SP: s.SP}
	}
	s.SP--
	return s.Slots[s.SP], nil
}

// Len reports the number of return addresses on the stack.
func (s *Stack) Len() int {
	return s.SP
}
