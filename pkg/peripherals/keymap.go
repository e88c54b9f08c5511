package peripherals

import "gochip8/pkg/cpu"

// KeyForRune maps the host characters 0-9 and a-f (either case) onto the
// keypad key with the same hexadecimal value.
func KeyForRune(r rune) (cpu.Key, bool) {
	switch {
	case r >= '0' && r <= '9':
		return cpu.Key(r - '0'), true
	case r >= 'a' && r <= 'f':
		return cpu.Key(r-'a') + cpu.KeyA, true
	case r >= 'A' && r <= 'F':
		return cpu.Key(r-'A') + cpu.KeyA, true
	}
	return 0, false
}
