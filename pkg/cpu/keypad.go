package cpu

// The original hex keypad layout:
//
//	1 2 3 C
//	4 5 6 D
//	7 8 9 E
//	A 0 B F

// Key is a logical keypad index.
type Key uint8

const (
	Key0 Key = iota
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	KeyA
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
)

// KeyCount is the number of logical keys.
const KeyCount = 16

// Keypad is the per-tick keyboard latch. The input side presses keys before a
// tick; the machine clears the latch after it.
type Keypad [KeyCount]bool

// Press marks k as active for the current tick.
func (k *Keypad) Press(key Key) {
	k[key&0xF] = true
}

// Release marks k as inactive.
func (k *Keypad) Release(key Key) {
	k[key&0xF] = false
}

// Pressed reports whether key is active. Only the low nibble of key is used.
func (k *Keypad) Pressed(key Key) bool {
	return k[key&0xF]
}

// Clear resets every key to inactive.
func (k *Keypad) Clear() {
	*k = Keypad{}
}

// Any reports whether any key is active.
func (k *Keypad) Any() bool {
	for _, down := range k {
		if down {
			return true
		}
	}
	return false
}

// KeyWaitPolicy decides which key LD Vx, K stores when several are active.
type KeyWaitPolicy uint8

const (
	// KeyWaitLast keeps the last active key of an ascending scan.
	KeyWaitLast KeyWaitPolicy = iota
	// KeyWaitFirst keeps the lowest active key index.
	KeyWaitFirst
)

// Scan returns the active key selected by policy, or false when none is active.
func (k *Keypad) Scan(policy KeyWaitPolicy) (Key, bool) {
	found := false
	var key Key
	for i, down := range k {
		if !down {
			continue
		}
		key = Key(i)
		found = true
		if policy == KeyWaitFirst {
			break
		}
	}
	return key, found
}
