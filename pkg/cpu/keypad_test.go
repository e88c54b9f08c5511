package cpu

import (
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestKeypadLatch(t *testing.T) {
	var k Keypad
	assert.Equal(t, false, k.Any())

	k.Press(KeyC)
	assert.Equal(t, true, k.Pressed(KeyC))
	assert.Equal(t, true, k.Any())

	// Register values above 0xF select by low nibble.
	assert.Equal(t, true, k.Pressed(Key(0x1C)))

	k.Release(KeyC)
	assert.Equal(t, false, k.Pressed(KeyC))

	k.Press(Key1)
	k.Press(KeyF)
	k.Clear()
	assert.Equal(t, false, k.Any())
}

func TestKeypadScan(t *testing.T) {
	tests := []struct {
		name    string
		pressed []Key
		policy  KeyWaitPolicy
		want    Key
		found   bool
	}{
		{"none", nil, KeyWaitLast, 0, false},
		{"single", []Key{Key7}, KeyWaitLast, Key7, true},
		{"last wins", []Key{Key2, KeyB, Key5}, KeyWaitLast, KeyB, true},
		{"first wins", []Key{Key2, KeyB, Key5}, KeyWaitFirst, Key2, true},
		{"key zero", []Key{Key0}, KeyWaitFirst, Key0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var k Keypad
			for _, key := range tt.pressed {
				k.Press(key)
			}
			got, found := k.Scan(tt.policy)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStackPushPop(t *testing.T) {
	var s Stack
	for i := 0; i < StackDepth; i++ {
		assert.NoError(t, s.Push(uint16(0x200+2*i)))
	}
	if err := s.Push(0x400); err == nil {
		t.Fatal("expected overflow")
	}
	for i := StackDepth - 1; i >= 0; i-- {
		addr, err := s.Pop()
		assert.NoError(t, err)
		assert.Equal(t, uint16(0x200+2*i), addr)
	}
	if _, err := s.Pop(); err == nil {
		t.Fatal("expected underflow")
	}
	assert.Equal(t, 0, s.Len())
}
