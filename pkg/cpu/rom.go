package cpu

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// LoadROM copies a raw program image into memory at ProgramStart. Images
// longer than MaxProgram are truncated; bytes past a short image keep their
// current value. It returns the number of bytes copied.
func (c *CPU) LoadROM(r io.Reader) (int, error) {
	n, err := io.ReadFull(r, c.Memory[ProgramStart:])
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		err = nil
	}
	return n, err
}

// LoadROMFile loads the program image stored at path.
func (c *CPU) LoadROMFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open rom %q: %w", path, err)
	}
	defer f.Close()

	n, err := c.LoadROM(f)
	if err != nil {
		return n, fmt.Errorf("read rom %q: %w", path, err)
	}
	return n, nil
}

// LoadProgram copies program into memory at ProgramStart, truncating at the
// end of memory.
func (c *CPU) LoadProgram(program []byte) int {
	return copy(c.Memory[ProgramStart:], program)
}
