package cpu

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"gochip8/pkg/video"
)

// stateVersion is bumped whenever the archive layout changes.
const stateVersion = 1

// humanReadableState is the JSON-serializable snapshot of CPU control state.
type humanReadableState struct {
	Version int                  `json:"version"`
	V       [RegisterCount]uint8 `json:"v"`
	I       uint16               `json:"i"`
	PC      uint16               `json:"pc"`
	SP      int                  `json:"sp"`
	Delay   uint8                `json:"delay"`
	Sound   uint8                `json:"sound"`
	Waiting bool                 `json:"waiting"`
	KeyWait KeyWaitPolicy        `json:"key_wait"`
}

// HibernateToBytes serialises the machine state into an in-memory ZIP archive
// holding cpu_state.json, memory.bin, stack.bin and framebuffer.bin.
func (c *CPU) HibernateToBytes() ([]byte, error) {
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	state := humanReadableState{
		Version: stateVersion,
		V:       c.V,
		I:       c.I,
		PC:      c.PC,
		SP:      c.Stack.SP,
		Delay:   c.Timers.Delay,
		Sound:   c.Timers.Sound,
		Waiting: c.Waiting,
		KeyWait: c.KeyWait,
	}

	jsonData, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal cpu_state: %w", err)
	}
	if err := writeZipEntry(zw, "cpu_state.json", jsonData); err != nil {
		return nil, err
	}

	if err := writeZipEntry(zw, "memory.bin", c.Memory[:]); err != nil {
		return nil, err
	}

	if err := writeZipEntry(zw, "stack.bin", uint16SliceToBE(c.Stack.Slots[:])); err != nil {
		return nil, err
	}

	frame := c.Display.Snapshot()
	if err := writeZipEntry(zw, "framebuffer.bin", frame[:]); err != nil {
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip: %w", err)
	}
	return buf.Bytes(), nil
}

// RestoreFromBytes replaces the machine state with an archive written by
// HibernateToBytes. The CPU is left untouched when the archive is invalid.
// Timer cadence anchors are not saved; callers re-anchor with Timers.Reset.
func (c *CPU) RestoreFromBytes(data []byte) error {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}

	fileMap := make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		fileMap[f.Name] = f
	}

	jsonData, err := readZipEntry(fileMap, "cpu_state.json")
	if err != nil {
		return err
	}
	var state humanReadableState
	if err := json.Unmarshal(jsonData, &state); err != nil {
		return fmt.Errorf("unmarshal cpu_state: %w", err)
	}
	if state.Version != stateVersion {
		return fmt.Errorf("unsupported state version %d", state.Version)
	}
	if state.SP < 0 || state.SP > StackDepth {
		return fmt.Errorf("invalid stack pointer %d", state.SP)
	}

	memData, err := readZipEntry(fileMap, "memory.bin")
	if err != nil {
		return err
	}
	if len(memData) != MemorySize {
		return fmt.Errorf("memory.bin is %d bytes, want %d", len(memData), MemorySize)
	}
	stackData, err := readZipEntry(fileMap, "stack.bin")
	if err != nil {
		return err
	}
	if len(stackData) != StackDepth*2 {
		return fmt.Errorf("stack.bin is %d bytes, want %d", len(stackData), StackDepth*2)
	}
	var frame video.Frame
	frameData, err := readZipEntry(fileMap, "framebuffer.bin")
	if err != nil {
		return err
	}
	if len(frameData) != len(frame) {
		return fmt.Errorf("framebuffer.bin is %d bytes, want %d", len(frameData), len(frame))
	}
	copy(frame[:], frameData)

	c.V = state.V
	c.I = state.I
	c.PC = state.PC
	c.Stack.SP = state.SP
	beToUint16Slice(stackData, c.Stack.Slots[:])
	c.Timers.Delay = state.Delay
	c.Timers.Sound = state.Sound
	c.Waiting = state.Waiting
	c.KeyWait = state.KeyWait
	c.Keys.Clear()
	c.skipIncrement = false
	copy(c.Memory[:], memData)
	c.Display.Restore(frame)

	return nil
}

func writeZipEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("create zip entry %q: %w", name, err)
	}
	_, err = w.Write(data)
	return err
}

func readZipEntry(fileMap map[string]*zip.File, name string) ([]byte, error) {
	f, ok := fileMap[name]
	if !ok {
		return nil, fmt.Errorf("zip entry %q not found", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open zip entry %q: %w", name, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func uint16SliceToBE(src []uint16) []byte {
	out := make([]byte, len(src)*2)
	for i, v := range src {
		binary.BigEndian.PutUint16(out[i*2:], v)
	}
	return out
}

func beToUint16Slice(src []byte, dst []uint16) {
	for i := range dst {
		dst[i] = binary.BigEndian.Uint16(src[i*2:])
	}
}
