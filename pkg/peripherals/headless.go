package peripherals

import (
	"gochip8/pkg/cpu"
	"gochip8/pkg/video"
)

// Recorder is a display and beeper that keeps what it is given, for batch
// runs and tests.
type Recorder struct {
	Frames int
	Last   video.Frame
	Tones  []bool
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Present(frame video.Frame) error {
	r.Frames++
	r.Last = frame
	return nil
}

func (r *Recorder) SetTone(on bool) error {
	r.Tones = append(r.Tones, on)
	return nil
}

// ToneOn reports the most recent tone state.
func (r *Recorder) ToneOn() bool {
	return len(r.Tones) > 0 && r.Tones[len(r.Tones)-1]
}

// ScriptedInput presses keys on chosen polls and can stop the run after a
// number of polls. Polls are counted from 1.
type ScriptedInput struct {
	presses   map[int][]cpu.Key
	quitAfter int
	polls     int
}

func NewScriptedInput() *ScriptedInput {
	return &ScriptedInput{presses: make(map[int][]cpu.Key)}
}

// Press holds keys during poll n.
func (s *ScriptedInput) Press(n int, keys ...cpu.Key) *ScriptedInput {
	s.presses[n] = append(s.presses[n], keys...)
	return s
}

// Hold holds key for every poll in [from, to].
func (s *ScriptedInput) Hold(from, to int, key cpu.Key) *ScriptedInput {
	for n := from; n <= to; n++ {
		s.Press(n, key)
	}
	return s
}

// QuitAfter makes poll n+1 return cpu.ErrQuit. Zero never quits.
func (s *ScriptedInput) QuitAfter(n int) *ScriptedInput {
	s.quitAfter = n
	return s
}

func (s *ScriptedInput) Polls() int {
	return s.polls
}

func (s *ScriptedInput) Poll(keys *cpu.Keypad) error {
	s.polls++
	if s.quitAfter > 0 && s.polls > s.quitAfter {
		return cpu.ErrQuit
	}
	for _, k := range s.presses[s.polls] {
		keys.Press(k)
	}
	return nil
}
