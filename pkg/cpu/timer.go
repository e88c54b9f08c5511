package cpu

import "time"

// TimerHz is the countdown rate of the delay and sound registers.
const TimerHz = 60

// TimerPeriod is the minimum wall time between two decrements of one register.
const TimerPeriod = time.Second / TimerHz

// Timers holds the delay and sound countdown registers. Each register keeps the
// time of its own last decrement and is checked against it on every Update,
// so the cadence does not depend on how often Update is called.
type Timers struct {
	Delay uint8
	Sound uint8

	// Period overrides TimerPeriod when non-zero.
	Period time.Duration

	lastDelay time.Time
	lastSound time.Time

	// Set by SetDelay/SetSound; the next Update anchors that register at its
	// own clock reading so the first decrement is a full period later.
	armDelay bool
	armSound bool
}

// Reset anchors both registers' cadence at now.
func (t *Timers) Reset(now time.Time) {
	t.lastDelay = now
	t.lastSound = now
	t.armDelay = false
	t.armSound = false
}

// SetDelay loads the delay register and restarts its cadence.
func (t *Timers) SetDelay(v uint8) {
	t.Delay = v
	t.armDelay = true
}

// SetSound loads the sound register and restarts its cadence.
func (t *Timers) SetSound(v uint8) {
	t.Sound = v
	t.armSound = true
}

// Update decrements each non-zero register whose period has elapsed and
// reports whether the tone should be audible.
func (t *Timers) Update(now time.Time) bool {
	period := t.period()
	countdown(&t.Delay, &t.lastDelay, &t.armDelay, now, period)
	countdown(&t.Sound, &t.lastSound, &t.armSound, now, period)
	return t.SoundActive()
}

func (t *Timers) period() time.Duration {
	if t.Period > 0 {
		return t.Period
	}
	return TimerPeriod
}

// SoundActive reports whether the sound register is still counting.
func (t *Timers) SoundActive() bool {
	return t.Sound > 0
}

// countdown applies at most one decrement per call. The anchor moves by a
// whole period so check jitter does not accumulate; after a stall longer than
// a period it snaps to now instead of bursting to catch up. An armed register
// is anchored at now and not decremented.
func countdown(reg *uint8, last *time.Time, armed *bool, now time.Time, period time.Duration) {
	if *armed {
		*armed = false
		*last = now
		return
	}
	if *reg == 0 {
		return
	}
	if now.Sub(*last) < period {
		return
	}
	*reg--
	*last = last.Add(period)
	if now.Sub(*last) >= period {
		*last = now
	}
}
