package lottietex

import (
	"time"
)

// Time is the app clock. Frame counts app ticks, not animation frames.
type Time struct {
	Start time.Time
	Time  time.Time
	Dt    time.Duration
	Frame uint64
}

func (t *Time) Elapsed() time.Duration {
	return t.Time.Sub(t.Start)
}

// TimeModule advances Time at the start of every tick. Now is replaceable
// for tests.
type TimeModule struct {
	Now func() time.Time
}

func (mod TimeModule) Install(app *App, cmd *Commands) {
	now := mod.Now
	if now == nil {
		now = time.Now
	}
	start := now()
	cmd.AddResources(&Time{Start: start, Time: start})
	app.UseSystem(System(func(t *Time) { advanceTime(t, now()) }).InStage(Prelude))
}

func advanceTime(t *Time, now time.Time) {
	t.Dt = now.Sub(t.Time)
	t.Time = now
	t.Frame++
}
