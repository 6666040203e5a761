package lottietex

import (
	"github.com/gekko3d/lottietex/lottie"
)

type EventType int

const (
	// EventReady fires once, after the first frame has been rasterized.
	EventReady EventType = iota + 1
	// EventEnterFrame fires for every frame the player renders.
	EventEnterFrame
	// EventComplete fires at the end of every full playback pass.
	EventComplete
)

func (e EventType) String() string {
	switch e {
	case EventReady:
		return "ready"
	case EventEnterFrame:
		return "enterFrame"
	case EventComplete:
		return "complete"
	}
	return "unknown"
}

type Event struct {
	Type  EventType
	Frame float64
}

// PlayerParams is everything an Engine needs to start playback.
// OnEvent must be called serially, never from inside LoadAnimation.
type PlayerParams struct {
	Animation *lottie.Animation
	Surface   Surface
	Loop      bool
	Autoplay  bool
	Quality   float64
	OnEvent   func(Event)
}

// Engine produces frames into a surface on its own schedule.
type Engine interface {
	LoadAnimation(params PlayerParams) (Player, error)
}

type Player interface {
	Play()
	Pause()
	// GoToAndPlay seeks to a frame (isFrame) or a time in milliseconds.
	GoToAndPlay(value float64, isFrame bool)
	GoToAndStop(value float64, isFrame bool)
	// Destroy stops frame production. It must not wait on an in-flight
	// OnEvent call, since Dispose is commonly called from one.
	Destroy()
}
