// Package player is a software playback engine for decoded Lottie
// animations. Each player renders into a lottietex.Surface from its own
// goroutine at the animation's frame rate.
package player

import (
	"errors"
	"image"
	"math"
	"sync"
	"time"

	"github.com/gekko3d/lottietex"
	"github.com/gekko3d/lottietex/lottie"
)

type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type TickerFunc func(interval time.Duration) Ticker

type realTicker struct {
	t *time.Ticker
}

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

func newRealTicker(interval time.Duration) Ticker {
	return realTicker{t: time.NewTicker(interval)}
}

type Option func(*Engine)

// WithTicker replaces the frame clock, mostly for tests.
func WithTicker(fn TickerFunc) Option {
	return func(e *Engine) { e.newTicker = fn }
}

func WithLogger(logger lottietex.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

type Engine struct {
	newTicker TickerFunc
	logger    lottietex.Logger
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		newTicker: newRealTicker,
		logger:    lottietex.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) LoadAnimation(params lottietex.PlayerParams) (lottietex.Player, error) {
	if params.Animation == nil {
		return nil, errors.New("player: nil animation")
	}
	if params.Surface == nil {
		return nil, errors.New("player: nil surface")
	}
	interval := params.Animation.FrameInterval()
	if interval <= 0 {
		return nil, errors.New("player: animation has no frame rate")
	}

	p := &Player{
		anim:     params.Animation,
		surface:  params.Surface,
		renderer: NewRenderer(params.Animation, params.Quality),
		onEvent:  params.OnEvent,
		loop:     params.Loop,
		logger:   e.logger,
		frame:    params.Animation.InPoint,
		playing:  params.Autoplay,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	go p.run(e.newTicker(interval))
	return p, nil
}

// Player plays one animation. Controls never block and may be called from
// event callbacks.
type Player struct {
	anim     *lottie.Animation
	surface  lottietex.Surface
	renderer *Renderer
	onEvent  func(lottietex.Event)
	loop     bool
	logger   lottietex.Logger

	mu         sync.Mutex
	frame      float64
	playing    bool
	finished   bool
	seekRender bool

	wake        chan struct{}
	done        chan struct{}
	destroyOnce sync.Once
}

func (p *Player) run(ticker Ticker) {
	defer ticker.Stop()

	p.mu.Lock()
	start, playing := p.frame, p.playing
	p.mu.Unlock()

	p.render(start)
	p.emit(lottietex.EventReady, start)
	if playing {
		p.emit(lottietex.EventEnterFrame, start)
	}

	for {
		select {
		case <-p.done:
			return
		case <-p.wake:
			p.flushSeek()
		case <-ticker.C():
			p.advance()
		}
	}
}

func (p *Player) lastFrame() float64 {
	return math.Max(p.anim.InPoint, math.Ceil(p.anim.OutPoint)-1)
}

func (p *Player) advance() {
	p.mu.Lock()
	if !p.playing {
		p.mu.Unlock()
		return
	}
	next := p.frame + 1
	wrapped := false
	if next > p.lastFrame() {
		if !p.loop {
			p.playing = false
			p.finished = true
			frame := p.frame
			p.mu.Unlock()
			p.emit(lottietex.EventComplete, frame)
			return
		}
		next = p.anim.InPoint
		wrapped = true
	}
	p.frame = next
	p.mu.Unlock()

	if wrapped {
		p.emit(lottietex.EventComplete, next)
	}
	p.render(next)
	p.emit(lottietex.EventEnterFrame, next)
}

func (p *Player) flushSeek() {
	p.mu.Lock()
	if !p.seekRender {
		p.mu.Unlock()
		return
	}
	p.seekRender = false
	frame := p.frame
	p.mu.Unlock()

	p.render(frame)
	p.emit(lottietex.EventEnterFrame, frame)
}

func (p *Player) render(frame float64) {
	p.surface.Draw(func(dst *image.RGBA) {
		p.renderer.RenderFrame(dst, frame)
	})
}

func (p *Player) emit(t lottietex.EventType, frame float64) {
	select {
	case <-p.done:
		return
	default:
	}
	if p.onEvent != nil {
		p.onEvent(lottietex.Event{Type: t, Frame: frame})
	}
}

func (p *Player) poke() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Play resumes playback. A non-looping animation that already completed
// starts over from its in point.
func (p *Player) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finished {
		p.finished = false
		p.frame = p.anim.InPoint
		p.seekRender = true
		p.poke()
	}
	p.playing = true
}

func (p *Player) Pause() {
	p.mu.Lock()
	p.playing = false
	p.mu.Unlock()
}

func (p *Player) GoToAndPlay(value float64, isFrame bool) {
	p.seek(value, isFrame, true)
}

func (p *Player) GoToAndStop(value float64, isFrame bool) {
	p.seek(value, isFrame, false)
}

// seek positions the player. value is a frame offset from the in point,
// or milliseconds when isFrame is false.
func (p *Player) seek(value float64, isFrame bool, play bool) {
	offset := value
	if !isFrame {
		offset = value / 1000 * p.anim.FrameRate
	}
	frame := math.Round(p.anim.InPoint + offset)
	frame = math.Max(p.anim.InPoint, math.Min(frame, p.lastFrame()))

	p.mu.Lock()
	p.frame = frame
	p.playing = play
	p.finished = false
	p.seekRender = true
	p.mu.Unlock()
	p.poke()
}

// CurrentFrame is the last frame the player moved to.
func (p *Player) CurrentFrame() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frame
}

func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// Destroy stops the player goroutine without waiting for it.
func (p *Player) Destroy() {
	p.destroyOnce.Do(func() {
		close(p.done)
		p.logger.Debugf("player: destroyed %q", p.anim.Name)
	})
}
