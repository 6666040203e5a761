package lottietex

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/gekko3d/lottietex/lottie"
	"github.com/google/uuid"
)

type LoadRequest struct {
	// URL is absolute or relative to the loader path.
	URL string
	// WithCredentials is OR-ed with the loader-level setting.
	WithCredentials bool
}

type LoaderOption func(*Loader)

func WithFetcher(f Fetcher) LoaderOption {
	return func(l *Loader) { l.fetcher = f }
}

func WithDocument(d Document) LoaderOption {
	return func(l *Loader) { l.document = d }
}

func WithLogger(logger Logger) LoaderOption {
	return func(l *Loader) { l.logger = logger }
}

// WithConfig replaces the whole config. It is validated by NewLoader.
func WithConfig(cfg BridgeConfig) LoaderOption {
	return func(l *Loader) { l.cfg = cfg }
}

// Loader turns vector animations into live textures. Setters return the
// loader for chaining and only affect loads started after the call.
type Loader struct {
	engine   Engine
	fetcher  Fetcher
	document Document
	logger   Logger

	mu              sync.Mutex
	cfg             BridgeConfig
	path            string
	withCredentials bool
	err             error
}

func NewLoader(engine Engine, opts ...LoaderOption) (*Loader, error) {
	if engine == nil {
		return nil, newError(KindInvalidConfig, "", errors.New("nil engine"))
	}
	l := &Loader{
		engine: engine,
		cfg:    DefaultBridgeConfig(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if err := l.cfg.Validate(); err != nil {
		return nil, err
	}
	if l.fetcher == nil {
		l.fetcher = SchemeFetcher{HTTP: NewHTTPFetcher(), Files: FileFetcher{}}
	}
	if l.document == nil {
		l.document = NewOffscreenDocument()
	}
	if l.logger == nil {
		l.logger = NewNopLogger()
	}
	return l, nil
}

func (l *Loader) Config() BridgeConfig {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cfg
}

// Err returns the most recent rejected setter value, if any.
func (l *Loader) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

func (l *Loader) reject(err error) {
	l.err = err
	l.logger.Warnf("%v", err)
}

// SetQuality sets the surface resolution multiplier. Values that are not
// finite and > 0 are rejected and the previous value is kept.
func (l *Loader) SetQuality(q float64) *Loader {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !validQuality(q) {
		l.reject(newError(KindInvalidConfig, "", fmt.Errorf("rejected quality %v, keeping %v", q, l.cfg.Quality)))
		return l
	}
	l.cfg.Quality = q
	return l
}

func (l *Loader) SetLoop(loop bool) *Loader {
	l.mu.Lock()
	l.cfg.Loop = loop
	l.mu.Unlock()
	return l
}

func (l *Loader) SetAutoplay(autoplay bool) *Loader {
	l.mu.Lock()
	l.cfg.Autoplay = autoplay
	l.mu.Unlock()
	return l
}

// SetFrameThrottle marks the texture dirty on every nth frame. Values
// below 1 are rejected and the previous value is kept.
func (l *Loader) SetFrameThrottle(n int) *Loader {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n < 1 {
		l.reject(newError(KindInvalidConfig, "", fmt.Errorf("rejected frameThrottle %d, keeping %d", n, l.cfg.FrameThrottle)))
		return l
	}
	l.cfg.FrameThrottle = n
	return l
}

// SetPath sets the base path relative URLs are resolved against.
func (l *Loader) SetPath(path string) *Loader {
	l.mu.Lock()
	l.path = path
	l.mu.Unlock()
	return l
}

func (l *Loader) SetWithCredentials(v bool) *Loader {
	l.mu.Lock()
	l.withCredentials = v
	l.mu.Unlock()
	return l
}

// Load fetches and decodes an animation, starts a player on a hidden
// surface and hands back a LiveTexture once the first frame is rendered.
// It returns immediately. Exactly one of onLoad and onError is called;
// any callback may be nil. Callbacks run on loader or player goroutines.
func (l *Loader) Load(req LoadRequest, onLoad func(*LiveTexture), onProgress ProgressFunc, onError func(error)) {
	l.mu.Lock()
	sess := &session{
		id:          uuid.NewString(),
		url:         resolveURL(l.path, req.URL),
		cfg:         l.cfg,
		credentials: req.WithCredentials || l.withCredentials,
		logger:      l.logger,
		onLoad:      onLoad,
		onError:     onError,
	}
	l.mu.Unlock()

	go l.run(context.Background(), sess, onProgress)
}

// LoadContext is a blocking Load. If ctx ends first it returns ctx.Err();
// a texture produced later is disposed.
func (l *Loader) LoadContext(ctx context.Context, req LoadRequest) (*LiveTexture, error) {
	type result struct {
		tex *LiveTexture
		err error
	}
	done := make(chan result, 1)
	l.Load(req,
		func(tex *LiveTexture) { done <- result{tex: tex} },
		nil,
		func(err error) { done <- result{err: err} },
	)

	select {
	case res := <-done:
		return res.tex, res.err
	case <-ctx.Done():
		go func() {
			if res := <-done; res.tex != nil {
				res.tex.Dispose()
			}
		}()
		return nil, ctx.Err()
	}
}

func (l *Loader) run(ctx context.Context, sess *session, onProgress ProgressFunc) {
	log := sess.logger
	log.Debugf("lottie %s: loading %s", sess.id, sess.url)

	data, err := l.fetcher.Fetch(ctx, sess.url, FetchOptions{WithCredentials: sess.credentials}, onProgress)
	if err != nil {
		sess.fail(newError(KindFetchFailure, sess.url, err))
		return
	}
	log.Debugf("lottie %s: fetched %d bytes", sess.id, len(data))

	anim, err := lottie.Decode(data)
	if err != nil {
		sess.fail(newError(KindMalformedAnimationData, sess.url, err))
		return
	}
	sess.anim = anim
	sess.width, sess.height = anim.Size()

	sw := int(math.Ceil(float64(sess.width) * sess.cfg.Quality))
	sh := int(math.Ceil(float64(sess.height) * sess.cfg.Quality))
	surface, err := l.document.CreateSurface(sw, sh)
	if err != nil {
		sess.fail(newError(KindEngineFailure, sess.url, fmt.Errorf("failed to create surface: %w", err)))
		return
	}
	if err := surface.Attach(); err != nil {
		sess.fail(newError(KindEngineFailure, sess.url, fmt.Errorf("failed to attach surface: %w", err)))
		return
	}
	sess.surface = surface
	sess.texture = newLiveTexture(sess)

	player, err := l.engine.LoadAnimation(PlayerParams{
		Animation: anim,
		Surface:   surface,
		Loop:      sess.cfg.Loop,
		Autoplay:  sess.cfg.Autoplay,
		Quality:   sess.cfg.Quality,
		OnEvent:   sess.handleEvent,
	})
	if err != nil {
		surface.Detach()
		sess.fail(newError(KindEngineFailure, sess.url, err))
		return
	}

	sess.mu.Lock()
	sess.player = player
	readyEarly := sess.pendingReady
	sess.mu.Unlock()

	log.Debugf("lottie %s: player started on %dx%d surface", sess.id, sw, sh)
	if readyEarly {
		sess.announceReady()
	}
}

// session is one load call. player and surface belong to it alone.
type session struct {
	id          string
	url         string
	cfg         BridgeConfig
	credentials bool
	logger      Logger
	onLoad      func(*LiveTexture)
	onError     func(error)

	anim          *lottie.Animation
	width, height int
	surface       Surface
	texture       *LiveTexture
	frameCounter  atomic.Uint64

	mu           sync.Mutex
	player       Player
	pendingReady bool

	ready   atomic.Bool
	settled atomic.Bool
}

func (s *session) fail(err error) {
	if !s.settled.CompareAndSwap(false, true) {
		return
	}
	s.logger.Errorf("lottie %s: %v", s.id, err)
	if s.onError != nil {
		s.onError(err)
	}
}

func (s *session) handleEvent(ev Event) {
	switch ev.Type {
	case EventReady:
		if !s.ready.CompareAndSwap(false, true) {
			return
		}
		// the first frame is already on the surface
		s.texture.needsUpdate.Store(true)
		s.mu.Lock()
		if s.player == nil {
			// LoadAnimation has not returned yet, run finishes the handoff.
			s.pendingReady = true
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()
		s.announceReady()

	case EventEnterFrame:
		if !s.ready.Load() || s.texture.Disposed() {
			return
		}
		n := s.frameCounter.Add(1)
		throttle := uint64(s.cfg.FrameThrottle)
		if throttle <= 1 || n%throttle == 0 {
			s.texture.markDirty()
		}

	case EventComplete:
		if !s.ready.Load() || s.texture.Disposed() {
			return
		}
		s.texture.fireComplete()
	}
}

func (s *session) announceReady() {
	if !s.settled.CompareAndSwap(false, true) {
		return
	}
	s.logger.Debugf("lottie %s: ready %dx%d", s.id, s.width, s.height)
	if s.onLoad != nil {
		s.onLoad(s.texture)
	}
}
