package lottietex

import (
	"image"
	"image/draw"
	"sync"
	"sync/atomic"

	"github.com/gekko3d/lottietex/lottie"
)

type FilterMode int

const (
	FilterNearest FilterMode = iota
	FilterLinear
)

type ColorSpace int

const (
	ColorSpaceSRGB ColorSpace = iota
	ColorSpaceLinear
)

// SamplingPolicy says how a consumer should sample an uploaded texture.
type SamplingPolicy struct {
	MinFilter        FilterMode
	MagFilter        FilterMode
	GenerateMipmaps  bool
	ColorSpace       ColorSpace
	PremultiplyAlpha bool
}

// Vector animation surfaces are small, 2D and already alpha-composited.
var liveTextureSampling = SamplingPolicy{
	MinFilter:        FilterLinear,
	MagFilter:        FilterLinear,
	GenerateMipmaps:  false,
	ColorSpace:       ColorSpaceSRGB,
	PremultiplyAlpha: true,
}

// LiveTexture is a renderer-consumable image whose pixels are produced by
// an animation player. Consumers poll NeedsUpdate (or ConsumeUpdate) once
// per render tick and re-upload the surface when it is set.
type LiveTexture struct {
	sess *session

	needsUpdate atomic.Bool
	version     atomic.Uint64

	mu       sync.Mutex
	disposed atomic.Bool

	completeMu sync.Mutex
	onComplete func()
}

func newLiveTexture(sess *session) *LiveTexture {
	return &LiveTexture{sess: sess}
}

func (t *LiveTexture) ID() string {
	return t.sess.id
}

// Width is the surface width in pixels, the animation width times quality.
func (t *LiveTexture) Width() int {
	return t.sess.surface.Bounds().Dx()
}

func (t *LiveTexture) Height() int {
	return t.sess.surface.Bounds().Dy()
}

// AnimationSize is the size declared by the animation data.
func (t *LiveTexture) AnimationSize() (int, int) {
	return t.sess.width, t.sess.height
}

func (t *LiveTexture) Animation() *lottie.Animation {
	return t.sess.anim
}

func (t *LiveTexture) Sampling() SamplingPolicy {
	return liveTextureSampling
}

// Image returns a copy of the current surface pixels.
func (t *LiveTexture) Image() image.Image {
	var out *image.RGBA
	t.sess.surface.Read(func(src *image.RGBA) {
		out = image.NewRGBA(src.Bounds())
		draw.Draw(out, out.Bounds(), src, src.Bounds().Min, draw.Src)
	})
	return out
}

// ReadPixels gives fn locked access to the surface. fn must not retain src.
func (t *LiveTexture) ReadPixels(fn func(src *image.RGBA)) error {
	if t.Disposed() {
		return t.disposedError()
	}
	t.sess.surface.Read(fn)
	return nil
}

func (t *LiveTexture) NeedsUpdate() bool {
	return t.needsUpdate.Load()
}

// ConsumeUpdate clears the dirty flag and reports whether it was set.
func (t *LiveTexture) ConsumeUpdate() bool {
	return t.needsUpdate.Swap(false)
}

func (t *LiveTexture) MarkUploaded() {
	t.needsUpdate.Store(false)
}

// Version counts how many times a rendered frame marked the texture
// dirty. The initial upload flag set at ready is not counted.
func (t *LiveTexture) Version() uint64 {
	return t.version.Load()
}

// FramesObserved is the number of frames the player has produced since
// the texture became ready.
func (t *LiveTexture) FramesObserved() uint64 {
	return t.sess.frameCounter.Load()
}

func (t *LiveTexture) markDirty() {
	t.version.Add(1)
	t.needsUpdate.Store(true)
}

// SetOnComplete installs the callback run at the end of every playback
// pass. It runs on the player's goroutine.
func (t *LiveTexture) SetOnComplete(fn func()) {
	t.completeMu.Lock()
	t.onComplete = fn
	t.completeMu.Unlock()
}

func (t *LiveTexture) fireComplete() {
	t.completeMu.Lock()
	fn := t.onComplete
	t.completeMu.Unlock()
	if fn != nil {
		fn()
	}
}

func (t *LiveTexture) Play() error {
	return t.control("play", func(p Player) { p.Play() })
}

func (t *LiveTexture) Pause() error {
	return t.control("pause", func(p Player) { p.Pause() })
}

func (t *LiveTexture) GoToAndPlay(value float64, isFrame bool) error {
	return t.control("goToAndPlay", func(p Player) { p.GoToAndPlay(value, isFrame) })
}

func (t *LiveTexture) GoToAndStop(value float64, isFrame bool) error {
	return t.control("goToAndStop", func(p Player) { p.GoToAndStop(value, isFrame) })
}

func (t *LiveTexture) control(name string, fn func(p Player)) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.disposed.Load() {
		t.sess.logger.Warnf("lottie %s: %s called after dispose", t.sess.id, name)
		return t.disposedError()
	}
	fn(t.sess.player)
	return nil
}

func (t *LiveTexture) disposedError() error {
	return newError(KindUseAfterDispose, t.sess.url, nil)
}

// Dispose destroys the player and removes the surface from its document.
// Calling it again is a no-op.
func (t *LiveTexture) Dispose() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.disposed.Load() {
		return
	}
	t.disposed.Store(true)
	t.needsUpdate.Store(false)
	t.sess.player.Destroy()
	t.sess.surface.Detach()
	t.sess.logger.Debugf("lottie %s: disposed", t.sess.id)
}

func (t *LiveTexture) Disposed() bool {
	return t.disposed.Load()
}
