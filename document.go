package lottietex

import (
	"fmt"
	"image"
	"sync"

	"github.com/google/uuid"
)

// SurfaceStyle describes how a surface sits in its document. Surfaces made
// for texturing are never meant to be seen or to take input.
type SurfaceStyle struct {
	Width         int
	Height        int
	Position      string
	ZIndex        int
	Opacity       float64
	Visibility    string
	PointerEvents string
}

func hiddenSurfaceStyle(width int, height int) SurfaceStyle {
	return SurfaceStyle{
		Width:         width,
		Height:        height,
		Position:      "fixed",
		ZIndex:        -1,
		Opacity:       0,
		Visibility:    "hidden",
		PointerEvents: "none",
	}
}

// Surface is a drawable pixel target. Draw and Read take the surface lock,
// so a player can write while a consumer copies.
type Surface interface {
	ID() string
	Bounds() image.Rectangle
	Draw(fn func(dst *image.RGBA))
	Read(fn func(src *image.RGBA))
	Attach() error
	Detach()
	Attached() bool
	Style() SurfaceStyle
}

type Document interface {
	CreateSurface(width int, height int) (Surface, error)
}

const DefaultMaxSurfaceDimension = 8192

// OffscreenDocument keeps surfaces in memory. It stands in for a browser
// document when the player renders in software.
type OffscreenDocument struct {
	MaxDimension int

	mu       sync.Mutex
	attached map[string]*offscreenSurface
}

func NewOffscreenDocument() *OffscreenDocument {
	return &OffscreenDocument{
		MaxDimension: DefaultMaxSurfaceDimension,
		attached:     make(map[string]*offscreenSurface),
	}
}

func (d *OffscreenDocument) CreateSurface(width int, height int) (Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid surface size %dx%d", width, height)
	}
	if d.MaxDimension > 0 && (width > d.MaxDimension || height > d.MaxDimension) {
		return nil, fmt.Errorf("surface %dx%d exceeds max dimension %d", width, height, d.MaxDimension)
	}
	return &offscreenSurface{
		id:    uuid.NewString(),
		doc:   d,
		img:   image.NewRGBA(image.Rect(0, 0, width, height)),
		style: hiddenSurfaceStyle(width, height),
	}, nil
}

// AttachedCount is the number of surfaces currently in the document.
func (d *OffscreenDocument) AttachedCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.attached)
}

func (d *OffscreenDocument) Lookup(id string) (Surface, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.attached[id]
	return s, ok
}

type offscreenSurface struct {
	id    string
	doc   *OffscreenDocument
	style SurfaceStyle

	mu  sync.RWMutex
	img *image.RGBA
}

func (s *offscreenSurface) ID() string              { return s.id }
func (s *offscreenSurface) Bounds() image.Rectangle { return s.img.Bounds() }
func (s *offscreenSurface) Style() SurfaceStyle     { return s.style }

func (s *offscreenSurface) Draw(fn func(dst *image.RGBA)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.img)
}

func (s *offscreenSurface) Read(fn func(src *image.RGBA)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.img)
}

func (s *offscreenSurface) Attach() error {
	s.doc.mu.Lock()
	defer s.doc.mu.Unlock()
	if _, ok := s.doc.attached[s.id]; ok {
		return fmt.Errorf("surface %s already attached", s.id)
	}
	s.doc.attached[s.id] = s
	return nil
}

func (s *offscreenSurface) Detach() {
	s.doc.mu.Lock()
	delete(s.doc.attached, s.id)
	s.doc.mu.Unlock()
}

func (s *offscreenSurface) Attached() bool {
	s.doc.mu.Lock()
	defer s.doc.mu.Unlock()
	_, ok := s.doc.attached[s.id]
	return ok
}
