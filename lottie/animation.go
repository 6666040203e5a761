// Package lottie decodes the subset of the Lottie (bodymovin) JSON format
// that the software player can rasterize: solid and shape layers with
// rectangles, ellipses, fills and transforms, static or keyframed.
package lottie

import (
	"math"
	"time"
)

type LayerType int

const (
	LayerPrecomp LayerType = 0
	LayerSolid   LayerType = 1
	LayerImage   LayerType = 2
	LayerNull    LayerType = 3
	LayerShape   LayerType = 4
	LayerText    LayerType = 5
)

type Animation struct {
	Version   string  `json:"v"`
	Name      string  `json:"nm"`
	FrameRate float64 `json:"fr"`
	InPoint   float64 `json:"ip"`
	OutPoint  float64 `json:"op"`
	W         float64 `json:"w"`
	H         float64 `json:"h"`
	Layers    []Layer `json:"layers"`
}

// Size is the declared canvas size in pixels.
func (a *Animation) Size() (width int, height int) {
	return int(math.Ceil(a.W)), int(math.Ceil(a.H))
}

// TotalFrames is the number of frames in [InPoint, OutPoint).
func (a *Animation) TotalFrames() int {
	return int(math.Ceil(a.OutPoint - a.InPoint))
}

func (a *Animation) Duration() time.Duration {
	if a.FrameRate <= 0 {
		return 0
	}
	return time.Duration((a.OutPoint - a.InPoint) / a.FrameRate * float64(time.Second))
}

// FrameInterval is the wall-clock time between two frames.
func (a *Animation) FrameInterval() time.Duration {
	if a.FrameRate <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / a.FrameRate)
}

type Layer struct {
	Type        LayerType `json:"ty"`
	Name        string    `json:"nm"`
	Index       int       `json:"ind"`
	InPoint     float64   `json:"ip"`
	OutPoint    float64   `json:"op"`
	Hidden      bool      `json:"hd"`
	Transform   Transform `json:"ks"`
	SolidColor  string    `json:"sc"`
	SolidWidth  float64   `json:"sw"`
	SolidHeight float64   `json:"sh"`
	Shapes      []Shape   `json:"shapes"`
}

// Active reports whether the layer is visible at frame. A layer without a
// usable in/out range is always active.
func (l *Layer) Active(frame float64) bool {
	if l.Hidden {
		return false
	}
	if l.OutPoint <= l.InPoint {
		return true
	}
	return frame >= l.InPoint && frame < l.OutPoint
}

type Transform struct {
	Anchor   *Property `json:"a"`
	Position *Property `json:"p"`
	Scale    *Property `json:"s"`
	Rotation *Property `json:"r"`
	Opacity  *Property `json:"o"`
}

// Shape item types.
const (
	ShapeGroup     = "gr"
	ShapeRect      = "rc"
	ShapeEllipse   = "el"
	ShapeFill      = "fl"
	ShapeTransform = "tr"
)

// Shape holds any shape item. Field meaning depends on Type: for "tr" the
// s and r keys are scale and rotation, for "rc" they are size and roundness.
type Shape struct {
	Type     string    `json:"ty"`
	Name     string    `json:"nm"`
	Hidden   bool      `json:"hd"`
	Items    []Shape   `json:"it"`
	Anchor   *Property `json:"a"`
	Position *Property `json:"p"`
	S        *Property `json:"s"`
	R        *Property `json:"r"`
	Color    *Property `json:"c"`
	Opacity  *Property `json:"o"`
}

// AsTransform reinterprets a "tr" item.
func (s *Shape) AsTransform() Transform {
	return Transform{
		Anchor:   s.Anchor,
		Position: s.Position,
		Scale:    s.S,
		Rotation: s.R,
		Opacity:  s.Opacity,
	}
}
