package player

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/gekko3d/lottietex/lottie"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/vector"
)

// ellipse control point distance for a quarter circle
const kappa = 0.5522847498

// Renderer rasterizes frames of one animation. Not safe for concurrent use.
type Renderer struct {
	anim    *lottie.Animation
	quality float64
	raster  *vector.Rasterizer
	paths   []path
}

type path struct {
	cmds []pathCmd
}

type pathCmd struct {
	cube bool
	pts  [3]mgl32.Vec2
}

func NewRenderer(anim *lottie.Animation, quality float64) *Renderer {
	if quality <= 0 {
		quality = 1
	}
	return &Renderer{anim: anim, quality: quality}
}

// RenderFrame clears dst and draws the animation at frame.
func (r *Renderer) RenderFrame(dst *image.RGBA, frame float64) {
	draw.Draw(dst, dst.Bounds(), image.Transparent, image.Point{}, draw.Src)

	b := dst.Bounds()
	if r.raster == nil {
		r.raster = vector.NewRasterizer(b.Dx(), b.Dy())
	}

	root := mgl32.Scale2D(float32(r.quality), float32(r.quality))

	// layers[0] is the top-most layer
	for i := len(r.anim.Layers) - 1; i >= 0; i-- {
		layer := &r.anim.Layers[i]
		if !layer.Active(frame) {
			continue
		}
		m, opacity := transformAt(layer.Transform, frame)
		m = root.Mul3(m)

		switch layer.Type {
		case lottie.LayerSolid:
			r.drawSolid(dst, layer, m, opacity)
		case lottie.LayerShape:
			r.drawShapes(dst, layer.Shapes, m, opacity, frame)
		}
	}
}

// transformAt builds position * rotation * scale * -anchor.
func transformAt(t lottie.Transform, frame float64) (mgl32.Mat3, float64) {
	ax, ay := t.Anchor.Vec2(frame, 0, 0)
	px, py := t.Position.Vec2(frame, 0, 0)
	sx, sy := t.Scale.Vec2(frame, 100, 100)
	rot := t.Rotation.Float(frame, 0)
	opacity := t.Opacity.Float(frame, 100) / 100

	m := mgl32.Translate2D(float32(px), float32(py)).
		Mul3(mgl32.HomogRotate2D(float32(rot * math.Pi / 180))).
		Mul3(mgl32.Scale2D(float32(sx/100), float32(sy/100))).
		Mul3(mgl32.Translate2D(float32(-ax), float32(-ay)))
	return m, clamp01(opacity)
}

func (r *Renderer) drawSolid(dst *image.RGBA, layer *lottie.Layer, m mgl32.Mat3, opacity float64) {
	c, err := colorful.Hex(layer.SolidColor)
	if err != nil {
		return
	}
	w, h := float32(layer.SolidWidth), float32(layer.SolidHeight)
	if w <= 0 || h <= 0 {
		w, h = float32(r.anim.W), float32(r.anim.H)
	}
	r.paths = r.paths[:0]
	r.paths = append(r.paths, rectPath(0, 0, w, h))
	r.fill(dst, m, c, opacity)
}

// drawShapes draws one group level: nested groups first (later items sit
// below earlier ones), then this level's geometry with its first fill.
func (r *Renderer) drawShapes(dst *image.RGBA, items []lottie.Shape, parent mgl32.Mat3, opacity float64, frame float64) {
	m := parent
	for i := range items {
		if items[i].Type == lottie.ShapeTransform {
			local, o := transformAt(items[i].AsTransform(), frame)
			m = parent.Mul3(local)
			opacity *= o
			break
		}
	}

	for i := len(items) - 1; i >= 0; i-- {
		if items[i].Type == lottie.ShapeGroup && !items[i].Hidden {
			r.drawShapes(dst, items[i].Items, m, opacity, frame)
		}
	}

	var fill *lottie.Shape
	for i := range items {
		if items[i].Type == lottie.ShapeFill && !items[i].Hidden {
			fill = &items[i]
			break
		}
	}
	if fill == nil {
		return
	}

	r.paths = r.paths[:0]
	for i := range items {
		it := &items[i]
		if it.Hidden {
			continue
		}
		switch it.Type {
		case lottie.ShapeRect:
			cx, cy := it.Position.Vec2(frame, 0, 0)
			w, h := it.S.Vec2(frame, 0, 0)
			r.paths = append(r.paths, rectPath(float32(cx-w/2), float32(cy-h/2), float32(w), float32(h)))
		case lottie.ShapeEllipse:
			cx, cy := it.Position.Vec2(frame, 0, 0)
			w, h := it.S.Vec2(frame, 0, 0)
			r.paths = append(r.paths, ellipsePath(float32(cx), float32(cy), float32(w/2), float32(h/2)))
		}
	}
	if len(r.paths) == 0 {
		return
	}

	rgba := fill.Color.Value(frame, 0, 0, 0, 1)
	c := colorful.Color{R: numAt(rgba, 0), G: numAt(rgba, 1), B: numAt(rgba, 2)}
	alpha := opacity * clamp01(fill.Opacity.Float(frame, 100)/100)
	if len(rgba) > 3 {
		alpha *= clamp01(rgba[3])
	}
	r.fill(dst, m, c, alpha)
}

func (r *Renderer) fill(dst *image.RGBA, m mgl32.Mat3, c colorful.Color, alpha float64) {
	if alpha <= 0 {
		return
	}
	b := dst.Bounds()
	r.raster.Reset(b.Dx(), b.Dy())
	r.raster.DrawOp = draw.Over

	for _, p := range r.paths {
		for i, cmd := range p.cmds {
			a := apply(m, cmd.pts[0])
			switch {
			case i == 0:
				r.raster.MoveTo(a.X(), a.Y())
			case cmd.cube:
				b1 := apply(m, cmd.pts[1])
				c1 := apply(m, cmd.pts[2])
				r.raster.CubeTo(a.X(), a.Y(), b1.X(), b1.Y(), c1.X(), c1.Y())
			default:
				r.raster.LineTo(a.X(), a.Y())
			}
		}
		r.raster.ClosePath()
	}

	cr, cg, cb := c.Clamped().RGB255()
	src := image.NewUniform(color.NRGBA{R: cr, G: cg, B: cb, A: uint8(math.Round(clamp01(alpha) * 255))})
	r.raster.Draw(dst, b, src, image.Point{})
}

func apply(m mgl32.Mat3, p mgl32.Vec2) mgl32.Vec2 {
	v := m.Mul3x1(mgl32.Vec3{p.X(), p.Y(), 1})
	return mgl32.Vec2{v.X(), v.Y()}
}

func rectPath(x, y, w, h float32) path {
	return path{cmds: []pathCmd{
		{pts: [3]mgl32.Vec2{{x, y}}},
		{pts: [3]mgl32.Vec2{{x + w, y}}},
		{pts: [3]mgl32.Vec2{{x + w, y + h}}},
		{pts: [3]mgl32.Vec2{{x, y + h}}},
	}}
}

func ellipsePath(cx, cy, rx, ry float32) path {
	kx, ky := rx*kappa, ry*kappa
	return path{cmds: []pathCmd{
		{pts: [3]mgl32.Vec2{{cx + rx, cy}}},
		{cube: true, pts: [3]mgl32.Vec2{{cx + rx, cy + ky}, {cx + kx, cy + ry}, {cx, cy + ry}}},
		{cube: true, pts: [3]mgl32.Vec2{{cx - kx, cy + ry}, {cx - rx, cy + ky}, {cx - rx, cy}}},
		{cube: true, pts: [3]mgl32.Vec2{{cx - rx, cy - ky}, {cx - kx, cy - ry}, {cx, cy - ry}}},
		{cube: true, pts: [3]mgl32.Vec2{{cx + kx, cy - ry}, {cx + rx, cy - ky}, {cx + rx, cy}}},
	}}
}

func numAt(v []float64, i int) float64 {
	if i < len(v) {
		return v[i]
	}
	return 0
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
