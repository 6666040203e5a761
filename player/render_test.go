package player

import (
	"image"
	"image/color"
	"testing"

	"github.com/gekko3d/lottietex/lottie"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shapeAnimation = `{"v": "5.7", "fr": 30, "ip": 0, "op": 10, "w": 16, "h": 16, "layers": [
	{"ty": 4, "nm": "box", "ks": {}, "shapes": [
		{"ty": "gr", "it": [
			{"ty": "rc", "p": {"k": [8, 8]}, "s": {"k": [8, 8]}},
			{"ty": "fl", "c": {"k": [0, 0, 1, 1]}, "o": {"k": 100}},
			{"ty": "tr", "p": {"k": [0, 0]}, "a": {"k": [0, 0]}, "s": {"k": [100, 100]}}
		]}
	]},
	{"ty": 1, "nm": "bg", "sc": "#ff0000", "sw": 16, "sh": 16, "ks": {"o": {"k": 50}}}
]}`

func decode(t *testing.T, src string) *lottie.Animation {
	t.Helper()
	anim, err := lottie.Decode([]byte(src))
	require.NoError(t, err)
	return anim
}

func TestRenderer_SolidLayer(t *testing.T) {
	anim := decode(t, animationJSON(2))
	dst := image.NewRGBA(image.Rect(0, 0, 16, 16))

	NewRenderer(anim, 1).RenderFrame(dst, 0)

	assert.Equal(t, color.RGBA{R: 255, A: 255}, dst.RGBAAt(8, 8))
	assert.Equal(t, color.RGBA{R: 255, A: 255}, dst.RGBAAt(1, 14))
}

func TestRenderer_QualityScalesOutput(t *testing.T) {
	anim := decode(t, animationJSON(2))
	dst := image.NewRGBA(image.Rect(0, 0, 32, 32))

	NewRenderer(anim, 2).RenderFrame(dst, 0)

	assert.Equal(t, color.RGBA{R: 255, A: 255}, dst.RGBAAt(30, 30))
	assert.Equal(t, color.RGBA{R: 255, A: 255}, dst.RGBAAt(1, 1))
}

func TestRenderer_LayerOrder(t *testing.T) {
	anim := decode(t, shapeAnimation)
	dst := image.NewRGBA(image.Rect(0, 0, 16, 16))

	NewRenderer(anim, 1).RenderFrame(dst, 0)

	// the box sits on top of the half-transparent background
	assert.Equal(t, color.RGBA{B: 255, A: 255}, dst.RGBAAt(8, 8))

	corner := dst.RGBAAt(1, 1)
	assert.InDelta(t, 128, int(corner.A), 2)
	assert.Zero(t, corner.B)
	assert.NotZero(t, corner.R)
}

func TestRenderer_ClearsBetweenFrames(t *testing.T) {
	src := `{"fr": 30, "ip": 0, "op": 10, "w": 16, "h": 16, "layers": [
		{"ty": 1, "ip": 0, "op": 5, "sc": "#00ff00", "sw": 16, "sh": 16, "ks": {}}
	]}`
	anim := decode(t, src)
	dst := image.NewRGBA(image.Rect(0, 0, 16, 16))
	r := NewRenderer(anim, 1)

	r.RenderFrame(dst, 0)
	assert.Equal(t, color.RGBA{G: 255, A: 255}, dst.RGBAAt(4, 4))

	r.RenderFrame(dst, 7)
	assert.Equal(t, color.RGBA{}, dst.RGBAAt(4, 4))
}

func TestRenderer_AnimatedPosition(t *testing.T) {
	src := `{"fr": 30, "ip": 0, "op": 10, "w": 16, "h": 16, "layers": [
		{"ty": 1, "sc": "#ffffff", "sw": 4, "sh": 4, "ks": {
			"p": {"a": 1, "k": [{"t": 0, "s": [0, 0]}, {"t": 10, "s": [12, 12]}]}
		}}
	]}`
	anim := decode(t, src)
	dst := image.NewRGBA(image.Rect(0, 0, 16, 16))
	r := NewRenderer(anim, 1)

	r.RenderFrame(dst, 0)
	assert.Equal(t, uint8(255), dst.RGBAAt(1, 1).A)
	assert.Zero(t, dst.RGBAAt(14, 14).A)

	r.RenderFrame(dst, 10)
	assert.Zero(t, dst.RGBAAt(1, 1).A)
	assert.Equal(t, uint8(255), dst.RGBAAt(14, 14).A)
}
