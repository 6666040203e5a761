package lottie

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeProperty(t *testing.T, doc string) *Property {
	t.Helper()
	var p Property
	require.NoError(t, json.Unmarshal([]byte(doc), &p))
	return &p
}

func TestProperty_Static(t *testing.T) {
	p := decodeProperty(t, `{"a": 0, "k": 42}`)
	assert.False(t, p.Animated())
	assert.Equal(t, 42.0, p.Float(0, 0))
	assert.Equal(t, 42.0, p.Float(100, 0))

	v := decodeProperty(t, `{"a": 0, "k": [1, 2, 3]}`)
	x, y := v.Vec2(5, 0, 0)
	assert.Equal(t, 1.0, x)
	assert.Equal(t, 2.0, y)
}

func TestProperty_Nil(t *testing.T) {
	var p *Property
	assert.Equal(t, 7.0, p.Float(3, 7))
	x, y := p.Vec2(3, 100, 50)
	assert.Equal(t, 100.0, x)
	assert.Equal(t, 50.0, y)
}

func TestProperty_LinearKeyframes(t *testing.T) {
	p := decodeProperty(t, `{"a": 1, "k": [
		{"t": 10, "s": [100], "i": {"x": 1, "y": 1}, "o": {"x": 0, "y": 0}},
		{"t": 0, "s": [0], "i": {"x": 1, "y": 1}, "o": {"x": 0, "y": 0}},
		{"t": 20, "s": [50]}
	]}`)
	require.True(t, p.Animated())

	// keyframes are sorted by time on decode
	assert.Equal(t, 0.0, p.Float(-5, -1))
	assert.Equal(t, 0.0, p.Float(0, -1))
	assert.InDelta(t, 50.0, p.Float(5, -1), 1e-6)
	assert.InDelta(t, 100.0, p.Float(10, -1), 1e-6)
	assert.InDelta(t, 75.0, p.Float(15, -1), 1e-6)
	assert.Equal(t, 50.0, p.Float(30, -1))
}

func TestProperty_WithoutHandlesIsLinear(t *testing.T) {
	p := decodeProperty(t, `{"a": 1, "k": [{"t": 0, "s": [0, 0], "e": [10, 20]}, {"t": 10}]}`)
	x, y := p.Vec2(5, -1, -1)
	assert.InDelta(t, 5.0, x, 1e-9)
	assert.InDelta(t, 10.0, y, 1e-9)

	// past the last keyframe without its own value, the previous end holds
	x, y = p.Vec2(50, -1, -1)
	assert.Equal(t, 10.0, x)
	assert.Equal(t, 20.0, y)
}

func TestProperty_Hold(t *testing.T) {
	p := decodeProperty(t, `{"a": 1, "k": [{"t": 0, "s": [1], "h": 1}, {"t": 10, "s": [2]}]}`)
	assert.Equal(t, 1.0, p.Float(9.9, 0))
	assert.Equal(t, 2.0, p.Float(10, 0))
}

func TestProperty_EaseInOut(t *testing.T) {
	p := decodeProperty(t, `{"a": 1, "k": [
		{"t": 0, "s": [0], "o": {"x": [0.42], "y": [0]}, "i": {"x": [0.58], "y": [1]}},
		{"t": 100, "s": [100]}
	]}`)

	// symmetric ease-in-out: slow start, midpoint preserved, slow end
	assert.Less(t, p.Float(10, 0), 10.0)
	assert.InDelta(t, 50.0, p.Float(50, 0), 1e-3)
	assert.Greater(t, p.Float(90, 0), 90.0)
}

func TestCubicBezier_Bounds(t *testing.T) {
	assert.Equal(t, 0.0, cubicBezier(0.25, 0.1, 0.25, 1, 0))
	assert.Equal(t, 1.0, cubicBezier(0.25, 0.1, 0.25, 1, 1))
	assert.Equal(t, 0.3, cubicBezier(0.2, 0.2, 0.8, 0.8, 0.3))

	prev := 0.0
	for i := 1; i <= 10; i++ {
		v := cubicBezier(0.25, 0.1, 0.25, 1, float64(i)/10)
		assert.GreaterOrEqual(t, v, prev)
		prev = v
	}
}
