package lottie

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Numbers decodes either a single JSON number or an array of numbers.
type Numbers []float64

func (n *Numbers) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var values []float64
		if err := json.Unmarshal(data, &values); err != nil {
			return err
		}
		*n = values
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = Numbers{v}
	return nil
}

func (n Numbers) at(i int) float64 {
	if len(n) == 0 {
		return 0
	}
	if i < len(n) {
		return n[i]
	}
	return n[len(n)-1]
}

type Handle struct {
	X Numbers `json:"x"`
	Y Numbers `json:"y"`
}

type Keyframe struct {
	Time  float64 `json:"t"`
	Start Numbers `json:"s"`
	End   Numbers `json:"e"`
	In    *Handle `json:"i"`
	Out   *Handle `json:"o"`
	Hold  int     `json:"h"`
}

// Property is an animatable value: static when Keyframes is empty.
type Property struct {
	Static    Numbers
	Keyframes []Keyframe
}

func (p *Property) Animated() bool {
	return p != nil && len(p.Keyframes) > 0
}

func (p *Property) UnmarshalJSON(data []byte) error {
	var raw struct {
		A int             `json:"a"`
		K json.RawMessage `json:"k"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw.K) == 0 {
		return fmt.Errorf("property without value")
	}

	if isKeyframeList(raw.K) {
		var kfs []Keyframe
		if err := json.Unmarshal(raw.K, &kfs); err != nil {
			return fmt.Errorf("failed to decode keyframes: %w", err)
		}
		if len(kfs) == 0 {
			return fmt.Errorf("animated property without keyframes")
		}
		sort.SliceStable(kfs, func(i, j int) bool { return kfs[i].Time < kfs[j].Time })
		p.Keyframes = kfs
		return nil
	}

	if err := json.Unmarshal(raw.K, &p.Static); err != nil {
		return fmt.Errorf("failed to decode static value: %w", err)
	}
	return nil
}

func isKeyframeList(k json.RawMessage) bool {
	k = bytes.TrimSpace(k)
	if len(k) == 0 || k[0] != '[' {
		return false
	}
	rest := bytes.TrimSpace(k[1:])
	return len(rest) > 0 && rest[0] == '{'
}

// Value evaluates the property at frame. A nil property yields def.
func (p *Property) Value(frame float64, def ...float64) []float64 {
	if p == nil {
		return def
	}
	if len(p.Keyframes) == 0 {
		if len(p.Static) == 0 {
			return def
		}
		return p.Static
	}

	kfs := p.Keyframes
	if frame <= kfs[0].Time || len(kfs) == 1 {
		return kfs[0].Start
	}

	i := sort.Search(len(kfs), func(i int) bool { return kfs[i].Time > frame }) - 1
	if i >= len(kfs)-1 {
		last := kfs[len(kfs)-1]
		if len(last.Start) > 0 {
			return last.Start
		}
		return kfs[len(kfs)-2].endValue(last)
	}

	cur, next := kfs[i], kfs[i+1]
	from := cur.Start
	to := cur.endValue(next)
	if cur.Hold != 0 || len(to) == 0 {
		return from
	}

	span := next.Time - cur.Time
	if span <= 0 {
		return to
	}
	t := (frame - cur.Time) / span

	out := make([]float64, len(from))
	for d := range from {
		e := t
		if cur.Out != nil && cur.In != nil {
			e = cubicBezier(cur.Out.X.at(d), cur.Out.Y.at(d), cur.In.X.at(d), cur.In.Y.at(d), t)
		}
		out[d] = from[d] + (to.at(d)-from[d])*e
	}
	return out
}

func (kf Keyframe) endValue(next Keyframe) Numbers {
	if len(kf.End) > 0 {
		return kf.End
	}
	return next.Start
}

func (p *Property) Float(frame float64, def float64) float64 {
	v := p.Value(frame, def)
	if len(v) == 0 {
		return def
	}
	return v[0]
}

func (p *Property) Vec2(frame float64, defX, defY float64) (float64, float64) {
	v := p.Value(frame, defX, defY)
	switch len(v) {
	case 0:
		return defX, defY
	case 1:
		return v[0], v[0]
	}
	return v[0], v[1]
}

// cubicBezier evaluates the CSS-style timing curve through (0,0), (x1,y1),
// (x2,y2), (1,1) at progress x.
func cubicBezier(x1, y1, x2, y2, x float64) float64 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}
	if x1 == y1 && x2 == y2 {
		return x
	}

	sample := func(a1, a2, t float64) float64 {
		u := 1 - t
		return 3*u*u*t*a1 + 3*u*t*t*a2 + t*t*t
	}
	slope := func(a1, a2, t float64) float64 {
		u := 1 - t
		return 3*u*u*a1 + 6*u*t*(a2-a1) + 3*t*t*(1-a2)
	}

	t := x
	for i := 0; i < 8; i++ {
		dx := sample(x1, x2, t) - x
		if math.Abs(dx) < 1e-7 {
			return sample(y1, y2, t)
		}
		d := slope(x1, x2, t)
		if math.Abs(d) < 1e-6 {
			break
		}
		t -= dx / d
	}

	lo, hi := 0.0, 1.0
	t = x
	for i := 0; i < 32; i++ {
		v := sample(x1, x2, t)
		if math.Abs(v-x) < 1e-7 {
			break
		}
		if v < x {
			lo = t
		} else {
			hi = t
		}
		t = (lo + hi) / 2
	}
	return sample(y1, y2, t)
}
