package timeline

import (
	"math"

	"github.com/siddharth-1118/creatorlang/pkg/schema"
)

// applyPeriodic evaluates a closed-form periodic track at local time tl and
// writes the result into the resolved props. Periodic tracks never finish;
// they oscillate for the element's whole life window.
func applyPeriodic(props map[string]schema.Value, track schema.AnimationTrack, tl float64) {
	if track.Period <= 0 {
		return
	}

	switch track.Preset {
	case "pulse":
		// scale swings between 1x and (1+A)x, one cycle per period.
		factor := 1 + track.Amplitude/2*(1-math.Cos(2*math.Pi*tl/track.Period))
		base := 1.0
		if v, ok := props[track.Property]; ok {
			if n, ok := v.Scalar(); ok {
				base = n
			}
		}
		props[track.Property] = schema.NumberValue(base * factor)

	case "bounce":
		// upward hop of Amplitude px, |sin| so the element never dips below
		// its resting position.
		offset := track.Amplitude * math.Abs(math.Sin(math.Pi*tl/track.Period))
		shiftPosition(props, track.Property, 0, -offset)

	case "shake":
		offset := track.Amplitude * math.Sin(2*math.Pi*tl/track.Period)
		shiftPosition(props, track.Property, offset, 0)

	case "spin":
		base := 0.0
		if v, ok := props[track.Property]; ok {
			if n, ok := v.Scalar(); ok {
				base = n
			}
		}
		deg := math.Mod(base+360*tl/track.Period, 360)
		props[track.Property] = schema.DimensionValue(deg, schema.UnitDegrees)
	}
}

func shiftPosition(props map[string]schema.Value, key string, dx, dy float64) {
	v, ok := props[key]
	if !ok || v.Kind != schema.ValuePosition {
		return
	}
	p := v.Position
	p.X += dx
	p.Y += dy
	props[key] = schema.PositionValue(p)
}
