package timeline

import "github.com/tanema/gween/ease"

// easingFor maps source easing identifiers onto tween curves. Unknown or
// empty names fall back to linear; the resolver has already validated the
// closed set.
func easingFor(name string) ease.TweenFunc {
	switch name {
	case "ease_in":
		return ease.InCubic
	case "ease_out":
		return ease.OutCubic
	case "ease_in_out":
		return ease.InOutCubic
	}
	return ease.Linear
}

// eased applies a named easing curve to a clamped progress value.
func eased(name string, p float64) float64 {
	return float64(easingFor(name)(float32(p), 0, 1, 1))
}
