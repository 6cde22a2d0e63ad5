package resolver

import (
	"github.com/siddharth-1118/creatorlang/internal/parser"
	"github.com/siddharth-1118/creatorlang/pkg/schema"
)

const defaultTrackDuration = 1.0 // seconds, when no duration statement given

// knownEasings is the closed set of easing identifiers. The timeline engine
// maps them onto cubic tween curves.
var knownEasings = map[string]bool{
	"linear": true, "ease_in": true, "ease_out": true, "ease_in_out": true,
}

// extractTracks turns range-valued properties and animation preset statements
// into AnimationTracks, leaving the base (From) value in Props. delay,
// duration and easing statements apply to every track of the element.
func (r *Resolver) extractTracks(node *parser.Node, elem *schema.Element, ctx elemCtx) ([]schema.AnimationTrack, error) {
	delay, duration, easing, err := r.trackControls(node, ctx)
	if err != nil {
		return nil, err
	}

	// Ranged properties become one interpolating track each; the property
	// itself holds the From endpoint. Tracks stay keyed by property until
	// assembly so a preset consuming one cannot disturb the others.
	var rangeOrder []string
	ranges := map[string]schema.AnimationTrack{}
	for _, prop := range node.Props {
		if controlKeys[prop.Key] {
			continue
		}
		v, ok := elem.Props[prop.Key]
		if !ok || v.Kind != schema.ValueRange {
			continue
		}
		ranges[prop.Key] = schema.AnimationTrack{
			Property: prop.Key,
			Kind:     schema.TrackInterpolate,
			From:     v.Range.From,
			To:       v.Range.To,
			Delay:    delay,
			Duration: duration,
			Easing:   easing,
		}
		rangeOrder = append(rangeOrder, prop.Key)
		elem.Props[prop.Key] = v.Range.From
	}

	// Named presets. An explicit range on the preset's target property
	// overrides the preset's endpoints but never its targeted property.
	var presets []schema.AnimationTrack
	for _, prop := range node.Props {
		if prop.Key != "animation" {
			continue
		}
		if len(prop.Values) != 1 || prop.Values[0].Kind != parser.ExprLiteral ||
			prop.Values[0].Lit.Kind != schema.ValueIdent {
			return nil, schema.NewError(schema.ErrCodeUnknownPreset,
				"animation takes a preset name").WithPos(prop.Pos)
		}
		name := prop.Values[0].Lit.Str
		track, err := r.presetTrack(name, elem, prop.Pos)
		if err != nil {
			return nil, err
		}
		track.Delay = delay
		if track.Kind == schema.TrackInterpolate {
			track.Duration = duration
			if easing != "" {
				track.Easing = easing
			}
			if rt, ok := ranges[track.Property]; ok {
				track.From = rt.From
				track.To = rt.To
				delete(ranges, track.Property)
				elem.Props[track.Property] = track.From
			} else if track.Property == "opacity" || track.Property == "scale" {
				elem.Props[track.Property] = track.From
			}
		}
		presets = append(presets, track)
	}

	// Unconsumed range tracks first, in declaration order, then presets.
	var tracks []schema.AnimationTrack
	for _, key := range rangeOrder {
		if rt, ok := ranges[key]; ok {
			tracks = append(tracks, rt)
		}
	}
	tracks = append(tracks, presets...)

	if ctx.window[1] > ctx.window[0] {
		windowLen := ctx.window[1] - ctx.window[0]
		for _, tr := range tracks {
			if tr.Kind != schema.TrackInterpolate {
				continue
			}
			if tr.Delay+tr.Duration > windowLen {
				return nil, schema.NewErrorf(schema.ErrCodeAnimationWindowOutOfBounds,
					"track on %q runs %gs past its %gs window",
					tr.Property, tr.Delay+tr.Duration-windowLen, windowLen).
					WithPos(node.Pos)
			}
		}
	}
	return tracks, nil
}

// trackControls reads the delay/duration/easing statements of a block.
func (r *Resolver) trackControls(node *parser.Node, ctx elemCtx) (delay, duration float64, easing string, err error) {
	duration = defaultTrackDuration
	if prop, ok := node.Prop("delay"); ok {
		v, rerr := r.resolveProp(prop, ctx)
		if rerr != nil {
			return 0, 0, "", rerr
		}
		sec, ok := v.Seconds()
		if !ok || sec < 0 {
			return 0, 0, "", schema.NewError(schema.ErrCodeValidation,
				"delay must be a non-negative duration").WithPos(prop.Pos)
		}
		delay = sec
	}
	if prop, ok := node.Prop("duration"); ok {
		v, rerr := r.resolveProp(prop, ctx)
		if rerr != nil {
			return 0, 0, "", rerr
		}
		sec, ok := v.Seconds()
		if !ok || sec <= 0 {
			return 0, 0, "", schema.NewError(schema.ErrCodeValidation,
				"duration must be a positive duration").WithPos(prop.Pos)
		}
		duration = sec
	}
	if prop, ok := node.Prop("easing"); ok {
		if len(prop.Values) == 1 && prop.Values[0].Kind == parser.ExprLiteral &&
			prop.Values[0].Lit.Kind == schema.ValueIdent &&
			knownEasings[prop.Values[0].Lit.Str] {
			easing = prop.Values[0].Lit.Str
		} else {
			return 0, 0, "", schema.NewError(schema.ErrCodeValidation,
				"easing must be one of linear, ease_in, ease_out, ease_in_out").
				WithPos(prop.Pos)
		}
	}
	return delay, duration, easing, nil
}

// slideOffset is how far slide presets travel, in canvas pixels.
const slideOffset = 160.0

// Periodic preset waveform constants. Bounce amplitude matches the original
// engine's 25px bob at one cycle per second.
const (
	pulseAmplitude = 0.25  // scale oscillates between 1.0 and 1.25
	pulsePeriod    = 1.0   // seconds per cycle
	bounceAmp      = 25.0  // px
	bouncePeriod   = 1.0   // seconds per hop
	shakeAmp       = 5.0   // px
	shakePeriod    = 0.125 // 8 Hz
	spinPeriod     = 1.0   // one full revolution per second
)

// presetTrack expands a named animation preset into its canonical track.
func (r *Resolver) presetTrack(name string, elem *schema.Element, pos schema.Pos) (schema.AnimationTrack, error) {
	base := basePosition(elem)
	slide := func(dx, dy float64) schema.AnimationTrack {
		from := schema.Position{X: base.X + dx, Y: base.Y + dy, Z: base.Z}
		return schema.AnimationTrack{
			Property: "position",
			Kind:     schema.TrackInterpolate,
			Preset:   name,
			From:     schema.PositionValue(from),
			To:       schema.PositionValue(base),
			Easing:   "ease_out",
		}
	}

	switch name {
	case "fade_in":
		return schema.AnimationTrack{
			Property: "opacity", Kind: schema.TrackInterpolate, Preset: name,
			From: schema.NumberValue(0), To: schema.NumberValue(1), Easing: "linear",
		}, nil
	case "fade_out":
		return schema.AnimationTrack{
			Property: "opacity", Kind: schema.TrackInterpolate, Preset: name,
			From: schema.NumberValue(1), To: schema.NumberValue(0), Easing: "linear",
		}, nil
	case "zoom_in":
		return schema.AnimationTrack{
			Property: "scale", Kind: schema.TrackInterpolate, Preset: name,
			From: schema.NumberValue(0.2), To: schema.NumberValue(1), Easing: "ease_out",
		}, nil
	case "zoom_out":
		return schema.AnimationTrack{
			Property: "scale", Kind: schema.TrackInterpolate, Preset: name,
			From: schema.NumberValue(1), To: schema.NumberValue(0.2), Easing: "ease_in",
		}, nil
	case "slide_up":
		return slide(0, slideOffset), nil
	case "slide_down":
		return slide(0, -slideOffset), nil
	case "slide_left":
		return slide(slideOffset, 0), nil
	case "slide_right":
		return slide(-slideOffset, 0), nil
	case "pulse":
		return schema.AnimationTrack{
			Property: "scale", Kind: schema.TrackPeriodic, Preset: name,
			Period: pulsePeriod, Amplitude: pulseAmplitude,
		}, nil
	case "bounce":
		return schema.AnimationTrack{
			Property: "position", Kind: schema.TrackPeriodic, Preset: name,
			Period: bouncePeriod, Amplitude: bounceAmp,
		}, nil
	case "shake":
		return schema.AnimationTrack{
			Property: "position", Kind: schema.TrackPeriodic, Preset: name,
			Period: shakePeriod, Amplitude: shakeAmp,
		}, nil
	case "spin":
		return schema.AnimationTrack{
			Property: "rotation", Kind: schema.TrackPeriodic, Preset: name,
			Period: spinPeriod, Amplitude: 360,
		}, nil
	}
	return schema.AnimationTrack{}, schema.NewErrorf(schema.ErrCodeUnknownPreset,
		"unknown animation preset %q", name).WithPos(pos)
}

func basePosition(elem *schema.Element) schema.Position {
	v, ok := elem.Props["position"]
	if !ok {
		return schema.Position{}
	}
	switch v.Kind {
	case schema.ValuePosition:
		return v.Position
	case schema.ValueRange:
		if v.Range.From.Kind == schema.ValuePosition {
			return v.Range.From.Position
		}
	}
	return schema.Position{}
}
