// Package timeline evaluates a resolved Document at arbitrary query times.
// Snapshot is a pure function of (document, t): it never mutates the scene
// graph and is safe to call concurrently for disjoint times.
package timeline

import (
	"github.com/siddharth-1118/creatorlang/pkg/schema"
)

// Engine evaluates one immutable Document. The zero value is not usable;
// construct with New.
type Engine struct {
	doc *schema.Document
}

// New wraps a resolved document for evaluation.
func New(doc *schema.Document) *Engine {
	return &Engine{doc: doc}
}

// Duration returns the document's total duration in seconds (0 for images).
func (e *Engine) Duration() float64 { return e.doc.Duration }

// FrameCount returns the number of frames a full render produces.
func (e *Engine) FrameCount() int { return e.doc.FrameCount() }

// FrameAt evaluates frame i at time i/fps and stamps its index.
func (e *Engine) FrameAt(i int) *schema.ResolvedFrame {
	t := 0.0
	if e.doc.FPS > 0 {
		t = float64(i) / float64(e.doc.FPS)
	}
	frame := e.Snapshot(t)
	frame.Index = i
	return frame
}

// Snapshot produces the resolved frame at time t. Times outside
// [0, duration] are clamped. Elements outside their active window are
// omitted; animated properties are replaced by their interpolated values.
func (e *Engine) Snapshot(t float64) *schema.ResolvedFrame {
	doc := e.doc
	if t < 0 {
		t = 0
	}
	if doc.Duration > 0 && t > doc.Duration {
		t = doc.Duration
	}

	frame := &schema.ResolvedFrame{
		Time:       t,
		Width:      doc.Width,
		Height:     doc.Height,
		Background: doc.Background,
		Particles:  doc.Particles,
	}
	for _, fx := range doc.Effects {
		if fx.Start <= t && t <= fx.End {
			frame.Effects = append(frame.Effects, fx)
		}
	}

	// Document-level elements live across the full duration.
	for i := range doc.Elements {
		frame.Elements = append(frame.Elements, evalElement(&doc.Elements[i], 0, t, ""))
	}

	for i := range doc.Scenes {
		e.evalScene(frame, i, t)
	}
	return frame
}

// evalScene appends the scene's elements if t falls inside its window,
// extended by transition blending at the boundaries. fade and dissolve fold
// an opacity cross-fade into the elements; any other kind passes through as
// a tagged directive with both scenes' elements present for the backend.
func (e *Engine) evalScene(frame *schema.ResolvedFrame, i int, t float64) {
	doc := e.doc
	scene := &doc.Scenes[i]

	from, to := scene.Start, scene.End
	var fadeIn, fadeOut float64 = -1, -1 // blend weights, -1 = not blending

	// Transition out of the previous scene extends this one backwards.
	if i > 0 {
		if tr := doc.Scenes[i-1].Transition; tr != nil {
			boundary := doc.Scenes[i-1].End
			if t >= boundary-tr.Duration && t <= boundary+tr.Duration {
				from = boundary - tr.Duration
				fadeIn = blendWeight(t, boundary, tr.Duration)
				e.tagTransition(frame, tr, fadeIn)
			}
		}
	}
	// This scene's own transition extends it forwards.
	if tr := scene.Transition; tr != nil && i+1 < len(doc.Scenes) {
		boundary := scene.End
		if t >= boundary-tr.Duration && t <= boundary+tr.Duration {
			to = boundary + tr.Duration
			fadeOut = blendWeight(t, boundary, tr.Duration)
			e.tagTransition(frame, tr, fadeOut)
		}
	}

	active := from <= t && (t < to || (t == to && to == doc.Duration))
	if !active {
		return
	}

	for j := range scene.Elements {
		re := evalElement(&scene.Elements[j], scene.Start, t, scene.Name)
		if fadeIn >= 0 && transitionResolved(doc.Scenes[i-1].Transition) {
			scaleOpacity(re.Props, fadeIn)
		}
		if fadeOut >= 0 && transitionResolved(scene.Transition) {
			scaleOpacity(re.Props, 1-fadeOut)
		}
		frame.Elements = append(frame.Elements, re)
	}
}

// blendWeight runs 0 to 1 as t crosses [boundary-tau, boundary+tau].
func blendWeight(t, boundary, tau float64) float64 {
	w := (t - (boundary - tau)) / (2 * tau)
	return clamp01(w)
}

// transitionResolved reports whether the engine blends the kind itself.
func transitionResolved(tr *schema.Transition) bool {
	return tr != nil && (tr.Kind == "fade" || tr.Kind == "dissolve")
}

// tagTransition attaches the pass-through directive for kinds the engine does
// not blend itself.
func (e *Engine) tagTransition(frame *schema.ResolvedFrame, tr *schema.Transition, progress float64) {
	if transitionResolved(tr) || frame.Transition != nil {
		return
	}
	frame.Transition = &schema.TransitionDirective{
		FromScene: tr.FromScene,
		ToScene:   tr.ToScene,
		Kind:      tr.Kind,
		Duration:  tr.Duration,
		Progress:  progress,
	}
}

// evalElement snapshots one element at document time t. elemStart anchors the
// element's local clock (its scene's start, or 0 at document level).
func evalElement(el *schema.Element, elemStart, t float64, scene string) schema.ResolvedElement {
	props := make(map[string]schema.Value, len(el.Props))
	for k, v := range el.Props {
		props[k] = v
	}

	tl := t - elemStart
	for _, track := range el.Tracks {
		switch track.Kind {
		case schema.TrackInterpolate:
			props[track.Property] = interpolate(track, tl)
		case schema.TrackPeriodic:
			applyPeriodic(props, track, tl)
		}
	}

	return schema.ResolvedElement{
		ID:       el.ID,
		Kind:     el.Kind,
		Name:     el.Name,
		Props:    props,
		Material: el.Material,
		Scene:    scene,
	}
}

// interpolate evaluates one endpoint track at local time tl. Endpoints are
// returned exactly rather than through the lerp, so t = start yields v0 and
// t = start+delay+duration yields v1 with no float drift.
func interpolate(track schema.AnimationTrack, tl float64) schema.Value {
	if track.Duration <= 0 {
		return track.To
	}
	p := clamp01((tl - track.Delay) / track.Duration)
	switch {
	case p <= 0:
		return track.From
	case p >= 1:
		return track.To
	}
	return track.From.Lerp(track.To, eased(track.Easing, p))
}

func scaleOpacity(props map[string]schema.Value, factor float64) {
	base := 1.0
	if v, ok := props["opacity"]; ok {
		if n, ok := v.Scalar(); ok {
			base = n
		}
	}
	props["opacity"] = schema.NumberValue(base * factor)
}

func clamp01(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
