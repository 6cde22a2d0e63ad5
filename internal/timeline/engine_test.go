package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siddharth-1118/creatorlang/pkg/schema"
)

func circleAt(id string, x, y float64, tracks ...schema.AnimationTrack) schema.Element {
	return schema.Element{
		ID:   id,
		Kind: schema.ElemCircle,
		Props: map[string]schema.Value{
			"position": schema.PositionValue(schema.Position{X: x, Y: y}),
			"radius":   schema.NumberValue(20),
			"opacity":  schema.NumberValue(1),
		},
		Tracks: tracks,
	}
}

func opacityOf(t *testing.T, el schema.ResolvedElement) float64 {
	t.Helper()
	n, ok := el.Props["opacity"].Scalar()
	require.True(t, ok)
	return n
}

func TestInterpolateEndpointExactness(t *testing.T) {
	track := schema.AnimationTrack{
		Property: "opacity",
		Kind:     schema.TrackInterpolate,
		From:     schema.NumberValue(0),
		To:       schema.NumberValue(1),
		Delay:    1,
		Duration: 0.5,
		Easing:   "linear",
	}
	doc := &schema.Document{
		Kind: schema.DocVideo, Width: 100, Height: 100, Duration: 5, FPS: 10,
		Elements: []schema.Element{circleAt("circle#1", 50, 50, track)},
	}
	eng := New(doc)

	// before the delay the property sits exactly on v0
	assert.Equal(t, 0.0, opacityOf(t, eng.Snapshot(0).Elements[0]))
	assert.Equal(t, 0.0, opacityOf(t, eng.Snapshot(1).Elements[0]))
	// local progress 0.5 under linear easing
	assert.InDelta(t, 0.5, opacityOf(t, eng.Snapshot(1.25).Elements[0]), 1e-12)
	// after delay+duration the property sits exactly on v1, no float drift
	assert.Equal(t, 1.0, opacityOf(t, eng.Snapshot(1.5).Elements[0]))
	assert.Equal(t, 1.0, opacityOf(t, eng.Snapshot(4).Elements[0]))
}

func TestMonotonicEasings(t *testing.T) {
	for _, name := range []string{"linear", "ease_in", "ease_out", "ease_in_out"} {
		prev := -1.0
		for p := 0.0; p <= 1.0; p += 0.05 {
			v := eased(name, p)
			assert.GreaterOrEqual(t, v, prev, "%s not monotonic at p=%g", name, p)
			prev = v
		}
		assert.InDelta(t, 0, eased(name, 0), 1e-6)
		assert.InDelta(t, 1, eased(name, 1), 1e-6)
	}
}

func sceneDoc(transitionKind string) *schema.Document {
	var tr *schema.Transition
	if transitionKind != "" {
		tr = &schema.Transition{
			FromScene: "a", ToScene: "b", Kind: transitionKind, Duration: 1,
		}
	}
	return &schema.Document{
		Kind: schema.DocVideo, Width: 100, Height: 100, Duration: 7, FPS: 10,
		Scenes: []schema.Scene{
			{Name: "a", Start: 0, End: 3, Elements: []schema.Element{circleAt("circle#1", 10, 10)}, Transition: tr},
			{Name: "b", Start: 3, End: 7, Elements: []schema.Element{circleAt("circle#2", 90, 90)}},
		},
	}
}

func TestSceneWindowFiltering(t *testing.T) {
	eng := New(sceneDoc(""))

	frame := eng.Snapshot(1)
	require.Len(t, frame.Elements, 1)
	assert.Equal(t, "circle#1", frame.Elements[0].ID)
	assert.Equal(t, "a", frame.Elements[0].Scene)

	// scene windows are half-open: at t=3 only scene b is live
	frame = eng.Snapshot(3)
	require.Len(t, frame.Elements, 1)
	assert.Equal(t, "circle#2", frame.Elements[0].ID)

	// the final boundary is inclusive so the last frame is not empty
	frame = eng.Snapshot(7)
	require.Len(t, frame.Elements, 1)
	assert.Equal(t, "circle#2", frame.Elements[0].ID)
}

func TestFadeTransitionCrossfade(t *testing.T) {
	eng := New(sceneDoc("fade"))

	// mid-blend: both scenes visible, opacities crossing at 0.5
	frame := eng.Snapshot(3)
	require.Len(t, frame.Elements, 2)
	byID := map[string]schema.ResolvedElement{}
	for _, el := range frame.Elements {
		byID[el.ID] = el
	}
	assert.InDelta(t, 0.5, opacityOf(t, byID["circle#1"]), 1e-12)
	assert.InDelta(t, 0.5, opacityOf(t, byID["circle#2"]), 1e-12)
	// fade is engine-resolved, no pass-through directive
	assert.Nil(t, frame.Transition)

	// early in the blend the outgoing scene dominates
	frame = eng.Snapshot(2.5)
	for _, el := range frame.Elements {
		byID[el.ID] = el
	}
	assert.InDelta(t, 0.75, opacityOf(t, byID["circle#1"]), 1e-12)
	assert.InDelta(t, 0.25, opacityOf(t, byID["circle#2"]), 1e-12)

	// outside the blend window the extension disappears
	frame = eng.Snapshot(4.5)
	require.Len(t, frame.Elements, 1)
	assert.Equal(t, "circle#2", frame.Elements[0].ID)
	assert.Equal(t, 1.0, opacityOf(t, frame.Elements[0]))
}

func TestPassThroughTransitionDirective(t *testing.T) {
	eng := New(sceneDoc("wipe_left"))

	frame := eng.Snapshot(2.75)
	require.NotNil(t, frame.Transition)
	assert.Equal(t, "wipe_left", frame.Transition.Kind)
	assert.Equal(t, "a", frame.Transition.FromScene)
	assert.Equal(t, "b", frame.Transition.ToScene)
	assert.InDelta(t, 0.375, frame.Transition.Progress, 1e-12)

	// both scenes' elements are handed over untouched for backend blending
	require.Len(t, frame.Elements, 2)
	for _, el := range frame.Elements {
		assert.Equal(t, 1.0, opacityOf(t, el))
	}
}

func TestPeriodicPresets(t *testing.T) {
	doc := &schema.Document{
		Kind: schema.DocVideo, Width: 100, Height: 100, Duration: 4, FPS: 10,
		Elements: []schema.Element{
			circleAt("circle#1", 50, 50, schema.AnimationTrack{
				Property: "scale", Kind: schema.TrackPeriodic, Preset: "pulse",
				Period: 1, Amplitude: 0.25,
			}),
			circleAt("circle#2", 50, 50, schema.AnimationTrack{
				Property: "position", Kind: schema.TrackPeriodic, Preset: "bounce",
				Period: 1, Amplitude: 25,
			}),
		},
	}
	for i := range doc.Elements {
		doc.Elements[i].Props["scale"] = schema.NumberValue(1)
	}
	eng := New(doc)

	at := func(tm float64) []schema.ResolvedElement { return eng.Snapshot(tm).Elements }

	// pulse peaks halfway through its period and returns to rest
	s0, _ := at(0)[0].Props["scale"].Scalar()
	sHalf, _ := at(0.5)[0].Props["scale"].Scalar()
	sFull, _ := at(1)[0].Props["scale"].Scalar()
	assert.InDelta(t, 1.0, s0, 1e-12)
	assert.InDelta(t, 1.25, sHalf, 1e-12)
	assert.InDelta(t, 1.0, sFull, 1e-9)

	// bounce lifts the element by its amplitude at the top of the hop
	top := at(0.5)[1].Props["position"].Position
	rest := at(0)[1].Props["position"].Position
	assert.InDelta(t, 50.0, rest.Y, 1e-9)
	assert.InDelta(t, 25.0, rest.Y-top.Y, 1e-9)
}

func TestSnapshotPurity(t *testing.T) {
	doc := sceneDoc("fade")
	eng := New(doc)

	a := eng.Snapshot(3)
	// scribbling on a frame must not leak into the document or later frames
	for _, el := range a.Elements {
		el.Props["opacity"] = schema.NumberValue(-99)
	}
	b := eng.Snapshot(3)
	for _, el := range b.Elements {
		assert.InDelta(t, 0.5, opacityOf(t, el), 1e-12)
	}
	assert.Equal(t, 1.0, doc.Scenes[0].Elements[0].Props["opacity"].Number)
}

func TestFrameAt(t *testing.T) {
	eng := New(sceneDoc(""))
	frame := eng.FrameAt(35)
	assert.Equal(t, 35, frame.Index)
	assert.Equal(t, 3.5, frame.Time)
}

func TestGeometryGraph(t *testing.T) {
	doc := &schema.Document{
		Kind: schema.DocModel3D, Width: 800, Height: 600,
		Materials: map[string]schema.Material{"steel": {Name: "steel", Type: "metallic"}},
		Elements: []schema.Element{
			{
				ID: "cube#1", Kind: schema.ElemCube, Material: "steel",
				Props: map[string]schema.Value{
					"position": schema.PositionValue(schema.Position{X: 1, Y: 2, Z: 3}),
					"rotation": schema.DimensionValue(45, schema.UnitDegrees),
					"scale":    schema.NumberValue(2),
					"size": {Kind: schema.ValueList, List: []schema.Value{
						schema.NumberValue(2), schema.NumberValue(2), schema.NumberValue(2),
					}},
				},
			},
			{
				ID: "light#1", Kind: schema.ElemLight,
				Props: map[string]schema.Value{
					"position": schema.PositionValue(schema.Position{X: 0, Y: 10, Z: 0}),
				},
			},
			{
				ID: "camera#1", Kind: schema.ElemCamera,
				Props: map[string]schema.Value{
					"position": schema.PositionValue(schema.Position{X: 0, Y: 0, Z: -10}),
				},
			},
		},
	}

	graph, err := New(doc).Geometry()
	require.NoError(t, err)
	require.Len(t, graph.Nodes, 1)
	node := graph.Nodes[0]
	assert.Equal(t, schema.Position{X: 1, Y: 2, Z: 3}, node.Position)
	assert.Equal(t, [3]float64{0, 0, 45}, node.Rotation)
	assert.Equal(t, [3]float64{2, 2, 2}, node.Scale)
	assert.Equal(t, "steel", node.Material)
	assert.NotContains(t, node.Props, "position")

	require.Len(t, graph.Lights, 1)
	require.Len(t, graph.Cameras, 1)

	_, err = New(&schema.Document{Kind: schema.DocImage}).Geometry()
	require.Error(t, err)
}
