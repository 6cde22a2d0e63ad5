package schema

// ResolvedElement is an element snapshot with every animated property replaced
// by its interpolated value. Opacity produced by engine-resolved transitions
// is already folded into the props.
type ResolvedElement struct {
	ID       string           `json:"id"`
	Kind     ElementKind      `json:"kind"`
	Name     string           `json:"name,omitempty"`
	Props    map[string]Value `json:"props"`
	Material string           `json:"material,omitempty"`
	Scene    string           `json:"scene,omitempty"`
}

// TransitionDirective tags a frame that falls inside a transition window whose
// kind the engine does not resolve itself. Progress runs 0 to 1 across the
// blend window; the backend interprets the blend math.
type TransitionDirective struct {
	FromScene string  `json:"from_scene"`
	ToScene   string  `json:"to_scene"`
	Kind      string  `json:"transition_kind"`
	Duration  float64 `json:"duration"`
	Progress  float64 `json:"progress"`
}

// ResolvedFrame is the pure snapshot of all active elements at one query time.
// Frames are fresh, independently owned values; computing one never mutates
// the Document.
type ResolvedFrame struct {
	Index      int                  `json:"index"`
	Time       float64              `json:"time"`
	Width      int                  `json:"width"`
	Height     int                  `json:"height"`
	Background Background           `json:"background"`
	Elements   []ResolvedElement    `json:"elements"`
	Transition *TransitionDirective `json:"transition,omitempty"`
	Particles  []ParticleEmitter    `json:"particles,omitempty"`
	Effects    []EffectDirective    `json:"effects,omitempty"`
}

// GeometryNode is one 3D primitive with its resolved transform.
type GeometryNode struct {
	ID       string           `json:"id"`
	Kind     ElementKind      `json:"kind"`
	Name     string           `json:"name,omitempty"`
	Position Position         `json:"position"`
	Rotation [3]float64       `json:"rotation,omitempty"`
	Scale    [3]float64       `json:"scale"`
	Material string           `json:"material,omitempty"`
	Props    map[string]Value `json:"props,omitempty"`
}

// GeometryGraph is the resolved 3D contract handed to mesh backends. Mesh
// tessellation and file serialization (OBJ/GLTF/STL) are entirely backend
// responsibility.
type GeometryGraph struct {
	Nodes     []GeometryNode      `json:"nodes"`
	Materials map[string]Material `json:"materials,omitempty"`
	Lights    []ResolvedElement   `json:"lights,omitempty"`
	Cameras   []ResolvedElement   `json:"cameras,omitempty"`
}
