package schema

// DocumentKind is the top-level compilation target.
type DocumentKind string

const (
	DocImage   DocumentKind = "image"
	DocVideo   DocumentKind = "video"
	DocModel3D DocumentKind = "model3d"
)

// ElementKind enumerates every renderable/geometric variant. Each source block
// keyword maps to exactly one kind.
type ElementKind string

const (
	// 2D shapes
	ElemCircle    ElementKind = "circle"
	ElemRectangle ElementKind = "rectangle"
	ElemTriangle  ElementKind = "triangle"
	ElemPolygon   ElementKind = "polygon"
	ElemEllipse   ElementKind = "ellipse"
	ElemLine      ElementKind = "line"
	ElemArrow     ElementKind = "arrow"
	ElemPath      ElementKind = "path"
	ElemText      ElementKind = "text"

	// 3D primitives
	ElemCube       ElementKind = "cube"
	ElemSphere     ElementKind = "sphere"
	ElemCylinder   ElementKind = "cylinder"
	ElemCone       ElementKind = "cone"
	ElemPyramid    ElementKind = "pyramid"
	ElemTorus      ElementKind = "torus"
	ElemPlane      ElementKind = "plane"
	ElemCapsule    ElementKind = "capsule"
	ElemCustomMesh ElementKind = "custom_mesh"

	// Stage
	ElemLight  ElementKind = "light"
	ElemCamera ElementKind = "camera"
	ElemAudio  ElementKind = "audio"
)

// Is3D reports whether the kind is a 3D primitive.
func (k ElementKind) Is3D() bool {
	switch k {
	case ElemCube, ElemSphere, ElemCylinder, ElemCone, ElemPyramid,
		ElemTorus, ElemPlane, ElemCapsule, ElemCustomMesh:
		return true
	}
	return false
}

// TrackKind distinguishes endpoint interpolation from closed-form periodic
// presets.
type TrackKind string

const (
	TrackInterpolate TrackKind = "interpolate"
	TrackPeriodic    TrackKind = "periodic"
)

// AnimationTrack binds one element property to an interpolation rule.
// Invariant: Delay >= 0 and Duration > 0 for interpolating tracks; periodic
// tracks span the element's whole life window and ignore Duration.
type AnimationTrack struct {
	Property  string    `json:"property"`
	Kind      TrackKind `json:"track_kind"`
	Preset    string    `json:"preset,omitempty"`
	From      Value     `json:"from,omitempty"`
	To        Value     `json:"to,omitempty"`
	Delay     float64   `json:"delay"`
	Duration  float64   `json:"duration"`
	Easing    string    `json:"easing,omitempty"`
	Period    float64   `json:"period,omitempty"`
	Amplitude float64   `json:"amplitude,omitempty"`
}

// Element is one resolved renderable/geometric unit. Props holds the canonical
// property mapping (all symbols resolved); Tracks holds its time-varying
// bindings. Elements are owned by exactly one Document or Scene and are
// immutable after resolution.
type Element struct {
	ID       string           `json:"id"`
	Kind     ElementKind      `json:"kind"`
	Name     string           `json:"name,omitempty"`
	Props    map[string]Value `json:"props"`
	Material string           `json:"material,omitempty"`
	Tracks   []AnimationTrack `json:"tracks,omitempty"`
}

// Prop returns a property value by key.
func (e *Element) Prop(key string) (Value, bool) {
	v, ok := e.Props[key]
	return v, ok
}

// Transition describes the blend between two adjacent scenes.
type Transition struct {
	FromScene string  `json:"from_scene"`
	ToScene   string  `json:"to_scene,omitempty"`
	Kind      string  `json:"transition_kind"`
	Duration  float64 `json:"duration"`
}

// Scene is a named time window [Start, End) within a video document.
type Scene struct {
	Name       string      `json:"name"`
	Start      float64     `json:"start"`
	End        float64     `json:"end"`
	Elements   []Element   `json:"elements"`
	Transition *Transition `json:"transition,omitempty"`
}

// BackgroundKind discriminates flat and gradient backgrounds.
type BackgroundKind string

const (
	BackgroundFlat     BackgroundKind = "flat"
	BackgroundGradient BackgroundKind = "gradient"
)

// Background is the canvas fill. Gradients are two-stop, top to bottom.
type Background struct {
	Kind BackgroundKind `json:"background_kind"`
	Flat Color          `json:"flat,omitempty"`
	From Color          `json:"from,omitempty"`
	To   Color          `json:"to,omitempty"`
}

// Material carries named shading parameters through to 3D backends.
// No shading model is defined here; values are passed through verbatim.
type Material struct {
	Name      string  `json:"name"`
	Type      string  `json:"type,omitempty"`
	Color     Color   `json:"color"`
	Roughness float64 `json:"roughness,omitempty"`
	Metalness float64 `json:"metalness,omitempty"`
	Texture   string  `json:"texture,omitempty"`
}

// ExportTarget is one output directive. Format is inferred from the path
// extension. Quality applies to lossy raster formats only (0-100).
type ExportTarget struct {
	Path         string `json:"path"`
	Format       string `json:"format"`
	Quality      int    `json:"quality,omitempty"`
	WithTextures bool   `json:"with_textures,omitempty"`
}

// ParticleSpec configures one emitted particle population. Jitter fields are
// half-widths of uniform random spread applied by the backend.
type ParticleSpec struct {
	Velocity       [2]float64 `json:"velocity"`
	VelocityJitter [2]float64 `json:"velocity_jitter,omitempty"`
	Acceleration   [2]float64 `json:"acceleration,omitempty"`
	Lifetime       float64    `json:"lifetime"`
	LifetimeJitter float64    `json:"lifetime_jitter,omitempty"`
	Color          Color      `json:"color"`
	Size           float64    `json:"size"`
	SizeJitter     float64    `json:"size_jitter,omitempty"`
	Spread         float64    `json:"spread,omitempty"`
}

// ParticleEmitter is a resolved particle-system directive. The compiler
// validates and defaults it; simulation is backend work.
type ParticleEmitter struct {
	Name     string       `json:"name,omitempty"`
	Preset   string       `json:"preset,omitempty"`
	Position Position     `json:"position"`
	Rate     float64      `json:"rate"`
	Particle ParticleSpec `json:"particle"`
}

// EffectDirective is a resolved post-processing directive (glow, shake, ...)
// passed through to the backend with its parameters and active window.
type EffectDirective struct {
	Kind   string             `json:"effect_kind"`
	Params map[string]float64 `json:"params,omitempty"`
	Start  float64            `json:"start"`
	End    float64            `json:"end"`
}

// Document is the fully resolved top-level compiled unit. It is immutable
// after resolution; the timeline engine only reads it.
type Document struct {
	ID             string              `json:"id"`
	Kind           DocumentKind        `json:"document_kind"`
	Name           string              `json:"name,omitempty"`
	Width          int                 `json:"width"`
	Height         int                 `json:"height"`
	Background     Background          `json:"background"`
	Duration       float64             `json:"duration,omitempty"`
	FPS            int                 `json:"fps,omitempty"`
	Elements       []Element           `json:"elements"`
	Scenes         []Scene             `json:"scenes,omitempty"`
	Materials      map[string]Material `json:"materials,omitempty"`
	Exports        []ExportTarget      `json:"exports,omitempty"`
	Particles      []ParticleEmitter   `json:"particles,omitempty"`
	Effects        []EffectDirective   `json:"effects,omitempty"`
	PaletteVersion string              `json:"palette_version,omitempty"`
}

// FrameCount returns duration x fps for video documents, 1 otherwise.
func (d *Document) FrameCount() int {
	if d.Kind != DocVideo {
		return 1
	}
	return int(d.Duration * float64(d.FPS))
}
