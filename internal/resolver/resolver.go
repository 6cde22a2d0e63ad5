package resolver

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/siddharth-1118/creatorlang/internal/palette"
	"github.com/siddharth-1118/creatorlang/internal/parser"
	"github.com/siddharth-1118/creatorlang/pkg/schema"
)

// DefaultFrameBudget caps duration x fps for video documents.
const DefaultFrameBudget = 200000

// Default canvas geometry per document kind.
const (
	defaultImageWidth  = 800
	defaultImageHeight = 600
	defaultVideoWidth  = 1920
	defaultVideoHeight = 1080
)

// Resolver turns a parsed block tree into a fully resolved Document. A
// Resolver is single-use: ordinal ID state accumulates across one Resolve
// call. Resolving the same tree with a fresh Resolver yields a structurally
// identical Document.
type Resolver struct {
	palette  *palette.Palette
	stagger  *staggerEngine
	budget   int
	ordinals map[string]int
}

// Option customizes a Resolver.
type Option func(*Resolver)

// WithPalette swaps the builtin color palette for a custom one.
func WithPalette(p *palette.Palette) Option {
	return func(r *Resolver) { r.palette = p }
}

// WithFrameBudget overrides the video frame budget.
func WithFrameBudget(frames int) Option {
	return func(r *Resolver) { r.budget = frames }
}

// New returns a Resolver with the builtin palette and default frame budget.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		palette:  palette.Builtin(),
		stagger:  newStaggerEngine(),
		budget:   DefaultFrameBudget,
		ordinals: make(map[string]int),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve expands loops, canonicalizes every value and produces the Document.
func (r *Resolver) Resolve(root *parser.Node) (*schema.Document, error) {
	root, err := r.expandLoops(root)
	if err != nil {
		return nil, err
	}

	switch root.Kind {
	case "image", "video", "model3d":
	case "material":
		return nil, schema.NewError(schema.ErrCodeTypeMismatch,
			"material blocks live inside a model3d document").WithPos(root.Pos)
	default:
		return nil, schema.NewErrorf(schema.ErrCodeTypeMismatch,
			"%q cannot be a document root", root.Kind).WithPos(root.Pos)
	}

	doc := &schema.Document{
		Kind:           schema.DocumentKind(root.Kind),
		Name:           root.Name,
		Materials:      make(map[string]schema.Material),
		PaletteVersion: r.palette.Version(),
	}

	if err := r.resolveCanvas(root, doc); err != nil {
		return nil, err
	}
	if err := r.resolveBackground(root, doc); err != nil {
		return nil, err
	}

	window := [2]float64{0, doc.Duration}
	ctx := elemCtx{
		canvas: bbox{w: float64(doc.Width), h: float64(doc.Height)},
		window: window,
	}

	var sceneNodes, elementNodes []*parser.Node
	for _, child := range root.Children {
		switch child.Kind {
		case "scene":
			if doc.Kind != schema.DocVideo {
				return nil, schema.NewError(schema.ErrCodeTypeMismatch,
					"scenes are only valid in video documents").WithPos(child.Pos)
			}
			sceneNodes = append(sceneNodes, child)
		case "material":
			mat, err := r.resolveMaterial(child, ctx)
			if err != nil {
				return nil, err
			}
			doc.Materials[mat.Name] = mat
		case "particles":
			em, err := r.resolveParticles(child, ctx)
			if err != nil {
				return nil, err
			}
			doc.Particles = append(doc.Particles, em)
		case "effect":
			fx, err := r.resolveEffect(child, ctx, doc.Duration)
			if err != nil {
				return nil, err
			}
			doc.Effects = append(doc.Effects, fx)
		default:
			elementNodes = append(elementNodes, child)
		}
	}

	doc.Elements, err = r.resolveElements(elementNodes, ctx)
	if err != nil {
		return nil, err
	}

	doc.Scenes, err = r.resolveScenes(sceneNodes, ctx, doc.Duration)
	if err != nil {
		return nil, err
	}

	if err := r.resolveExports(root, doc); err != nil {
		return nil, err
	}

	if doc.Kind == schema.DocVideo && doc.FrameCount() > r.budget {
		return nil, schema.NewErrorf(schema.ErrCodeFrameBudgetExceeded,
			"%gs at %d fps is %d frames, budget is %d",
			doc.Duration, doc.FPS, doc.FrameCount(), r.budget).WithPos(root.Pos)
	}

	doc.ID = documentID(doc)
	return doc, nil
}

// resolveCanvas fills in size, duration and fps with per-kind defaults.
// Video documents must state both duration and fps.
func (r *Resolver) resolveCanvas(root *parser.Node, doc *schema.Document) error {
	doc.Width, doc.Height = defaultImageWidth, defaultImageHeight
	if doc.Kind == schema.DocVideo {
		doc.Width, doc.Height = defaultVideoWidth, defaultVideoHeight
	}

	if prop, ok := root.Prop("size"); ok {
		if len(prop.Values) != 1 || prop.Values[0].Kind != parser.ExprSize {
			return schema.NewError(schema.ErrCodeTypeMismatch,
				"size takes a WxH value").WithPos(prop.Pos)
		}
		doc.Width = int(prop.Values[0].W)
		doc.Height = int(prop.Values[0].H)
	}

	if doc.Kind != schema.DocVideo {
		return nil
	}

	prop, ok := root.Prop("duration")
	if !ok {
		return schema.NewError(schema.ErrCodeMissingRequiredField,
			"video documents require a duration").WithPos(root.Pos)
	}
	dur, err := resolveSeconds(prop)
	if err != nil {
		return err
	}
	if dur <= 0 {
		return schema.NewError(schema.ErrCodeValidation,
			"duration must be positive").WithPos(prop.Pos)
	}
	doc.Duration = dur

	prop, ok = root.Prop("fps")
	if !ok {
		return schema.NewError(schema.ErrCodeMissingRequiredField,
			"video documents require an fps").WithPos(root.Pos)
	}
	if len(prop.Values) != 1 || prop.Values[0].Kind != parser.ExprLiteral {
		return schema.NewError(schema.ErrCodeTypeMismatch,
			"fps takes a number").WithPos(prop.Pos)
	}
	fps, ok := prop.Values[0].Lit.Scalar()
	if !ok || fps <= 0 {
		return schema.NewError(schema.ErrCodeValidation,
			"fps must be a positive number").WithPos(prop.Pos)
	}
	doc.FPS = int(fps)
	return nil
}

// resolveBackground handles flat colors and two-stop gradients. Documents
// without a background statement get the flat sky blue default.
func (r *Resolver) resolveBackground(root *parser.Node, doc *schema.Document) error {
	prop, ok := root.Prop("background")
	if !ok {
		doc.Background = schema.Background{Kind: schema.BackgroundFlat, Flat: palette.SkyBlue}
		return nil
	}
	if len(prop.Values) != 1 {
		return schema.NewError(schema.ErrCodeTypeMismatch,
			"background takes one value").WithPos(prop.Pos)
	}

	v := prop.Values[0]
	if v.Kind == parser.ExprCall && v.Call == "gradient" {
		if len(v.Items) != 2 {
			return schema.NewErrorf(schema.ErrCodeTypeMismatch,
				"gradient takes 2 color stops, got %d", len(v.Items)).WithPos(v.Pos)
		}
		from, err := r.colorOf(v.Items[0])
		if err != nil {
			return err
		}
		to, err := r.colorOf(v.Items[1])
		if err != nil {
			return err
		}
		doc.Background = schema.Background{Kind: schema.BackgroundGradient, From: from, To: to}
		return nil
	}

	c, err := r.colorOf(v)
	if err != nil {
		return err
	}
	doc.Background = schema.Background{Kind: schema.BackgroundFlat, Flat: c}
	return nil
}

// colorOf resolves a color-bearing expression: a palette name, a hex literal
// or an rgb/rgba call.
func (r *Resolver) colorOf(v parser.ValueExpr) (schema.Color, error) {
	switch v.Kind {
	case parser.ExprLiteral:
		switch v.Lit.Kind {
		case schema.ValueColor:
			return v.Lit.Color, nil
		case schema.ValueIdent:
			c, ok := r.palette.Lookup(v.Lit.Str)
			if !ok {
				return schema.Color{}, schema.NewErrorf(schema.ErrCodeUnknownColor,
					"unknown color %q", v.Lit.Str).WithPos(v.Pos)
			}
			return c, nil
		}
	case parser.ExprCall:
		rv, err := r.resolveCall("color", v)
		if err != nil {
			return schema.Color{}, err
		}
		return rv.Color, nil
	}
	return schema.Color{}, schema.NewError(schema.ErrCodeTypeMismatch,
		"expected a color").WithPos(v.Pos)
}

// resolveScenes checks window ordering and backfills transition targets.
// Scenes must be declared in start order and may not overlap.
func (r *Resolver) resolveScenes(nodes []*parser.Node, ctx elemCtx, duration float64) ([]schema.Scene, error) {
	scenes := make([]schema.Scene, 0, len(nodes))
	for _, node := range nodes {
		if node.Window == nil {
			return nil, schema.NewErrorf(schema.ErrCodeMissingRequiredField,
				"scene %q needs a `from X to Y` window", node.Name).WithPos(node.Pos)
		}
		start, err := secondsOf(node.Window.From)
		if err != nil {
			return nil, err
		}
		end, err := secondsOf(node.Window.To)
		if err != nil {
			return nil, err
		}
		if end <= start {
			return nil, schema.NewErrorf(schema.ErrCodeValidation,
				"scene %q window must end after it starts", node.Name).WithPos(node.Pos)
		}
		if end > duration {
			return nil, schema.NewErrorf(schema.ErrCodeValidation,
				"scene %q extends past the %gs document", node.Name, duration).WithPos(node.Pos)
		}
		if n := len(scenes); n > 0 && start < scenes[n-1].End {
			return nil, schema.NewErrorf(schema.ErrCodeOverlappingSceneWindows,
				"scene %q starts at %gs, before %q ends at %gs",
				node.Name, start, scenes[n-1].Name, scenes[n-1].End).WithPos(node.Pos)
		}

		sceneCtx := ctx
		sceneCtx.window = [2]float64{start, end}
		elements, err := r.resolveElements(node.Children, sceneCtx)
		if err != nil {
			return nil, err
		}

		scene := schema.Scene{Name: node.Name, Start: start, End: end, Elements: elements}
		if prop, ok := node.Prop("transition"); ok {
			tr, err := resolveTransition(prop, node.Name)
			if err != nil {
				return nil, err
			}
			scene.Transition = tr
		}
		scenes = append(scenes, scene)
	}

	for i := range scenes {
		if scenes[i].Transition != nil && i+1 < len(scenes) {
			scenes[i].Transition.ToScene = scenes[i+1].Name
		}
	}
	return scenes, nil
}

// resolveTransition parses `transition KIND DURATION`. The kind is passed
// through; only fade and dissolve are engine-resolved downstream.
func resolveTransition(prop parser.Property, fromScene string) (*schema.Transition, error) {
	if len(prop.Values) != 2 ||
		prop.Values[0].Kind != parser.ExprLiteral ||
		prop.Values[0].Lit.Kind != schema.ValueIdent {
		return nil, schema.NewError(schema.ErrCodeTypeMismatch,
			"transition takes a kind and a duration").WithPos(prop.Pos)
	}
	dur, err := secondsOf(prop.Values[1])
	if err != nil {
		return nil, err
	}
	if dur <= 0 {
		return nil, schema.NewError(schema.ErrCodeValidation,
			"transition duration must be positive").WithPos(prop.Pos)
	}
	return &schema.Transition{
		FromScene: fromScene,
		Kind:      prop.Values[0].Lit.Str,
		Duration:  dur,
	}, nil
}

// resolveMaterial reads a named material block into the document table.
func (r *Resolver) resolveMaterial(node *parser.Node, ctx elemCtx) (schema.Material, error) {
	if node.Name == "" {
		return schema.Material{}, schema.NewError(schema.ErrCodeMissingRequiredField,
			"material blocks need a name").WithPos(node.Pos)
	}
	mat := schema.Material{Name: node.Name, Color: schema.RGB(255, 255, 255)}
	for _, prop := range node.Props {
		v, err := r.resolveProp(prop, ctx)
		if err != nil {
			return schema.Material{}, err
		}
		switch prop.Key {
		case "type":
			mat.Type = v.Str
		case "color":
			mat.Color = v.Color
		case "roughness":
			mat.Roughness, _ = v.Scalar()
		case "metalness":
			mat.Metalness, _ = v.Scalar()
		case "texture":
			mat.Texture = v.Str
		default:
			return schema.Material{}, schema.NewErrorf(schema.ErrCodeTypeMismatch,
				"material %q has no property %q", node.Name, prop.Key).WithPos(prop.Pos)
		}
	}
	return mat, nil
}

var knownParticlePresets = map[string]bool{
	"fire":      true,
	"explosion": true,
	"dust":      true,
}

// resolveParticles reads one particles block into an emitter with default
// rate, lifetime, size, and color. Simulation belongs to the backend; the
// compiler only validates.
func (r *Resolver) resolveParticles(node *parser.Node, ctx elemCtx) (schema.ParticleEmitter, error) {
	em := schema.ParticleEmitter{
		Name: node.Name,
		Rate: 10,
		Particle: schema.ParticleSpec{
			Lifetime: 1,
			Size:     4,
			Color:    schema.RGB(255, 255, 255),
		},
	}
	for _, prop := range node.Props {
		v, err := r.resolveProp(prop, ctx)
		if err != nil {
			return schema.ParticleEmitter{}, err
		}
		switch prop.Key {
		case "position", "emit_at":
			em.Position = v.Position
		case "preset":
			if !knownParticlePresets[v.Str] {
				return schema.ParticleEmitter{}, schema.NewErrorf(schema.ErrCodeUnknownPreset,
					"unknown particle preset %q; one of fire, explosion, dust", v.Str).WithPos(prop.Pos)
			}
			em.Preset = v.Str
		case "rate":
			em.Rate, _ = v.Scalar()
		case "velocity":
			if v.Kind == schema.ValueList && len(v.List) == 2 {
				em.Particle.Velocity[0], _ = v.List[0].Scalar()
				em.Particle.Velocity[1], _ = v.List[1].Scalar()
			}
		case "velocity_jitter":
			if v.Kind == schema.ValueList && len(v.List) == 2 {
				em.Particle.VelocityJitter[0], _ = v.List[0].Scalar()
				em.Particle.VelocityJitter[1], _ = v.List[1].Scalar()
			}
		case "acceleration":
			if v.Kind == schema.ValueList && len(v.List) == 2 {
				em.Particle.Acceleration[0], _ = v.List[0].Scalar()
				em.Particle.Acceleration[1], _ = v.List[1].Scalar()
			}
		case "lifetime":
			em.Particle.Lifetime, _ = v.Seconds()
		case "lifetime_jitter":
			em.Particle.LifetimeJitter, _ = v.Seconds()
		case "color":
			em.Particle.Color = v.Color
		case "size":
			em.Particle.Size, _ = v.Scalar()
		case "size_jitter":
			em.Particle.SizeJitter, _ = v.Scalar()
		case "spread":
			em.Particle.Spread, _ = v.Scalar()
		default:
			return schema.ParticleEmitter{}, schema.NewErrorf(schema.ErrCodeTypeMismatch,
				"particles have no property %q", prop.Key).WithPos(prop.Pos)
		}
	}
	if em.Rate <= 0 || em.Particle.Lifetime <= 0 {
		return schema.ParticleEmitter{}, schema.NewError(schema.ErrCodeValidation,
			"particle rate and lifetime must be positive").WithPos(node.Pos)
	}
	return em, nil
}

// resolveEffect reads one effect block. Unstated windows span the whole
// document; numeric statements become backend parameters.
func (r *Resolver) resolveEffect(node *parser.Node, ctx elemCtx, duration float64) (schema.EffectDirective, error) {
	if node.Name == "" {
		return schema.EffectDirective{}, schema.NewError(schema.ErrCodeMissingRequiredField,
			"effect blocks need a kind, e.g. `effect glow:`").WithPos(node.Pos)
	}
	fx := schema.EffectDirective{
		Kind:   node.Name,
		Params: make(map[string]float64),
		End:    duration,
	}
	for _, prop := range node.Props {
		switch prop.Key {
		case "from":
			sec, err := resolveSeconds(prop)
			if err != nil {
				return schema.EffectDirective{}, err
			}
			fx.Start = sec
		case "to":
			sec, err := resolveSeconds(prop)
			if err != nil {
				return schema.EffectDirective{}, err
			}
			fx.End = sec
		default:
			v, err := r.resolveProp(prop, ctx)
			if err != nil {
				return schema.EffectDirective{}, err
			}
			n, ok := v.Scalar()
			if !ok {
				return schema.EffectDirective{}, schema.NewErrorf(schema.ErrCodeTypeMismatch,
					"effect parameter %q must be numeric", prop.Key).WithPos(prop.Pos)
			}
			fx.Params[prop.Key] = n
		}
	}
	if fx.End <= fx.Start {
		return schema.EffectDirective{}, schema.NewErrorf(schema.ErrCodeValidation,
			"effect %q window must end after it starts", fx.Kind).WithPos(node.Pos)
	}
	return fx, nil
}

// resolveExports reads export and export_with_textures statements. Format
// comes from the path extension; quality applies to lossy rasters.
func (r *Resolver) resolveExports(root *parser.Node, doc *schema.Document) error {
	for _, prop := range root.Props {
		if prop.Key != "export" && prop.Key != "export_with_textures" {
			continue
		}
		if len(prop.Values) == 0 || prop.Values[0].Kind != parser.ExprLiteral ||
			prop.Values[0].Lit.Kind != schema.ValueString {
			return schema.NewError(schema.ErrCodeTypeMismatch,
				"export takes a quoted path").WithPos(prop.Pos)
		}
		target := schema.ExportTarget{
			Path:         prop.Values[0].Lit.Str,
			WithTextures: prop.Key == "export_with_textures",
		}
		target.Format = strings.TrimPrefix(strings.ToLower(filepath.Ext(target.Path)), ".")
		if target.Format == "" {
			return schema.NewErrorf(schema.ErrCodeValidation,
				"export path %q has no format extension", target.Path).WithPos(prop.Pos)
		}

		rest := prop.Values[1:]
		for len(rest) > 0 {
			if rest[0].Kind == parser.ExprLiteral && rest[0].Lit.Kind == schema.ValueIdent &&
				rest[0].Lit.Str == "quality" && len(rest) >= 2 {
				q, ok := rest[1].Lit.Scalar()
				if !ok || q < 0 || q > 100 {
					return schema.NewError(schema.ErrCodeValidation,
						"quality must be 0-100").WithPos(rest[1].Pos)
				}
				target.Quality = int(q)
				rest = rest[2:]
				continue
			}
			return schema.NewError(schema.ErrCodeTypeMismatch,
				"unexpected export argument").WithPos(rest[0].Pos)
		}
		doc.Exports = append(doc.Exports, target)
	}
	return nil
}

// resolveSeconds reads a single duration-valued property.
func resolveSeconds(prop parser.Property) (float64, error) {
	if len(prop.Values) != 1 {
		return 0, schema.NewErrorf(schema.ErrCodeTypeMismatch,
			"%q takes one duration", prop.Key).WithPos(prop.Pos)
	}
	return secondsOf(prop.Values[0])
}

// secondsOf converts a literal expression to seconds. Bare numbers are read
// as seconds.
func secondsOf(v parser.ValueExpr) (float64, error) {
	if v.Kind == parser.ExprLiteral {
		if sec, ok := v.Lit.Seconds(); ok {
			return sec, nil
		}
	}
	return 0, schema.NewError(schema.ErrCodeTypeMismatch,
		"expected a duration like 3s").WithPos(v.Pos)
}

// documentID derives a stable identity from the document's structural header,
// so re-resolving the same source reproduces the same ID.
func documentID(doc *schema.Document) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s|%s|%dx%d|%g|%d",
		doc.Kind, doc.Name, doc.Width, doc.Height, doc.Duration, doc.FPS))
	return hex.EncodeToString(sum[:8])
}
