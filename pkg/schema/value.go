package schema

import "fmt"

// ValueKind discriminates the Value tagged union.
type ValueKind string

const (
	ValueNumber    ValueKind = "number"
	ValueDimension ValueKind = "dimension"
	ValueColor     ValueKind = "color"
	ValuePosition  ValueKind = "position"
	ValueRange     ValueKind = "range"
	ValueList      ValueKind = "list"
	ValueString    ValueKind = "string"
	ValueIdent     ValueKind = "ident"
)

// Unit tags a Dimension value.
type Unit string

const (
	UnitNone    Unit = ""
	UnitPixels  Unit = "px"
	UnitDegrees Unit = "deg"
	UnitSeconds Unit = "s"
	UnitPercent Unit = "%"
)

// Color is an RGBA color with components in [0, 255]. Components are floats so
// that interpolation stays exact; backends quantize at the edge.
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

// RGB builds an opaque color.
func RGB(r, g, b float64) Color { return Color{R: r, G: g, B: b, A: 255} }

// Lerp linearly interpolates toward another color, component-wise in RGBA
// space (the same space colors are stored in — not perceptual).
func (c Color) Lerp(to Color, p float64) Color {
	return Color{
		R: c.R + (to.R-c.R)*p,
		G: c.G + (to.G-c.G)*p,
		B: c.B + (to.B-c.B)*p,
		A: c.A + (to.A-c.A)*p,
	}
}

// Position is an absolute coordinate. Z is zero for 2D documents. Anchor holds
// the symbolic name before resolution and is empty in any resolved Document.
type Position struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Z      float64 `json:"z,omitempty"`
	Anchor string  `json:"anchor,omitempty"`
}

// Lerp linearly interpolates toward another position, component-wise.
func (p Position) Lerp(to Position, t float64) Position {
	return Position{
		X: p.X + (to.X-p.X)*t,
		Y: p.Y + (to.Y-p.Y)*t,
		Z: p.Z + (to.Z-p.Z)*t,
	}
}

// Range holds the two endpoints of an animated property.
type Range struct {
	From Value `json:"from"`
	To   Value `json:"to"`
}

// Value is the closed tagged union over every form a property value can take
// after resolution. Symbolic forms (named colors, anchors, unit suffixes) are
// canonicalized by the Resolver; a resolved Document never contains an
// unresolved identifier.
type Value struct {
	Kind     ValueKind `json:"kind"`
	Number   float64   `json:"number,omitempty"`
	Unit     Unit      `json:"unit,omitempty"`
	Color    Color     `json:"color,omitempty"`
	Position Position  `json:"position,omitempty"`
	Range    *Range    `json:"range,omitempty"`
	List     []Value   `json:"list,omitempty"`
	Str      string    `json:"str,omitempty"`
}

// NumberValue builds a plain number.
func NumberValue(n float64) Value { return Value{Kind: ValueNumber, Number: n} }

// DimensionValue builds a unit-suffixed number.
func DimensionValue(n float64, u Unit) Value {
	return Value{Kind: ValueDimension, Number: n, Unit: u}
}

// ColorValue builds a color value.
func ColorValue(c Color) Value { return Value{Kind: ValueColor, Color: c} }

// PositionValue builds a position value.
func PositionValue(p Position) Value { return Value{Kind: ValuePosition, Position: p} }

// StringValue builds a string literal value.
func StringValue(s string) Value { return Value{Kind: ValueString, Str: s} }

// IdentValue builds an identifier/keyword value.
func IdentValue(s string) Value { return Value{Kind: ValueIdent, Str: s} }

// RangeValue builds a range value.
func RangeValue(from, to Value) Value {
	return Value{Kind: ValueRange, Range: &Range{From: from, To: to}}
}

// Scalar returns the numeric payload of a Number or Dimension value.
func (v Value) Scalar() (float64, bool) {
	if v.Kind == ValueNumber || v.Kind == ValueDimension {
		return v.Number, true
	}
	return 0, false
}

// Seconds returns the duration in seconds for a bare number or an s-suffixed
// dimension. Bare numbers default to seconds, matching the source language.
func (v Value) Seconds() (float64, bool) {
	switch v.Kind {
	case ValueNumber:
		return v.Number, true
	case ValueDimension:
		if v.Unit == UnitSeconds || v.Unit == UnitNone {
			return v.Number, true
		}
	}
	return 0, false
}

// Lerp interpolates between two values of the same kind with progress p in
// [0, 1]. Non-interpolable kinds snap to the destination at p >= 0.5.
func (v Value) Lerp(to Value, p float64) Value {
	switch v.Kind {
	case ValueNumber, ValueDimension:
		if n, ok := to.Scalar(); ok {
			out := v
			out.Number = v.Number + (n-v.Number)*p
			return out
		}
	case ValueColor:
		if to.Kind == ValueColor {
			return ColorValue(v.Color.Lerp(to.Color, p))
		}
	case ValuePosition:
		if to.Kind == ValuePosition {
			return PositionValue(v.Position.Lerp(to.Position, p))
		}
	}
	if p >= 0.5 {
		return to
	}
	return v
}

func (v Value) String() string {
	switch v.Kind {
	case ValueNumber:
		return fmt.Sprintf("%g", v.Number)
	case ValueDimension:
		return fmt.Sprintf("%g%s", v.Number, v.Unit)
	case ValueColor:
		return fmt.Sprintf("rgba(%g,%g,%g,%g)", v.Color.R, v.Color.G, v.Color.B, v.Color.A)
	case ValuePosition:
		return fmt.Sprintf("(%g,%g,%g)", v.Position.X, v.Position.Y, v.Position.Z)
	case ValueRange:
		return fmt.Sprintf("%s to %s", v.Range.From, v.Range.To)
	case ValueString:
		return fmt.Sprintf("%q", v.Str)
	case ValueIdent:
		return v.Str
	case ValueList:
		return fmt.Sprintf("list(%d)", len(v.List))
	}
	return string(v.Kind)
}
