package palette

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/siddharth-1118/creatorlang/pkg/schema"
)

// paletteSchemaJSON validates user palette files before their entries are
// injected into the resolver. Embedded as a constant to avoid filesystem
// dependencies.
const paletteSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://creatorlang.dev/schemas/palette.json",
  "type": "object",
  "required": ["version", "colors"],
  "properties": {
    "version": {
      "type": "string",
      "minLength": 1
    },
    "colors": {
      "type": "object",
      "minProperties": 1,
      "propertyNames": {
        "pattern": "^[a-z][a-z0-9_]*$"
      },
      "additionalProperties": {
        "oneOf": [
          {
            "type": "string",
            "pattern": "^#([0-9a-fA-F]{6}|[0-9a-fA-F]{8})$"
          },
          {
            "type": "array",
            "minItems": 3,
            "maxItems": 4,
            "items": {
              "type": "number",
              "minimum": 0,
              "maximum": 255
            }
          }
        ]
      }
    }
  },
  "additionalProperties": false
}`

// paletteFile is the decoded shape of a user palette document.
type paletteFile struct {
	Version string         `json:"version"`
	Colors  map[string]any `json:"colors"`
}

var compiledPaletteSchema = mustCompilePaletteSchema()

func mustCompilePaletteSchema() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(paletteSchemaJSON))
	if err != nil {
		panic(fmt.Sprintf("palette schema: %v", err))
	}
	if err := c.AddResource("https://creatorlang.dev/schemas/palette.json", doc); err != nil {
		panic(fmt.Sprintf("palette schema resource: %v", err))
	}
	s, err := c.Compile("https://creatorlang.dev/schemas/palette.json")
	if err != nil {
		panic(fmt.Sprintf("compile palette schema: %v", err))
	}
	return s
}

// Load validates a palette JSON document and layers it over the built-in
// table. Entries may be "#RRGGBB[AA]" strings or [r, g, b[, a]] arrays.
func Load(data []byte) (*Palette, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(string(data)))
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeValidation, "palette file is not valid JSON").WithCause(err)
	}
	if err := compiledPaletteSchema.Validate(doc); err != nil {
		return nil, toValidationError(err)
	}

	var pf paletteFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return nil, schema.NewError(schema.ErrCodeValidation, "decode palette file").WithCause(err)
	}

	overrides := make(map[string]schema.Color, len(pf.Colors))
	for name, raw := range pf.Colors {
		c, err := decodeColor(raw)
		if err != nil {
			return nil, schema.NewErrorf(schema.ErrCodeValidation,
				"palette entry %q: %s", name, err.Error())
		}
		overrides[name] = c
	}
	return Builtin().Merge(pf.Version, overrides), nil
}

func decodeColor(raw any) (schema.Color, error) {
	switch v := raw.(type) {
	case string:
		return decodeHex(v)
	case []any:
		comps := make([]float64, 0, 4)
		for _, item := range v {
			n, ok := toFloat(item)
			if !ok {
				return schema.Color{}, fmt.Errorf("non-numeric component")
			}
			comps = append(comps, n)
		}
		c := schema.Color{R: comps[0], G: comps[1], B: comps[2], A: 255}
		if len(comps) == 4 {
			c.A = comps[3]
		}
		return c, nil
	}
	return schema.Color{}, fmt.Errorf("unsupported color form")
}

func decodeHex(s string) (schema.Color, error) {
	hex := strings.TrimPrefix(s, "#")
	comp := func(i int) (float64, error) {
		n, err := strconv.ParseUint(hex[i:i+2], 16, 8)
		return float64(n), err
	}
	r, err := comp(0)
	if err != nil {
		return schema.Color{}, err
	}
	g, err := comp(2)
	if err != nil {
		return schema.Color{}, err
	}
	b, err := comp(4)
	if err != nil {
		return schema.Color{}, err
	}
	a := 255.0
	if len(hex) == 8 {
		if a, err = comp(6); err != nil {
			return schema.Color{}, err
		}
	}
	return schema.Color{R: r, G: g, B: b, A: a}, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// toValidationError flattens a jsonschema.ValidationError tree into one
// CreatorError listing every leaf violation.
func toValidationError(err error) *schema.CreatorError {
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return schema.NewError(schema.ErrCodeValidation, err.Error())
	}
	violations := collectViolations(verr)
	if len(violations) == 1 {
		return schema.NewError(schema.ErrCodeValidation, violations[0]).
			WithDetails(map[string]any{"violations": violations})
	}
	return schema.NewErrorf(schema.ErrCodeValidation,
		"palette validation failed with %d errors", len(violations)).
		WithDetails(map[string]any{"violations": violations})
}

func collectViolations(verr *jsonschema.ValidationError) []string {
	if len(verr.Causes) == 0 {
		loc := "/"
		if len(verr.InstanceLocation) > 0 {
			loc = "/" + strings.Join(verr.InstanceLocation, "/")
		}
		return []string{fmt.Sprintf("%s: %s", loc, verr.Error())}
	}
	var out []string
	for _, cause := range verr.Causes {
		out = append(out, collectViolations(cause)...)
	}
	return out
}
