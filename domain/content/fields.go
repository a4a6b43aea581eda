package content

import (
	"fmt"
	"html/template"

	"github.com/artpar/contentgate/domain/region"
)

// ShapeFields projects a raw field map onto a template's declared regions.
// Every declared region gets a value of its type's Go shape, zero when the
// record lacks it or holds an incompatible value:
//
//	text, textarea, image, select -> string
//	richtext                      -> template.HTML
//	checkbox                      -> bool
//	repeater                      -> []map[string]any (sub-fields shaped the same way)
func ShapeFields(regions []region.Spec, data map[string]any) map[string]any {
	shaped := make(map[string]any, len(regions))
	for _, r := range regions {
		shaped[r.Name] = shapeValue(r, data[r.Name])
	}
	return shaped
}

func shapeValue(r region.Spec, v any) any {
	switch r.Type {
	case region.TypeCheckbox:
		return asBool(v)
	case region.TypeRichText:
		return template.HTML(asString(v))
	case region.TypeRepeater:
		items, _ := v.([]any)
		out := make([]map[string]any, 0, len(items))
		for _, item := range items {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			out = append(out, ShapeFields(r.Fields, m))
		}
		return out
	default:
		return asString(v)
	}
}

func asString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool, float64:
		return fmt.Sprint(val)
	default:
		return ""
	}
}

func asBool(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return val == "true" || val == "1" || val == "on" || val == "yes"
	case float64:
		return val != 0
	default:
		return false
	}
}
