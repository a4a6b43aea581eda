package region

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"github.com/tidwall/jsonc"
)

// Annotation attributes recognized on template elements.
const (
	AttrRegion      = "data-region"
	AttrType        = "data-type"
	AttrLabel       = "data-label"
	AttrRequired    = "data-required"
	AttrPlaceholder = "data-placeholder"
	AttrOptions     = "data-options"
	AttrFields      = "data-fields"
)

// Extract scans template markup for annotated elements and returns their
// region specs in first-appearance order. Malformed annotations degrade to
// defaults; duplicate names keep the first occurrence. The result is never nil.
func Extract(markup string) []Spec {
	specs := make([]Spec, 0)
	seen := make(map[string]bool)

	sc := scanner{src: markup}
	for {
		attrs, ok := sc.nextTag()
		if !ok {
			break
		}
		name, has := attrs.get(AttrRegion)
		name = strings.TrimSpace(name)
		if !has || name == "" || seen[name] {
			continue
		}
		seen[name] = true
		specs = append(specs, specFromAttrs(name, attrs))
	}

	return specs
}

func specFromAttrs(name string, attrs attrSet) Spec {
	typ, _ := attrs.get(AttrType)
	label, _ := attrs.get(AttrLabel)
	placeholder, _ := attrs.get(AttrPlaceholder)

	s := Spec{
		Name:        name,
		Type:        ParseType(typ),
		Label:       strings.TrimSpace(label),
		Placeholder: placeholder,
	}
	if s.Label == "" {
		s.Label = Humanize(name)
	}
	if v, has := attrs.get(AttrRequired); has {
		s.Required = parseFlag(v)
	}

	switch s.Type {
	case TypeSelect:
		opts, _ := attrs.get(AttrOptions)
		s.Options = parseOptions(opts)
	case TypeRepeater:
		blob, _ := attrs.get(AttrFields)
		s.Fields = parseSubFields(blob)
	}
	return s
}

// parseFlag treats a bare attribute (empty value) as set.
func parseFlag(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "true", "1", "yes", "on", "required":
		return true
	default:
		return false
	}
}

func parseOptions(v string) []string {
	v = strings.TrimSpace(v)
	opts := make([]string, 0)
	if v == "" {
		return opts
	}

	var raw []string
	if strings.HasPrefix(v, "[") {
		if err := json.Unmarshal(jsonc.ToJSON([]byte(v)), &raw); err != nil {
			return opts
		}
	} else {
		raw = strings.Split(v, ",")
	}

	for _, o := range raw {
		if o = strings.TrimSpace(o); o != "" {
			opts = append(opts, o)
		}
	}
	return opts
}

// parseSubFields decodes a repeater's sub-field definition. The blob may be
// an array of field objects or an object with a "fields" array. Any decode
// failure yields an empty list.
func parseSubFields(blob string) []Spec {
	fields := make([]Spec, 0)
	blob = strings.TrimSpace(blob)
	if blob == "" {
		return fields
	}

	data := jsonc.ToJSON([]byte(blob))
	var items []map[string]any
	if err := json.Unmarshal(data, &items); err != nil {
		var wrapped struct {
			Fields []map[string]any `json:"fields"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return fields
		}
		items = wrapped.Fields
	}

	seen := make(map[string]bool)
	for _, item := range items {
		name := strings.TrimSpace(stringOf(item["name"]))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		f := Spec{
			Name:        name,
			Type:        ParseType(stringOf(item["type"])),
			Label:       strings.TrimSpace(stringOf(item["label"])),
			Placeholder: stringOf(item["placeholder"]),
			Required:    boolOf(item["required"]),
		}
		if f.Label == "" {
			f.Label = Humanize(name)
		}
		switch f.Type {
		case TypeRepeater:
			// Repeaters do not nest.
			f.Type = TypeText
		case TypeSelect:
			f.Options = optionsOf(item["options"])
		}
		fields = append(fields, f)
	}
	return fields
}

func stringOf(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}

func boolOf(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return val != "" && parseFlag(val)
	case float64:
		return val != 0
	default:
		return false
	}
}

func optionsOf(v any) []string {
	opts := make([]string, 0)
	switch val := v.(type) {
	case []any:
		for _, o := range val {
			if s := strings.TrimSpace(stringOf(o)); s != "" {
				opts = append(opts, s)
			}
		}
	case string:
		return parseOptions(val)
	}
	return opts
}

// attrSet holds one tag's attributes. Lookups are case-insensitive and the
// first occurrence of a repeated attribute wins, as in HTML.
type attrSet map[string]string

func (a attrSet) get(name string) (string, bool) {
	v, ok := a[name]
	return v, ok
}

// scanner walks markup tag by tag. It understands only what is needed to
// find attributes reliably: comments, template actions, quoted values and
// tag boundaries.
type scanner struct {
	src string
	pos int
}

// nextTag advances to the next start tag and returns its attributes.
// Template actions in text are skipped whole, so markup inside
// {{/* */}} comments or action strings is never read as a tag.
func (s *scanner) nextTag() (attrSet, bool) {
	for {
		i := strings.IndexAny(s.src[s.pos:], "<{")
		if i < 0 {
			s.pos = len(s.src)
			return nil, false
		}
		s.pos += i
		if s.atAction() {
			s.skipAction()
			continue
		}
		if s.src[s.pos] == '{' {
			s.pos++
			continue
		}
		s.pos++

		rest := s.src[s.pos:]
		if strings.HasPrefix(rest, "!--") {
			end := strings.Index(rest[3:], "-->")
			if end < 0 {
				s.pos = len(s.src)
				return nil, false
			}
			s.pos += 3 + end + 3
			continue
		}
		if rest == "" || !isLetter(rest[0]) {
			continue
		}

		for s.pos < len(s.src) && !isSpace(s.src[s.pos]) && s.src[s.pos] != '>' && s.src[s.pos] != '/' {
			s.pos++
		}
		return s.attrs(), true
	}
}

func (s *scanner) atAction() bool {
	return strings.HasPrefix(s.src[s.pos:], "{{")
}

// skipAction moves past the template action starting at pos. Comments end
// at the first "*/" followed by "}}"; other actions at the first "}}"
// outside a string literal. An unterminated action consumes the rest.
func (s *scanner) skipAction() {
	i := s.pos + 2
	body := strings.TrimLeft(strings.TrimPrefix(s.src[i:], "-"), " \t\n\r")
	if strings.HasPrefix(body, "/*") {
		start := len(s.src) - len(body) + 2
		end := strings.Index(s.src[start:], "*/")
		if end < 0 {
			s.pos = len(s.src)
			return
		}
		tail := strings.Index(s.src[start+end+2:], "}}")
		if tail < 0 {
			s.pos = len(s.src)
			return
		}
		s.pos = start + end + 2 + tail + 2
		return
	}

	for i < len(s.src) {
		switch c := s.src[i]; c {
		case '"', '\'', '`':
			i++
			for i < len(s.src) && s.src[i] != c {
				if s.src[i] == '\\' && c != '`' {
					i++
				}
				i++
			}
			i++
		case '}':
			if strings.HasPrefix(s.src[i:], "}}") {
				s.pos = i + 2
				return
			}
			i++
		default:
			i++
		}
	}
	s.pos = len(s.src)
}

func (s *scanner) attrs() attrSet {
	attrs := make(attrSet)
	for s.pos < len(s.src) {
		s.skipSpace()
		if s.pos >= len(s.src) {
			break
		}
		c := s.src[s.pos]
		if c == '>' {
			s.pos++
			break
		}
		if c == '/' {
			s.pos++
			continue
		}
		if s.atAction() {
			s.skipAction()
			continue
		}

		start := s.pos
		for s.pos < len(s.src) {
			c := s.src[s.pos]
			if isSpace(c) || c == '=' || c == '>' || c == '/' || s.atAction() {
				break
			}
			s.pos++
		}
		name := strings.ToLower(s.src[start:s.pos])
		if name == "" {
			// Stray character such as a lone '=' or a quote.
			s.pos++
			continue
		}

		value := ""
		s.skipSpace()
		if s.pos < len(s.src) && s.src[s.pos] == '=' {
			s.pos++
			s.skipSpace()
			value = s.value()
		}
		if _, dup := attrs[name]; !dup {
			attrs[name] = html.UnescapeString(value)
		}
	}
	return attrs
}

func (s *scanner) value() string {
	if s.pos >= len(s.src) {
		return ""
	}
	q := s.src[s.pos]
	if q == '"' || q == '\'' {
		s.pos++
		end := strings.IndexByte(s.src[s.pos:], q)
		if end < 0 {
			v := s.src[s.pos:]
			s.pos = len(s.src)
			return v
		}
		v := s.src[s.pos : s.pos+end]
		s.pos += end + 1
		return v
	}

	start := s.pos
	for s.pos < len(s.src) && !isSpace(s.src[s.pos]) && s.src[s.pos] != '>' {
		if s.atAction() {
			s.skipAction()
			continue
		}
		s.pos++
	}
	return s.src[start:s.pos]
}

func (s *scanner) skipSpace() {
	for s.pos < len(s.src) && isSpace(s.src[s.pos]) {
		s.pos++
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
