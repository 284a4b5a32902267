// Package schemaref cuts a JSON Schema (LinkML export style, definitions
// under a top-level "$defs") down to one definition and everything it
// references, following "$ref" pointers forward only.
package schemaref

import (
	"bytes"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"depflat/internal/errors"
)

const (
	defsKey    = "$defs"
	refKey     = "$ref"
	defsPrefix = "#/$defs/"

	// RemovedReference replaces every "$ref" whose definition is not kept.
	RemovedReference = defsPrefix + "REMOVED_REFERENCE"
)

// Result is a minimized schema. Schema keeps the key order of the input.
type Result struct {
	Schema []byte

	// Kept lists the kept definitions in their input order.
	Kept []string

	// Dangling lists referenced names that have no definition.
	Dangling []string

	// Pruned counts rewritten "$ref" values.
	Pruned int

	TargetFound bool
}

// Minimize keeps target plus every definition reachable from it through
// "#/$defs/<name>" references. Definitions that only point back at target
// are not kept. References to names without a definition are rewritten to
// RemovedReference. A target missing from "$defs" is not an error; the
// result then has no definitions.
func Minimize(data []byte, target string) (*Result, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New(errors.SchemaInvalid, "schema is not valid JSON", nil)
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, errors.New(errors.SchemaInvalid, "schema root must be an object", nil)
	}

	var defs gjson.Result
	root.ForEach(func(key, value gjson.Result) bool {
		if key.String() == defsKey {
			defs = value
			return false
		}
		return true
	})
	if !defs.IsObject() {
		return nil, errors.New(errors.SchemaInvalid, "schema has no top-level \"$defs\" object", nil)
	}

	var order []string
	bodies := make(map[string]gjson.Result)
	defs.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		if _, dup := bodies[name]; !dup {
			order = append(order, name)
		}
		bodies[name] = value
		return true
	})

	res := &Result{}
	_, res.TargetFound = bodies[target]
	kept := closure(target, bodies, res)
	for _, name := range order {
		if kept[name] {
			res.Kept = append(res.Kept, name)
		}
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	root.ForEach(func(key, value gjson.Result) bool {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		buf.WriteString(key.Raw)
		buf.WriteByte(':')
		if key.String() != defsKey {
			buf.WriteString(value.Raw)
			return true
		}
		buf.WriteByte('{')
		for i, name := range res.Kept {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(quote(name))
			buf.WriteByte(':')
			res.Pruned += prune(&buf, bodies[name], kept)
		}
		buf.WriteByte('}')
		return true
	})
	buf.WriteByte('}')

	res.Schema = pretty.Pretty(buf.Bytes())
	return res, nil
}

// closure walks references breadth first from target and returns the set
// of defined names reached. Undefined names are recorded as dangling.
func closure(target string, bodies map[string]gjson.Result, res *Result) map[string]bool {
	kept := make(map[string]bool)
	seen := map[string]bool{target: true}
	queue := []string{target}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]

		body, ok := bodies[name]
		if !ok {
			if name != target {
				res.Dangling = append(res.Dangling, name)
			}
			continue
		}
		kept[name] = true
		for _, ref := range References(body) {
			if !seen[ref] {
				seen[ref] = true
				queue = append(queue, ref)
			}
		}
	}
	return kept
}

// References returns the definition names referenced anywhere inside v,
// in document order and without repeats.
func References(v gjson.Result) []string {
	var out []string
	seen := make(map[string]bool)
	var walk func(gjson.Result)
	walk = func(v gjson.Result) {
		switch {
		case v.IsObject():
			v.ForEach(func(key, value gjson.Result) bool {
				if key.String() == refKey {
					if name, ok := defName(value); ok && !seen[name] {
						seen[name] = true
						out = append(out, name)
					}
				}
				walk(value)
				return true
			})
		case v.IsArray():
			v.ForEach(func(_, value gjson.Result) bool {
				walk(value)
				return true
			})
		}
	}
	walk(v)
	return out
}

// prune copies v into buf, rewriting references to names outside kept, and
// returns the number of rewrites.
func prune(buf *bytes.Buffer, v gjson.Result, kept map[string]bool) int {
	n := 0
	switch {
	case v.IsObject():
		buf.WriteByte('{')
		first := true
		v.ForEach(func(key, value gjson.Result) bool {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			buf.WriteString(key.Raw)
			buf.WriteByte(':')
			if key.String() == refKey {
				if name, ok := defName(value); ok && !kept[name] {
					buf.WriteString(quote(RemovedReference))
					n++
					return true
				}
			}
			n += prune(buf, value, kept)
			return true
		})
		buf.WriteByte('}')
	case v.IsArray():
		buf.WriteByte('[')
		first := true
		v.ForEach(func(_, value gjson.Result) bool {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			n += prune(buf, value, kept)
			return true
		})
		buf.WriteByte(']')
	default:
		buf.WriteString(v.Raw)
	}
	return n
}

func defName(v gjson.Result) (string, bool) {
	if v.Type != gjson.String || !strings.HasPrefix(v.Str, defsPrefix) {
		return "", false
	}
	return strings.TrimPrefix(v.Str, defsPrefix), true
}

// quote renders s as a JSON string literal.
func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch {
		case r == '"' || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\t':
			b.WriteString(`\t`)
		case r == '\r':
			b.WriteString(`\r`)
		case r < 0x20:
			b.WriteString(`\u00`)
			b.WriteByte("0123456789abcdef"[r>>4])
			b.WriteByte("0123456789abcdef"[r&0xf])
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
