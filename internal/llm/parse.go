package llm

import (
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/lawnchairsociety/dungen/internal/params"
)

var errNoJSON = errors.New("no JSON object in reply")

var leadingNumber = regexp.MustCompile(`^[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?`)

// cleanReply strips markdown code fences around a model reply.
func cleanReply(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	if end := strings.LastIndex(s, "```"); end >= 0 {
		s = s[:end]
	}
	return strings.TrimSpace(s)
}

// extractObject returns the first balanced {...} block in s, skipping
// braces inside string literals.
func extractObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth, inString, escaped := 0, false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// decodeReply pulls the JSON object out of a model reply. Numbers are kept
// as json.Number so integers survive untouched.
func decodeReply(reply string) (map[string]any, error) {
	body, ok := extractObject(cleanReply(reply))
	if !ok {
		return nil, errNoJSON
	}
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// field looks up the first present key, ignoring case.
func field(m map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v, true
		}
	}
	for mk, v := range m {
		for _, k := range keys {
			if strings.EqualFold(mk, k) && v != nil {
				return v, true
			}
		}
	}
	return nil, false
}

func stringField(m map[string]any, keys ...string) string {
	v, ok := field(m, keys...)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func objectField(m map[string]any, keys ...string) map[string]any {
	v, ok := field(m, keys...)
	if !ok {
		return nil
	}
	obj, _ := v.(map[string]any)
	return obj
}

// number reads a numeric value, accepting numeric strings such as "0.5"
// or "12 rooms".
func number(v any) (json.Number, bool) {
	switch n := v.(type) {
	case json.Number:
		return n, true
	case float64:
		return json.Number(strconv.FormatFloat(n, 'g', -1, 64)), true
	case int:
		return json.Number(strconv.Itoa(n)), true
	case string:
		m := leadingNumber.FindString(strings.TrimSpace(n))
		if m == "" {
			return "", false
		}
		return json.Number(strings.TrimPrefix(m, "+")), true
	}
	return "", false
}

func numberField(m map[string]any, keys ...string) (float64, bool) {
	v, ok := field(m, keys...)
	if !ok {
		return 0, false
	}
	n, ok := number(v)
	if !ok {
		return 0, false
	}
	f, err := n.Float64()
	return f, err == nil
}

// rawParams keeps the values that can be read as the declared parameter
// type. Nested objects are flattened one level, so replies that group
// parameters (e.g. {"cave": {"iterations": 4}}) still count. Anything
// unreadable is dropped and the default applies.
func rawParams(alg params.Algorithm, obj map[string]any) map[string]any {
	flat := map[string]any{}
	for k, v := range obj {
		if nested, ok := v.(map[string]any); ok {
			for nk, nv := range nested {
				flat[strings.ToLower(nk)] = nv
			}
			continue
		}
		flat[strings.ToLower(k)] = v
	}

	out := map[string]any{}
	for name, v := range flat {
		spec, ok := params.Lookup(alg, name)
		if !ok {
			continue
		}
		if spec.Kind == params.KindEnum {
			if s, ok := v.(string); ok {
				out[name] = s
			}
			continue
		}
		if n, ok := number(v); ok {
			out[name] = n
		}
	}
	return out
}
