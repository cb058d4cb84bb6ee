package params

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"
)

var (
	// ErrTypeMismatch is returned when a value cannot be read as the
	// declared parameter type.
	ErrTypeMismatch = errors.New("params: type mismatch")

	// ErrUnknownAlgorithm is returned for an algorithm without a schema.
	ErrUnknownAlgorithm = errors.New("params: unknown algorithm")
)

// ValidationError describes why a raw parameter map was rejected.
type ValidationError struct {
	Algorithm Algorithm
	Param     string
	Value     any
	Err       error
}

func (e *ValidationError) Error() string {
	if e.Param == "" {
		return fmt.Sprintf("%v: %q", e.Err, e.Algorithm)
	}
	return fmt.Sprintf("%v: %s.%s = %#v", e.Err, e.Algorithm, e.Param, e.Value)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Set is a complete, in-range parameter set for one algorithm.
// It is never mutated after Validate returns it.
type Set struct {
	alg     Algorithm
	values  map[string]any
	clamped []string
}

// Algorithm returns the algorithm the set was validated for.
func (s Set) Algorithm() Algorithm { return s.alg }

// Int returns an integer parameter, 0 when absent.
func (s Set) Int(name string) int {
	v, _ := s.values[name].(int)
	return v
}

// Float returns a float parameter. Integer parameters are widened.
func (s Set) Float(name string) float64 {
	switch v := s.values[name].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}

// String returns an enum parameter, "" when absent.
func (s Set) String(name string) string {
	v, _ := s.values[name].(string)
	return v
}

// Values returns a copy of the name to value map.
func (s Set) Values() map[string]any {
	return maps.Clone(s.values)
}

// Clamped lists the parameters whose raw value was pulled into range
// or replaced by a default during validation.
func (s Set) Clamped() []string {
	return slices.Clone(s.clamped)
}

// IsZero reports whether the set was never validated.
func (s Set) IsZero() bool {
	return s.values == nil
}

// Defaults returns the default set for an algorithm.
func Defaults(alg Algorithm) (Set, error) {
	return Validate(alg, nil)
}

// Validate turns raw values into a Set. Missing parameters take their
// default, numbers outside the range are clamped, unknown enum choices
// fall back to the default and unknown names are ignored. A value of the
// wrong type rejects the whole map with a *ValidationError.
func Validate(alg Algorithm, raw map[string]any) (Set, error) {
	specs, ok := schema[alg]
	if !ok {
		return Set{}, &ValidationError{Algorithm: alg, Err: ErrUnknownAlgorithm}
	}

	normalized := make(map[string]any, len(raw))
	for k, v := range raw {
		normalized[strings.ToLower(strings.TrimSpace(k))] = v
	}

	set := Set{alg: alg, values: make(map[string]any, len(specs))}
	for _, spec := range specs {
		v, present := normalized[spec.Name]
		if !present {
			set.values[spec.Name] = spec.Default
			continue
		}
		val, adjusted, err := coerce(spec, v)
		if err != nil {
			return Set{}, &ValidationError{Algorithm: alg, Param: spec.Name, Value: v, Err: err}
		}
		set.values[spec.Name] = val
		if adjusted {
			set.clamped = append(set.clamped, spec.Name)
		}
	}

	set.repair()
	return set, nil
}

// Adjust revalidates s with overrides applied on top of its values.
func Adjust(s Set, overrides map[string]any) (Set, error) {
	merged := s.Values()
	maps.Copy(merged, overrides)
	return Validate(s.alg, merged)
}

// repair enforces relations between parameters after clamping, so that
// every validated set describes a level the generator can lay out.
func (s *Set) repair() {
	if lo, ok := s.values["room_size_min"].(int); ok {
		hi, _ := s.values["room_size_max"].(int)
		want := lo
		if s.alg == HybridRoomsMaze {
			want = lo | 1
		}
		if hi < want {
			s.values["room_size_max"] = want
			s.markClamped("room_size_max")
		}
	}
	if lo, ok := s.values["min_rooms"].(int); ok {
		if hi, has := s.values["max_rooms"].(int); has && lo > hi {
			s.values["min_rooms"] = hi
			s.markClamped("min_rooms")
		}
	}
	if capacity := s.roomCapacity(); capacity > 0 && s.Int("min_rooms") > capacity {
		s.values["min_rooms"] = capacity
		s.markClamped("min_rooms")
	}
}

func (s *Set) markClamped(name string) {
	if !slices.Contains(s.clamped, name) {
		s.clamped = append(s.clamped, name)
	}
}

// roomCapacity is the number of rooms the generator can always place,
// or 0 for algorithms without a room count.
func (s *Set) roomCapacity() int {
	w, h := s.Int("map_width"), s.Int("map_height")
	switch s.alg {
	case GraphRooms:
		return GuaranteedPartitions(w-2, h-2, s.Int("split_depth"), s.Int("min_partition"))
	case RandomRooms, HybridRoomsCaves:
		return RoomCapacity(w, h, s.Int("room_size_min"))
	case HybridRoomsMaze:
		return RoomCapacity(w, h, s.Int("room_size_min")|1)
	default:
		return 0
	}
}

func coerce(spec Spec, v any) (any, bool, error) {
	if spec.Kind == KindEnum {
		str, ok := v.(string)
		if !ok {
			return nil, false, ErrTypeMismatch
		}
		str = strings.ToLower(strings.TrimSpace(str))
		if slices.Contains(spec.Choices, str) {
			return str, false, nil
		}
		return spec.Default, true, nil
	}

	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, false, ErrTypeMismatch
	}
	clamped := math.Min(math.Max(f, spec.Min), spec.Max)
	if spec.Kind == KindInt {
		n := int(math.Round(clamped))
		return n, float64(n) != f, nil
	}
	return clamped, clamped != f, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
