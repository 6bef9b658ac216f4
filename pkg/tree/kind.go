package tree

import (
	"fmt"
	"time"
)

// Kind is the closed set of value types an Attribute can hold.
// Dynamic typing from connectors is funnelled into this tagged variant;
// a value that does not match the attribute's kind is rejected on Set.
type Kind string

// Kind constants.
const (
	KindBool     Kind = "bool"
	KindInt      Kind = "int"
	KindFloat    Kind = "float"
	KindString   Kind = "string"
	KindEnum     Kind = "enum"
	KindTime     Kind = "time"
	KindDuration Kind = "duration"
	KindBlob     Kind = "blob"
)

// AllKinds returns all valid attribute kinds.
func AllKinds() []Kind {
	return []Kind{
		KindBool, KindInt, KindFloat, KindString,
		KindEnum, KindTime, KindDuration, KindBlob,
	}
}

// Numeric reports whether the kind carries a physical quantity and may
// declare a unit, bounds and display precision.
func (k Kind) Numeric() bool {
	return k == KindInt || k == KindFloat
}

// normalize coerces a raw value into the canonical Go representation for
// the kind: int64 for KindInt, float64 for KindFloat, string for
// KindString/KindEnum, and so on. A nil value passes through untouched;
// nullability is checked by the caller.
func (k Kind) normalize(v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch k {
	case KindBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case KindInt:
		switch n := v.(type) {
		case int:
			return int64(n), nil
		case int32:
			return int64(n), nil
		case int64:
			return n, nil
		}
	case KindFloat:
		switch n := v.(type) {
		case float64:
			return n, nil
		case float32:
			return float64(n), nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		}
	case KindString, KindEnum:
		if s, ok := v.(string); ok {
			return s, nil
		}
		// Enum members are commonly typed string constants.
		if s, ok := v.(fmt.Stringer); ok && k == KindEnum {
			return s.String(), nil
		}
	case KindTime:
		if t, ok := v.(time.Time); ok {
			return t, nil
		}
	case KindDuration:
		if d, ok := v.(time.Duration); ok {
			return d, nil
		}
	case KindBlob:
		if b, ok := v.([]byte); ok {
			cpy := make([]byte, len(b))
			copy(cpy, b)
			return cpy, nil
		}
	}

	return nil, fmt.Errorf("value of type %T does not match kind %q", v, k)
}

// asFloat extracts a float64 from a normalized numeric value for bounds
// checks and unit conversion.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
