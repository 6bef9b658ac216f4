package tree

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/opencarlink/carlink-core/pkg/units"
)

// Attribute is a typed, unit-aware, validated leaf value with change
// notification. It is created by the connector that owns the enclosing
// subtree and mutated only by that connector; plugins read it and may
// request changes through the command path.
//
// An attribute distinguishes three value states:
//   - unset: no value has ever been committed
//   - null: a committed nil value (nullable attributes only)
//   - set: a committed non-nil value
//
// Unset and disabled attributes are omitted from structured dumps unless
// explicitly requested.
type Attribute struct {
	name      string
	kind      Kind
	unit      units.Unit
	nullable  bool
	min       *float64
	max       *float64
	precision int
	allowed   []string

	mu          sync.Mutex
	parent      *Object
	tags        map[string]struct{}
	value       any
	isSet       bool
	enabled     bool
	removed     bool
	lastChanged time.Time
	lastUpdated time.Time

	// notifyMu serializes late-phase delivery so observers see commits
	// in the order they happened.
	notifyMu sync.Mutex

	hookMu sync.Mutex
	early  hookList
	late   hookList
}

// AttributeOption configures an Attribute at construction time.
type AttributeOption func(*Attribute)

// WithUnit declares the unit the attribute's values are stored in.
// Only meaningful for numeric kinds.
func WithUnit(u units.Unit) AttributeOption {
	return func(a *Attribute) { a.unit = u }
}

// WithBounds declares inclusive min/max bounds. A set violating the
// bounds is rejected before mutation. Numeric kinds only.
func WithBounds(minVal, maxVal float64) AttributeOption {
	return func(a *Attribute) {
		a.min = &minVal
		a.max = &maxVal
	}
}

// WithMinimum declares an inclusive lower bound only.
func WithMinimum(minVal float64) AttributeOption {
	return func(a *Attribute) { a.min = &minVal }
}

// WithPrecision declares the number of decimal places used when the value
// is rendered for display. Storage is never rounded.
func WithPrecision(p int) AttributeOption {
	return func(a *Attribute) { a.precision = p }
}

// WithTags attaches free-form tags.
func WithTags(tags ...string) AttributeOption {
	return func(a *Attribute) {
		for _, t := range tags {
			a.tags[t] = struct{}{}
		}
	}
}

// WithNullable allows nil to be committed as a legal value, distinct
// from the attribute being unset.
func WithNullable() AttributeOption {
	return func(a *Attribute) { a.nullable = true }
}

// WithEnumValues declares the permitted members of a KindEnum attribute.
func WithEnumValues(values ...string) AttributeOption {
	return func(a *Attribute) { a.allowed = values }
}

// NewAttribute creates an attribute of the given kind. The name must be
// non-empty and must not contain '/'. Options inapplicable to the kind
// (a unit on a string attribute, enum members on a float) are rejected.
func NewAttribute(name string, kind Kind, opts ...AttributeOption) (*Attribute, error) {
	if name == "" || strings.Contains(name, "/") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	a := &Attribute{
		name:      name,
		kind:      kind,
		unit:      units.None,
		precision: -1,
		tags:      make(map[string]struct{}),
		enabled:   true,
	}
	for _, opt := range opts {
		opt(a)
	}

	if !kind.Numeric() {
		if a.unit != units.None {
			return nil, fmt.Errorf("%w: unit %q on non-numeric kind %q", ErrValidation, a.unit, kind)
		}
		if a.min != nil || a.max != nil {
			return nil, fmt.Errorf("%w: bounds on non-numeric kind %q", ErrValidation, kind)
		}
		if a.precision >= 0 {
			return nil, fmt.Errorf("%w: precision on non-numeric kind %q", ErrValidation, kind)
		}
	}
	if a.unit != units.None {
		if _, err := units.DimensionOf(a.unit); err != nil {
			return nil, err
		}
	}
	if len(a.allowed) > 0 && kind != KindEnum {
		return nil, fmt.Errorf("%w: enum values on kind %q", ErrValidation, kind)
	}
	if a.min != nil && a.max != nil && *a.min > *a.max {
		return nil, fmt.Errorf("%w: min %v above max %v", ErrValidation, *a.min, *a.max)
	}
	return a, nil
}

// MustAttribute is NewAttribute panicking on error, for statically
// correct declarations (domain models, tests).
func MustAttribute(name string, kind Kind, opts ...AttributeOption) *Attribute {
	a, err := NewAttribute(name, kind, opts...)
	if err != nil {
		panic(err)
	}
	return a
}

// Name returns the attribute's name within its parent.
func (a *Attribute) Name() string { return a.name }

// Kind returns the attribute's value kind.
func (a *Attribute) Kind() Kind { return a.kind }

// Unit returns the declared storage unit, units.None for dimensionless
// attributes.
func (a *Attribute) Unit() units.Unit { return a.unit }

// Bounds returns the declared min/max bounds; a nil pointer means the
// respective bound is absent.
func (a *Attribute) Bounds() (minVal, maxVal *float64) { return a.min, a.max }

// Precision returns the display precision, or -1 when not declared.
func (a *Attribute) Precision() int { return a.precision }

// Parent returns the owning object, nil until the attribute is attached.
func (a *Attribute) Parent() *Object {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.parent
}

// Path returns the absolute slash-separated path of the attribute.
func (a *Attribute) Path() string {
	a.mu.Lock()
	parent := a.parent
	a.mu.Unlock()
	if parent == nil {
		return a.name
	}
	return parent.Path() + "/" + a.name
}

// Tags returns the attribute's tags in sorted order.
func (a *Attribute) Tags() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	tags := make([]string, 0, len(a.tags))
	for t := range a.tags {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// AddTag attaches a free-form tag. Adding an existing tag is a no-op.
func (a *Attribute) AddTag(tag string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tags[tag] = struct{}{}
}

// HasTag reports whether the tag is attached.
func (a *Attribute) HasTag(tag string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.tags[tag]
	return ok
}

// Enabled reports whether the attribute currently accepts reads and
// writes.
func (a *Attribute) Enabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.enabled && !a.removed
}

// SetEnabled enables or disables the attribute. Disabled attributes
// reject reads and writes and are omitted from serialization. The
// transition is delivered to late hooks as EventEnabled/EventDisabled.
func (a *Attribute) SetEnabled(enabled bool) {
	a.mu.Lock()
	if a.removed || a.enabled == enabled {
		a.mu.Unlock()
		return
	}
	a.enabled = enabled
	flags := EventDisabled
	if enabled {
		flags = EventEnabled
	}
	ev := ChangeEvent{
		Attribute: a,
		Previous:  a.value,
		Value:     a.value,
		Origin:    OriginInternal,
		Flags:     flags,
		When:      time.Now(),
	}
	a.deliverLateLocked(ev)
}

// LastChanged returns the time the value last changed, zero when the
// value never changed.
func (a *Attribute) LastChanged() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastChanged
}

// LastUpdated returns the time of the last successful write, whether or
// not the value changed.
func (a *Attribute) LastUpdated() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastUpdated
}

// IsSet reports whether a value has ever been committed. A committed
// null on a nullable attribute counts as set.
func (a *Attribute) IsSet() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.isSet
}

// Get returns the current value. ok is false when the attribute is
// unset, disabled or removed; Get never panics so callers must check ok
// explicitly.
func (a *Attribute) Get() (value any, ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.enabled || a.removed || !a.isSet {
		return nil, false
	}
	if b, isBlob := a.value.([]byte); isBlob {
		cpy := make([]byte, len(b))
		copy(cpy, b)
		return cpy, true
	}
	return a.value, true
}

// Bool returns the value of a KindBool attribute.
func (a *Attribute) Bool() (bool, bool) {
	v, ok := a.Get()
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// Int returns the value of a KindInt attribute.
func (a *Attribute) Int() (int64, bool) {
	v, ok := a.Get()
	if !ok {
		return 0, false
	}
	n, ok := v.(int64)
	return n, ok
}

// Float returns the value of a KindFloat attribute.
func (a *Attribute) Float() (float64, bool) {
	v, ok := a.Get()
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}

// Text returns the value of a KindString or KindEnum attribute.
func (a *Attribute) Text() (string, bool) {
	v, ok := a.Get()
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Time returns the value of a KindTime attribute.
func (a *Attribute) Time() (time.Time, bool) {
	v, ok := a.Get()
	if !ok {
		return time.Time{}, false
	}
	t, ok := v.(time.Time)
	return t, ok
}

// Duration returns the value of a KindDuration attribute.
func (a *Attribute) Duration() (time.Duration, bool) {
	v, ok := a.Get()
	if !ok {
		return 0, false
	}
	d, ok := v.(time.Duration)
	return d, ok
}

// Blob returns a copy of the value of a KindBlob attribute.
func (a *Attribute) Blob() ([]byte, bool) {
	v, ok := a.Get()
	if !ok {
		return nil, false
	}
	b, ok := v.([]byte)
	return b, ok
}

// Set validates and commits a new value. The value must match the
// attribute's kind and is interpreted in the declared unit.
//
// The write path is: validate type, enum membership and bounds; run
// early hooks in registration order (a non-nil return vetoes the
// mutation); commit value and timestamps atomically; run late hooks in
// registration order. Early failures surface to the caller as
// ValidationError; late failures go to the tree's failure handler.
//
// Returns ErrDisabled when the attribute is disabled or removed. Two
// concurrent Set calls are serialized; their relative order is up to the
// callers.
func (a *Attribute) Set(v any, origin Origin) error {
	norm, err := a.Validate(v)
	if err != nil {
		return err
	}

	a.mu.Lock()
	if !a.enabled || a.removed {
		a.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDisabled, a.name)
	}

	now := time.Now()
	var prev any
	if a.isSet {
		prev = a.value
	}
	changed := !a.isSet || !valueEqual(prev, norm)

	flags := EventUpdated
	if changed {
		flags |= EventValueChanged
	}
	ev := ChangeEvent{
		Attribute: a,
		Previous:  prev,
		Value:     norm,
		Origin:    origin,
		Flags:     flags,
		When:      now,
	}

	// Early hooks run pre-commit and can veto. They must not call back
	// into this attribute.
	for _, h := range a.earlySnapshot() {
		if hookErr := h.OnChange(ev); hookErr != nil {
			a.mu.Unlock()
			return &ValidationError{
				Attribute: a.Path(),
				Reason:    "vetoed by early hook",
				Cause:     hookErr,
			}
		}
	}

	a.value = norm
	a.isSet = true
	a.lastUpdated = now
	if changed {
		a.lastChanged = now
	}

	a.deliverLateLocked(ev)
	return nil
}

// Validate checks a candidate value against the attribute's declared
// constraints (kind, enum membership, bounds, nullability) without
// mutating anything. On success it returns the value normalized to the
// kind's canonical representation. The command path uses this to reject
// write intents before they ever reach a connector.
func (a *Attribute) Validate(v any) (any, error) {
	norm, err := a.kind.normalize(v)
	if err != nil {
		return nil, &ValidationError{Attribute: a.Path(), Reason: err.Error()}
	}
	if norm == nil && !a.nullable {
		return nil, &ValidationError{Attribute: a.Path(), Reason: "null value on non-nullable attribute"}
	}
	if norm != nil && a.kind == KindEnum && len(a.allowed) > 0 {
		if !a.enumMember(norm.(string)) {
			return nil, &ValidationError{
				Attribute: a.Path(),
				Reason:    fmt.Sprintf("value %q not in enum %v", norm, a.allowed),
			}
		}
	}
	if norm != nil && a.kind.Numeric() {
		f, _ := asFloat(norm)
		if a.min != nil && f < *a.min {
			return nil, &ValidationError{
				Attribute: a.Path(),
				Reason:    fmt.Sprintf("value %v below minimum %v", f, *a.min),
			}
		}
		if a.max != nil && f > *a.max {
			return nil, &ValidationError{
				Attribute: a.Path(),
				Reason:    fmt.Sprintf("value %v above maximum %v", f, *a.max),
			}
		}
	}
	return norm, nil
}

// SetInUnit converts a numeric value from the given unit into the
// attribute's declared unit, then commits it through Set. Fails with
// units.ErrIncompatibleUnit (wrapped in ValidationError) when the
// dimensionality differs.
func (a *Attribute) SetInUnit(v float64, u units.Unit, origin Origin) error {
	if !a.kind.Numeric() {
		return &ValidationError{Attribute: a.Path(), Reason: fmt.Sprintf("kind %q has no unit", a.kind)}
	}
	converted, err := units.Convert(v, u, a.unit)
	if err != nil {
		return &ValidationError{Attribute: a.Path(), Reason: "unit conversion", Cause: err}
	}
	if a.kind == KindInt {
		return a.Set(int64(converted), origin)
	}
	return a.Set(converted, origin)
}

// ToUnit returns the current numeric value converted to the target unit
// without mutating the attribute. Returns ErrDisabled or ErrUnset when
// no value is readable and units.ErrIncompatibleUnit when the
// dimensionality differs.
func (a *Attribute) ToUnit(target units.Unit) (float64, error) {
	a.mu.Lock()
	if !a.enabled || a.removed {
		a.mu.Unlock()
		return 0, fmt.Errorf("%w: %s", ErrDisabled, a.name)
	}
	if !a.isSet || a.value == nil {
		a.mu.Unlock()
		return 0, fmt.Errorf("%w: %s", ErrUnset, a.name)
	}
	v := a.value
	a.mu.Unlock()

	f, ok := asFloat(v)
	if !ok {
		return 0, &ValidationError{Attribute: a.Path(), Reason: fmt.Sprintf("kind %q is not numeric", a.kind)}
	}
	return units.Convert(f, a.unit, target)
}

// RegisterEarlyHook registers a pre-commit hook. Registration is
// idempotent by hook identity: registering the same hook twice results
// in exactly one invocation per change.
func (a *Attribute) RegisterEarlyHook(h Hook) {
	a.hookMu.Lock()
	defer a.hookMu.Unlock()
	a.early.add(h)
}

// RegisterLateHook registers a post-commit hook. Registration is
// idempotent by hook identity.
func (a *Attribute) RegisterLateHook(h Hook) {
	a.hookMu.Lock()
	defer a.hookMu.Unlock()
	a.late.add(h)
}

// UnregisterHook removes the hook from both phases. Removing an unknown
// hook is a no-op.
func (a *Attribute) UnregisterHook(h Hook) {
	a.hookMu.Lock()
	defer a.hookMu.Unlock()
	a.early.remove(h)
	a.late.remove(h)
}

// String renders the attribute for display, applying the declared
// precision and appending the unit. The stored value is never rounded.
func (a *Attribute) String() string {
	v, ok := a.Get()
	if !ok {
		return a.name + ": unset"
	}
	var rendered string
	switch val := v.(type) {
	case float64:
		if a.precision >= 0 {
			rendered = strconv.FormatFloat(val, 'f', a.precision, 64)
		} else {
			rendered = strconv.FormatFloat(val, 'f', -1, 64)
		}
	case time.Time:
		rendered = val.Format(time.RFC3339)
	default:
		rendered = fmt.Sprintf("%v", val)
	}
	if a.unit != units.None {
		rendered += string(a.unit)
	}
	return a.name + ": " + rendered
}

func (a *Attribute) enumMember(s string) bool {
	for _, allowed := range a.allowed {
		if s == allowed {
			return true
		}
	}
	return false
}

func (a *Attribute) earlySnapshot() []Hook {
	a.hookMu.Lock()
	defer a.hookMu.Unlock()
	return a.early.snapshot()
}

func (a *Attribute) lateSnapshot() []Hook {
	a.hookMu.Lock()
	defer a.hookMu.Unlock()
	return a.late.snapshot()
}

// deliverLateLocked hands the event to the late phase. Called with a.mu
// held; it acquires notifyMu before releasing a.mu so observers see
// commits in commit order, then runs hooks without the value lock so
// they can read the tree.
func (a *Attribute) deliverLateLocked(ev ChangeEvent) {
	parent := a.parent
	a.notifyMu.Lock()
	a.mu.Unlock()
	defer a.notifyMu.Unlock()

	handler := lateFailureHandlerFor(parent)
	for _, h := range a.lateSnapshot() {
		a.invokeLate(h, ev, handler)
	}
	for _, h := range observerChain(parent) {
		a.invokeLate(h, ev, handler)
	}
}

// invokeLate isolates a single late hook: an error or panic is routed to
// the failure handler and never reaches the writer or other hooks.
func (a *Attribute) invokeLate(h Hook, ev ChangeEvent, handler LateFailureHandler) {
	defer func() {
		if r := recover(); r != nil && handler != nil {
			handler(a, h, fmt.Errorf("late hook panic: %v", r))
		}
	}()
	if err := h.OnChange(ev); err != nil && handler != nil {
		handler(a, h, err)
	}
}

// markRemoved tears the attribute out of the tree. Pending readers
// observe absence, pending writers observe ErrDisabled, and late hooks
// receive a final EventRemoved.
func (a *Attribute) markRemoved() {
	a.mu.Lock()
	if a.removed {
		a.mu.Unlock()
		return
	}
	a.removed = true
	a.enabled = false
	ev := ChangeEvent{
		Attribute: a,
		Previous:  a.value,
		Value:     a.value,
		Origin:    OriginInternal,
		Flags:     EventRemoved | EventDisabled,
		When:      time.Now(),
	}
	a.deliverLateLocked(ev)
}

// valueEqual compares committed values, handling the non-comparable blob
// kind explicitly.
func valueEqual(a, b any) bool {
	if ab, ok := a.([]byte); ok {
		bb, ok := b.([]byte)
		return ok && bytes.Equal(ab, bb)
	}
	if at, ok := a.(time.Time); ok {
		bt, ok := b.(time.Time)
		return ok && at.Equal(bt)
	}
	if _, ok := b.([]byte); ok {
		return false
	}
	return a == b
}
