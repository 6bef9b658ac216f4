package tree

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencarlink/carlink-core/pkg/units"
)

func TestAddChildDuplicate(t *testing.T) {
	parent := MustObject("vehicle")
	require.NoError(t, parent.AddChild(MustObject("battery")))

	err := parent.AddChild(MustObject("battery"))
	require.ErrorIs(t, err, ErrDuplicateName)

	// Children and attributes share one namespace.
	err = parent.AddAttribute(MustAttribute("battery", KindInt))
	require.ErrorIs(t, err, ErrDuplicateName)
}

func TestAddAttributeDuplicate(t *testing.T) {
	parent := MustObject("battery")
	require.NoError(t, parent.AddAttribute(MustAttribute("level", KindInt)))

	err := parent.AddAttribute(MustAttribute("level", KindInt))
	require.ErrorIs(t, err, ErrDuplicateName)

	err = parent.AddChild(MustObject("level"))
	require.ErrorIs(t, err, ErrDuplicateName)
}

func TestAddChildRejectsCycle(t *testing.T) {
	a := MustObject("a")
	b := MustObject("b")
	require.NoError(t, a.AddChild(b))

	err := b.AddChild(a)
	require.ErrorIs(t, err, ErrValidation)
}

func TestAddChildRejectsSecondParent(t *testing.T) {
	child := MustObject("child")
	require.NoError(t, MustObject("first").AddChild(child))

	err := MustObject("second").AddChild(child)
	require.ErrorIs(t, err, ErrValidation)
}

func TestPathAndResolve(t *testing.T) {
	root := NewRoot()
	garage := MustObject("garage")
	vehicle := MustObject("vehicle1")
	battery := MustObject("battery")
	level := MustAttribute("level", KindInt)

	require.NoError(t, root.AddChild(garage))
	require.NoError(t, garage.AddChild(vehicle))
	require.NoError(t, vehicle.AddChild(battery))
	require.NoError(t, battery.AddAttribute(level))

	assert.Equal(t, "/garage/vehicle1/battery", battery.Path())
	assert.Equal(t, "/garage/vehicle1/battery/level", level.Path())

	// Relative lookup.
	node, err := garage.Resolve("vehicle1/battery/level")
	require.NoError(t, err)
	assert.Same(t, level, node)

	// Absolute lookup from a leaf.
	node, err = battery.Resolve("/garage/vehicle1")
	require.NoError(t, err)
	assert.Same(t, vehicle, node)

	// Parent and self.
	node, err = battery.Resolve("..")
	require.NoError(t, err)
	assert.Same(t, vehicle, node)
	node, err = battery.Resolve("")
	require.NoError(t, err)
	assert.Same(t, battery, node)

	_, err = garage.Resolve("vehicle2")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = garage.Resolve("vehicle1/battery/level/deeper")
	require.ErrorIs(t, err, ErrNotFound)

	attr, err := root.ResolveAttribute("/garage/vehicle1/battery/level")
	require.NoError(t, err)
	assert.Same(t, level, attr)
	_, err = root.ResolveAttribute("/garage/vehicle1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestOwnerResolution(t *testing.T) {
	root := MustObject("conn-root")
	root.SetOwner(Owner{Type: "volkswagen", InstanceID: "default"})
	child := MustObject("vehicle")
	attr := MustAttribute("level", KindInt)
	require.NoError(t, root.AddChild(child))
	require.NoError(t, child.AddAttribute(attr))

	owner, ok := OwnerOf(attr)
	require.True(t, ok)
	assert.Equal(t, "volkswagen", owner.Type)
	assert.Equal(t, "default", owner.InstanceID)

	orphan := MustAttribute("lost", KindInt)
	_, ok = OwnerOf(orphan)
	assert.False(t, ok)
}

// Scenario from the battery walk-through: bounds reject 150, accept 42,
// and the dump nests battery/level with just the value.
func TestBatteryLevelScenario(t *testing.T) {
	vehicle := MustObject("vehicle1")
	battery := MustObject("battery")
	level := MustAttribute("level", KindInt, WithBounds(0, 100))
	require.NoError(t, vehicle.AddChild(battery))
	require.NoError(t, battery.AddAttribute(level))

	require.ErrorIs(t, level.Set(150, OriginConnector), ErrValidation)
	require.NoError(t, level.Set(42, OriginConnector))

	dict := vehicle.AsDict(DumpOptions{})
	batteryDict, ok := dict["battery"].(map[string]any)
	require.True(t, ok)
	levelDict, ok := batteryDict["level"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, int64(42), levelDict["value"])
}

func TestAsDictOmitsUnsetAndDisabled(t *testing.T) {
	vehicle := MustObject("vehicle")
	set := MustAttribute("set", KindInt)
	unset := MustAttribute("unset", KindInt)
	disabled := MustAttribute("disabled", KindInt)
	require.NoError(t, vehicle.AddAttribute(set))
	require.NoError(t, vehicle.AddAttribute(unset))
	require.NoError(t, vehicle.AddAttribute(disabled))

	require.NoError(t, set.Set(1, OriginConnector))
	require.NoError(t, disabled.Set(2, OriginConnector))
	disabled.SetEnabled(false)

	dict := vehicle.AsDict(DumpOptions{})
	assert.Contains(t, dict, "set")
	assert.NotContains(t, dict, "unset")
	assert.NotContains(t, dict, "disabled")

	dict = vehicle.AsDict(DumpOptions{IncludeUnset: true, IncludeDisabled: true})
	assert.Contains(t, dict, "set")
	assert.Contains(t, dict, "unset")
	assert.Contains(t, dict, "disabled")

	// Unset entries carry no value key.
	unsetDict := dict["unset"].(map[string]any)
	assert.NotContains(t, unsetDict, "value")
}

func TestAsJSONDeterministic(t *testing.T) {
	vehicle := MustObject("vehicle")
	for _, name := range []string{"zeta", "alpha", "mid"} {
		attr := MustAttribute(name, KindInt)
		require.NoError(t, vehicle.AddAttribute(attr))
		require.NoError(t, attr.Set(1, OriginConnector))
	}

	first, err := vehicle.AsJSON(false)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := vehicle.AsJSON(false)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

// Round-trip: rebuild attributes from a dump and compare value, unit and
// tags.
func TestDumpRoundTrip(t *testing.T) {
	vehicle := MustObject("vehicle")
	odometer := MustAttribute("odometer", KindFloat,
		WithUnit(units.Kilometer), WithTags("telemetry", "public"))
	count := MustAttribute("count", KindInt)
	require.NoError(t, vehicle.AddAttribute(odometer))
	require.NoError(t, vehicle.AddAttribute(count))
	require.NoError(t, odometer.Set(12345.6, OriginConnector))
	require.NoError(t, count.Set(7, OriginConnector))

	raw, err := vehicle.AsJSON(false)
	require.NoError(t, err)

	var dump map[string]map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &dump))

	rebuilt, err := AttributeFromDict("odometer", KindFloat, dump["odometer"])
	require.NoError(t, err)

	v1, _ := odometer.Float()
	v2, _ := rebuilt.Float()
	assert.Equal(t, v1, v2)
	assert.Equal(t, odometer.Unit(), rebuilt.Unit())
	assert.Equal(t, odometer.Tags(), rebuilt.Tags())

	// JSON turns int64 into float64; reconstruction restores the kind.
	rebuiltCount, err := AttributeFromDict("count", KindInt, dump["count"])
	require.NoError(t, err)
	n, ok := rebuiltCount.Int()
	require.True(t, ok)
	assert.Equal(t, int64(7), n)
}

func TestRemoveChildCascades(t *testing.T) {
	root := MustObject("root")
	vehicle := MustObject("vehicle")
	battery := MustObject("battery")
	level := MustAttribute("level", KindInt)
	require.NoError(t, root.AddChild(vehicle))
	require.NoError(t, vehicle.AddChild(battery))
	require.NoError(t, battery.AddAttribute(level))
	require.NoError(t, level.Set(42, OriginConnector))

	var removals []string
	root.Subscribe(&pathHook{paths: &removals})

	require.NoError(t, root.RemoveChild("vehicle"))

	// Removal notification reached an observer above the removed subtree.
	assert.Equal(t, []string{"root/vehicle/battery/level"}, removals)

	_, ok := root.Child("vehicle")
	assert.False(t, ok)
	_, ok = level.Get()
	assert.False(t, ok)
	assert.Nil(t, vehicle.Parent())
}

type pathHook struct{ paths *[]string }

func (h *pathHook) OnChange(ev ChangeEvent) error {
	if ev.Flags.Has(EventRemoved) {
		*h.paths = append(*h.paths, ev.Attribute.Path())
	}
	return nil
}

func TestSubscribeReceivesDescendantChanges(t *testing.T) {
	root := MustObject("root")
	battery := MustObject("battery")
	level := MustAttribute("level", KindInt)
	require.NoError(t, root.AddChild(battery))
	require.NoError(t, battery.AddAttribute(level))

	hook := &recordingHook{}
	root.Subscribe(hook)
	root.Subscribe(hook) // idempotent

	require.NoError(t, level.Set(1, OriginConnector))
	assert.Equal(t, 1, hook.calls)

	root.Unsubscribe(hook)
	require.NoError(t, level.Set(2, OriginConnector))
	assert.Equal(t, 1, hook.calls)
}

func TestConcurrentReadsDuringWrites(t *testing.T) {
	root := MustObject("root")
	a := MustObject("a")
	b := MustObject("b")
	require.NoError(t, root.AddChild(a))
	require.NoError(t, root.AddChild(b))
	attrA := MustAttribute("v", KindInt)
	attrB := MustAttribute("v", KindInt)
	require.NoError(t, a.AddAttribute(attrA))
	require.NoError(t, b.AddAttribute(attrB))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			_ = attrA.Set(i, OriginConnector)
		}
	}()

	// Readers traverse a disjoint subtree while the writer runs.
	for i := 0; i < 200; i++ {
		_ = root.AsDict(DumpOptions{})
		_, _ = attrB.Get()
	}
	<-done
}
