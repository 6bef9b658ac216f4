package vehicle

import (
	"fmt"
	"sync"

	"github.com/opencarlink/carlink-core/pkg/command"
	"github.com/opencarlink/carlink-core/pkg/tree"
)

// Door open state enum members.
const (
	OpenStateOpen        = "open"
	OpenStateClosed      = "closed"
	OpenStateUnsupported = "unsupported"
	OpenStateInvalid     = "invalid"
	OpenStateUnknown     = "unknown"
)

// Door lock state enum members.
const (
	LockStateLocked   = "locked"
	LockStateUnlocked = "unlocked"
	LockStateInvalid  = "invalid"
	LockStateUnknown  = "unknown"
)

// Doors aggregates all doors of a vehicle. The subsystem-level
// attributes summarize across individual doors: open when any door is
// open, locked when every door is locked.
type Doors struct {
	obj *tree.Object

	OpenState *tree.Attribute
	LockState *tree.Attribute

	mu    sync.RWMutex
	doors map[string]*Door
}

func newDoors(parent *tree.Object) (*Doors, error) {
	obj := tree.MustObject("doors")
	if err := parent.AddChild(obj); err != nil {
		return nil, err
	}
	d := &Doors{
		obj:       obj,
		OpenState: tree.MustAttribute("open_state", tree.KindEnum, tree.WithEnumValues(OpenStateOpen, OpenStateClosed, OpenStateUnsupported, OpenStateInvalid, OpenStateUnknown)),
		LockState: tree.MustAttribute("lock_state", tree.KindEnum, tree.WithEnumValues(LockStateLocked, LockStateUnlocked, LockStateInvalid, LockStateUnknown)),
		doors:     make(map[string]*Door),
	}
	for _, attr := range []*tree.Attribute{d.OpenState, d.LockState} {
		if err := obj.AddAttribute(attr); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Object returns the doors subsystem's tree node.
func (d *Doors) Object() *tree.Object { return d.obj }

// Add creates an individual door, e.g. "front_left".
func (d *Doors) Add(id string) (*Door, error) {
	obj, err := tree.NewObject(id)
	if err != nil {
		return nil, fmt.Errorf("door %q: %w", id, err)
	}
	door := &Door{
		obj:       obj,
		OpenState: tree.MustAttribute("open_state", tree.KindEnum, tree.WithEnumValues(OpenStateOpen, OpenStateClosed, OpenStateUnsupported, OpenStateInvalid, OpenStateUnknown)),
		LockState: tree.MustAttribute("lock_state", tree.KindEnum, tree.WithEnumValues(LockStateLocked, LockStateUnlocked, LockStateInvalid, LockStateUnknown)),
	}
	for _, attr := range []*tree.Attribute{door.OpenState, door.LockState} {
		if err := obj.AddAttribute(attr); err != nil {
			return nil, err
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.obj.AddChild(obj); err != nil {
		return nil, fmt.Errorf("adding door %q: %w", id, err)
	}
	d.doors[id] = door
	return door, nil
}

// Door returns an individual door by id.
func (d *Doors) Door(id string) (*Door, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	door, ok := d.doors[id]
	return door, ok
}

// LockCommand builds a lock command for the whole vehicle, targeting
// the doors subsystem.
func (d *Doors) LockCommand() *command.Command {
	return command.New("lock", d.obj, nil)
}

// UnlockCommand builds an unlock command targeting the doors subsystem.
func (d *Doors) UnlockCommand() *command.Command {
	return command.New("unlock", d.obj, nil)
}

// Door is one physical door.
type Door struct {
	obj *tree.Object

	OpenState *tree.Attribute
	LockState *tree.Attribute
}

// Object returns the door's tree node.
func (d *Door) Object() *tree.Object { return d.obj }
