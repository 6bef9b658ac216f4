package vehicle

import (
	"fmt"
	"sync"

	"github.com/opencarlink/carlink-core/pkg/tree"
)

// Windows aggregates all windows of a vehicle.
type Windows struct {
	obj *tree.Object

	OpenState *tree.Attribute

	mu      sync.RWMutex
	windows map[string]*Window
}

func newWindows(parent *tree.Object) (*Windows, error) {
	obj := tree.MustObject("windows")
	if err := parent.AddChild(obj); err != nil {
		return nil, err
	}
	w := &Windows{
		obj:       obj,
		OpenState: tree.MustAttribute("open_state", tree.KindEnum, tree.WithEnumValues(OpenStateOpen, OpenStateClosed, OpenStateUnsupported, OpenStateInvalid, OpenStateUnknown)),
		windows:   make(map[string]*Window),
	}
	if err := obj.AddAttribute(w.OpenState); err != nil {
		return nil, err
	}
	return w, nil
}

// Object returns the windows subsystem's tree node.
func (w *Windows) Object() *tree.Object { return w.obj }

// Add creates an individual window, e.g. "rear_right".
func (w *Windows) Add(id string) (*Window, error) {
	obj, err := tree.NewObject(id)
	if err != nil {
		return nil, fmt.Errorf("window %q: %w", id, err)
	}
	win := &Window{
		obj:       obj,
		OpenState: tree.MustAttribute("open_state", tree.KindEnum, tree.WithEnumValues(OpenStateOpen, OpenStateClosed, OpenStateUnsupported, OpenStateInvalid, OpenStateUnknown)),
	}
	if err := obj.AddAttribute(win.OpenState); err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.obj.AddChild(obj); err != nil {
		return nil, fmt.Errorf("adding window %q: %w", id, err)
	}
	w.windows[id] = win
	return win, nil
}

// Window returns an individual window by id.
func (w *Windows) Window(id string) (*Window, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	win, ok := w.windows[id]
	return win, ok
}

// Window is one physical window.
type Window struct {
	obj *tree.Object

	OpenState *tree.Attribute
}

// Object returns the window's tree node.
func (w *Window) Object() *tree.Object { return w.obj }
