package tree

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Node is implemented by both Object and Attribute so path resolution
// can return either.
type Node interface {
	Name() string
	Path() string
}

// Owner is the non-owning back-reference from a subtree root to the
// connector or plugin instance that exclusively writes the subtree. It
// carries identity only; the registry resolves it to a live instance.
type Owner struct {
	Type       string
	InstanceID string
}

func (o Owner) String() string {
	return o.Type + ":" + o.InstanceID
}

// Object is a node in the rooted, acyclic tree. Children and attributes
// share one name namespace within a parent. A non-root object has
// exactly one parent, which exclusively owns it.
type Object struct {
	name string

	mu       sync.RWMutex
	parent   *Object
	children map[string]*Object
	attrs    map[string]*Attribute
	owner    *Owner

	obsMu       sync.Mutex
	observers   hookList
	lateFailure LateFailureHandler
}

// NewObject creates a named tree node. The name must be non-empty and
// must not contain '/'.
func NewObject(name string) (*Object, error) {
	if name == "" || strings.Contains(name, "/") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return newObject(name), nil
}

// MustObject is NewObject panicking on error, for statically correct
// declarations.
func MustObject(name string) *Object {
	o, err := NewObject(name)
	if err != nil {
		panic(err)
	}
	return o
}

// NewRoot creates the unnamed root of a tree. Children of the root have
// paths of the form "/name".
func NewRoot() *Object {
	return newObject("")
}

func newObject(name string) *Object {
	return &Object{
		name:     name,
		children: make(map[string]*Object),
		attrs:    make(map[string]*Attribute),
	}
}

// Name returns the object's name within its parent; empty for a root.
func (o *Object) Name() string { return o.name }

// Parent returns the parent object, nil for a root.
func (o *Object) Parent() *Object {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.parent
}

// Root walks up the parent chain to the top-most object.
func (o *Object) Root() *Object {
	node := o
	for {
		parent := node.Parent()
		if parent == nil {
			return node
		}
		node = parent
	}
}

// Path returns the absolute slash-separated path of the object.
func (o *Object) Path() string {
	parent := o.Parent()
	if parent == nil {
		return o.name
	}
	return parent.Path() + "/" + o.name
}

// SetOwner marks the object as the root of a connector or plugin
// instance's subtree. The reference is identity only and never a second
// ownership path.
func (o *Object) SetOwner(owner Owner) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.owner = &owner
}

// OwnerRef returns the owner recorded on this exact object, if any.
func (o *Object) OwnerRef() (Owner, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.owner == nil {
		return Owner{}, false
	}
	return *o.owner, true
}

// OwnerOf resolves the owning instance of a node by walking up to the
// nearest subtree root carrying an owner reference.
func OwnerOf(n Node) (Owner, bool) {
	var obj *Object
	switch node := n.(type) {
	case *Object:
		obj = node
	case *Attribute:
		obj = node.Parent()
	default:
		return Owner{}, false
	}
	for obj != nil {
		if owner, ok := obj.OwnerRef(); ok {
			return owner, true
		}
		obj = obj.Parent()
	}
	return Owner{}, false
}

// AddChild attaches a child object. Fails with ErrDuplicateName when the
// name is already taken by a child or attribute, and with ErrValidation
// when the child is already attached elsewhere or the attach would form
// a cycle. Only the parent node is locked.
func (o *Object) AddChild(child *Object) error {
	if child == nil {
		return fmt.Errorf("%w: nil child", ErrInvalidName)
	}
	if child.name == "" {
		return fmt.Errorf("%w: cannot attach a root", ErrInvalidName)
	}
	// A node must never become its own ancestor.
	for node := o; node != nil; node = node.Parent() {
		if node == child {
			return fmt.Errorf("%w: attach would create a cycle at %s", ErrValidation, child.name)
		}
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if _, exists := o.children[child.name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateName, child.name)
	}
	if _, exists := o.attrs[child.name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateName, child.name)
	}

	child.mu.Lock()
	if child.parent != nil {
		child.mu.Unlock()
		return fmt.Errorf("%w: %s already has a parent", ErrValidation, child.name)
	}
	child.parent = o
	child.mu.Unlock()

	o.children[child.name] = child
	return nil
}

// AddAttribute attaches an attribute. Fails with ErrDuplicateName on a
// name collision with an existing child or attribute.
func (o *Object) AddAttribute(attr *Attribute) error {
	if attr == nil {
		return fmt.Errorf("%w: nil attribute", ErrInvalidName)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if _, exists := o.children[attr.name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateName, attr.name)
	}
	if _, exists := o.attrs[attr.name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateName, attr.name)
	}

	attr.mu.Lock()
	if attr.parent != nil {
		attr.mu.Unlock()
		return fmt.Errorf("%w: %s already has a parent", ErrValidation, attr.name)
	}
	attr.parent = o
	attr.mu.Unlock()

	o.attrs[attr.name] = attr
	return nil
}

// Child returns the named child object.
func (o *Object) Child(name string) (*Object, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	c, ok := o.children[name]
	return c, ok
}

// Attr returns the named attribute.
func (o *Object) Attr(name string) (*Attribute, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	a, ok := o.attrs[name]
	return a, ok
}

// Children returns the child objects sorted by name.
func (o *Object) Children() []*Object {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]*Object, 0, len(o.children))
	for _, c := range o.children {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// Attributes returns the attributes sorted by name.
func (o *Object) Attributes() []*Attribute {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]*Attribute, 0, len(o.attrs))
	for _, a := range o.attrs {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// RemoveChild detaches the named child and tears down its whole subtree.
// Every attribute below it receives a final EventRemoved notification
// and rejects subsequent access.
func (o *Object) RemoveChild(name string) error {
	o.mu.Lock()
	child, ok := o.children[name]
	if !ok {
		o.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	delete(o.children, name)
	o.mu.Unlock()

	child.tearDown()
	return nil
}

// RemoveAttribute detaches the named attribute, firing EventRemoved.
func (o *Object) RemoveAttribute(name string) error {
	o.mu.Lock()
	attr, ok := o.attrs[name]
	if !ok {
		o.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	delete(o.attrs, name)
	o.mu.Unlock()

	attr.markRemoved()
	attr.mu.Lock()
	attr.parent = nil
	attr.mu.Unlock()
	return nil
}

// tearDown marks every attribute in the subtree removed, children first
// so removal notifications fire bottom-up, then detaches this node.
func (o *Object) tearDown() {
	for _, child := range o.Children() {
		child.tearDown()
	}
	for _, attr := range o.Attributes() {
		attr.markRemoved()
	}

	o.mu.Lock()
	o.parent = nil
	o.mu.Unlock()
}

// Resolve looks up an object or attribute by path. An empty path returns
// the object itself, ".." its parent, a leading '/' resolves from the
// root, anything else is relative. Returns ErrNotFound when no node
// matches.
func (o *Object) Resolve(path string) (Node, error) {
	if path == "" {
		return o, nil
	}
	if path == ".." {
		parent := o.Parent()
		if parent == nil {
			return nil, fmt.Errorf("%w: %s has no parent", ErrNotFound, o.name)
		}
		return parent, nil
	}
	if strings.HasPrefix(path, "/") {
		return o.Root().Resolve(strings.TrimLeft(path, "/"))
	}

	head, rest, _ := strings.Cut(path, "/")
	if child, ok := o.Child(head); ok {
		return child.Resolve(rest)
	}
	if attr, ok := o.Attr(head); ok {
		if rest != "" {
			return nil, fmt.Errorf("%w: %s is an attribute, cannot descend into %q", ErrNotFound, attr.Path(), rest)
		}
		return attr, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, head)
}

// ResolveAttribute is Resolve constrained to attributes.
func (o *Object) ResolveAttribute(path string) (*Attribute, error) {
	node, err := o.Resolve(path)
	if err != nil {
		return nil, err
	}
	attr, ok := node.(*Attribute)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not an attribute", ErrNotFound, path)
	}
	return attr, nil
}

// ResolveObject is Resolve constrained to objects.
func (o *Object) ResolveObject(path string) (*Object, error) {
	node, err := o.Resolve(path)
	if err != nil {
		return nil, err
	}
	obj, ok := node.(*Object)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not an object", ErrNotFound, path)
	}
	return obj, nil
}

// Subscribe registers a post-commit observer for every attribute at or
// below this object. Registration is idempotent by hook identity.
func (o *Object) Subscribe(h Hook) {
	o.obsMu.Lock()
	defer o.obsMu.Unlock()
	o.observers.add(h)
}

// Unsubscribe removes a previously registered observer.
func (o *Object) Unsubscribe(h Hook) {
	o.obsMu.Lock()
	defer o.obsMu.Unlock()
	o.observers.remove(h)
}

// SetLateFailureHandler installs the side channel for late-hook failures
// in this subtree. The nearest handler up the parent chain wins.
func (o *Object) SetLateFailureHandler(h LateFailureHandler) {
	o.obsMu.Lock()
	defer o.obsMu.Unlock()
	o.lateFailure = h
}

// observerChain collects observers from the object up to the root,
// nearest node first, each node's observers in registration order.
func observerChain(o *Object) []Hook {
	var hooks []Hook
	for node := o; node != nil; node = node.Parent() {
		node.obsMu.Lock()
		hooks = append(hooks, node.observers.snapshot()...)
		node.obsMu.Unlock()
	}
	return hooks
}

// lateFailureHandlerFor finds the nearest late-failure handler up the
// parent chain, nil when none is installed.
func lateFailureHandlerFor(o *Object) LateFailureHandler {
	for node := o; node != nil; node = node.Parent() {
		node.obsMu.Lock()
		h := node.lateFailure
		node.obsMu.Unlock()
		if h != nil {
			return h
		}
	}
	return nil
}
