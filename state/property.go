package state

// Property is a typed accessor for a single named property inside one scope.
// It spares handlers the dotted-path plumbing and the type assertions when
// the same property is touched from several places.
type Property[T any] struct {
	state *TurnState
	scope string
	name  string
}

// NewProperty binds a typed accessor to scope.name on the given turn state.
// The scope must exist once the state is loaded; resolution errors surface
// on first access.
func NewProperty[T any](state *TurnState, scope, name string) *Property[T] {
	return &Property[T]{state: state, scope: scope, name: name}
}

// Get returns the property value, or defaultValue when absent or of an
// unexpected type. The default is not written back.
func (p *Property[T]) Get(defaultValue T) (T, error) {
	e, err := p.state.scopeEntry(p.scope)
	if err != nil {
		return defaultValue, err
	}
	raw, ok := e.value[p.name]
	if !ok {
		return defaultValue, nil
	}
	typed, ok := raw.(T)
	if !ok {
		return defaultValue, nil
	}
	return typed, nil
}

// Set stores the property value and marks the scope dirty.
func (p *Property[T]) Set(value T) error {
	e, err := p.state.scopeEntry(p.scope)
	if err != nil {
		return err
	}
	e.value[p.name] = value
	return nil
}

// Delete removes the property. Removing an absent property is a no-op.
func (p *Property[T]) Delete() error {
	e, err := p.state.scopeEntry(p.scope)
	if err != nil {
		return err
	}
	delete(e.value, p.name)
	return nil
}
