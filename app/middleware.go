package app

import (
	"github.com/hupe1980/agenthost/core"
)

// Middleware wraps one stage of turn processing. Implementations call next to
// hand off to the rest of the chain; returning without calling it intercepts
// the remaining middleware and the base handler.
type Middleware func(tc *core.TurnContext, next func() error) error

// MiddlewareSet composes middleware into a single linear chain. A set is
// itself usable as middleware, so sets nest.
type MiddlewareSet struct {
	middleware []Middleware
}

// NewMiddlewareSet creates a set preloaded with the given middleware.
func NewMiddlewareSet(middleware ...Middleware) *MiddlewareSet {
	return &MiddlewareSet{middleware: middleware}
}

// Use appends middleware to the chain and returns the set for chaining.
func (ms *MiddlewareSet) Use(middleware ...Middleware) *MiddlewareSet {
	ms.middleware = append(ms.middleware, middleware...)
	return ms
}

// UseSet appends another set's chain as a single middleware.
func (ms *MiddlewareSet) UseSet(other *MiddlewareSet) *MiddlewareSet {
	return ms.Use(other.AsMiddleware())
}

// AsMiddleware adapts the whole set to a single Middleware.
func (ms *MiddlewareSet) AsMiddleware() Middleware {
	return func(tc *core.TurnContext, next func() error) error {
		return ms.Run(tc, next)
	}
}

// Run executes the chain in registration order, calling handler after the
// last middleware. Middleware errors propagate unchanged.
func (ms *MiddlewareSet) Run(tc *core.TurnContext, handler func() error) error {
	return ms.runAt(tc, 0, handler)
}

func (ms *MiddlewareSet) runAt(tc *core.TurnContext, index int, handler func() error) error {
	if index < len(ms.middleware) {
		return ms.middleware[index](tc, func() error {
			return ms.runAt(tc, index+1, handler)
		})
	}
	return handler()
}
