// Package agenthost provides a high-level façade over the turn pipeline and
// its services (storage, state, proactive messaging & logging), enabling
// rapid construction of conversational agents. Most applications interact
// with this package by:
//  1. Creating an AgentHost via New() (optionally overriding default in-memory services)
//  2. Registering routes and middleware on the embedded application
//  3. Feeding inbound activities through ProcessActivity or ProcessBytes
//
// The façade delegates turn execution to app.Application while keeping setup
// and usage ergonomics concise. All defaults are safe for local development
// and testing; production deployments typically supply a durable storage
// implementation and a structured logger.
package agenthost

import (
	"context"

	"github.com/hupe1980/agenthost/activity"
	"github.com/hupe1980/agenthost/app"
	"github.com/hupe1980/agenthost/core"
	"github.com/hupe1980/agenthost/logging"
	"github.com/hupe1980/agenthost/proactive"
	"github.com/hupe1980/agenthost/state"
	"github.com/hupe1980/agenthost/storage"
)

// Options configures the AgentHost instance.
type Options struct {
	// Adapter delivers outbound activities. Required before processing turns
	// that send.
	Adapter core.Adapter

	// Storage backs the persistent state scopes and the proactive reference
	// store (defaults to an in-memory implementation if not provided).
	Storage core.Storage

	// TurnStateFactory creates the per-turn state container.
	TurnStateFactory func() *state.TurnState

	// AutoPersistReferences keeps each inbound conversation's reference in
	// the proactive store, so the agent can message it later.
	AutoPersistReferences bool

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// AgentHost is the high-level façade aggregating the turn pipeline and its
// services.
type AgentHost struct {
	opts      Options
	app       *app.Application
	proactive *proactive.Actions
}

// New creates a new AgentHost instance with optional overrides. Any unset
// service is initialized with an in-memory implementation.
func New(optFns ...func(o *Options)) (*AgentHost, error) {
	opts := Options{
		Storage:          storage.NewMemory(),
		TurnStateFactory: state.NewDefault,
		Logger:           logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	application, err := app.New(func(o *app.Options) {
		o.Adapter = opts.Adapter
		o.Storage = opts.Storage
		o.TurnStateFactory = opts.TurnStateFactory
		o.Logger = opts.Logger
	})
	if err != nil {
		return nil, err
	}

	actions := proactive.NewActions(opts.Storage, opts.Adapter, func(o *proactive.Options) {
		o.Logger = opts.Logger
	})
	if opts.AutoPersistReferences {
		actions.RegisterAutoPersistence(application)
	}

	return &AgentHost{opts: opts, app: application, proactive: actions}, nil
}

// App exposes the underlying application for route and middleware
// registration.
func (h *AgentHost) App() *app.Application { return h.app }

// Proactive exposes the proactive messaging actions.
func (h *AgentHost) Proactive() *proactive.Actions { return h.proactive }

// OnActivity registers a handler for activities of the given type.
func (h *AgentHost) OnActivity(t activity.Type, handler app.Handler) *AgentHost {
	h.app.OnActivity(t, handler)
	return h
}

// OnMessage registers a handler for message activities matching the keyword.
func (h *AgentHost) OnMessage(keyword string, handler app.Handler) *AgentHost {
	h.app.OnMessage(keyword, handler)
	return h
}

// ProcessActivity runs one turn for an inbound activity. It reports whether a
// route handled it.
func (h *AgentHost) ProcessActivity(ctx context.Context, identity core.Claims, act *activity.Activity) (bool, error) {
	tc := core.NewTurnContext(ctx, h.opts.Adapter, act, identity, h.opts.Logger)
	return h.app.Run(tc)
}

// ProcessBytes parses a wire-format activity payload, applying the
// compatibility renames for payloads produced by older clients, and runs one
// turn for it.
func (h *AgentHost) ProcessBytes(ctx context.Context, identity core.Claims, payload []byte) (bool, error) {
	act, err := activity.FromBytes(activity.NormalizeIncoming(payload))
	if err != nil {
		return false, err
	}
	return h.ProcessActivity(ctx, identity, act)
}
