package app

import (
	"fmt"

	"github.com/hupe1980/agenthost/activity"
	"github.com/hupe1980/agenthost/core"
	"github.com/hupe1980/agenthost/logging"
	"github.com/hupe1980/agenthost/state"
	"github.com/hupe1980/agenthost/storage"
)

// TurnEventHandler runs before or after the route pipeline. Returning false
// from a before-turn handler stops the turn (state is still saved); returning
// false from an after-turn handler skips the save.
type TurnEventHandler func(tc *core.TurnContext, st *state.TurnState) (bool, error)

// ErrorHandler receives errors escaping a turn. The returned error replaces
// the original; returning nil marks the error as handled.
type ErrorHandler func(tc *core.TurnContext, err error) error

// Options holds dependency + configuration overrides passed to New().
type Options struct {
	// Adapter delivers outbound activities. Required for turns that send.
	Adapter core.Adapter
	// Storage backs the persistent state scopes.
	Storage core.Storage
	// TurnStateFactory creates the per-turn state container.
	TurnStateFactory func() *state.TurnState
	// Logging services.
	Logger logging.Logger
	// LongRunningMessages allows turns to outlive the inbound request.
	// Requires an adapter capable of proactive continuation.
	LongRunningMessages bool
}

// Application routes inbound activities through middleware and ranked routes,
// with state loaded at turn start and dirty scopes saved at turn end.
// Registration methods are not safe to call concurrently with Run; register
// everything before serving traffic.
type Application struct {
	adapter             core.Adapter
	storage             core.Storage
	turnStateFactory    func() *state.TurnState
	logger              logging.Logger
	longRunningMessages bool

	routes      []Route
	middleware  *MiddlewareSet
	beforeTurn  []TurnEventHandler
	afterTurn   []TurnEventHandler
	onTurnError ErrorHandler
}

// New constructs an Application with optional overrides.
func New(optFns ...func(o *Options)) (*Application, error) {
	opts := Options{
		Storage:          storage.NewMemory(),
		TurnStateFactory: state.NewDefault,
		Logger:           logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.LongRunningMessages && opts.Adapter == nil {
		return nil, fmt.Errorf("app: long running messages require an adapter")
	}
	if opts.TurnStateFactory == nil {
		return nil, fmt.Errorf("app: turn state factory must not be nil")
	}

	return &Application{
		adapter:             opts.Adapter,
		storage:             opts.Storage,
		turnStateFactory:    opts.TurnStateFactory,
		logger:              opts.Logger,
		longRunningMessages: opts.LongRunningMessages,
		middleware:          NewMiddlewareSet(),
	}, nil
}

// Adapter returns the configured adapter, or nil.
func (a *Application) Adapter() core.Adapter { return a.adapter }

// Storage returns the configured storage backend.
func (a *Application) Storage() core.Storage { return a.storage }

// Use appends middleware to the turn pipeline.
func (a *Application) Use(middleware ...Middleware) *Application {
	a.middleware.Use(middleware...)
	return a
}

// AddRoute registers a route at the given rank.
func (a *Application) AddRoute(selector RouteSelector, handler RouteHandler, rank RouteRank) *Application {
	a.routes = append(a.routes, Route{
		Selector: selector,
		Handler:  handler,
		Rank:     rank,
		order:    len(a.routes),
	})
	return a
}

// OnActivity registers a handler for activities of the given type.
func (a *Application) OnActivity(t activity.Type, handler Handler, rank ...RouteRank) *Application {
	return a.AddRoute(TypeSelector(t), terminal(handler), pickRank(rank))
}

// OnMessage registers a handler for message activities whose text equals the
// keyword, case-insensitively.
func (a *Application) OnMessage(keyword string, handler Handler, rank ...RouteRank) *Application {
	return a.AddRoute(TextSelector(keyword), terminal(handler), pickRank(rank))
}

// OnConversationUpdate registers a handler for conversationUpdate activities.
func (a *Application) OnConversationUpdate(handler Handler, rank ...RouteRank) *Application {
	return a.AddRoute(TypeSelector(activity.TypeConversationUpdate), terminal(handler), pickRank(rank))
}

// OnBeforeTurn registers a hook that runs before route dispatch.
func (a *Application) OnBeforeTurn(handler TurnEventHandler) *Application {
	a.beforeTurn = append(a.beforeTurn, handler)
	return a
}

// OnAfterTurn registers a hook that runs after route dispatch.
func (a *Application) OnAfterTurn(handler TurnEventHandler) *Application {
	a.afterTurn = append(a.afterTurn, handler)
	return a
}

// OnTurnError registers the handler invoked when a turn errors. Only one
// handler is kept; later registrations replace earlier ones.
func (a *Application) OnTurnError(handler ErrorHandler) *Application {
	a.onTurnError = handler
	return a
}

// Run processes one turn: load state, before-turn hooks, middleware around
// route dispatch, after-turn hooks, save. It reports whether any route
// handled the activity. Errors abort the turn without saving state; the
// pipeline never retries.
func (a *Application) Run(tc *core.TurnContext) (bool, error) {
	tc.SetPhase(core.PhaseProcessing)

	handled, err := a.runTurn(tc)
	if err != nil {
		tc.SetPhase(core.PhaseFaulted)
		a.logger.Error("turn failed", "activity_type", activityType(tc), "error", err)
		if a.onTurnError != nil {
			err = a.onTurnError(tc, err)
			if err == nil {
				tc.SetPhase(core.PhaseCompleted)
			}
		}
		return handled, err
	}

	tc.SetPhase(core.PhaseCompleted)
	return handled, nil
}

func (a *Application) runTurn(tc *core.TurnContext) (bool, error) {
	st := a.turnStateFactory()
	if err := st.Load(tc.Context, tc, a.storage, false); err != nil {
		return false, err
	}

	proceed, err := a.runEvents(tc, st, a.beforeTurn)
	if err != nil {
		return false, err
	}
	if !proceed {
		// a vetoed turn still persists whatever the hooks changed
		return false, st.Save(tc.Context, tc, a.storage, false)
	}

	var handled bool
	err = a.middleware.Run(tc, func() error {
		var dispatchErr error
		handled, dispatchErr = a.dispatch(tc, st)
		return dispatchErr
	})
	if err != nil {
		return handled, err
	}

	save, err := a.runEvents(tc, st, a.afterTurn)
	if err != nil {
		return handled, err
	}
	if !save {
		return handled, nil
	}
	return handled, st.Save(tc.Context, tc, a.storage, false)
}

// dispatch evaluates routes in rank order and runs the first match. The
// handler's next continuation resumes the scan after the matched route.
func (a *Application) dispatch(tc *core.TurnContext, st *state.TurnState) (bool, error) {
	sorted := sortRoutes(a.routes)

	var run func(from int) (bool, error)
	run = func(from int) (bool, error) {
		for i := from; i < len(sorted); i++ {
			matched, err := sorted[i].Selector(tc)
			if err != nil {
				return false, err
			}
			if !matched {
				continue
			}
			next := func() error {
				_, err := run(i + 1)
				return err
			}
			return true, sorted[i].Handler(tc, st, next)
		}
		return false, nil
	}
	return run(0)
}

func (a *Application) runEvents(tc *core.TurnContext, st *state.TurnState, handlers []TurnEventHandler) (bool, error) {
	for _, h := range handlers {
		proceed, err := h(tc, st)
		if err != nil {
			return false, err
		}
		if !proceed {
			return false, nil
		}
	}
	return true, nil
}

func terminal(handler Handler) RouteHandler {
	return func(tc *core.TurnContext, st *state.TurnState, _ func() error) error {
		return handler(tc, st)
	}
}

func pickRank(rank []RouteRank) RouteRank {
	if len(rank) > 0 {
		return rank[0]
	}
	return RankUnspecified
}

func activityType(tc *core.TurnContext) string {
	if tc.Activity == nil {
		return ""
	}
	return string(tc.Activity.Type)
}
