package app

import (
	"sort"
	"strings"

	"github.com/hupe1980/agenthost/activity"
	"github.com/hupe1980/agenthost/core"
	"github.com/hupe1980/agenthost/state"
)

// RouteRank orders routes during dispatch. Lower ranks are evaluated first;
// routes with equal rank keep their registration order.
type RouteRank uint16

const (
	// RankFirst places a route ahead of all unranked routes.
	RankFirst RouteRank = 0
	// RankUnspecified is the default rank.
	RankUnspecified RouteRank = 32768
	// RankLast places a route behind all unranked routes.
	RankLast RouteRank = 65535
)

// RouteSelector decides whether a route applies to the current turn. Selectors
// must not mutate the turn.
type RouteSelector func(tc *core.TurnContext) (bool, error)

// RouteHandler processes a matched turn. Calling next defers to the next
// matching route; handlers that fully handle the turn simply return without
// calling it.
type RouteHandler func(tc *core.TurnContext, st *state.TurnState, next func() error) error

// Handler is the plain form used by the fluent On* helpers. It never defers.
type Handler func(tc *core.TurnContext, st *state.TurnState) error

// Route pairs a selector with a handler at a given rank.
type Route struct {
	Selector RouteSelector
	Handler  RouteHandler
	Rank     RouteRank

	order int // registration order, tie-breaker within a rank
}

// sortRoutes returns the routes in dispatch order: by rank, stable within a
// rank.
func sortRoutes(routes []Route) []Route {
	sorted := make([]Route, len(routes))
	copy(sorted, routes)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Rank != sorted[j].Rank {
			return sorted[i].Rank < sorted[j].Rank
		}
		return sorted[i].order < sorted[j].order
	})
	return sorted
}

// TypeSelector matches activities of the given type.
func TypeSelector(t activity.Type) RouteSelector {
	return func(tc *core.TurnContext) (bool, error) {
		return tc.Activity != nil && tc.Activity.Type == t, nil
	}
}

// TextSelector matches message activities whose trimmed text equals the
// keyword, case-insensitively.
func TextSelector(keyword string) RouteSelector {
	return func(tc *core.TurnContext) (bool, error) {
		a := tc.Activity
		if a == nil || a.Type != activity.TypeMessage {
			return false, nil
		}
		return strings.EqualFold(strings.TrimSpace(a.Text), keyword), nil
	}
}
