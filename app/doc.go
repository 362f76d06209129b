// Package app contains the turn pipeline: an Application that runs each
// inbound activity through a middleware chain, dispatches it to the first
// matching route, and persists dirty state scopes at turn end.
//
// Routes are (selector, handler, rank) triples. Dispatch is deterministic:
// routes are sorted by rank with registration order breaking ties, and the
// first route whose selector matches wins. A handler may call its next
// continuation to defer to the next matching route.
//
// Middleware wraps the whole dispatch. Each middleware receives a next
// function; not calling it short-circuits the remaining middleware and the
// route dispatch. Turn events run around the pipeline: a false return from a
// before-turn hook stops the turn but still saves state, a false return from
// an after-turn hook skips the save.
package app
