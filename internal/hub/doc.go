// Package hub implements the broadcast hub using the actor pattern.
//
// A single goroutine owns the subscriber registry and the latest sample; all
// mutation goes through a command channel (no mutexes). Delivery to each
// subscriber is a non-blocking buffer handoff, so a stalled subscriber can
// never delay the others.
package hub
