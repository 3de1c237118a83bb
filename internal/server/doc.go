// Package server implements the HTTP listeners using Echo.
//
// Two listeners run side by side: the SSE listener serves GET /stream plus
// health and metrics routes, and the WebSocket listener serves the upgrade
// endpoint at /. Handlers construct subscriber channels, register them with
// the hub, and unregister on disconnect.
package server
