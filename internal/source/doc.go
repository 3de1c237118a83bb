// Package source provides sample producers: a simulated random walk for
// development and a NATS adapter for a real upstream feed.
package source
