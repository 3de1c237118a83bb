// Package subscriber implements the per-connection channels that sit between
// the hub and the network: a bounded outbox plus a transport-specific encoder
// (SSE text framing or WebSocket text frames) behind a uniform Deliver
// contract.
package subscriber
