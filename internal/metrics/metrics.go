// Package metrics defines Prometheus collectors for the telemetry server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Hub metrics
var (
	// HubSubscribers tracks currently registered subscribers by transport.
	HubSubscribers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hub_subscribers",
			Help: "Currently registered subscribers by transport",
		},
		[]string{"transport"},
	)

	// HubSamplesPublishedTotal counts samples accepted by the hub for fan-out.
	HubSamplesPublishedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_samples_published_total",
			Help: "Total samples published into the hub",
		},
	)

	// HubFramesDeliveredTotal counts frames queued to subscriber buffers.
	HubFramesDeliveredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_frames_delivered_total",
			Help: "Total frames queued to subscriber buffers by transport",
		},
		[]string{"transport"},
	)

	// HubFramesCoalescedTotal counts stale pending frames displaced by newer ones.
	HubFramesCoalescedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_frames_coalesced_total",
			Help: "Total pending frames displaced by newer samples (coalesce policy)",
		},
	)

	// HubSlowSubscribersEvicted counts subscribers dropped for full buffers.
	HubSlowSubscribersEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_slow_subscribers_evicted_total",
			Help: "Total subscribers unregistered because their buffer overflowed (drop policy)",
		},
	)

	// HubCommandChannelDepth tracks the hub actor's command backlog.
	HubCommandChannelDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_command_channel_depth",
			Help: "Current depth of the hub command channel",
		},
	)
)

// Cadence metrics
var (
	// CadenceTickDuration tracks how long one tick (produce + publish) takes.
	CadenceTickDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cadence_tick_duration_seconds",
			Help:    "Duration of one cadence tick in seconds",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .2, .5},
		},
	)

	// CadenceMissedTicksTotal counts ticks whose deadline had already passed.
	CadenceMissedTicksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cadence_missed_ticks_total",
			Help: "Total ticks that missed their deadline",
		},
	)

	// SourceErrorsTotal counts samples skipped because the source failed.
	SourceErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "source_errors_total",
			Help: "Total samples skipped due to source errors",
		},
	)

	// SourceEmptyReadsTotal counts ticks where the source had no sample ready.
	SourceEmptyReadsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "source_empty_reads_total",
			Help: "Total ticks where the source produced nothing",
		},
	)
)

// Transport metrics
var (
	// WSMessageSendDuration tracks WebSocket write latency.
	WSMessageSendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "websocket_message_send_duration_seconds",
			Help:    "WebSocket message send duration in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		},
	)

	// WSPingFailures counts failed keepalive pings.
	WSPingFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_ping_failures_total",
			Help: "Total WebSocket ping failures",
		},
	)

	// SSEWriteFailures counts failed SSE frame writes.
	SSEWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sse_write_failures_total",
			Help: "Total SSE frame write failures",
		},
	)

	// ConnectionsRejectedTotal counts refused connections by reason.
	ConnectionsRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "connections_rejected_total",
			Help: "Total connections rejected by reason (capacity, rate_limited, upgrade)",
		},
		[]string{"reason"},
	)

	// HTTPErrorsTotal tracks HTTP errors by structured error type.
	HTTPErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Total HTTP errors by error type",
		},
		[]string{"type"},
	)
)
