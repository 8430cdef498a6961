// Package timeouts defines shared timeout constants used across services.
// Centralizing these values prevents drift between service boundaries and
// makes the durations discoverable.
package timeouts

import "time"

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long a server waits for in-flight requests during
// graceful shutdown.
const Shutdown = 5 * time.Second

// BatchDefault is the aggregate budget applied to a batch request when the
// caller does not supply one.
const BatchDefault = 30 * time.Second

// BatchMax caps the aggregate budget a caller may request for one batch.
const BatchMax = 2 * time.Minute
