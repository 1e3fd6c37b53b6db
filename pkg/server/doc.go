// Package server builds and runs the devserve HTTP endpoint.
//
// Build composes the request pipeline from a configuration: request id,
// body drain, rewrite rules, OPTIONS preflight, route board, folder listing,
// static files, the online catch-all, and a terminal error handler that
// answers every failure with a generic 500.
//
// Manager owns the running endpoint. All of its state (configuration,
// connection registry, transport handle) is mutated on a single event-loop
// goroutine that consumes the transport's error, listening, close and
// connection events. Reset drains the live connections, closes the transport
// and rebuilds everything from the merged configuration on the same Manager,
// so callers keep one stable handle across reconfigurations.
//
// Fatal lifecycle failures are delivered on Manager.Fatal; the package never
// exits the process.
package server
