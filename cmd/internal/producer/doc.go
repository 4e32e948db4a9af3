// Package producer runs the external flight-data producer and relays its status.
//
// The producer is an opaque child process (a Python script in production).
// Its stdout is scanned for a ready marker line; the first match resolves a
// run as ready while the process keeps running to completion in the
// background. The process runs in its own process group and is stopped with
// SIGTERM, then SIGKILL after a grace period, when its context ends.
package producer
