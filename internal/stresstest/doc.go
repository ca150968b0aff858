/*
Package stresstest drives many clients against one remote host to measure how
quickly it acknowledges commands.

# Overview

Each client opens its own channel and toggles a fixed number of times,
alternating key_down and key_up. After every command the client waits for the
host's acknowledgement frame and records the round trip.

Results fall in three buckets:
  - acked: the host replied with status "ok" for the same action
  - rejected: the host replied with an error status or a different action
  - errors: the channel failed (dial, write, read or reply timeout); the client
    stops and its remaining toggles are not sent

# Executor Design

Clients run in an errgroup. A ramp-up spreads their start over the configured
window. Results are folded into Stats under a mutex; OnProgress, when set,
receives a snapshot after every result.

# Persistence

Manager stores one summary row per run in the stress_runs table of the shared
database, so `clicker stress --history` can list past runs.
*/
package stresstest
