// Package resource defines the backend-agnostic data-resource contract:
// linked services (configured, connectable links to one backend) and
// datasets (tabular resources reached through a linked service) with a
// uniform operation surface, structured failure taxonomy, and per-call
// operation telemetry.
//
// Providers implement the Connector and Operations interfaces and register
// factories keyed by (kind, version); callers program against the
// LinkedService and Dataset interfaces only. The tracked-call wrapper in
// DatasetBase enforces the shared write-path rules (empty-input no-ops,
// declared capacity, identity validation, input immutability) so every
// provider inherits them by construction.
package resource
