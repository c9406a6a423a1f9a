// Package ports defines the interfaces between the flow engine and the
// surrounding system: flow and session persistence, operator availability,
// outbound delivery and distributed locking. Adapters live under
// pkg/adapters; the engine core depends only on these contracts.
package ports
