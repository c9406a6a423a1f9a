/*
Package session serializes inbound-event handling per conversation.

The interpreter requires at most one Handle call in flight per conversation.
The Manager enforces that with ref-counted in-process mutexes, optionally
combined with a distributed lock when the engine runs in multiple replicas.
*/
package session
