// Package domain contains the core entities of the bot-flow engine: flow
// definitions as persisted by the visual editor, per-conversation sessions,
// inbound events and the outbound actions the interpreter emits.
//
// The package has no dependencies on adapters or the runtime. Everything here
// is plain data plus the sentinel errors shared across the engine.
package domain
