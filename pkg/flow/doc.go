// Package flow compiles editor-authored flow definitions into immutable,
// validated graphs. Compilation decodes each node's loose data bag into a
// closed typed union and enforces the structural invariants (single trigger
// entry, edge targets exist, condition labels subset of options), so
// malformed flows fail at load time instead of mid-conversation.
package flow
