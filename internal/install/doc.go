// Package install applies packaged objects to a target system.
//
// Each object is installed by its own Transaction, a small state machine:
//
//	pending -> locked -> staged -> written -> policy_applied -> committed
//
// with aborted reachable from every state before committed. The target
// object is locked for the whole transaction, stopped while its files
// are replaced, and its literal ids are remapped before the definition is
// written. Files missing from the incoming set are deleted only after the
// new content has been written. Every created, modified or deleted file
// yields one transaction log entry.
//
// Batches install objects independently: an aborted object does not roll
// back objects already committed.
package install
