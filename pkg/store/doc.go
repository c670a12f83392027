// Package store persists label snapshots and the per-kind counter of the
// next free slot below a hierarchy root.
//
// # Backends
//
// [Memory] keeps everything in process and is what tests use. [File] writes
// one JSON snapshot per hierarchy kind into a state directory and guards the
// counter with an O_EXCL lock file. The redisstore and mongostore
// subpackages provide shared backends for several importers.
//
// [Null] discards everything; the CLI uses it for dry runs.
//
// # Leases
//
// A counter is read-modify-written under an exclusive lease:
//
//	lease, err := st.Acquire(ctx, hierarchy.KindClass)
//	next, err := lease.Load(ctx)
//	// ... label, then ...
//	err = lease.Commit(ctx, next)
//
// Acquire blocks until the lock is free or ctx ends, in which case it
// returns an ErrCodeLockTimeout error. Labels should be saved while the
// lease is held so that concurrent importers never interleave.
package store
