// Package lock provides the exclusive per-object lock taken by install
// transactions.
//
// Two lockers are available: MemoryLocker for a single process and
// RedisLocker for installs that run from several hosts against one
// target system. Both wait a bounded time for a held lock and fail with
// ErrTimeout afterwards. Use With to get guaranteed release on every exit
// path.
package lock
