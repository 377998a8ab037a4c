//go:build !linux && !darwin

package sqrlcrypto

// noopLockedMemory is the fallback for platforms without mlock/Setrlimit
// support; locking becomes a no-op rather than a hard failure.
type noopLockedMemory struct{}

// NewLockedMemory returns the reference locked-memory allocator for the
// current platform.
func NewLockedMemory() LockedMemory { return noopLockedMemory{} }

func (noopLockedMemory) Lock([]byte) error   { return nil }
func (noopLockedMemory) Unlock([]byte) error { return nil }

// HardenProcess is a no-op on platforms without an RLIMIT_CORE equivalent.
func HardenProcess() error { return nil }
