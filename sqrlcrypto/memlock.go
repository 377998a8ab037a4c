//go:build linux || darwin

package sqrlcrypto

import "golang.org/x/sys/unix"

// unixLockedMemory is a direct port of the teacher's memguard.go.
type unixLockedMemory struct{}

// NewLockedMemory returns the reference locked-memory allocator for the
// current platform.
func NewLockedMemory() LockedMemory { return unixLockedMemory{} }

func (unixLockedMemory) Lock(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	return unix.Mlock(b)
}

func (unixLockedMemory) Unlock(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	return unix.Munlock(b)
}

// HardenProcess disables core dumps before any secret key material is
// generated, the way the teacher's platform.DisableCoreDumps is meant to be
// called once at startup.
func HardenProcess() error {
	var rlim unix.Rlimit
	rlim.Cur = 0
	rlim.Max = 0
	return unix.Setrlimit(unix.RLIMIT_CORE, &rlim)
}
