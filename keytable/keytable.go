// Package keytable implements the protected key table: a fixed-slot array
// of fixed-size secrets held in locked memory, plus the scratch region used
// while deriving or decrypting them. It is a port of libsqrl's key-table
// logic embedded in SqrlUser (see SqrlUser.cpp in the reference sources),
// split out as its own component per the specification this implements.
package keytable

import (
	"errors"

	"sqrlcore/sqrlcrypto"
)

// KeyID identifies a slot's logical contents. The zero value, KeyNone,
// marks a free slot; it is never a key a caller asks for.
type KeyID int

const (
	KeyNone KeyID = iota
	IUK
	MK
	ILK
	LOCAL
	RescueCode
	PIUK0
	PIUK1
	PIUK2
	PIUK3
)

// UserMaxKeys is the table's fixed slot capacity.
const UserMaxKeys = 9

// KeySize is the fixed size, in bytes, of every slot.
const KeySize = 32

// ScratchSize is the size of the region reserved for transient material —
// salts, IVs, tags — alongside the key region in the same locked
// allocation.
const ScratchSize = 512

var ErrTableFull = errors.New("keytable: no free slot")

// Table is a fixed-capacity array of KeySize-byte secrets. Slot contents and
// scratch live in one contiguous locked allocation; MemLock and MemUnlock
// toggle its protection.
type Table struct {
	locker sqrlcrypto.LockedMemory
	region []byte // key slots followed by scratch, one allocation
	ids    [UserMaxKeys]KeyID
	locked bool
}

// New returns an empty table with no keys loaded.
func New() *Table {
	return &Table{
		locker: sqrlcrypto.NewLockedMemory(),
		region: make([]byte, UserMaxKeys*KeySize+ScratchSize),
	}
}

func (t *Table) slot(i int) []byte {
	return t.region[i*KeySize : (i+1)*KeySize]
}

// Scratch returns the table's scratch region, usable for transient material
// during key derivation.
func (t *Table) Scratch() []byte {
	return t.region[UserMaxKeys*KeySize:]
}

func (t *Table) indexOf(id KeyID) int {
	for i, v := range t.ids {
		if v == id {
			return i
		}
	}
	return -1
}

func (t *Table) firstFree() int {
	for i, v := range t.ids {
		if v == KeyNone {
			return i
		}
	}
	return -1
}

// NewKey finds the slot currently labeled id or, if absent, the first free
// slot. It zeroes the slot and returns it. It returns ErrTableFull if every
// slot is occupied by a different identifier — note that slot index 0 is a
// valid result, unlike the offset!=0 check in the source this is ported
// from (see open question #2 in the specification).
func (t *Table) NewKey(id KeyID) ([]byte, error) {
	idx := t.indexOf(id)
	if idx == -1 {
		idx = t.firstFree()
	}
	if idx == -1 {
		return nil, ErrTableFull
	}
	s := t.slot(idx)
	sqrlcrypto.Zero(s)
	t.ids[idx] = id
	return s, nil
}

// Key returns the slot labeled id, or nil if absent. Populating an absent
// key via decryption or derivation is the caller's responsibility — this
// layer only tracks slot occupancy.
func (t *Table) Key(id KeyID) []byte {
	idx := t.indexOf(id)
	if idx == -1 {
		return nil
	}
	return t.slot(idx)
}

// HasKey reports whether id currently occupies a slot.
func (t *Table) HasKey(id KeyID) bool {
	return t.indexOf(id) != -1
}

// RemoveKey zeroes and frees the slot labeled id, if present.
func (t *Table) RemoveKey(id KeyID) {
	idx := t.indexOf(id)
	if idx == -1 {
		return
	}
	sqrlcrypto.Zero(t.slot(idx))
	t.ids[idx] = KeyNone
}

// MemLock locks the table's region against paging and marks it protected.
// Re-entrant: locking an already-locked table is a no-op.
func (t *Table) MemLock() error {
	if t.locked {
		return nil
	}
	if err := t.locker.Lock(t.region); err != nil {
		return err
	}
	t.locked = true
	return nil
}

// MemUnlock releases the table's region. Re-entrant: unlocking an
// already-unlocked table is a no-op.
func (t *Table) MemUnlock() error {
	if !t.locked {
		return nil
	}
	if err := t.locker.Unlock(t.region); err != nil {
		return err
	}
	t.locked = false
	return nil
}

// Locked reports whether the table is currently memory-locked.
func (t *Table) Locked() bool { return t.locked }

// Destroy zeroes and releases the entire region, including scratch. The
// table must not be used afterward.
func (t *Table) Destroy() {
	sqrlcrypto.Zero(t.region)
	if t.locked {
		_ = t.locker.Unlock(t.region)
		t.locked = false
	}
	for i := range t.ids {
		t.ids[i] = KeyNone
	}
}
