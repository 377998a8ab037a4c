// Package user implements the SQRL identity object: the protected key
// table, password, options and reference count combined into the unit an
// embedding application holds onto, plus the process-wide registry that
// lets independent callers look a user up by its unique id. It is a port
// of libsqrl's SqrlUser (see SqrlUser.cpp/.h in the reference sources).
package user

import (
	"context"
	"errors"
	"sync"

	"sqrlcore/broker"
	"sqrlcore/buffer"
	"sqrlcore/keytable"
	"sqrlcore/sqrlcrypto"
	"sqrlcore/storage"
)

// KeyPasswordMaxLen bounds the password buffer's length.
const KeyPasswordMaxLen = 512

var (
	ErrHintLocked      = errors.New("user: password change refused while hint-locked")
	ErrNotHintLocked   = errors.New("user: hint unlock requested but hint_iterations is zero")
	ErrWrongOwner      = errors.New("user: hint unlock action belongs to a different user")
	ErrInvalidRescue   = errors.New("user: rescue code must be exactly 24 decimal digits")
	ErrKeyTableMissing = errors.New("user: key table not initialized")
)

// User combines a protected key table with the password, options and
// bookkeeping the specification calls out.
type User struct {
	keys       *keytable.Table
	kdf        sqrlcrypto.KDF
	aead       sqrlcrypto.AEAD
	legacyAEAD sqrlcrypto.AEAD
	entropy    sqrlcrypto.EntropySource
	derive     sqrlcrypto.KeyDerivation

	password       *buffer.Buffer
	hintIterations uint32

	options Options
	flags   uint32

	refMu    sync.Mutex
	refCount int

	uniqueID string
}

// hardenOnce disables core dumps once per process, before any key material
// is generated, the way SqrlUser's first allocation hardens the process in
// the reference sources.
var hardenOnce sync.Once

// NewUser constructs a user with default options and reference count 1. It
// does not register the user in any Registry; callers do that via
// Registry.Register.
func NewUser() *User {
	hardenOnce.Do(func() { _ = sqrlcrypto.HardenProcess() })
	return &User{
		keys:       keytable.New(),
		kdf:        sqrlcrypto.NewEnscrypt(),
		aead:       sqrlcrypto.NewAEAD(),
		legacyAEAD: sqrlcrypto.NewLegacyAEAD(),
		entropy:    sqrlcrypto.NewEntropySource(),
		derive:     sqrlcrypto.NewKeyDerivation(),
		password:   buffer.New(),
		options:    DefaultOptions(),
		refCount:   1,
	}
}

// UniqueID returns the 43-character identifier derived from the user's
// type-0 storage block, set by SyncUniqueID. It is empty until the user has
// been associated with a saved container at least once.
func (u *User) UniqueID() string { return u.uniqueID }

// SyncUniqueID recomputes the user's unique id from s's type-0 block.
func (u *User) SyncUniqueID(s *storage.Storage) {
	u.uniqueID = s.UniqueID()
}

// Options returns a copy of the user's persistent options.
func (u *User) Options() Options { return u.options }

// SetOptions replaces the user's persistent options wholesale.
func (u *User) SetOptions(o Options) { u.options = o }

// HintIterations reports the current hint-lock iteration count; zero means
// the user is not hint-locked.
func (u *User) HintIterations() uint32 { return u.hintIterations }

// Keys exposes the underlying protected key table for components (storage
// decryption, key generation) that must read or populate slots directly.
func (u *User) Keys() *keytable.Table { return u.keys }

// SetPassword replaces the user's password, refusing while hint-locked and
// truncating to KeyPasswordMaxLen. If a password was previously set, this
// marks the user's first-tier key material as changed.
func (u *User) SetPassword(pw []byte) error {
	if u.hintIterations > 0 {
		return ErrHintLocked
	}
	hadPassword := u.password.Len() > 0
	if len(pw) > KeyPasswordMaxLen {
		pw = pw[:KeyPasswordMaxLen]
	}
	u.password.Set(pw)
	if hadPassword {
		u.setFlag(FlagT1Changed)
	}
	return nil
}

// Password returns the current password bytes. The returned slice aliases
// internal storage; callers must not retain it past the next mutation.
func (u *User) Password() []byte { return u.password.Bytes() }

// hintScratchLayout returns the fixed byte widths of the salt, nonce and
// sealed-master-key fields HintLock/HintUnlock pack into the key table's
// scratch region, in that order.
func (u *User) hintScratchLayout() (saltLen, nonceLen, sealedLen int) {
	return keyBlockSaltSize, u.aead.NonceSize(), keytable.KeySize + u.aead.Overhead()
}

// HintLock seals the user's current master key under hint using iterations
// rounds of Enscrypt, storing salt, nonce and ciphertext in the key table's
// scratch region and setting hintIterations. While hint-locked, SetPassword
// refuses further changes until HintUnlock clears the lock.
func (u *User) HintLock(hint []byte, iterations uint32) error {
	if iterations == 0 {
		return errors.New("user: hint lock requires a non-zero iteration count")
	}
	mk := u.keys.Key(keytable.MK)
	if mk == nil {
		return ErrKeyTableMissing
	}

	saltLen, nonceLen, sealedLen := u.hintScratchLayout()
	scratch := u.keys.Scratch()
	if saltLen+nonceLen+sealedLen > len(scratch) {
		return errors.New("user: hint-locked payload does not fit in scratch")
	}

	salt := make([]byte, saltLen)
	if _, err := u.entropy.Read(salt); err != nil {
		return err
	}
	params := sqrlcrypto.EnscryptParams{Salt: salt, LogN: sqrlcrypto.DefaultLogN, R: 256, P: 1, Iterations: iterations}
	key, err := u.kdf.DeriveIterations(context.Background(), hint, params, keytable.KeySize, nil)
	if err != nil {
		return err
	}
	defer sqrlcrypto.Zero(key)

	nonce := make([]byte, nonceLen)
	if _, err := u.entropy.Read(nonce); err != nil {
		return err
	}
	sealed := u.aead.Seal(key, nonce, mk, nil)

	sqrlcrypto.Zero(scratch)
	copy(scratch[:saltLen], salt)
	copy(scratch[saltLen:saltLen+nonceLen], nonce)
	copy(scratch[saltLen+nonceLen:saltLen+nonceLen+sealedLen], sealed)

	u.hintIterations = iterations
	return nil
}

// HintUnlock decrypts the master key sealed in the scratch region by
// HintLock, using hint as the AEAD key-derivation input iterated
// hintIterations times. owner identifies the user the calling action
// believes it is operating on; it must be this user. On either success or
// failure, hintIterations is zeroed and the scratch region is wiped.
func (u *User) HintUnlock(owner *User, hint []byte) ([]byte, error) {
	if u != owner {
		return nil, ErrWrongOwner
	}
	if u.hintIterations == 0 {
		return nil, ErrNotHintLocked
	}
	defer func() {
		u.hintIterations = 0
		sqrlcrypto.Zero(u.keys.Scratch())
	}()

	saltLen, nonceLen, sealedLen := u.hintScratchLayout()
	scratch := u.keys.Scratch()
	if saltLen+nonceLen+sealedLen > len(scratch) {
		return nil, errors.New("user: hint-locked payload does not fit in scratch")
	}
	salt := append([]byte(nil), scratch[:saltLen]...)
	nonce := append([]byte(nil), scratch[saltLen:saltLen+nonceLen]...)
	sealed := append([]byte(nil), scratch[saltLen+nonceLen:saltLen+nonceLen+sealedLen]...)

	params := sqrlcrypto.EnscryptParams{
		Salt:       salt,
		LogN:       sqrlcrypto.DefaultLogN,
		R:          256,
		P:          1,
		Iterations: u.hintIterations,
	}
	key, err := u.kdf.DeriveIterations(context.Background(), hint, params, keytable.KeySize, nil)
	if err != nil {
		return nil, err
	}
	defer sqrlcrypto.Zero(key)

	plaintext, err := u.aead.Open(key, nonce, sealed, nil)
	if err != nil {
		return nil, ErrWrongCredential
	}
	return plaintext, nil
}

// ForceDecrypt ensures MK is loaded, driving the credential broker for a
// password if it is absent.
func (u *User) ForceDecrypt(ctx context.Context, b broker.Broker, s *storage.Storage) error {
	return u.ensureKey(ctx, b, s, keytable.MK, broker.Password)
}

// ForceRescue ensures IUK is loaded, driving the credential broker for a
// rescue code if it is absent.
func (u *User) ForceRescue(ctx context.Context, b broker.Broker, s *storage.Storage) error {
	return u.ensureKey(ctx, b, s, keytable.IUK, broker.RescueCode)
}

// ensureKey drives the credential broker until id is loaded. Every
// identifier gets the standard three-attempt retry budget, with one
// exception: when the requested identifier is itself RescueCode (as opposed
// to using a rescue code to recover IUK), the rescue code is the only
// remaining credential and there is nothing left to fall back to if it is
// wrong, so it gets a single attempt.
func (u *User) ensureKey(ctx context.Context, b broker.Broker, s *storage.Storage, id keytable.KeyID, kind broker.Kind) error {
	if u.keys.HasKey(id) {
		return nil
	}
	attempt := func(cred []byte) (bool, error) {
		if err := u.unlockWithCredential(id, cred, s); err != nil {
			return false, err
		}
		return u.keys.HasKey(id), nil
	}
	if id == keytable.RescueCode {
		cred, err := b.RequestCredential(ctx, kind)
		if err != nil {
			return err
		}
		ok, err := attempt(cred)
		if err != nil {
			return err
		}
		if !ok {
			return broker.ErrCredentialUnavailable
		}
		return nil
	}
	return broker.Retry(ctx, b, kind, attempt)
}

// unlockWithCredential opens the sealed key block backing id using
// credential (a password or rescue code) and, on success, installs the
// recovered key into id's slot. MK is recovered from the type-1,
// password-sealed block; IUK from the type-2, rescue-code-sealed block. A
// wrong credential fails AEAD verification and leaves the slot untouched.
func (u *User) unlockWithCredential(id keytable.KeyID, credential []byte, s *storage.Storage) error {
	var blockType uint16 = 1
	if id == keytable.IUK {
		blockType = 2
	}
	b := s.Get(blockType)
	if b == nil {
		return ErrKeyTableMissing
	}
	plaintext, err := u.openKeyBlock(b, credential)
	if err != nil {
		return err
	}
	defer sqrlcrypto.Zero(plaintext)
	if len(plaintext) != keytable.KeySize {
		return errors.New("user: key block payload has the wrong size")
	}
	slot, err := u.keys.NewKey(id)
	if err != nil {
		return err
	}
	copy(slot, plaintext)
	return nil
}

// Destroy zeroes and releases the user's key table and password buffer.
// Callers must not use the user afterward.
func (u *User) Destroy() {
	u.keys.Destroy()
	u.password.Clear()
}
