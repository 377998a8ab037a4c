package user

import (
	"context"
	"errors"

	"sqrlcore/block"
	"sqrlcore/keytable"
	"sqrlcore/sqrlcrypto"
	"sqrlcore/storage"
)

// piukSlots is PIUK0..PIUK3 in rotation order, the ids SealPreviousIUKBlock
// and LoadPreviousIUKs pack into and unpack from the type-3 block.
var piukSlots = [4]keytable.KeyID{keytable.PIUK0, keytable.PIUK1, keytable.PIUK2, keytable.PIUK3}

// keyBlockSaltSize is the width of the Enscrypt salt stored in a sealed key
// block, matching the salt width HintLock uses for the scratch-region hint
// payload.
const keyBlockSaltSize = 16

// ErrWrongCredential is returned when a key block fails AEAD verification
// under the supplied password or rescue code.
var ErrWrongCredential = errors.New("user: wrong password or rescue code")

// previousIUKBlockType is the type-3 block spec.md §4.3 describes as
// "previous IUKs". It is sealed with a different AEAD construction than the
// current-identity blocks 1/2 (aeadFor), so a previous identity's archived
// material does not share a cipher with whatever currently protects the
// live one.
const previousIUKBlockType uint16 = 3

// aeadFor returns the AEAD construction a block of blockType is sealed
// with: AES-GCM for the live password/rescue-code blocks (1, 2), XChaCha20-
// Poly1305 for the archival previous-IUK block (3).
func (u *User) aeadFor(blockType uint16) sqrlcrypto.AEAD {
	if blockType == previousIUKBlockType {
		return u.legacyAEAD
	}
	return u.aead
}

// sealKeyBlock derives a key from credential via Enscrypt and seals
// plaintext under it with blockType's AEAD construction (aeadFor),
// returning a block laid out as: salt | logN | iterations (LE uint32) |
// nonce | sealed. seconds bounds the Enscrypt time budget.
func (u *User) sealKeyBlock(blockType uint16, credential, plaintext []byte, seconds uint8) (*block.Block, error) {
	aead := u.aeadFor(blockType)
	salt := make([]byte, keyBlockSaltSize)
	if _, err := u.entropy.Read(salt); err != nil {
		return nil, err
	}
	key, iterations, err := u.kdf.DeriveSeconds(context.Background(), credential, salt, seconds, keytable.KeySize, nil)
	if err != nil {
		return nil, err
	}
	defer sqrlcrypto.Zero(key)

	nonce := make([]byte, aead.NonceSize())
	if _, err := u.entropy.Read(nonce); err != nil {
		return nil, err
	}
	sealed := aead.Seal(key, nonce, plaintext, nil)

	payloadLen := keyBlockSaltSize + 1 + 4 + len(nonce) + len(sealed)
	b, err := block.Create(blockType, uint16(block.HeaderSize+payloadLen))
	if err != nil {
		return nil, err
	}
	b.Seek(block.HeaderSize, false)
	b.Write(salt)
	b.WriteUint8(sqrlcrypto.DefaultLogN)
	b.WriteUint32(iterations)
	b.Write(nonce)
	b.Write(sealed)
	return b, nil
}

// openKeyBlock reverses sealKeyBlock: it re-derives the key from credential
// and the block's stored salt and iteration count, then opens the sealed
// payload. A wrong credential fails AEAD verification and returns
// ErrWrongCredential without yielding any plaintext.
func (u *User) openKeyBlock(b *block.Block, credential []byte) ([]byte, error) {
	aead := u.aeadFor(b.Type())
	b.Seek(block.HeaderSize, false)
	salt, n := b.Read(keyBlockSaltSize)
	if n < 0 {
		return nil, errors.New("user: key block too small for salt")
	}
	logN := b.ReadUint8()
	iterations := b.ReadUint32()
	if iterations == 0 {
		return nil, errors.New("user: key block has no iteration count")
	}
	nonceSize := aead.NonceSize()
	nonce, n := b.Read(nonceSize)
	if n < 0 {
		return nil, errors.New("user: key block too small for nonce")
	}
	remaining := int(b.Length()) - int(b.Cursor())
	if remaining <= 0 {
		return nil, errors.New("user: key block has no sealed payload")
	}
	sealed, n := b.Read(remaining)
	if n < 0 {
		return nil, errors.New("user: key block read failed")
	}

	params := sqrlcrypto.EnscryptParams{Salt: salt, LogN: logN, R: 8, P: 1, Iterations: iterations}
	key, err := u.kdf.DeriveIterations(context.Background(), credential, params, keytable.KeySize, nil)
	if err != nil {
		return nil, err
	}
	defer sqrlcrypto.Zero(key)

	plaintext, err := aead.Open(key, nonce, sealed, nil)
	if err != nil {
		return nil, ErrWrongCredential
	}
	return plaintext, nil
}

// SealPasswordBlock seals the user's current master key under its current
// password, producing the type-1 block the password-authenticated unlock
// path in ensureKey reads back.
func (u *User) SealPasswordBlock() (*block.Block, error) {
	mk := u.keys.Key(keytable.MK)
	if mk == nil {
		return nil, ErrKeyTableMissing
	}
	return u.sealKeyBlock(1, u.Password(), mk, u.options.EnscryptSeconds)
}

// SealRescueBlock seals the user's current IUK under its current rescue
// code, producing the type-2 block the rescue-authenticated unlock path in
// ensureKey reads back.
func (u *User) SealRescueBlock() (*block.Block, error) {
	iuk := u.keys.Key(keytable.IUK)
	if iuk == nil {
		return nil, ErrKeyTableMissing
	}
	return u.sealKeyBlock(2, []byte(u.GetRescueCode()), iuk, u.options.EnscryptSeconds)
}

// SealPreviousIUKBlock packs whichever of PIUK0..PIUK3 are populated into one
// fixed-width payload (absent slots contribute KeySize zero bytes) and seals
// it under the current rescue code with the archival AEAD construction,
// producing the type-3 block. It fails with ErrKeyTableMissing if no
// previous IUK exists yet, which is the case until Rekey has run once on an
// identity that already had an IUK.
func (u *User) SealPreviousIUKBlock() (*block.Block, error) {
	payload := make([]byte, 0, len(piukSlots)*keytable.KeySize)
	any := false
	for _, id := range piukSlots {
		chunk := make([]byte, keytable.KeySize)
		if k := u.keys.Key(id); k != nil {
			copy(chunk, k)
			any = true
		}
		payload = append(payload, chunk...)
	}
	if !any {
		return nil, ErrKeyTableMissing
	}
	return u.sealKeyBlock(previousIUKBlockType, []byte(u.GetRescueCode()), payload, u.options.EnscryptSeconds)
}

// LoadPreviousIUKs opens s's type-3 block under credential (the rescue code)
// and installs whichever PIUK0..PIUK3 chunks are non-zero into the matching
// key table slots, removing any slot whose chunk is all zero. It is used to
// restore identity-lock verification material for previously rotated-out
// identities alongside the current one recovered by ForceRescue.
func (u *User) LoadPreviousIUKs(s *storage.Storage, credential []byte) error {
	b := s.Get(previousIUKBlockType)
	if b == nil {
		return ErrKeyTableMissing
	}
	payload, err := u.openKeyBlock(b, credential)
	if err != nil {
		return err
	}
	defer sqrlcrypto.Zero(payload)
	if len(payload) != len(piukSlots)*keytable.KeySize {
		return errors.New("user: previous-IUK block payload has the wrong size")
	}
	for i, id := range piukSlots {
		chunk := payload[i*keytable.KeySize : (i+1)*keytable.KeySize]
		zero := true
		for _, bb := range chunk {
			if bb != 0 {
				zero = false
				break
			}
		}
		if zero {
			u.keys.RemoveKey(id)
			continue
		}
		slot, err := u.keys.NewKey(id)
		if err != nil {
			return err
		}
		copy(slot, chunk)
	}
	return nil
}
