package user

import (
	"sqrlcore/keytable"
	"sqrlcore/sqrlcrypto"
)

// KeyGen produces fresh key material for identifier into the table's slot
// for it, per the rules in the specification:
//
//   - IUK: rotates PIUK0..PIUK3 (each shifted down one, PIUK3 dropped),
//     moves the current IUK into PIUK0, then fills the slot with 32 fresh
//     random bytes.
//   - MK, ILK: derived from the current IUK via the external key-derivation
//     primitive.
//   - LOCAL: derived from the current MK.
//   - RescueCode: drawn from SQRL_ENTROPY_NEEDED bytes of entropy via a
//     locked scratch buffer, converted with bin2rc, then wiped.
func (u *User) KeyGen(id keytable.KeyID) ([]byte, error) {
	switch id {
	case keytable.IUK:
		return u.keyGenIUK()
	case keytable.MK:
		return u.keyGenDerived(id, func() ([]byte, error) {
			iuk := u.keys.Key(keytable.IUK)
			if iuk == nil {
				return nil, ErrKeyTableMissing
			}
			return u.derive.MasterKey(iuk)
		})
	case keytable.ILK:
		return u.keyGenDerived(id, func() ([]byte, error) {
			iuk := u.keys.Key(keytable.IUK)
			if iuk == nil {
				return nil, ErrKeyTableMissing
			}
			return u.derive.IdentityLockKey(iuk)
		})
	case keytable.LOCAL:
		return u.keyGenDerived(id, func() ([]byte, error) {
			mk := u.keys.Key(keytable.MK)
			if mk == nil {
				return nil, ErrKeyTableMissing
			}
			return u.derive.LocalKey(mk)
		})
	case keytable.RescueCode:
		return u.keyGenRescueCode()
	default:
		return nil, ErrKeyTableMissing
	}
}

func (u *User) keyGenIUK() ([]byte, error) {
	rotation := []keytable.KeyID{keytable.PIUK3, keytable.PIUK2, keytable.PIUK1, keytable.PIUK0}
	for i := 0; i < len(rotation)-1; i++ {
		dst, src := rotation[i], rotation[i+1]
		if u.keys.HasKey(src) {
			slot, err := u.keys.NewKey(dst)
			if err != nil {
				return nil, err
			}
			copy(slot, u.keys.Key(src))
		} else {
			u.keys.RemoveKey(dst)
		}
	}
	if u.keys.HasKey(keytable.IUK) {
		piuk0, err := u.keys.NewKey(keytable.PIUK0)
		if err != nil {
			return nil, err
		}
		copy(piuk0, u.keys.Key(keytable.IUK))
	}

	out, err := u.keys.NewKey(keytable.IUK)
	if err != nil {
		return nil, err
	}
	if _, err := u.entropy.Read(out); err != nil {
		return nil, err
	}
	return out, nil
}

func (u *User) keyGenDerived(id keytable.KeyID, derive func() ([]byte, error)) ([]byte, error) {
	material, err := derive()
	if err != nil {
		return nil, err
	}
	defer sqrlcrypto.Zero(material)
	out, err := u.keys.NewKey(id)
	if err != nil {
		return nil, err
	}
	copy(out, material)
	return out, nil
}

func (u *User) keyGenRescueCode() ([]byte, error) {
	scratch := u.keys.Scratch()[:EntropyNeeded]
	sqrlcrypto.Zero(scratch)
	defer sqrlcrypto.Zero(scratch)

	if _, err := u.entropy.Read(scratch); err != nil {
		return nil, err
	}
	code := bin2rc(scratch)

	out, err := u.keys.NewKey(keytable.RescueCode)
	if err != nil {
		return nil, err
	}
	copy(out, []byte(code))
	return out, nil
}

// RegenKeys regenerates MK, ILK and LOCAL from the current IUK, which must
// already be populated.
func (u *User) RegenKeys() error {
	if !u.keys.HasKey(keytable.IUK) {
		return ErrKeyTableMissing
	}
	for _, id := range []keytable.KeyID{keytable.MK, keytable.ILK, keytable.LOCAL} {
		if _, err := u.KeyGen(id); err != nil {
			return err
		}
	}
	return nil
}

// Rekey performs a full identity rotation: a fresh IUK (rotating prior
// IUKs into the PIUK slots), a fresh rescue code, and regenerated derived
// keys. Any sub-step failure aborts the remainder and returns failure,
// leaving the prior keys in place where the corresponding slot was never
// overwritten.
func (u *User) Rekey() error {
	if u.keys == nil {
		return ErrKeyTableMissing
	}
	if _, err := u.KeyGen(keytable.IUK); err != nil {
		return err
	}
	if _, err := u.KeyGen(keytable.RescueCode); err != nil {
		return err
	}
	if err := u.RegenKeys(); err != nil {
		return err
	}
	u.setFlag(FlagT1Changed)
	u.setFlag(FlagT2Changed)
	return nil
}
