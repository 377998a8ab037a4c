package user

import (
	"encoding/binary"

	"sqrlcore/keytable"
)

// EntropyNeeded is the number of raw entropy bytes a rescue code is derived
// from: eight little-endian 64-bit words, three decimal digits extracted
// per word.
const EntropyNeeded = 64

// RescueCodeLen is the fixed length of a rescue code string.
const RescueCodeLen = 24

// bin2rc converts 64 bytes of entropy into a 24-digit decimal string: the
// bytes are read as eight little-endian uint64 words, and three rounds
// each strip one base-10 digit (word mod 10) from every word.
func bin2rc(entropy []byte) string {
	var words [8]uint64
	for i := range words {
		words[i] = binary.LittleEndian.Uint64(entropy[i*8 : i*8+8])
	}

	digits := make([]byte, 0, RescueCodeLen)
	for round := 0; round < 3; round++ {
		for k := 0; k < 8; k++ {
			digits = append(digits, byte('0'+words[k]%10))
			words[k] /= 10
		}
	}
	return string(digits)
}

// isRescueCode reports whether s is exactly 24 decimal digits.
func isRescueCode(s string) bool {
	if len(s) != RescueCodeLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// SetRescueCode stores code in the RescueCode slot. It accepts only strings
// of exactly 24 decimal digits.
func (u *User) SetRescueCode(code string) error {
	if !isRescueCode(code) {
		return ErrInvalidRescue
	}
	slot, err := u.keys.NewKey(keytable.RescueCode)
	if err != nil {
		return err
	}
	copy(slot, []byte(code))
	return nil
}

// GetRescueCode returns the stored rescue code, or "" if absent.
func (u *User) GetRescueCode() string {
	slot := u.keys.Key(keytable.RescueCode)
	if slot == nil {
		return ""
	}
	return string(slot[:RescueCodeLen])
}
