package user

// Runtime flags, transient and never persisted — distinct from Options.Flags.
const (
	FlagMemLocked uint32 = 1 << iota
	FlagT1Changed
	FlagT2Changed
)

func (u *User) setFlag(f uint32) {
	u.flags |= f
}

func (u *User) unsetFlag(f uint32) {
	u.flags &^= f
}

// HasFlag reports whether the given runtime flag is set.
func (u *User) HasFlag(f uint32) bool {
	return u.flags&f != 0
}

// ClearFlags clears the given bits from the persistent options flags,
// gated on those bits actually being set in options.Flags. The source this
// is ported from gated the clear on the transient flags word instead of
// options.flags, which meant a clear could silently no-op or apply to the
// wrong field (see open question #4 in the specification).
func (u *User) ClearFlags(mask uint32) {
	if u.options.Flags&mask != 0 {
		u.options.Flags &^= mask
	}
}
