package user

// Options holds a user's persistent configuration, distinct from the
// transient runtime flags tracked on the User itself.
type Options struct {
	Flags           uint32
	HintLength      uint8
	EnscryptSeconds uint8
	TimeoutMinutes  uint16
}

// Default option values, grounded on the specification's SQRL_DEFAULT_*
// constants.
const (
	DefaultFlags           uint32 = 0
	DefaultHintLength      uint8  = 4
	DefaultEnscryptSeconds uint8  = 5
	DefaultTimeoutMinutes  uint16 = 15
)

// DefaultOptions returns the options every newly constructed user starts
// with.
func DefaultOptions() Options {
	return Options{
		Flags:           DefaultFlags,
		HintLength:      DefaultHintLength,
		EnscryptSeconds: DefaultEnscryptSeconds,
		TimeoutMinutes:  DefaultTimeoutMinutes,
	}
}
