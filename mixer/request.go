package mixer

// PrivacyLevel selects the baseline strength of a mix.
type PrivacyLevel string

const (
	PrivacyStandard PrivacyLevel = "standard"
	PrivacyEnhanced PrivacyLevel = "enhanced"
	PrivacyMaximum  PrivacyLevel = "maximum"
)

func (l PrivacyLevel) valid() bool {
	switch l {
	case PrivacyStandard, PrivacyEnhanced, PrivacyMaximum:
		return true
	}
	return false
}

// MixRequest describes one mix run. It is immutable for the duration of
// the run.
type MixRequest struct {
	// Amount of source asset, in whole units.
	Amount float64
	// Destinations receive equal shares, in order.
	Destinations []string
	PrivacyLevel PrivacyLevel

	EnableTimeDelays        bool
	EnableSplitOutputs      bool
	EnableRandomizedMints   bool
	EnableAmountObfuscation bool
	EnableDecoyTx           bool

	// SplitCount is only meaningful when EnableSplitOutputs is set.
	SplitCount int
}

func (r *MixRequest) Validate() error {
	if r.Amount <= 0 {
		return configurationError("amount must be positive, got %v", r.Amount)
	}
	if len(r.Destinations) == 0 {
		return configurationError("at least one destination required")
	}
	seen := make(map[string]struct{}, len(r.Destinations))
	for i, d := range r.Destinations {
		if d == "" {
			return configurationError("destination %d is empty", i)
		}
		if _, dup := seen[d]; dup {
			return configurationError("duplicate destination %s", d)
		}
		seen[d] = struct{}{}
	}
	if !r.PrivacyLevel.valid() {
		return configurationError("unknown privacy level %q", r.PrivacyLevel)
	}
	if r.EnableSplitOutputs && r.SplitCount < 1 {
		return configurationError("split outputs enabled with splitCount %d", r.SplitCount)
	}
	return nil
}
