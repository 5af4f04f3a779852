package mixer

// Privacy metric constants. The scoring formulas are deterministic on
// the request so consumers can reproduce them.
const (
	anonymityBaseStandard = 20
	anonymityBaseEnhanced = 60
	anonymityBaseMaximum  = 120

	randomizedMintsBonus = 10

	scoreBase           = 50
	scoreSetCap         = 40
	scoreTimeDelays     = 3
	scoreSplitOutputs   = 3
	scoreRandomized     = 2
	scoreObfuscation    = 1
	scoreDecoy          = 1
	privacyScoreCeiling = 100
)

// AnonymitySetSize estimates how many indistinguishable participants a
// configuration provides cover among.
func AnonymitySetSize(req *MixRequest) int {
	size := anonymityBaseStandard
	switch req.PrivacyLevel {
	case PrivacyEnhanced:
		size = anonymityBaseEnhanced
	case PrivacyMaximum:
		size = anonymityBaseMaximum
	}
	if req.EnableSplitOutputs {
		size += req.SplitCount
	}
	if req.EnableRandomizedMints {
		size += randomizedMintsBonus
	}
	return size
}

// PrivacyScore maps a configuration to a 0-100 score.
func PrivacyScore(req *MixRequest) int {
	set := AnonymitySetSize(req)
	setComponent := set / 4
	if setComponent > scoreSetCap {
		setComponent = scoreSetCap
	}

	score := scoreBase + setComponent
	if req.EnableTimeDelays {
		score += scoreTimeDelays
	}
	if req.EnableSplitOutputs && req.SplitCount > 1 {
		score += scoreSplitOutputs
	}
	if req.EnableRandomizedMints {
		score += scoreRandomized
	}
	if req.EnableAmountObfuscation {
		score += scoreObfuscation
	}
	if req.EnableDecoyTx {
		score += scoreDecoy
	}
	if score > privacyScoreCeiling {
		score = privacyScoreCeiling
	}
	return score
}
