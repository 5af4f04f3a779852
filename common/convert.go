package common

import (
	"math"
	"math/big"
)

// SourceAssetDecimals is the decimal precision of the custody chain's
// native asset (18, ERC20-style).
const SourceAssetDecimals = 18

var weiPerUnit = new(big.Float).SetFloat64(1e18)

// UnitsToWei converts a human-readable asset quantity (e.g. 12.5) into
// minor units (wei). Fractions below 1 wei are truncated.
func UnitsToWei(units float64) *big.Int {
	f := new(big.Float).SetFloat64(units)
	f.Mul(f, weiPerUnit)
	wei, _ := f.Int(nil)
	return wei
}

// WeiToUnits converts minor units (wei) back into a human-readable
// asset quantity.
func WeiToUnits(wei *big.Int) float64 {
	f := new(big.Float).SetInt(wei)
	f.Quo(f, weiPerUnit)
	units, _ := f.Float64()
	return units
}

// UnitsToSats converts an asset quantity into Lightning sats at the
// given sats-per-unit rate, flooring to whole sats. Never below 1.
func UnitsToSats(units float64, satsPerUnit float64) uint64 {
	sats := math.Floor(units * satsPerUnit)
	if sats < 1 {
		return 1
	}
	return uint64(sats)
}

// SatsToMsat converts sats to millisats.
func SatsToMsat(sats uint64) uint64 {
	return sats * 1000
}

// MsatToSats converts millisats to sats, flooring.
func MsatToSats(msat uint64) uint64 {
	return msat / 1000
}
