package types

import (
	"fmt"
)

// PairKey returns the normalized (asset pair, fee tier) lookup key used by the
// registry-facing pool index. Assets are ordered lexicographically so the key
// is order-independent.
func PairKey(assetA, assetB string, feeTierBps uint32) string {
	if assetA > assetB {
		assetA, assetB = assetB, assetA
	}
	return fmt.Sprintf("%s/%s/%d", assetA, assetB, feeTierBps)
}

// OrderAssets returns the pair in lexicographic order together with their
// amounts, the ordering every pool is stored in.
func OrderAssets(assetA, assetB string) (string, string, bool) {
	if assetA > assetB {
		return assetB, assetA, true
	}
	return assetA, assetB, false
}
