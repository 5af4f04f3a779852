package mixer

import (
	"sort"

	"github.com/veilmix/mixer-go/cashuman"
)

// SelectProofs picks the minimal ascending-amount prefix of the pool
// whose cumulative value covers target, returning the selection and the
// untouched remainder. Smallest proofs go first deliberately: it leaves
// the widest spread of distinguishable sizes in the pool.
func SelectProofs(pool cashuman.Proofs, target uint64) (selected, remaining cashuman.Proofs, err error) {
	if target == 0 {
		return nil, pool, nil
	}
	if pool.Total() < target {
		return nil, nil, insufficientProofs(pool.Total(), target)
	}

	sorted := pool.Clone()
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Amount < sorted[j].Amount
	})

	var sum uint64
	for i, p := range sorted {
		sum += p.Amount
		if sum >= target {
			return sorted[:i+1], sorted[i+1:], nil
		}
	}
	// Unreachable: the total was checked above.
	return nil, nil, insufficientProofs(pool.Total(), target)
}
