package mixer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veilmix/mixer-go/cashuman"
)

func poolOf(amounts ...uint64) cashuman.Proofs {
	var p cashuman.Proofs
	for _, a := range amounts {
		p = append(p, cashuman.Proof{Amount: a, Secret: "s", KeysetId: "k"})
	}
	return p
}

func amounts(p cashuman.Proofs) []uint64 {
	out := make([]uint64, len(p))
	for i := range p {
		out[i] = p[i].Amount
	}
	return out
}

func TestSelectProofsMinimalPrefix(t *testing.T) {
	selected, remaining, err := SelectProofs(poolOf(1, 2, 5, 10), 7)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 5}, amounts(selected))
	assert.Equal(t, []uint64{10}, amounts(remaining))
}

func TestSelectProofsInsufficient(t *testing.T) {
	_, _, err := SelectProofs(poolOf(1, 2, 5, 10), 19)
	assert.ErrorIs(t, err, ErrInsufficientProofs)
}

func TestSelectProofsSortsAscending(t *testing.T) {
	selected, remaining, err := SelectProofs(poolOf(10, 1, 5, 2), 3)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2}, amounts(selected))
	assert.ElementsMatch(t, []uint64{5, 10}, amounts(remaining))
}

func TestSelectProofsExactCover(t *testing.T) {
	selected, remaining, err := SelectProofs(poolOf(1, 2, 5, 10), 18)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 5, 10}, amounts(selected))
	assert.Empty(t, remaining)
}

func TestSelectProofsZeroTarget(t *testing.T) {
	pool := poolOf(1, 2)
	selected, remaining, err := SelectProofs(pool, 0)
	require.NoError(t, err)
	assert.Empty(t, selected)
	assert.Equal(t, pool, remaining)
}

func TestSelectProofsDoesNotMutatePool(t *testing.T) {
	pool := poolOf(10, 1, 5, 2)
	_, _, err := SelectProofs(pool, 3)
	require.NoError(t, err)
	assert.Equal(t, []uint64{10, 1, 5, 2}, amounts(pool))
}
