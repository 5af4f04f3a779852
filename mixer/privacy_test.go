package mixer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veilmix/mixer-go/cashuman"
	"github.com/veilmix/mixer-go/chainman"
	"github.com/veilmix/mixer-go/lightningman"
	"github.com/veilmix/mixer-go/swapman"
)

// sleepRecorder captures privacy delays instead of sleeping.
type sleepRecorder struct {
	slept []time.Duration
}

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	r.slept = append(r.slept, d)
	return nil
}

func privacyFixture(t *testing.T) (*Mixer, *cashuman.SimulatedMint, *sleepRecorder) {
	t.Helper()
	node := lightningman.NewSimulatedNode()
	mint := cashuman.NewSimulatedMint("https://mint-a.test", nil)
	side := cashuman.NewSimulatedMint("https://mint-b.test", nil)
	gw := swapman.NewSimulatedGateway(node, 125)
	rec := &sleepRecorder{}

	m, err := New(Deps{
		Custody:   chainman.NewSimulatedCustody(),
		Lightning: node,
		Ecash:     mint,
		Gateway:   gw,
		Signer:    swapman.NewRandomSigner(),
		Estimator: &swapman.StaticRateStrategy{SatsPerUnit: 125},
		Router:    cashuman.NewRouter([]cashuman.Client{mint, side}),
		SleepFn:   rec.sleep,
	})
	require.NoError(t, err)
	return m, mint, rec
}

func mintPool(t *testing.T, mint *cashuman.SimulatedMint, amount uint64) cashuman.Proofs {
	t.Helper()
	ctx := context.Background()
	q, err := mint.CreateMintQuote(ctx, amount)
	require.NoError(t, err)
	_, err = mint.CheckMintQuote(ctx, q.Quote)
	require.NoError(t, err)
	proofs, err := mint.MintProofs(ctx, amount, q.Quote)
	require.NoError(t, err)
	return proofs
}

func TestApplyPrivacyAllFlagsOffIsIdentity(t *testing.T) {
	m, mint, rec := privacyFixture(t)
	pool := mintPool(t, mint, 100)

	out, err := m.ApplyPrivacy(context.Background(), &MixRequest{
		PrivacyLevel: PrivacyStandard,
	}, pool)
	require.NoError(t, err)
	assert.Equal(t, pool, out)
	assert.Empty(t, rec.slept)
}

func TestApplyPrivacySplitOutputs(t *testing.T) {
	m, mint, rec := privacyFixture(t)
	pool := mintPool(t, mint, 100)

	out, err := m.ApplyPrivacy(context.Background(), &MixRequest{
		PrivacyLevel:       PrivacyStandard,
		EnableSplitOutputs: true,
		SplitCount:         4,
	}, pool)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), out.Total())
	assert.Empty(t, rec.slept)

	// The split pool is still spendable at the mint.
	res, err := mint.Send(context.Background(), 100, out)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), res.Send.Total())
}

func TestApplyPrivacyRandomizedMints(t *testing.T) {
	m, mint, rec := privacyFixture(t)
	pool := mintPool(t, mint, 100)

	out, err := m.ApplyPrivacy(context.Background(), &MixRequest{
		PrivacyLevel:          PrivacyStandard,
		EnableRandomizedMints: true,
	}, pool)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), out.Total())

	// One decorrelation delay, jittered around 2s.
	require.Len(t, rec.slept, 1)
	assert.GreaterOrEqual(t, rec.slept[0], 1400*time.Millisecond)
	assert.LessOrEqual(t, rec.slept[0], 2600*time.Millisecond)
}

func TestApplyPrivacyDelayFlags(t *testing.T) {
	m, mint, rec := privacyFixture(t)
	pool := mintPool(t, mint, 50)

	out, err := m.ApplyPrivacy(context.Background(), &MixRequest{
		PrivacyLevel:            PrivacyStandard,
		EnableTimeDelays:        true,
		EnableAmountObfuscation: true,
		EnableDecoyTx:           true,
	}, pool)
	require.NoError(t, err)
	assert.Equal(t, pool, out)

	require.Len(t, rec.slept, 3)
	assert.GreaterOrEqual(t, rec.slept[0], 2100*time.Millisecond)
	assert.LessOrEqual(t, rec.slept[0], 3900*time.Millisecond)
	assert.GreaterOrEqual(t, rec.slept[1], 1050*time.Millisecond)
	assert.LessOrEqual(t, rec.slept[1], 1950*time.Millisecond)
	assert.GreaterOrEqual(t, rec.slept[2], 700*time.Millisecond)
	assert.LessOrEqual(t, rec.slept[2], 1300*time.Millisecond)
}

func TestApplyPrivacySplitFailureAborts(t *testing.T) {
	m, mint, _ := privacyFixture(t)
	pool := mintPool(t, mint, 100)
	mint.FailSend = assert.AnError

	_, err := m.ApplyPrivacy(context.Background(), &MixRequest{
		PrivacyLevel:       PrivacyStandard,
		EnableSplitOutputs: true,
		SplitCount:         3,
	}, pool)
	assert.ErrorIs(t, err, assert.AnError)
}
