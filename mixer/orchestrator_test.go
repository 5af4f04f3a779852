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

type fixture struct {
	mixer   *Mixer
	custody *chainman.SimulatedCustody
	node    *lightningman.SimulatedNode
	mint    *cashuman.SimulatedMint
	gateway *swapman.SimulatedGateway
	rec     *sleepRecorder
	events  []Event
}

func (f *fixture) sink() EventSink {
	return FuncSink(func(e Event) { f.events = append(f.events, e) })
}

func (f *fixture) byType(typ EventType) []Event {
	var out []Event
	for _, e := range f.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

func newFixture(t *testing.T, mutate func(*Deps)) *fixture {
	t.Helper()
	f := &fixture{
		custody: chainman.NewSimulatedCustody(),
		node:    lightningman.NewSimulatedNode(),
		rec:     &sleepRecorder{},
	}
	f.mint = cashuman.NewSimulatedMint("https://mint-a.test", f.node)
	f.gateway = swapman.NewSimulatedGateway(f.node, 125)

	deps := Deps{
		Custody:   f.custody,
		Lightning: f.node,
		Ecash:     f.mint,
		Gateway:   f.gateway,
		Signer:    swapman.NewRandomSigner(),
		Estimator: swapman.NewFallbackEstimator(f.gateway, "", 0),
		SleepFn:   f.rec.sleep,
	}
	if mutate != nil {
		mutate(&deps)
	}
	m, err := New(deps)
	require.NoError(t, err)
	f.mixer = m
	return f
}

func TestRunEndToEnd(t *testing.T) {
	f := newFixture(t, nil)
	req := &MixRequest{
		Amount:       10,
		Destinations: []string{"0xAlice", "0xBob"},
		PrivacyLevel: PrivacyStandard,
		SplitCount:   1,
	}

	res, err := f.mixer.Run(context.Background(), req, f.sink())
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Len(t, f.byType(EventDepositConfirmed), 1)
	assert.Len(t, f.byType(EventInvoiceCreated), 1)
	assert.Len(t, f.byType(EventLightningPaid), 1)
	assert.Len(t, f.byType(EventProofsMinted), 1)
	assert.Empty(t, f.byType(EventMixError))

	// Progress is non-decreasing and the stream ends in mix:complete
	// at exactly 100.
	last := 0
	for _, e := range f.events {
		assert.GreaterOrEqual(t, e.Progress, last)
		last = e.Progress
	}
	final := f.events[len(f.events)-1]
	assert.Equal(t, EventMixComplete, final.Type)
	assert.Equal(t, 100, final.Progress)

	require.Len(t, res.Distributions, 2)
	for _, d := range res.Distributions {
		assert.InDelta(t, 5.0, d.SourceUnitsRedeemed, 0.7)
		assert.Equal(t, swapman.StatusClaimed, d.Status)
		assert.NotEmpty(t, d.TxID)
	}
	assert.GreaterOrEqual(t, res.AnonymitySetSize, 20)
	assert.LessOrEqual(t, res.AnonymitySetSize, 30)
	assert.Equal(t, res.AnonymitySetSize, final.AnonymitySetSize)

	// Chain assets actually arrived.
	assert.Positive(t, f.gateway.Delivered("0xAlice").Sign())
	assert.Positive(t, f.gateway.Delivered("0xBob").Sign())
}

func TestRunFailingDestinationAborts(t *testing.T) {
	f := newFixture(t, nil)
	f.gateway.FailForDestination["0xBob"] = assert.AnError

	req := &MixRequest{
		Amount:       10,
		Destinations: []string{"0xAlice", "0xBob", "0xCarol"},
		PrivacyLevel: PrivacyStandard,
		SplitCount:   1,
	}

	_, err := f.mixer.Run(context.Background(), req, f.sink())
	require.ErrorIs(t, err, ErrSwapFailed)

	// Exactly one terminal error event, progress 0, and nothing ever
	// reached the third destination.
	errs := f.byType(EventMixError)
	require.Len(t, errs, 1)
	assert.Equal(t, 0, errs[0].Progress)
	// The cause is readable from the message itself, not just Error.
	assert.NotEmpty(t, errs[0].Message)
	assert.Equal(t, errs[0].Error, errs[0].Message)
	assert.Empty(t, f.byType(EventMixComplete))
	assert.Equal(t, int64(0), f.gateway.Delivered("0xCarol").Int64())
	assert.Positive(t, f.gateway.Delivered("0xAlice").Sign())
}

func TestRunInvalidRequest(t *testing.T) {
	f := newFixture(t, nil)
	req := &MixRequest{Amount: -1, Destinations: []string{"0xAlice"}, PrivacyLevel: PrivacyStandard}

	_, err := f.mixer.Run(context.Background(), req, f.sink())
	require.ErrorIs(t, err, ErrConfiguration)
	require.Len(t, f.byType(EventMixError), 1)
	assert.Len(t, f.events, 1)
}

func TestRunCustodyFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.custody.FailDeposit = assert.AnError

	req := &MixRequest{
		Amount:       5,
		Destinations: []string{"0xAlice"},
		PrivacyLevel: PrivacyStandard,
	}
	_, err := f.mixer.Run(context.Background(), req, f.sink())
	require.ErrorIs(t, err, ErrCustody)
	require.Len(t, f.byType(EventMixError), 1)
	assert.Empty(t, f.byType(EventDepositConfirmed))
}

func TestRunMintPaymentFailureRefunds(t *testing.T) {
	f := newFixture(t, nil)
	f.gateway.FailPayment = true

	req := &MixRequest{
		Amount:       5,
		Destinations: []string{"0xAlice"},
		PrivacyLevel: PrivacyStandard,
	}
	_, err := f.mixer.Run(context.Background(), req, f.sink())
	require.ErrorIs(t, err, ErrSwapFailed)
	require.Len(t, f.byType(EventMixError), 1)
	assert.Empty(t, f.byType(EventLightningPaid))
}

// unpaidMint never reports its quote as paid.
type unpaidMint struct {
	*cashuman.SimulatedMint
	checks int
}

func (u *unpaidMint) CheckMintQuote(ctx context.Context, quote string) (*cashuman.MintQuote, error) {
	u.checks++
	return &cashuman.MintQuote{Quote: quote, State: cashuman.QuoteStateCreated}, nil
}

func TestRunClaimRechecksExactlyOnce(t *testing.T) {
	var um *unpaidMint
	f := newFixture(t, func(d *Deps) {
		um = &unpaidMint{SimulatedMint: d.Ecash.(*cashuman.SimulatedMint)}
		d.Ecash = um
	})

	req := &MixRequest{
		Amount:       5,
		Destinations: []string{"0xAlice"},
		PrivacyLevel: PrivacyStandard,
	}
	_, err := f.mixer.Run(context.Background(), req, f.sink())
	require.ErrorIs(t, err, ErrPaymentNotConfirmed)
	assert.Equal(t, 2, um.checks)
	assert.Contains(t, f.rec.slept, 2*time.Second)
}

func TestNewRejectsIncompleteDeps(t *testing.T) {
	_, err := New(Deps{})
	assert.ErrorIs(t, err, ErrConfiguration)
}
