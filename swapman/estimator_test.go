package swapman

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veilmix/mixer-go/lightningman"
)

func TestLiveQuoteStrategy(t *testing.T) {
	ctx := context.Background()
	gw := NewSimulatedGateway(lightningman.NewSimulatedNode(), 125)

	s := &LiveQuoteStrategy{Gateway: gw}
	est, err := s.EstimateSats(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, EstimateRealtime, est.Source)
	assert.Equal(t, uint64(1237), est.Sats)
	require.NotNil(t, est.Quote)
}

func TestStaticRateStrategy(t *testing.T) {
	ctx := context.Background()

	est, err := (&StaticRateStrategy{SatsPerUnit: 200}).EstimateSats(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(600), est.Sats)
	assert.Equal(t, EstimateFallback, est.Source)
	assert.Nil(t, est.Quote)

	// Zero rate falls back to the default.
	est, err = (&StaticRateStrategy{}).EstimateSats(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(2*DefaultFallbackSatsRate), est.Sats)

	// Valuations never round to zero.
	est, err = (&StaticRateStrategy{SatsPerUnit: 125}).EstimateSats(ctx, 0.000001)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), est.Sats)
}

func TestFallbackEstimatorDegrades(t *testing.T) {
	ctx := context.Background()
	gw := NewSimulatedGateway(lightningman.NewSimulatedNode(), 125)
	e := NewFallbackEstimator(gw, "", 0)

	est, err := e.EstimateSats(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, EstimateRealtime, est.Source)

	gw.FailQuote = assert.AnError
	est, err = e.EstimateSats(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, EstimateFallback, est.Source)
	assert.Equal(t, uint64(4*DefaultFallbackSatsRate), est.Sats)

	// FailQuote is consumed, live quoting resumes.
	est, err = e.EstimateSats(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, EstimateRealtime, est.Source)
}
