package swapman

import (
	"context"

	logger "github.com/sirupsen/logrus"

	"github.com/veilmix/mixer-go/common"
)

// DefaultFallbackSatsRate prices one source unit in sats when no live
// quote is available.
const DefaultFallbackSatsRate = 125

type EstimateSource string

const (
	EstimateRealtime EstimateSource = "realtime"
	EstimateFallback EstimateSource = "fallback"
)

// Estimate is a sats valuation of a source-asset amount.
type Estimate struct {
	Sats   uint64
	Rate   float64
	Source EstimateSource
	Quote  *Quote // nil unless Source is realtime
}

type EstimateStrategy interface {
	EstimateSats(ctx context.Context, units float64) (*Estimate, error)
}

// LiveQuoteStrategy prices through a real gateway quote.
type LiveQuoteStrategy struct {
	Gateway       Gateway
	SourceAddress string
}

func (s *LiveQuoteStrategy) EstimateSats(ctx context.Context, units float64) (*Estimate, error) {
	q, err := s.Gateway.GetQuote(
		ctx, AssetChain, AssetLightning, common.UnitsToWei(units), true, s.SourceAddress)
	if err != nil {
		return nil, err
	}
	sats := q.AmountOut.Uint64()
	return &Estimate{
		Sats:   sats,
		Rate:   float64(sats) / units,
		Source: EstimateRealtime,
		Quote:  q,
	}, nil
}

// StaticRateStrategy prices at a fixed sats-per-unit rate.
type StaticRateStrategy struct {
	SatsPerUnit float64
}

func (s *StaticRateStrategy) EstimateSats(ctx context.Context, units float64) (*Estimate, error) {
	rate := s.SatsPerUnit
	if rate <= 0 {
		rate = DefaultFallbackSatsRate
	}
	return &Estimate{Sats: common.UnitsToSats(units, rate), Rate: rate, Source: EstimateFallback}, nil
}

// FallbackEstimator tries the live strategy and degrades to the static
// one when quoting fails.
type FallbackEstimator struct {
	Live   EstimateStrategy
	Static EstimateStrategy
}

func NewFallbackEstimator(gateway Gateway, sourceAddress string, fallbackRate float64) *FallbackEstimator {
	return &FallbackEstimator{
		Live:   &LiveQuoteStrategy{Gateway: gateway, SourceAddress: sourceAddress},
		Static: &StaticRateStrategy{SatsPerUnit: fallbackRate},
	}
}

func (e *FallbackEstimator) EstimateSats(ctx context.Context, units float64) (*Estimate, error) {
	if e.Live != nil {
		est, err := e.Live.EstimateSats(ctx, units)
		if err == nil {
			return est, nil
		}
		logger.WithField("err", err).Warn("live quote failed, using fallback rate")
	}
	return e.Static.EstimateSats(ctx, units)
}
