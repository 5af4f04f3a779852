package mixer

import (
	"context"
	"math/big"

	logger "github.com/sirupsen/logrus"

	"github.com/veilmix/mixer-go/cashuman"
	"github.com/veilmix/mixer-go/common"
	"github.com/veilmix/mixer-go/swapman"
)

// DistributionResult records one destination's payout.
type DistributionResult struct {
	Destination         string
	SourceUnitsRedeemed float64
	DestAssetSent       *big.Int // wei
	SatsSpent           uint64
	TxID                string
	Status              swapman.Status
}

// distribute redeems the proof pool and delivers chain assets to each
// destination in order. Each destination gets an equal share of the
// pool's value at entry; fee headroom for the melt comes out of the
// share, so later destinations are never starved by earlier fees. One
// failing destination aborts the whole run.
func (m *Mixer) distribute(
	ctx context.Context, req *MixRequest, pool cashuman.Proofs,
) ([]DistributionResult, cashuman.Proofs, error) {
	share := pool.Total() / uint64(len(req.Destinations))
	sendSats := share - share/100 - 2
	if share < 4 || sendSats < 1 {
		return nil, pool, insufficientProofs(pool.Total(), uint64(len(req.Destinations)*4))
	}

	results := make([]DistributionResult, 0, len(req.Destinations))
	for _, dest := range req.Destinations {
		res, remaining, err := m.distributeOne(ctx, dest, sendSats, pool)
		if err != nil {
			return results, pool, err
		}
		pool = remaining
		results = append(results, *res)
	}
	return results, pool, nil
}

func (m *Mixer) distributeOne(
	ctx context.Context, dest string, sendSats uint64, pool cashuman.Proofs,
) (*DistributionResult, cashuman.Proofs, error) {
	quote, err := m.deps.Gateway.GetQuote(
		ctx, swapman.AssetLightning, swapman.AssetChain,
		new(big.Int).SetUint64(sendSats), true, dest)
	if err != nil {
		return nil, pool, swapFailed(err, "quote swap to destination")
	}

	swap, err := m.deps.Gateway.LightningToChain(ctx, quote.AmountOut, dest)
	if err != nil {
		return nil, pool, swapFailed(err, "create swap to destination")
	}
	m.log.WithFields(logger.Fields{
		"swap": swap.ID(),
		"lock": common.Shorten(swap.LockPubKey(), 8),
	}).Debug("destination swap created")

	meltQuote, err := m.deps.Ecash.CreateMeltQuote(ctx, swap.LightningInvoice())
	if err != nil {
		return nil, pool, err
	}
	required := meltQuote.Amount + meltQuote.FeeReserve

	selected, remaining, err := SelectProofs(pool, required)
	if err != nil {
		return nil, pool, err
	}

	melt, err := m.deps.Ecash.MeltProofs(ctx, meltQuote, selected)
	if err != nil {
		return nil, pool, err
	}
	remaining = append(remaining, melt.Change...)
	spent := selected.Total() - melt.Change.Total()

	paid, err := swap.WaitForPayment(ctx)
	if err != nil || !paid {
		m.refundOnce(ctx, swap)
		return nil, remaining, swapFailed(err, "swap funding not settled")
	}
	if err := swap.Commit(ctx, m.deps.Signer); err != nil {
		m.refundOnce(ctx, swap)
		return nil, remaining, swapFailed(err, "commit destination swap")
	}
	if err := swap.Claim(ctx, m.deps.Signer); err != nil {
		m.refundOnce(ctx, swap)
		return nil, remaining, swapFailed(err, "claim destination swap")
	}

	m.log.WithFields(logger.Fields{
		"dest": common.Shorten(dest, 8),
		"sats": spent,
		"out":  swap.Output().String(),
		"tx":   common.Shorten(swap.TxID(), 8),
	}).Info("destination payout complete")

	return &DistributionResult{
		Destination:         dest,
		SourceUnitsRedeemed: common.WeiToUnits(swap.Output()),
		DestAssetSent:       swap.Output(),
		SatsSpent:           spent,
		TxID:                swap.TxID(),
		Status:              swap.Status(),
	}, remaining, nil
}

// refundOnce makes the single refund attempt allowed after a swap
// failure. A refused refund is logged, never retried.
func (m *Mixer) refundOnce(ctx context.Context, swap swapman.Swap) {
	txid, err := swap.Refund(ctx, m.deps.Signer)
	if err != nil {
		m.log.WithFields(logger.Fields{
			"swap": swap.ID(),
			"err":  err,
		}).Warn("refund attempt refused")
		return
	}
	m.log.WithFields(logger.Fields{
		"swap": swap.ID(),
		"tx":   common.Shorten(txid, 8),
	}).Info("committed swap refunded")
}
