package mixer

import (
	"context"

	logger "github.com/sirupsen/logrus"

	"github.com/veilmix/mixer-go/cashuman"
)

// ApplyPrivacy post-processes the proof pool according to the request's
// privacy flags, in a fixed order: multi-mint routing, output splitting,
// time delay, amount obfuscation, decoy traffic. Every sub-transform is
// a no-op when its flag is off; with all flags off the input pool is
// returned untouched. A failing sub-transform aborts the whole
// transform.
func (m *Mixer) ApplyPrivacy(ctx context.Context, req *MixRequest, proofs cashuman.Proofs) (cashuman.Proofs, error) {
	out := proofs

	if req.EnableRandomizedMints && m.deps.Router != nil {
		routed, err := m.deps.Router.RouteThrough(ctx, out.Total(), out, 2)
		if err != nil {
			return nil, err
		}
		out = routed
		m.log.WithField("total", out.Total()).Debug("routed proofs through side mint")
		if err := m.sleep(ctx, Jitter(delayPostDistribution, jitterVariance)); err != nil {
			return nil, err
		}
	}

	if req.EnableSplitOutputs && req.SplitCount > 1 {
		split, err := m.splitOutputs(ctx, req.SplitCount, out)
		if err != nil {
			return nil, err
		}
		out = split
	}

	if req.EnableTimeDelays {
		if err := m.sleep(ctx, Jitter(delayTimeDelay, jitterVariance)); err != nil {
			return nil, err
		}
	}
	if req.EnableAmountObfuscation {
		if err := m.sleep(ctx, Jitter(delayObfuscation, jitterVariance)); err != nil {
			return nil, err
		}
	}
	if req.EnableDecoyTx {
		if err := m.sleep(ctx, Jitter(delayDecoy, jitterVariance)); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// splitOutputs carves the pool into count disjoint sub-amounts so that
// downstream redemption is evidentially split. Each iteration sends one
// equal part and carries the remainder forward.
func (m *Mixer) splitOutputs(ctx context.Context, count int, pool cashuman.Proofs) (cashuman.Proofs, error) {
	total := pool.Total()
	per := total / uint64(count)
	if per == 0 {
		return nil, insufficientProofs(total, uint64(count))
	}

	var parts cashuman.Proofs
	for i := 0; i < count-1; i++ {
		res, err := m.deps.Ecash.Send(ctx, per, pool)
		if err != nil {
			return nil, err
		}
		parts = append(parts, res.Send...)
		pool = res.Keep
	}
	parts = append(parts, pool...)

	logger.WithFields(logger.Fields{
		"parts": count,
		"per":   per,
		"total": parts.Total(),
	}).Debug("split proof pool")
	return parts, nil
}
