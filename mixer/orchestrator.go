package mixer

import (
	"context"
	"fmt"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/veilmix/mixer-go/cashuman"
	"github.com/veilmix/mixer-go/common"
)

// Progress checkpoints are contractual: consumers render a monotonic
// progress bar from them.
const (
	progressDeposited   = 10
	progressWithdrawn   = 20
	progressInvoice     = 35
	progressPaid        = 45
	progressMinted      = 60
	progressPrivacy     = 80
	progressDistributed = 95
	progressComplete    = 100
)

const (
	// mintRecheckWait is how long the claim step waits before its one
	// allowed recheck of the mint quote.
	mintRecheckWait = 2 * time.Second

	// mintTolerance is the accepted gap, in sats, between requested and
	// actually minted value. Larger gaps warn but do not fail: the mint
	// is the source of truth for issuance.
	mintTolerance = 1
)

// MixResult is what a completed run hands back to the caller.
type MixResult struct {
	Commitment       string
	TotalSats        uint64
	Distributions    []DistributionResult
	ResidualSats     uint64
	AnonymitySetSize int
	PrivacyScore     int
}

// Mixer drives one mix run at a time per signer. Steps run strictly in
// sequence; cancelling the context abandons the run without unwinding
// already-committed chain or Lightning state.
type Mixer struct {
	deps Deps
	log  *logger.Entry
}

func New(deps Deps) (*Mixer, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if deps.SleepFn == nil {
		deps.SleepFn = sleepCtx
	}
	return &Mixer{
		deps: deps,
		log:  logger.WithField("component", "mixer"),
	}, nil
}

func (m *Mixer) sleep(ctx context.Context, d time.Duration) error {
	return m.deps.SleepFn(ctx, d)
}

// Run executes the full pipeline: deposit, withdraw-for-mixing, sats
// estimation, mint invoice, chain to Lightning swap, proof claim,
// privacy transforms, distribution. Exactly one mix:error event with
// progress 0 is emitted on failure, then the error is returned.
func (m *Mixer) Run(ctx context.Context, req *MixRequest, sink EventSink) (result *MixResult, err error) {
	if sink == nil {
		sink = FuncSink(func(Event) {})
	}
	emit := func(e Event) {
		e.Timestamp = time.Now()
		sink.Emit(e)
	}
	defer func() {
		if err != nil {
			emit(Event{
				Type:     EventMixError,
				Message:  err.Error(),
				Progress: 0,
				Error:    err.Error(),
			})
		}
	}()

	if err = req.Validate(); err != nil {
		return nil, err
	}

	// Deposit into custody.
	amount := common.UnitsToWei(req.Amount)
	dep, derr := m.deps.Custody.Deposit(ctx, amount)
	if derr != nil {
		return nil, custodyError(derr, "deposit")
	}
	commitment := common.Bytes32ToHexStr(dep.CommitmentID)
	emit(Event{
		Type:       EventDepositConfirmed,
		Message:    "funds locked in custody",
		Progress:   progressDeposited,
		Commitment: commitment,
	})

	// Withdraw under pipeline control, breaking the on-chain link.
	wd, werr := m.deps.Custody.Withdraw(ctx, dep.CommitmentID)
	if werr != nil {
		return nil, custodyError(werr, "withdraw")
	}
	if wd.TxHash == "" {
		return nil, invariantViolation("withdrawal produced no transaction handle")
	}
	emit(Event{
		Type:     EventMixProgress,
		Message:  "withdrawn for mixing",
		Progress: progressWithdrawn,
		TxHash:   wd.TxHash,
	})

	// Size the mint request. The estimate is advisory; downstream steps
	// reconcile against what was actually minted.
	est, eerr := m.deps.Estimator.EstimateSats(ctx, req.Amount)
	if eerr != nil {
		return nil, swapFailed(eerr, "sats estimation")
	}
	m.log.WithFields(logger.Fields{
		"sats":   est.Sats,
		"source": est.Source,
	}).Info("sized mint request")

	mq, qerr := m.deps.Ecash.CreateMintQuote(ctx, est.Sats)
	if qerr != nil {
		return nil, fmt.Errorf("create mint quote: %w", qerr)
	}
	inv, ierr := m.deps.Lightning.DecodeInvoice(ctx, mq.Request)
	if ierr != nil {
		return nil, fmt.Errorf("decode mint invoice: %w", ierr)
	}
	if invoiced := common.MsatToSats(inv.AmountMsat); invoiced != est.Sats {
		m.log.WithFields(logger.Fields{
			"estimated": est.Sats,
			"invoiced":  invoiced,
		}).Warn("mint invoice deviates from estimate")
	}
	emit(Event{
		Type:     EventInvoiceCreated,
		Message:  "mint invoice created",
		Progress: progressInvoice,
		QuoteID:  mq.Quote,
	})

	// Pay the mint invoice out of the withdrawn chain funds. Commit
	// first, then wait for Lightning settlement; a failed settlement
	// refunds the committed swap before the run aborts.
	swap, serr := m.deps.Gateway.ChainToLightning(ctx, mq.Request, wd.ControllingAddress)
	if serr != nil {
		return nil, swapFailed(serr, "create chain to lightning swap")
	}
	if cerr := swap.Commit(ctx, m.deps.Signer); cerr != nil {
		return nil, swapFailed(cerr, "commit chain to lightning swap")
	}
	paid, perr := swap.WaitForPayment(ctx)
	if perr != nil {
		m.refundOnce(ctx, swap)
		return nil, swapFailed(perr, "wait for mint invoice settlement")
	}
	if !paid {
		m.refundOnce(ctx, swap)
		return nil, swapFailed(nil, "mint invoice payment failed")
	}
	emit(Event{
		Type:     EventLightningPaid,
		Message:  "mint invoice paid",
		Progress: progressPaid,
		QuoteID:  mq.Quote,
	})

	// Claim proofs once the mint sees the payment.
	proofs, clerr := m.claimProofs(ctx, mq)
	if clerr != nil {
		return nil, clerr
	}
	emit(Event{
		Type:     EventProofsMinted,
		Message:  fmt.Sprintf("minted %d sats of proofs", proofs.Total()),
		Progress: progressMinted,
		QuoteID:  mq.Quote,
	})
	totalSats := proofs.Total()

	proofs, err = m.ApplyPrivacy(ctx, req, proofs)
	if err != nil {
		return nil, err
	}
	emit(Event{
		Type:     EventMixProgress,
		Message:  "privacy transforms applied",
		Progress: progressPrivacy,
	})

	dists, leftover, dierr := m.distribute(ctx, req, proofs)
	if dierr != nil {
		err = dierr
		return nil, err
	}
	emit(Event{
		Type:     EventMixProgress,
		Message:  "destinations funded",
		Progress: progressDistributed,
	})
	if leftover.Total() > 0 {
		m.log.WithField("sats", leftover.Total()).Debug("residual change after distribution")
	}

	set := AnonymitySetSize(req)
	score := PrivacyScore(req)
	emit(Event{
		Type:             EventMixComplete,
		Message:          "mix complete",
		Progress:         progressComplete,
		AnonymitySetSize: set,
		PrivacyScore:     score,
	})

	return &MixResult{
		Commitment:       commitment,
		TotalSats:        totalSats,
		Distributions:    dists,
		ResidualSats:     leftover.Total(),
		AnonymitySetSize: set,
		PrivacyScore:     score,
	}, nil
}

// claimProofs polls the mint quote, allowing one recheck after a short
// wait, then mints and reconciles the issued value.
func (m *Mixer) claimProofs(ctx context.Context, mq *cashuman.MintQuote) (cashuman.Proofs, error) {
	state, err := m.deps.Ecash.CheckMintQuote(ctx, mq.Quote)
	if err != nil {
		return nil, err
	}
	if state.State != cashuman.QuoteStatePaid {
		if err := m.sleep(ctx, mintRecheckWait); err != nil {
			return nil, err
		}
		state, err = m.deps.Ecash.CheckMintQuote(ctx, mq.Quote)
		if err != nil {
			return nil, err
		}
		if state.State != cashuman.QuoteStatePaid {
			return nil, paymentNotConfirmed(fmt.Sprintf("mint quote %s still %s", mq.Quote, state.State))
		}
	}

	proofs, err := m.deps.Ecash.MintProofs(ctx, mq.Amount, mq.Quote)
	if err != nil {
		return nil, err
	}

	minted := proofs.Total()
	var diff uint64
	if minted > mq.Amount {
		diff = minted - mq.Amount
	} else {
		diff = mq.Amount - minted
	}
	if diff > mintTolerance {
		m.log.WithFields(logger.Fields{
			"requested": mq.Amount,
			"minted":    minted,
		}).Warn("minted value deviates from requested amount")
	}
	return proofs, nil
}
