package mixer

import (
	"context"
	"math/big"
	"time"

	"github.com/veilmix/mixer-go/cashuman"
	"github.com/veilmix/mixer-go/chainman"
	"github.com/veilmix/mixer-go/lightningman"
	"github.com/veilmix/mixer-go/swapman"
)

// CustodyClient moves funds in and out of the custody contract.
type CustodyClient interface {
	Account() string
	Deposit(ctx context.Context, amount *big.Int) (*chainman.DepositReceipt, error)
	Withdraw(ctx context.Context, commitment [32]byte) (*chainman.WithdrawReceipt, error)
}

// LightningClient is the node surface the pipeline touches directly.
type LightningClient interface {
	CreateInvoice(ctx context.Context, amountMsat uint64, memo string) (*lightningman.InvoiceInfo, error)
	PayInvoice(ctx context.Context, invoice string) (*lightningman.Payment, error)
	DecodeInvoice(ctx context.Context, invoice string) (*lightningman.InvoiceInfo, error)
}

// Deps wires one mix run's collaborators. Each is independently
// replaceable; the simulated implementations satisfy all of them.
type Deps struct {
	Custody   CustodyClient
	Lightning LightningClient
	Ecash     cashuman.Client
	Gateway   swapman.Gateway
	Signer    *swapman.Signer
	Estimator swapman.EstimateStrategy

	// Router enables multi-mint distribution. Optional; randomized-mint
	// routing is skipped without it.
	Router *cashuman.Router

	// SleepFn replaces the privacy-delay sleeps, mainly for tests.
	// Defaults to a context-aware time.Sleep.
	SleepFn func(ctx context.Context, d time.Duration) error
}

func (d *Deps) validate() error {
	switch {
	case d.Custody == nil:
		return configurationError("custody client not configured")
	case d.Lightning == nil:
		return configurationError("lightning client not configured")
	case d.Ecash == nil:
		return configurationError("ecash client not configured")
	case d.Gateway == nil:
		return configurationError("swap gateway not configured")
	case d.Signer == nil:
		return configurationError("swap signer not configured")
	case d.Estimator == nil:
		return configurationError("estimation strategy not configured")
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
