package swapman

import (
	"context"
	"math/big"
	"time"
)

type Asset string

const (
	// AssetChain is the custody chain's native asset, in wei.
	AssetChain Asset = "CHAIN"
	// AssetLightning is Lightning-denominated bitcoin, in sats.
	AssetLightning Asset = "BTC_LN"
)

type Status string

const (
	StatusCreated     Status = "CREATED"
	StatusCommited    Status = "COMMITED"
	StatusSoftClaimed Status = "SOFT_CLAIMED"
	StatusClaimed     Status = "CLAIMED"
	StatusRefundable  Status = "REFUNDABLE"
	StatusRefunded    Status = "REFUNDED"
	StatusExpired     Status = "EXPIRED"
	StatusFailed      Status = "FAILED"
)

// Terminal reports whether the status is final. Terminal states are
// never re-entered.
func (s Status) Terminal() bool {
	switch s {
	case StatusClaimed, StatusRefunded, StatusExpired, StatusFailed:
		return true
	}
	return false
}

type PriceInfo struct {
	SwapPrice   float64
	MarketPrice float64
	Difference  float64
}

// Quote is immutable once issued and void after Expiry. Amounts are in
// the minor units of their respective asset (wei or sats).
type Quote struct {
	ID        string
	FromAsset Asset
	ToAsset   Asset
	AmountIn  *big.Int
	AmountOut *big.Int
	Fee       *big.Int // in the source asset
	PriceInfo PriceInfo
	Expiry    time.Time
}

// Swap is one atomic swap in flight. Commit locks funds under the swap
// conditions, claim releases them once those conditions are met.
type Swap interface {
	ID() string
	Quote() *Quote
	Status() Status

	// LightningInvoice is the invoice being paid (chain to LN) or the
	// invoice that funds the swap (LN to chain).
	LightningInvoice() string

	// LockPubKey is the compressed secp256k1 public key the swap's
	// claim path is locked to, hex encoded.
	LockPubKey() string

	Commit(ctx context.Context, signer *Signer) error
	Claim(ctx context.Context, signer *Signer) error

	// Refund recovers committed funds after a failed settlement,
	// returning the refund tx id.
	Refund(ctx context.Context, signer *Signer) (string, error)

	// WaitForPayment blocks until Lightning settlement is observed (or
	// definitively not).
	WaitForPayment(ctx context.Context) (bool, error)

	// Output is the amount delivered on the destination asset.
	Output() *big.Int
	Fee() *big.Int
	TxID() string
}

// Gateway is the swap provider surface the pipeline depends on.
type Gateway interface {
	// GetQuote prices a conversion without creating an executable swap.
	GetQuote(ctx context.Context, from, to Asset, amount *big.Int, exactIn bool, destAddress string) (*Quote, error)

	// ChainToLightning creates a swap that pays invoice out of chain
	// funds held by sourceAddress.
	ChainToLightning(ctx context.Context, invoice string, sourceAddress string) (Swap, error)

	// LightningToChain creates a swap delivering amountOut (wei) to
	// destAddress, funded by paying the swap's Lightning invoice.
	LightningToChain(ctx context.Context, amountOut *big.Int, destAddress string) (Swap, error)
}
