package swapman

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	logger "github.com/sirupsen/logrus"

	"github.com/veilmix/mixer-go/common"
	"github.com/veilmix/mixer-go/lightningman"
)

var (
	ErrQuoteUnavailable = errors.New("swap quote unavailable")
	ErrSwapRejected     = errors.New("swap rejected by provider")
	ErrSwapTerminal     = errors.New("swap already in a terminal state")
	ErrSwapBadState     = errors.New("operation not valid in current swap state")
	ErrPaymentNotSeen   = errors.New("lightning payment not observed")
)

// SimulatedGateway is an in-memory swap provider backed by a simulated
// Lightning node. Chain legs are ledger entries, Lightning legs settle
// real (simulated) invoices, so pipeline tests exercise the full
// commit/claim/refund surface.
type SimulatedGateway struct {
	mu   sync.Mutex
	node *lightningman.SimulatedNode

	// SatsPerUnit prices the source asset in sats.
	SatsPerUnit float64
	// FeeRate is the provider fee on AmountIn.
	FeeRate float64

	// FailQuote makes GetQuote return an error once per set.
	FailQuote error
	// FailPayment makes the next chain to LN swap fail its Lightning leg.
	FailPayment bool
	// FailForDestination rejects swap creation toward an address.
	FailForDestination map[string]error

	delivered map[string]*big.Int
	seq       int
}

func NewSimulatedGateway(node *lightningman.SimulatedNode, satsPerUnit float64) *SimulatedGateway {
	return &SimulatedGateway{
		node:               node,
		SatsPerUnit:        satsPerUnit,
		FeeRate:            0.01,
		FailForDestination: make(map[string]error),
		delivered:          make(map[string]*big.Int),
	}
}

// Delivered returns the total delivered to a destination across all
// claimed swaps. Test helper.
func (g *SimulatedGateway) Delivered(dest string) *big.Int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if v, ok := g.delivered[dest]; ok {
		return common.BigIntClone(v)
	}
	return big.NewInt(0)
}

func (g *SimulatedGateway) nextID(prefix string) string {
	g.seq++
	return fmt.Sprintf("%s-%d-%x", prefix, g.seq, common.RandBytes(4))
}

// newClaimKey generates the secp256k1 key the swap's claim output is
// locked to. Real providers return only the public half.
func newClaimKey() (*btcec.PrivateKey, error) {
	return btcec.NewPrivateKey()
}

func (g *SimulatedGateway) GetQuote(
	ctx context.Context, from, to Asset, amount *big.Int, exactIn bool, destAddress string,
) (*Quote, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.FailQuote != nil {
		err := g.FailQuote
		g.FailQuote = nil
		return nil, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrQuoteUnavailable
	}

	q := &Quote{
		ID:        g.nextID("quote"),
		FromAsset: from,
		ToAsset:   to,
		Expiry:    time.Now().Add(10 * time.Minute),
		PriceInfo: PriceInfo{
			SwapPrice:   g.SatsPerUnit,
			MarketPrice: g.SatsPerUnit,
		},
	}
	switch {
	case from == AssetChain && to == AssetLightning:
		units := common.WeiToUnits(amount)
		sats := uint64(units * g.SatsPerUnit * (1 - g.FeeRate))
		if sats == 0 {
			sats = 1
		}
		q.AmountIn = common.BigIntClone(amount)
		q.AmountOut = new(big.Int).SetUint64(sats)
		q.Fee = new(big.Int).Sub(amount, common.UnitsToWei(units*(1-g.FeeRate)))
	case from == AssetLightning && to == AssetChain:
		if exactIn {
			sats := amount.Uint64()
			units := float64(sats) / g.SatsPerUnit * (1 - g.FeeRate)
			q.AmountIn = common.BigIntClone(amount)
			q.AmountOut = common.UnitsToWei(units)
			q.Fee = new(big.Int).SetUint64(sats - uint64(float64(sats)*(1-g.FeeRate)))
		} else {
			units := common.WeiToUnits(amount)
			sats := uint64(units*g.SatsPerUnit/(1-g.FeeRate)) + 1
			q.AmountIn = new(big.Int).SetUint64(sats)
			q.AmountOut = common.BigIntClone(amount)
			q.Fee = new(big.Int).SetUint64(sats - uint64(units*g.SatsPerUnit))
		}
	default:
		return nil, fmt.Errorf("%w: %s -> %s", ErrQuoteUnavailable, from, to)
	}
	return q, nil
}

func (g *SimulatedGateway) ChainToLightning(
	ctx context.Context, invoice string, sourceAddress string,
) (Swap, error) {
	inv, err := lightningman.DecodeInvoice(invoice)
	if err != nil {
		return nil, err
	}
	sats := common.MsatToSats(inv.AmountMsat)

	claimKey, err := newClaimKey()
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	in := common.UnitsToWei(float64(sats) / g.SatsPerUnit / (1 - g.FeeRate))
	quote := &Quote{
		ID:        g.nextID("quote"),
		FromAsset: AssetChain,
		ToAsset:   AssetLightning,
		AmountIn:  in,
		AmountOut: new(big.Int).SetUint64(sats),
		Fee:       new(big.Int).Sub(in, common.UnitsToWei(float64(sats)/g.SatsPerUnit)),
		Expiry:    time.Now().Add(10 * time.Minute),
		PriceInfo: PriceInfo{SwapPrice: g.SatsPerUnit, MarketPrice: g.SatsPerUnit},
	}
	s := &simulatedSwap{
		gw:          g,
		id:          g.nextID("swap-out"),
		quote:       quote,
		invoice:     invoice,
		paymentHash: inv.PaymentHash,
		claimKey:    claimKey,
		source:      sourceAddress,
		status:      StatusCreated,
		failPayment: g.FailPayment,
	}
	g.FailPayment = false
	logger.WithFields(logger.Fields{
		"id":   s.id,
		"sats": sats,
		"hash": s.paymentHash.String(),
	}).Debug("created chain to lightning swap")
	return s, nil
}

func (g *SimulatedGateway) LightningToChain(
	ctx context.Context, amountOut *big.Int, destAddress string,
) (Swap, error) {
	g.mu.Lock()
	if err, ok := g.FailForDestination[destAddress]; ok {
		g.mu.Unlock()
		return nil, fmt.Errorf("%w: %s: %v", ErrSwapRejected, common.Shorten(destAddress, 8), err)
	}
	g.mu.Unlock()

	quote, err := g.GetQuote(ctx, AssetLightning, AssetChain, amountOut, false, destAddress)
	if err != nil {
		return nil, err
	}
	sats := btcutil.Amount(quote.AmountIn.Int64())
	inv, err := g.node.CreateInvoice(ctx, common.SatsToMsat(uint64(sats)), "swap funding")
	if err != nil {
		return nil, err
	}
	claimKey, err := newClaimKey()
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	s := &simulatedSwap{
		gw:          g,
		id:          g.nextID("swap-in"),
		quote:       quote,
		invoice:     inv.Invoice,
		paymentHash: inv.PaymentHash,
		claimKey:    claimKey,
		dest:        destAddress,
		status:      StatusCreated,
	}
	logger.WithFields(logger.Fields{
		"id":   s.id,
		"sats": sats,
		"dest": common.Shorten(destAddress, 8),
	}).Debug("created lightning to chain swap")
	return s, nil
}

type simulatedSwap struct {
	mu sync.Mutex
	gw *SimulatedGateway

	id          string
	quote       *Quote
	invoice     string
	paymentHash chainhash.Hash
	claimKey    *btcec.PrivateKey
	source      string
	dest        string
	status      Status
	txID        string
	failPayment bool
}

func (s *simulatedSwap) ID() string               { return s.id }
func (s *simulatedSwap) Quote() *Quote            { return s.quote }
func (s *simulatedSwap) LightningInvoice() string { return s.invoice }

func (s *simulatedSwap) LockPubKey() string {
	return common.ByteSliceToPureHexStr(s.claimKey.PubKey().SerializeCompressed())
}

func (s *simulatedSwap) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *simulatedSwap) Output() *big.Int {
	return common.BigIntClone(s.quote.AmountOut)
}

func (s *simulatedSwap) Fee() *big.Int {
	return common.BigIntClone(s.quote.Fee)
}

func (s *simulatedSwap) TxID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.txID
}

func (s *simulatedSwap) transition(from []Status, to Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Terminal() {
		return fmt.Errorf("%w: %s", ErrSwapTerminal, s.status)
	}
	for _, f := range from {
		if s.status == f {
			s.status = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrSwapBadState, s.status)
}

func (s *simulatedSwap) Commit(ctx context.Context, signer *Signer) error {
	if signer == nil {
		return errors.New("nil signer")
	}
	if err := s.transition([]Status{StatusCreated}, StatusCommited); err != nil {
		return err
	}
	s.mu.Lock()
	s.txID = "0x" + common.ByteSliceToPureHexStr(common.RandBytes(32))
	s.mu.Unlock()
	return nil
}

func (s *simulatedSwap) WaitForPayment(ctx context.Context) (bool, error) {
	if s.dest != "" {
		// LN to chain: wait for our funding invoice to settle.
		for i := 0; i < 200; i++ {
			if s.gw.node.IsSettled(s.paymentHash) {
				return true, nil
			}
			select {
			case <-ctx.Done():
				return false, ctx.Err()
			case <-time.After(10 * time.Millisecond):
			}
		}
		return false, nil
	}

	// Chain to LN: the provider pays the target invoice off committed funds.
	if s.Status() != StatusCommited {
		return false, fmt.Errorf("%w: %s", ErrSwapBadState, s.Status())
	}
	if s.failPayment {
		s.mu.Lock()
		s.status = StatusRefundable
		s.mu.Unlock()
		return false, nil
	}
	p, err := s.gw.node.PayInvoice(ctx, s.invoice)
	if err != nil || p.Status != lightningman.PaymentSucceeded {
		s.mu.Lock()
		s.status = StatusRefundable
		s.mu.Unlock()
		return false, nil
	}
	s.mu.Lock()
	s.status = StatusClaimed
	s.mu.Unlock()
	return true, nil
}

func (s *simulatedSwap) Claim(ctx context.Context, signer *Signer) error {
	if signer == nil {
		return errors.New("nil signer")
	}
	if s.dest == "" {
		// Chain to LN claims happen provider-side on payment.
		if s.Status() == StatusClaimed {
			return nil
		}
		return fmt.Errorf("%w: %s", ErrSwapBadState, s.Status())
	}
	if !s.gw.node.IsSettled(s.paymentHash) {
		return ErrPaymentNotSeen
	}
	if err := s.transition([]Status{StatusCreated, StatusCommited, StatusSoftClaimed}, StatusClaimed); err != nil {
		return err
	}
	s.mu.Lock()
	s.txID = "0x" + common.ByteSliceToPureHexStr(common.RandBytes(32))
	s.mu.Unlock()

	s.gw.mu.Lock()
	prev, ok := s.gw.delivered[s.dest]
	if !ok {
		prev = big.NewInt(0)
		s.gw.delivered[s.dest] = prev
	}
	prev.Add(prev, s.quote.AmountOut)
	s.gw.mu.Unlock()

	logger.WithFields(logger.Fields{
		"id":   s.id,
		"dest": common.Shorten(s.dest, 8),
		"out":  s.quote.AmountOut.String(),
	}).Debug("swap claimed")
	return nil
}

func (s *simulatedSwap) Refund(ctx context.Context, signer *Signer) (string, error) {
	if signer == nil {
		return "", errors.New("nil signer")
	}
	if err := s.transition([]Status{StatusCommited, StatusRefundable}, StatusRefunded); err != nil {
		return "", err
	}
	tx := "0x" + common.ByteSliceToPureHexStr(common.RandBytes(32))
	s.mu.Lock()
	s.txID = tx
	s.mu.Unlock()
	logger.WithField("id", s.id).Debug("swap refunded")
	return tx, nil
}
