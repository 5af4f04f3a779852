package lightningman

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/veilmix/mixer-go/common"
)

var ErrUnknownInvoice = errors.New("invoice not issued by this simulated node")

// SimulatedNode issues and settles its own invoices, in memory. Used by
// tests, the demo binary and the simulated swap gateway.
type SimulatedNode struct {
	mu        sync.Mutex
	preimages map[chainhash.Hash][]byte
	settled   map[chainhash.Hash]bool

	// FailPay forces the next PayInvoice to report a failed payment.
	FailPay error
}

func NewSimulatedNode() *SimulatedNode {
	return &SimulatedNode{
		preimages: map[chainhash.Hash][]byte{},
		settled:   map[chainhash.Hash]bool{},
	}
}

func (sn *SimulatedNode) CreateInvoice(ctx context.Context, amountMsat uint64, memo string) (*InvoiceInfo, error) {
	sn.mu.Lock()
	defer sn.mu.Unlock()

	preimage := common.RandBytes(32)
	hash := chainhash.Hash(sha256.Sum256(preimage))

	now := time.Now().Unix()
	invoice, err := EncodeInvoice(amountMsat, hash, memo, 3600, now)
	if err != nil {
		return nil, err
	}

	sn.preimages[hash] = preimage

	return &InvoiceInfo{
		Invoice:     invoice,
		PaymentHash: hash,
		AmountMsat:  amountMsat,
		Expiry:      3600,
		Timestamp:   now,
		Memo:        memo,
	}, nil
}

func (sn *SimulatedNode) PayInvoice(ctx context.Context, invoice string) (*Payment, error) {
	sn.mu.Lock()
	defer sn.mu.Unlock()

	info, err := DecodeInvoice(invoice)
	if err != nil {
		return nil, err
	}

	if sn.FailPay != nil {
		return &Payment{
			PaymentHash: info.PaymentHash,
			Status:      PaymentFailed,
			FailureMsg:  sn.FailPay.Error(),
		}, nil
	}

	preimage, ok := sn.preimages[info.PaymentHash]
	if !ok {
		// Foreign invoice: settle it anyway, the simulated node stands in
		// for the whole network.
		preimage = common.RandBytes(32)
	}
	sn.settled[info.PaymentHash] = true

	return &Payment{
		PaymentHash: info.PaymentHash,
		Preimage:    hex.EncodeToString(preimage),
		Status:      PaymentSucceeded,
	}, nil
}

func (sn *SimulatedNode) DecodeInvoice(ctx context.Context, invoice string) (*InvoiceInfo, error) {
	return DecodeInvoice(invoice)
}

// Settle marks an invoice settled out of band (e.g. paid by a swap
// provider rather than through PayInvoice).
func (sn *SimulatedNode) Settle(paymentHash chainhash.Hash) {
	sn.mu.Lock()
	defer sn.mu.Unlock()
	sn.settled[paymentHash] = true
}

func (sn *SimulatedNode) IsSettled(paymentHash chainhash.Hash) bool {
	sn.mu.Lock()
	defer sn.mu.Unlock()
	return sn.settled[paymentHash]
}
