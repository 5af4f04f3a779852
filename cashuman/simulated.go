package cashuman

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/crypto/sha3"

	"github.com/veilmix/mixer-go/common"
	"github.com/veilmix/mixer-go/lightningman"
)

var (
	ErrQuoteUnknown       = errors.New("mint quote not found")
	ErrQuoteNotPaid       = errors.New("mint quote not paid yet")
	ErrQuoteAlreadyIssued = errors.New("mint quote already issued")
	ErrProofUnknown       = errors.New("proof not issued by this mint")
	ErrProofSpent         = errors.New("proof already spent")
	ErrInsufficientFunds  = errors.New("proofs do not cover the requested amount")
)

// SimulatedMint is a complete in-memory mint. Proof signatures are
// deterministic digests rather than blind signatures; everything else
// (quote states, spend-once bookkeeping, change) behaves like the real
// protocol. Optionally wired to a SimulatedNode so that quote invoices
// settle through the same fake Lightning network the swap gateway uses.
type SimulatedMint struct {
	mu       sync.Mutex
	url      string
	keysetID string
	node     *lightningman.SimulatedNode

	quotes     map[string]*MintQuote
	meltQuotes map[string]*MeltQuote
	live       map[string]bool // issued, unspent secrets
	spent      map[string]bool

	// Scripted failures for exercising abort paths.
	FailSend error
	FailMelt error
}

func NewSimulatedMint(url string, node *lightningman.SimulatedNode) *SimulatedMint {
	return &SimulatedMint{
		url:        url,
		keysetID:   hex.EncodeToString(common.RandBytes(8)),
		node:       node,
		quotes:     map[string]*MintQuote{},
		meltQuotes: map[string]*MeltQuote{},
		live:       map[string]bool{},
		spent:      map[string]bool{},
	}
}

func (sm *SimulatedMint) MintURL() string {
	return sm.url
}

func (sm *SimulatedMint) CreateMintQuote(ctx context.Context, amount uint64) (*MintQuote, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	id := hex.EncodeToString(common.RandBytes(16))

	var request string
	if sm.node != nil {
		info, err := sm.node.CreateInvoice(ctx, common.SatsToMsat(amount), "mint quote "+id)
		if err != nil {
			return nil, err
		}
		request = info.Invoice
	}

	quote := &MintQuote{
		Quote:   id,
		Amount:  amount,
		State:   QuoteStateCreated,
		Request: request,
		Expiry:  time.Now().Add(time.Hour).Unix(),
	}
	sm.quotes[id] = quote

	copied := *quote
	return &copied, nil
}

func (sm *SimulatedMint) CheckMintQuote(ctx context.Context, quote string) (*MintQuote, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	q, ok := sm.quotes[quote]
	if !ok {
		return nil, ErrQuoteUnknown
	}

	if q.State == QuoteStateCreated && sm.invoiceSettled(q.Request) {
		q.State = QuoteStatePaid
	}

	copied := *q
	return &copied, nil
}

func (sm *SimulatedMint) MintProofs(ctx context.Context, amount uint64, quote string) (Proofs, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	q, ok := sm.quotes[quote]
	if !ok {
		return nil, ErrQuoteUnknown
	}
	if q.State == QuoteStateCreated && sm.invoiceSettled(q.Request) {
		q.State = QuoteStatePaid
	}
	switch q.State {
	case QuoteStateCreated:
		return nil, ErrQuoteNotPaid
	case QuoteStateIssued:
		return nil, ErrQuoteAlreadyIssued
	}
	q.State = QuoteStateIssued

	return sm.issue(amount), nil
}

func (sm *SimulatedMint) CreateMeltQuote(ctx context.Context, invoice string) (*MeltQuote, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	info, err := lightningman.DecodeInvoice(invoice)
	if err != nil {
		return nil, fmt.Errorf("cannot quote melt for invoice: %v", err)
	}

	amount := common.MsatToSats(info.AmountMsat)
	fee := amount / 100
	if fee < 1 {
		fee = 1
	}

	quote := &MeltQuote{
		Quote:      hex.EncodeToString(common.RandBytes(16)),
		Amount:     amount,
		FeeReserve: fee,
		Invoice:    invoice,
	}
	sm.meltQuotes[quote.Quote] = quote

	copied := *quote
	return &copied, nil
}

func (sm *SimulatedMint) MeltProofs(ctx context.Context, quote *MeltQuote, proofs Proofs) (*MeltResult, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.FailMelt != nil {
		return nil, sm.FailMelt
	}

	stored, ok := sm.meltQuotes[quote.Quote]
	if !ok {
		return nil, ErrQuoteUnknown
	}

	required := stored.Amount + stored.FeeReserve
	if proofs.Total() < required {
		return nil, ErrInsufficientFunds
	}

	total, err := sm.consume(proofs)
	if err != nil {
		return nil, err
	}

	// The mint pays the invoice over Lightning.
	if sm.node != nil {
		if info, err := lightningman.DecodeInvoice(stored.Invoice); err == nil {
			sm.node.Settle(info.PaymentHash)
		}
	}

	return &MeltResult{
		Paid:     true,
		Preimage: hex.EncodeToString(common.RandBytes(32)),
		Change:   sm.issue(total - required),
	}, nil
}

func (sm *SimulatedMint) Send(ctx context.Context, amount uint64, proofs Proofs) (*SendResult, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.FailSend != nil {
		return nil, sm.FailSend
	}

	if amount > proofs.Total() {
		return nil, ErrInsufficientFunds
	}

	total, err := sm.consume(proofs)
	if err != nil {
		return nil, err
	}

	return &SendResult{
		Keep: sm.issue(total - amount),
		Send: sm.issue(amount),
	}, nil
}

func (sm *SimulatedMint) CreateToken(proofs Proofs) (string, error) {
	return EncodeToken(sm.url, proofs)
}

func (sm *SimulatedMint) Receive(ctx context.Context, token string) (Proofs, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	mintURL, proofs, err := DecodeToken(token)
	if err != nil {
		return nil, err
	}

	if mintURL == sm.url {
		// Own proofs: swap them for fresh ones.
		total, err := sm.consume(proofs)
		if err != nil {
			return nil, err
		}
		return sm.issue(total), nil
	}

	// Foreign token: accepted at face value. A real mint would require a
	// Lightning transfer from the issuing mint here.
	return sm.issue(proofs.Total()), nil
}

func (sm *SimulatedMint) Info(ctx context.Context) (*MintInfo, error) {
	return &MintInfo{Name: "simulated mint", Description: sm.url, Version: "0"}, nil
}

// consume validates that every proof is live and unspent, marks them all
// spent, and returns their total. Callers hold the lock.
func (sm *SimulatedMint) consume(proofs Proofs) (uint64, error) {
	for _, p := range proofs {
		if sm.spent[p.Secret] {
			return 0, ErrProofSpent
		}
		if !sm.live[p.Secret] {
			return 0, ErrProofUnknown
		}
	}
	var total uint64
	for _, p := range proofs {
		sm.spent[p.Secret] = true
		delete(sm.live, p.Secret)
		total += p.Amount
	}
	return total, nil
}

// issue mints fresh proofs summing to amount, in power-of-two
// denominations. Callers hold the lock.
func (sm *SimulatedMint) issue(amount uint64) Proofs {
	var proofs Proofs
	for bit := 0; bit < 64; bit++ {
		denom := uint64(1) << bit
		if amount&denom == 0 {
			continue
		}
		proofs = append(proofs, sm.newProof(denom))
	}
	return proofs
}

func (sm *SimulatedMint) newProof(amount uint64) Proof {
	secret := hex.EncodeToString(common.RandBytes(16))
	sig := sha3.Sum256([]byte(secret + sm.keysetID))
	sm.live[secret] = true

	return Proof{
		Amount:   amount,
		KeysetId: sm.keysetID,
		Secret:   secret,
		C:        hex.EncodeToString(sig[:]),
		Currency: "SAT",
	}
}

func (sm *SimulatedMint) invoiceSettled(invoice string) bool {
	if sm.node == nil {
		// No Lightning backend attached: quotes settle instantly.
		return true
	}
	info, err := lightningman.DecodeInvoice(invoice)
	if err != nil {
		return false
	}
	return sm.node.IsSettled(info.PaymentHash)
}
