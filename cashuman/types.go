package cashuman

// Mint protocol types. Proofs are bearer tokens: whoever holds them owns
// the value until they are melted, sent or re-minted. No proof is ever
// mutated in place.

type Proof struct {
	Amount   uint64 `json:"amount"` // sats
	KeysetId string `json:"id"`
	Secret   string `json:"secret"`
	C        string `json:"C"` // mint signature over the secret
	Currency string `json:"unit,omitempty"`
}

type Proofs []Proof

// Total sums the value carried by the proof set.
func (ps Proofs) Total() uint64 {
	var sum uint64
	for _, p := range ps {
		sum += p.Amount
	}
	return sum
}

// Clone returns a shallow copy of the proof slice.
func (ps Proofs) Clone() Proofs {
	out := make(Proofs, len(ps))
	copy(out, ps)
	return out
}

type MintQuoteState string

const (
	QuoteStateCreated MintQuoteState = "CREATED"
	QuoteStatePaid    MintQuoteState = "PAID"
	QuoteStateIssued  MintQuoteState = "ISSUED"
)

// MintQuote is the mint's offer to issue proofs once the attached
// Lightning invoice (Request) is paid.
type MintQuote struct {
	Quote   string         `json:"quote"`
	Amount  uint64         `json:"amount"`
	State   MintQuoteState `json:"state"`
	Request string         `json:"request"` // bolt11 invoice to pay
	Expiry  int64          `json:"expiry"`
}

// MeltQuote prices paying an external Lightning invoice with proofs.
type MeltQuote struct {
	Quote      string `json:"quote"`
	Amount     uint64 `json:"amount"`      // invoice amount in sats
	FeeReserve uint64 `json:"fee_reserve"` // sats reserved for routing fees
	Invoice    string `json:"request"`
}

// MeltResult is the outcome of spending proofs against a melt quote.
type MeltResult struct {
	Paid     bool
	Preimage string
	Change   Proofs // overpaid fee reserve returned as fresh proofs
}

// SendResult carves a proof pool into two disjoint sets.
type SendResult struct {
	Keep Proofs
	Send Proofs
}

type MintInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     string `json:"version"`
}
