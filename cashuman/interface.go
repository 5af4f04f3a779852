package cashuman

import "context"

// Client is the mint protocol surface the pipeline depends on. The
// simulated mint implements all of it; the HTTP client covers what can
// be done without the blind-signature wallet crypto.
type Client interface {
	// MintURL identifies the mint endpoint behind this client.
	MintURL() string

	// CreateMintQuote asks for a quote to issue amount sats of proofs.
	// The mint answers with a Lightning invoice that funds the issuance.
	CreateMintQuote(ctx context.Context, amount uint64) (*MintQuote, error)

	// CheckMintQuote re-reads quote state (CREATED until the invoice is
	// paid, then PAID, then ISSUED once proofs were minted).
	CheckMintQuote(ctx context.Context, quote string) (*MintQuote, error)

	// MintProofs claims proofs for a PAID quote.
	MintProofs(ctx context.Context, amount uint64, quote string) (Proofs, error)

	// CreateMeltQuote prices paying invoice with proofs.
	CreateMeltQuote(ctx context.Context, invoice string) (*MeltQuote, error)

	// MeltProofs spends proofs to settle the quote's invoice. Spent
	// proofs are destroyed; overpayment returns as change.
	MeltProofs(ctx context.Context, quote *MeltQuote, proofs Proofs) (*MeltResult, error)

	// Send splits the pool into an exact-amount Send set and a Keep
	// remainder. Inputs are consumed; both outputs are fresh proofs.
	Send(ctx context.Context, amount uint64, proofs Proofs) (*SendResult, error)

	// CreateToken serializes proofs into a portable token string.
	CreateToken(proofs Proofs) (string, error)

	// Receive redeems a token, re-issuing its value as fresh proofs
	// held against this mint.
	Receive(ctx context.Context, token string) (Proofs, error)

	// Info fetches mint metadata.
	Info(ctx context.Context) (*MintInfo, error)
}
