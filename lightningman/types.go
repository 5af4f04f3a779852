package lightningman

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

type PaymentStatus string

const (
	PaymentSucceeded PaymentStatus = "SUCCEEDED"
	PaymentFailed    PaymentStatus = "FAILED"
	PaymentInFlight  PaymentStatus = "IN_FLIGHT"
)

// InvoiceInfo describes a BOLT11 invoice.
type InvoiceInfo struct {
	Invoice     string
	PaymentHash chainhash.Hash
	AmountMsat  uint64
	Expiry      int64 // seconds from invoice timestamp
	Timestamp   int64 // unix seconds
	Memo        string
}

// Payment is the settlement outcome of paying an invoice.
type Payment struct {
	PaymentHash chainhash.Hash
	Preimage    string // hex, empty unless settled
	Status      PaymentStatus
	FailureMsg  string
}
