package chainman

import (
	"math/big"
)

// DepositReceipt is the outcome of moving funds into the custody contract.
// The commitment id is the only link between the depositor and the locked
// funds; it never appears on the withdrawal side.
type DepositReceipt struct {
	CommitmentID [32]byte
	Amount       *big.Int // wei
	TxHash       string
}

// WithdrawReceipt is the outcome of pulling committed funds back out
// under the orchestrator's control.
type WithdrawReceipt struct {
	TxHash             string
	Amount             *big.Int // wei
	ControllingAddress string   // account now holding the funds
}
