package chainman

import (
	"context"
	"errors"
	"math/big"
	"sync"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/veilmix/mixer-go/common"
)

var (
	ErrCommitmentUnknown = errors.New("commitment not found in simulated custody")
	ErrCommitmentSpent   = errors.New("commitment already withdrawn from simulated custody")
)

// SimulatedCustody is an in-memory custody contract used in tests and
// the demo binary. Deposits lock value under a commitment, withdrawals
// spend it exactly once.
type SimulatedCustody struct {
	mu      sync.Mutex
	account ethcommon.Address
	locked  map[[32]byte]*big.Int

	// FailDeposit / FailWithdraw force the next call to error, for
	// exercising the abort paths.
	FailDeposit  error
	FailWithdraw error
}

func NewSimulatedCustody() *SimulatedCustody {
	return &SimulatedCustody{
		account: common.RandEthAddress(),
		locked:  map[[32]byte]*big.Int{},
	}
}

func (sc *SimulatedCustody) Account() string {
	return sc.account.Hex()
}

func (sc *SimulatedCustody) Deposit(ctx context.Context, amount *big.Int) (*DepositReceipt, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.FailDeposit != nil {
		return nil, sc.FailDeposit
	}

	salt := common.RandBytes32()
	amt := common.BigInt2Bytes32(amount)
	commitment := crypto.Keccak256Hash(sc.account.Bytes(), amt[:], salt[:])

	sc.locked[commitment] = common.BigIntClone(amount)

	return &DepositReceipt{
		CommitmentID: commitment,
		Amount:       common.BigIntClone(amount),
		TxHash:       common.Bytes32ToHexStr(common.RandBytes32()),
	}, nil
}

func (sc *SimulatedCustody) Withdraw(ctx context.Context, commitment [32]byte) (*WithdrawReceipt, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.FailWithdraw != nil {
		return nil, sc.FailWithdraw
	}

	amount, ok := sc.locked[commitment]
	if !ok {
		return nil, ErrCommitmentUnknown
	}
	if amount == nil {
		return nil, ErrCommitmentSpent
	}
	sc.locked[commitment] = nil

	return &WithdrawReceipt{
		TxHash:             common.Bytes32ToHexStr(common.RandBytes32()),
		Amount:             common.BigIntClone(amount),
		ControllingAddress: sc.account.Hex(),
	}, nil
}

// Locked reports the value still held under commitment (nil if spent or
// unknown). Test helper.
func (sc *SimulatedCustody) Locked(commitment [32]byte) *big.Int {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	amount := sc.locked[commitment]
	if amount == nil {
		return nil
	}
	return common.BigIntClone(amount)
}
