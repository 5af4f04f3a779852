package chainman

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	logger "github.com/sirupsen/logrus"

	"github.com/veilmix/mixer-go/common"
)

// Minimal ABI of the custody contract. Deposit locks funds under a
// commitment; withdraw releases them to the caller.
const custodyABI = `[
	{"type":"function","name":"deposit","stateMutability":"payable","inputs":[{"name":"commitment","type":"bytes32"}],"outputs":[]},
	{"type":"function","name":"withdraw","stateMutability":"nonpayable","inputs":[{"name":"commitment","type":"bytes32"}],"outputs":[]}
]`

var ErrTxReverted = errors.New("custody transaction reverted")

// Custodyman wraps deposit-to/withdraw-from the custody contract,
// in the manner of a chain client per concern.
type Custodyman struct {
	ethClient      *ethclient.Client
	custodyAddress ethcommon.Address
	contract       *bind.BoundContract
	contractABI    abi.ABI

	key     *ecdsa.PrivateKey
	account ethcommon.Address
	chainID *big.Int
}

func NewCustodyman(cfg *Config) (*Custodyman, error) {
	ethClient, err := ethclient.Dial(cfg.URL)
	if err != nil {
		return nil, err
	}

	parsed, err := abi.JSON(strings.NewReader(custodyABI))
	if err != nil {
		return nil, err
	}

	key, err := crypto.HexToECDSA(common.Trim0xPrefix(cfg.PrivateKey))
	if err != nil {
		return nil, fmt.Errorf("invalid custody operator key: %v", err)
	}

	addr := ethcommon.HexToAddress(cfg.CustodyContractAddress)

	return &Custodyman{
		ethClient:      ethClient,
		custodyAddress: addr,
		contract:       bind.NewBoundContract(addr, parsed, ethClient, ethClient, ethClient),
		contractABI:    parsed,
		key:            key,
		account:        crypto.PubkeyToAddress(key.PublicKey),
		chainID:        big.NewInt(cfg.ChainID),
	}, nil
}

// Account returns the address operating the custody contract.
func (cm *Custodyman) Account() string {
	return cm.account.Hex()
}

// Deposit moves amount (wei) into the custody contract under a fresh
// commitment. The commitment binds owner, amount and a random salt so the
// withdrawal cannot be matched against the deposit by value alone.
func (cm *Custodyman) Deposit(ctx context.Context, amount *big.Int) (*DepositReceipt, error) {
	salt := common.RandBytes32()
	amt := common.BigInt2Bytes32(amountExact(amount))
	commitment := crypto.Keccak256Hash(cm.account.Bytes(), amt[:], salt[:])

	auth, err := cm.newAuth(ctx)
	if err != nil {
		return nil, err
	}
	auth.Value = amount

	tx, err := cm.contract.Transact(auth, "deposit", [32]byte(commitment))
	if err != nil {
		return nil, err
	}

	if err := cm.waitMined(ctx, tx); err != nil {
		return nil, err
	}

	logger.WithFields(logger.Fields{
		"commitment": common.Shorten(commitment.Hex(), 8),
		"tx":         common.Shorten(tx.Hash().Hex(), 8),
	}).Info("custody deposit mined")

	return &DepositReceipt{
		CommitmentID: commitment,
		Amount:       common.BigIntClone(amount),
		TxHash:       tx.Hash().Hex(),
	}, nil
}

// Withdraw releases the funds locked under commitment back to the
// operating account.
func (cm *Custodyman) Withdraw(ctx context.Context, commitment [32]byte) (*WithdrawReceipt, error) {
	auth, err := cm.newAuth(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := cm.contract.Transact(auth, "withdraw", commitment)
	if err != nil {
		return nil, err
	}

	if err := cm.waitMined(ctx, tx); err != nil {
		return nil, err
	}

	logger.WithFields(logger.Fields{
		"commitment": common.Shorten(common.Bytes32ToHexStr(commitment), 8),
		"tx":         common.Shorten(tx.Hash().Hex(), 8),
	}).Info("custody withdraw mined")

	return &WithdrawReceipt{
		TxHash:             tx.Hash().Hex(),
		Amount:             tx.Value(),
		ControllingAddress: cm.account.Hex(),
	}, nil
}

func (cm *Custodyman) newAuth(ctx context.Context) (*bind.TransactOpts, error) {
	auth, err := bind.NewKeyedTransactorWithChainID(cm.key, cm.chainID)
	if err != nil {
		return nil, err
	}
	auth.Context = ctx
	return auth, nil
}

func (cm *Custodyman) waitMined(ctx context.Context, tx *types.Transaction) error {
	receipt, err := bind.WaitMined(ctx, cm.ethClient, tx)
	if err != nil {
		return err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return ErrTxReverted
	}
	return nil
}

func amountExact(amount *big.Int) *big.Int {
	if amount == nil {
		return big.NewInt(0)
	}
	return amount
}
