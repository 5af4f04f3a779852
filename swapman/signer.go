package swapman

import (
	"crypto/ecdsa"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer holds the key used to authorize swap commits, claims and
// refunds. It is created by the caller and handed to each operation
// explicitly.
type Signer struct {
	key     *ecdsa.PrivateKey
	address ethcommon.Address
}

func NewSigner(hexKey string) (*Signer, error) {
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, err
	}
	return &Signer{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// NewRandomSigner is for tests and simulated deployments.
func NewRandomSigner() *Signer {
	key, err := crypto.GenerateKey()
	if err != nil {
		panic(err)
	}
	return &Signer{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}
}

func (s *Signer) Address() string {
	return s.address.Hex()
}

func (s *Signer) Key() *ecdsa.PrivateKey {
	return s.key
}

// Sign produces a 65-byte [R || S || V] signature over a 32-byte digest.
func (s *Signer) Sign(digest [32]byte) ([]byte, error) {
	return crypto.Sign(digest[:], s.key)
}
