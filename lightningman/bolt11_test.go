package lightningman

import (
	"strings"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veilmix/mixer-go/common"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	hashBytes := common.RandBytes32()
	hash, err := chainhash.NewHash(hashBytes[:])
	require.NoError(t, err)

	now := time.Now().Unix()
	invoice, err := EncodeInvoice(1_250_000, *hash, "mint funding", 3600, now)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(invoice, InvoiceHRPPrefix))

	info, err := DecodeInvoice(invoice)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_250_000), info.AmountMsat)
	assert.Equal(t, *hash, info.PaymentHash)
	assert.Equal(t, "mint funding", info.Memo)
	assert.Equal(t, int64(3600), info.Expiry)
	assert.Equal(t, now, info.Timestamp)
}

func TestEncodeDecodeNoMemoNoExpiry(t *testing.T) {
	hashBytes := common.RandBytes32()
	hash, err := chainhash.NewHash(hashBytes[:])
	require.NoError(t, err)

	invoice, err := EncodeInvoice(1000, *hash, "", 0, time.Now().Unix())
	require.NoError(t, err)

	info, err := DecodeInvoice(invoice)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), info.AmountMsat)
	assert.Equal(t, *hash, info.PaymentHash)
	assert.Empty(t, info.Memo)
	assert.Zero(t, info.Expiry)
}

func TestEncodeZeroAmountRejected(t *testing.T) {
	_, err := EncodeInvoice(0, chainhash.Hash{}, "", 0, 0)
	assert.ErrorIs(t, err, ErrInvoiceNoAmount)
}

func TestDecodeGarbage(t *testing.T) {
	_, err := DecodeInvoice("not an invoice at all")
	assert.Error(t, err)
}

func TestAmountFromHRP(t *testing.T) {
	cases := []struct {
		body string
		msat uint64
		ok   bool
	}{
		{"bc1", 100_000_000_000, true},
		{"bc1m", 100_000_000, true},
		{"bc25u", 2_500_000, true},
		{"bc250n", 25_000, true},
		{"bc12500p", 1250, true},
		{"bc12501p", 0, false}, // sub-msat precision
		{"bc", 0, false},       // amountless
		{"bc1q", 0, false},     // unknown multiplier
	}

	for _, tc := range cases {
		msat, err := amountFromHRP(tc.body)
		if tc.ok {
			assert.NoError(t, err, tc.body)
			assert.Equal(t, tc.msat, msat, tc.body)
		} else {
			assert.Error(t, err, tc.body)
		}
	}
}
