package lightningman

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// BOLT11 invoice codec on top of the bech32 primitives. The decoder does
// not verify node signatures; custody of a decoded invoice is established
// by paying it, not by holding it.

const (
	// HRP prefix of a mainnet invoice.
	InvoiceHRPPrefix = "lnbc"

	// tagged field types (values are positions in the bech32 charset)
	fieldPaymentHash = 1  // 'p'
	fieldDescription = 13 // 'd'
	fieldExpiry      = 6  // 'x'

	// 512-bit signature plus recovery id, in 5-bit groups
	signatureGroups = 104

	timestampGroups = 7
)

var (
	ErrInvoiceTooShort   = errors.New("invoice data shorter than timestamp plus signature")
	ErrInvoiceBadPrefix  = errors.New("invoice does not carry a ln prefix")
	ErrInvoiceBadAmount  = errors.New("invoice amount is malformed")
	ErrInvoiceNoAmount   = errors.New("amountless invoices are not supported")
	ErrPaymentHashAbsent = errors.New("invoice carries no payment hash")
)

// EncodeInvoice renders a BOLT11 invoice string. The signature section is
// a deterministic filler: invoices produced here are settled by the
// simulated node, which never verifies them against a node key.
func EncodeInvoice(amountMsat uint64, paymentHash chainhash.Hash, memo string, expirySec int64, timestamp int64) (string, error) {
	if amountMsat == 0 {
		return "", ErrInvoiceNoAmount
	}

	// 1 pico-BTC = 0.1 msat, so every msat amount is expressible with 'p'.
	hrp := InvoiceHRPPrefix + strconv.FormatUint(amountMsat*10, 10) + "p"

	data := make([]byte, 0, 128)
	data = append(data, timestampToGroups(timestamp)...)

	hashGroups, err := bech32.ConvertBits(paymentHash[:], 8, 5, true)
	if err != nil {
		return "", err
	}
	data = appendTagged(data, fieldPaymentHash, hashGroups)

	if memo != "" {
		memoGroups, err := bech32.ConvertBits([]byte(memo), 8, 5, true)
		if err != nil {
			return "", err
		}
		data = appendTagged(data, fieldDescription, memoGroups)
	}

	if expirySec > 0 {
		data = appendTagged(data, fieldExpiry, uintToGroups(uint64(expirySec)))
	}

	data = append(data, fillerSignature(hrp, data)...)

	return bech32.Encode(hrp, data)
}

// DecodeInvoice parses a BOLT11 invoice: amount from the HRP, payment
// hash / description / expiry from the tagged fields.
func DecodeInvoice(invoice string) (*InvoiceInfo, error) {
	hrp, data, err := bech32.DecodeNoLimit(strings.ToLower(strings.TrimSpace(invoice)))
	if err != nil {
		return nil, fmt.Errorf("bech32 decode failed: %v", err)
	}

	if !strings.HasPrefix(hrp, "ln") {
		return nil, ErrInvoiceBadPrefix
	}

	amountMsat, err := amountFromHRP(hrp[2:])
	if err != nil {
		return nil, err
	}

	if len(data) < timestampGroups+signatureGroups {
		return nil, ErrInvoiceTooShort
	}

	info := &InvoiceInfo{
		Invoice:    invoice,
		AmountMsat: amountMsat,
		Timestamp:  groupsToUint(data[:timestampGroups]),
	}

	tagged := data[timestampGroups : len(data)-signatureGroups]
	sawHash := false
	for len(tagged) >= 3 {
		fieldType := tagged[0]
		fieldLen := int(tagged[1])<<5 | int(tagged[2])
		if len(tagged) < 3+fieldLen {
			break
		}
		field := tagged[3 : 3+fieldLen]
		tagged = tagged[3+fieldLen:]

		switch fieldType {
		case fieldPaymentHash:
			raw, err := bech32.ConvertBits(field, 5, 8, false)
			if err != nil || len(raw) != chainhash.HashSize {
				continue
			}
			hash, err := chainhash.NewHash(raw)
			if err != nil {
				continue
			}
			info.PaymentHash = *hash
			sawHash = true
		case fieldDescription:
			raw, err := bech32.ConvertBits(field, 5, 8, false)
			if err != nil {
				continue
			}
			info.Memo = string(raw)
		case fieldExpiry:
			info.Expiry = int64(groupsToUint(field))
		}
	}

	if !sawHash {
		return nil, ErrPaymentHashAbsent
	}

	return info, nil
}

// amountFromHRP parses the "<prefix letters><digits><multiplier>" body
// that follows "ln", returning msat.
func amountFromHRP(body string) (uint64, error) {
	start := strings.IndexFunc(body, func(r rune) bool {
		return r >= '0' && r <= '9'
	})
	if start < 0 {
		return 0, ErrInvoiceNoAmount
	}

	digits := body[start:]
	multiplier := byte(0)
	last := digits[len(digits)-1]
	if last < '0' || last > '9' {
		multiplier = last
		digits = digits[:len(digits)-1]
	}

	value, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return 0, ErrInvoiceBadAmount
	}

	switch multiplier {
	case 0:
		return value * 100_000_000_000, nil // whole BTC
	case 'm':
		return value * 100_000_000, nil
	case 'u':
		return value * 100_000, nil
	case 'n':
		return value * 100, nil
	case 'p':
		if value%10 != 0 {
			return 0, ErrInvoiceBadAmount
		}
		return value / 10, nil
	default:
		return 0, ErrInvoiceBadAmount
	}
}

func appendTagged(data []byte, fieldType byte, field []byte) []byte {
	data = append(data, fieldType, byte(len(field)>>5), byte(len(field)&31))
	return append(data, field...)
}

func timestampToGroups(ts int64) []byte {
	groups := make([]byte, timestampGroups)
	v := uint64(ts)
	for i := timestampGroups - 1; i >= 0; i-- {
		groups[i] = byte(v & 31)
		v >>= 5
	}
	return groups
}

// uintToGroups encodes v as minimal big-endian 5-bit groups.
func uintToGroups(v uint64) []byte {
	if v == 0 {
		return []byte{0}
	}
	var groups []byte
	for v > 0 {
		groups = append([]byte{byte(v & 31)}, groups...)
		v >>= 5
	}
	return groups
}

func groupsToUint(groups []byte) int64 {
	var v uint64
	for _, g := range groups {
		v = v<<5 | uint64(g)
	}
	return int64(v)
}

// fillerSignature derives 65 deterministic bytes (104 groups) from the
// invoice content so that encoding is stable.
func fillerSignature(hrp string, data []byte) []byte {
	h1 := sha256.Sum256(append([]byte(hrp), data...))
	h2 := sha256.Sum256(h1[:])

	raw := make([]byte, 0, 65)
	raw = append(raw, h1[:]...)
	raw = append(raw, h2[:]...)
	raw = append(raw, 0)

	groups, _ := bech32.ConvertBits(raw, 8, 5, true)
	return groups
}
