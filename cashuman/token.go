package cashuman

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
)

// V3-style token serialization: "cashuA" + base64url(JSON envelope).
// Lets stray change be exported out of a run and redeemed later.

const tokenPrefix = "cashuA"

var (
	ErrTokenBadPrefix = errors.New("token does not carry the cashu prefix")
	ErrTokenEmpty     = errors.New("token carries no proofs")
)

var tokenEncoding = base64.URLEncoding.WithPadding(base64.NoPadding)

type tokenEntry struct {
	Mint   string `json:"mint"`
	Proofs Proofs `json:"proofs"`
}

type tokenEnvelope struct {
	Token []tokenEntry `json:"token"`
	Unit  string       `json:"unit"`
}

func EncodeToken(mintURL string, proofs Proofs) (string, error) {
	if len(proofs) == 0 {
		return "", ErrTokenEmpty
	}

	raw, err := json.Marshal(tokenEnvelope{
		Token: []tokenEntry{{Mint: mintURL, Proofs: proofs}},
		Unit:  "sat",
	})
	if err != nil {
		return "", err
	}

	return tokenPrefix + tokenEncoding.EncodeToString(raw), nil
}

func DecodeToken(token string) (string, Proofs, error) {
	if !strings.HasPrefix(token, tokenPrefix) {
		return "", nil, ErrTokenBadPrefix
	}

	raw, err := tokenEncoding.DecodeString(strings.TrimPrefix(token, tokenPrefix))
	if err != nil {
		return "", nil, err
	}

	var envelope tokenEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return "", nil, err
	}

	if len(envelope.Token) == 0 || len(envelope.Token[0].Proofs) == 0 {
		return "", nil, ErrTokenEmpty
	}

	return envelope.Token[0].Mint, envelope.Token[0].Proofs, nil
}
