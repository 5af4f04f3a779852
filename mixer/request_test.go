package mixer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validRequest() *MixRequest {
	return &MixRequest{
		Amount:       10,
		Destinations: []string{"0xaaa", "0xbbb"},
		PrivacyLevel: PrivacyStandard,
		SplitCount:   1,
	}
}

func TestValidateAcceptsWellFormed(t *testing.T) {
	assert.NoError(t, validRequest().Validate())
}

func TestValidateRejections(t *testing.T) {
	cases := map[string]func(*MixRequest){
		"zero amount":     func(r *MixRequest) { r.Amount = 0 },
		"negative amount": func(r *MixRequest) { r.Amount = -1 },
		"no destinations": func(r *MixRequest) { r.Destinations = nil },
		"empty destination": func(r *MixRequest) {
			r.Destinations = []string{"0xaaa", ""}
		},
		"duplicate destination": func(r *MixRequest) {
			r.Destinations = []string{"0xaaa", "0xaaa"}
		},
		"bad privacy level": func(r *MixRequest) { r.PrivacyLevel = "paranoid" },
		"bad split count": func(r *MixRequest) {
			r.EnableSplitOutputs = true
			r.SplitCount = 0
		},
	}
	for name, mutate := range cases {
		req := validRequest()
		mutate(req)
		assert.ErrorIs(t, req.Validate(), ErrConfiguration, name)
	}
}
