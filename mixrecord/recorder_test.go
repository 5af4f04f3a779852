package mixrecord

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veilmix/mixer-go/mixer"
	"github.com/veilmix/mixer-go/swapman"
)

func TestEventRecorderTracksRun(t *testing.T) {
	s := tempStorage(t)
	req := &mixer.MixRequest{
		Amount:       10,
		Destinations: []string{"0xAlice", "0xBob"},
		PrivacyLevel: mixer.PrivacyStandard,
	}
	rec, err := NewEventRecorder(s, req)
	require.NoError(t, err)

	var forwarded []mixer.Event
	rec.Next = mixer.FuncSink(func(e mixer.Event) { forwarded = append(forwarded, e) })

	rec.Emit(mixer.Event{Type: mixer.EventDepositConfirmed, Progress: 10, Commitment: "0xc0ffee"})
	rec.Emit(mixer.Event{Type: mixer.EventMixProgress, Progress: 20})
	rec.Emit(mixer.Event{
		Type: mixer.EventMixComplete, Progress: 100,
		AnonymitySetSize: 20, PrivacyScore: 55,
	})

	got, err := s.GetMix(rec.MixID())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, StatusComplete, got.Status)
	assert.Equal(t, 100, got.Progress)
	assert.Equal(t, "0xc0ffee", got.Commitment)
	assert.Equal(t, 20, got.AnonymitySetSize)
	assert.Len(t, forwarded, 3)
}

func TestEventRecorderFailure(t *testing.T) {
	s := tempStorage(t)
	rec, err := NewEventRecorder(s, &mixer.MixRequest{
		Amount:       1,
		Destinations: []string{"0xAlice"},
		PrivacyLevel: mixer.PrivacyStandard,
	})
	require.NoError(t, err)

	rec.Emit(mixer.Event{Type: mixer.EventMixError, Progress: 0, Error: "swap failed"})

	got, err := s.GetMix(rec.MixID())
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, "swap failed", got.Error)
	assert.NotZero(t, got.FinishedAt)
}

func TestRecordResultPersistsPayouts(t *testing.T) {
	s := tempStorage(t)
	rec, err := NewEventRecorder(s, &mixer.MixRequest{
		Amount:       10,
		Destinations: []string{"0xAlice", "0xBob"},
		PrivacyLevel: mixer.PrivacyStandard,
	})
	require.NoError(t, err)

	rec.RecordResult(&mixer.MixResult{
		TotalSats: 1237,
		Distributions: []mixer.DistributionResult{
			{Destination: "0xAlice", SourceUnitsRedeemed: 4.8, SatsSpent: 617,
				DestAssetSent: big.NewInt(1), TxID: "0x1", Status: swapman.StatusClaimed},
			{Destination: "0xBob", SourceUnitsRedeemed: 4.8, SatsSpent: 617,
				DestAssetSent: big.NewInt(1), TxID: "0x2", Status: swapman.StatusClaimed},
		},
	})

	payouts, err := s.GetPayouts(rec.MixID())
	require.NoError(t, err)
	assert.Len(t, payouts, 2)

	got, err := s.GetMix(rec.MixID())
	require.NoError(t, err)
	assert.Equal(t, uint64(1237), got.TotalSats)
}
