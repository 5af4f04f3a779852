package mixrecord

import (
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/veilmix/mixer-go/common"
	"github.com/veilmix/mixer-go/mixer"
)

// EventRecorder is an event sink that mirrors a run's progress into
// storage. Storage errors are logged, never surfaced to the run: the
// history is an observer, not a participant.
type EventRecorder struct {
	store Storage
	mixID string
	rec   MixRecord

	// Next receives every event after recording. Optional.
	Next mixer.EventSink
}

func NewEventRecorder(store Storage, req *mixer.MixRequest) (*EventRecorder, error) {
	rec := MixRecord{
		ID:           "mix-" + common.ByteSliceToPureHexStr(common.RandBytes(8)),
		Amount:       req.Amount,
		Destinations: len(req.Destinations),
		PrivacyLevel: string(req.PrivacyLevel),
		Status:       StatusRunning,
		StartedAt:    time.Now().Unix(),
	}
	if err := store.AddMix(rec); err != nil {
		return nil, err
	}
	return &EventRecorder{store: store, mixID: rec.ID, rec: rec}, nil
}

func (r *EventRecorder) MixID() string {
	return r.mixID
}

func (r *EventRecorder) Emit(e mixer.Event) {
	switch e.Type {
	case mixer.EventDepositConfirmed:
		r.rec.Commitment = e.Commitment
		r.rec.Progress = e.Progress
	case mixer.EventMixComplete:
		r.rec.Status = StatusComplete
		r.rec.Progress = e.Progress
		r.rec.AnonymitySetSize = e.AnonymitySetSize
		r.rec.PrivacyScore = e.PrivacyScore
		r.rec.FinishedAt = time.Now().Unix()
	case mixer.EventMixError:
		r.rec.Status = StatusFailed
		r.rec.Error = e.Error
		r.rec.FinishedAt = time.Now().Unix()
	default:
		if e.Progress > r.rec.Progress {
			r.rec.Progress = e.Progress
		}
	}

	if err := r.store.UpdateMix(r.rec); err != nil {
		logger.WithFields(logger.Fields{
			"id":  r.mixID,
			"err": err,
		}).Warn("failed to persist mix progress")
	}

	if r.Next != nil {
		r.Next.Emit(e)
	}
}

// RecordResult persists the per-destination payouts of a finished run.
func (r *EventRecorder) RecordResult(res *mixer.MixResult) {
	if res == nil {
		return
	}
	r.rec.TotalSats = res.TotalSats
	if err := r.store.UpdateMix(r.rec); err != nil {
		logger.WithField("err", err).Warn("failed to persist mix total")
	}
	for _, d := range res.Distributions {
		err := r.store.AddPayout(PayoutRecord{
			MixID:       r.mixID,
			Destination: d.Destination,
			SourceUnits: d.SourceUnitsRedeemed,
			SatsSpent:   d.SatsSpent,
			TxID:        d.TxID,
			Status:      string(d.Status),
		})
		if err != nil {
			logger.WithFields(logger.Fields{
				"id":   r.mixID,
				"dest": common.Shorten(d.Destination, 8),
				"err":  err,
			}).Warn("failed to persist payout")
		}
	}
}
