package mixrecord

// Run status values.
const (
	StatusRunning  = "running"
	StatusComplete = "complete"
	StatusFailed   = "failed"
)

// MixRecord is the persisted summary of one mix run.
type MixRecord struct {
	ID               string  `json:"id"`
	Commitment       string  `json:"commitment"`
	Amount           float64 `json:"amount"`
	Destinations     int     `json:"destinations"`
	PrivacyLevel     string  `json:"privacy_level"`
	Status           string  `json:"status"`
	Progress         int     `json:"progress"`
	TotalSats        uint64  `json:"total_sats"`
	AnonymitySetSize int     `json:"anonymity_set_size"`
	PrivacyScore     int     `json:"privacy_score"`
	Error            string  `json:"error,omitempty"`
	StartedAt        int64   `json:"started_at"`
	FinishedAt       int64   `json:"finished_at,omitempty"`
}

// PayoutRecord is one destination's persisted payout within a mix.
type PayoutRecord struct {
	MixID       string  `json:"mix_id"`
	Destination string  `json:"destination"`
	SourceUnits float64 `json:"source_units"`
	SatsSpent   uint64  `json:"sats_spent"`
	TxID        string  `json:"tx_id"`
	Status      string  `json:"status"`
}

// Storage persists mix history for the report surface. The pipeline
// itself never reads it back.
type Storage interface {
	AddMix(rec MixRecord) error
	UpdateMix(rec MixRecord) error
	GetMix(id string) (*MixRecord, error)
	ListMixes(limit int) ([]MixRecord, error)
	AddPayout(p PayoutRecord) error
	GetPayouts(mixID string) ([]PayoutRecord, error)
	Close() error
}
