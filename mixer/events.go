package mixer

import (
	"sync/atomic"
	"time"

	logger "github.com/sirupsen/logrus"
)

type EventType string

const (
	EventDepositConfirmed EventType = "deposit:confirmed"
	EventInvoiceCreated   EventType = "lightning:invoice_created"
	EventLightningPaid    EventType = "lightning:paid"
	EventProofsMinted     EventType = "cashu:minted"
	EventMixProgress      EventType = "mix:progress"
	EventMixComplete      EventType = "mix:complete"
	EventMixError         EventType = "mix:error"
)

// Event is one entry of the progress stream a mix run emits. Progress
// values on a successful run are non-decreasing and end at 100; an
// error event always carries progress 0.
type Event struct {
	Type      EventType
	Message   string
	Progress  int
	Timestamp time.Time

	// Stage payload, populated per event type.
	Commitment       string
	QuoteID          string
	TxHash           string
	AnonymitySetSize int
	PrivacyScore     int
	Error            string
}

// EventSink consumes the event stream. Implementations must not block
// the producing run.
type EventSink interface {
	Emit(Event)
}

// FuncSink adapts a plain callback.
type FuncSink func(Event)

func (f FuncSink) Emit(e Event) { f(e) }

// ChannelSink buffers events for an external consumer. When the buffer
// is full events are dropped rather than blocking the run; Dropped
// reports how many.
type ChannelSink struct {
	ch      chan Event
	dropped atomic.Uint64
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer < 1 {
		buffer = 1
	}
	return &ChannelSink{ch: make(chan Event, buffer)}
}

func (s *ChannelSink) Emit(e Event) {
	select {
	case s.ch <- e:
	default:
		s.dropped.Add(1)
		logger.WithField("type", e.Type).Warn("event sink full, dropping event")
	}
}

func (s *ChannelSink) Events() <-chan Event {
	return s.ch
}

func (s *ChannelSink) Dropped() uint64 {
	return s.dropped.Load()
}

// Close ends the stream. Call only after the producing run returned.
func (s *ChannelSink) Close() {
	close(s.ch)
}
