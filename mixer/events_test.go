package mixer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChannelSinkBuffers(t *testing.T) {
	sink := NewChannelSink(4)
	sink.Emit(Event{Type: EventMixProgress, Progress: 10})
	sink.Emit(Event{Type: EventMixProgress, Progress: 20})
	sink.Close()

	var got []Event
	for e := range sink.Events() {
		got = append(got, e)
	}
	assert.Len(t, got, 2)
	assert.Equal(t, 10, got[0].Progress)
	assert.Equal(t, uint64(0), sink.Dropped())
}

func TestChannelSinkDropsWhenFull(t *testing.T) {
	sink := NewChannelSink(1)
	sink.Emit(Event{Progress: 1})
	sink.Emit(Event{Progress: 2})
	sink.Emit(Event{Progress: 3})

	assert.Equal(t, uint64(2), sink.Dropped())
	assert.Equal(t, 1, (<-sink.Events()).Progress)
}

func TestFuncSink(t *testing.T) {
	var seen []EventType
	sink := FuncSink(func(e Event) { seen = append(seen, e.Type) })
	sink.Emit(Event{Type: EventMixComplete})
	assert.Equal(t, []EventType{EventMixComplete}, seen)
}
