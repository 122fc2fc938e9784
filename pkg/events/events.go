// Package events defines the external agent-communication events that drive
// packet animation, and their wire encoding.
package events

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Broadcast is the destination sentinel meaning "all agents".
const Broadcast = "broadcast"

// Topic prefixes every encoded event so it can be filtered by pub/sub
// transports.
const Topic = "msg:"

// ErrEmptySource is returned when decoding an event without a sender
var ErrEmptySource = errors.New("event has no source")

// Event is a single message exchanged between agents.
type Event struct {
	ID            string    `json:"id"`
	Kind          string    `json:"kind,omitempty"`
	SourceID      string    `json:"sourceId"`
	DestinationID string    `json:"destinationId,omitempty"`
	At            time.Time `json:"at"`
}

// New creates an event with a fresh id. An empty destination means broadcast.
func New(kind, source, destination string) Event {
	return Event{
		ID:            uuid.NewString(),
		Kind:          kind,
		SourceID:      source,
		DestinationID: destination,
		At:            time.Now().UTC(),
	}
}

// IsBroadcast reports whether the event is addressed to every agent
func (e Event) IsBroadcast() bool {
	return e.DestinationID == "" || e.DestinationID == Broadcast
}

// Encode serialises an event with the topic prefix
func Encode(e Event) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	return append([]byte(Topic), data...), nil
}

// Decode parses an event, with or without the topic prefix.
func Decode(data []byte) (Event, error) {
	data = bytes.TrimPrefix(data, []byte(Topic))

	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	if e.SourceID == "" {
		return Event{}, ErrEmptySource
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return e, nil
}
