package events

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	e := New("tool_call", "planner", "coder")

	data, err := Encode(e)
	require.NoError(t, err)
	assert.Equal(t, Topic, string(data[:len(Topic)]))

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, e.ID, got.ID)
	assert.Equal(t, "planner", got.SourceID)
	assert.Equal(t, "coder", got.DestinationID)
	assert.True(t, e.At.Equal(got.At))
}

func TestDecodeWithoutPrefixAssignsID(t *testing.T) {
	got, err := Decode([]byte(`{"sourceId":"a"}`))
	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)
	assert.True(t, got.IsBroadcast())
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode([]byte(`{"destinationId":"b"}`))
	assert.True(t, errors.Is(err, ErrEmptySource))

	_, err = Decode([]byte(`msg:{not json`))
	assert.Error(t, err)
}

func TestIsBroadcast(t *testing.T) {
	assert.True(t, Event{SourceID: "a", DestinationID: Broadcast}.IsBroadcast())
	assert.True(t, Event{SourceID: "a"}.IsBroadcast())
	assert.False(t, Event{SourceID: "a", DestinationID: "b"}.IsBroadcast())
}
