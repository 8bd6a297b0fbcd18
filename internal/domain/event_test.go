package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAcceptsEveryKnownKind(t *testing.T) {
	kinds := []ChatEventKind{
		EventChunk, EventThinking, EventToolStatus, EventToolResult,
		EventToolApproval, EventDone, EventCancelled, EventError,
	}
	for _, kind := range kinds {
		assert.NoError(t, ChatEvent{Kind: kind}.Validate(), string(kind))
	}
}

func TestValidateRejectsUnknownKind(t *testing.T) {
	err := ChatEvent{Kind: "telemetry"}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown chat event kind")
	assert.Contains(t, err.Error(), "telemetry")

	assert.Error(t, ChatEvent{}.Validate(), "empty kind is not a valid event")
}

func TestTerminal(t *testing.T) {
	assert.True(t, ChatEvent{Kind: EventDone}.Terminal())
	assert.True(t, ChatEvent{Kind: EventCancelled}.Terminal())
	assert.True(t, ChatEvent{Kind: EventError}.Terminal())
	assert.False(t, ChatEvent{Kind: EventChunk}.Terminal())
	assert.False(t, ChatEvent{Kind: EventToolApproval}.Terminal())
}
