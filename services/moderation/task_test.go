package moderation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"relay-policyd/pkg/taskname"
)

func TestNewDeletePubkeyTask(t *testing.T) {
	task := NewDeletePubkeyTask(DeletePubkeyPayload{
		RelayID: "42",
		Pubkey:  "abc",
		Reason:  "spam",
	})

	require.Equal(t, taskname.ModerationDeletePubkey, task.Type())

	var p DeletePubkeyPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &p))
	require.Equal(t, "42", p.RelayID)
	require.Equal(t, "abc", p.Pubkey)
	require.Equal(t, "spam", p.Reason)
}

func TestNewDeleteEventTask(t *testing.T) {
	task := NewDeleteEventTask(DeleteEventPayload{
		RelayID: "42",
		EventID: "def",
	})

	require.Equal(t, taskname.ModerationDeleteEvent, task.Type())

	var p DeleteEventPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &p))
	require.Equal(t, "42", p.RelayID)
	require.Equal(t, "def", p.EventID)
	require.Empty(t, p.Reason)
}

func TestReasonOmittedWhenEmpty(t *testing.T) {
	task := NewDeletePubkeyTask(DeletePubkeyPayload{RelayID: "42", Pubkey: "abc"})
	require.NotContains(t, string(task.Payload()), "reason")
}
