package moderation

import (
	"encoding/json"
	"time"

	"relay-policyd/pkg/taskname"

	"github.com/hibiken/asynq"
)

// Queue carries retroactive deletion work for relay-side workers. Enqueues
// are fire-and-forget: the originating command succeeds or fails on its own
// and never waits on job processing.
const Queue = "moderation"

type DeletePubkeyPayload struct {
	RelayID string `json:"relay_id"`
	Pubkey  string `json:"pubkey"`
	Reason  string `json:"reason,omitempty"`
}

type DeleteEventPayload struct {
	RelayID string `json:"relay_id"`
	EventID string `json:"event_id"`
	Reason  string `json:"reason,omitempty"`
}

// NewDeletePubkeyTask builds the "retroactively delete this pubkey's
// events" job emitted when a pubkey is banned.
func NewDeletePubkeyTask(p DeletePubkeyPayload) *asynq.Task {
	payload, _ := json.Marshal(p)
	return asynq.NewTask(taskname.ModerationDeletePubkey, payload,
		asynq.MaxRetry(5),
		asynq.Timeout(60*time.Second),
		asynq.Queue(Queue))
}

// NewDeleteEventTask builds the single-event deletion job.
func NewDeleteEventTask(p DeleteEventPayload) *asynq.Task {
	payload, _ := json.Marshal(p)
	return asynq.NewTask(taskname.ModerationDeleteEvent, payload,
		asynq.MaxRetry(5),
		asynq.Timeout(60*time.Second),
		asynq.Queue(Queue))
}
