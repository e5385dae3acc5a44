package taskname

const (
	// Moderation tasks consumed by the relay-side workers. DeletePubkey
	// retroactively removes every event a banned pubkey has published;
	// DeleteEvent removes a single event by id.
	ModerationDeletePubkey = "relay:moderation:delete_pubkey"
	ModerationDeleteEvent  = "relay:moderation:delete_event"
)
