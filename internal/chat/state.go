package chat

// State is a step of the per-request pipeline.
type State string

const (
	StateReceived     State = "received"
	StateQuotaChecked State = "quota_checked"
	StateClassified   State = "classified"
	StatePersisted    State = "persisted"
	StateResponded    State = "responded"
	StateRejected     State = "rejected"
)

// Terminal reports whether no further transition follows s.
func (s State) Terminal() bool {
	return s == StateResponded || s == StateRejected
}
