package recorder

// CommandEvent is one handled webhook command.
type CommandEvent struct {
	ChatID    string
	Command   string // help | ihsg | quote
	Symbol    string
	Status    string // ok | error | rate_limited
	LatencyMs int64
}

// Recorder persists an audit trail of handled commands. It is advisory:
// recording failures are logged by callers, never surfaced to users.
type Recorder interface {
	RecordCommand(evt *CommandEvent) error
	Close() error
}
