package model

// InboundMessage is the normalized view of a gateway webhook event.
type InboundMessage struct {
	Text   string
	ChatID string
	FromMe bool
}

// CommandKind enumerates the commands the bot understands.
type CommandKind int

const (
	CmdHelp CommandKind = iota
	CmdIndexQuote
	CmdSymbolQuote
)

// Command is a parsed user command. Symbol is set only for CmdSymbolQuote.
type Command struct {
	Kind   CommandKind
	Symbol string
}
