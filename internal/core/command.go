package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandJoin enters the chat as a guest.
	CommandJoin CommandKind = iota
	// CommandSignupOrLogin creates an account or logs into it.
	CommandSignupOrLogin
	// CommandSendMessage posts a chat message.
	CommandSendMessage
	// CommandReact bumps the reaction counter of a message.
	CommandReact
)

// Command represents an action requested by a client.
type Command struct {
	Kind       CommandKind
	Nickname   string
	Key        string
	Decoration string
	Avatar     string
	Text       string
	MessageID  int64
}
