package core

import "context"

type CmdRouter interface {
	// Execute runs input as a slash command. The second return is false
	// when the input is not a command and should go to the model instead.
	Execute(ctx context.Context, sessionID, input string) (string, bool)
	ListCommands() []Command
}

type Command interface {
	Name() string
	Description() string
	Execute(ctx context.Context, sessionID string, args []string) (string, error)
}
