package command

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sandevgo/polychat/internal/core"
)

type HelpCommand struct {
	router core.CmdRouter
}

func NewHelpCommand(router core.CmdRouter) *HelpCommand {
	return &HelpCommand{router: router}
}

func (c *HelpCommand) Name() string {
	return "help"
}

func (c *HelpCommand) Description() string {
	return "List available commands"
}

func (c *HelpCommand) Execute(ctx context.Context, sessionID string, args []string) (string, error) {
	commands := c.router.ListCommands()
	sort.Slice(commands, func(i, j int) bool {
		return commands[i].Name() < commands[j].Name()
	})

	var sb strings.Builder
	sb.WriteString("Available commands:\n")
	for _, cmd := range commands {
		fmt.Fprintf(&sb, "  /%s - %s\n", cmd.Name(), cmd.Description())
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}
