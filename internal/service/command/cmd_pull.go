package command

import (
	"context"
	"fmt"
	"strings"
)

type PullCommand struct {
	pulls *PullService
}

func NewPullCommand(pulls *PullService) *PullCommand {
	return &PullCommand{pulls: pulls}
}

func (c *PullCommand) Name() string {
	return "pull"
}

func (c *PullCommand) Description() string {
	return "Download a model onto the backend in the background"
}

func (c *PullCommand) Execute(ctx context.Context, sessionID string, args []string) (string, error) {
	if len(args) == 0 {
		return c.status(), nil
	}

	model := args[0]
	task, err := c.pulls.Start(ctx, model)
	if err != nil {
		return "", err
	}
	if task.Done() && task.Err() == nil {
		return fmt.Sprintf("Model %s is already pulled.", model), nil
	}
	return fmt.Sprintf("Pulling %s in the background. Refresh the model list to see it once done.", model), nil
}

func (c *PullCommand) status() string {
	tasks := c.pulls.Tasks()
	if len(tasks) == 0 {
		return "Usage: /pull <model_name>"
	}

	var sb strings.Builder
	sb.WriteString("Pull status:\n")
	for _, task := range tasks {
		switch {
		case !task.Done():
			fmt.Fprintf(&sb, "  %s: in progress\n", task.Model)
		case task.Err() != nil:
			fmt.Fprintf(&sb, "  %s: failed (%v)\n", task.Model, task.Err())
		default:
			fmt.Fprintf(&sb, "  %s: done\n", task.Model)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}
