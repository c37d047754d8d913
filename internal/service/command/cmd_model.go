package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/sandevgo/polychat/internal/providers/llm"
)

type ModelCommand struct {
	registry *llm.Registry
}

func NewModelCommand(registry *llm.Registry) *ModelCommand {
	return &ModelCommand{registry: registry}
}

func (c *ModelCommand) Name() string {
	return "model"
}

func (c *ModelCommand) Description() string {
	return "Show or change the active provider and model"
}

func (c *ModelCommand) Execute(ctx context.Context, sessionID string, args []string) (string, error) {
	if len(args) == 0 {
		return c.show(ctx), nil
	}

	provider, model, found := strings.Cut(args[0], "/")
	if err := c.registry.Select(provider); err != nil {
		return "", err
	}
	if found {
		c.registry.SetModel(model)
	}

	provider, model = c.registry.Selection()
	if model == "" {
		return fmt.Sprintf("Provider set to %s. Pick a model with /model %s/<name>.", provider, provider), nil
	}
	return fmt.Sprintf("Model changed to %s/%s", provider, model), nil
}

func (c *ModelCommand) show(ctx context.Context) string {
	provider, model := c.registry.Selection()

	var sb strings.Builder
	fmt.Fprintf(&sb, "Provider: %s\nModel: %s\n", provider, valueOr(model, "(none)"))
	sb.WriteString("Usage: /model <provider>[/<model>]\n")

	models := c.registry.ListModels(ctx)
	if len(models) == 0 {
		sb.WriteString("No models available on this backend.")
		return sb.String()
	}
	sb.WriteString("Available:\n")
	for _, m := range models {
		fmt.Fprintf(&sb, "  %s\n", m.Name)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
