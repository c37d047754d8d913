package command

import (
	"github.com/sandevgo/polychat/internal/core"
	"github.com/sandevgo/polychat/internal/providers/llm"
)

// NewRouter wires the command surface: /model, /pull and /help.
func NewRouter(registry *llm.Registry, pulls *PullService) *Router {
	router := New([]core.Command{
		NewModelCommand(registry),
		NewPullCommand(pulls),
	})
	router.commands["help"] = NewHelpCommand(router)
	return router
}
