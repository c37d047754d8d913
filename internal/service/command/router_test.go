package command

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sandevgo/polychat/internal/core"
)

type echoCommand struct {
	name string
	err  error
}

func (c *echoCommand) Name() string        { return c.name }
func (c *echoCommand) Description() string { return "echoes its arguments" }

func (c *echoCommand) Execute(ctx context.Context, sessionID string, args []string) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	return strings.Join(args, " "), nil
}

func TestRouterExecute(t *testing.T) {
	router := New([]core.Command{
		&echoCommand{name: "echo"},
		&echoCommand{name: "boom", err: errors.New("it broke")},
	})
	ctx := context.Background()

	tests := []struct {
		name        string
		input       string
		wantHandled bool
		wantReply   string
	}{
		{
			name:        "plain text is not a command",
			input:       "hello there",
			wantHandled: false,
		},
		{
			name:        "known command with args",
			input:       "/echo one two",
			wantHandled: true,
			wantReply:   "one two",
		},
		{
			name:        "unknown command",
			input:       "/frobnicate",
			wantHandled: true,
			wantReply:   "Unknown command: /frobnicate. Try /help.",
		},
		{
			name:        "command error becomes reply",
			input:       "/boom",
			wantHandled: true,
			wantReply:   "Error: it broke",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply, handled := router.Execute(ctx, "s1", tt.input)
			if handled != tt.wantHandled {
				t.Fatalf("handled = %v, want %v", handled, tt.wantHandled)
			}
			if handled && reply != tt.wantReply {
				t.Errorf("Reply = %q, want %q", reply, tt.wantReply)
			}
		})
	}
}

func TestHelpCommandListsSorted(t *testing.T) {
	router := New([]core.Command{
		&echoCommand{name: "zeta"},
		&echoCommand{name: "alpha"},
	})
	router.commands["help"] = NewHelpCommand(router)

	reply, handled := router.Execute(context.Background(), "s1", "/help")
	if !handled {
		t.Fatal("Expected /help to be handled")
	}

	alphaAt := strings.Index(reply, "/alpha")
	helpAt := strings.Index(reply, "/help")
	zetaAt := strings.Index(reply, "/zeta")
	if alphaAt < 0 || helpAt < 0 || zetaAt < 0 {
		t.Fatalf("Missing commands in listing:\n%s", reply)
	}
	if !(alphaAt < helpAt && helpAt < zetaAt) {
		t.Errorf("Commands not sorted:\n%s", reply)
	}
}
