package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/sandevgo/polychat/internal/config"
	"github.com/sandevgo/polychat/internal/core"
	"github.com/sandevgo/polychat/internal/providers/rag"
	"github.com/sandevgo/polychat/internal/service/chat"
	"github.com/sandevgo/polychat/pkg/log"
)

// ReadLine is the interactive chat loop. Slash commands go through the
// orchestrator; bang commands are local session and upload controls.
type ReadLine struct {
	cfg          *config.AppConfig
	orchestrator *chat.Orchestrator
	pipeline     *rag.Pipeline
	messages     core.MessagesRepository
	rl           *readline.Instance

	// exit signals the process to shut down after a clean 'exit'.
	exit func()

	sessionID string
	ragMode   bool
}

func NewReadLine(cfg *config.AppConfig, orchestrator *chat.Orchestrator, pipeline *rag.Pipeline, messages core.MessagesRepository, exit func()) (*ReadLine, error) {
	if err := os.MkdirAll(cfg.RuntimePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create runtime directory: %w", err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          ">>> ",
		HistoryFile:     filepath.Join(cfg.RuntimePath, "input_history"),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, err
	}

	return &ReadLine{
		cfg:          cfg,
		orchestrator: orchestrator,
		pipeline:     pipeline,
		messages:     messages,
		rl:           rl,
		exit:         exit,
		sessionID:    newSessionID(),
	}, nil
}

func (r *ReadLine) Start(ctx context.Context) error {
	err := r.run(ctx)
	if err == nil && r.exit != nil {
		r.exit()
	}
	return err
}

func (r *ReadLine) run(ctx context.Context) error {
	logger := log.FromCtx(ctx)
	logger.Info().Str("session", r.sessionID).Msg("chat started, type 'exit' to quit, '!help' for session controls")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := r.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				if len(line) == 0 {
					return nil
				}
				continue
			} else if err == io.EOF {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "exit" {
			return nil
		}
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "!") {
			r.handleMeta(ctx, line)
			continue
		}

		reply, err := r.orchestrator.Respond(ctx, chat.Request{
			SessionID:   r.sessionID,
			Text:        line,
			PDFGrounded: r.ragMode,
		})
		if err != nil {
			logger.Error().Err(err).Msg("turn failed")
			fmt.Fprintf(r.rl.Stdout(), "Error: %v\n", err)
			continue
		}
		fmt.Fprintf(r.rl.Stdout(), "%s\n", reply)
	}
}

func (r *ReadLine) handleMeta(ctx context.Context, line string) {
	out := r.rl.Stdout()
	parts := strings.Fields(line)

	switch parts[0] {
	case "!help":
		fmt.Fprint(out, metaUsage)

	case "!sessions":
		ids, err := r.messages.ListSessions(ctx)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			return
		}
		for _, id := range ids {
			marker := " "
			if id == r.sessionID {
				marker = "*"
			}
			fmt.Fprintf(out, "%s %s\n", marker, id)
		}

	case "!switch":
		if len(parts) < 2 {
			fmt.Fprintln(out, "Usage: !switch <session_id>")
			return
		}
		r.sessionID = strings.Join(parts[1:], " ")
		fmt.Fprintf(out, "Switched to session %s\n", r.sessionID)

	case "!new":
		r.sessionID = newSessionID()
		fmt.Fprintf(out, "Started session %s\n", r.sessionID)

	case "!delete":
		if len(parts) < 2 {
			fmt.Fprintln(out, "Usage: !delete <session_id>")
			return
		}
		id := strings.Join(parts[1:], " ")
		if err := r.messages.Delete(ctx, id); err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			return
		}
		fmt.Fprintf(out, "Deleted session %s\n", id)

	case "!rag":
		if len(parts) == 2 && parts[1] == "off" {
			r.ragMode = false
			fmt.Fprintln(out, "PDF chat disabled")
			return
		}
		r.ragMode = true
		fmt.Fprintln(out, "PDF chat enabled")

	case "!load":
		if len(parts) < 2 {
			fmt.Fprintln(out, "Usage: !load <file.pdf> [more.pdf ...]")
			return
		}
		r.loadPDFs(ctx, parts[1:])

	case "!image":
		if len(parts) < 2 {
			fmt.Fprintln(out, "Usage: !image <file> [question]")
			return
		}
		r.imageTurn(ctx, parts[1], strings.Join(parts[2:], " "))

	case "!audio":
		if len(parts) < 2 {
			fmt.Fprintln(out, "Usage: !audio <file>")
			return
		}
		r.audioTurn(ctx, parts[1])

	default:
		fmt.Fprintf(out, "Unknown control %s\n%s", parts[0], metaUsage)
	}
}

func (r *ReadLine) loadPDFs(ctx context.Context, paths []string) {
	out := r.rl.Stdout()

	docs := make([]rag.NamedDocument, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			return
		}
		docs = append(docs, rag.NamedDocument{Name: filepath.Base(path), Data: data})
	}

	count, err := r.pipeline.Ingest(ctx, docs)
	if err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		return
	}
	r.ragMode = true
	fmt.Fprintf(out, "Indexed %d chunks from %d file(s). PDF chat enabled.\n", count, len(docs))
}

func (r *ReadLine) imageTurn(ctx context.Context, path, question string) {
	out := r.rl.Stdout()

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		return
	}

	reply, err := r.orchestrator.Respond(ctx, chat.Request{
		SessionID: r.sessionID,
		Text:      question,
		Image:     data,
	})
	if err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(out, "%s\n", reply)
}

func (r *ReadLine) audioTurn(ctx context.Context, path string) {
	out := r.rl.Stdout()

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		return
	}

	reply, err := r.orchestrator.Respond(ctx, chat.Request{
		SessionID: r.sessionID,
		Audio:     data,
	})
	if err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(out, "%s\n", reply)
}

func (r *ReadLine) Shutdown(ctx context.Context) error {
	if r.rl != nil {
		return r.rl.Close()
	}
	return nil
}

func newSessionID() string {
	return time.Now().Format("2006-01-02 15:04:05")
}

const metaUsage = `Session controls:
  !sessions          list sessions
  !switch <id>       switch to a session
  !new               start a fresh session
  !delete <id>       delete a session
  !rag [off]         toggle PDF-grounded chat
  !load <pdf> ...    ingest PDFs into the index
  !image <file> [q]  ask about an image
  !audio <file>      transcribe and chat
Slash commands (/help, /model, /pull) go to the bot itself.
`
