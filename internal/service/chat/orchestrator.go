package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sandevgo/polychat/internal/core"
	"github.com/sandevgo/polychat/internal/storage/sqlite"
	"github.com/sandevgo/polychat/pkg/log"
)

// Backends exposes the active backend selection to the orchestrator.
type Backends interface {
	Selection() (provider, model string)
	Provider() core.ChatProvider
}

// groundedPromptTemplate folds retrieved context and the question into a
// single user turn.
const groundedPromptTemplate = "Answer the user question based on this context: %s\nUser Question: %s"

// Request is one user turn. Exactly one branch handles it, evaluated in
// priority order: command, grounded, image, audio, plain text.
type Request struct {
	SessionID   string
	Text        string
	Image       []byte
	Audio       []byte
	PDFGrounded bool
}

// Orchestrator coordinates a turn: builds the model request from history
// and optional grounding context, invokes the selected backend and
// persists both sides of the exchange. A turn always terminates with a
// stored assistant message, even if that message is an error.
type Orchestrator struct {
	registry    Backends
	messages    core.MessagesRepository
	settings    core.SettingsRepository
	retriever   core.Retriever
	transcriber core.Transcriber
	router      core.CmdRouter
}

func NewOrchestrator(
	registry Backends,
	messages core.MessagesRepository,
	settings core.SettingsRepository,
	retriever core.Retriever,
	transcriber core.Transcriber,
	router core.CmdRouter,
) *Orchestrator {
	return &Orchestrator{
		registry:    registry,
		messages:    messages,
		settings:    settings,
		retriever:   retriever,
		transcriber: transcriber,
		router:      router,
	}
}

func (o *Orchestrator) Respond(ctx context.Context, req Request) (string, error) {
	text := strings.TrimSpace(req.Text)

	if reply, ok := o.router.Execute(ctx, req.SessionID, text); ok {
		o.persistText(ctx, req.SessionID, core.SenderUser, text)
		o.persistText(ctx, req.SessionID, core.SenderAssistant, reply)
		return reply, nil
	}

	if req.PDFGrounded {
		return o.groundedTurn(ctx, req.SessionID, text)
	}
	if len(req.Image) > 0 {
		return o.imageTurn(ctx, req.SessionID, text, req.Image)
	}
	if len(req.Audio) > 0 {
		return o.audioTurn(ctx, req.SessionID, text, req.Audio)
	}
	return o.textTurn(ctx, req.SessionID, text)
}

// groundedTurn answers from retrieved document context. Prior chat
// history is not included: only the retrieved chunks and the question.
func (o *Orchestrator) groundedTurn(ctx context.Context, sessionID, text string) (string, error) {
	k, err := o.settings.GetInt(ctx, sqlite.SettingRetrievedDocuments, sqlite.DefaultRetrievedDocuments)
	if err != nil {
		return "", err
	}

	chunks, err := o.retriever.Query(ctx, text, k)
	if err != nil {
		// Degraded grounding is signaled to the user rather than
		// silently answering without the documents.
		var retrievalErr *core.RetrievalError
		if errors.As(err, &retrievalErr) {
			reply := fmt.Sprintf("Document retrieval is unavailable: %v", retrievalErr.Err)
			o.persistText(ctx, sessionID, core.SenderUser, text)
			o.persistText(ctx, sessionID, core.SenderAssistant, reply)
			return reply, nil
		}
		return "", err
	}

	parts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		parts = append(parts, chunk.Text)
	}
	docContext := strings.Join(parts, "\n")

	prompt := fmt.Sprintf(groundedPromptTemplate, docContext, text)
	history := []core.Message{{Role: core.RoleUser, Content: prompt}}

	reply := o.complete(ctx, history)
	o.persistText(ctx, sessionID, core.SenderUser, text)
	o.persistText(ctx, sessionID, core.SenderAssistant, reply)
	return reply, nil
}

// imageTurn sends the image without prior conversational context.
func (o *Orchestrator) imageTurn(ctx context.Context, sessionID, text string, image []byte) (string, error) {
	_, model := o.registry.Selection()
	var reply string
	if model == "" {
		reply = noModelReply()
	} else {
		answer, err := o.registry.Provider().ImageChat(ctx, model, text, nil, image)
		reply = replyOrError(ctx, answer, err)
	}

	if text != "" {
		o.persistText(ctx, sessionID, core.SenderUser, text)
	}
	o.persistBlob(ctx, sessionID, core.SenderUser, core.KindImage, image)
	o.persistText(ctx, sessionID, core.SenderAssistant, reply)
	return reply, nil
}

// audioTurn transcribes first, then runs the transcript as a text turn.
// The raw audio is persisted as the user's message.
func (o *Orchestrator) audioTurn(ctx context.Context, sessionID, text string, audio []byte) (string, error) {
	transcript, err := o.transcriber.Transcribe(ctx, audio)
	if err != nil {
		reply := fmt.Sprintf("Could not transcribe audio: %v", err)
		o.persistBlob(ctx, sessionID, core.SenderUser, core.KindAudio, audio)
		o.persistText(ctx, sessionID, core.SenderAssistant, reply)
		return "", err
	}

	prompt := transcript
	if text != "" {
		prompt = text + "\n" + transcript
	}

	history, err := o.historyWindow(ctx, sessionID)
	if err != nil {
		return "", err
	}
	history = append(history, core.Message{Role: core.RoleUser, Content: prompt})

	reply := o.complete(ctx, history)
	o.persistBlob(ctx, sessionID, core.SenderUser, core.KindAudio, audio)
	o.persistText(ctx, sessionID, core.SenderAssistant, reply)
	return reply, nil
}

func (o *Orchestrator) textTurn(ctx context.Context, sessionID, text string) (string, error) {
	history, err := o.historyWindow(ctx, sessionID)
	if err != nil {
		return "", err
	}
	history = append(history, core.Message{Role: core.RoleUser, Content: text})

	reply := o.complete(ctx, history)
	o.persistText(ctx, sessionID, core.SenderUser, text)
	o.persistText(ctx, sessionID, core.SenderAssistant, reply)
	return reply, nil
}

// complete invokes the selected backend. Backend failures come back as
// the reply text so the turn still terminates normally.
func (o *Orchestrator) complete(ctx context.Context, history []core.Message) string {
	_, model := o.registry.Selection()
	if model == "" {
		return noModelReply()
	}
	answer, err := o.registry.Provider().Chat(ctx, model, history)
	return replyOrError(ctx, answer, err)
}

func (o *Orchestrator) historyWindow(ctx context.Context, sessionID string) ([]core.Message, error) {
	k, err := o.settings.GetInt(ctx, sqlite.SettingChatMemoryLength, sqlite.DefaultChatMemoryLength)
	if err != nil {
		return nil, err
	}

	stored, err := o.messages.RecentText(ctx, sessionID, k)
	if err != nil {
		return nil, err
	}

	history := make([]core.Message, 0, len(stored)+1)
	for _, msg := range stored {
		role := core.RoleUser
		if msg.Sender == core.SenderAssistant {
			role = core.RoleAssistant
		}
		history = append(history, core.Message{Role: role, Content: msg.Text})
	}
	return history, nil
}

func (o *Orchestrator) persistText(ctx context.Context, sessionID string, sender core.Sender, text string) {
	if err := o.messages.Append(ctx, sessionID, sender, core.KindText, text, nil); err != nil {
		log.FromCtx(ctx).Error().Err(err).Str("session", sessionID).Msg("failed to persist message")
	}
}

func (o *Orchestrator) persistBlob(ctx context.Context, sessionID string, sender core.Sender, kind core.Kind, blob []byte) {
	if err := o.messages.Append(ctx, sessionID, sender, kind, "", blob); err != nil {
		log.FromCtx(ctx).Error().Err(err).Str("session", sessionID).Msg("failed to persist message")
	}
}

func replyOrError(ctx context.Context, answer string, err error) string {
	if err == nil {
		return answer
	}
	var backendErr *core.BackendError
	if errors.As(err, &backendErr) {
		log.FromCtx(ctx).Warn().Err(err).Msg("backend request failed")
		return backendErr.Error()
	}
	log.FromCtx(ctx).Error().Err(err).Msg("unexpected completion failure")
	return fmt.Sprintf("Something went wrong: %v", err)
}

func noModelReply() string {
	return "No model selected. Pick one with /model <provider>/<model> or pull one with /pull <model_name>."
}
