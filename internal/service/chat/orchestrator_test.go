package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/sandevgo/polychat/internal/core"
)

type fakeBackends struct {
	model    string
	provider *fakeProvider
}

func (f *fakeBackends) Selection() (string, string) { return "ollama", f.model }
func (f *fakeBackends) Provider() core.ChatProvider { return f.provider }

type fakeProvider struct {
	reply string
	err   error

	chatCalls  int
	lastHist   []core.Message
	imageCalls int
	lastImage  []byte
	lastText   string
}

func (f *fakeProvider) Chat(ctx context.Context, model string, history []core.Message) (string, error) {
	f.chatCalls++
	f.lastHist = history
	return f.reply, f.err
}

func (f *fakeProvider) ImageChat(ctx context.Context, model, text string, history []core.Message, image []byte) (string, error) {
	f.imageCalls++
	f.lastHist = history
	f.lastImage = image
	f.lastText = text
	return f.reply, f.err
}

func (f *fakeProvider) Models(ctx context.Context) ([]core.Model, error) {
	return nil, nil
}

type memMessages struct {
	stored []core.StoredMessage
	nextID int64
}

func (m *memMessages) Append(ctx context.Context, sessionID string, sender core.Sender, kind core.Kind, text string, blob []byte) error {
	m.nextID++
	m.stored = append(m.stored, core.StoredMessage{
		ID:        m.nextID,
		SessionID: sessionID,
		Sender:    sender,
		Kind:      kind,
		Text:      text,
		Blob:      blob,
	})
	return nil
}

func (m *memMessages) RecentText(ctx context.Context, sessionID string, k int) ([]core.StoredMessage, error) {
	var text []core.StoredMessage
	for _, msg := range m.stored {
		if msg.SessionID == sessionID && msg.Kind == core.KindText {
			text = append(text, msg)
		}
	}
	if len(text) > k {
		text = text[len(text)-k:]
	}
	return text, nil
}

func (m *memMessages) All(ctx context.Context, sessionID string) ([]core.StoredMessage, error) {
	var out []core.StoredMessage
	for _, msg := range m.stored {
		if msg.SessionID == sessionID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *memMessages) ListSessions(ctx context.Context) ([]string, error) { return nil, nil }
func (m *memMessages) Delete(ctx context.Context, sessionID string) error { return nil }

func (m *memMessages) last() core.StoredMessage {
	return m.stored[len(m.stored)-1]
}

type memSettings struct {
	values map[string]int
}

func (m *memSettings) Get(ctx context.Context, name, defaultValue string) (string, error) {
	return defaultValue, nil
}

func (m *memSettings) GetInt(ctx context.Context, name string, defaultValue int) (int, error) {
	if v, ok := m.values[name]; ok {
		return v, nil
	}
	return defaultValue, nil
}

func (m *memSettings) Set(ctx context.Context, name, value string) error { return nil }

type fakeRetriever struct {
	chunks []core.Chunk
	err    error
	lastK  int
}

func (f *fakeRetriever) Query(ctx context.Context, text string, k int) ([]core.Chunk, error) {
	f.lastK = k
	if f.err != nil {
		return nil, f.err
	}
	if k < len(f.chunks) {
		return f.chunks[:k], nil
	}
	return f.chunks, nil
}

type fakeTranscriber struct {
	transcript string
	err        error
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	return f.transcript, f.err
}

type fakeRouter struct {
	reply   string
	handled bool
}

func (f *fakeRouter) Execute(ctx context.Context, sessionID, input string) (string, bool) {
	if !f.handled {
		return "", false
	}
	return f.reply, true
}

func (f *fakeRouter) ListCommands() []core.Command { return nil }

type fixture struct {
	orch      *Orchestrator
	provider  *fakeProvider
	messages  *memMessages
	retriever *fakeRetriever
}

func newFixture(opts ...func(*fixture)) *fixture {
	f := &fixture{
		provider:  &fakeProvider{reply: "model answer"},
		messages:  &memMessages{},
		retriever: &fakeRetriever{},
	}
	for _, opt := range opts {
		opt(f)
	}
	f.orch = NewOrchestrator(
		&fakeBackends{model: "llama3", provider: f.provider},
		f.messages,
		&memSettings{},
		f.retriever,
		&fakeTranscriber{transcript: "spoken words"},
		&fakeRouter{},
	)
	return f
}

func TestRespondTextTurn(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	reply, err := f.orch.Respond(ctx, Request{SessionID: "s1", Text: "hello"})
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if reply != "model answer" {
		t.Errorf("Reply = %q, want %q", reply, "model answer")
	}
	if f.provider.chatCalls != 1 {
		t.Fatalf("Chat called %d times, want 1", f.provider.chatCalls)
	}

	// Both sides of the turn are persisted in order.
	if len(f.messages.stored) != 2 {
		t.Fatalf("Stored %d messages, want 2", len(f.messages.stored))
	}
	if f.messages.stored[0].Sender != core.SenderUser || f.messages.stored[0].Text != "hello" {
		t.Errorf("User turn not persisted first: %+v", f.messages.stored[0])
	}
	if f.messages.stored[1].Sender != core.SenderAssistant || f.messages.stored[1].Text != "model answer" {
		t.Errorf("Assistant turn not persisted: %+v", f.messages.stored[1])
	}
}

func TestRespondHistoryWindow(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// Seed four prior text turns; the default window keeps the last two.
	seed := []struct {
		sender core.Sender
		text   string
	}{
		{core.SenderUser, "q1"},
		{core.SenderAssistant, "a1"},
		{core.SenderUser, "q2"},
		{core.SenderAssistant, "a2"},
	}
	for _, s := range seed {
		if err := f.messages.Append(ctx, "s1", s.sender, core.KindText, s.text, nil); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := f.orch.Respond(ctx, Request{SessionID: "s1", Text: "q3"}); err != nil {
		t.Fatalf("Respond: %v", err)
	}

	want := []core.Message{
		{Role: core.RoleUser, Content: "q2"},
		{Role: core.RoleAssistant, Content: "a2"},
		{Role: core.RoleUser, Content: "q3"},
	}
	if len(f.provider.lastHist) != len(want) {
		t.Fatalf("Backend saw %d messages, want %d: %+v", len(f.provider.lastHist), len(want), f.provider.lastHist)
	}
	for i, msg := range f.provider.lastHist {
		if msg != want[i] {
			t.Errorf("History[%d] = %+v, want %+v", i, msg, want[i])
		}
	}
}

func TestRespondNoModelSelected(t *testing.T) {
	f := newFixture()
	f.orch.registry = &fakeBackends{model: "", provider: f.provider}
	ctx := context.Background()

	reply, err := f.orch.Respond(ctx, Request{SessionID: "s1", Text: "hello"})
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if !strings.Contains(reply, "No model selected") {
		t.Errorf("Reply = %q, want a no-model hint", reply)
	}
	if f.provider.chatCalls != 0 {
		t.Errorf("Backend called despite missing model selection")
	}
	if f.messages.last().Text != reply {
		t.Errorf("Hint not persisted as the assistant turn")
	}
}

func TestRespondBackendErrorBecomesReply(t *testing.T) {
	f := newFixture()
	f.provider.err = &core.BackendError{Provider: "ollama", Message: "model 'x' not found"}
	ctx := context.Background()

	reply, err := f.orch.Respond(ctx, Request{SessionID: "s1", Text: "hello"})
	if err != nil {
		t.Fatalf("Backend failure must not fail the turn: %v", err)
	}
	if !strings.Contains(reply, "model 'x' not found") {
		t.Errorf("Reply = %q, want the backend error text", reply)
	}
	if f.messages.last().Text != reply {
		t.Errorf("Error reply not persisted")
	}
}

func TestRespondCommandBranch(t *testing.T) {
	f := newFixture()
	f.orch.router = &fakeRouter{reply: "commands: /help", handled: true}
	ctx := context.Background()

	reply, err := f.orch.Respond(ctx, Request{SessionID: "s1", Text: "/help"})
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if reply != "commands: /help" {
		t.Errorf("Reply = %q", reply)
	}
	if f.provider.chatCalls != 0 {
		t.Errorf("Command turn must not reach the backend")
	}
	if len(f.messages.stored) != 2 {
		t.Errorf("Command turn persisted %d messages, want 2", len(f.messages.stored))
	}
}

func TestRespondGroundedTurn(t *testing.T) {
	f := newFixture()
	f.retriever.chunks = []core.Chunk{
		{Text: "chunk one"},
		{Text: "chunk two"},
	}
	ctx := context.Background()

	// Prior history must not leak into a grounded turn.
	if err := f.messages.Append(ctx, "s1", core.SenderUser, core.KindText, "older question", nil); err != nil {
		t.Fatal(err)
	}

	reply, err := f.orch.Respond(ctx, Request{SessionID: "s1", Text: "what is this?", PDFGrounded: true})
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if reply != "model answer" {
		t.Errorf("Reply = %q", reply)
	}
	if f.retriever.lastK != 3 {
		t.Errorf("Retriever queried with k=%d, want default 3", f.retriever.lastK)
	}

	if len(f.provider.lastHist) != 1 {
		t.Fatalf("Grounded turn sent %d messages, want exactly 1", len(f.provider.lastHist))
	}
	prompt := f.provider.lastHist[0].Content
	want := fmt.Sprintf(groundedPromptTemplate, "chunk one\nchunk two", "what is this?")
	if prompt != want {
		t.Errorf("Prompt mismatch.\nExpected: %q\nGot:      %q", want, prompt)
	}
}

func TestRespondGroundedEmptyIndex(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// No chunks indexed: the turn still reaches the backend with an
	// empty context rather than failing.
	reply, err := f.orch.Respond(ctx, Request{SessionID: "s1", Text: "anything there?", PDFGrounded: true})
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if reply != "model answer" {
		t.Errorf("Reply = %q", reply)
	}
	if f.provider.chatCalls != 1 {
		t.Fatalf("Backend not reached on empty index")
	}
	want := fmt.Sprintf(groundedPromptTemplate, "", "anything there?")
	if f.provider.lastHist[0].Content != want {
		t.Errorf("Prompt = %q, want %q", f.provider.lastHist[0].Content, want)
	}
}

func TestRespondGroundedRetrievalError(t *testing.T) {
	f := newFixture()
	f.retriever.err = &core.RetrievalError{Err: errors.New("index unreadable")}
	ctx := context.Background()

	reply, err := f.orch.Respond(ctx, Request{SessionID: "s1", Text: "question", PDFGrounded: true})
	if err != nil {
		t.Fatalf("Degraded retrieval must not fail the turn: %v", err)
	}
	if !strings.Contains(reply, "Document retrieval is unavailable") {
		t.Errorf("Reply = %q, want a visible degradation notice", reply)
	}
	if f.provider.chatCalls != 0 {
		t.Errorf("Backend called despite failed retrieval")
	}
	if f.messages.last().Text != reply {
		t.Errorf("Degraded reply not persisted")
	}
}

func TestRespondImageTurn(t *testing.T) {
	f := newFixture()
	image := []byte{0xFF, 0xD8, 0xFF}
	ctx := context.Background()

	// Prior history is excluded from image turns.
	if err := f.messages.Append(ctx, "s1", core.SenderUser, core.KindText, "earlier", nil); err != nil {
		t.Fatal(err)
	}

	reply, err := f.orch.Respond(ctx, Request{SessionID: "s1", Text: "what is on it?", Image: image})
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if reply != "model answer" {
		t.Errorf("Reply = %q", reply)
	}
	if f.provider.imageCalls != 1 {
		t.Fatalf("ImageChat called %d times, want 1", f.provider.imageCalls)
	}
	if f.provider.lastHist != nil {
		t.Errorf("Image turn carried %d history messages, want none", len(f.provider.lastHist))
	}
	if f.provider.lastText != "what is on it?" {
		t.Errorf("Caption = %q", f.provider.lastText)
	}

	// Stored: the earlier seed, caption text, image blob, reply.
	all, _ := f.messages.All(ctx, "s1")
	if len(all) != 4 {
		t.Fatalf("Stored %d messages, want 4", len(all))
	}
	if all[2].Kind != core.KindImage || len(all[2].Blob) == 0 {
		t.Errorf("Image blob not persisted: %+v", all[2])
	}
	if all[3].Text != reply {
		t.Errorf("Reply not persisted last")
	}
}

func TestRespondAudioTurn(t *testing.T) {
	f := newFixture()
	audio := []byte{1, 2, 3, 4}
	ctx := context.Background()

	reply, err := f.orch.Respond(ctx, Request{SessionID: "s1", Audio: audio})
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if reply != "model answer" {
		t.Errorf("Reply = %q", reply)
	}

	// The transcript is what the backend sees.
	last := f.provider.lastHist[len(f.provider.lastHist)-1]
	if last.Content != "spoken words" {
		t.Errorf("Backend saw %q, want the transcript", last.Content)
	}

	all, _ := f.messages.All(ctx, "s1")
	if len(all) != 2 {
		t.Fatalf("Stored %d messages, want 2", len(all))
	}
	if all[0].Kind != core.KindAudio {
		t.Errorf("Audio blob not persisted as the user turn: %+v", all[0])
	}
}

func TestRespondAudioTurnWithCaption(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.orch.Respond(ctx, Request{SessionID: "s1", Text: "summarize this", Audio: []byte{9}}); err != nil {
		t.Fatalf("Respond: %v", err)
	}

	last := f.provider.lastHist[len(f.provider.lastHist)-1]
	if last.Content != "summarize this\nspoken words" {
		t.Errorf("Prompt = %q, want caption + transcript", last.Content)
	}
}

func TestRespondTranscriptionFailure(t *testing.T) {
	f := newFixture()
	f.orch.transcriber = &fakeTranscriber{err: &core.TranscriptionError{Err: errors.New("whisper down")}}
	ctx := context.Background()

	_, err := f.orch.Respond(ctx, Request{SessionID: "s1", Audio: []byte{1}})
	if err == nil {
		t.Fatal("Expected transcription failure to surface")
	}
	if f.provider.chatCalls != 0 {
		t.Errorf("Backend called despite failed transcription")
	}

	// The failed turn is still recorded: audio in, error notice out.
	all, _ := f.messages.All(ctx, "s1")
	if len(all) != 2 {
		t.Fatalf("Stored %d messages, want 2", len(all))
	}
	if all[0].Kind != core.KindAudio {
		t.Errorf("Audio not persisted: %+v", all[0])
	}
	if !strings.Contains(all[1].Text, "Could not transcribe audio") {
		t.Errorf("Error notice not persisted: %q", all[1].Text)
	}
}
