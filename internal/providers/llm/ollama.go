package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sandevgo/polychat/internal/core"
)

const ProviderOllama = "ollama"

// Ollama talks to a local ollama server over its native /api endpoints.
type Ollama struct {
	baseProvider
}

func NewOllama(baseURL, apiKey string) *Ollama {
	return &Ollama{
		baseProvider: newBaseProvider(baseURL, apiKey),
	}
}

func (o *Ollama) authHeaders() map[string]string {
	headers := map[string]string{}
	if o.apiKey != "" {
		headers["Authorization"] = "Bearer " + o.apiKey
	}
	return headers
}

func (o *Ollama) Chat(ctx context.Context, model string, history []core.Message) (string, error) {
	payload := map[string]any{
		"model":    model,
		"messages": history,
		"stream":   false,
	}
	return o.complete(ctx, payload)
}

// ImageChat appends one user turn carrying the image as a top-level
// base64 images array next to the plain text content.
func (o *Ollama) ImageChat(ctx context.Context, model, text string, history []core.Message, image []byte) (string, error) {
	turn := map[string]any{
		"role":    core.RoleUser,
		"content": text,
		"images":  []string{base64.StdEncoding.EncodeToString(image)},
	}

	messages := make([]any, 0, len(history)+1)
	for _, msg := range history {
		messages = append(messages, msg)
	}
	messages = append(messages, turn)

	payload := map[string]any{
		"model":    model,
		"messages": messages,
		"stream":   false,
	}
	return o.complete(ctx, payload)
}

func (o *Ollama) complete(ctx context.Context, payload map[string]any) (string, error) {
	resp, err := o.doRequest(ctx, http.MethodPost, "/api/chat", payload, o.authHeaders())
	if err != nil {
		return "", &core.BackendError{Provider: ProviderOllama, Message: err.Error()}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &core.BackendError{Provider: ProviderOllama, Message: fmt.Sprintf("read body: %v", err)}
	}

	// Ollama reports failures as {"error": "..."}, sometimes with 200.
	var result struct {
		Error   string `json:"error"`
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return "", &core.BackendError{Provider: ProviderOllama, Message: fmt.Sprintf("http %d: %s", resp.StatusCode, data)}
	}
	if result.Error != "" {
		return "", &core.BackendError{Provider: ProviderOllama, Message: result.Error}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &core.BackendError{Provider: ProviderOllama, Message: fmt.Sprintf("http %d", resp.StatusCode)}
	}
	return result.Message.Content, nil
}

func (o *Ollama) Models(ctx context.Context) ([]core.Model, error) {
	resp, err := o.doRequest(ctx, http.MethodGet, "/api/tags", nil, o.authHeaders())
	if err != nil {
		return nil, &core.BackendError{Provider: ProviderOllama, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &core.BackendError{Provider: ProviderOllama, Message: fmt.Sprintf("http %d", resp.StatusCode)}
	}

	var result struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &core.BackendError{Provider: ProviderOllama, Message: fmt.Sprintf("decode tags: %v", err)}
	}

	models := make([]core.Model, 0, len(result.Models))
	for _, m := range result.Models {
		models = append(models, core.Model{ID: m.Name, Name: m.Name})
	}
	return models, nil
}

// Pull downloads a model onto the ollama server. The call blocks until
// the pull finishes, so callers run it in the background.
func (o *Ollama) Pull(ctx context.Context, model string) error {
	payload := map[string]any{
		"name":   model,
		"stream": false,
	}

	resp, err := o.doRequest(ctx, http.MethodPost, "/api/pull", payload, o.authHeaders())
	if err != nil {
		return &core.BackendError{Provider: ProviderOllama, Message: err.Error()}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &core.BackendError{Provider: ProviderOllama, Message: fmt.Sprintf("read body: %v", err)}
	}

	var result struct {
		Error  string `json:"error"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return &core.BackendError{Provider: ProviderOllama, Message: fmt.Sprintf("http %d: %s", resp.StatusCode, data)}
	}
	if result.Error != "" {
		return &core.BackendError{Provider: ProviderOllama, Message: result.Error}
	}
	if resp.StatusCode != http.StatusOK {
		return &core.BackendError{Provider: ProviderOllama, Message: fmt.Sprintf("http %d", resp.StatusCode)}
	}
	return nil
}
