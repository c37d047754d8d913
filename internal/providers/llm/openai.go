package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sandevgo/polychat/internal/core"
)

const ProviderOpenAI = "openai"

// OpenAI talks to api.openai.com or any server exposing the same
// /v1/chat/completions contract.
type OpenAI struct {
	baseProvider
}

func NewOpenAI(baseURL, apiKey string) *OpenAI {
	return &OpenAI{
		baseProvider: newBaseProvider(baseURL, apiKey),
	}
}

func (o *OpenAI) authHeaders() map[string]string {
	headers := map[string]string{}
	if o.apiKey != "" {
		headers["Authorization"] = "Bearer " + o.apiKey
	}
	return headers
}

func (o *OpenAI) Chat(ctx context.Context, model string, history []core.Message) (string, error) {
	payload := map[string]any{
		"model":    model,
		"messages": history,
		"stream":   false,
	}
	return o.complete(ctx, payload)
}

// ImageChat appends one user turn whose content is a text + image_url
// part array, with the image inlined as a base64 data URL.
func (o *OpenAI) ImageChat(ctx context.Context, model, text string, history []core.Message, image []byte) (string, error) {
	turn := map[string]any{
		"role": core.RoleUser,
		"content": []map[string]any{
			{"type": "text", "text": text},
			{"type": "image_url", "image_url": map[string]string{
				"url": encodeImageDataURL(image),
			}},
		},
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

func (o *OpenAI) complete(ctx context.Context, payload map[string]any) (string, error) {
	resp, err := o.doRequest(ctx, http.MethodPost, "/v1/chat/completions", payload, o.authHeaders())
	if err != nil {
		return "", &core.BackendError{Provider: ProviderOpenAI, Message: err.Error()}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &core.BackendError{Provider: ProviderOpenAI, Message: fmt.Sprintf("read body: %v", err)}
	}

	// The error envelope takes priority over the http status: the API
	// reports failures as {"error": {"message": ...}}.
	var result struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
		Choices []struct {
			Message core.Message `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return "", &core.BackendError{Provider: ProviderOpenAI, Message: fmt.Sprintf("http %d: %s", resp.StatusCode, data)}
	}
	if result.Error != nil {
		return "", &core.BackendError{Provider: ProviderOpenAI, Message: result.Error.Message}
	}
	if resp.StatusCode != http.StatusOK || len(result.Choices) == 0 {
		return "", &core.BackendError{Provider: ProviderOpenAI, Message: fmt.Sprintf("http %d: empty choices", resp.StatusCode)}
	}
	return result.Choices[0].Message.Content, nil
}

func (o *OpenAI) Models(ctx context.Context) ([]core.Model, error) {
	resp, err := o.doRequest(ctx, http.MethodGet, "/v1/models", nil, o.authHeaders())
	if err != nil {
		return nil, &core.BackendError{Provider: ProviderOpenAI, Message: err.Error()}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &core.BackendError{Provider: ProviderOpenAI, Message: fmt.Sprintf("read body: %v", err)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &core.BackendError{Provider: ProviderOpenAI, Message: fmt.Sprintf("http %d: %s", resp.StatusCode, data)}
	}

	var apiResp struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &apiResp); err != nil {
		return nil, &core.BackendError{Provider: ProviderOpenAI, Message: fmt.Sprintf("decode models: %v", err)}
	}

	models := make([]core.Model, 0, len(apiResp.Data))
	for _, m := range apiResp.Data {
		models = append(models, core.Model{ID: m.ID, Name: m.ID})
	}
	return models, nil
}
