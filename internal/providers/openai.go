package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// OpenAIProvider is the secondary generation backend. It has no inline-file
// upload, so callers attach document content as extracted text parts.
type OpenAIProvider struct {
	keyName string
	apiKey  string
	model   string
	client  *http.Client
}

func NewOpenAIProvider(keyName string) *OpenAIProvider {
	model := strings.TrimSpace(os.Getenv("MEMOFLOW_OPENAI_MODEL"))
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIProvider{
		keyName: keyName,
		apiKey:  resolveOpenAIKey(keyName),
		model:   model,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (o *OpenAIProvider) info() ProviderInfo {
	return ProviderInfo{Name: "openai", Model: o.model, Key: o.keyName}
}

func (o *OpenAIProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	if o.apiKey == "" {
		return GenerateResponse{}, o.info(), fmt.Errorf("openai key missing for alias %q", o.keyName)
	}

	messages := []map[string]string{
		{"role": "system", "content": "Eres un consultor experto en licitaciones públicas españolas. Responde exactamente en el formato pedido, sin texto introductorio."},
	}
	for _, turn := range req.History {
		role := "user"
		if turn.Role == "model" {
			role = "assistant"
		}
		messages = append(messages, map[string]string{"role": role, "content": turn.Text})
	}
	content := req.Prompt
	for _, p := range req.Parts {
		if p.Text != "" {
			content += "\n\n---\n" + p.Text
		}
	}
	messages = append(messages, map[string]string{"role": "user", "content": content})

	body := map[string]any{"model": o.model, "messages": messages}
	if req.JSONMode {
		body["response_format"] = map[string]string{"type": "json_object"}
	}
	payload, _ := json.Marshal(body)

	httpReq, _ := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.openai.com/v1/chat/completions", bytes.NewReader(payload))
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return GenerateResponse{}, o.info(), fmt.Errorf("openai generate request failed: %w", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return GenerateResponse{}, o.info(), fmt.Errorf("openai generate error %d: %s", resp.StatusCode, string(raw))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return GenerateResponse{}, o.info(), fmt.Errorf("decode openai response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return GenerateResponse{}, o.info(), fmt.Errorf("openai returned empty choices")
	}
	return GenerateResponse{Text: parsed.Choices[0].Message.Content}, o.info(), nil
}

func resolveOpenAIKey(alias string) string {
	if alias != "" {
		if v := os.Getenv("MEMOFLOW_OPENAI_KEY_" + strings.ToUpper(alias)); v != "" {
			return v
		}
	}
	return os.Getenv("OPENAI_API_KEY")
}
