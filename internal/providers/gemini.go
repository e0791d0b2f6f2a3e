package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// GeminiProvider calls the Generative Language REST API. It supports inline
// file parts (PDF bytes for pliego analysis), chat history for the sequential
// assembly session, and JSON-constrained output for the structured phases.
type GeminiProvider struct {
	keyName string
	apiKey  string
	model   string
	client  *http.Client
}

func NewGeminiProvider(keyName string) *GeminiProvider {
	model := strings.TrimSpace(os.Getenv("MEMOFLOW_GEMINI_MODEL"))
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &GeminiProvider{
		keyName: keyName,
		apiKey:  resolveGeminiKey(keyName),
		model:   model,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (g *GeminiProvider) info() ProviderInfo {
	return ProviderInfo{Name: "gemini", Model: g.model, Key: g.keyName}
}

func (g *GeminiProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	if g.apiKey == "" {
		return GenerateResponse{}, g.info(), fmt.Errorf("gemini key missing for alias %q", g.keyName)
	}

	contents := make([]map[string]any, 0, len(req.History)+1)
	for _, turn := range req.History {
		role := turn.Role
		if role != "model" {
			role = "user"
		}
		contents = append(contents, map[string]any{
			"role":  role,
			"parts": []map[string]any{{"text": turn.Text}},
		})
	}
	parts := make([]map[string]any, 0, len(req.Parts)+1)
	if req.Prompt != "" {
		parts = append(parts, map[string]any{"text": req.Prompt})
	}
	for _, p := range req.Parts {
		if p.Text != "" {
			parts = append(parts, map[string]any{"text": p.Text})
			continue
		}
		parts = append(parts, map[string]any{
			"inline_data": map[string]any{
				"mime_type": p.MimeType,
				"data":      base64.StdEncoding.EncodeToString(p.Data),
			},
		})
	}
	contents = append(contents, map[string]any{"role": "user", "parts": parts})

	body := map[string]any{"contents": contents}
	if req.JSONMode {
		body["generationConfig"] = map[string]any{"response_mime_type": "application/json"}
	}
	payload, _ := json.Marshal(body)

	url := fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent", g.model)
	httpReq, _ := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return GenerateResponse{}, g.info(), fmt.Errorf("gemini generate request failed: %w", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return GenerateResponse{}, g.info(), fmt.Errorf("gemini generate error %d: %s", resp.StatusCode, string(raw))
	}

	var parsed struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
			FinishReason string `json:"finishReason"`
		} `json:"candidates"`
		PromptFeedback struct {
			BlockReason string `json:"blockReason"`
		} `json:"promptFeedback"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return GenerateResponse{}, g.info(), fmt.Errorf("decode gemini response: %w", err)
	}
	if parsed.PromptFeedback.BlockReason != "" {
		return GenerateResponse{}, g.info(), fmt.Errorf("gemini response blocked: %s", parsed.PromptFeedback.BlockReason)
	}
	if len(parsed.Candidates) == 0 {
		return GenerateResponse{}, g.info(), fmt.Errorf("gemini returned no candidates")
	}
	cand := parsed.Candidates[0]
	if cand.FinishReason == "SAFETY" || cand.FinishReason == "PROHIBITED_CONTENT" {
		return GenerateResponse{}, g.info(), fmt.Errorf("gemini response blocked: %s", cand.FinishReason)
	}
	var b strings.Builder
	for _, p := range cand.Content.Parts {
		b.WriteString(p.Text)
	}
	if b.Len() == 0 {
		return GenerateResponse{}, g.info(), fmt.Errorf("gemini returned empty candidate text")
	}
	return GenerateResponse{Text: b.String()}, g.info(), nil
}

func resolveGeminiKey(alias string) string {
	if alias != "" {
		if v := os.Getenv("MEMOFLOW_GEMINI_KEY_" + strings.ToUpper(alias)); v != "" {
			return v
		}
	}
	return os.Getenv("GEMINI_API_KEY")
}
