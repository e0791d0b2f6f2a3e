package providers

import (
	"context"
	"strings"
)

// MockProvider returns deterministic output shaped for each pipeline phase,
// so workflows run end to end without network access.
type MockProvider struct{}

func NewMockProvider() *MockProvider { return &MockProvider{} }

func (m *MockProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	_ = ctx
	op := strings.ToLower(req.Operation)
	var text string
	switch {
	case strings.Contains(op, "lots"):
		text = `{"tiene_lotes": false, "lotes": []}`
	case strings.Contains(op, "index"):
		text = `{
  "titulo_memoria": "Memoria técnica simulada",
  "configuracion_licitacion": {"max_paginas": "20"},
  "estructura_memoria": [{"apartado": "1. Metodología", "subapartados": ["1.1 Enfoque"]}],
  "matices_desarrollo": [{"apartado": "1. Metodología", "subapartado": "1.1 Enfoque", "indicaciones": "Describir el enfoque."}],
  "plan_extension": [{"apartado": "1. Metodología", "paginas_sugeridas_apartado": 2, "desglose_subapartados": [{"subapartado": "1.1 Enfoque", "paginas_sugeridas": 2, "min_caracteres_sugeridos": 7000, "max_caracteres_sugeridos": 7600}]}]
}`
	case strings.Contains(op, "decompose"):
		text = `{"plan_de_prompts": [{"apartado_referencia": "1. Metodología", "subapartado_referencia": "1.1 Enfoque", "prompt_id": "P1_TEXTO", "prompt_para_asistente": "Redacta el enfoque entre {min_chars_fragmento} y {max_chars_fragmento} caracteres."}]}`
	case strings.Contains(op, "guion"):
		text = "## Estrategia\n\nGuion determinista para la sección solicitada."
	default:
		text = "Respuesta determinista de prueba."
	}
	return GenerateResponse{Text: text}, ProviderInfo{Name: "mock", Model: "mock-llm-v1", Key: "mock"}, nil
}
