package util

import "testing"

func TestExtractJSONObjectFenced(t *testing.T) {
	in := "Claro, aquí tienes el plan:\n```json\n{\"plan_de_prompts\": []}\n```\nEspero que sirva."
	out := ExtractJSONObject(in)
	if out != `{"plan_de_prompts": []}` {
		t.Fatalf("unexpected extraction: %q", out)
	}
}

func TestExtractJSONObjectEmbedded(t *testing.T) {
	in := `El resultado es {"a": {"b": 1}} como se pedía.`
	out := ExtractJSONObject(in)
	if out != `{"a": {"b": 1}}` {
		t.Fatalf("unexpected extraction: %q", out)
	}
}

func TestExtractJSONObjectNoBraces(t *testing.T) {
	if out := ExtractJSONObject("no hay nada estructurado aquí"); out != "" {
		t.Fatalf("expected empty string, got %q", out)
	}
}
