package providers

import "testing"

func TestNewGeminiProviderDefaults(t *testing.T) {
	t.Setenv("MEMOFLOW_GEMINI_MODEL", "")
	p := NewGeminiProvider("alias1")
	if p == nil {
		t.Fatalf("expected provider instance")
	}
	if p.model != "gemini-2.0-flash" {
		t.Fatalf("unexpected default model %q", p.model)
	}
}
