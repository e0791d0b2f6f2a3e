package providers

import "testing"

func TestParseProviderList(t *testing.T) {
	refs := ParseProviderList("mock|gemini:key1|openai:key2")
	if len(refs) != 3 {
		t.Fatalf("expected 3 providers got %d", len(refs))
	}
	if refs[1].Name != "gemini" || refs[1].KeyAlias != "key1" {
		t.Fatalf("unexpected parse result: %+v", refs[1])
	}
}

func TestNewManagerFallsBackToMock(t *testing.T) {
	m, err := NewManager("")
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	if m.LLMCount() != 1 {
		t.Fatalf("expected single mock provider, got %d", m.LLMCount())
	}
	if _, ref := m.LLMProviderByIndex(0); ref.Name != "mock" {
		t.Fatalf("expected mock provider, got %s", ref.Name)
	}
}

func TestNewManagerRejectsUnknown(t *testing.T) {
	if _, err := NewManager("grok"); err == nil {
		t.Fatalf("expected error for unsupported provider")
	}
}
