package costs

import "testing"

func testEncoding(t *testing.T) *Encoding {
	t.Helper()
	enc, err := LoadEncoding("gpt-3.5-turbo")
	if err != nil {
		t.Fatal(err)
	}
	return enc
}

func TestCollectorAccumulates(t *testing.T) {
	c := New(testEncoding(t))

	c.AddLLM(10, 5)
	c.AddLLM(20, 8)
	c.AddEmbedding(7)

	got := c.Snapshot()
	if got.PromptTokens != 30 {
		t.Errorf("prompt tokens = %d, want 30", got.PromptTokens)
	}
	if got.CompletionTokens != 13 {
		t.Errorf("completion tokens = %d, want 13", got.CompletionTokens)
	}
	if got.EmbeddingTokens != 7 {
		t.Errorf("embedding tokens = %d, want 7", got.EmbeddingTokens)
	}
	if got.TotalTokens != 50 {
		t.Errorf("total tokens = %d, want 50", got.TotalTokens)
	}
}

func TestCollectorResetZeroesAllCounters(t *testing.T) {
	c := New(testEncoding(t))
	c.AddLLM(100, 50)
	c.AddEmbedding(25)

	c.Reset()

	got := c.Snapshot()
	if got != (Ledger{}) {
		t.Errorf("after reset got %+v, want all-zero ledger", got)
	}
}

func TestCollectorCountTokens(t *testing.T) {
	c := New(testEncoding(t))
	if n := c.CountTokens("hello world"); n == 0 {
		t.Error("expected non-zero token count for non-empty text")
	}
	if n := c.CountTokens(""); n != 0 {
		t.Errorf("expected 0 tokens for empty text, got %d", n)
	}
}

func TestCollectorNilEncodingEstimates(t *testing.T) {
	c := New(nil)
	if n := c.CountTokens("12345678"); n != 2 {
		t.Errorf("estimate for 8 chars = %d, want 2", n)
	}
	if n := c.CountTokens(""); n != 0 {
		t.Errorf("estimate for empty text = %d, want 0", n)
	}
}

func TestLoadEncodingUnknownModelFallsBack(t *testing.T) {
	enc, err := LoadEncoding("some-unknown-model-name")
	if err != nil {
		t.Fatalf("expected cl100k_base fallback, got error: %v", err)
	}
	if enc.Count("fallback") == 0 {
		t.Error("fallback encoding produced zero tokens")
	}
}
