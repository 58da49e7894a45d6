// Package costs tracks token consumption for a single top-level query.
//
// A Collector is threaded into every component that talks to the LLM or
// embedding backend and reset at the start of each query, so the snapshot
// read afterwards covers that query alone. Requests sharing one collector
// must be serialized. Backends that report usage feed the reported counts; backends
// that do not (typically local embedding servers) are accounted for with a
// local tiktoken count.
package costs

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// Ledger is a read-only snapshot of the counters after a request completes.
type Ledger struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	EmbeddingTokens  int `json:"embedding_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Encoding wraps a tokenizer used for fallback counting. Loading an encoding
// reads the BPE vocabulary, so the caller should load once and reuse it
// across collectors.
type Encoding struct {
	enc *tiktoken.Tiktoken
}

// LoadEncoding selects the tokenizer for the given model, falling back to
// cl100k_base for models tiktoken does not know.
func LoadEncoding(model string) (*Encoding, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("get tokenizer: %w", err)
		}
	}
	return &Encoding{enc: enc}, nil
}

// Count returns the token count for a string.
func (e *Encoding) Count(text string) int {
	return len(e.enc.Encode(text, nil, nil))
}

// Collector accumulates token counts for one request.
type Collector struct {
	mu         sync.Mutex
	prompt     int
	completion int
	embedding  int
	enc        *Encoding
}

// New creates a zeroed collector that uses enc for fallback counting.
// enc may be nil, in which case counting degrades to a ~4 characters per
// token estimate.
func New(enc *Encoding) *Collector {
	return &Collector{enc: enc}
}

// Reset clears all counters. Called at the start of every top-level query;
// stale counts from a previous request must never leak into the next one.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompt = 0
	c.completion = 0
	c.embedding = 0
}

// AddLLM records token usage from a chat completion call.
func (c *Collector) AddLLM(promptTokens, completionTokens int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompt += promptTokens
	c.completion += completionTokens
}

// AddEmbedding records token usage from an embedding call.
func (c *Collector) AddEmbedding(tokens int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.embedding += tokens
}

// CountTokens returns the local token count for text. Used when a backend
// reports no usage of its own.
func (c *Collector) CountTokens(text string) int {
	if c.enc == nil {
		return (len(text) + 3) / 4
	}
	return c.enc.Count(text)
}

// Snapshot returns the current counters.
func (c *Collector) Snapshot() Ledger {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Ledger{
		PromptTokens:     c.prompt,
		CompletionTokens: c.completion,
		EmbeddingTokens:  c.embedding,
		TotalTokens:      c.prompt + c.completion + c.embedding,
	}
}
