package inference

import "testing"

func TestEstimatePromptTokensOverflow(t *testing.T) {
	e := NewTokenEstimator(4.0, 100, 200, 50)
	prompt := make([]byte, 1000) // ~250 tokens, over the 100-token prompt budget
	for i := range prompt {
		prompt[i] = 'a'
	}
	_, _, err := e.EstimatePromptTokens(string(prompt), 50)
	if err == nil {
		t.Fatal("expected ContextOverflowError")
	}
}

func TestEstimatePromptTokensWithinBudget(t *testing.T) {
	e := NewTokenEstimator(4.0, 1000, 2000, 200)
	prompt := "a short legal prompt about contracts"
	_, allowed, err := e.EstimatePromptTokens(prompt, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed != 100 {
		t.Fatalf("expected full completion budget, got %d", allowed)
	}
}

func TestCalculateChunkSize(t *testing.T) {
	e := NewTokenEstimator(4.0, 100000, 131072, 4096)
	size, numChunks := e.CalculateChunkSize(500000, 0.1)
	if size <= 0 || numChunks < 1 {
		t.Fatalf("unexpected chunk size result: size=%d numChunks=%d", size, numChunks)
	}
}
