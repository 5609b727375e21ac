package inference

import (
	"math"

	"legal-extraction-engine/internal/xerrors"
)

// TokenEstimator ports original_source/src/vllm_client/token_estimator.py:
// fast char-based estimation, prompt/completion budget validation with
// ContextOverflowError, and chunk-size-from-tokens arithmetic.
type TokenEstimator struct {
	CharsPerToken      float64
	MaxPromptTokens    int
	MaxModelContext    int
	MaxCompletionTokens int
}

// NewTokenEstimator builds an estimator from the request-shape budget
// fields in spec.md §6.
func NewTokenEstimator(charsPerToken float64, maxPromptTokens, maxModelContext, maxCompletionTokens int) *TokenEstimator {
	if charsPerToken <= 0 {
		charsPerToken = 4.0
	}
	return &TokenEstimator{
		CharsPerToken:       charsPerToken,
		MaxPromptTokens:     maxPromptTokens,
		MaxModelContext:     maxModelContext,
		MaxCompletionTokens: maxCompletionTokens,
	}
}

// EstimateTokens is the fast-mode estimator: tokens ≈ len(text) /
// chars_per_token.
func (e *TokenEstimator) EstimateTokens(text string) int {
	return int(float64(len(text)) / e.CharsPerToken)
}

// EstimatePromptTokens mirrors estimate_prompt_tokens: returns
// (promptTokens, allowedCompletionTokens) or a *xerrors.ContextOverflowError
// when the prompt alone, or prompt+completion, exceeds budget.
func (e *TokenEstimator) EstimatePromptTokens(prompt string, requestedCompletion int) (int, int, error) {
	promptTokens := e.EstimateTokens(prompt)

	if e.MaxPromptTokens > 0 && promptTokens > e.MaxPromptTokens {
		excess := promptTokens - e.MaxPromptTokens
		return promptTokens, 0, xerrors.NewContextOverflowError(promptTokens, e.MaxPromptTokens, excess)
	}

	allowed := requestedCompletion
	if e.MaxCompletionTokens > 0 && allowed > e.MaxCompletionTokens {
		allowed = e.MaxCompletionTokens
	}

	total := promptTokens + allowed
	if e.MaxModelContext > 0 && total > e.MaxModelContext {
		allowed = e.MaxModelContext - promptTokens
		if allowed < 100 {
			excess := total - e.MaxModelContext
			return promptTokens, 0, xerrors.NewContextOverflowError(total, e.MaxModelContext, excess)
		}
	}

	return promptTokens, allowed, nil
}

// CalculateChunkSize ports calculate_chunk_size: given total token
// count and an overlap fraction, returns (chunkSizeTokens, numChunks).
func (e *TokenEstimator) CalculateChunkSize(totalTokens int, overlapPercent float64) (int, int) {
	usableContext := e.MaxModelContext - e.MaxCompletionTokens
	if usableContext <= 0 {
		usableContext = e.MaxModelContext
	}
	overlapTokens := int(float64(usableContext) * overlapPercent)
	effectiveChunk := usableContext - overlapTokens
	if effectiveChunk <= 0 {
		effectiveChunk = usableContext
	}
	numChunks := int(math.Ceil(float64(totalTokens) / float64(effectiveChunk)))
	if numChunks < 1 {
		numChunks = 1
	}
	return effectiveChunk, numChunks
}
