package inference

import (
	"context"
	"sync"
)

// FakeInferenceClient is a deterministic in-process stand-in for
// Client, used by tests and by cmd/extraction-server when
// EXTRACTOR_OFFLINE=true. It
// preserves the two-variant shape spec.md §9 calls for ("polymorphic
// vLLM client ... a factory function returns the appropriate variant")
// now that Go has no in-process vLLM binding to mirror
// DirectVLLMClient.
type FakeInferenceClient struct {
	// Responder is called once per GenerateChatCompletion; tests set
	// this to script canned model output.
	Responder func(req Request) (*Response, error)

	mu    sync.Mutex
	ready bool
	stats Stats
}

// NewFakeInferenceClient builds a fake client with the given responder.
func NewFakeInferenceClient(responder func(req Request) (*Response, error)) *FakeInferenceClient {
	return &FakeInferenceClient{Responder: responder}
}

func (f *FakeInferenceClient) Connect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ready = true
	return nil
}

func (f *FakeInferenceClient) GenerateChatCompletion(ctx context.Context, req Request) (*Response, error) {
	f.mu.Lock()
	ready := f.ready
	f.mu.Unlock()
	if !ready {
		if err := f.Connect(ctx); err != nil {
			return nil, err
		}
	}
	resp, err := f.Responder(req)
	f.mu.Lock()
	f.stats.RequestsProcessed++
	if err != nil {
		f.stats.ErrorsEncountered++
	} else {
		f.stats.SuccessfulGenerations++
		f.stats.TotalTokensGenerated += resp.Usage.TotalTokens
	}
	f.mu.Unlock()
	return resp, err
}

func (f *FakeInferenceClient) GenerateBatch(ctx context.Context, reqs []Request) ([]*Response, error) {
	out := make([]*Response, 0, len(reqs))
	for _, req := range reqs {
		resp, err := f.GenerateChatCompletion(ctx, req)
		if err != nil {
			return out, err
		}
		out = append(out, resp)
	}
	return out, nil
}

func (f *FakeInferenceClient) IsReady() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ready
}

func (f *FakeInferenceClient) Stats() Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stats
}

func (f *FakeInferenceClient) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ready = false
	return nil
}
