package inference

// NewClient is the factory function spec.md §9 calls for: it selects
// the concrete Client variant by the offline flag (FakeInferenceClient
// when true, HTTPInferenceClient otherwise). It does not choose the
// endpoint: cfg already carries the BaseURL/Model of one service, which
// cmd/extraction-server picks per ServiceType. Grounded on
// original_source/src/vllm_client/factory.py's service-type→endpoint
// mapping.
func NewClient(cfg Config, offline bool) Client {
	if offline {
		return NewFakeInferenceClient(func(req Request) (*Response, error) {
			return &Response{
				Model:   req.Model,
				Choices: []Choice{{Message: Message{Role: "assistant", Content: "{}"}, FinishReason: "stop"}},
				Usage:   Usage{PromptTokens: 0, CompletionTokens: 0, TotalTokens: 0},
			}, nil
		})
	}
	return NewHTTPInferenceClient(cfg)
}
