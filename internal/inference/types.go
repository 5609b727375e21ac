package inference

// ServiceType distinguishes the three LLMBackend endpoints (spec.md
// §4.6, §6), ported from original_source's VLLMServiceType enum.
type ServiceType string

const (
	ServiceInstruct   ServiceType = "instruct"
	ServiceThinking   ServiceType = "thinking"
	ServiceEmbeddings ServiceType = "embeddings"
)

// ConnectionState is the InferenceClient's connection state machine
// (spec.md §4.6): NOT_READY → CONNECTING → READY → {CLOSING → CLOSED}.
type ConnectionState string

const (
	StateNotReady  ConnectionState = "NOT_READY"
	StateConnecting ConnectionState = "CONNECTING"
	StateReady     ConnectionState = "READY"
	StateClosing   ConnectionState = "CLOSING"
	StateClosed    ConnectionState = "CLOSED"
)

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is the LLMBackend request shape from spec.md §6.
type Request struct {
	Model       string         `json:"model"`
	Messages    []Message      `json:"messages"`
	MaxTokens   int            `json:"max_tokens"`
	Temperature float64        `json:"temperature"`
	TopP        float64        `json:"top_p,omitempty"`
	TopK        int            `json:"top_k,omitempty"`
	Seed        int            `json:"seed"`
	Stream      bool           `json:"stream"`
	Stop        []string       `json:"stop,omitempty"`
	GuidedJSON  map[string]any `json:"guided_json,omitempty"`
}

// Usage is the LLMBackend response's usage block.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Choice wraps one generated message.
type Choice struct {
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Response is the LLMBackend response shape from spec.md §6.
type Response struct {
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`

	// APIType and TokensPerSecond are client-side metadata (not sent over
	// the wire), mirroring the Python original's VLLMResponse.metadata.
	APIType     string
	TokensPerSecond float64
}

// Stats mirrors ClientStats from original_source/src/vllm_client/models.py.
type Stats struct {
	RequestsProcessed    int
	TotalTokensGenerated int
	ErrorsEncountered    int
	SuccessfulGenerations int
	ContextOverflows     int
}
