package types

// Done reasons carried by the terminal CompletionEvent.
const (
	DoneReasonStop      = "stop"
	DoneReasonError     = "error"
	DoneReasonToolCalls = "tool_calls"
)

// CompletionEvent is one unit of the streamed response protocol. Field names
// are bit-exact for host-protocol compatibility; do not rename.
type CompletionEvent struct {
	Content            string     `json:"content"`
	Done               bool       `json:"done"`
	DoneReason         string     `json:"done_reason"`
	PromptEvalCount    int        `json:"prompt_eval_count"`
	PromptEvalDuration int64      `json:"prompt_eval_duration"` // nanoseconds
	EvalCount          int        `json:"eval_count"`
	EvalDuration       int64      `json:"eval_duration"` // nanoseconds
	Logprobs           []Logprob  `json:"logprobs"`
	ToolCalls          []ToolCall `json:"tool_calls"`
}

// Logprob reports the log probability of one emitted token.
type Logprob struct {
	Token   string  `json:"token"`
	Logprob float64 `json:"logprob"`
}

// ToolCall is a structured function invocation extracted from model output.
type ToolCall struct {
	ID       string           `json:"id"`
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction names the invoked function. Arguments is always a mapping
// after normalization, never a raw string.
type ToolCallFunction struct {
	Index     int            `json:"index"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}
