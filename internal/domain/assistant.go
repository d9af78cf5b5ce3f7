package domain

// ============================================================
// AI assistant
// ============================================================

// Intent is the classified purpose of a free-text query.
type Intent string

const (
	IntentSearch    Intent = "search"
	IntentCompare   Intent = "compare"
	IntentRecommend Intent = "recommend"
)

// Valid reports whether i is one of the known intents.
func (i Intent) Valid() bool {
	switch i {
	case IntentSearch, IntentCompare, IntentRecommend:
		return true
	}
	return false
}

// QueryIntent is what the language model extracted from the user's question.
type QueryIntent struct {
	Intent    Intent          `json:"intent"`
	Filters   *FilterCriteria `json:"filters,omitempty"`
	CardNames []string        `json:"cardNames,omitempty"`
	BestFor   []string        `json:"bestFor,omitempty"`
}

// AIQueryResponse is returned by POST /ai-query.
type AIQueryResponse struct {
	Cards           []CardRecord `json:"cards"`
	Message         string       `json:"message"`
	Comparison      bool         `json:"comparison"`
	Recommendations []string     `json:"recommendations,omitempty"`
}

// ============================================================
// Chat
// ============================================================

// ChatRole is the speaker of a conversation turn.
type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
	RoleSystem    ChatRole = "system"
)

// ChatTurn is one message of the transcript kept by the UI.
type ChatTurn struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

// ChatRequest is the body of POST /chat. The UI sends the whole transcript
// every time; nothing is kept server side.
type ChatRequest struct {
	Messages []ChatTurn `json:"messages"`
}

// TokenUsage tracks LLM token consumption for cost monitoring.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
