package llm

import (
	"strings"

	openrouter "github.com/revrost/go-openrouter"
	"go.uber.org/zap"
)

const (
	DefaultHistoryMessages = 20
	DefaultHistoryTokens   = 2000
)

// History is the running conversation of the assistant. The first message is
// the system prompt and survives trimming.
type History struct {
	system      *openrouter.ChatCompletionMessage
	messages    []openrouter.ChatCompletionMessage
	maxMessages int
	maxTokens   int
	logger      *zap.Logger
}

func NewHistory(maxMessages, maxTokens int, logger *zap.Logger) *History {
	if maxMessages <= 0 {
		maxMessages = DefaultHistoryMessages
	}
	if maxTokens <= 0 {
		maxTokens = DefaultHistoryTokens
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &History{
		maxMessages: maxMessages,
		maxTokens:   maxTokens,
		logger:      logger,
	}
}

// Reset drops the conversation and pins a new system prompt.
func (h *History) Reset(systemPrompt string) {
	msg := openrouter.SystemMessage(systemPrompt)
	h.system = &msg
	h.messages = nil
}

func (h *History) Started() bool {
	return h.system != nil
}

func (h *History) Append(messages ...openrouter.ChatCompletionMessage) {
	h.messages = append(h.messages, messages...)
	h.trim()
}

// Messages returns the system prompt followed by the retained conversation.
func (h *History) Messages() []openrouter.ChatCompletionMessage {
	out := make([]openrouter.ChatCompletionMessage, 0, len(h.messages)+1)
	if h.system != nil {
		out = append(out, *h.system)
	}
	return append(out, h.messages...)
}

func (h *History) Len() int {
	return len(h.messages)
}

func (h *History) TokenCount() int {
	return estimateTokens(h.Messages())
}

func (h *History) trim() {
	dropped := 0
	for len(h.messages) > h.maxMessages-1 && len(h.messages) > 1 {
		h.dropOldest()
		dropped++
	}
	for len(h.messages) > 1 && h.TokenCount() > h.maxTokens {
		h.dropOldest()
		dropped++
	}
	if dropped > 0 {
		h.logger.Debug("assistant history trimmed",
			zap.Int("dropped", dropped),
			zap.Int("messages", len(h.messages)),
			zap.Int("tokens", h.TokenCount()),
		)
	}
}

// dropOldest removes the oldest message, together with tool replies that would
// be left without the assistant message that requested them.
func (h *History) dropOldest() {
	h.messages = h.messages[1:]
	for len(h.messages) > 1 && h.messages[0].Role == openrouter.ChatMessageRoleTool {
		h.messages = h.messages[1:]
	}
}

func estimateTokens(messages []openrouter.ChatCompletionMessage) int {
	total := 0
	for _, msg := range messages {
		text := msg.Content.Text
		if text == "" {
			for _, part := range msg.Content.Multi {
				text += " " + part.Text
			}
		}
		total += len(strings.Fields(text))
	}
	return total
}
