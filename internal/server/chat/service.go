// Package chat forwards conversations to the language model, optionally
// refusing requests outside the bar domain, and normalises the model's
// reply into a JSON object.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/barbot/internal/common"
	"github.com/dmitrijs2005/barbot/internal/logging"
)

var (
	ErrNotConfigured = errors.New("chat backend not configured")
	ErrUpstream      = errors.New("chat backend failed")
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type CompletionRequest struct {
	Model     string
	System    string
	MaxTokens int
	Messages  []Message
}

// Completer sends one completion request and returns the reply text.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

type Options struct {
	Model         string
	MaxTokens     int
	SystemPrompt  string
	AllowedTopics []string
}

type Service struct {
	completer Completer
	opts      Options
	topics    []string
	logger    logging.Logger
}

// NewService returns a chat service. A nil completer makes every Reply
// fail with ErrNotConfigured.
func NewService(c Completer, opts Options, logger logging.Logger) *Service {
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = MixologistPrompt
	}
	topics := make([]string, 0, len(opts.AllowedTopics))
	for _, t := range opts.AllowedTopics {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			topics = append(topics, t)
		}
	}
	return &Service{completer: c, opts: opts, topics: topics, logger: logger.With("module", "chat")}
}

// Enabled reports whether a completer is wired in.
func (s *Service) Enabled() bool { return s.completer != nil }

// Reply validates the conversation, applies the domain filter and asks the
// model. The result is the model's JSON object, or {"response": text} when
// the reply is not one.
func (s *Service) Reply(ctx context.Context, messages []Message) (map[string]any, error) {
	if err := validate(messages); err != nil {
		return nil, err
	}

	if !s.onTopic(messages) {
		s.logger.Info(ctx, "chat request refused by domain filter")
		return map[string]any{"response": OffTopicReply}, nil
	}

	if s.completer == nil {
		return nil, ErrNotConfigured
	}

	text, err := s.completer.Complete(ctx, CompletionRequest{
		Model:     s.opts.Model,
		System:    s.opts.SystemPrompt,
		MaxTokens: s.opts.MaxTokens,
		Messages:  messages,
	})
	if err != nil {
		s.logger.Error(ctx, "completion failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	return ParseReply(text), nil
}

// ParseReply decodes text as a JSON object, falling back to wrapping the
// raw text.
func ParseReply(text string) map[string]any {
	var obj map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &obj); err == nil && obj != nil {
		return obj
	}
	return map[string]any{"response": text}
}

func validate(messages []Message) error {
	if len(messages) == 0 {
		return fmt.Errorf("%w: at least one message is required", common.ErrorValidation)
	}
	for i, m := range messages {
		if m.Role != RoleUser && m.Role != RoleAssistant {
			return fmt.Errorf("%w: message %d has unsupported role %q", common.ErrorValidation, i, m.Role)
		}
		if strings.TrimSpace(m.Content) == "" {
			return fmt.Errorf("%w: message %d is empty", common.ErrorValidation, i)
		}
	}
	return nil
}

// onTopic checks the latest user message against the allowed topics. An
// empty topic list disables the filter.
func (s *Service) onTopic(messages []Message) bool {
	if len(s.topics) == 0 {
		return true
	}
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role != RoleUser {
			continue
		}
		content := strings.ToLower(messages[i].Content)
		for _, t := range s.topics {
			if strings.Contains(content, t) {
				return true
			}
		}
		return false
	}
	return false
}
