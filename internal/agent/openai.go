package agent

import (
	"context"
	"fmt"
	"os"
	"strings"

	hishoErrors "github.com/harunnryd/hisho/internal/errors"
	"github.com/harunnryd/hisho/internal/vault"

	"github.com/sashabaranov/go-openai"
)

const planSystemPrompt = "You are a personal secretary. Produce a short markdown " +
	"action plan for the task you are given. Use '- [ ]' checklist items for " +
	"every concrete step. Output only the plan."

// OpenAI drafts plans through a chat-completions endpoint. Any
// OpenAI-compatible server works via baseURL.
type OpenAI struct {
	client *openai.Client
	model  string
}

func NewOpenAI(apiKey, baseURL, model string) *OpenAI {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	}

	return &OpenAI{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (o *OpenAI) Name() string {
	return "openai"
}

func (o *OpenAI) Plan(ctx context.Context, rec *vault.Record) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: planSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: rec.Render()},
		},
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", hishoErrors.ExternalCall(fmt.Sprintf("openai request failed: %v", err))
	}
	if len(resp.Choices) == 0 {
		return "", hishoErrors.ExternalCall("no choices returned")
	}

	plan := strings.TrimSpace(resp.Choices[0].Message.Content)
	if plan == "" {
		return "", hishoErrors.ExternalCall("empty plan returned")
	}
	return plan + "\n", nil
}
