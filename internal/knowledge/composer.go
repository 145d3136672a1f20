package knowledge

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/hrhub/backend-go/internal/logger"
)

const (
	// NoResultsAnswer 检索无召回时的固定回复
	NoResultsAnswer = "I couldn't find relevant information for your question. Please try rephrasing or contact HR for assistance."
	// DegradedAnswer 模型调用失败时的降级回复
	DegradedAnswer = "I'm unable to generate a response at the moment. Please contact HR directly for assistance."

	chatSystemPrompt = "You are a helpful HR assistant."
)

// ChatClient 对话模型客户端
type ChatClient interface {
	Complete(ctx context.Context, systemPrompt string, userPrompt string) (string, error)
	Ready() bool
}

// OpenAIChatClient OpenAI对话客户端
type OpenAIChatClient struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

// NewOpenAIChatClient 创建OpenAI对话客户端
func NewOpenAIChatClient(apiKey, model string, maxTokens int, temperature float32) *OpenAIChatClient {
	if model == "" {
		model = openai.GPT3Dot5Turbo
	}
	if maxTokens <= 0 {
		maxTokens = 500
	}

	var client *openai.Client
	if apiKey != "" {
		client = openai.NewClient(apiKey)
	}

	return &OpenAIChatClient{
		client:      client,
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
	}
}

func (c *OpenAIChatClient) Complete(ctx context.Context, systemPrompt string, userPrompt string) (string, error) {
	if c.client == nil {
		return "", fmt.Errorf("chat client is not configured")
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (c *OpenAIChatClient) Ready() bool {
	return c.client != nil
}

// ComposedAnswer 生成的回答
type ComposedAnswer struct {
	Answer     string  `json:"answer"`
	Confidence float64 `json:"confidence"`
	Degraded   bool    `json:"degraded"`
}

// AnswerComposer 基于召回内容生成回答
type AnswerComposer struct {
	chatClient ChatClient
}

// NewAnswerComposer 创建回答生成器
func NewAnswerComposer(chatClient ChatClient) *AnswerComposer {
	return &AnswerComposer{chatClient: chatClient}
}

// Compose 根据召回片段生成回答
//
// 无召回时不调用模型，直接返回固定回复且置信度为0。
// 模型调用失败时返回降级回复，置信度为0。
func (c *AnswerComposer) Compose(ctx context.Context, question string, retrieved []RetrievalResult, additionalContext string) ComposedAnswer {
	if len(retrieved) == 0 {
		return ComposedAnswer{
			Answer:     NoResultsAnswer,
			Confidence: 0.0,
		}
	}

	prompt := buildAnswerPrompt(question, buildContextBlock(retrieved, additionalContext))

	answer, err := c.chatClient.Complete(ctx, chatSystemPrompt, prompt)
	if err != nil {
		logger.Error("failed to generate answer", zap.Error(err))
		return ComposedAnswer{
			Answer:     DegradedAnswer,
			Confidence: 0.0,
			Degraded:   true,
		}
	}

	return ComposedAnswer{
		Answer:     answer,
		Confidence: answerConfidence(answer),
	}
}

// buildContextBlock 将召回片段拼接为上下文文本
func buildContextBlock(retrieved []RetrievalResult, additionalContext string) string {
	parts := make([]string, 0, len(retrieved)+1)

	for _, result := range retrieved {
		meta := result.Chunk.Metadata

		var b strings.Builder
		fmt.Fprintf(&b, "Source: %s\n", meta.Title)
		if meta.Section != "" {
			sectionInfo := fmt.Sprintf("Section: %s", meta.Section)
			if meta.Subsection != "" {
				sectionInfo += fmt.Sprintf(" - %s", meta.Subsection)
			}
			b.WriteString(sectionInfo)
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Content: %s\n", result.Chunk.Content)

		parts = append(parts, b.String())
	}

	if additionalContext != "" {
		parts = append(parts, fmt.Sprintf("Additional Context: %s", additionalContext))
	}

	return strings.Join(parts, "\n---\n")
}

func buildAnswerPrompt(question, contextBlock string) string {
	return fmt.Sprintf(`
You are an HR assistant helping employees with policy questions. Use the provided context to answer the question accurately and helpfully.

Context:
%s

Question: %s

Instructions:
1. Answer based on the provided context
2. Be specific and cite relevant policy sections when possible
3. If the context doesn't contain enough information, say so clearly
4. Provide actionable guidance when appropriate
5. Be professional and helpful
6. If forms are needed, mention them but don't provide links (those will be handled separately)

Answer:`, contextBlock, question)
}

// answerConfidence 根据回答长度估算置信度，范围[0.1, 0.9]
func answerConfidence(answer string) float64 {
	confidence := float64(utf8.RuneCountInString(answer)) / 200
	if confidence < 0.1 {
		confidence = 0.1
	}
	if confidence > 0.9 {
		confidence = 0.9
	}
	return confidence
}
